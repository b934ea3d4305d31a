package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text     string
		wantKind Kind
		wantArgs []string
	}{
		{text: "/popular", wantKind: Popular},
		{text: "/detail Mapo Tofu", wantKind: Detail, wantArgs: []string{"Mapo", "Tofu"}},
		{text: "  /plan   7days  1800 ", wantKind: Plan, wantArgs: []string{"7days", "1800"}},
		{text: "/DETAIL@RecipeBot Dumplings", wantKind: Detail, wantArgs: []string{"Dumplings"}},
		{text: "/start", wantKind: Help},
		{text: "/help", wantKind: Help},
		{text: "/history", wantKind: History},
		{text: "/unknown thing", wantKind: FreeText},
		{text: "/", wantKind: FreeText},
		{text: "What is a quick breakfast?", wantKind: FreeText},
		{text: "", wantKind: FreeText},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := Parse(tt.text)
			assert.Equal(t, tt.wantKind, cmd.Kind)
			if tt.wantArgs == nil {
				assert.Empty(t, cmd.Args)
			} else {
				assert.Equal(t, tt.wantArgs, cmd.Args)
			}
		})
	}
}

func TestParseBotMention(t *testing.T) {
	tests := []struct {
		text     string
		username string
		wantBot  string
		want     bool
	}{
		{text: "/detail@SomeOtherBot Mapo Tofu", username: "RecipeBot", wantBot: "SomeOtherBot", want: false},
		{text: "/detail@recipebot Mapo Tofu", username: "RecipeBot", wantBot: "recipebot", want: true},
		{text: "/detail@RecipeBot Mapo Tofu", username: "@RecipeBot", wantBot: "RecipeBot", want: true},
		{text: "/detail Mapo Tofu", username: "RecipeBot", want: true},
		{text: "/detail@SomeOtherBot Mapo Tofu", username: "", wantBot: "SomeOtherBot", want: true},
		{text: "hello @SomeOtherBot", username: "RecipeBot", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.username, func(t *testing.T) {
			cmd := Parse(tt.text)
			assert.Equal(t, tt.wantBot, cmd.Bot)
			assert.Equal(t, tt.want, cmd.AddressedTo(tt.username))
		})
	}
}

func TestParseKeepsFreeTextVerbatim(t *testing.T) {
	cmd := Parse("  /unknown   spacing kept  ")
	assert.Equal(t, FreeText, cmd.Kind)
	assert.Equal(t, "/unknown   spacing kept", cmd.Text)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		text      string
		wantArgs  []string
		wantUsage string
	}{
		{text: "/detail", wantUsage: "Usage: /detail <recipe_name>"},
		{text: "/recipe", wantUsage: "Usage: /recipe <ingredients> <taste>"},
		{text: "/recommend", wantUsage: "Usage: /recommend <ingredient1> <ingredient2>..."},
		{text: "/collect", wantUsage: "Usage: /collect <recipe_name>"},
		{text: "/nutrition", wantUsage: "Usage: /nutrition <recipe_name>"},
		{text: "/delete", wantUsage: "Usage: /delete <recipe_name>"},
		{text: "/plan", wantUsage: "Usage: /plan <duration> <calories>"},
		{text: "/plan 7days", wantUsage: "Usage: /plan <duration> <calories>"},
		{text: "/plan 7 days 1800", wantUsage: "Usage: /plan <duration> <calories>"},
		{text: "/plan 7days 1800", wantArgs: []string{"7days", "1800"}},
		{text: "/collect Mapo Tofu", wantArgs: []string{"Mapo Tofu"}},
		{text: "/recipe chicken  spicy", wantArgs: []string{"chicken spicy"}},
		{text: "/popular ignored args"},
		{text: "/history"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			args, err := Parse(tt.text).Validate()
			if tt.wantUsage != "" {
				var usage *UsageError
				require.True(t, errors.As(err, &usage))
				assert.Equal(t, tt.wantUsage, usage.Usage)
				assert.Equal(t, tt.wantUsage, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "popular", Popular.String())
	assert.Equal(t, "free_text", FreeText.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
