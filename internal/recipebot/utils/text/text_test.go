package textx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "no noise", in: "Boil the noodles.", want: "Boil the noodles."},
		{name: "heading", in: "## Steps\n1. Wash", want: " Steps\n1. Wash"},
		{name: "bold", in: "**Mapo Tofu**", want: "Mapo Tofu"},
		{name: "bullets", in: "- rice\n- eggs", want: " rice\n eggs"},
		{name: "hyphenated words concatenate", in: "stir-fry", want: "stirfry"},
		{name: "only noise", in: "#*-#*-", want: ""},
		{name: "unicode untouched", in: "宫保鸡丁 – *spicy*", want: "宫保鸡丁 – spicy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCleanIdempotentAndOnlyRemoves(t *testing.T) {
	inputs := []string{
		"### Kung-Pao *Chicken*\n- peanuts\n- chili",
		"plain",
		strings.Repeat("a-b*c#", 1000),
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once))
		assert.LessOrEqual(t, len(once), len(in))
		assert.False(t, strings.ContainsAny(once, "#*-"))

		var kept strings.Builder
		for _, r := range in {
			if !strings.ContainsRune("#*-", r) {
				kept.WriteRune(r)
			}
		}
		assert.Equal(t, kept.String(), once)
	}
}
