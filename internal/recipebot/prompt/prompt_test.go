package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplates(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "popular",
			got:  Popular(),
			want: "Generate one random recommended dish name, returning only the name; a new dish must be returned each time and must not repeat the immediately previous one.",
		},
		{
			name: "recipe",
			got:  Recipe("tofu spicy"),
			want: "Generate a list of recipes containing tofu spicy.",
		},
		{
			name: "detail",
			got:  Detail("Mapo Tofu"),
			want: "Detailed cooking steps for Mapo Tofu.",
		},
		{
			name: "plan",
			got:  Plan("7days", "1800"),
			want: "Develop a 7days diet plan with a daily calorie limit of 1800 calories.",
		},
		{
			name: "recommend",
			got:  Recommend("egg tomato"),
			want: "What recipes can be made using egg tomato.",
		},
		{
			name: "nutrition",
			got:  Nutrition("Dumplings"),
			want: "Nutritional analysis of Dumplings.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestArgumentsAreVerbatim(t *testing.T) {
	// no trimming, casing or escaping of user input
	assert.Equal(t, "Detailed cooking steps for  %d *Fish*.", Detail(" %d *Fish*"))
	assert.Equal(t, "Develop a  diet plan with a daily calorie limit of  calories.", Plan("", ""))
}
