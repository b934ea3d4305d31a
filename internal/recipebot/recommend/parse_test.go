package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "numbered list",
			text: "1. Mapo Tofu\n2. Kung Pao Chicken\n3. Dumplings",
			want: []string{"Mapo Tofu", "Kung Pao Chicken", "Dumplings"},
		},
		{
			name: "single name",
			text: "Braised Pork Belly",
			want: []string{"Braised Pork Belly"},
		},
		{
			name: "no space after period",
			text: "1.Mapo Tofu\n10.   Fried Rice",
			want: []string{"Mapo Tofu", "Fried Rice"},
		},
		{
			name: "blank lines and crlf",
			text: "\r\n1. Mapo Tofu\r\n\r\n   \n2. Dumplings\r\n",
			want: []string{"Mapo Tofu", "Dumplings"},
		},
		{
			name: "number without period is kept",
			text: "3 Cup Chicken",
			want: []string{"3 Cup Chicken"},
		},
		{
			name: "enumeration only",
			text: "1.\n2. ",
			want: []string{},
		},
		{name: "empty", text: "", want: []string{}},
		{name: "whitespace only", text: " \n\t\n  ", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCandidates(tt.text))
		})
	}
}
