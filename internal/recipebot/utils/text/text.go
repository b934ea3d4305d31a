package textx

import "strings"

// formattingNoise lists the markdown-ish characters stripped from generated text.
const formattingNoise = "#*-"

var cleaner = strings.NewReplacer("#", "", "*", "", "-", "")

// Clean deletes every '#', '*' and '-' from s. Characters are removed, not
// replaced, so "stir-fry" becomes "stirfry".
func Clean(s string) string {
	if !strings.ContainsAny(s, formattingNoise) {
		return s
	}
	return cleaner.Replace(s)
}
