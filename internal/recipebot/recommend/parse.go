// Package recommend picks a "surprise me" dish out of a generated list,
// steering away from what the same user was shown recently.
package recommend

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoCandidates means the generated text held no usable dish name.
var ErrNoCandidates = errors.New("no recommendation candidates")

// enumPrefix matches list numbering such as "1." or "12.  " at line start.
var enumPrefix = regexp.MustCompile(`^\d+\.\s*`)

// ParseCandidates treats each non-blank line of text as one candidate and
// strips a leading "<digits>." enumeration.
func ParseCandidates(text string) []string {
	lines := strings.Split(text, "\n")
	candidates := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(enumPrefix.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		candidates = append(candidates, line)
	}
	return candidates
}
