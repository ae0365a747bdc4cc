package agent

import (
	"regexp"
	"strings"
)

// fenceLine matches a markdown fence opener (optionally tagged) or a bare closer
var fenceLine = regexp.MustCompile("(?i)^```(?:zsh|bash|sh)?$")

// Sanitize turns raw model output into the shell code to print. It trims the
// text and drops every fence line wherever it appears, so output that is only
// partly wrapped in a fence still comes out clean. No syntax checking is done.
func Sanitize(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if fenceLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
