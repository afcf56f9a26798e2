package session

import "strings"

// ParseTargets splits comma or line delimited input into distinct, trimmed
// target identifiers. Empty entries are dropped; first occurrence wins.
func ParseTargets(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	seen := make(map[string]struct{}, len(fields))
	targets := make([]string, 0, len(fields))
	for _, f := range fields {
		target := strings.TrimSpace(f)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}
	return targets
}
