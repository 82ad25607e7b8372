// Package identity checks decoded usernames against platform naming rules
// and optionally verifies them against the platform's user API.
package identity

import (
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Validate checks a candidate username. Rules are applied in order and the
// first failure wins; the reason is for diagnostics, not control flow.
func Validate(name string) (bool, string) {
	if len(name) < 3 || len(name) > 20 {
		return false, "name must be between 3 and 20 characters"
	}
	if !namePattern.MatchString(name) {
		return false, "only letters, numbers, and one underscore allowed"
	}
	if strings.HasPrefix(name, "_") || strings.HasSuffix(name, "_") {
		return false, "underscore cannot be at the start or end"
	}
	if strings.Contains(name, "__") {
		return false, "cannot have multiple underscores in a row"
	}
	if strings.Count(name, "_") > 1 {
		return false, "only one underscore is allowed"
	}
	return true, "valid username"
}
