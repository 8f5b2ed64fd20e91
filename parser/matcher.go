// Package parser turns free-form CPE CLI output into structured readings.
// Every parser is a pure function that never fails: a pattern that does not
// match leaves its field at the absent/zero value.
package parser

import (
	"regexp"
	"strings"
)

// Matcher is one entry of an ordered pattern table. Pattern must have
// exactly one capture group holding the value.
type Matcher struct {
	Name    string
	Pattern *regexp.Regexp
}

// MatcherTable is evaluated in order; the first matcher producing a
// non-empty capture wins.
type MatcherTable []Matcher

// First returns the first non-empty capture and the matcher that produced it.
func (t MatcherTable) First(text string) (string, string, bool) {
	for _, m := range t {
		match := m.Pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		if value := strings.TrimSpace(match[1]); value != "" {
			return value, m.Name, true
		}
	}
	return "", "", false
}

func mustMatcher(name, pattern string) Matcher {
	return Matcher{Name: name, Pattern: regexp.MustCompile(pattern)}
}
