// Package parser extracts structured game results from the share text users
// paste from daily puzzle games. Each game has its own extractor; a single
// paste may contain results for several games at once.
package parser

import (
	"fmt"
	"regexp"
	"time"

	"github.com/puzzle-league/internal/domain"
)

// ParseAll runs every game extractor against the submitted text and returns
// all detected results, at most one per game. Callers must not rely on the
// order of the returned slice, only on which games are present.
func ParseAll(text string) []domain.ParsedScore {
	var results []domain.ParsedScore
	for _, extract := range extractors {
		if score, ok := extract(text); ok {
			results = append(results, score)
		}
	}
	return results
}

var dateRegex = regexp.MustCompile(`(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),?\s+(\w+)\s+(\d+),?\s+(\d{4})`)

// DateFromText looks for an embedded date like "Wednesday, Feb 18, 2026" and
// returns it when present. Some games include the play date in their share
// text; it takes precedence over the server clock when stored.
func DateFromText(text string) (time.Time, bool) {
	m := dateRegex.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("Jan 2 2006", fmt.Sprintf("%s %s %s", m[1], m[2], m[3]))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
