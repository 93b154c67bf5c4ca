package parser

import (
	"regexp"
	"strings"
)

var blankLineRegex = regexp.MustCompile(`\n[ \t\r]*\n`)

// scanSymbols walks text by full Unicode code point and collects, in order,
// only the runes present in want. Iterating by code point keeps multi-byte
// emoji intact; byte indexing would split them.
func scanSymbols(text string, want map[rune]bool) []rune {
	var symbols []rune
	for _, r := range text {
		if want[r] {
			symbols = append(symbols, r)
		}
	}
	return symbols
}

// symbolWindow bounds the text an extractor may scan for marker symbols:
// everything after the game's own anchor, cut off at the next blank line so
// another game's grid in the same paste is never picked up. trimLeading skips
// the blank lines some games put between their tag line and the grid.
func symbolWindow(text string, trimLeading bool) string {
	if trimLeading {
		text = strings.TrimLeft(text, " \t\r\n")
	}
	if loc := blankLineRegex.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return text
}

// stripSeparators removes the digit-grouping separators and whitespace that
// share texts use in large numbers ("1,705", "44 237").
func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', ',', ' ':
			return -1
		}
		return r
	}, s)
}
