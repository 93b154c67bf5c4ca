package parser

import (
	"regexp"
	"strconv"

	"github.com/puzzle-league/internal/domain"
)

// An extractor scans the full submission text for its game's signature and
// returns one result or nothing. Malformed-but-anchored input fails closed:
// the extractor reports no match instead of an error, so one broken game
// never blocks the others in the same paste.
type extractor func(text string) (domain.ParsedScore, bool)

// extractors is the fixed dispatch list run by ParseAll. Order does not
// matter; each extractor anchors on its own pattern.
var extractors = []extractor{
	extractTravle,
	extractConnections,
	extractWordle,
	extractGuessTheMovie,
	extractGuessTheGame,
	extractFoodGuessr,
	extractTimeGuessr,
}

// \x{00A0} covers the non-breaking spaces some apps insert in big numbers.
var (
	wordleRegex        = regexp.MustCompile(`(?i)Wordle\s+([\d\s,\x{00A0}]+?)\s+([X\d])/6`)
	connectionsRegex   = regexp.MustCompile(`(?i)Connections\s+Puzzle\s+#(\d+)`)
	travlePerfectRegex = regexp.MustCompile(`(?i)#travle\s+#(\d+)\s+\+?\d*\s*\(Perfect\)`)
	travleRegex        = regexp.MustCompile(`(?i)#travle\s+#(\d+)\s+([+-]?\d+)`)
	guessTheMovieRegex = regexp.MustCompile(`(?i)#GuessTheMovie\s+#(\d+)`)
	guessTheGameRegex  = regexp.MustCompile(`(?i)#GuessTheGame\s+#(\d+)`)
	foodGuessrRegex    = regexp.MustCompile(`(?i)I got ([\d\s,\x{00A0}]+?) on the FoodGuessr`)
	timeGuessrRegex    = regexp.MustCompile(`(?i)TimeGuessr\s+#(\d+)\s+([\d\s,\x{00A0}]+?)/([\d\s,\x{00A0}]+)`)
)

// Marker symbol whitelists per game. Everything outside the set is skipped
// during scanning.
var (
	connectionsSquares = map[rune]bool{'🟪': true, '🟩': true, '🟨': true, '🟦': true}
	movieSquares       = map[rune]bool{'🟥': true, '🟩': true, '⬜': true}
	gameSquares        = map[rune]bool{'🟥': true, '🟨': true, '🟩': true, '⬜': true}
)

// extractWordle handles "Wordle 1,705 3/6" (or "1 705"); X/6 counts as 7.
func extractWordle(text string) (domain.ParsedScore, bool) {
	m := wordleRegex.FindStringSubmatch(text)
	if m == nil {
		return domain.ParsedScore{}, false
	}
	number := stripSeparators(m[1])

	score := 7.0
	if m[2] != "X" && m[2] != "x" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return domain.ParsedScore{}, false
		}
		score = float64(n)
	}
	return domain.ParsedScore{Game: domain.GameWordle, Number: number, Score: score}, true
}

// extractConnections counts mistake rows: each row of 4 squares that is not
// a single color is one mistake. More than 7 rows means the puzzle was not
// solved, which caps the score at 4.
func extractConnections(text string) (domain.ParsedScore, bool) {
	m := connectionsRegex.FindStringSubmatchIndex(text)
	if m == nil {
		return domain.ParsedScore{}, false
	}
	number := text[m[2]:m[3]]

	window := symbolWindow(text[m[1]:], false)
	colors := scanSymbols(window, connectionsSquares)
	if len(colors) == 0 {
		return domain.ParsedScore{}, false
	}

	mistakes := 0
	for i := 0; i+4 <= len(colors); i += 4 {
		row := colors[i : i+4]
		if row[0] != row[1] || row[1] != row[2] || row[2] != row[3] {
			mistakes++
		}
	}

	totalRows := (len(colors) + 3) / 4
	if totalRows > 7 {
		mistakes = 4
	}

	return domain.ParsedScore{Game: domain.GameConnections, Number: number, Score: float64(mistakes)}, true
}

// extractTravle reads the signed error count from "#travle #500 +3".
// The "(Perfect)" variant always scores -1.
func extractTravle(text string) (domain.ParsedScore, bool) {
	if m := travlePerfectRegex.FindStringSubmatch(text); m != nil {
		return domain.ParsedScore{Game: domain.GameTravle, Number: m[1], Score: -1}, true
	}

	m := travleRegex.FindStringSubmatch(text)
	if m == nil {
		return domain.ParsedScore{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return domain.ParsedScore{}, false
	}
	return domain.ParsedScore{Game: domain.GameTravle, Number: m[1], Score: float64(n)}, true
}

// extractGuessTheMovie scores the 1-based position of the first green square;
// no green within the shown guesses scores 7.
func extractGuessTheMovie(text string) (domain.ParsedScore, bool) {
	return extractFirstGreen(text, guessTheMovieRegex, movieSquares, domain.GameGuessTheMovie)
}

// extractGuessTheGame works like GuessTheMovie with its own symbol set.
func extractGuessTheGame(text string) (domain.ParsedScore, bool) {
	return extractFirstGreen(text, guessTheGameRegex, gameSquares, domain.GameGuessTheGame)
}

func extractFirstGreen(text string, anchor *regexp.Regexp, squares map[rune]bool, game domain.Game) (domain.ParsedScore, bool) {
	m := anchor.FindStringSubmatchIndex(text)
	if m == nil {
		return domain.ParsedScore{}, false
	}
	number := text[m[2]:m[3]]

	window := symbolWindow(text[m[1]:], true)
	symbols := scanSymbols(window, squares)

	score := 7.0
	for i, r := range symbols {
		if r == '🟩' {
			score = float64(i + 1)
			break
		}
	}
	return domain.ParsedScore{Game: game, Number: number, Score: score}, true
}

// extractFoodGuessr reads the point total from "I got 11,000 on the
// FoodGuessr". FoodGuessr publishes no puzzle number.
func extractFoodGuessr(text string) (domain.ParsedScore, bool) {
	m := foodGuessrRegex.FindStringSubmatch(text)
	if m == nil {
		return domain.ParsedScore{}, false
	}
	n, err := strconv.Atoi(stripSeparators(m[1]))
	if err != nil {
		return domain.ParsedScore{}, false
	}
	return domain.ParsedScore{Game: domain.GameFoodGuessr, Number: "", Score: float64(n)}, true
}

// extractTimeGuessr reads the numerator from "TimeGuessr #212 44,237/50,000".
func extractTimeGuessr(text string) (domain.ParsedScore, bool) {
	m := timeGuessrRegex.FindStringSubmatch(text)
	if m == nil {
		return domain.ParsedScore{}, false
	}
	n, err := strconv.Atoi(stripSeparators(m[2]))
	if err != nil {
		return domain.ParsedScore{}, false
	}
	return domain.ParsedScore{Game: domain.GameTimeGuessr, Number: m[1], Score: float64(n)}, true
}
