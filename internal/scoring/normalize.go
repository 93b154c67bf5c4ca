// Package scoring maps raw per-game scores onto a common 0-100 performance
// scale so results from different games can be compared and totalled.
package scoring

import "github.com/puzzle-league/internal/domain"

// Range describes a game's raw score scale. Min is the best achievable value
// for lower-is-better games and the floor for higher-is-better games.
type Range struct {
	Min           float64
	Max           float64
	LowerIsBetter bool
}

// ranges is configuration data, not behavior: adding a game is a table entry.
var ranges = map[domain.Game]Range{
	domain.GameTravle:        {Min: -1, Max: 20, LowerIsBetter: true},
	domain.GameConnections:   {Min: 0, Max: 4, LowerIsBetter: true},
	domain.GameWordle:        {Min: 1, Max: 7, LowerIsBetter: true},
	domain.GameGuessTheMovie: {Min: 1, Max: 7, LowerIsBetter: true},
	domain.GameGuessTheGame:  {Min: 1, Max: 7, LowerIsBetter: true},
	domain.GameFoodGuessr:    {Min: 0, Max: 15000, LowerIsBetter: false},
	domain.GameTimeGuessr:    {Min: 0, Max: 50000, LowerIsBetter: false},
}

// LowerIsBetter reports the polarity of a game's raw score. Unknown games
// default to lower-is-better.
func LowerIsBetter(game domain.Game) bool {
	r, ok := ranges[game]
	if !ok {
		return true
	}
	return r.LowerIsBetter
}

// Normalize rescales a raw score to [0, 100] where 100 is the best possible
// result for the game. Unknown games normalize to 0.
func Normalize(game domain.Game, score float64) float64 {
	r, ok := ranges[game]
	if !ok {
		return 0
	}

	clamped := score
	if clamped < r.Min {
		clamped = r.Min
	}
	if clamped > r.Max {
		clamped = r.Max
	}

	span := r.Max - r.Min
	if span == 0 {
		return 100
	}

	if r.LowerIsBetter {
		return 100 * (r.Max - clamped) / span
	}
	return 100 * (clamped - r.Min) / span
}
