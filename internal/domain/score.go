package domain

import "time"

// DateFormat is the wire format for play dates (date only, no time component).
const DateFormat = "2006-01-02"

// Game identifies one of the supported daily puzzle games
type Game string

const (
	GameWordle        Game = "Wordle"
	GameConnections   Game = "Connections"
	GameTravle        Game = "Travle"
	GameGuessTheGame  Game = "GuessTheGame"
	GameGuessTheMovie Game = "GuessTheMovie"
	GameFoodGuessr    Game = "FoodGuessr"
	GameTimeGuessr    Game = "TimeGuessr"
)

// Games lists every supported game
var Games = []Game{
	GameWordle,
	GameConnections,
	GameTravle,
	GameGuessTheGame,
	GameGuessTheMovie,
	GameFoodGuessr,
	GameTimeGuessr,
}

// Known reports whether g is one of the supported games
func (g Game) Known() bool {
	for _, known := range Games {
		if g == known {
			return true
		}
	}
	return false
}

// ParsedScore is a single game result extracted from pasted share text.
// Number is kept verbatim (minus digit-group separators) because some games
// publish no number and others may use leading zeros.
type ParsedScore struct {
	Game   Game    `json:"game"`
	Number string  `json:"number"`
	Score  float64 `json:"score"`
}

// StoredScore is a persisted score as returned to API clients
type StoredScore struct {
	Username string    `json:"username"`
	Game     Game      `json:"game"`
	Number   string    `json:"game_number"`
	Score    float64   `json:"score_value"`
	PlayDate time.Time `json:"-"`
	Date     string    `json:"play_date"`
}

// ScoreRow is the minimal row shape consumed by the leaderboard aggregator
type ScoreRow struct {
	Username string
	Game     Game
	Score    float64
	PlayDate time.Time
}

// Submission is a pasted share-text submission
type Submission struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Date     string `json:"date,omitempty"`
}

// SavedScore describes one game result that was persisted from a submission
type SavedScore struct {
	Game   Game    `json:"game"`
	Number string  `json:"number"`
	Score  float64 `json:"score"`
	Date   string  `json:"date"`
}

// SubmissionResult partitions a submission into persisted results and
// per-game, non-fatal error strings (e.g. duplicate submissions)
type SubmissionResult struct {
	Saved  []SavedScore `json:"saved"`
	Errors []string     `json:"errors"`
	Date   string       `json:"date"`
}

// DayScore is one day's result for a player within a weekly standing
type DayScore struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
	Won   bool    `json:"won"`
}

// PlayerStanding is a player's accumulated record for one game over a week.
// Points is the sum of normalized (0-100) day scores and backs the alternate
// points-ordered leaderboard.
type PlayerStanding struct {
	Username    string     `json:"username"`
	Wins        int        `json:"wins"`
	GamesPlayed int        `json:"games_played"`
	Points      float64    `json:"total_points"`
	Scores      []DayScore `json:"scores"`
}

// GameLeaderboard holds the weekly standings for a single game
type GameLeaderboard struct {
	Game       Game             `json:"game"`
	Leader     string           `json:"leader,omitempty"`
	LeaderWins int              `json:"leader_wins"`
	Players    []PlayerStanding `json:"players"`
}

// LeaderboardResponse is the full weekly report
type LeaderboardResponse struct {
	WeekStart   string            `json:"week_start"`
	WeekEnd     string            `json:"week_end"`
	Leaderboard []GameLeaderboard `json:"leaderboard"`
}

// LiveEntry is one row of the intraday live standings kept in Redis
type LiveEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}
