// Package leaderboard computes the weekly standings report from stored score
// rows. The computation is a pure function of its inputs: no I/O, no state.
package leaderboard

import (
	"sort"
	"time"

	"github.com/puzzle-league/internal/domain"
	"github.com/puzzle-league/internal/scoring"
)

// SortMode selects how players are ordered within a game's standings
type SortMode string

const (
	// SortByWins is the canonical ordering: daily wins, then games played.
	SortByWins SortMode = "wins"
	// SortByPoints orders by aggregate normalized score instead.
	SortByPoints SortMode = "points"
)

// WeekWindow returns the Monday-to-Sunday window (inclusive) for the week
// `offset` weeks away from now. Offset 0 is the current week, -1 the
// previous. Weekday arithmetic treats Monday as day 0; Go's native
// numbering starts at Sunday, hence the +6 mod 7 conversion.
func WeekWindow(now time.Time, offset int) (time.Time, time.Time) {
	sinceMonday := (int(now.Weekday()) + 6) % 7
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := day.AddDate(0, 0, -sinceMonday+offset*7)
	return start, start.AddDate(0, 0, 6)
}

type groupKey struct {
	game domain.Game
	date string
}

type dayEntry struct {
	username string
	score    float64
}

type playerStats struct {
	wins   int
	points float64
	scores []domain.DayScore
}

// Compute builds the weekly report for all rows inside [weekStart, weekEnd].
// Rows are grouped by (game, day); within each day-group players get
// competitive 1-2-2-4 ranks, rank 1 counts as a win. An empty week yields an
// empty game list, not an error.
func Compute(rows []domain.ScoreRow, weekStart, weekEnd time.Time, mode SortMode) domain.LeaderboardResponse {
	groups := make(map[groupKey][]dayEntry)
	for _, row := range rows {
		key := groupKey{game: row.Game, date: row.PlayDate.Format(domain.DateFormat)}
		groups[key] = append(groups[key], dayEntry{username: row.Username, score: row.Score})
	}

	// game -> username -> accumulated stats
	standings := make(map[domain.Game]map[string]*playerStats)

	for key, entries := range groups {
		rankDay(key.game, entries, func(username string, score float64, rank int) {
			players, ok := standings[key.game]
			if !ok {
				players = make(map[string]*playerStats)
				standings[key.game] = players
			}
			stats, ok := players[username]
			if !ok {
				stats = &playerStats{}
				players[username] = stats
			}

			won := rank == 1
			if won {
				stats.wins++
			}
			stats.points += scoring.Normalize(key.game, score)
			stats.scores = append(stats.scores, domain.DayScore{
				Date:  key.date,
				Score: score,
				Rank:  rank,
				Won:   won,
			})
		})
	}

	games := make([]domain.Game, 0, len(standings))
	for game := range standings {
		games = append(games, game)
	}
	sort.Slice(games, func(i, j int) bool { return games[i] < games[j] })

	boards := make([]domain.GameLeaderboard, 0, len(games))
	for _, game := range games {
		boards = append(boards, buildGameBoard(game, standings[game], mode))
	}

	return domain.LeaderboardResponse{
		WeekStart:   weekStart.Format(domain.DateFormat),
		WeekEnd:     weekEnd.Format(domain.DateFormat),
		Leaderboard: boards,
	}
}

// rankDay sorts one day-group by polarity and assigns competitive ranks:
// ties share a rank, the next distinct score takes its 1-based position in
// the sorted order ("1-2-2-4", never "1-2-2-3").
func rankDay(game domain.Game, entries []dayEntry, visit func(username string, score float64, rank int)) {
	lower := scoring.LowerIsBetter(game)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			if lower {
				return entries[i].score < entries[j].score
			}
			return entries[i].score > entries[j].score
		}
		return entries[i].username < entries[j].username
	})

	rank := 1
	for i, e := range entries {
		if i > 0 && e.score != entries[i-1].score {
			rank = i + 1
		}
		visit(e.username, e.score, rank)
	}
}

func buildGameBoard(game domain.Game, players map[string]*playerStats, mode SortMode) domain.GameLeaderboard {
	list := make([]domain.PlayerStanding, 0, len(players))
	for username, stats := range players {
		scores := stats.scores
		sort.Slice(scores, func(i, j int) bool { return scores[i].Date < scores[j].Date })
		list = append(list, domain.PlayerStanding{
			Username:    username,
			Wins:        stats.wins,
			GamesPlayed: len(scores),
			Points:      stats.points,
			Scores:      scores,
		})
	}

	sort.Slice(list, func(i, j int) bool {
		if mode == SortByPoints && list[i].Points != list[j].Points {
			return list[i].Points > list[j].Points
		}
		if list[i].Wins != list[j].Wins {
			return list[i].Wins > list[j].Wins
		}
		if list[i].GamesPlayed != list[j].GamesPlayed {
			return list[i].GamesPlayed > list[j].GamesPlayed
		}
		return list[i].Username < list[j].Username
	})

	board := domain.GameLeaderboard{Game: game, Players: list}
	if len(list) > 0 {
		board.Leader = list[0].Username
		board.LeaderWins = list[0].Wins
	}
	return board
}
