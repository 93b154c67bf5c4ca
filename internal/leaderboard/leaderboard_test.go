package leaderboard

import (
	"testing"
	"time"

	"github.com/puzzle-league/internal/domain"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	// 2023-11-13 is a Monday
	return time.Date(2023, 11, 13+d, 0, 0, 0, 0, time.UTC)
}

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		offset    int
		wantStart string
		wantEnd   string
	}{
		{
			name:      "midweek current week",
			now:       time.Date(2023, 11, 15, 14, 30, 0, 0, time.UTC), // Wednesday
			offset:    0,
			wantStart: "2023-11-13",
			wantEnd:   "2023-11-19",
		},
		{
			name:      "monday is its own week start",
			now:       time.Date(2023, 11, 13, 0, 0, 0, 0, time.UTC),
			offset:    0,
			wantStart: "2023-11-13",
			wantEnd:   "2023-11-19",
		},
		{
			name:      "sunday still belongs to the monday week",
			now:       time.Date(2023, 11, 19, 23, 59, 0, 0, time.UTC),
			offset:    0,
			wantStart: "2023-11-13",
			wantEnd:   "2023-11-19",
		},
		{
			name:      "previous week",
			now:       time.Date(2023, 11, 15, 12, 0, 0, 0, time.UTC),
			offset:    -1,
			wantStart: "2023-11-06",
			wantEnd:   "2023-11-12",
		},
		{
			name:      "next week",
			now:       time.Date(2023, 11, 15, 12, 0, 0, 0, time.UTC),
			offset:    1,
			wantStart: "2023-11-20",
			wantEnd:   "2023-11-26",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekWindow(tt.now, tt.offset)
			require.Equal(t, tt.wantStart, start.Format(domain.DateFormat))
			require.Equal(t, tt.wantEnd, end.Format(domain.DateFormat))
			require.Equal(t, time.Monday, start.Weekday())
			require.Equal(t, time.Sunday, end.Weekday())
		})
	}
}

func TestCompute_CompetitiveRanks(t *testing.T) {
	tests := []struct {
		name      string
		game      domain.Game
		scores    map[string]float64
		wantRanks map[string]int
	}{
		{
			name:      "lower is better with shared first place",
			game:      domain.GameWordle,
			scores:    map[string]float64{"alice": 10, "bob": 10, "carol": 20},
			wantRanks: map[string]int{"alice": 1, "bob": 1, "carol": 3},
		},
		{
			name:      "all tied",
			game:      domain.GameWordle,
			scores:    map[string]float64{"alice": 5, "bob": 5, "carol": 5},
			wantRanks: map[string]int{"alice": 1, "bob": 1, "carol": 1},
		},
		{
			name:      "distinct scores",
			game:      domain.GameWordle,
			scores:    map[string]float64{"alice": 1, "bob": 2, "carol": 3},
			wantRanks: map[string]int{"alice": 1, "bob": 2, "carol": 3},
		},
		{
			name:      "higher is better reverses order",
			game:      domain.GameTimeGuessr,
			scores:    map[string]float64{"alice": 30000, "bob": 45000, "carol": 45000},
			wantRanks: map[string]int{"alice": 3, "bob": 1, "carol": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []domain.ScoreRow
			for username, score := range tt.scores {
				rows = append(rows, domain.ScoreRow{
					Username: username,
					Game:     tt.game,
					Score:    score,
					PlayDate: day(0),
				})
			}

			report := Compute(rows, day(0), day(6), SortByWins)
			require.Len(t, report.Leaderboard, 1)

			gotRanks := make(map[string]int)
			for _, player := range report.Leaderboard[0].Players {
				require.Len(t, player.Scores, 1)
				gotRanks[player.Username] = player.Scores[0].Rank
			}
			require.Equal(t, tt.wantRanks, gotRanks)
		})
	}
}

func TestCompute_SoloPlayerWinsEveryDay(t *testing.T) {
	rows := []domain.ScoreRow{
		{Username: "alice", Game: domain.GameWordle, Score: 3, PlayDate: day(0)},
		{Username: "alice", Game: domain.GameWordle, Score: 4, PlayDate: day(1)},
		{Username: "alice", Game: domain.GameWordle, Score: 2, PlayDate: day(2)},
	}

	report := Compute(rows, day(0), day(6), SortByWins)
	require.Len(t, report.Leaderboard, 1)

	board := report.Leaderboard[0]
	require.Equal(t, domain.GameWordle, board.Game)
	require.Equal(t, "alice", board.Leader)
	require.Equal(t, 3, board.LeaderWins)
	require.Len(t, board.Players, 1)
	require.Equal(t, 3, board.Players[0].Wins)
	require.Equal(t, 3, board.Players[0].GamesPlayed)
}

func TestCompute_StandingsOrderAndLeader(t *testing.T) {
	// alice wins Mon+Tue, bob wins Wed; carol plays twice without winning
	rows := []domain.ScoreRow{
		{Username: "alice", Game: domain.GameWordle, Score: 2, PlayDate: day(0)},
		{Username: "carol", Game: domain.GameWordle, Score: 5, PlayDate: day(0)},
		{Username: "alice", Game: domain.GameWordle, Score: 3, PlayDate: day(1)},
		{Username: "carol", Game: domain.GameWordle, Score: 4, PlayDate: day(1)},
		{Username: "bob", Game: domain.GameWordle, Score: 3, PlayDate: day(2)},
	}

	report := Compute(rows, day(0), day(6), SortByWins)
	require.Len(t, report.Leaderboard, 1)

	board := report.Leaderboard[0]
	require.Equal(t, "alice", board.Leader)
	require.Equal(t, 2, board.LeaderWins)

	var order []string
	for _, p := range board.Players {
		order = append(order, p.Username)
	}
	// bob and carol both trail alice; carol played more games
	require.Equal(t, []string{"alice", "bob", "carol"}, order)

	// bob has 1 win so ranks above carol's 0 despite fewer games
	require.Equal(t, 1, board.Players[1].Wins)
	require.Equal(t, 0, board.Players[2].Wins)
	require.Equal(t, 2, board.Players[2].GamesPlayed)
}

func TestCompute_DayScoresChronological(t *testing.T) {
	rows := []domain.ScoreRow{
		{Username: "alice", Game: domain.GameWordle, Score: 4, PlayDate: day(2)},
		{Username: "alice", Game: domain.GameWordle, Score: 3, PlayDate: day(0)},
		{Username: "alice", Game: domain.GameWordle, Score: 5, PlayDate: day(1)},
	}

	report := Compute(rows, day(0), day(6), SortByWins)
	scores := report.Leaderboard[0].Players[0].Scores
	require.Len(t, scores, 3)
	require.Equal(t, "2023-11-13", scores[0].Date)
	require.Equal(t, "2023-11-14", scores[1].Date)
	require.Equal(t, "2023-11-15", scores[2].Date)
}

func TestCompute_GamesAlphabetical(t *testing.T) {
	rows := []domain.ScoreRow{
		{Username: "alice", Game: domain.GameWordle, Score: 3, PlayDate: day(0)},
		{Username: "alice", Game: domain.GameConnections, Score: 1, PlayDate: day(0)},
		{Username: "alice", Game: domain.GameTravle, Score: 2, PlayDate: day(0)},
	}

	report := Compute(rows, day(0), day(6), SortByWins)
	require.Len(t, report.Leaderboard, 3)
	require.Equal(t, domain.GameConnections, report.Leaderboard[0].Game)
	require.Equal(t, domain.GameTravle, report.Leaderboard[1].Game)
	require.Equal(t, domain.GameWordle, report.Leaderboard[2].Game)
}

func TestCompute_PointsOrdering(t *testing.T) {
	// bob takes both daily wins narrowly, but alice's aggregate normalized
	// score is higher because bob skipped a day.
	rows := []domain.ScoreRow{
		{Username: "bob", Game: domain.GameWordle, Score: 2, PlayDate: day(0)},
		{Username: "alice", Game: domain.GameWordle, Score: 3, PlayDate: day(0)},
		{Username: "bob", Game: domain.GameWordle, Score: 2, PlayDate: day(1)},
		{Username: "alice", Game: domain.GameWordle, Score: 3, PlayDate: day(1)},
		{Username: "alice", Game: domain.GameWordle, Score: 3, PlayDate: day(2)},
	}

	byWins := Compute(rows, day(0), day(6), SortByWins)
	require.Equal(t, "bob", byWins.Leaderboard[0].Leader)

	byPoints := Compute(rows, day(0), day(6), SortByPoints)
	require.Equal(t, "alice", byPoints.Leaderboard[0].Leader)
	players := byPoints.Leaderboard[0].Players
	require.Greater(t, players[0].Points, players[1].Points)
}

func TestCompute_EmptyWeek(t *testing.T) {
	report := Compute(nil, day(0), day(6), SortByWins)
	require.Equal(t, "2023-11-13", report.WeekStart)
	require.Equal(t, "2023-11-19", report.WeekEnd)
	require.NotNil(t, report.Leaderboard)
	require.Empty(t, report.Leaderboard)
}

func TestCompute_Idempotent(t *testing.T) {
	rows := []domain.ScoreRow{
		{Username: "alice", Game: domain.GameWordle, Score: 3, PlayDate: day(0)},
		{Username: "bob", Game: domain.GameWordle, Score: 3, PlayDate: day(0)},
		{Username: "carol", Game: domain.GameTimeGuessr, Score: 42000, PlayDate: day(1)},
	}

	first := Compute(rows, day(0), day(6), SortByWins)
	second := Compute(rows, day(0), day(6), SortByWins)
	require.Equal(t, first, second)
}
