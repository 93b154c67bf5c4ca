// Package service wires the parsing and leaderboard engines to storage and
// the realtime outputs. All business flows for the HTTP and Kafka boundaries
// live here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/puzzle-league/internal/domain"
	"github.com/puzzle-league/internal/leaderboard"
	"github.com/puzzle-league/internal/parser"
	"github.com/puzzle-league/internal/websocket"
)

// Store is the persistence capability the service needs. The engine itself
// never issues storage calls; it consumes rows and produces values.
type Store interface {
	InsertScore(ctx context.Context, rec domain.StoredScore, rawText string) error
	ScoresByDate(ctx context.Context, date time.Time) ([]domain.StoredScore, error)
	ScoresInRange(ctx context.Context, from, to time.Time) ([]domain.ScoreRow, error)
	History(ctx context.Context, username string) ([]domain.StoredScore, error)
	DeleteScore(ctx context.Context, username string, game domain.Game, date time.Time) error
	Ping(ctx context.Context) error
}

// LiveBoard is the optional intraday standings cache
type LiveBoard interface {
	SetScore(ctx context.Context, game domain.Game, date time.Time, username string, score float64) error
	Standings(ctx context.Context, game domain.Game, date time.Time, limit int) ([]domain.LiveEntry, error)
}

// Service provides business logic for submissions and leaderboards
type Service struct {
	store     Store
	live      LiveBoard
	hub       *websocket.Hub
	logger    *slog.Logger
	liveLimit int

	// now is swappable for tests
	now func() time.Time
}

// New creates a new service. live may be nil when Redis is unavailable.
func New(store Store, live LiveBoard, liveLimit int, logger *slog.Logger) *Service {
	if liveLimit <= 0 {
		liveLimit = 50
	}
	return &Service{
		store:     store,
		live:      live,
		logger:    logger,
		liveLimit: liveLimit,
		now:       time.Now,
	}
}

// SetHub sets the WebSocket hub used to broadcast accepted scores
func (s *Service) SetHub(hub *websocket.Hub) {
	s.hub = hub
}

// ProcessSubmission parses the pasted share text and persists every game
// result found in it. Duplicate submissions for a game become per-game error
// strings while the rest of the batch still commits.
func (s *Service) ProcessSubmission(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error) {
	username := strings.ToLower(strings.TrimSpace(sub.Username))
	if username == "" || sub.Text == "" {
		return domain.SubmissionResult{}, domain.ErrInvalidRequest
	}

	playDate, err := s.resolvePlayDate(sub)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	parsed := parser.ParseAll(sub.Text)
	if len(parsed) == 0 {
		return domain.SubmissionResult{}, domain.ErrNoScoresFound
	}

	result := domain.SubmissionResult{
		Saved:  []domain.SavedScore{},
		Errors: []string{},
		Date:   playDate.Format(domain.DateFormat),
	}

	for _, p := range parsed {
		rec := domain.StoredScore{
			Username: username,
			Game:     p.Game,
			Number:   p.Number,
			Score:    p.Score,
			PlayDate: playDate,
		}
		if err := s.store.InsertScore(ctx, rec, sub.Text); err != nil {
			if errors.Is(err, domain.ErrDuplicateScore) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s: already submitted for %s", p.Game, result.Date))
				continue
			}
			return domain.SubmissionResult{}, fmt.Errorf("storing score: %w", err)
		}

		result.Saved = append(result.Saved, domain.SavedScore{
			Game:   p.Game,
			Number: p.Number,
			Score:  p.Score,
			Date:   result.Date,
		})

		s.publishScore(ctx, p.Game, playDate, username, p.Score)
	}

	return result, nil
}

// resolvePlayDate picks the play date: explicit date field first, then a
// date embedded in the share text, then today. Future dates are rejected.
func (s *Service) resolvePlayDate(sub domain.Submission) (time.Time, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var playDate time.Time
	switch {
	case sub.Date != "":
		parsed, err := time.Parse(domain.DateFormat, sub.Date)
		if err != nil {
			return time.Time{}, domain.ErrInvalidRequest
		}
		playDate = parsed
	default:
		if embedded, ok := parser.DateFromText(sub.Text); ok {
			playDate = embedded
		} else {
			playDate = today
		}
	}

	if playDate.After(today) {
		return time.Time{}, domain.ErrFutureDate
	}
	return playDate, nil
}

// publishScore updates the live board and broadcasts the accepted score.
// Both are best-effort; the submission has already been persisted.
func (s *Service) publishScore(ctx context.Context, game domain.Game, date time.Time, username string, score float64) {
	dateStr := date.Format(domain.DateFormat)

	var standings []domain.LiveEntry
	if s.live != nil {
		if err := s.live.SetScore(ctx, game, date, username, score); err != nil {
			s.logger.Warn("failed to update live board", "game", game, "error", err)
		} else if st, err := s.live.Standings(ctx, game, date, s.liveLimit); err != nil {
			s.logger.Warn("failed to read live standings", "game", game, "error", err)
		} else {
			standings = st
		}
	}

	if s.hub != nil {
		s.hub.BroadcastScoreUpdate(websocket.ScoreUpdate{
			Game:      game,
			Username:  username,
			Score:     score,
			Date:      dateStr,
			Standings: standings,
		})
	}
}

// WeeklyLeaderboard computes the standings report for the week `offset`
// whole weeks from the current one (0 = current, -1 = previous). A storage
// read failure or an empty week yields an empty report, not an error.
func (s *Service) WeeklyLeaderboard(ctx context.Context, offset int, mode leaderboard.SortMode) domain.LeaderboardResponse {
	weekStart, weekEnd := leaderboard.WeekWindow(s.now(), offset)

	rows, err := s.store.ScoresInRange(ctx, weekStart, weekEnd)
	if err != nil {
		s.logger.Warn("failed to read score rows for leaderboard", "error", err)
		rows = nil
	}

	if mode != leaderboard.SortByPoints {
		mode = leaderboard.SortByWins
	}
	return leaderboard.Compute(rows, weekStart, weekEnd, mode)
}

// ScoresForDate returns all stored scores for one play date
func (s *Service) ScoresForDate(ctx context.Context, date time.Time) ([]domain.StoredScore, error) {
	scores, err := s.store.ScoresByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("reading scores: %w", err)
	}
	if scores == nil {
		scores = []domain.StoredScore{}
	}
	return scores, nil
}

// LiveStandings returns the intraday board for one game and date
func (s *Service) LiveStandings(ctx context.Context, game domain.Game, date time.Time) ([]domain.LiveEntry, error) {
	if !game.Known() {
		return nil, domain.ErrUnknownGame
	}
	if s.live == nil {
		return []domain.LiveEntry{}, nil
	}
	entries, err := s.live.Standings(ctx, game, date, s.liveLimit)
	if err != nil {
		return nil, fmt.Errorf("reading live standings: %w", err)
	}
	if entries == nil {
		entries = []domain.LiveEntry{}
	}
	return entries, nil
}

// History returns a player's stored scores, newest first
func (s *Service) History(ctx context.Context, username string) ([]domain.StoredScore, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, domain.ErrInvalidRequest
	}
	scores, err := s.store.History(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if scores == nil {
		scores = []domain.StoredScore{}
	}
	return scores, nil
}

// DeleteScore removes one (username, game, date) record
func (s *Service) DeleteScore(ctx context.Context, username string, game domain.Game, date time.Time) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || !game.Known() {
		return domain.ErrInvalidRequest
	}
	return s.store.DeleteScore(ctx, username, game, date)
}

// Healthy reports whether the backing store is reachable
func (s *Service) Healthy(ctx context.Context) error {
	return s.store.Ping(ctx)
}
