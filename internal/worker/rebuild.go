package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/puzzle-league/internal/config"
	"github.com/puzzle-league/internal/domain"
	"github.com/puzzle-league/internal/postgres"
	"github.com/puzzle-league/internal/redis"
)

// RebuildWorker periodically rebuilds today's Redis live boards from
// PostgreSQL so the intraday standings survive a Redis restart.
type RebuildWorker struct {
	live    *redis.LiveBoard
	store   *postgres.Repository
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewRebuildWorker creates a new rebuild worker
func NewRebuildWorker(
	live *redis.LiveBoard,
	store *postgres.Repository,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *RebuildWorker {
	return &RebuildWorker{
		live:   live,
		store:  store,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background rebuild process
func (w *RebuildWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("rebuild worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background rebuild process
func (w *RebuildWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("rebuild worker stopped")
	return nil
}

// run is the main worker loop
func (w *RebuildWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.RebuildToday(ctx); err != nil {
				w.logger.Error("rebuild cycle failed", "error", err)
			}
		}
	}
}

// RebuildToday reloads today's scores from PostgreSQL into the per-game
// live boards. Also called once on startup for recovery.
func (w *RebuildWorker) RebuildToday(ctx context.Context) error {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	startTime := time.Now()
	scores, err := w.store.ScoresByDate(ctx, today)
	if err != nil {
		return err
	}

	byGame := make(map[domain.Game]map[string]float64)
	for _, rec := range scores {
		if byGame[rec.Game] == nil {
			byGame[rec.Game] = make(map[string]float64)
		}
		byGame[rec.Game][rec.Username] = rec.Score
	}

	rebuilt := 0
	for _, game := range domain.Games {
		players, ok := byGame[game]
		if !ok {
			continue
		}
		if err := w.live.RebuildDay(ctx, game, today, players); err != nil {
			w.logger.Error("failed to rebuild live board",
				"game", game,
				"error", err,
			)
			continue
		}
		rebuilt++
	}

	w.logger.Info("rebuild cycle completed",
		"duration", time.Since(startTime),
		"games", rebuilt,
		"scores", len(scores),
	)
	return nil
}
