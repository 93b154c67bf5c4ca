package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/puzzle-league/internal/config"
	"github.com/puzzle-league/internal/domain"
	"github.com/puzzle-league/internal/scoring"
	"github.com/redis/go-redis/v9"
)

// LiveBoard keeps one sorted set per (game, play date) with the raw scores
// submitted so far that day. It backs the live standings feed only; the
// weekly leaderboard is always recomputed from PostgreSQL.
type LiveBoard struct {
	client *redis.Client
	expiry time.Duration
	logger *slog.Logger
}

// NewLiveBoard creates a new Redis-backed live standings board
func NewLiveBoard(cfg *config.RedisConfig, expiry time.Duration, logger *slog.Logger) (*LiveBoard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &LiveBoard{
		client: client,
		expiry: expiry,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (b *LiveBoard) Close() error {
	return b.client.Close()
}

// dayKey returns the Redis key for a game's daily sorted set
func (b *LiveBoard) dayKey(game domain.Game, date time.Time) string {
	return fmt.Sprintf("live:%s:%s", game, date.Format(domain.DateFormat))
}

// SetScore records a player's score on the day board. Boards expire on
// their own; yesterday's board only needs to outlive stragglers.
func (b *LiveBoard) SetScore(ctx context.Context, game domain.Game, date time.Time, username string, score float64) error {
	key := b.dayKey(game, date)
	pipe := b.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: username})
	pipe.Expire(ctx, key, b.expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("setting live score: %w", err)
	}
	return nil
}

// Standings returns the day board ordered best-first for the game's
// polarity, with competitive ranks (ties share a rank).
func (b *LiveBoard) Standings(ctx context.Context, game domain.Game, date time.Time, limit int) ([]domain.LiveEntry, error) {
	key := b.dayKey(game, date)

	var zs []redis.Z
	var err error
	if scoring.LowerIsBetter(game) {
		zs, err = b.client.ZRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	} else {
		zs, err = b.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("reading live standings: %w", err)
	}

	entries := make([]domain.LiveEntry, 0, len(zs))
	rank := 1
	for i, z := range zs {
		if i > 0 && z.Score != zs[i-1].Score {
			rank = i + 1
		}
		entries = append(entries, domain.LiveEntry{
			Rank:     rank,
			Username: fmt.Sprint(z.Member),
			Score:    z.Score,
		})
	}
	return entries, nil
}

// RebuildDay replaces a day board with the given scores (recovery path)
func (b *LiveBoard) RebuildDay(ctx context.Context, game domain.Game, date time.Time, scores map[string]float64) error {
	key := b.dayKey(game, date)

	pipe := b.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(scores) > 0 {
		members := make([]redis.Z, 0, len(scores))
		for username, score := range scores {
			members = append(members, redis.Z{Score: score, Member: username})
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, b.expiry)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rebuilding live board: %w", err)
	}
	return nil
}
