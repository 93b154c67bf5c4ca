package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/puzzle-league/internal/config"
	"github.com/puzzle-league/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// Repository provides PostgreSQL-based score persistence
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks database connectivity (used by the health endpoint)
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(64) NOT NULL,
			game VARCHAR(32) NOT NULL,
			game_number VARCHAR(32),
			score_value DOUBLE PRECISION NOT NULL,
			raw_text TEXT,
			play_date DATE NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(username, game, play_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_date ON scores(play_date)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_user ON scores(username)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_game ON scores(game)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// InsertScore stores one parsed game result. A second submission for the
// same (username, game, play_date) trips the unique constraint and is
// reported as domain.ErrDuplicateScore so the caller can keep going with
// the rest of the batch.
func (r *Repository) InsertScore(ctx context.Context, rec domain.StoredScore, rawText string) error {
	query := `
		INSERT INTO scores (username, game, game_number, score_value, raw_text, play_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.Username,
		string(rec.Game),
		rec.Number,
		rec.Score,
		rawText,
		rec.PlayDate,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateScore
		}
		return fmt.Errorf("inserting score: %w", err)
	}
	return nil
}

// ScoresByDate retrieves all scores for a single play date
func (r *Repository) ScoresByDate(ctx context.Context, date time.Time) ([]domain.StoredScore, error) {
	query := `
		SELECT username, game, game_number, score_value, play_date
		FROM scores
		WHERE play_date = $1
		ORDER BY game, username
	`
	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("querying scores by date: %w", err)
	}
	defer rows.Close()

	return scanStoredScores(rows)
}

// ScoresInRange retrieves the aggregation rows for all scores whose play
// date falls within [from, to] inclusive
func (r *Repository) ScoresInRange(ctx context.Context, from, to time.Time) ([]domain.ScoreRow, error) {
	query := `
		SELECT username, game, score_value, play_date
		FROM scores
		WHERE play_date BETWEEN $1 AND $2
		ORDER BY game, play_date
	`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying scores in range: %w", err)
	}
	defer rows.Close()

	var result []domain.ScoreRow
	for rows.Next() {
		var row domain.ScoreRow
		var game string
		if err := rows.Scan(&row.Username, &game, &row.Score, &row.PlayDate); err != nil {
			return nil, fmt.Errorf("scanning score row: %w", err)
		}
		row.Game = domain.Game(game)
		result = append(result, row)
	}
	return result, rows.Err()
}

// History retrieves a player's scores, newest first
func (r *Repository) History(ctx context.Context, username string) ([]domain.StoredScore, error) {
	query := `
		SELECT username, game, game_number, score_value, play_date
		FROM scores
		WHERE username = $1
		ORDER BY play_date DESC, game
	`
	rows, err := r.pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	return scanStoredScores(rows)
}

// DeleteScore removes one (username, game, date) record
func (r *Repository) DeleteScore(ctx context.Context, username string, game domain.Game, date time.Time) error {
	query := `DELETE FROM scores WHERE username = $1 AND game = $2 AND play_date = $3`
	result, err := r.pool.Exec(ctx, query, username, string(game), date)
	if err != nil {
		return fmt.Errorf("deleting score: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrScoreNotFound
	}
	return nil
}

func scanStoredScores(rows pgx.Rows) ([]domain.StoredScore, error) {
	var result []domain.StoredScore
	for rows.Next() {
		var rec domain.StoredScore
		var game string
		if err := rows.Scan(&rec.Username, &game, &rec.Number, &rec.Score, &rec.PlayDate); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		rec.Game = domain.Game(game)
		rec.Date = rec.PlayDate.Format(domain.DateFormat)
		result = append(result, rec)
	}
	return result, rows.Err()
}
