package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the schema if it does not exist yet. The service
// owns its tables; there is no external migration tool.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			id         uuid PRIMARY KEY,
			title      text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS messages (
			id              uuid PRIMARY KEY,
			conversation_id uuid NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			role            text NOT NULL,
			content         text NOT NULL,
			stage1          jsonb,
			label_map       jsonb,
			stage2          jsonb,
			aggregate       jsonb,
			created_at      timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS messages_conversation_idx
			ON messages (conversation_id, created_at);

		CREATE TABLE IF NOT EXISTS model_leaderboard (
			model          text PRIMARY KEY,
			rank_sum       double precision NOT NULL DEFAULT 0,
			rankings_count integer NOT NULL DEFAULT 0,
			deliberations  integer NOT NULL DEFAULT 0,
			updated_at     timestamptz NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
