package store

import (
	"context"
	"fmt"
	"time"

	"github.com/itsjustmithun/ai-council/internal/council"
)

// LeaderboardEntry is a model's cumulative standing across all
// deliberations, lower average rank being better.
type LeaderboardEntry struct {
	Model         string    `json:"model"`
	AverageRank   float64   `json:"average_rank"`
	RankingsCount int       `json:"rankings_count"`
	Deliberations int       `json:"deliberations"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RecordAggregate folds one deliberation's consensus into the
// cumulative leaderboard.
func (s *Store) RecordAggregate(ctx context.Context, entries []council.AggregateEntry) error {
	for _, e := range entries {
		// AverageRank * count reconstructs the position sum the
		// aggregate was computed from.
		rankSum := e.AverageRank * float64(e.RankingsCount)
		_, err := s.pool.Exec(ctx, `
			INSERT INTO model_leaderboard (model, rank_sum, rankings_count, deliberations, updated_at)
			VALUES ($1, $2, $3, 1, now())
			ON CONFLICT (model)
			DO UPDATE SET
				rank_sum = model_leaderboard.rank_sum + $2,
				rankings_count = model_leaderboard.rankings_count + $3,
				deliberations = model_leaderboard.deliberations + 1,
				updated_at = now()`,
			e.Model, rankSum, e.RankingsCount,
		)
		if err != nil {
			return fmt.Errorf("upsert leaderboard %s: %w", e.Model, err)
		}
	}
	return nil
}

func (s *Store) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT model,
		       round((rank_sum / NULLIF(rankings_count, 0))::numeric, 2)::float8,
		       rankings_count, deliberations, updated_at
		FROM model_leaderboard
		WHERE rankings_count > 0
		ORDER BY rank_sum / NULLIF(rankings_count, 0) ASC`)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Model, &e.AverageRank, &e.RankingsCount, &e.Deliberations, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
