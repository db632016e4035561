package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/matchday/internal/store"
	"github.com/google/uuid"
)

const (
	defaultRecent = 20
	maxRecent     = 200
)

// ResolutionRepository stores resolved fixtures.
type ResolutionRepository struct {
	db *store.Database
}

// NewResolutionRepository creates a new resolution repository
func NewResolutionRepository(db *store.Database) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// Save inserts a resolution, assigning an id and timestamp when missing.
func (r *ResolutionRepository) Save(ctx context.Context, res *store.Resolution) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if res.ResolvedAt.IsZero() {
		res.ResolvedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO resolutions (
			id, requested_home, requested_away, home_name, away_name,
			match_date, match_time, home_badge_url, away_badge_url,
			source, night_rollback, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.DB().ExecContext(ctx, query,
		res.ID, res.RequestedHome, res.RequestedAway, res.HomeName, res.AwayName,
		res.Date, res.Time, res.HomeBadgeURL, res.AwayBadgeURL,
		res.Source, res.NightRollback, res.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting resolution: %w", err)
	}
	return nil
}

// Recent returns the latest resolutions, newest first.
func (r *ResolutionRepository) Recent(ctx context.Context, limit int) ([]*store.Resolution, error) {
	query := `
		SELECT id, requested_home, requested_away, home_name, away_name,
			match_date, match_time, home_badge_url, away_badge_url,
			source, night_rollback, resolved_at
		FROM resolutions
		ORDER BY resolved_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying resolutions: %w", err)
	}
	defer rows.Close()

	var out []*store.Resolution
	for rows.Next() {
		res := &store.Resolution{}
		err := rows.Scan(
			&res.ID, &res.RequestedHome, &res.RequestedAway, &res.HomeName, &res.AwayName,
			&res.Date, &res.Time, &res.HomeBadgeURL, &res.AwayBadgeURL,
			&res.Source, &res.NightRollback, &res.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning resolution: %w", err)
		}
		out = append(out, res)
	}

	return out, rows.Err()
}

// ClampLimit bounds a requested page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecent
	case limit > maxRecent:
		return maxRecent
	}
	return limit
}
