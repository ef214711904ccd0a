package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/matching"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const profileColumns = `
	id, user_id, name, bio, city, state, service_radius, hourly_rate,
	rating, review_count, completed_jobs, verified, created_at, updated_at
`

func scanProfile(s scanner) (*matching.ProviderProfile, error) {
	var p matching.ProviderProfile

	if err := s.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Bio, &p.City, &p.State,
		&p.ServiceRadius, &p.HourlyRate, &p.Rating, &p.ReviewCount,
		&p.CompletedJobs, &p.Verified, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &p, nil
}

// UpsertProfile writes the profile row keyed by user and replaces its
// category set in the same transaction. Rating counters and the verified
// flag keep their stored values on update.
func (s *Store) UpsertProfile(ctx context.Context, p *matching.ProviderProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning profile upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO provider_profiles (user_id, name, bio, city, state, service_radius, hourly_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			bio = EXCLUDED.bio,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			service_radius = EXCLUDED.service_radius,
			hourly_rate = EXCLUDED.hourly_rate,
			updated_at = NOW()
		RETURNING id, rating, review_count, completed_jobs, verified, created_at, updated_at
	`

	err = tx.QueryRowContext(ctx, query,
		p.UserID, p.Name, p.Bio, p.City, p.State, p.ServiceRadius, p.HourlyRate,
	).Scan(&p.ID, &p.Rating, &p.ReviewCount, &p.CompletedJobs, &p.Verified, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting provider profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM provider_categories WHERE provider_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clearing provider categories: %w", err)
	}

	for _, c := range p.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO provider_categories (provider_id, category_id, fixed_rate) VALUES ($1, $2, $3)`,
			p.ID, c.ID, c.FixedRate); err != nil {
			return fmt.Errorf("writing provider category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing profile upsert: %w", err)
	}

	return nil
}

func (s *Store) ProfileByUser(ctx context.Context, userID uuid.UUID) (*matching.ProviderProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM provider_profiles WHERE user_id = $1`

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, matching.ErrProfileNotFound
		}

		return nil, fmt.Errorf("getting provider profile: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id, fixed_rate FROM provider_categories WHERE provider_id = $1 ORDER BY category_id`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("listing provider categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c matching.Category
		if err := rows.Scan(&c.ID, &c.FixedRate); err != nil {
			return nil, fmt.Errorf("scanning provider category: %w", err)
		}

		p.Categories = append(p.Categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provider categories: %w", err)
	}

	return p, nil
}

// FindProviders joins on the requested category only, so each candidate
// appears once; the returned profiles carry just that category and the rate
// the budget check was made against.
func (s *Store) FindProviders(ctx context.Context, filter matching.MatchFilter) ([]*matching.ProviderProfile, error) {
	query := `
		SELECT p.id, p.user_id, p.name, p.bio, p.city, p.state, p.service_radius,
			p.hourly_rate, p.rating, p.review_count, p.completed_jobs, p.verified,
			p.created_at, p.updated_at, c.fixed_rate
		FROM provider_profiles p
		JOIN provider_categories c ON c.provider_id = p.id
		WHERE c.category_id = $1
			AND p.city = $2
			AND (c.fixed_rate IS NULL OR c.fixed_rate <= $3)
		ORDER BY p.rating DESC, p.completed_jobs DESC
	`

	rows, err := s.db.QueryContext(ctx, query, filter.CategoryID, filter.City, filter.BudgetMax)
	if err != nil {
		return nil, fmt.Errorf("finding matching providers: %w", err)
	}
	defer rows.Close()

	var profiles []*matching.ProviderProfile

	for rows.Next() {
		var p matching.ProviderProfile

		var fixedRate *int64

		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Bio, &p.City, &p.State,
			&p.ServiceRadius, &p.HourlyRate, &p.Rating, &p.ReviewCount,
			&p.CompletedJobs, &p.Verified, &p.CreatedAt, &p.UpdatedAt,
			&fixedRate,
		); err != nil {
			return nil, fmt.Errorf("scanning matching provider: %w", err)
		}

		p.Categories = []matching.Category{{ID: filter.CategoryID, FixedRate: fixedRate}}
		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matching providers: %w", err)
	}

	return profiles, nil
}
