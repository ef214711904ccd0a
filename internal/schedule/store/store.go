package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/identity"
	"github.com/maonamassa/marketplace/internal/schedule"
)

type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

func New(db *sql.DB) *Store {
	return &Store{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

const slotColumns = `id, request_id, client_id, provider_id, date, start_time, end_time, status, notes, created_at`

func scanSlot(s scanner) (*schedule.ScheduleSlot, error) {
	var slot schedule.ScheduleSlot

	var statusStr string

	if err := s.Scan(
		&slot.ID, &slot.RequestID, &slot.ClientID, &slot.ProviderID,
		&slot.Date, &slot.StartTime, &slot.EndTime, &statusStr, &slot.Notes, &slot.CreatedAt,
	); err != nil {
		return nil, err
	}

	slot.Status = schedule.Status(statusStr)

	return &slot, nil
}

func (s *Store) CreateSlot(ctx context.Context, slot *schedule.ScheduleSlot) error {
	query := `
		INSERT INTO schedule_slots (request_id, client_id, provider_id, date, start_time, end_time, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		slot.RequestID, slot.ClientID, slot.ProviderID,
		slot.Date, slot.StartTime, slot.EndTime, slot.Status, slot.Notes,
	).Scan(&slot.ID, &slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating schedule slot: %w", err)
	}

	return nil
}

func (s *Store) GetSlot(ctx context.Context, id uuid.UUID) (*schedule.ScheduleSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE id = $1`

	slot, err := scanSlot(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrNotFound
		}

		return nil, fmt.Errorf("getting schedule slot: %w", err)
	}

	return slot, nil
}

func (s *Store) SlotsByUser(ctx context.Context, userID uuid.UUID, role identity.Role) ([]*schedule.ScheduleSlot, error) {
	column := "client_id"
	if role == identity.RoleProvider {
		column = "provider_id"
	}

	query := `SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE ` + column + ` = $1
		ORDER BY date ASC, start_time ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing schedule slots: %w", err)
	}
	defer rows.Close()

	var slots []*schedule.ScheduleSlot

	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule slot: %w", err)
		}

		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slot rows: %w", err)
	}

	return slots, nil
}

// UpdateSlotStatus transitions a slot only when its current status is one
// of from, distinguishing a missing slot from a disallowed transition.
func (s *Store) UpdateSlotStatus(ctx context.Context, id uuid.UUID, from []schedule.Status, to schedule.Status) (*schedule.ScheduleSlot, error) {
	q := s.builder.
		Update("schedule_slots").
		Set("status", to).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": from}).
		Suffix("RETURNING " + slotColumns)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building slot update: %w", err)
	}

	slot, err := scanSlot(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.GetSlot(ctx, id); getErr != nil {
				return nil, getErr
			}

			return nil, schedule.ErrInvalidTransition
		}

		return nil, fmt.Errorf("updating slot status: %w", err)
	}

	return slot, nil
}
