package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/request"
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

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const requestColumns = `
	id, client_id, category_id, title, description, address, city, state,
	budget_min, budget_max, urgency, preferred_date, status,
	accepted_proposal_id, created_at, updated_at
`

func scanRequest(s scanner) (*request.ServiceRequest, error) {
	var r request.ServiceRequest

	var urgencyStr, statusStr string

	if err := s.Scan(
		&r.ID, &r.ClientID, &r.CategoryID, &r.Title, &r.Description,
		&r.Location.Address, &r.Location.City, &r.Location.State,
		&r.Budget.Min, &r.Budget.Max, &urgencyStr, &r.PreferredDate, &statusStr,
		&r.AcceptedProposalID, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	r.Urgency = request.Urgency(urgencyStr)
	r.Status = request.Status(statusStr)

	return &r, nil
}

const proposalColumns = `id, request_id, provider_id, price, estimated_duration, message, created_at`

func scanProposal(s scanner) (*request.Proposal, error) {
	var p request.Proposal

	if err := s.Scan(
		&p.ID, &p.RequestID, &p.ProviderID, &p.Price,
		&p.EstimatedDuration, &p.Message, &p.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &p, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *request.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (
			client_id, category_id, title, description, address, city, state,
			budget_min, budget_max, urgency, preferred_date, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		r.ClientID, r.CategoryID, r.Title, r.Description,
		r.Location.Address, r.Location.City, r.Location.State,
		r.Budget.Min, r.Budget.Max, r.Urgency, r.PreferredDate, r.Status,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating service request: %w", err)
	}

	return nil
}

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*request.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`

	r, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, request.ErrNotFound
		}

		return nil, fmt.Errorf("getting service request: %w", err)
	}

	return r, nil
}

func (s *Store) RequestsByClient(ctx context.Context, clientID uuid.UUID) ([]*request.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM service_requests
		WHERE client_id = $1
		ORDER BY created_at DESC`

	return s.queryRequests(ctx, query, clientID)
}

// Opportunities returns open requests as seen by a provider: everyone
// else's requests still accepting proposals, optionally narrowed by
// category and city.
func (s *Store) Opportunities(ctx context.Context, providerID uuid.UUID, filter request.OpportunityFilter) ([]*request.ServiceRequest, error) {
	q := s.builder.
		Select("id", "client_id", "category_id", "title", "description",
			"address", "city", "state", "budget_min", "budget_max",
			"urgency", "preferred_date", "status",
			"accepted_proposal_id", "created_at", "updated_at").
		From("service_requests").
		Where(sq.Eq{"status": []request.Status{request.StatusOpen, request.StatusProposals}}).
		Where(sq.NotEq{"client_id": providerID}).
		OrderBy("created_at DESC")

	if filter.CategoryID != nil {
		q = q.Where(sq.Eq{"category_id": *filter.CategoryID})
	}

	if filter.City != nil {
		q = q.Where(sq.Eq{"city": *filter.City})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building opportunities query: %w", err)
	}

	return s.queryRequests(ctx, query, args...)
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]*request.ServiceRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing service requests: %w", err)
	}
	defer rows.Close()

	var reqs []*request.ServiceRequest

	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning service request: %w", err)
		}

		reqs = append(reqs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating request rows: %w", err)
	}

	return reqs, nil
}

func (s *Store) ProposalsByRequest(ctx context.Context, requestID uuid.UUID) ([]*request.Proposal, error) {
	query := `SELECT ` + proposalColumns + `
		FROM service_proposals
		WHERE request_id = $1
		ORDER BY created_at ASC`

	return s.queryProposals(ctx, query, requestID)
}

func (s *Store) ProposalsByProvider(ctx context.Context, providerID uuid.UUID) ([]*request.Proposal, error) {
	query := `SELECT ` + proposalColumns + `
		FROM service_proposals
		WHERE provider_id = $1
		ORDER BY created_at DESC`

	return s.queryProposals(ctx, query, providerID)
}

func (s *Store) queryProposals(ctx context.Context, query string, args ...any) ([]*request.Proposal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing proposals: %w", err)
	}
	defer rows.Close()

	var ps []*request.Proposal

	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning proposal: %w", err)
		}

		ps = append(ps, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating proposal rows: %w", err)
	}

	return ps, nil
}

type requestTx struct {
	tx  *sql.Tx
	req *request.ServiceRequest
}

// Begin opens a transaction and locks the request row so every mutation of
// a request is linearized against concurrent submitters.
func (s *Store) Begin(ctx context.Context, requestID uuid.UUID) (request.RequestTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning request tx: %w", err)
	}

	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1 FOR UPDATE`

	req, err := scanRequest(dbTx.QueryRowContext(ctx, query, requestID))
	if err != nil {
		dbTx.Rollback()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, request.ErrNotFound
		}

		return nil, fmt.Errorf("locking service request: %w", err)
	}

	return &requestTx{tx: dbTx, req: req}, nil
}

func (t *requestTx) Request() *request.ServiceRequest { return t.req }

func (t *requestTx) Commit() error   { return t.tx.Commit() }
func (t *requestTx) Rollback() error { return t.tx.Rollback() }

func (t *requestTx) CreateProposal(ctx context.Context, p *request.Proposal) error {
	query := `
		INSERT INTO service_proposals (request_id, provider_id, price, estimated_duration, message, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		p.RequestID, p.ProviderID, p.Price, p.EstimatedDuration, p.Message,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating proposal: %w", err)
	}

	return nil
}

func (t *requestTx) GetProposal(ctx context.Context, proposalID uuid.UUID) (*request.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM service_proposals WHERE id = $1`

	p, err := scanProposal(t.tx.QueryRowContext(ctx, query, proposalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, request.ErrProposalNotFound
		}

		return nil, fmt.Errorf("getting proposal: %w", err)
	}

	return p, nil
}

func (t *requestTx) SetStatus(ctx context.Context, status request.Status) error {
	query := `UPDATE service_requests SET status = $1, updated_at = NOW() WHERE id = $2`

	if _, err := t.tx.ExecContext(ctx, query, status, t.req.ID); err != nil {
		return fmt.Errorf("updating request status: %w", err)
	}

	return nil
}

func (t *requestTx) SetAcceptedProposal(ctx context.Context, proposalID uuid.UUID) error {
	query := `UPDATE service_requests SET accepted_proposal_id = $1, updated_at = NOW() WHERE id = $2`

	if _, err := t.tx.ExecContext(ctx, query, proposalID, t.req.ID); err != nil {
		return fmt.Errorf("recording accepted proposal: %w", err)
	}

	return nil
}
