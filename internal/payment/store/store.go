package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/identity"
	"github.com/maonamassa/marketplace/internal/payment"
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

const intentColumns = `id, request_id, client_id, provider_id, amount, description, status, created_at, expires_at`

func scanIntent(s scanner) (*payment.PaymentIntent, error) {
	var i payment.PaymentIntent

	var statusStr string

	if err := s.Scan(
		&i.ID, &i.RequestID, &i.ClientID, &i.ProviderID, &i.Amount,
		&i.Description, &statusStr, &i.CreatedAt, &i.ExpiresAt,
	); err != nil {
		return nil, err
	}

	i.Status = payment.IntentStatus(statusStr)

	return &i, nil
}

const transactionColumns = `
	id, request_id, client_id, provider_id, amount, fee, net_amount, status,
	payment_method, description, created_at, completed_at, failure_reason
`

func scanTransaction(s scanner) (*payment.Transaction, error) {
	var t payment.Transaction

	var statusStr string

	if err := s.Scan(
		&t.ID, &t.RequestID, &t.ClientID, &t.ProviderID,
		&t.Amount, &t.Fee, &t.NetAmount, &statusStr,
		&t.PaymentMethod, &t.Description, &t.CreatedAt, &t.CompletedAt, &t.FailureReason,
	); err != nil {
		return nil, err
	}

	t.Status = payment.TransactionStatus(statusStr)

	return &t, nil
}

const methodColumns = `id, user_id, type, last4, brand, expiry_month, expiry_year, is_default, created_at`

func scanMethod(s scanner) (*payment.PaymentMethod, error) {
	var m payment.PaymentMethod

	var typeStr string

	if err := s.Scan(
		&m.ID, &m.UserID, &typeStr, &m.Last4, &m.Brand,
		&m.ExpiryMonth, &m.ExpiryYear, &m.IsDefault, &m.CreatedAt,
	); err != nil {
		return nil, err
	}

	m.Type = payment.MethodType(typeStr)

	return &m, nil
}

// CreateIntent cancels any still-created intent for the same request and
// inserts the new one in a single transaction, preserving the at-most-one
// active intent per request invariant (also backed by a partial unique
// index).
func (s *Store) CreateIntent(ctx context.Context, intent *payment.PaymentIntent) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning intent tx: %w", err)
	}
	defer dbTx.Rollback()

	supersede := `UPDATE payment_intents SET status = 'cancelled' WHERE request_id = $1 AND status = 'created'`
	if _, err := dbTx.ExecContext(ctx, supersede, intent.RequestID); err != nil {
		return fmt.Errorf("superseding prior intent: %w", err)
	}

	insert := `
		INSERT INTO payment_intents (request_id, client_id, provider_id, amount, description, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7)
		RETURNING id, created_at
	`

	err = dbTx.QueryRowContext(ctx, insert,
		intent.RequestID, intent.ClientID, intent.ProviderID,
		intent.Amount, intent.Description, intent.Status, intent.ExpiresAt,
	).Scan(&intent.ID, &intent.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating payment intent: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing intent: %w", err)
	}

	return nil
}

func (s *Store) GetIntent(ctx context.Context, id uuid.UUID) (*payment.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE id = $1`

	i, err := scanIntent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrIntentNotFound
		}

		return nil, fmt.Errorf("getting payment intent: %w", err)
	}

	return i, nil
}

// CancelExpiredIntents is the reaper's sweep.
func (s *Store) CancelExpiredIntents(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE payment_intents SET status = 'cancelled' WHERE status = 'created' AND expires_at < $1`

	res, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("cancelling expired intents: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancelling expired intents: %w", err)
	}

	return affected, nil
}

type confirmTx struct {
	tx     *sql.Tx
	intent *payment.PaymentIntent
}

// BeginConfirm opens a transaction with the intent row locked. A concurrent
// confirmation of the same intent blocks here until the winner commits,
// then observes the confirmed status.
func (s *Store) BeginConfirm(ctx context.Context, intentID uuid.UUID) (payment.ConfirmTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning confirm tx: %w", err)
	}

	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE id = $1 FOR UPDATE`

	intent, err := scanIntent(dbTx.QueryRowContext(ctx, query, intentID))
	if err != nil {
		dbTx.Rollback()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrIntentNotFound
		}

		return nil, fmt.Errorf("locking payment intent: %w", err)
	}

	return &confirmTx{tx: dbTx, intent: intent}, nil
}

func (t *confirmTx) Intent() *payment.PaymentIntent { return t.intent }

func (t *confirmTx) Commit() error   { return t.tx.Commit() }
func (t *confirmTx) Rollback() error { return t.tx.Rollback() }

// Method resolves a payment method owned by the intent's client. Methods
// belonging to other users are indistinguishable from missing ones.
func (t *confirmTx) Method(ctx context.Context, methodID uuid.UUID) (*payment.PaymentMethod, error) {
	query := `SELECT ` + methodColumns + ` FROM payment_methods WHERE id = $1 AND user_id = $2`

	m, err := scanMethod(t.tx.QueryRowContext(ctx, query, methodID, t.intent.ClientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrMethodNotFound
		}

		return nil, fmt.Errorf("getting payment method: %w", err)
	}

	return m, nil
}

func (t *confirmTx) CreateTransaction(ctx context.Context, tr *payment.Transaction) error {
	query := `
		INSERT INTO transactions (request_id, client_id, provider_id, amount, fee, net_amount, status, payment_method, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		tr.RequestID, tr.ClientID, tr.ProviderID,
		tr.Amount, tr.Fee, tr.NetAmount, tr.Status, tr.PaymentMethod, tr.Description,
	).Scan(&tr.ID, &tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (t *confirmTx) MarkConfirmed(ctx context.Context) error {
	query := `UPDATE payment_intents SET status = 'confirmed' WHERE id = $1`

	if _, err := t.tx.ExecContext(ctx, query, t.intent.ID); err != nil {
		return fmt.Errorf("confirming intent: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*payment.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrTransactionNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter payment.TransactionFilter) ([]*payment.Transaction, error) {
	q := s.builder.
		Select("id", "request_id", "client_id", "provider_id",
			"amount", "fee", "net_amount", "status",
			"payment_method", "description", "created_at", "completed_at", "failure_reason").
		From("transactions").
		OrderBy("created_at DESC")

	if filter.UserID != nil {
		if filter.Role == identity.RoleProvider {
			q = q.Where(sq.Eq{"provider_id": *filter.UserID})
		} else {
			q = q.Where(sq.Eq{"client_id": *filter.UserID})
		}
	}

	if filter.Status != nil {
		q = q.Where(sq.Eq{"status": *filter.Status})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building transactions query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var ts []*payment.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		ts = append(ts, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return ts, nil
}

// CompleteTransaction is a compare-and-swap on the settlement state: only a
// processing transaction can complete. A transaction that exists but is
// past processing yields ErrTransactionSettled so callers can treat repeat
// callbacks as no-ops.
func (s *Store) CompleteTransaction(ctx context.Context, id uuid.UUID, completedAt time.Time) (*payment.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = 'completed', completed_at = $1
		WHERE id = $2 AND status = 'processing'
		RETURNING ` + transactionColumns

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query, completedAt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.settleMiss(ctx, id)
		}

		return nil, fmt.Errorf("completing transaction: %w", err)
	}

	return t, nil
}

func (s *Store) FailTransaction(ctx context.Context, id uuid.UUID, reason string) (*payment.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = 'failed', failure_reason = $1
		WHERE id = $2 AND status = 'processing'
		RETURNING ` + transactionColumns

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query, reason, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.settleMiss(ctx, id)
		}

		return nil, fmt.Errorf("failing transaction: %w", err)
	}

	return t, nil
}

// settleMiss distinguishes a missing transaction from one that already left
// the processing state.
func (s *Store) settleMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking transaction: %w", err)
	}

	if !exists {
		return payment.ErrTransactionNotFound
	}

	return payment.ErrTransactionSettled
}

func (s *Store) PlatformStats(ctx context.Context) (*payment.PlatformStats, error) {
	var stats payment.PlatformStats

	query := `
		SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(fee), 0)
		FROM transactions
		WHERE status = 'completed'
	`
	if err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalTransactions, &stats.TotalVolume, &stats.TotalFees,
	); err != nil {
		return nil, fmt.Errorf("aggregating platform stats: %w", err)
	}

	if stats.TotalTransactions > 0 {
		stats.AverageTransaction = stats.TotalVolume / stats.TotalTransactions
	}

	return &stats, nil
}

// CreateMethod inserts a payment method; the user's first method becomes
// the default. Both steps run in one transaction so two concurrent first
// methods cannot both claim the flag (the partial unique index backs this
// up).
func (s *Store) CreateMethod(ctx context.Context, m *payment.PaymentMethod) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning method tx: %w", err)
	}
	defer dbTx.Rollback()

	var existing int
	if err := dbTx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payment_methods WHERE user_id = $1`, m.UserID,
	).Scan(&existing); err != nil {
		return fmt.Errorf("counting payment methods: %w", err)
	}

	m.IsDefault = existing == 0

	query := `
		INSERT INTO payment_methods (user_id, type, last4, brand, expiry_month, expiry_year, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		m.UserID, m.Type, m.Last4, m.Brand, m.ExpiryMonth, m.ExpiryYear, m.IsDefault,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating payment method: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing method: %w", err)
	}

	return nil
}

func (s *Store) MethodsByUser(ctx context.Context, userID uuid.UUID) ([]*payment.PaymentMethod, error) {
	query := `SELECT ` + methodColumns + `
		FROM payment_methods
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing payment methods: %w", err)
	}
	defer rows.Close()

	var ms []*payment.PaymentMethod

	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment method: %w", err)
		}

		ms = append(ms, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating method rows: %w", err)
	}

	return ms, nil
}

// SetDefaultMethod clears the previous default and sets the new one inside
// a single transaction, so there is never a window with zero or two
// defaults.
func (s *Store) SetDefaultMethod(ctx context.Context, userID, methodID uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning default tx: %w", err)
	}
	defer dbTx.Rollback()

	unset := `UPDATE payment_methods SET is_default = false WHERE user_id = $1 AND is_default = true`
	if _, err := dbTx.ExecContext(ctx, unset, userID); err != nil {
		return fmt.Errorf("clearing default method: %w", err)
	}

	set := `UPDATE payment_methods SET is_default = true WHERE id = $1 AND user_id = $2`

	res, err := dbTx.ExecContext(ctx, set, methodID, userID)
	if err != nil {
		return fmt.Errorf("setting default method: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting default method: %w", err)
	}

	if affected == 0 {
		return payment.ErrMethodNotFound
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing default: %w", err)
	}

	return nil
}
