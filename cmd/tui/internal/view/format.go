package view

import (
	"context"
	"time"

	"github.com/maonamassa/marketplace/internal/money"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders centavos as Brazilian currency.
func FormatAmount(cents int64) string {
	return money.FormatBRL(cents)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
