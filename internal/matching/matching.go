package matching

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound = errors.New("provider profile not found")
	ErrNoCategories    = errors.New("provider profile needs at least one category")
)

// Category is a service category the provider works in, with an optional
// fixed rate in centavos for jobs in that category.
type Category struct {
	ID        string
	FixedRate *int64
}

// ProviderProfile is a provider's directory entry, keyed by user. Rating,
// ReviewCount and CompletedJobs are maintained by the review flow and
// survive profile updates.
type ProviderProfile struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Bio           string
	Categories    []Category
	City          string
	State         string
	ServiceRadius int // km
	HourlyRate    *int64
	Rating        float64
	ReviewCount   int
	CompletedJobs int
	Verified      bool
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
