package invoice

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested invoice id does not exist in the store.
var ErrNotFound = errors.New("invoice not found")

// Repository is the persistence contract for invoice records. Implementations
// must provide per-record atomicity: a Create or UpdateStatus followed by a
// GetByID observes the written state immediately.
type Repository interface {
	// Create persists a new invoice record keyed by its invoice id.
	Create(ctx context.Context, rec *Record) error

	// GetByID retrieves a single invoice record, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Record, error)

	// UpdateStatus overwrites payment_status and, when upd.PaymentDate is
	// non-nil, payment_date. Returns the updated record, or ErrNotFound
	// with no side effect when the id is unknown.
	UpdateStatus(ctx context.Context, id string, upd Update) (*Record, error)

	// List returns a page of invoice records ordered by billing_date
	// ascending, along with the total count before pagination.
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)

	// ListAll returns every invoice record ordered by billing_date
	// ascending. Used by the reporting engine, which always recomputes
	// from the full set.
	ListAll(ctx context.Context) ([]*Record, error)
}
