package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrPaidWithoutDate rejects a transition to Paid that carries no payment
// date. Confirming a payment without recording when it happened would leave
// the aged-receivables view unable to tell paid from outstanding over time.
var ErrPaidWithoutDate = errors.New("payment_date is required when marking an invoice Paid")

// Service is the staff-facing tracker over the invoice ledger: lookups,
// listings, and payment-status mutation. Creation goes through the billing
// pipeline, never through this service.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get retrieves a single invoice record by id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of invoice records ordered by billing date.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdatePaymentStatus applies upd to the invoice with the given id.
// Returns (false, nil) when the invoice does not exist: not-found is a signal,
// not an error. Invalid input and storage failures return (false, err).
func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, upd Update) (bool, error) {
	if !upd.PaymentStatus.Valid() {
		return false, fmt.Errorf("invalid payment status: %s", upd.PaymentStatus)
	}
	if upd.PaymentStatus == StatusPaid && upd.PaymentDate == nil {
		return false, ErrPaidWithoutDate
	}

	rec, err := s.repo.UpdateStatus(ctx, id, upd)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn().Str("invoice_id", id).Msg("status update for unknown invoice id")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update invoice %s: %w", id, err)
	}

	s.logger.Info().
		Str("invoice_id", rec.InvoiceID).
		Str("payment_status", string(rec.PaymentStatus)).
		Msg("payment status updated")
	return true, nil
}
