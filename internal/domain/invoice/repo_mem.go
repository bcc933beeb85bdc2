package invoice

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepo is a thread-safe in-memory Repository. It backs development
// deployments without a database and the unit tests.
type InMemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]*Record
}

// NewInMemoryRepo creates a new empty in-memory repository.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{byID: make(map[string]*Record)}
}

func (r *InMemoryRepo) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.byID[cp.InvoiceID] = &cp
	return nil
}

func (r *InMemoryRepo) GetByID(_ context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (r *InMemoryRepo) UpdateStatus(_ context.Context, id string, upd Update) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.PaymentStatus = upd.PaymentStatus
	if upd.PaymentDate != nil {
		d := *upd.PaymentDate
		rec.PaymentDate = &d
	}
	return copyRecord(rec), nil
}

func (r *InMemoryRepo) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *InMemoryRepo) ListAll(_ context.Context) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs := make([]*Record, 0, len(r.byID))
	for _, rec := range r.byID {
		recs = append(recs, copyRecord(rec))
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].BillingDate.Before(recs[j].BillingDate)
	})
	return recs, nil
}

// copyRecord returns a deep copy so callers cannot mutate stored state.
func copyRecord(rec *Record) *Record {
	cp := *rec
	if rec.PaymentDate != nil {
		d := *rec.PaymentDate
		cp.PaymentDate = &d
	}
	return &cp
}
