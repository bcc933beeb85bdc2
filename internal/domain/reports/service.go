// Package reports aggregates persisted invoices into the practice's two
// financial reports: the current-month revenue summary and the aged
// accounts-receivable breakdown.
package reports

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/invoice"
)

// bucketBounds defines the four aging periods in display order. An invoice
// lands in the first bucket whose upper bound covers its days past due; the
// last bucket is open-ended.
var bucketBounds = []struct {
	label   string
	maxDays int
}{
	{"0-30 days", 30},
	{"30-60 days", 60},
	{"60-90 days", 90},
	{"90+ days", math.MaxInt},
}

// Service computes reports from the invoice store. Reads are aggregation-only
// and never mutate records, so a report can be regenerated at any time.
type Service struct {
	invoices invoice.Repository
	logger   zerolog.Logger
	clock    func() time.Time
}

func NewService(repo invoice.Repository, logger zerolog.Logger) *Service {
	return &Service{invoices: repo, logger: logger, clock: time.Now}
}

// WithClock overrides the service's time source. Test hook.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// MonthlyRevenue sums charge and cost over every invoice billed in the
// current calendar month, regardless of payment status. Months with no
// activity report zeros rather than an error.
func (s *Service) MonthlyRevenue(ctx context.Context) (*MonthlyRevenue, error) {
	records, err := s.invoices.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	var revenue, cost float64
	for _, rec := range records {
		billed := rec.BillingDate.UTC()
		if billed.Year() != now.Year() || billed.Month() != now.Month() {
			continue
		}
		revenue += rec.ChargeAmount
		cost += rec.CostAmount
	}

	report := &MonthlyRevenue{
		MonthYear:    now.Format("Jan 2006"),
		TotalRevenue: round2(revenue),
		TotalCost:    round2(cost),
		NetProfit:    round2(revenue - cost),
	}
	s.logger.Info().
		Str("month", report.MonthYear).
		Float64("total_revenue", report.TotalRevenue).
		Float64("net_profit", report.NetProfit).
		Msg("monthly revenue report generated")
	return report, nil
}

// AgedAR partitions every unpaid invoice into one of the four aging buckets
// by whole days elapsed since its billing date. All four buckets are always
// present, empty ones with a zero total, so consumers can rely on the shape.
func (s *Service) AgedAR(ctx context.Context) ([]AgedARBucket, error) {
	records, err := s.invoices.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	buckets := make([]AgedARBucket, len(bucketBounds))
	for i, b := range bucketBounds {
		buckets[i] = AgedARBucket{AgingBucket: b.label, Details: []AgedARDetail{}}
	}

	for _, rec := range records {
		if rec.PaymentStatus == invoice.StatusPaid {
			continue
		}
		days := int(now.Sub(rec.BillingDate.UTC()).Hours() / 24)
		if days < 0 {
			days = 0
		}
		for i, b := range bucketBounds {
			if days <= b.maxDays {
				buckets[i].Details = append(buckets[i].Details, AgedARDetail{
					InvoiceID:          rec.InvoiceID,
					PatientName:        "Patient_" + rec.PatientID,
					OutstandingBalance: rec.ChargeAmount,
					DaysPastDue:        days,
				})
				buckets[i].TotalAmount = round2(buckets[i].TotalAmount + rec.ChargeAmount)
				break
			}
		}
	}

	s.logger.Info().Int("buckets", len(buckets)).Msg("aged A/R report generated")
	return buckets, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
