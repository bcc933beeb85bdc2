// Package pricing derives the billed charge and profit estimate for a
// completed procedure, producing the draft from which an invoice is created.
package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/invoice"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/clinical"
)

// ErrZeroCharge indicates the procedure code is absent from the fee schedule
// and therefore cannot be billed. No invoice is produced.
var ErrZeroCharge = errors.New("procedure code is not billable (zero charge)")

// Draft is a priced, not-yet-persisted invoice. ProfitEstimate is an
// informational quick view (charge minus internal cost); it is logged and
// surfaced to callers but never stored on the record.
type Draft struct {
	PatientID      string
	ProcedureCode  string
	ChargeAmount   float64
	CostAmount     float64
	PaymentStatus  invoice.PaymentStatus
	BillingDate    time.Time
	ProfitEstimate float64
}

// Engine prices completed procedures against a fee schedule.
type Engine struct {
	fees   *FeeSchedule
	logger zerolog.Logger
	clock  func() time.Time
}

func NewEngine(fees *FeeSchedule, logger zerolog.Logger) *Engine {
	return &Engine{fees: fees, logger: logger, clock: time.Now}
}

// WithClock overrides the engine's time source. Test hook.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// Price derives the invoice draft for one procedure event. Fails with
// ErrZeroCharge when the fee schedule does not cover the procedure code.
func (e *Engine) Price(ev *clinical.ProcedureEvent) (*Draft, error) {
	charge := e.fees.Resolve(ev.ProcedureCode)
	if charge == 0.0 {
		e.logger.Error().Str("procedure_code", ev.ProcedureCode).
			Msg("cannot bill procedure: charge is zero")
		return nil, ErrZeroCharge
	}

	profit := round2(charge - ev.InternalCost)
	e.logger.Info().
		Str("procedure_code", ev.ProcedureCode).
		Float64("charge", charge).
		Float64("cost", ev.InternalCost).
		Float64("profit_estimate", profit).
		Msg("procedure priced")

	return &Draft{
		PatientID:      ev.PatientID,
		ProcedureCode:  ev.ProcedureCode,
		ChargeAmount:   charge,
		CostAmount:     ev.InternalCost,
		PaymentStatus:  invoice.StatusPending,
		BillingDate:    e.clock().UTC(),
		ProfitEstimate: profit,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
