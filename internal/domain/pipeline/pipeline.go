// Package pipeline drives the revenue cycle for one completed procedure:
// fetch the clinical event, price it, register it with the external billing
// software, and persist the invoice internally.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/invoice"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/pricing"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/clinical"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/registrar"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/platform/metrics"
)

// Stage identifies where in the pipeline a run failed.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StagePrice    Stage = "price"
	StageRegister Stage = "register"
	StagePersist  Stage = "persist"
)

// StageError wraps a failure with the pipeline stage that produced it, so
// callers can distinguish a missing case from an unbillable procedure from a
// storage outage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ClinicalSource supplies completed-procedure events by case id.
type ClinicalSource interface {
	FetchProcedure(ctx context.Context, caseID string) (*clinical.ProcedureEvent, error)
}

// Registrar submits an invoice draft to the external billing software and
// returns its reference id.
type Registrar interface {
	Register(ctx context.Context, draft *registrar.Draft) (string, error)
}

// Outcome is the result of a successful run. The record is durable; the
// profit estimate is informational only and is not persisted.
type Outcome struct {
	Record               *invoice.Record `json:"invoice"`
	ProfitEstimate       float64         `json:"profit_estimate"`
	ExternallyRegistered bool            `json:"externally_registered"`
}

// Orchestrator owns the end-to-end flow. All collaborators are injected at
// construction time; the orchestrator itself keeps no mutable state, so runs
// for different case ids may execute concurrently.
type Orchestrator struct {
	clinical ClinicalSource
	pricer   *pricing.Engine
	reg      Registrar
	invoices invoice.Repository
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewOrchestrator(
	source ClinicalSource,
	pricer *pricing.Engine,
	reg Registrar,
	invoices invoice.Repository,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		clinical: source,
		pricer:   pricer,
		reg:      reg,
		invoices: invoices,
		logger:   logger,
		metrics:  m,
	}
}

// ProcessCompletedProcedure runs the pipeline for one case id.
//
// Fetch and price failures are terminal: no invoice is created. A failed
// external registration is non-fatal; the invoice is persisted under the
// local fallback id so internal tracking never depends on the billing
// software being up. A persistence failure is fatal and propagated, because
// at that point a priced invoice exists nowhere durable.
func (o *Orchestrator) ProcessCompletedProcedure(ctx context.Context, caseID string) (*Outcome, error) {
	start := time.Now()
	o.logger.Info().Str("case_id", caseID).Msg("billing pipeline triggered")

	ev, err := o.clinical.FetchProcedure(ctx, caseID)
	if err != nil {
		o.logger.Error().Err(err).Str("case_id", caseID).Msg("failed to fetch clinical data")
		o.metrics.PipelineRuns.WithLabelValues("failed_" + string(StageFetch)).Inc()
		return nil, &StageError{Stage: StageFetch, Err: err}
	}

	draft, err := o.pricer.Price(ev)
	if err != nil {
		o.logger.Error().Err(err).Str("case_id", caseID).Msg("pricing failed, no invoice created")
		o.metrics.PipelineRuns.WithLabelValues("failed_" + string(StagePrice)).Inc()
		return nil, &StageError{Stage: StagePrice, Err: err}
	}

	refID, regErr := o.reg.Register(ctx, &registrar.Draft{
		PatientID:     draft.PatientID,
		ProcedureCode: draft.ProcedureCode,
		ChargeAmount:  draft.ChargeAmount,
		CostAmount:    draft.CostAmount,
		PaymentStatus: string(draft.PaymentStatus),
		BillingDate:   draft.BillingDate,
	})
	registered := regErr == nil
	invoiceID := refID
	if !registered {
		// External-system unavailability never blocks internal tracking:
		// fall back to a locally generated id and continue.
		invoiceID = invoice.FallbackID(caseID)
		o.logger.Warn().Err(regErr).Str("case_id", caseID).Str("invoice_id", invoiceID).
			Msg("external registration failed, tracking invoice internally")
		o.metrics.RegistrarFailures.Inc()
	}

	rec := &invoice.Record{
		InvoiceID:     invoiceID,
		PatientID:     draft.PatientID,
		ProcedureCode: draft.ProcedureCode,
		ChargeAmount:  draft.ChargeAmount,
		CostAmount:    draft.CostAmount,
		PaymentStatus: draft.PaymentStatus,
		BillingDate:   draft.BillingDate,
		CreatedAt:     draft.BillingDate,
	}
	if err := o.invoices.Create(ctx, rec); err != nil {
		o.logger.Error().Err(err).Str("case_id", caseID).Msg("failed to persist invoice")
		o.metrics.PipelineRuns.WithLabelValues("failed_" + string(StagePersist)).Inc()
		return nil, &StageError{Stage: StagePersist, Err: err}
	}

	outcome := "completed"
	if !registered {
		outcome = "degraded"
	}
	o.metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	o.metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	o.logger.Info().
		Str("case_id", caseID).
		Str("invoice_id", rec.InvoiceID).
		Bool("externally_registered", registered).
		Msg("procedure processed")

	return &Outcome{
		Record:               rec,
		ProfitEstimate:       draft.ProfitEstimate,
		ExternallyRegistered: registered,
	}, nil
}
