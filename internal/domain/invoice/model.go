package invoice

import (
	"fmt"
	"time"
)

// PaymentStatus is the lifecycle state of an invoice's payment.
type PaymentStatus string

const (
	StatusPending     PaymentStatus = "Pending"
	StatusPaid        PaymentStatus = "Paid"
	StatusAging30     PaymentStatus = "Aging_30"
	StatusAging60     PaymentStatus = "Aging_60"
	StatusAging90Plus PaymentStatus = "Aging_90+"
)

var validStatuses = map[PaymentStatus]bool{
	StatusPending:     true,
	StatusPaid:        true,
	StatusAging30:     true,
	StatusAging60:     true,
	StatusAging90Plus: true,
}

// Valid reports whether s is one of the known payment statuses.
func (s PaymentStatus) Valid() bool { return validStatuses[s] }

// Record maps to the invoice_record table. An invoice is created exactly once
// by the billing pipeline and is never deleted; charge_amount and cost_amount
// are immutable after creation, only payment_status and payment_date change.
type Record struct {
	InvoiceID     string        `db:"invoice_id" json:"invoice_id"`
	PatientID     string        `db:"patient_id" json:"patient_id"`
	ProcedureCode string        `db:"procedure_code" json:"procedure_code"`
	ChargeAmount  float64       `db:"charge_amount" json:"charge_amount"`
	CostAmount    float64       `db:"cost_amount" json:"cost_amount"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	BillingDate   time.Time     `db:"billing_date" json:"billing_date"`
	PaymentDate   *time.Time    `db:"payment_date" json:"payment_date,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// Update is the payload staff submit to change an invoice's payment state.
// A nil PaymentDate leaves any previously recorded payment date untouched.
type Update struct {
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentDate   *time.Time    `json:"payment_date,omitempty"`
}

// FallbackID builds the local invoice id used when the external billing
// system could not assign a reference. The record is still tracked
// internally under this id.
func FallbackID(caseID string) string {
	return fmt.Sprintf("ERR-%s", caseID)
}
