package invoice

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates a Postgres-backed invoice repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const invoiceCols = `invoice_id, patient_id, procedure_code, charge_amount, cost_amount,
	payment_status, billing_date, payment_date, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.InvoiceID, &rec.PatientID, &rec.ProcedureCode,
		&rec.ChargeAmount, &rec.CostAmount,
		&rec.PaymentStatus, &rec.BillingDate, &rec.PaymentDate, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invoice_record (invoice_id, patient_id, procedure_code,
			charge_amount, cost_amount, payment_status, billing_date, payment_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.InvoiceID, rec.PatientID, rec.ProcedureCode,
		rec.ChargeAmount, rec.CostAmount, rec.PaymentStatus, rec.BillingDate, rec.PaymentDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Record, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoice_record WHERE invoice_id = $1`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id string, upd Update) (*Record, error) {
	// COALESCE keeps the existing payment_date when none is supplied.
	return scanRecord(r.pool.QueryRow(ctx, `
		UPDATE invoice_record
		SET payment_status = $2, payment_date = COALESCE($3, payment_date)
		WHERE invoice_id = $1
		RETURNING `+invoiceCols,
		id, upd.PaymentStatus, upd.PaymentDate))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoice_record`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+invoiceCols+` FROM invoice_record
		ORDER BY billing_date ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	recs, err := collectRecords(rows)
	return recs, total, err
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceCols+` FROM invoice_record ORDER BY billing_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]*Record, error) {
	var recs []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
