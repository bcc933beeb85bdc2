package reports

// MonthlyRevenue summarises gross billings, internal cost, and net profit for
// the current calendar month. All amounts are rounded to two decimals.
type MonthlyRevenue struct {
	MonthYear    string  `json:"month_year"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalCost    float64 `json:"total_cost"`
	NetProfit    float64 `json:"net_profit"`
}

// AgedARDetail is one outstanding balance contributing to an aging bucket.
// OutstandingBalance equals the full charge amount: partial payments are not
// modelled.
type AgedARDetail struct {
	InvoiceID          string  `json:"invoice_id"`
	PatientName        string  `json:"patient_name"`
	OutstandingBalance float64 `json:"outstanding_balance"`
	DaysPastDue        int     `json:"days_past_due"`
}

// AgedARBucket is one aging period of the accounts-receivable report. The
// report always contains all four buckets, each with its total and details.
type AgedARBucket struct {
	AgingBucket string         `json:"aging_bucket"`
	TotalAmount float64        `json:"total_amount"`
	Details     []AgedARDetail `json:"details"`
}
