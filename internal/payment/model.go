package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates payment record states. PENDING is the only state with
// outgoing edges; PAID and OVERDUE are terminal.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
)

// Record tracks when an issued invoice falls due. The due date is computed
// once at registration and never recomputed, even if the payment terms
// change later.
type Record struct {
	ID             int64     `json:"id"`
	InvoiceID      int64     `json:"invoice_id"`
	InvoiceDate    time.Time `json:"invoice_date"`
	PaymentTermsID int64     `json:"payment_terms_id"`
	ClientID       int64     `json:"client_id"`
	DueDate        time.Time `json:"due_date"`
	Status         Status    `json:"status"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RecordWithInvoice augments a record with display fields from the invoice
// and client it references.
type RecordWithInvoice struct {
	Record
	ClientName   string          `json:"client_name"`
	InvoiceTotal decimal.Decimal `json:"invoice_total"`
	FolioNumber  *int64          `json:"folio_number,omitempty"`
	FolioSeries  string          `json:"folio_series,omitempty"`
}

// Summary aggregates record counts for the console dashboard.
type Summary struct {
	Pending     int       `json:"pending"`
	Paid        int       `json:"paid"`
	Overdue     int       `json:"overdue"`
	DueToday    int       `json:"due_today"`
	GeneratedAt time.Time `json:"generated_at"`
}
