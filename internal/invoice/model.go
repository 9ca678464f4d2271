package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates invoice lifecycle states. The only edges are
// DRAFT → ISSUED, DRAFT → VOID and ISSUED → VOID; VOID is terminal.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusIssued Status = "ISSUED"
	StatusVoid   Status = "VOID"
)

// Invoice is a sales document. A folio is bound exactly once, at the moment
// the invoice is issued, and the binding is immutable afterwards; reissuing
// requires a new invoice.
type Invoice struct {
	ID             int64           `json:"id"`
	Date           time.Time       `json:"date"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	Status         Status          `json:"status"`
	ClientID       int64           `json:"client_id"`
	SellerID       int64           `json:"seller_id"`
	PaymentTermsID int64           `json:"payment_terms_id"`
	FolioID        *int64          `json:"folio_id,omitempty"`
	FolioNumber    *int64          `json:"folio_number,omitempty"`
	Lines          []Line          `json:"lines,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Line is an invoice line item, owned by its invoice.
type Line struct {
	ID           int64           `json:"id"`
	InvoiceID    int64           `json:"invoice_id"`
	ProductID    int64           `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
}
