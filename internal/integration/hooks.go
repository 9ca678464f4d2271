package integration

import (
	"context"
	"time"

	"github.com/facturante/facturante/internal/payment"
)

// PaymentTracker exposes the tracker operation invoked when an invoice
// is issued.
type PaymentTracker interface {
	Register(ctx context.Context, invoiceID int64, invoiceDate time.Time, paymentTermsID, clientID int64) (*payment.Record, error)
}

// Hooks wires domain events from the invoicing module into the payment
// tracker.
type Hooks struct {
	tracker PaymentTracker
}

// NewHooks constructs integration hooks.
func NewHooks(tracker PaymentTracker) *Hooks {
	return &Hooks{tracker: tracker}
}

// InvoiceIssued opens a payment record for a freshly issued invoice.
// Registration is idempotent on the tracker side, so replaying the hook
// for an already tracked invoice is harmless.
func (h *Hooks) InvoiceIssued(ctx context.Context, invoiceID int64, invoiceDate time.Time, paymentTermsID, clientID int64) error {
	_, err := h.tracker.Register(ctx, invoiceID, invoiceDate, paymentTermsID, clientID)
	return err
}
