package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is the JSON payload for creating a draft invoice.
// Quantities and prices accept JSON numbers or strings.
type CreateInvoiceRequest struct {
	Date           string            `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ClientID       int64             `json:"client_id" validate:"required,gt=0"`
	SellerID       int64             `json:"seller_id" validate:"required,gt=0"`
	PaymentTermsID int64             `json:"payment_terms_id" validate:"required,gt=0"`
	Lines          []LineItemRequest `json:"lines" validate:"required,min=1,dive"`
}

// LineItemRequest is one requested invoice line.
type LineItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ReplaceLinesRequest swaps the line set of a draft invoice.
type ReplaceLinesRequest struct {
	Lines []LineItemRequest `json:"lines" validate:"required,min=1,dive"`
}

// IssueRequest optionally selects the folio series.
type IssueRequest struct {
	Series string `json:"series" validate:"omitempty,max=10"`
}

func (r CreateInvoiceRequest) toInput() (CreateInput, error) {
	input := CreateInput{
		ClientID:       r.ClientID,
		SellerID:       r.SellerID,
		PaymentTermsID: r.PaymentTermsID,
	}
	if r.Date != "" {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return CreateInput{}, err
		}
		input.Date = date
	}
	input.Lines = toLineInputs(r.Lines)
	return input, nil
}

func toLineInputs(reqs []LineItemRequest) []LineInput {
	lines := make([]LineInput, 0, len(reqs))
	for _, l := range reqs {
		lines = append(lines, LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return lines
}
