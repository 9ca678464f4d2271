package folio

import "time"

// Status enumerates folio lifecycle states.
type Status string

const (
	// StatusAvailable marks a folio that may still be claimed.
	StatusAvailable Status = "AVAILABLE"
	// StatusUsed marks a folio bound to an issued invoice. Folios never
	// leave this state; voiding the invoice does not release its number.
	StatusUsed Status = "USED"
	// StatusVoided marks a folio retired without ever being used.
	StatusVoided Status = "VOIDED"
)

// Folio is a sequentially numbered legal document identifier. Numbers are
// unique across all series and are never reused.
type Folio struct {
	ID        int64      `json:"id"`
	Number    int64      `json:"number"`
	Series    string     `json:"series"`
	Status    Status     `json:"status"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
