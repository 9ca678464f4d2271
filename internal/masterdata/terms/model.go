package terms

import "time"

// Terms describes a payment terms definition. DaysToDue is the number
// of days between invoice issuance and the payment due date.
type Terms struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DaysToDue int       `json:"days_to_due"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
