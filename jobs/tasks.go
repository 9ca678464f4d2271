package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPaymentsSweep flips past-due PENDING payment records to OVERDUE.
	TaskPaymentsSweep = "payments:sweep_overdue"
)

// PaymentsSweepPayload parameterizes the overdue sweep. AsOf is an
// optional YYYY-MM-DD override; empty means the current date.
type PaymentsSweepPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// NewPaymentsSweepTask constructs an Asynq task for the overdue sweep.
func NewPaymentsSweepTask(payload PaymentsSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentsSweep, data), nil
}
