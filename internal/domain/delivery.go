package domain

import "time"

// Outcome is how a webhook delivery was handled.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeUnhandled Outcome = "unhandled"
	OutcomeFailed    Outcome = "failed"
	OutcomeRejected  Outcome = "rejected"
)

// Delivery is journal metadata for one webhook call. It never carries the
// derived annotations.
type Delivery struct {
	ID         int64
	DeliveryID string
	EventType  string
	EntityName string
	Outcome    Outcome
	Error      string
	ReceivedAt time.Time
}

type OutcomeCount struct {
	Outcome Outcome
	Count   int
}
