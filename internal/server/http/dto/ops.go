package dto

import "time"

// PaymentEventResponse is a ledger entry shown to operators.
type PaymentEventResponse struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	SourceType      string    `json:"source_type"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	LastError       string    `json:"last_error,omitempty"`
	EntityType      string    `json:"entity_type,omitempty"`
	EntityID        string    `json:"entity_id,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
