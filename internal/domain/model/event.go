package model

import "time"

// EventKind classifies payment lifecycle notifications.
type EventKind string

const (
	EventPaymentCompleted    EventKind = "payment_completed"
	EventSessionExpired      EventKind = "session_expired"
	EventPaymentFailed       EventKind = "payment_failed"
	EventPaymentIntentFailed EventKind = "payment_intent_failed"
	EventChargeRefunded      EventKind = "charge_refunded"
	EventIgnored             EventKind = "ignored"
)

// PaymentEvent is a verified notification reduced to the fields reconciliation needs.
type PaymentEvent struct {
	ID              string
	Kind            EventKind
	SourceType      string
	SessionID       string
	PaymentIntentID string
	EntityType      EntityType
	EntityID        string
	Paid            bool
	Payload         []byte
}

// EventStatus tracks reconciliation progress of a ledger entry.
type EventStatus string

const (
	EventStatusReceived  EventStatus = "received"
	EventStatusProcessed EventStatus = "processed"
	EventStatusFailed    EventStatus = "failed"
	EventStatusRetrying  EventStatus = "retrying"
	EventStatusAttention EventStatus = "attention"
)

// EventRecord is a ledger entry for a received notification.
type EventRecord struct {
	Event      PaymentEvent
	Status     EventStatus
	Attempts   int
	LastError  string
	ReceivedAt time.Time
	UpdatedAt  time.Time
}
