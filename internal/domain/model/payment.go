package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityType links a payment session back to the record it pays for.
type EntityType string

const (
	EntityOrder    EntityType = "order"
	EntityDonation EntityType = "donation"
)

// SessionLineItem is a line restated to the payment processor.
type SessionLineItem struct {
	Name           string
	UnitPriceCents int64
	Quantity       int64
}

// SessionRequest carries everything needed to open a hosted payment session.
type SessionRequest struct {
	EntityType    EntityType
	EntityID      uuid.UUID
	Currency      string
	Items         []SessionLineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	// ExpiresAt is left zero to use the processor default.
	ExpiresAt time.Time
}

// Session is the processor-owned checkout context.
type Session struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// ConfirmResult reports the outcome of an idempotent state transition.
// Success=false means the transition had already been applied.
type ConfirmResult struct {
	Success  bool
	EntityID uuid.UUID
}
