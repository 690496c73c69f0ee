package model

import (
	"time"

	"github.com/google/uuid"
)

// MinDonationCents is the smallest accepted donation amount.
const MinDonationCents int64 = 100

// Donation is a single-amount contribution.
type Donation struct {
	ID              uuid.UUID
	FirstName       string
	LastName        string
	Email           string
	ChurchName      string
	SectionName     string
	Message         string
	AmountCents     int64
	Currency        string
	PaymentStatus   PaymentStatus
	SessionID       string
	PaymentIntentID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
