package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is the authoritative source of price and availability.
type Product struct {
	ID             uuid.UUID
	Name           string
	Emoji          string
	UnitPriceCents int64
	StockQty       int64
	Active         bool
}

// DeliveryDate is a selectable delivery slot.
type DeliveryDate struct {
	ID     uuid.UUID
	Date   time.Time
	Label  string
	Active bool
}
