package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus describes fulfilment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus describes payment lifecycle shared by orders and donations.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Confirmable reports whether a payment in this state may still move to paid.
// A failed attempt inside a live checkout session can be followed by a successful one.
func (s PaymentStatus) Confirmable() bool {
	return s == PaymentStatusPending || s == PaymentStatusFailed
}

// PaymentMethodCard tags orders paid through hosted card checkout.
const PaymentMethodCard = "card"

// Customer holds buyer contact and affiliation details.
type Customer struct {
	FirstName   string
	LastName    string
	Address     string
	Phone       string
	Email       string
	ChurchName  string
	SectionName string
}

// Order is a multi-item purchase awaiting or holding a payment outcome.
type Order struct {
	ID               uuid.UUID
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentMethod    string
	Customer         Customer
	DeliveryAddress  string
	DeliveryDateID   uuid.UUID
	Currency         string
	TotalAmountCents int64
	SessionID        string
	PaymentIntentID  string
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is an immutable snapshot of a product line taken at checkout time.
type OrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	ProductName    string
	ProductEmoji   string
	UnitPriceCents int64
	Quantity       int64
	LineTotalCents int64
}

// NewOrderItem snapshots product pricing for qty units.
func NewOrderItem(orderID uuid.UUID, product Product, qty int64) OrderItem {
	return OrderItem{
		ID:             uuid.New(),
		OrderID:        orderID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		ProductEmoji:   product.Emoji,
		UnitPriceCents: product.UnitPriceCents,
		Quantity:       qty,
		LineTotalCents: product.UnitPriceCents * qty,
	}
}

// SumLineTotals returns the authoritative order total for items.
func SumLineTotals(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotalCents
	}
	return total
}
