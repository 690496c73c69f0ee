package dto

import "time"

// ProductResponse describes a purchasable product.
type ProductResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Emoji          string `json:"emoji"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	StockQty       int64  `json:"stock_qty"`
}

// DeliveryDateResponse describes a selectable delivery slot.
type DeliveryDateResponse struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Label string `json:"label"`
}

// OrderStatusResponse is the PII-free order view used by the success page.
type OrderStatusResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	Currency         string              `json:"currency"`
	TotalAmountCents int64               `json:"total_amount_cents"`
	Items            []OrderItemResponse `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
}

// OrderItemResponse is a snapshotted order line.
type OrderItemResponse struct {
	ProductName    string `json:"product_name"`
	ProductEmoji   string `json:"product_emoji"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int64  `json:"quantity"`
	LineTotalCents int64  `json:"line_total_cents"`
}
