package dto

import (
	"github.com/polkiloo/parishpay/internal/usecase"
)

// CheckoutRequest is the loosely shaped storefront payload: a donation or a cart with customer details.
type CheckoutRequest struct {
	Cart     []CartLine       `json:"cart"`
	Customer *Customer        `json:"customer"`
	Delivery *Delivery        `json:"delivery"`
	Donation *DonationRequest `json:"donation"`
}

// CartLine references a product; any client-side price is ignored.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// Customer describes the buyer.
type Customer struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	ChurchName  string `json:"churchName"`
	SectionName string `json:"sectionName"`
}

// Delivery names the drop-off address and slot.
type Delivery struct {
	Address string `json:"address"`
	DateID  string `json:"dateId"`
}

// DonationRequest describes a donation payload.
type DonationRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	ChurchName  string `json:"churchName"`
	SectionName string `json:"sectionName"`
	Message     string `json:"message"`
	AmountCents int64  `json:"amountCents"`
}

// CheckoutResponse carries the redirect target and the id of the created record.
type CheckoutResponse struct {
	URL        string `json:"url"`
	OrderID    string `json:"order_id,omitempty"`
	DonationID string `json:"donation_id,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ToUseCase converts the payload into the tagged checkout variant. Donation wins when present.
func (r CheckoutRequest) ToUseCase() usecase.CheckoutRequest {
	if d := r.Donation; d != nil {
		return usecase.CheckoutRequest{Donation: &usecase.DonationRequest{
			FirstName:   d.FirstName,
			LastName:    d.LastName,
			Email:       d.Email,
			ChurchName:  d.ChurchName,
			SectionName: d.SectionName,
			Message:     d.Message,
			AmountCents: d.AmountCents,
		}}
	}
	if r.Cart == nil && r.Customer == nil && r.Delivery == nil {
		return usecase.CheckoutRequest{}
	}

	order := &usecase.OrderRequest{Cart: make([]usecase.CartLine, 0, len(r.Cart))}
	if c := r.Customer; c != nil {
		order.Customer = usecase.CustomerInput{
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			Address:     c.Address,
			ChurchName:  c.ChurchName,
			SectionName: c.SectionName,
			Email:       c.Email,
			Phone:       c.Phone,
		}
	}
	if d := r.Delivery; d != nil {
		order.Delivery = usecase.DeliveryInput{Address: d.Address, DateID: d.DateID}
	}
	for _, line := range r.Cart {
		order.Cart = append(order.Cart, usecase.CartLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return usecase.CheckoutRequest{Order: order}
}
