package usecase

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
)

// CustomerInput carries buyer contact details. Field order drives validation order.
type CustomerInput struct {
	FirstName   string `validate:"required"`
	LastName    string `validate:"required"`
	Address     string `validate:"required"`
	ChurchName  string `validate:"required"`
	SectionName string `validate:"required"`
	Email       string `validate:"omitempty,email"`
	Phone       string
}

// DeliveryInput names where and when an order is delivered.
type DeliveryInput struct {
	Address string `validate:"required"`
	DateID  string `validate:"required"`
}

// CartLine references a product by id; client prices are never accepted.
type CartLine struct {
	ProductID string
	Quantity  int64
}

// OrderRequest is the cart checkout variant.
type OrderRequest struct {
	Customer CustomerInput
	Delivery DeliveryInput
	Cart     []CartLine `validate:"required,min=1"`
}

// DonationRequest is the single-amount checkout variant.
type DonationRequest struct {
	FirstName   string `validate:"required"`
	LastName    string `validate:"required"`
	Email       string `validate:"omitempty,email"`
	ChurchName  string
	SectionName string
	Message     string `validate:"max=500"`
	AmountCents int64  `validate:"gte=100"`
}

// CheckoutRequest holds exactly one of Order or Donation. Donation wins when both are set.
type CheckoutRequest struct {
	Order    *OrderRequest
	Donation *DonationRequest
}

type fieldMessage struct {
	field   string
	message string
}

var fieldMessages = map[string]fieldMessage{
	"OrderRequest.Customer.FirstName":   {"customer.firstName", "first name is required"},
	"OrderRequest.Customer.LastName":    {"customer.lastName", "last name is required"},
	"OrderRequest.Customer.Address":     {"customer.address", "address is required"},
	"OrderRequest.Customer.ChurchName":  {"customer.churchName", "church name is required"},
	"OrderRequest.Customer.SectionName": {"customer.sectionName", "section name is required"},
	"OrderRequest.Customer.Email":       {"customer.email", "email address is invalid"},
	"OrderRequest.Delivery.Address":     {"delivery.address", "delivery address is required"},
	"OrderRequest.Delivery.DateID":      {"delivery.dateId", "delivery date is required"},
	"OrderRequest.Cart":                 {"cart", "cart is empty"},
	"DonationRequest.FirstName":         {"donation.firstName", "first name is required"},
	"DonationRequest.LastName":          {"donation.lastName", "last name is required"},
	"DonationRequest.Email":             {"donation.email", "email address is invalid"},
	"DonationRequest.Message":           {"donation.message", "message is too long"},
	"DonationRequest.AmountCents":       {"donation.amountCents", "minimum donation amount is 100 cents"},
}

// RequestValidator checks checkout requests against their struct schema.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator constructs RequestValidator.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Order normalizes req in place and returns the first schema violation.
func (v *RequestValidator) Order(req *OrderRequest) error {
	c := &req.Customer
	trim(&c.FirstName, &c.LastName, &c.Address, &c.ChurchName, &c.SectionName, &c.Email, &c.Phone)
	trim(&req.Delivery.Address, &req.Delivery.DateID)
	for i := range req.Cart {
		trim(&req.Cart[i].ProductID)
	}
	return v.check(req)
}

// Donation normalizes req in place and returns the first schema violation.
func (v *RequestValidator) Donation(req *DonationRequest) error {
	trim(&req.FirstName, &req.LastName, &req.Email, &req.ChurchName, &req.SectionName, &req.Message)
	return v.check(req)
}

func (v *RequestValidator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	first := fieldErrs[0]
	if m, ok := fieldMessages[first.StructNamespace()]; ok {
		return &domainErrors.ValidationError{Field: m.field, Message: m.message}
	}
	return domainErrors.Invalid(first.Field(), "%s is invalid", strings.ToLower(first.Field()))
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
