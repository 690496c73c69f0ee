package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
)

func validOrderRequest() OrderRequest {
	return OrderRequest{
		Customer: CustomerInput{
			FirstName: "Anna", LastName: "Berg", Address: "Main 1",
			ChurchName: "St. Mary", SectionName: "Choir",
		},
		Delivery: DeliveryInput{Address: "Main 1", DateID: "d1"},
		Cart:     []CartLine{{ProductID: "p1", Quantity: 2}},
	}
}

func TestRequestValidatorOrderFieldOrder(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*OrderRequest)
		field   string
		message string
	}{
		{"first name", func(r *OrderRequest) { r.Customer.FirstName = "  "; r.Customer.LastName = "" }, "customer.firstName", "first name is required"},
		{"last name", func(r *OrderRequest) { r.Customer.LastName = ""; r.Delivery.Address = "" }, "customer.lastName", "last name is required"},
		{"address", func(r *OrderRequest) { r.Customer.Address = "" }, "customer.address", "address is required"},
		{"church", func(r *OrderRequest) { r.Customer.ChurchName = "" }, "customer.churchName", "church name is required"},
		{"section", func(r *OrderRequest) { r.Customer.SectionName = ""; r.Cart = nil }, "customer.sectionName", "section name is required"},
		{"email", func(r *OrderRequest) { r.Customer.Email = "not-an-email" }, "customer.email", "email address is invalid"},
		{"delivery address", func(r *OrderRequest) { r.Delivery.Address = "\t"; r.Cart = nil }, "delivery.address", "delivery address is required"},
		{"delivery date", func(r *OrderRequest) { r.Delivery.DateID = "" }, "delivery.dateId", "delivery date is required"},
		{"empty cart", func(r *OrderRequest) { r.Cart = []CartLine{} }, "cart", "cart is empty"},
		{"missing cart", func(r *OrderRequest) { r.Cart = nil }, "cart", "cart is empty"},
	}

	v := NewRequestValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validOrderRequest()
			tc.mutate(&req)

			err := v.Order(&req)
			verr, ok := domainErrors.AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.message, verr.Message)
		})
	}
}

func TestRequestValidatorOrderTrims(t *testing.T) {
	req := validOrderRequest()
	req.Customer.FirstName = "  Anna "
	req.Customer.Email = " anna@example.com "
	req.Cart[0].ProductID = " p1 "

	require.NoError(t, NewRequestValidator().Order(&req))
	assert.Equal(t, "Anna", req.Customer.FirstName)
	assert.Equal(t, "anna@example.com", req.Customer.Email)
	assert.Equal(t, "p1", req.Cart[0].ProductID)
}

func TestRequestValidatorDonation(t *testing.T) {
	v := NewRequestValidator()

	ok := DonationRequest{FirstName: "A", LastName: "B", AmountCents: 100}
	require.NoError(t, v.Donation(&ok))

	cases := []struct {
		name    string
		req     DonationRequest
		field   string
		message string
	}{
		{"below minimum", DonationRequest{FirstName: "A", LastName: "B", AmountCents: 50}, "donation.amountCents", "minimum donation amount is 100 cents"},
		{"negative", DonationRequest{FirstName: "A", LastName: "B", AmountCents: -1}, "donation.amountCents", "minimum donation amount is 100 cents"},
		{"first name", DonationRequest{LastName: "B", AmountCents: 500}, "donation.firstName", "first name is required"},
		{"last name", DonationRequest{FirstName: "A", AmountCents: 0}, "donation.lastName", "last name is required"},
		{"email", DonationRequest{FirstName: "A", LastName: "B", Email: "nope", AmountCents: 500}, "donation.email", "email address is invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			verr, ok := domainErrors.AsValidation(v.Donation(&req))
			require.True(t, ok)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.message, verr.Message)
		})
	}
}
