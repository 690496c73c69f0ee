package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/server/http/dto"
	"github.com/polkiloo/parishpay/internal/test/facade"
	"github.com/polkiloo/parishpay/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, path, route string, handler gin.HandlerFunc, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	return body
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func TestCheckoutHandlerOrder(t *testing.T) {
	orderID := uuid.New()
	var got usecase.CheckoutRequest
	handler := NewCheckoutHandler(facade.PaymentsFacadeStub{CheckoutFn: func(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
		got = req
		return &usecase.CheckoutResult{RedirectURL: "https://pay.test/cs_1", EntityType: model.EntityOrder, EntityID: orderID}, nil
	}})

	body := []byte(`{
		"cart":[{"productId":"p1","quantity":2,"price":1}],
		"customer":{"firstName":"Anna","lastName":"Berg","address":"Main 1","churchName":"St. Mary","sectionName":"Choir","email":"a@b.c"},
		"delivery":{"address":"Main 1","dateId":"d1"}
	}`)
	resp := performRequest(t, http.MethodPost, "/api/checkout", "/api/checkout", handler.Checkout, body, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out dto.CheckoutResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.URL != "https://pay.test/cs_1" || out.OrderID != orderID.String() || out.DonationID != "" {
		t.Fatalf("unexpected response %+v", out)
	}
	if got.Order == nil || got.Donation != nil {
		t.Fatalf("expected order variant, got %+v", got)
	}
	if got.Order.Cart[0] != (usecase.CartLine{ProductID: "p1", Quantity: 2}) {
		t.Fatalf("unexpected cart %+v", got.Order.Cart)
	}
	if got.Order.Customer.ChurchName != "St. Mary" || got.Order.Delivery.DateID != "d1" {
		t.Fatalf("unexpected order request %+v", got.Order)
	}
}

func TestCheckoutHandlerDonationWins(t *testing.T) {
	donationID := uuid.New()
	handler := NewCheckoutHandler(facade.PaymentsFacadeStub{CheckoutFn: func(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
		if req.Donation == nil || req.Order != nil {
			t.Fatalf("expected donation variant, got %+v", req)
		}
		if req.Donation.AmountCents != 2500 {
			t.Fatalf("unexpected amount %d", req.Donation.AmountCents)
		}
		return &usecase.CheckoutResult{RedirectURL: "https://pay.test/cs_2", EntityType: model.EntityDonation, EntityID: donationID}, nil
	}})

	body := []byte(`{"cart":[{"productId":"p1","quantity":1}],"donation":{"firstName":"Jon","lastName":"Doe","amountCents":2500}}`)
	resp := performRequest(t, http.MethodPost, "/api/checkout", "/api/checkout", handler.Checkout, body, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out dto.CheckoutResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.DonationID != donationID.String() || out.OrderID != "" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestCheckoutHandlerFailures(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		status   int
		contains string
		field    string
	}{
		{"malformed json", `{"cart":`, nil, http.StatusBadRequest, "invalid JSON", ""},
		{"wrong type", `{"cart":[{"productId":"p1","quantity":"two"}]}`, nil, http.StatusBadRequest, "invalid JSON", ""},
		{"validation", `{"donation":{"amountCents":50}}`, domainErrors.Invalid("donation.amountCents", "minimum donation amount is 100 cents"), http.StatusBadRequest, "minimum donation amount is 100 cents", "donation.amountCents"},
		{"provider", `{"donation":{"amountCents":500}}`, domainErrors.ErrPaymentProvider, http.StatusInternalServerError, "please try again", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewCheckoutHandler(facade.PaymentsFacadeStub{CheckoutFn: func(context.Context, usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
				if tc.err == nil {
					t.Fatal("facade must not be called")
				}
				return nil, tc.err
			}})
			resp := performRequest(t, http.MethodPost, "/api/checkout", "/api/checkout", handler.Checkout, []byte(tc.body), jsonHeaders)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
			body := decodeError(t, resp)
			if !strings.Contains(body.Error, tc.contains) {
				t.Fatalf("expected error containing %q, got %q", tc.contains, body.Error)
			}
			if body.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, body.Field)
			}
		})
	}
}

func TestCheckoutHandlerMethodNotAllowed(t *testing.T) {
	handler := NewCheckoutHandler(facade.PaymentsFacadeStub{})
	resp := performRequest(t, http.MethodGet, "/api/checkout", "/api/checkout", handler.MethodNotAllowed, nil, nil)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("expected JSON response, got %q", resp.Header().Get("Content-Type"))
	}
}

func TestWebhookHandler(t *testing.T) {
	processingErr := errors.New("db down")
	cases := []struct {
		name      string
		signature string
		err       error
		status    int
		body      string
	}{
		{"missing signature", "", nil, http.StatusBadRequest, "missing signature"},
		{"invalid signature", "t=1,v1=bad", domainErrors.ErrInvalidSignature, http.StatusBadRequest, "invalid signature"},
		{"processing error acknowledged", "t=1,v1=ok", processingErr, http.StatusOK, "received, processing failed"},
		{"success", "t=1,v1=ok", nil, http.StatusOK, `{"received":true}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotPayload []byte
			handler := NewWebhookHandler(facade.PaymentsFacadeStub{WebhookFn: func(ctx context.Context, payload []byte, sig string) error {
				gotPayload = payload
				if sig != tc.signature {
					t.Fatalf("unexpected signature %q", sig)
				}
				return tc.err
			}})
			headers := map[string]string{}
			if tc.signature != "" {
				headers[SignatureHeader] = tc.signature
			}
			resp := performRequest(t, http.MethodPost, "/api/webhooks/stripe", "/api/webhooks/stripe", handler.Receive, []byte(`{"id":"evt_1"}`), headers)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
			if resp.Body.String() != tc.body {
				t.Fatalf("expected body %q, got %q", tc.body, resp.Body.String())
			}
			if tc.signature != "" && string(gotPayload) != `{"id":"evt_1"}` {
				t.Fatalf("expected raw payload forwarded, got %q", gotPayload)
			}
		})
	}
}

func TestWebhookHandlerBodyLimit(t *testing.T) {
	handler := NewWebhookHandler(facade.PaymentsFacadeStub{WebhookFn: func(context.Context, []byte, string) error {
		t.Fatal("oversized payload must not reach the facade")
		return nil
	}})
	body := bytes.Repeat([]byte("a"), maxWebhookBody+1)
	resp := performRequest(t, http.MethodPost, "/hook", "/hook", handler.Receive, body, map[string]string{SignatureHeader: "sig"})
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
}

func TestWebhookHandlerMethodNotAllowed(t *testing.T) {
	handler := NewWebhookHandler(facade.PaymentsFacadeStub{})
	resp := performRequest(t, http.MethodGet, "/hook", "/hook", handler.MethodNotAllowed, nil, nil)
	if resp.Code != http.StatusMethodNotAllowed || resp.Body.String() != "method not allowed" {
		t.Fatalf("unexpected response %d %q", resp.Code, resp.Body.String())
	}
}

func TestCatalogHandlerProducts(t *testing.T) {
	handler := NewCatalogHandler(facade.PaymentsFacadeStub{})
	resp := performRequest(t, http.MethodGet, "/api/products", "/api/products", handler.Products, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var products []dto.ProductResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 1 || products[0].UnitPriceCents != 1500 || products[0].Emoji != "🍞" {
		t.Fatalf("unexpected products %+v", products)
	}

	handler = NewCatalogHandler(facade.PaymentsFacadeStub{ProductsFn: func(context.Context) ([]model.Product, error) {
		return nil, errors.New("db down")
	}})
	resp = performRequest(t, http.MethodGet, "/api/products", "/api/products", handler.Products, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestCatalogHandlerDeliveryDates(t *testing.T) {
	handler := NewCatalogHandler(facade.PaymentsFacadeStub{})
	resp := performRequest(t, http.MethodGet, "/api/delivery-dates", "/api/delivery-dates", handler.DeliveryDates, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var dates []dto.DeliveryDateResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &dates)
	if len(dates) != 1 || dates[0].Date != "2026-12-24" || dates[0].Label != "Christmas Eve" {
		t.Fatalf("unexpected dates %+v", dates)
	}

	handler = NewCatalogHandler(facade.PaymentsFacadeStub{DeliveryDatesFn: func(context.Context) ([]model.DeliveryDate, error) {
		return nil, errors.New("db down")
	}})
	resp = performRequest(t, http.MethodGet, "/api/delivery-dates", "/api/delivery-dates", handler.DeliveryDates, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestCatalogHandlerOrderStatus(t *testing.T) {
	orderID := uuid.New()
	order := &model.Order{
		ID: orderID, Status: model.OrderStatusConfirmed, PaymentStatus: model.PaymentStatusPaid,
		Currency: "eur", TotalAmountCents: 3000, CreatedAt: time.Now(),
		Customer: model.Customer{FirstName: "Anna", Email: "anna@example.com"},
		Items:    []model.OrderItem{{ProductName: "Bread", UnitPriceCents: 1500, Quantity: 2, LineTotalCents: 3000}},
	}
	handler := NewCatalogHandler(facade.PaymentsFacadeStub{OrderStatusFn: func(ctx context.Context, id string) (*model.Order, error) {
		if id == orderID.String() {
			return order, nil
		}
		if id == "broken" {
			return nil, errors.New("db down")
		}
		return nil, domainErrors.ErrNotFound
	}})

	resp := performRequest(t, http.MethodGet, "/api/orders/"+orderID.String(), "/api/orders/:id", handler.OrderStatus, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "anna@example.com") {
		t.Fatalf("order status must not expose customer data: %s", resp.Body.String())
	}
	var out dto.OrderStatusResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.PaymentStatus != "paid" || out.TotalAmountCents != 3000 || len(out.Items) != 1 {
		t.Fatalf("unexpected order status %+v", out)
	}

	resp = performRequest(t, http.MethodGet, "/api/orders/other", "/api/orders/:id", handler.OrderStatus, nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodGet, "/api/orders/broken", "/api/orders/:id", handler.OrderStatus, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestOpsHandlerEvents(t *testing.T) {
	var gotStatus model.EventStatus
	handler := NewOpsHandler(facade.PaymentsFacadeStub{EventsFn: func(ctx context.Context, status model.EventStatus) ([]model.EventRecord, error) {
		gotStatus = status
		switch status {
		case model.EventStatusAttention:
			return []model.EventRecord{{
				Event:  model.PaymentEvent{ID: "evt_1", Kind: model.EventPaymentCompleted, EntityType: model.EntityOrder, EntityID: "o1"},
				Status: model.EventStatusAttention, Attempts: 5, LastError: "insufficient stock",
			}}, nil
		case model.EventStatusFailed:
			return nil, nil
		case "bogus":
			return nil, domainErrors.Invalid("status", "unknown event status %q", status)
		}
		return nil, errors.New("db down")
	}})

	resp := performRequest(t, http.MethodGet, "/api/ops/events", "/api/ops/events", handler.Events, nil, nil)
	if resp.Code != http.StatusOK || gotStatus != model.EventStatusAttention {
		t.Fatalf("expected 200 with default status, got %d %s", resp.Code, gotStatus)
	}
	var events []dto.PaymentEventResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &events)
	if len(events) != 1 || events[0].ID != "evt_1" || events[0].Attempts != 5 || events[0].LastError != "insufficient stock" {
		t.Fatalf("unexpected events %+v", events)
	}

	resp = performRequest(t, http.MethodGet, "/api/ops/events?status=failed", "/api/ops/events", handler.Events, nil, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodGet, "/api/ops/events?status=bogus", "/api/ops/events", handler.Events, nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodGet, "/api/ops/events?status=processed", "/api/ops/events", handler.Events, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestOpsHandlerRetry(t *testing.T) {
	handler := NewOpsHandler(facade.PaymentsFacadeStub{RequeueFn: func(ctx context.Context, id string) error {
		switch id {
		case "evt_1":
			return nil
		case "evt_broken":
			return errors.New("db down")
		}
		return domainErrors.ErrNotFound
	}})

	cases := map[string]int{
		"evt_1":       http.StatusAccepted,
		"evt_missing": http.StatusNotFound,
		"evt_broken":  http.StatusInternalServerError,
	}
	for id, status := range cases {
		resp := performRequest(t, http.MethodPost, "/api/ops/events/"+id+"/retry", "/api/ops/events/:id/retry", handler.Retry, nil, nil)
		if resp.Code != status {
			t.Fatalf("%s: expected %d, got %d", id, status, resp.Code)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler(facade.PaymentsFacadeStub{})
	resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", handler.Check, nil, nil)
	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", resp.Code, resp.Body.String())
	}

	handler = NewHealthHandler(facade.PaymentsFacadeStub{HealthFn: func(context.Context) error { return errors.New("db down") }})
	resp = performRequest(t, http.MethodGet, "/healthz", "/healthz", handler.Check, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestCheckoutRequestToUseCaseEmpty(t *testing.T) {
	if got := (dto.CheckoutRequest{}).ToUseCase(); got.Order != nil || got.Donation != nil {
		t.Fatalf("expected empty variant, got %+v", got)
	}
}
