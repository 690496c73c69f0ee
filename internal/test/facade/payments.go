// Package facade holds application facade stubs for transport tests.
package facade

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/usecase"
)

// PaymentsFacadeStub provides controllable behaviour for HTTP handlers.
type PaymentsFacadeStub struct {
	CheckoutFn      func(context.Context, usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
	WebhookFn       func(context.Context, []byte, string) error
	ProductsFn      func(context.Context) ([]model.Product, error)
	DeliveryDatesFn func(context.Context) ([]model.DeliveryDate, error)
	OrderStatusFn   func(context.Context, string) (*model.Order, error)
	HealthFn        func(context.Context) error
	EventsFn        func(context.Context, model.EventStatus) ([]model.EventRecord, error)
	RequeueFn       func(context.Context, string) error
}

// Checkout delegates to CheckoutFn or returns a fixed order redirect.
func (s PaymentsFacadeStub) Checkout(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, req)
	}
	return &usecase.CheckoutResult{RedirectURL: "https://checkout.test/cs_1", EntityType: model.EntityOrder, EntityID: uuid.Nil}, nil
}

// HandleWebhook delegates to WebhookFn or accepts any non-empty signature.
func (s PaymentsFacadeStub) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.WebhookFn != nil {
		return s.WebhookFn(ctx, payload, signature)
	}
	if signature == "" {
		return domainErrors.ErrInvalidSignature
	}
	return nil
}

// Products returns configured products.
func (s PaymentsFacadeStub) Products(ctx context.Context) ([]model.Product, error) {
	if s.ProductsFn != nil {
		return s.ProductsFn(ctx)
	}
	return []model.Product{{ID: uuid.Nil, Name: "Bread", Emoji: "🍞", UnitPriceCents: 1500, StockQty: 5, Active: true}}, nil
}

// DeliveryDates returns configured delivery dates.
func (s PaymentsFacadeStub) DeliveryDates(ctx context.Context) ([]model.DeliveryDate, error) {
	if s.DeliveryDatesFn != nil {
		return s.DeliveryDatesFn(ctx)
	}
	return []model.DeliveryDate{{ID: uuid.Nil, Date: time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC), Label: "Christmas Eve", Active: true}}, nil
}

// OrderStatus returns the configured order.
func (s PaymentsFacadeStub) OrderStatus(ctx context.Context, id string) (*model.Order, error) {
	if s.OrderStatusFn != nil {
		return s.OrderStatusFn(ctx, id)
	}
	return nil, domainErrors.ErrNotFound
}

// Health reports configured health.
func (s PaymentsFacadeStub) Health(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}

// PaymentEvents returns configured ledger entries.
func (s PaymentsFacadeStub) PaymentEvents(ctx context.Context, status model.EventStatus) ([]model.EventRecord, error) {
	if s.EventsFn != nil {
		return s.EventsFn(ctx, status)
	}
	return nil, nil
}

// RequeueEvent delegates to RequeueFn.
func (s PaymentsFacadeStub) RequeueEvent(ctx context.Context, id string) error {
	if s.RequeueFn != nil {
		return s.RequeueFn(ctx, id)
	}
	return nil
}
