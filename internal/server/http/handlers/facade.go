package handlers

import (
	"context"

	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/usecase"
)

// CheckoutFacade starts order and donation checkouts.
type CheckoutFacade interface {
	Checkout(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
}

// WebhookFacade consumes payment processor notifications.
type WebhookFacade interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// CatalogFacade serves storefront reads.
type CatalogFacade interface {
	Products(ctx context.Context) ([]model.Product, error)
	DeliveryDates(ctx context.Context) ([]model.DeliveryDate, error)
	OrderStatus(ctx context.Context, id string) (*model.Order, error)
}

// OpsFacade exposes the payment event ledger to operators.
type OpsFacade interface {
	PaymentEvents(ctx context.Context, status model.EventStatus) ([]model.EventRecord, error)
	RequeueEvent(ctx context.Context, id string) error
}

// HealthFacade reports service readiness.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// PaymentsFacade aggregates the full set of operations used across handlers.
type PaymentsFacade interface {
	CheckoutFacade
	WebhookFacade
	CatalogFacade
	OpsFacade
	HealthFacade
}
