package app

import (
	"context"

	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/usecase"
)

// HealthChecker reports readiness of backing services.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PaymentsFacade is the single entry point transports and workers use to reach use cases.
type PaymentsFacade struct {
	checkout  *usecase.CheckoutUseCase
	reconcile *usecase.ReconcileUseCase
	catalog   *usecase.CatalogUseCase
	health    HealthChecker
}

func NewPaymentsFacade(checkout *usecase.CheckoutUseCase, reconcile *usecase.ReconcileUseCase, catalog *usecase.CatalogUseCase, health HealthChecker) *PaymentsFacade {
	return &PaymentsFacade{checkout: checkout, reconcile: reconcile, catalog: catalog, health: health}
}

func (f *PaymentsFacade) Checkout(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	return f.checkout.Initiate(ctx, req)
}

func (f *PaymentsFacade) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return f.reconcile.HandleNotification(ctx, payload, signature)
}

func (f *PaymentsFacade) Products(ctx context.Context) ([]model.Product, error) {
	return f.catalog.Products(ctx)
}

func (f *PaymentsFacade) DeliveryDates(ctx context.Context) ([]model.DeliveryDate, error) {
	return f.catalog.DeliveryDates(ctx)
}

func (f *PaymentsFacade) OrderStatus(ctx context.Context, id string) (*model.Order, error) {
	return f.catalog.Order(ctx, id)
}

func (f *PaymentsFacade) PaymentEvents(ctx context.Context, status model.EventStatus) ([]model.EventRecord, error) {
	return f.reconcile.Events(ctx, status)
}

func (f *PaymentsFacade) RequeueEvent(ctx context.Context, id string) error {
	return f.reconcile.Requeue(ctx, id)
}

func (f *PaymentsFacade) EventsForRetry(ctx context.Context, limit int) ([]model.EventRecord, error) {
	return f.reconcile.RetryBatch(ctx, limit)
}

func (f *PaymentsFacade) RetryEvent(ctx context.Context, rec model.EventRecord) error {
	return f.reconcile.Retry(ctx, rec)
}

func (f *PaymentsFacade) Health(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}
