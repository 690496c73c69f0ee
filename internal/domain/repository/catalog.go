package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/parishpay/internal/domain/model"
)

// CatalogRepository provides read access to products and delivery dates.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetDeliveryDate(ctx context.Context, id uuid.UUID) (*model.DeliveryDate, error)
	ListActiveProducts(ctx context.Context) ([]model.Product, error)
	ListActiveDeliveryDates(ctx context.Context) ([]model.DeliveryDate, error)
}
