package usecase

import (
	"context"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/domain/repository"
)

// CatalogUseCase serves storefront reads.
type CatalogUseCase struct {
	catalog repository.CatalogRepository
	orders  repository.OrderRepository
}

// NewCatalogUseCase constructs CatalogUseCase.
func NewCatalogUseCase(catalog repository.CatalogRepository, orders repository.OrderRepository) *CatalogUseCase {
	return &CatalogUseCase{catalog: catalog, orders: orders}
}

// Products lists purchasable products.
func (u *CatalogUseCase) Products(ctx context.Context) ([]model.Product, error) {
	return u.catalog.ListActiveProducts(ctx)
}

// DeliveryDates lists selectable delivery dates.
func (u *CatalogUseCase) DeliveryDates(ctx context.Context) ([]model.DeliveryDate, error) {
	return u.catalog.ListActiveDeliveryDates(ctx)
}

// Order returns the order identified by rawID.
func (u *CatalogUseCase) Order(ctx context.Context, rawID string) (*model.Order, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, domainErrors.ErrNotFound
	}
	return u.orders.GetByID(ctx, id)
}
