package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/parishpay/internal/domain/model"
)

// OrderRepository describes persistence operations with orders and their items.
type OrderRepository interface {
	// CreateWithItems stores header and items atomically; no header survives a failed item insert.
	CreateWithItems(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	SetSessionID(ctx context.Context, id uuid.UUID, sessionID string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	ConfirmPayment(ctx context.Context, id uuid.UUID, paymentIntentID string) (model.ConfirmResult, error)
	MarkFailedBySession(ctx context.Context, sessionID string) (model.ConfirmResult, error)
	MarkRefunded(ctx context.Context, paymentIntentID string) (model.ConfirmResult, error)
}
