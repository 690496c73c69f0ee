package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/parishpay/internal/domain/model"
)

// DonationRepository describes persistence operations with donations.
type DonationRepository interface {
	Create(ctx context.Context, donation *model.Donation) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetSessionID(ctx context.Context, id uuid.UUID, sessionID string) error
	ConfirmPayment(ctx context.Context, id uuid.UUID, paymentIntentID string) (model.ConfirmResult, error)
	MarkFailedBySession(ctx context.Context, sessionID string) (model.ConfirmResult, error)
	MarkRefunded(ctx context.Context, paymentIntentID string) (model.ConfirmResult, error)
}
