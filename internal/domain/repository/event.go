package repository

import (
	"context"

	"github.com/polkiloo/parishpay/internal/domain/model"
)

// EventRepository is the ledger of received payment notifications.
type EventRepository interface {
	// Record stores event if unseen and returns the ledger entry with its stored status and attempts.
	Record(ctx context.Context, event model.PaymentEvent) (model.EventRecord, error)
	MarkProcessed(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, status model.EventStatus, reason string) error
	SelectBatchForRetry(ctx context.Context, limit, maxAttempts int) ([]model.EventRecord, error)
	ListByStatus(ctx context.Context, status model.EventStatus, limit int) ([]model.EventRecord, error)
	ResetForRetry(ctx context.Context, id string) error
}
