package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/polkiloo/parishpay/internal/config"
	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/domain/repository"
)

const maxListedEvents = 100

// ReconcileDeps groups ReconcileUseCase collaborators.
type ReconcileDeps struct {
	fx.In

	Orders    repository.OrderRepository
	Donations repository.DonationRepository
	Events    repository.EventRepository
	Gateway   PaymentGateway
	Config    *config.Config
	Logger    *slog.Logger
}

// ReconcileUseCase drives orders and donations to terminal payment states from processor notifications.
type ReconcileUseCase struct {
	orders      repository.OrderRepository
	donations   repository.DonationRepository
	events      repository.EventRepository
	gateway     PaymentGateway
	maxAttempts int
	logger      *slog.Logger
}

// NewReconcileUseCase constructs ReconcileUseCase.
func NewReconcileUseCase(d ReconcileDeps) *ReconcileUseCase {
	maxAttempts := d.Config.RetryMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &ReconcileUseCase{
		orders:      d.Orders,
		donations:   d.Donations,
		events:      d.Events,
		gateway:     d.Gateway,
		maxAttempts: maxAttempts,
		logger:      d.Logger,
	}
}

// HandleNotification verifies, records and applies one notification.
// Only ErrInvalidSignature means the payload was not authenticated.
func (u *ReconcileUseCase) HandleNotification(ctx context.Context, payload []byte, signature string) error {
	event, err := u.gateway.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidSignature) {
			u.logger.Warn("rejected payment notification", slog.String("error", err.Error()))
		} else {
			u.logger.Error("undecodable payment notification", slog.String("error", err.Error()))
		}
		return err
	}

	log := u.logger.With(slog.String("event_id", event.ID), slog.String("kind", string(event.Kind)))

	rec, err := u.events.Record(ctx, event)
	if err != nil {
		// the ledger only adds retries; the transitions themselves stay idempotent
		log.Error("record payment event", slog.String("error", err.Error()))
		return u.Apply(ctx, event)
	}
	switch rec.Status {
	case model.EventStatusProcessed:
		log.Info("duplicate notification acknowledged")
		return nil
	case model.EventStatusAttention:
		log.Warn("notification awaits manual follow-up, redelivery skipped")
		return nil
	}
	// redeliveries spend the same attempt budget as worker retries
	return u.process(ctx, event, rec.Attempts)
}

// Retry re-applies a ledger entry claimed by the retry worker.
func (u *ReconcileUseCase) Retry(ctx context.Context, rec model.EventRecord) error {
	return u.process(ctx, rec.Event, rec.Attempts)
}

// RetryBatch claims up to limit ledger entries due for another attempt.
func (u *ReconcileUseCase) RetryBatch(ctx context.Context, limit int) ([]model.EventRecord, error) {
	return u.events.SelectBatchForRetry(ctx, limit, u.maxAttempts)
}

// Events lists ledger entries in status for operators.
func (u *ReconcileUseCase) Events(ctx context.Context, status model.EventStatus) ([]model.EventRecord, error) {
	switch status {
	case model.EventStatusReceived, model.EventStatusProcessed, model.EventStatusFailed,
		model.EventStatusRetrying, model.EventStatusAttention:
	default:
		return nil, domainErrors.Invalid("status", "unknown event status %q", status)
	}
	return u.events.ListByStatus(ctx, status, maxListedEvents)
}

// Requeue hands a failed or attention entry back to the retry worker with a fresh attempt budget.
func (u *ReconcileUseCase) Requeue(ctx context.Context, id string) error {
	if err := u.events.ResetForRetry(ctx, id); err != nil {
		return err
	}
	u.logger.Info("payment event requeued", slog.String("event_id", id))
	return nil
}

func (u *ReconcileUseCase) process(ctx context.Context, event model.PaymentEvent, attempts int) error {
	log := u.logger.With(slog.String("event_id", event.ID), slog.String("kind", string(event.Kind)))

	applyErr := u.Apply(ctx, event)
	if applyErr == nil {
		if err := u.events.MarkProcessed(ctx, event.ID); err != nil {
			log.Error("mark payment event processed", slog.String("error", err.Error()))
		}
		return nil
	}

	status := model.EventStatusFailed
	if !retryable(applyErr) || attempts+1 >= u.maxAttempts {
		status = model.EventStatusAttention
		log.Error("payment notification needs attention",
			slog.Bool("alert", true),
			slog.Int("attempts", attempts+1),
			slog.String("entity_type", string(event.EntityType)),
			slog.String("entity_id", event.EntityID),
			slog.String("error", applyErr.Error()))
	} else {
		log.Warn("payment notification failed, will retry",
			slog.Int("attempts", attempts+1), slog.String("error", applyErr.Error()))
	}

	if err := u.events.MarkFailed(ctx, event.ID, status, applyErr.Error()); err != nil {
		log.Error("mark payment event failed", slog.String("error", err.Error()))
	}
	return applyErr
}

func retryable(err error) bool {
	return !errors.Is(err, domainErrors.ErrInsufficientStock) && !errors.Is(err, domainErrors.ErrUnknownEntity)
}

// Apply routes event to the matching state transition. Every transition is idempotent.
func (u *ReconcileUseCase) Apply(ctx context.Context, event model.PaymentEvent) error {
	log := u.logger.With(slog.String("event_id", event.ID), slog.String("kind", string(event.Kind)))

	switch event.Kind {
	case model.EventPaymentCompleted:
		if !event.Paid {
			log.Info("checkout completed without payment, awaiting async outcome", slog.String("session_id", event.SessionID))
			return nil
		}
		return u.confirm(ctx, log, event)

	case model.EventSessionExpired, model.EventPaymentFailed:
		return u.markFailed(ctx, log, event.SessionID)

	case model.EventPaymentIntentFailed:
		sessionID := event.SessionID
		if sessionID == "" && event.PaymentIntentID != "" {
			var err error
			sessionID, err = u.gateway.SessionIDForPaymentIntent(ctx, event.PaymentIntentID)
			if errors.Is(err, domainErrors.ErrNotFound) {
				log.Info("no checkout session for failed payment intent", slog.String("payment_intent_id", event.PaymentIntentID))
				return nil
			}
			if err != nil {
				return err
			}
		}
		return u.markFailed(ctx, log, sessionID)

	case model.EventChargeRefunded:
		return u.refund(ctx, log, event.PaymentIntentID)

	default:
		log.Debug("ignored payment notification", slog.String("source_type", event.SourceType))
		return nil
	}
}

func (u *ReconcileUseCase) confirm(ctx context.Context, log *slog.Logger, event model.PaymentEvent) error {
	id, err := uuid.Parse(event.EntityID)
	if err != nil {
		return fmt.Errorf("%w: entity id %q", domainErrors.ErrUnknownEntity, event.EntityID)
	}

	var res model.ConfirmResult
	switch event.EntityType {
	case model.EntityOrder:
		res, err = u.orders.ConfirmPayment(ctx, id, event.PaymentIntentID)
	case model.EntityDonation:
		res, err = u.donations.ConfirmPayment(ctx, id, event.PaymentIntentID)
	default:
		return fmt.Errorf("%w: entity type %q", domainErrors.ErrUnknownEntity, event.EntityType)
	}
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return fmt.Errorf("%w: %s %s", domainErrors.ErrUnknownEntity, event.EntityType, id)
		}
		return fmt.Errorf("confirm %s %s: %w", event.EntityType, id, err)
	}

	attrs := []any{slog.String("entity_type", string(event.EntityType)), slog.String("entity_id", id.String())}
	if !res.Success {
		log.Info("payment already settled, nothing to confirm", attrs...)
		return nil
	}
	log.Info("payment confirmed", append(attrs, slog.String("payment_intent_id", event.PaymentIntentID))...)
	return nil
}

func (u *ReconcileUseCase) markFailed(ctx context.Context, log *slog.Logger, sessionID string) error {
	if sessionID == "" {
		log.Warn("failure notification without session reference")
		return nil
	}

	res, err := u.orders.MarkFailedBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("mark order failed: %w", err)
	}
	if res.Success {
		log.Info("order payment failed", slog.String("order_id", res.EntityID.String()))
		return nil
	}

	res, err = u.donations.MarkFailedBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("mark donation failed: %w", err)
	}
	if res.Success {
		log.Info("donation payment failed", slog.String("donation_id", res.EntityID.String()))
		return nil
	}

	log.Info("no pending record for session", slog.String("session_id", sessionID))
	return nil
}

func (u *ReconcileUseCase) refund(ctx context.Context, log *slog.Logger, paymentIntentID string) error {
	if paymentIntentID == "" {
		log.Warn("refund notification without payment intent")
		return nil
	}

	res, err := u.orders.MarkRefunded(ctx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("mark order refunded: %w", err)
	}
	if res.Success {
		log.Info("order refunded", slog.String("order_id", res.EntityID.String()))
		return nil
	}

	res, err = u.donations.MarkRefunded(ctx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("mark donation refunded: %w", err)
	}
	if res.Success {
		log.Info("donation refunded", slog.String("donation_id", res.EntityID.String()))
		return nil
	}

	log.Info("no paid record for payment intent", slog.String("payment_intent_id", paymentIntentID))
	return nil
}
