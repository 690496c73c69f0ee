package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
)

func (r *donationRepository) Create(ctx context.Context, d *model.Donation) error {
	const query = `INSERT INTO donations (id, first_name, last_name, email, church_name, section_name, message,
                       amount_cents, currency, payment_status)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                   RETURNING created_at, updated_at`
	return r.storage.pool.QueryRow(ctx, query,
		d.ID, d.FirstName, d.LastName, d.Email, d.ChurchName, d.SectionName, d.Message,
		d.AmountCents, d.Currency, d.PaymentStatus,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

// Delete removes a donation that never reached the payment processor.
func (r *donationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM donations WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, id)
	return err
}

func (r *donationRepository) SetSessionID(ctx context.Context, id uuid.UUID, sessionID string) error {
	const query = `UPDATE donations SET session_id=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, sessionID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *donationRepository) ConfirmPayment(ctx context.Context, id uuid.UUID, paymentIntentID string) (model.ConfirmResult, error) {
	const lockDonation = `SELECT payment_status FROM donations WHERE id=$1 FOR UPDATE`
	const markPaid = `UPDATE donations SET payment_status=$1, payment_intent_id=$2, updated_at=NOW() WHERE id=$3`

	result := model.ConfirmResult{EntityID: id}
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var status model.PaymentStatus
		if err := tx.QueryRow(ctx, lockDonation, id).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}
		if !status.Confirmable() {
			return nil
		}
		if _, err := tx.Exec(ctx, markPaid, model.PaymentStatusPaid, paymentIntentID, id); err != nil {
			return err
		}
		result.Success = true
		return nil
	})
	if err != nil {
		return model.ConfirmResult{}, err
	}
	return result, nil
}

func (r *donationRepository) MarkFailedBySession(ctx context.Context, sessionID string) (model.ConfirmResult, error) {
	const query = `UPDATE donations SET payment_status=$1, updated_at=NOW()
                   WHERE session_id=$2 AND payment_status IN ($3, $4)
                   RETURNING id`
	return updateReturningID(ctx, r.storage.pool, query,
		model.PaymentStatusFailed, sessionID, model.PaymentStatusPending, model.PaymentStatusFailed)
}

func (r *donationRepository) MarkRefunded(ctx context.Context, paymentIntentID string) (model.ConfirmResult, error) {
	const query = `UPDATE donations SET payment_status=$1, updated_at=NOW()
                   WHERE payment_intent_id=$2 AND payment_status IN ($3, $4)
                   RETURNING id`
	return updateReturningID(ctx, r.storage.pool, query,
		model.PaymentStatusRefunded, paymentIntentID, model.PaymentStatusPaid, model.PaymentStatusRefunded)
}
