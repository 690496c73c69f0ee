package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
)

const eventColumns = `id, kind, source_type, session_id, payment_intent_id, entity_type, entity_id, paid, payload,
                      status, attempts, last_error, received_at, updated_at`

// staleAfter bounds how long an entry may sit in received/retrying before it is picked up again.
const staleAfter = "10 minutes"

func (r *eventRepository) Record(ctx context.Context, e model.PaymentEvent) (model.EventRecord, error) {
	const query = `INSERT INTO payment_events (id, kind, source_type, session_id, payment_intent_id, entity_type, entity_id, paid, payload, status)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                   ON CONFLICT (id) DO UPDATE SET updated_at = NOW()
                   RETURNING status, attempts, received_at, updated_at`
	rec := model.EventRecord{Event: e}
	err := r.storage.pool.QueryRow(ctx, query,
		e.ID, e.Kind, e.SourceType, e.SessionID, e.PaymentIntentID, e.EntityType, e.EntityID, e.Paid, e.Payload,
		model.EventStatusReceived,
	).Scan(&rec.Status, &rec.Attempts, &rec.ReceivedAt, &rec.UpdatedAt)
	if err != nil {
		return model.EventRecord{}, err
	}
	return rec, nil
}

func (r *eventRepository) MarkProcessed(ctx context.Context, id string) error {
	const query = `UPDATE payment_events SET status=$1, last_error='', updated_at=NOW() WHERE id=$2`
	_, err := r.storage.pool.Exec(ctx, query, model.EventStatusProcessed, id)
	return err
}

func (r *eventRepository) MarkFailed(ctx context.Context, id string, status model.EventStatus, reason string) error {
	const query = `UPDATE payment_events SET status=$1, attempts=attempts+1, last_error=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.storage.pool.Exec(ctx, query, status, reason, id)
	return err
}

// SelectBatchForRetry claims failed entries, plus entries stuck mid-processing, for another attempt.
func (r *eventRepository) SelectBatchForRetry(ctx context.Context, limit, maxAttempts int) ([]model.EventRecord, error) {
	const selectQuery = `SELECT ` + eventColumns + `
                         FROM payment_events
                         WHERE (status = $1 OR (status IN ($2, $3) AND updated_at < NOW() - INTERVAL '` + staleAfter + `'))
                           AND attempts < $4
                         ORDER BY received_at
                         LIMIT $5
                         FOR UPDATE SKIP LOCKED`
	const claimQuery = `UPDATE payment_events SET status=$1, updated_at=NOW() WHERE id=$2`

	var records []model.EventRecord
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery,
			model.EventStatusFailed, model.EventStatusReceived, model.EventStatusRetrying, maxAttempts, limit)
		if err != nil {
			return err
		}
		for rows.Next() {
			rec, err := scanEventRecord(rows)
			if err != nil {
				rows.Close()
				return err
			}
			records = append(records, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for i := range records {
			if _, err := tx.Exec(ctx, claimQuery, model.EventStatusRetrying, records[i].Event.ID); err != nil {
				return err
			}
			records[i].Status = model.EventStatusRetrying
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *eventRepository) ListByStatus(ctx context.Context, status model.EventStatus, limit int) ([]model.EventRecord, error) {
	const query = `SELECT ` + eventColumns + ` FROM payment_events WHERE status=$1 ORDER BY received_at DESC LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.EventRecord
	for rows.Next() {
		rec, err := scanEventRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *eventRepository) ResetForRetry(ctx context.Context, id string) error {
	const query = `UPDATE payment_events SET status=$1, attempts=0, updated_at=NOW() WHERE id=$2 AND status IN ($3, $4)`
	tag, err := r.storage.pool.Exec(ctx, query, model.EventStatusFailed, id, model.EventStatusAttention, model.EventStatusFailed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func scanEventRecord(row pgx.Row) (model.EventRecord, error) {
	var rec model.EventRecord
	e := &rec.Event
	err := row.Scan(&e.ID, &e.Kind, &e.SourceType, &e.SessionID, &e.PaymentIntentID, &e.EntityType, &e.EntityID, &e.Paid, &e.Payload,
		&rec.Status, &rec.Attempts, &rec.LastError, &rec.ReceivedAt, &rec.UpdatedAt)
	return rec, err
}
