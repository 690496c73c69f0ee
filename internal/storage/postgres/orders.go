package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
)

const orderColumns = `id, status, payment_status, payment_method, first_name, last_name, address, phone, email,
                      church_name, section_name, delivery_address, delivery_date_id, currency, total_amount_cents,
                      session_id, payment_intent_id, created_at, updated_at`

func (r *orderRepository) CreateWithItems(ctx context.Context, order *model.Order) error {
	const insertOrder = `INSERT INTO orders (id, status, payment_status, payment_method, first_name, last_name, address,
                             phone, email, church_name, section_name, delivery_address, delivery_date_id, currency, total_amount_cents)
                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
                         RETURNING created_at, updated_at`
	const insertItem = `INSERT INTO order_items (id, order_id, product_id, product_name, product_emoji,
                            unit_price_cents, quantity, line_total_cents)
                        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		c := order.Customer
		err := tx.QueryRow(ctx, insertOrder,
			order.ID, order.Status, order.PaymentStatus, order.PaymentMethod,
			c.FirstName, c.LastName, c.Address, c.Phone, c.Email, c.ChurchName, c.SectionName,
			order.DeliveryAddress, order.DeliveryDateID, order.Currency, order.TotalAmountCents,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range order.Items {
			if _, err := tx.Exec(ctx, insertItem,
				item.ID, order.ID, item.ProductID, item.ProductName, item.ProductEmoji,
				item.UnitPriceCents, item.Quantity, item.LineTotalCents,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	var o model.Order
	c := &o.Customer
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Status, &o.PaymentStatus, &o.PaymentMethod, &c.FirstName, &c.LastName, &c.Address, &c.Phone, &c.Email,
		&c.ChurchName, &c.SectionName, &o.DeliveryAddress, &o.DeliveryDateID, &o.Currency, &o.TotalAmountCents,
		&o.SessionID, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `SELECT id, order_id, product_id, product_name, product_emoji, unit_price_cents, quantity, line_total_cents
                        FROM order_items WHERE order_id=$1 ORDER BY product_name`
	rows, err := r.storage.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductEmoji,
			&it.UnitPriceCents, &it.Quantity, &it.LineTotalCents); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) SetSessionID(ctx context.Context, id uuid.UUID, sessionID string) error {
	const query = `UPDATE orders SET session_id=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, sessionID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// MarkFailed records that no payment session could be opened for a pending order.
func (r *orderRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE orders SET payment_status=$1, status=$2, updated_at=NOW() WHERE id=$3 AND payment_status=$4`
	_, err := r.storage.pool.Exec(ctx, query, model.PaymentStatusFailed, model.OrderStatusCancelled, id, model.PaymentStatusPending)
	return err
}

type stockLine struct {
	productID uuid.UUID
	quantity  int64
}

// ConfirmPayment locks the order, decrements stock for every item and marks it paid
// in one transaction. An order that is no longer confirmable yields Success=false.
func (r *orderRepository) ConfirmPayment(ctx context.Context, id uuid.UUID, paymentIntentID string) (model.ConfirmResult, error) {
	const lockOrder = `SELECT payment_status FROM orders WHERE id=$1 FOR UPDATE`
	// product order keeps lock acquisition consistent across concurrent confirmations
	const selectItems = `SELECT product_id, quantity FROM order_items WHERE order_id=$1 ORDER BY product_id`
	const decrementStock = `UPDATE products SET stock_qty = stock_qty - $1, updated_at=NOW() WHERE id=$2 AND stock_qty >= $1`
	const markPaid = `UPDATE orders SET status=$1, payment_status=$2, payment_intent_id=$3, updated_at=NOW() WHERE id=$4`

	result := model.ConfirmResult{EntityID: id}
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var status model.PaymentStatus
		if err := tx.QueryRow(ctx, lockOrder, id).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}
		if !status.Confirmable() {
			return nil
		}

		rows, err := tx.Query(ctx, selectItems, id)
		if err != nil {
			return err
		}
		var lines []stockLine
		for rows.Next() {
			var l stockLine
			if err := rows.Scan(&l.productID, &l.quantity); err != nil {
				rows.Close()
				return err
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, l := range lines {
			tag, err := tx.Exec(ctx, decrementStock, l.quantity, l.productID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("product %s: %w", l.productID, domainErrors.ErrInsufficientStock)
			}
		}

		if _, err := tx.Exec(ctx, markPaid, model.OrderStatusConfirmed, model.PaymentStatusPaid, paymentIntentID, id); err != nil {
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

// MarkFailedBySession fails a pending order; paid and refunded orders are left as is.
func (r *orderRepository) MarkFailedBySession(ctx context.Context, sessionID string) (model.ConfirmResult, error) {
	const query = `UPDATE orders SET payment_status=$1, status=$2, updated_at=NOW()
                   WHERE session_id=$3 AND payment_status IN ($4, $5)
                   RETURNING id`
	return updateReturningID(ctx, r.storage.pool, query,
		model.PaymentStatusFailed, model.OrderStatusCancelled, sessionID, model.PaymentStatusPending, model.PaymentStatusFailed)
}

func (r *orderRepository) MarkRefunded(ctx context.Context, paymentIntentID string) (model.ConfirmResult, error) {
	const query = `UPDATE orders SET payment_status=$1, status=$2, updated_at=NOW()
                   WHERE payment_intent_id=$3 AND payment_status IN ($4, $5)
                   RETURNING id`
	return updateReturningID(ctx, r.storage.pool, query,
		model.PaymentStatusRefunded, model.OrderStatusCancelled, paymentIntentID, model.PaymentStatusPaid, model.PaymentStatusRefunded)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func updateReturningID(ctx context.Context, q rowQuerier, query string, args ...any) (model.ConfirmResult, error) {
	var id uuid.UUID
	if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ConfirmResult{}, nil
		}
		return model.ConfirmResult{}, err
	}
	return model.ConfirmResult{Success: true, EntityID: id}, nil
}
