package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
)

func (r *catalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	const query = `SELECT id, name, emoji, unit_price_cents, stock_qty, active FROM products WHERE id=$1`
	var p model.Product
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Emoji, &p.UnitPriceCents, &p.StockQty, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepository) GetDeliveryDate(ctx context.Context, id uuid.UUID) (*model.DeliveryDate, error) {
	const query = `SELECT id, date, label, active FROM delivery_dates WHERE id=$1`
	var d model.DeliveryDate
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.Date, &d.Label, &d.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *catalogRepository) ListActiveProducts(ctx context.Context) ([]model.Product, error) {
	const query = `SELECT id, name, emoji, unit_price_cents, stock_qty, active
                   FROM products WHERE active ORDER BY name`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Emoji, &p.UnitPriceCents, &p.StockQty, &p.Active); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *catalogRepository) ListActiveDeliveryDates(ctx context.Context) ([]model.DeliveryDate, error) {
	const query = `SELECT id, date, label, active
                   FROM delivery_dates WHERE active AND date >= CURRENT_DATE ORDER BY date`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.DeliveryDate
	for rows.Next() {
		var d model.DeliveryDate
		if err := rows.Scan(&d.ID, &d.Date, &d.Label, &d.Active); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
