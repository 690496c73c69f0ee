package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/parishpay/internal/domain/repository"
)

// pgxPool is the subset of *pgxpool.Pool used by storage.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type donationRepository struct {
	storage *Storage
}

type catalogRepository struct {
	storage *Storage
}

type eventRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Donations() repository.DonationRepository {
	return &donationRepository{storage: s}
}

func (s *Storage) Catalog() repository.CatalogRepository {
	return &catalogRepository{storage: s}
}

func (s *Storage) Events() repository.EventRepository {
	return &eventRepository{storage: s}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            emoji TEXT NOT NULL DEFAULT '',
            unit_price_cents BIGINT NOT NULL CHECK (unit_price_cents >= 0),
            stock_qty BIGINT NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
            active BOOLEAN NOT NULL DEFAULT TRUE,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS delivery_dates (
            id UUID PRIMARY KEY,
            date DATE NOT NULL,
            label TEXT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT TRUE
        )`,
	`CREATE TABLE IF NOT EXISTS orders (
            id UUID PRIMARY KEY,
            status TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            payment_method TEXT NOT NULL,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            address TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            church_name TEXT NOT NULL,
            section_name TEXT NOT NULL,
            delivery_address TEXT NOT NULL,
            delivery_date_id UUID NOT NULL REFERENCES delivery_dates(id),
            currency TEXT NOT NULL,
            total_amount_cents BIGINT NOT NULL CHECK (total_amount_cents >= 0),
            session_id TEXT NOT NULL DEFAULT '',
            payment_intent_id TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS order_items (
            id UUID PRIMARY KEY,
            order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            product_id UUID NOT NULL REFERENCES products(id),
            product_name TEXT NOT NULL,
            product_emoji TEXT NOT NULL DEFAULT '',
            unit_price_cents BIGINT NOT NULL,
            quantity BIGINT NOT NULL CHECK (quantity > 0),
            line_total_cents BIGINT NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS donations (
            id UUID PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            church_name TEXT NOT NULL DEFAULT '',
            section_name TEXT NOT NULL DEFAULT '',
            message TEXT NOT NULL DEFAULT '',
            amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
            currency TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            session_id TEXT NOT NULL DEFAULT '',
            payment_intent_id TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS payment_events (
            id TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            source_type TEXT NOT NULL,
            session_id TEXT NOT NULL DEFAULT '',
            payment_intent_id TEXT NOT NULL DEFAULT '',
            entity_type TEXT NOT NULL DEFAULT '',
            entity_id TEXT NOT NULL DEFAULT '',
            paid BOOLEAN NOT NULL DEFAULT FALSE,
            payload JSONB NOT NULL,
            status TEXT NOT NULL,
            attempts INT NOT NULL DEFAULT 0,
            last_error TEXT NOT NULL DEFAULT '',
            received_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_payment_intent ON orders(payment_intent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_donations_session ON donations(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_donations_payment_intent ON donations(payment_intent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_events_status ON payment_events(status, received_at)`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
