package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
)

func TestDonationRepositoryLifecycle(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &donationRepository{storage: storage}

	d := &model.Donation{
		ID: uuid.New(), FirstName: "Jon", LastName: "Li", Email: "jon@example.com",
		ChurchName: "St. Paul", SectionName: "Youth", Message: "bless",
		AmountCents: 2500, Currency: "eur", PaymentStatus: model.PaymentStatusPending,
	}
	now := time.Now()

	mock.ExpectQuery("INSERT INTO donations").
		WithArgs(d.ID, "Jon", "Li", "jon@example.com", "St. Paul", "Youth", "bless", int64(2500), "eur", model.PaymentStatusPending).
		WillReturnRows(pgxmockv3.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE donations SET session_id").WithArgs("cs_d", d.ID).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.SetSessionID(context.Background(), d.ID, "cs_d"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE donations SET session_id").WithArgs("cs_d", d.ID).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.SetSessionID(context.Background(), d.ID, "cs_d"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec("DELETE FROM donations").WithArgs(d.ID).WillReturnResult(pgxmockv3.NewResult("DELETE", 1))
	if err := repo.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestDonationRepositoryConfirmPayment(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &donationRepository{storage: storage}
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT payment_status FROM donations").WithArgs(id).
		WillReturnRows(pgxmockv3.NewRows([]string{"payment_status"}).AddRow(model.PaymentStatusPending))
	mock.ExpectExec("UPDATE donations SET payment_status").WithArgs(model.PaymentStatusPaid, "pi_d", id).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	res, err := repo.ConfirmPayment(context.Background(), id, "pi_d")
	if err != nil || !res.Success || res.EntityID != id {
		t.Fatalf("unexpected result: %+v err=%v", res, err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT payment_status FROM donations").WithArgs(id).
		WillReturnRows(pgxmockv3.NewRows([]string{"payment_status"}).AddRow(model.PaymentStatusPaid))
	mock.ExpectCommit()

	res, err = repo.ConfirmPayment(context.Background(), id, "pi_d")
	if err != nil || res.Success {
		t.Fatalf("replay must be a benign no-op: %+v err=%v", res, err)
	}

	missing := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT payment_status FROM donations").WithArgs(missing).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	if _, err := repo.ConfirmPayment(context.Background(), missing, "pi_d"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestDonationRepositoryFailAndRefund(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &donationRepository{storage: storage}
	id := uuid.New()

	mock.ExpectQuery("UPDATE donations SET payment_status").
		WithArgs(model.PaymentStatusFailed, "cs_d", model.PaymentStatusPending, model.PaymentStatusFailed).
		WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(id))
	res, err := repo.MarkFailedBySession(context.Background(), "cs_d")
	if err != nil || !res.Success || res.EntityID != id {
		t.Fatalf("unexpected result: %+v err=%v", res, err)
	}

	mock.ExpectQuery("UPDATE donations SET payment_status").
		WithArgs(model.PaymentStatusRefunded, "pi_d", model.PaymentStatusPaid, model.PaymentStatusRefunded).
		WillReturnError(pgx.ErrNoRows)
	res, err = repo.MarkRefunded(context.Background(), "pi_d")
	if err != nil || res.Success {
		t.Fatalf("unknown intent must be non-success: %+v err=%v", res, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestCatalogRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &catalogRepository{storage: storage}

	productCols := []string{"id", "name", "emoji", "unit_price_cents", "stock_qty", "active"}
	dateCols := []string{"id", "date", "label", "active"}
	p1, p2 := uuid.New(), uuid.New()
	d1 := uuid.New()
	day := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, name, emoji").WithArgs(p1).
		WillReturnRows(pgxmockv3.NewRows(productCols).AddRow(p1, "Bread", "🍞", int64(1500), int64(5), true))
	p, err := repo.GetProduct(context.Background(), p1)
	if err != nil || p.UnitPriceCents != 1500 || !p.Active {
		t.Fatalf("unexpected product: %+v err=%v", p, err)
	}

	mock.ExpectQuery("SELECT id, name, emoji").WithArgs(p2).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetProduct(context.Background(), p2); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("SELECT id, date, label").WithArgs(d1).
		WillReturnRows(pgxmockv3.NewRows(dateCols).AddRow(d1, day, "Christmas Eve", true))
	d, err := repo.GetDeliveryDate(context.Background(), d1)
	if err != nil || d.Label != "Christmas Eve" {
		t.Fatalf("unexpected date: %+v err=%v", d, err)
	}

	mock.ExpectQuery("SELECT id, date, label").WithArgs(p2).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetDeliveryDate(context.Background(), p2); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM products WHERE active").WillReturnRows(pgxmockv3.NewRows(productCols).
		AddRow(p1, "Bread", "🍞", int64(1500), int64(5), true).
		AddRow(p2, "Cake", "🎂", int64(800), int64(0), true))
	products, err := repo.ListActiveProducts(context.Background())
	if err != nil || len(products) != 2 {
		t.Fatalf("unexpected products: %+v err=%v", products, err)
	}

	mock.ExpectQuery("FROM delivery_dates WHERE active").WillReturnRows(pgxmockv3.NewRows(dateCols).AddRow(d1, day, "Christmas Eve", true))
	dates, err := repo.ListActiveDeliveryDates(context.Background())
	if err != nil || len(dates) != 1 {
		t.Fatalf("unexpected dates: %+v err=%v", dates, err)
	}

	mock.ExpectQuery("FROM products WHERE active").WillReturnError(errors.New("db"))
	if _, err := repo.ListActiveProducts(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestCatalogRepositoryRowsError(t *testing.T) {
	storage := &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows")}}}
	repo := &catalogRepository{storage: storage}

	if _, err := repo.ListActiveProducts(context.Background()); err == nil {
		t.Fatal("expected rows error")
	}
	if _, err := repo.ListActiveDeliveryDates(context.Background()); err == nil {
		t.Fatal("expected rows error")
	}
}

var eventCols = []string{"id", "kind", "source_type", "session_id", "payment_intent_id", "entity_type", "entity_id", "paid", "payload",
	"status", "attempts", "last_error", "received_at", "updated_at"}

func eventRow(rows *pgxmockv3.Rows, id string, status model.EventStatus, attempts int) *pgxmockv3.Rows {
	now := time.Now()
	return rows.AddRow(id, model.EventPaymentCompleted, "checkout.session.completed", "cs_1", "pi_1",
		model.EntityOrder, uuid.NewString(), true, []byte(`{}`), status, attempts, "", now, now)
}

func TestEventRepositoryRecord(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &eventRepository{storage: storage}
	now := time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC)
	recordCols := []string{"status", "attempts", "received_at", "updated_at"}

	e := model.PaymentEvent{
		ID: "evt_1", Kind: model.EventPaymentCompleted, SourceType: "checkout.session.completed",
		SessionID: "cs_1", PaymentIntentID: "pi_1", EntityType: model.EntityOrder, EntityID: "x", Paid: true,
		Payload: []byte(`{}`),
	}

	mock.ExpectQuery("INSERT INTO payment_events").
		WithArgs("evt_1", model.EventPaymentCompleted, "checkout.session.completed", "cs_1", "pi_1",
			model.EntityOrder, "x", true, []byte(`{}`), model.EventStatusReceived).
		WillReturnRows(pgxmockv3.NewRows(recordCols).AddRow(model.EventStatusReceived, 0, now, now))
	rec, err := repo.Record(context.Background(), e)
	if err != nil || rec.Status != model.EventStatusReceived || rec.Attempts != 0 {
		t.Fatalf("unexpected record %+v err=%v", rec, err)
	}
	if rec.Event.ID != "evt_1" || !rec.ReceivedAt.Equal(now) {
		t.Fatalf("record must carry the event and timestamps, got %+v", rec)
	}

	mock.ExpectQuery("INSERT INTO payment_events").
		WillReturnRows(pgxmockv3.NewRows(recordCols).AddRow(model.EventStatusProcessed, 1, now, now))
	rec, err = repo.Record(context.Background(), e)
	if err != nil || rec.Status != model.EventStatusProcessed {
		t.Fatalf("duplicate delivery must return stored status, got %+v err=%v", rec, err)
	}

	mock.ExpectQuery("INSERT INTO payment_events").
		WillReturnRows(pgxmockv3.NewRows(recordCols).AddRow(model.EventStatusFailed, 2, now, now))
	rec, err = repo.Record(context.Background(), e)
	if err != nil || rec.Status != model.EventStatusFailed || rec.Attempts != 2 {
		t.Fatalf("redelivery must return stored attempts, got %+v err=%v", rec, err)
	}

	mock.ExpectQuery("INSERT INTO payment_events").WillReturnError(errors.New("db"))
	if _, err := repo.Record(context.Background(), e); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestEventRepositoryStatusUpdates(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &eventRepository{storage: storage}

	mock.ExpectExec("UPDATE payment_events SET status").WithArgs(model.EventStatusProcessed, "evt_1").
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.MarkProcessed(context.Background(), "evt_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE payment_events SET status").WithArgs(model.EventStatusFailed, "timeout", "evt_1").
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.MarkFailed(context.Background(), "evt_1", model.EventStatusFailed, "timeout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE payment_events SET status").
		WithArgs(model.EventStatusFailed, "evt_1", model.EventStatusAttention, model.EventStatusFailed).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.ResetForRetry(context.Background(), "evt_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE payment_events SET status").
		WithArgs(model.EventStatusFailed, "evt_2", model.EventStatusAttention, model.EventStatusFailed).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.ResetForRetry(context.Background(), "evt_2"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestEventRepositorySelectBatchForRetry(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &eventRepository{storage: storage}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").
		WithArgs(model.EventStatusFailed, model.EventStatusReceived, model.EventStatusRetrying, 5, 10).
		WillReturnRows(eventRow(eventRow(pgxmockv3.NewRows(eventCols), "evt_1", model.EventStatusFailed, 1), "evt_2", model.EventStatusReceived, 0))
	mock.ExpectExec("UPDATE payment_events SET status").WithArgs(model.EventStatusRetrying, "evt_1").
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE payment_events SET status").WithArgs(model.EventStatusRetrying, "evt_2").
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	records, err := repo.SelectBatchForRetry(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 || records[0].Event.ID != "evt_1" || records[0].Attempts != 1 {
		t.Fatalf("unexpected records: %+v", records)
	}
	for _, rec := range records {
		if rec.Status != model.EventStatusRetrying {
			t.Fatalf("expected claimed records to be retrying, got %s", rec.Status)
		}
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WillReturnError(errors.New("db"))
	mock.ExpectRollback()
	if _, err := repo.SelectBatchForRetry(context.Background(), 10, 5); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestEventRepositoryListByStatus(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &eventRepository{storage: storage}

	mock.ExpectQuery("FROM payment_events WHERE status").WithArgs(model.EventStatusAttention, 50).
		WillReturnRows(eventRow(pgxmockv3.NewRows(eventCols), "evt_9", model.EventStatusAttention, 5))
	records, err := repo.ListByStatus(context.Background(), model.EventStatusAttention, 50)
	if err != nil || len(records) != 1 || records[0].Attempts != 5 {
		t.Fatalf("unexpected records: %+v err=%v", records, err)
	}

	mock.ExpectQuery("FROM payment_events WHERE status").WillReturnError(errors.New("db"))
	if _, err := repo.ListByStatus(context.Background(), model.EventStatusAttention, 50); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
