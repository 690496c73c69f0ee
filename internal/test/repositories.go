package test

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/domain/repository"
)

// MemoryStore is an in-memory datastore honouring the same guards as the Postgres storage.
type MemoryStore struct {
	mu sync.Mutex

	Products      map[uuid.UUID]*model.Product
	DeliveryDates map[uuid.UUID]*model.DeliveryDate
	OrderRecords  map[uuid.UUID]*model.Order
	DonationRecs  map[uuid.UUID]*model.Donation
	EventRecords  map[string]*model.EventRecord

	// Fault injection.
	CreateOrderErr   error
	SetSessionErr    error
	MarkFailedErr    error
	CreateDonErr     error
	DeleteDonErr     error
	ConfirmErr       error
	RecordErr        error
	CatalogErr       error
	ConfirmCalls     int
	MarkFailedCalls  int
	DeletedDonations []uuid.UUID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Products:      make(map[uuid.UUID]*model.Product),
		DeliveryDates: make(map[uuid.UUID]*model.DeliveryDate),
		OrderRecords:  make(map[uuid.UUID]*model.Order),
		DonationRecs:  make(map[uuid.UUID]*model.Donation),
		EventRecords:  make(map[string]*model.EventRecord),
	}
}

// AddProduct registers an active product with price and stock and returns it.
func (s *MemoryStore) AddProduct(name string, priceCents, stock int64) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Product{ID: uuid.New(), Name: name, UnitPriceCents: priceCents, StockQty: stock, Active: true}
	s.Products[p.ID] = &p
	return p
}

// AddDeliveryDate registers a delivery date and returns it.
func (s *MemoryStore) AddDeliveryDate(label string, active bool) model.DeliveryDate {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := model.DeliveryDate{ID: uuid.New(), Date: time.Now().AddDate(0, 0, 7), Label: label, Active: active}
	s.DeliveryDates[d.ID] = &d
	return d
}

// SetProductActive toggles product availability.
func (s *MemoryStore) SetProductActive(id uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Products[id].Active = active
}

// Stock returns the current stock of product id.
func (s *MemoryStore) Stock(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Products[id].StockQty
}

// Order returns a copy of the stored order.
func (s *MemoryStore) Order(id uuid.UUID) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.OrderRecords[id]
	if !ok {
		return model.Order{}, false
	}
	return *o, true
}

// Donation returns a copy of the stored donation.
func (s *MemoryStore) Donation(id uuid.UUID) (model.Donation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.DonationRecs[id]
	if !ok {
		return model.Donation{}, false
	}
	return *d, true
}

// StaleEventAge mirrors how long the Postgres ledger lets an entry sit in received or retrying.
const StaleEventAge = 10 * time.Minute

// AgeEvent moves the entry's last update d into the past.
func (s *MemoryStore) AgeEvent(id string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.EventRecords[id]; ok {
		e.UpdatedAt = e.UpdatedAt.Add(-d)
	}
}

// SetEventStatus overwrites the entry's status, simulating a worker that died mid-flight.
func (s *MemoryStore) SetEventStatus(id string, status model.EventStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.EventRecords[id]; ok {
		e.Status = status
	}
}

// Event returns a copy of the ledger entry.
func (s *MemoryStore) Event(id string) (model.EventRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.EventRecords[id]
	if !ok {
		return model.EventRecord{}, false
	}
	return *e, true
}

// Counts reports how many orders and donations are stored.
func (s *MemoryStore) Counts() (orders, donations int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.OrderRecords), len(s.DonationRecs)
}

// Orders returns the order repository view.
func (s *MemoryStore) Orders() repository.OrderRepository { return &MemoryOrders{s} }

// Donations returns the donation repository view.
func (s *MemoryStore) Donations() repository.DonationRepository { return &MemoryDonations{s} }

// Catalog returns the catalog repository view.
func (s *MemoryStore) Catalog() repository.CatalogRepository { return &MemoryCatalog{s} }

// Events returns the event ledger view.
func (s *MemoryStore) Events() repository.EventRepository { return &MemoryEvents{s} }

var _ repository.Factory = (*MemoryStore)(nil)

// MemoryOrders implements repository.OrderRepository.
type MemoryOrders struct{ s *MemoryStore }

func (r *MemoryOrders) CreateWithItems(_ context.Context, order *model.Order) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateOrderErr != nil {
		return s.CreateOrderErr
	}
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	stored := *order
	stored.Items = append([]model.OrderItem(nil), order.Items...)
	s.OrderRecords[order.ID] = &stored
	return nil
}

func (r *MemoryOrders) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.OrderRecords[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *MemoryOrders) SetSessionID(_ context.Context, id uuid.UUID, sessionID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetSessionErr != nil {
		return s.SetSessionErr
	}
	o, ok := s.OrderRecords[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	o.SessionID = sessionID
	return nil
}

func (r *MemoryOrders) MarkFailed(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MarkFailedCalls++
	if s.MarkFailedErr != nil {
		return s.MarkFailedErr
	}
	if o, ok := s.OrderRecords[id]; ok && o.PaymentStatus == model.PaymentStatusPending {
		o.PaymentStatus = model.PaymentStatusFailed
		o.Status = model.OrderStatusCancelled
	}
	return nil
}

func (r *MemoryOrders) ConfirmPayment(_ context.Context, id uuid.UUID, paymentIntentID string) (model.ConfirmResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConfirmCalls++
	if s.ConfirmErr != nil {
		return model.ConfirmResult{}, s.ConfirmErr
	}
	o, ok := s.OrderRecords[id]
	if !ok {
		return model.ConfirmResult{}, domainErrors.ErrNotFound
	}
	if !o.PaymentStatus.Confirmable() {
		return model.ConfirmResult{EntityID: id}, nil
	}

	items := append([]model.OrderItem(nil), o.Items...)
	sort.Slice(items, func(i, j int) bool {
		return bytes.Compare(items[i].ProductID[:], items[j].ProductID[:]) < 0
	})
	need := make(map[uuid.UUID]int64)
	for _, it := range items {
		need[it.ProductID] += it.Quantity
		p, ok := s.Products[it.ProductID]
		if !ok || p.StockQty < need[it.ProductID] {
			return model.ConfirmResult{}, fmt.Errorf("product %s: %w", it.ProductID, domainErrors.ErrInsufficientStock)
		}
	}
	for pid, qty := range need {
		s.Products[pid].StockQty -= qty
	}
	o.PaymentStatus = model.PaymentStatusPaid
	o.Status = model.OrderStatusConfirmed
	o.PaymentIntentID = paymentIntentID
	return model.ConfirmResult{Success: true, EntityID: id}, nil
}

func (r *MemoryOrders) MarkFailedBySession(_ context.Context, sessionID string) (model.ConfirmResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.OrderRecords {
		if o.SessionID == sessionID && o.PaymentStatus.Confirmable() {
			o.PaymentStatus = model.PaymentStatusFailed
			o.Status = model.OrderStatusCancelled
			return model.ConfirmResult{Success: true, EntityID: o.ID}, nil
		}
	}
	return model.ConfirmResult{}, nil
}

func (r *MemoryOrders) MarkRefunded(_ context.Context, paymentIntentID string) (model.ConfirmResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.OrderRecords {
		if o.PaymentIntentID == paymentIntentID &&
			(o.PaymentStatus == model.PaymentStatusPaid || o.PaymentStatus == model.PaymentStatusRefunded) {
			o.PaymentStatus = model.PaymentStatusRefunded
			o.Status = model.OrderStatusCancelled
			return model.ConfirmResult{Success: true, EntityID: o.ID}, nil
		}
	}
	return model.ConfirmResult{}, nil
}

// MemoryDonations implements repository.DonationRepository.
type MemoryDonations struct{ s *MemoryStore }

func (r *MemoryDonations) Create(_ context.Context, d *model.Donation) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateDonErr != nil {
		return s.CreateDonErr
	}
	cp := *d
	s.DonationRecs[d.ID] = &cp
	return nil
}

func (r *MemoryDonations) Delete(_ context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteDonErr != nil {
		return s.DeleteDonErr
	}
	delete(s.DonationRecs, id)
	s.DeletedDonations = append(s.DeletedDonations, id)
	return nil
}

func (r *MemoryDonations) SetSessionID(_ context.Context, id uuid.UUID, sessionID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetSessionErr != nil {
		return s.SetSessionErr
	}
	d, ok := s.DonationRecs[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	d.SessionID = sessionID
	return nil
}

func (r *MemoryDonations) ConfirmPayment(_ context.Context, id uuid.UUID, paymentIntentID string) (model.ConfirmResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConfirmCalls++
	if s.ConfirmErr != nil {
		return model.ConfirmResult{}, s.ConfirmErr
	}
	d, ok := s.DonationRecs[id]
	if !ok {
		return model.ConfirmResult{}, domainErrors.ErrNotFound
	}
	if !d.PaymentStatus.Confirmable() {
		return model.ConfirmResult{EntityID: id}, nil
	}
	d.PaymentStatus = model.PaymentStatusPaid
	d.PaymentIntentID = paymentIntentID
	return model.ConfirmResult{Success: true, EntityID: id}, nil
}

func (r *MemoryDonations) MarkFailedBySession(_ context.Context, sessionID string) (model.ConfirmResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.DonationRecs {
		if d.SessionID == sessionID && d.PaymentStatus.Confirmable() {
			d.PaymentStatus = model.PaymentStatusFailed
			return model.ConfirmResult{Success: true, EntityID: d.ID}, nil
		}
	}
	return model.ConfirmResult{}, nil
}

func (r *MemoryDonations) MarkRefunded(_ context.Context, paymentIntentID string) (model.ConfirmResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.DonationRecs {
		if d.PaymentIntentID == paymentIntentID &&
			(d.PaymentStatus == model.PaymentStatusPaid || d.PaymentStatus == model.PaymentStatusRefunded) {
			d.PaymentStatus = model.PaymentStatusRefunded
			return model.ConfirmResult{Success: true, EntityID: d.ID}, nil
		}
	}
	return model.ConfirmResult{}, nil
}

// MemoryCatalog implements repository.CatalogRepository.
type MemoryCatalog struct{ s *MemoryStore }

func (r *MemoryCatalog) GetProduct(_ context.Context, id uuid.UUID) (*model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CatalogErr != nil {
		return nil, s.CatalogErr
	}
	p, ok := s.Products[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryCatalog) GetDeliveryDate(_ context.Context, id uuid.UUID) (*model.DeliveryDate, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CatalogErr != nil {
		return nil, s.CatalogErr
	}
	d, ok := s.DeliveryDates[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *MemoryCatalog) ListActiveProducts(_ context.Context) ([]model.Product, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CatalogErr != nil {
		return nil, s.CatalogErr
	}
	var out []model.Product
	for _, p := range s.Products {
		if p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryCatalog) ListActiveDeliveryDates(_ context.Context) ([]model.DeliveryDate, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CatalogErr != nil {
		return nil, s.CatalogErr
	}
	var out []model.DeliveryDate
	for _, d := range s.DeliveryDates {
		if d.Active {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// MemoryEvents implements repository.EventRepository.
type MemoryEvents struct{ s *MemoryStore }

func (r *MemoryEvents) Record(_ context.Context, e model.PaymentEvent) (model.EventRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RecordErr != nil {
		return model.EventRecord{}, s.RecordErr
	}
	if rec, ok := s.EventRecords[e.ID]; ok {
		rec.UpdatedAt = time.Now()
		return *rec, nil
	}
	now := time.Now()
	rec := &model.EventRecord{Event: e, Status: model.EventStatusReceived, ReceivedAt: now, UpdatedAt: now}
	s.EventRecords[e.ID] = rec
	return *rec, nil
}

func (r *MemoryEvents) MarkProcessed(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.EventRecords[id]; ok {
		rec.Status = model.EventStatusProcessed
		rec.LastError = ""
	}
	return nil
}

func (r *MemoryEvents) MarkFailed(_ context.Context, id string, status model.EventStatus, reason string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.EventRecords[id]; ok {
		rec.Status = status
		rec.Attempts++
		rec.LastError = reason
	}
	return nil
}

func (r *MemoryEvents) SelectBatchForRetry(_ context.Context, limit, maxAttempts int) ([]model.EventRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var out []model.EventRecord
	for _, rec := range s.EventRecords {
		if len(out) >= limit {
			break
		}
		if rec.Attempts >= maxAttempts {
			continue
		}
		stuck := (rec.Status == model.EventStatusReceived || rec.Status == model.EventStatusRetrying) &&
			rec.UpdatedAt.Before(now.Add(-StaleEventAge))
		if rec.Status == model.EventStatusFailed || stuck {
			rec.Status = model.EventStatusRetrying
			rec.UpdatedAt = now
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *MemoryEvents) ListByStatus(_ context.Context, status model.EventStatus, limit int) ([]model.EventRecord, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EventRecord
	for _, rec := range s.EventRecords {
		if rec.Status == status && len(out) < limit {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *MemoryEvents) ResetForRetry(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.EventRecords[id]
	if !ok || (rec.Status != model.EventStatusAttention && rec.Status != model.EventStatusFailed) {
		return domainErrors.ErrNotFound
	}
	rec.Status = model.EventStatusFailed
	rec.Attempts = 0
	return nil
}
