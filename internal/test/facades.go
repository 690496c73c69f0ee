package test

import (
	"context"
	"sync"
	"sync/atomic"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
)

// WorkerFacadeStub mimics the retry worker's view of the application.
type WorkerFacadeStub struct {
	Batches   [][]model.EventRecord
	BatchFn   func(context.Context, int) ([]model.EventRecord, error)
	RetryFn   func(context.Context, model.EventRecord) error
	Retried   []string
	mu        sync.Mutex
	callCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// EventsForRetry returns batches from the configured queue.
func (s *WorkerFacadeStub) EventsForRetry(ctx context.Context, limit int) ([]model.EventRecord, error) {
	if s.BatchFn != nil {
		return s.BatchFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.callCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	return nil, nil
}

// RetryEvent records retried event ids.
func (s *WorkerFacadeStub) RetryEvent(ctx context.Context, rec model.EventRecord) error {
	s.mu.Lock()
	s.Retried = append(s.Retried, rec.Event.ID)
	s.mu.Unlock()
	if s.RetryFn != nil {
		return s.RetryFn(ctx, rec)
	}
	return nil
}

// RetriedIDs returns a snapshot of retried ids.
func (s *WorkerFacadeStub) RetriedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Retried...)
}

// TokenVerifierStub accepts a single configured token.
type TokenVerifierStub struct {
	Token    string
	Disabled bool
}

// Enabled reports whether the stub guards routes.
func (s TokenVerifierStub) Enabled() bool { return !s.Disabled }

// Verify accepts only Token.
func (s TokenVerifierStub) Verify(token string) error {
	if s.Disabled || token == "" || token != s.Token {
		return domainErrors.ErrInvalidToken
	}
	return nil
}
