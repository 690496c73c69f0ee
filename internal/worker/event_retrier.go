package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/parishpay/internal/domain/model"
)

// RetryFacade exposes the subset of application functionality required by the worker.
type RetryFacade interface {
	EventsForRetry(ctx context.Context, limit int) ([]model.EventRecord, error)
	RetryEvent(ctx context.Context, rec model.EventRecord) error
}

// EventRetrier periodically re-applies failed payment notifications on a worker pool.
type EventRetrier struct {
	facade    RetryFacade
	interval  time.Duration
	batchSize int
	workers   int
	logger    *slog.Logger

	jobs   chan model.EventRecord
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewEventRetrier constructs the retry worker pool.
func NewEventRetrier(facade RetryFacade, interval time.Duration, batchSize, workers int, logger *slog.Logger) *EventRetrier {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &EventRetrier{
		facade:    facade,
		interval:  interval,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
		jobs:      make(chan model.EventRecord, batchSize*workers),
	}
}

// Start launches background processing.
func (r *EventRetrier) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *EventRetrier) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *EventRetrier) dispatch(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx)
		}
	}
}

func (r *EventRetrier) fetchAndDispatch(ctx context.Context) {
	records, err := r.facade.EventsForRetry(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("fetch payment events for retry failed", slog.String("error", err.Error()))
		return
	}
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return
		case r.jobs <- rec:
		}
	}
}

func (r *EventRetrier) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-r.jobs:
			r.handle(ctx, rec)
		}
	}
}

func (r *EventRetrier) handle(ctx context.Context, rec model.EventRecord) {
	if err := r.facade.RetryEvent(ctx, rec); err != nil {
		r.logger.Warn("payment event retry failed",
			slog.String("event_id", rec.Event.ID),
			slog.Int("attempts", rec.Attempts+1),
			slog.String("error", err.Error()))
		return
	}
	r.logger.Info("payment event retried", slog.String("event_id", rec.Event.ID))
}
