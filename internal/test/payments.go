package test

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
)

// GatewayStub records session requests and returns canned processor responses.
type GatewayStub struct {
	mu sync.Mutex

	Requests  []model.SessionRequest
	CreateErr error

	Event    model.PaymentEvent
	ParseErr error
	// ValidSignature, when set, is the only signature ParseEvent accepts.
	ValidSignature string

	SessionsByIntent map[string]string
	LookupErr        error
	Lookups          int
}

// CreateSession records req and returns a session keyed by call count.
func (g *GatewayStub) CreateSession(_ context.Context, req model.SessionRequest) (*model.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	id := fmt.Sprintf("cs_test_%d", len(g.Requests))
	return &model.Session{ID: id, URL: "https://checkout.test/" + id, ExpiresAt: req.ExpiresAt}, nil
}

// ParseEvent returns the configured event when signature is acceptable.
func (g *GatewayStub) ParseEvent(payload []byte, signature string) (model.PaymentEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ParseErr != nil {
		return model.PaymentEvent{}, g.ParseErr
	}
	if signature == "" || (g.ValidSignature != "" && signature != g.ValidSignature) {
		return model.PaymentEvent{}, domainErrors.ErrInvalidSignature
	}
	ev := g.Event
	ev.Payload = payload
	return ev, nil
}

// SessionIDForPaymentIntent resolves sessions from SessionsByIntent.
func (g *GatewayStub) SessionIDForPaymentIntent(_ context.Context, paymentIntentID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Lookups++
	if g.LookupErr != nil {
		return "", g.LookupErr
	}
	if id, ok := g.SessionsByIntent[paymentIntentID]; ok {
		return id, nil
	}
	return "", domainErrors.ErrNotFound
}

// LastRequest returns the most recent session request.
func (g *GatewayStub) LastRequest() (model.SessionRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Requests) == 0 {
		return model.SessionRequest{}, false
	}
	return g.Requests[len(g.Requests)-1], true
}

// FixedClock returns a clock function frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
