package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"golang.org/x/sync/singleflight"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
)

// Metadata keys attached to sessions and payment intents.
const (
	MetadataEntityID   = "entity_id"
	MetadataEntityType = "type"
)

// Stripe accepts session expiries between 30 minutes and 24 hours after it creates the session.
const (
	minSessionExpiry = 30 * time.Minute
	maxSessionExpiry = 24 * time.Hour
	// expiryMargin absorbs request latency and clock skew at both bounds.
	expiryMargin = time.Minute
)

// Gateway exposes payment processor operations used by checkout and reconciliation.
type Gateway interface {
	CreateSession(ctx context.Context, req model.SessionRequest) (*model.Session, error)
	ParseEvent(payload []byte, signature string) (model.PaymentEvent, error)
	SessionIDForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)
}

type sessionAPI interface {
	New(params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
}

type sessionIter interface {
	Next() bool
	CheckoutSession() *stripeapi.CheckoutSession
	Err() error
}

type sessionLister func(params *stripeapi.CheckoutSessionListParams) sessionIter

// Client implements Gateway on top of stripe-go.
type Client struct {
	sessions      sessionAPI
	list          sessionLister
	webhookSecret string
	tolerance     time.Duration
	logger        *slog.Logger

	// concurrent redeliveries for one payment intent share a single lookup
	lookups singleflight.Group
}

// NewClient creates a Stripe gateway authenticated with secretKey.
func NewClient(secretKey, webhookSecret string, logger *slog.Logger) (*Client, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is empty")
	}
	if webhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is empty")
	}
	sc := client.New(secretKey, nil)
	return &Client{
		sessions: sc.CheckoutSessions,
		list: func(params *stripeapi.CheckoutSessionListParams) sessionIter {
			return sc.CheckoutSessions.List(params)
		},
		webhookSecret: webhookSecret,
		tolerance:     webhook.DefaultTolerance,
		logger:        logger,
	}, nil
}

// CreateSession opens a hosted checkout session for req.
func (c *Client) CreateSession(ctx context.Context, req model.SessionRequest) (*model.Session, error) {
	s, err := c.sessions.New(buildSessionParams(ctx, req, time.Now()))
	if err != nil {
		c.logger.Error("stripe session creation failed",
			slog.String("entity_type", string(req.EntityType)),
			slog.String("entity_id", req.EntityID.String()),
			slog.Any("error", err))
		return nil, fmt.Errorf("create checkout session: %w: %w", domainErrors.ErrPaymentProvider, err)
	}
	if s.URL == "" {
		return nil, fmt.Errorf("create checkout session: %w: empty redirect url", domainErrors.ErrPaymentProvider)
	}
	session := &model.Session{ID: s.ID, URL: s.URL}
	if s.ExpiresAt > 0 {
		session.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	}
	return session, nil
}

// sessionExpiry keeps requested inside the window Stripe accepts relative to now.
func sessionExpiry(requested, now time.Time) time.Time {
	if earliest := now.Add(minSessionExpiry + expiryMargin); requested.Before(earliest) {
		return earliest
	}
	if latest := now.Add(maxSessionExpiry - expiryMargin); requested.After(latest) {
		return latest
	}
	return requested
}

func buildSessionParams(ctx context.Context, req model.SessionRequest, now time.Time) *stripeapi.CheckoutSessionParams {
	metadata := map[string]string{
		MetadataEntityID:   req.EntityID.String(),
		MetadataEntityType: string(req.EntityType),
	}

	params := &stripeapi.CheckoutSessionParams{
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		SuccessURL:         stripeapi.String(req.SuccessURL),
		CancelURL:          stripeapi.String(req.CancelURL),
		ClientReferenceID:  stripeapi.String(req.EntityID.String()),
		PaymentIntentData: &stripeapi.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripeapi.Int64(sessionExpiry(req.ExpiresAt, now).Unix())
	}

	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripeapi.CheckoutSessionLineItemParams{
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency: stripeapi.String(req.Currency),
				ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripeapi.String(item.Name),
				},
				UnitAmount: stripeapi.Int64(item.UnitPriceCents),
			},
			Quantity: stripeapi.Int64(item.Quantity),
		})
	}
	return params
}

// ParseEvent verifies signature over payload and reduces the event to a PaymentEvent.
func (c *Client) ParseEvent(payload []byte, signature string) (model.PaymentEvent, error) {
	if signature == "" {
		return model.PaymentEvent{}, fmt.Errorf("%w: missing signature header", domainErrors.ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                c.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return model.PaymentEvent{}, fmt.Errorf("%w: %v", domainErrors.ErrInvalidSignature, err)
	}
	return mapEvent(event, payload)
}

func mapEvent(event stripeapi.Event, payload []byte) (model.PaymentEvent, error) {
	out := model.PaymentEvent{
		ID:         event.ID,
		Kind:       model.EventIgnored,
		SourceType: string(event.Type),
		Payload:    payload,
	}
	if event.Data == nil {
		return out, nil
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded",
		"checkout.session.expired", "checkout.session.async_payment_failed":
		var s stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return out, fmt.Errorf("decode checkout session: %w", err)
		}
		out.SessionID = s.ID
		if s.PaymentIntent != nil {
			out.PaymentIntentID = s.PaymentIntent.ID
		}
		applyMetadata(&out, s.Metadata)

		switch event.Type {
		case "checkout.session.expired":
			out.Kind = model.EventSessionExpired
		case "checkout.session.async_payment_failed":
			out.Kind = model.EventPaymentFailed
		default:
			out.Kind = model.EventPaymentCompleted
			out.Paid = s.PaymentStatus != stripeapi.CheckoutSessionPaymentStatusUnpaid
		}

	case "payment_intent.payment_failed":
		var pi stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return out, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Kind = model.EventPaymentIntentFailed
		out.PaymentIntentID = pi.ID
		applyMetadata(&out, pi.Metadata)

	case "charge.refunded":
		var ch stripeapi.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return out, fmt.Errorf("decode charge: %w", err)
		}
		out.Kind = model.EventChargeRefunded
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
		applyMetadata(&out, ch.Metadata)
	}
	return out, nil
}

func applyMetadata(e *model.PaymentEvent, md map[string]string) {
	if md == nil {
		return
	}
	e.EntityID = md[MetadataEntityID]
	e.EntityType = model.EntityType(md[MetadataEntityType])
}

// SessionIDForPaymentIntent finds the checkout session that created paymentIntentID.
func (c *Client) SessionIDForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	v, err, _ := c.lookups.Do(paymentIntentID, func() (any, error) {
		return c.lookupSession(ctx, paymentIntentID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) lookupSession(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripeapi.CheckoutSessionListParams{PaymentIntent: stripeapi.String(paymentIntentID)}
	params.Context = ctx
	params.Limit = stripeapi.Int64(1)

	it := c.list(params)
	if it.Next() {
		return it.CheckoutSession().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("lookup session: %w: %w", domainErrors.ErrPaymentProvider, err)
	}
	return "", domainErrors.ErrNotFound
}
