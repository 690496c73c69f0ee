package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/polkiloo/parishpay/internal/config"
	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/domain/repository"
)

// PaymentGateway is the payment processor as seen by checkout and reconciliation.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req model.SessionRequest) (*model.Session, error)
	ParseEvent(payload []byte, signature string) (model.PaymentEvent, error)
	SessionIDForPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)
}

// CheckoutResult is returned to the client for redirect.
type CheckoutResult struct {
	RedirectURL string
	EntityType  model.EntityType
	EntityID    uuid.UUID
}

// CheckoutDeps groups CheckoutUseCase collaborators.
type CheckoutDeps struct {
	fx.In

	Orders    repository.OrderRepository
	Donations repository.DonationRepository
	Catalog   repository.CatalogRepository
	Gateway   PaymentGateway
	Config    *config.Config
	Logger    *slog.Logger
}

// CheckoutUseCase turns checkout requests into pending records with an open payment session.
type CheckoutUseCase struct {
	orders    repository.OrderRepository
	donations repository.DonationRepository
	catalog   repository.CatalogRepository
	gateway   PaymentGateway
	validator *RequestValidator
	logger    *slog.Logger

	currency   string
	siteURL    string
	sessionTTL time.Duration
	now        func() time.Time
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(d CheckoutDeps) *CheckoutUseCase {
	return &CheckoutUseCase{
		orders:     d.Orders,
		donations:  d.Donations,
		catalog:    d.Catalog,
		gateway:    d.Gateway,
		validator:  NewRequestValidator(),
		logger:     d.Logger,
		currency:   d.Config.Currency,
		siteURL:    d.Config.SiteURL,
		sessionTTL: d.Config.SessionTTL,
		now:        time.Now,
	}
}

// Initiate dispatches req to the donation or order path.
func (u *CheckoutUseCase) Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	switch {
	case req.Donation != nil:
		return u.InitiateDonation(ctx, *req.Donation)
	case req.Order != nil:
		return u.InitiateOrder(ctx, *req.Order)
	default:
		return nil, domainErrors.Invalid("request", "request must contain a cart or a donation")
	}
}

// InitiateOrder validates req, snapshots prices, persists a pending order and opens its payment session.
func (u *CheckoutUseCase) InitiateOrder(ctx context.Context, req OrderRequest) (*CheckoutResult, error) {
	if err := u.validator.Order(&req); err != nil {
		return nil, err
	}

	dateID, err := u.checkDeliveryDate(ctx, req.Delivery.DateID)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	items, err := u.snapshotCart(ctx, orderID, req.Cart)
	if err != nil {
		return nil, err
	}

	c := req.Customer
	order := &model.Order{
		ID:            orderID,
		Status:        model.OrderStatusNew,
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: model.PaymentMethodCard,
		Customer: model.Customer{
			FirstName: c.FirstName, LastName: c.LastName, Address: c.Address,
			Phone: c.Phone, Email: c.Email, ChurchName: c.ChurchName, SectionName: c.SectionName,
		},
		DeliveryAddress:  req.Delivery.Address,
		DeliveryDateID:   dateID,
		Currency:         u.currency,
		TotalAmountCents: model.SumLineTotals(items),
		Items:            items,
	}
	if err := u.orders.CreateWithItems(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	lines := make([]model.SessionLineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, model.SessionLineItem{
			Name:           displayName(item.ProductEmoji, item.ProductName),
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}

	session, err := u.gateway.CreateSession(ctx, model.SessionRequest{
		EntityType:    model.EntityOrder,
		EntityID:      order.ID,
		Currency:      u.currency,
		Items:         lines,
		CustomerEmail: c.Email,
		SuccessURL:    fmt.Sprintf("%s/checkout/success?session_id={CHECKOUT_SESSION_ID}&order_id=%s", u.siteURL, order.ID),
		CancelURL:     fmt.Sprintf("%s/checkout/cancel?order_id=%s", u.siteURL, order.ID),
		ExpiresAt:     u.now().Add(u.sessionTTL),
	})
	if err != nil {
		if markErr := u.orders.MarkFailed(ctx, order.ID); markErr != nil {
			u.logger.Error("mark order failed after session error",
				slog.String("order_id", order.ID.String()), slog.String("error", markErr.Error()))
		}
		return nil, err
	}

	if err := u.orders.SetSessionID(ctx, order.ID, session.ID); err != nil {
		// the customer never receives the redirect, so the session is abandoned with the order
		u.logger.Error("store order session",
			slog.String("order_id", order.ID.String()),
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()))
		if markErr := u.orders.MarkFailed(ctx, order.ID); markErr != nil {
			u.logger.Error("mark order failed after session store error",
				slog.String("order_id", order.ID.String()), slog.String("error", markErr.Error()))
		}
		return nil, fmt.Errorf("store order session: %w", err)
	}

	u.logger.Info("order checkout started",
		slog.String("order_id", order.ID.String()),
		slog.Int64("total_amount_cents", order.TotalAmountCents),
		slog.Int("items", len(items)))
	return &CheckoutResult{RedirectURL: session.URL, EntityType: model.EntityOrder, EntityID: order.ID}, nil
}

func (u *CheckoutUseCase) checkDeliveryDate(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domainErrors.Invalid("delivery.dateId", "delivery date not found")
	}
	date, err := u.catalog.GetDeliveryDate(ctx, id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return uuid.Nil, domainErrors.Invalid("delivery.dateId", "delivery date not found")
		}
		return uuid.Nil, fmt.Errorf("load delivery date: %w", err)
	}
	if !date.Active {
		return uuid.Nil, domainErrors.Invalid("delivery.dateId", "delivery date is no longer available")
	}
	return id, nil
}

// snapshotCart checks every line against the live product row and copies its price.
// Stock is only read here; the authoritative decrement happens at confirmation.
func (u *CheckoutUseCase) snapshotCart(ctx context.Context, orderID uuid.UUID, cart []CartLine) ([]model.OrderItem, error) {
	requested := make(map[uuid.UUID]int64, len(cart))
	items := make([]model.OrderItem, 0, len(cart))

	for i, line := range cart {
		field := fmt.Sprintf("cart[%d]", i)

		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, domainErrors.Invalid(field, "product %q not found", line.ProductID)
		}
		product, err := u.catalog.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return nil, domainErrors.Invalid(field, "product %q not found", line.ProductID)
			}
			return nil, fmt.Errorf("load product %s: %w", productID, err)
		}
		if !product.Active {
			return nil, domainErrors.Invalid(field, "product %q is no longer available", product.Name)
		}

		requested[productID] += line.Quantity
		if product.StockQty < requested[productID] {
			return nil, domainErrors.Invalid(field, "only %d of %q left in stock", product.StockQty, product.Name)
		}
		if line.Quantity <= 0 {
			return nil, domainErrors.Invalid(field, "quantity of %q must be positive", product.Name)
		}

		items = append(items, model.NewOrderItem(orderID, *product, line.Quantity))
	}
	return items, nil
}

// InitiateDonation validates req, persists a pending donation and opens its payment session.
func (u *CheckoutUseCase) InitiateDonation(ctx context.Context, req DonationRequest) (*CheckoutResult, error) {
	if err := u.validator.Donation(&req); err != nil {
		return nil, err
	}

	donation := &model.Donation{
		ID:            uuid.New(),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		ChurchName:    req.ChurchName,
		SectionName:   req.SectionName,
		Message:       req.Message,
		AmountCents:   req.AmountCents,
		Currency:      u.currency,
		PaymentStatus: model.PaymentStatusPending,
	}
	if err := u.donations.Create(ctx, donation); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}

	session, err := u.gateway.CreateSession(ctx, model.SessionRequest{
		EntityType:    model.EntityDonation,
		EntityID:      donation.ID,
		Currency:      u.currency,
		Items:         []model.SessionLineItem{{Name: "Donation", UnitPriceCents: donation.AmountCents, Quantity: 1}},
		CustomerEmail: donation.Email,
		SuccessURL:    fmt.Sprintf("%s/donate/success?session_id={CHECKOUT_SESSION_ID}&donation_id=%s", u.siteURL, donation.ID),
		CancelURL:     fmt.Sprintf("%s/donate/cancel?donation_id=%s", u.siteURL, donation.ID),
	})
	if err != nil {
		// no child rows, so the pending donation can simply be removed
		if delErr := u.donations.Delete(ctx, donation.ID); delErr != nil {
			u.logger.Error("delete donation after session error",
				slog.String("donation_id", donation.ID.String()), slog.String("error", delErr.Error()))
		}
		return nil, err
	}

	if err := u.donations.SetSessionID(ctx, donation.ID, session.ID); err != nil {
		u.logger.Error("store donation session",
			slog.String("donation_id", donation.ID.String()),
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()))
		if delErr := u.donations.Delete(ctx, donation.ID); delErr != nil {
			u.logger.Error("delete donation after session store error",
				slog.String("donation_id", donation.ID.String()), slog.String("error", delErr.Error()))
		}
		return nil, fmt.Errorf("store donation session: %w", err)
	}

	u.logger.Info("donation checkout started",
		slog.String("donation_id", donation.ID.String()),
		slog.Int64("amount_cents", donation.AmountCents))
	return &CheckoutResult{RedirectURL: session.URL, EntityType: model.EntityDonation, EntityID: donation.ID}, nil
}

func displayName(emoji, name string) string {
	if emoji == "" {
		return name
	}
	return emoji + " " + name
}
