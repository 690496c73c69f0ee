package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/server/http/dto"
)

const deliveryDateLayout = "2006-01-02"

// CatalogHandler serves products, delivery dates and order status.
type CatalogHandler struct {
	facade CatalogFacade
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(facade CatalogFacade) *CatalogHandler {
	return &CatalogHandler{facade: facade}
}

// Products handles GET /api/products.
func (h *CatalogHandler) Products(c *gin.Context) {
	products, err := h.facade.Products(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "products unavailable"})
		return
	}

	resp := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, dto.ProductResponse{
			ID:             p.ID.String(),
			Name:           p.Name,
			Emoji:          p.Emoji,
			UnitPriceCents: p.UnitPriceCents,
			StockQty:       p.StockQty,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// DeliveryDates handles GET /api/delivery-dates.
func (h *CatalogHandler) DeliveryDates(c *gin.Context) {
	dates, err := h.facade.DeliveryDates(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "delivery dates unavailable"})
		return
	}

	resp := make([]dto.DeliveryDateResponse, 0, len(dates))
	for _, d := range dates {
		resp = append(resp, dto.DeliveryDateResponse{ID: d.ID.String(), Date: d.Date.Format(deliveryDateLayout), Label: d.Label})
	}
	c.JSON(http.StatusOK, resp)
}

// OrderStatus handles GET /api/orders/:id.
func (h *CatalogHandler) OrderStatus(c *gin.Context) {
	order, err := h.facade.OrderStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "order not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "order status unavailable"})
		return
	}
	c.JSON(http.StatusOK, toOrderStatusResponse(order))
}

func toOrderStatusResponse(order *model.Order) dto.OrderStatusResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ProductName:    it.ProductName,
			ProductEmoji:   it.ProductEmoji,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			LineTotalCents: it.LineTotalCents,
		})
	}
	return dto.OrderStatusResponse{
		ID:               order.ID.String(),
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		Currency:         order.Currency,
		TotalAmountCents: order.TotalAmountCents,
		Items:            items,
		CreatedAt:        order.CreatedAt,
	}
}
