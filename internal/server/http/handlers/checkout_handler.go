package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/server/http/dto"
)

// CheckoutHandler serves the checkout endpoint.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Checkout handles POST /api/checkout.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	result, err := h.facade.Checkout(c.Request.Context(), req.ToUseCase())
	if err != nil {
		if verr, ok := domainErrors.AsValidation(err); ok {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: verr.Message, Field: verr.Field})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "checkout could not be started, please try again"})
		return
	}

	resp := dto.CheckoutResponse{URL: result.RedirectURL}
	switch result.EntityType {
	case model.EntityDonation:
		resp.DonationID = result.EntityID.String()
	default:
		resp.OrderID = result.EntityID.String()
	}
	c.JSON(http.StatusOK, resp)
}

// MethodNotAllowed answers non-POST checkout requests.
func (h *CheckoutHandler) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "method not allowed"})
}
