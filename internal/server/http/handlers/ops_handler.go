package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
	"github.com/polkiloo/parishpay/internal/domain/model"
	"github.com/polkiloo/parishpay/internal/server/http/dto"
)

// OpsHandler lets operators inspect and requeue payment events.
type OpsHandler struct {
	facade OpsFacade
}

// NewOpsHandler constructs OpsHandler.
func NewOpsHandler(facade OpsFacade) *OpsHandler {
	return &OpsHandler{facade: facade}
}

// Events handles GET /api/ops/events.
func (h *OpsHandler) Events(c *gin.Context) {
	status := model.EventStatus(c.DefaultQuery("status", string(model.EventStatusAttention)))

	records, err := h.facade.PaymentEvents(c.Request.Context(), status)
	if err != nil {
		if verr, ok := domainErrors.AsValidation(err); ok {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: verr.Message, Field: verr.Field})
			return
		}
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.PaymentEventResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, dto.PaymentEventResponse{
			ID:              rec.Event.ID,
			Kind:            string(rec.Event.Kind),
			SourceType:      rec.Event.SourceType,
			Status:          string(rec.Status),
			Attempts:        rec.Attempts,
			LastError:       rec.LastError,
			EntityType:      string(rec.Event.EntityType),
			EntityID:        rec.Event.EntityID,
			SessionID:       rec.Event.SessionID,
			PaymentIntentID: rec.Event.PaymentIntentID,
			ReceivedAt:      rec.ReceivedAt,
			UpdatedAt:       rec.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Retry handles POST /api/ops/events/:id/retry.
func (h *OpsHandler) Retry(c *gin.Context) {
	err := h.facade.RequeueEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "no failed event with this id"})
			return
		}
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusAccepted)
}
