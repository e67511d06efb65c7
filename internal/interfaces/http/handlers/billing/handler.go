// Package billing receives the payment provider's webhook events.
package billing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guidepress-io/guidepress/internal/application/subscription/usecases"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
	"github.com/guidepress-io/guidepress/internal/shared/utils"
)

// WebhookRequest is the payment provider's event payload. Delivery is
// at-least-once; replays are acknowledged without reapplying.
type WebhookRequest struct {
	Type             string     `json:"type" binding:"required"`
	PaymentReference string     `json:"payment_reference" binding:"required"`
	UserID           uint       `json:"user_id" binding:"required"`
	Tier             string     `json:"tier"`
	PeriodEnd        *time.Time `json:"period_end"`
	OccurredAt       *time.Time `json:"occurred_at"`
}

type Handler struct {
	applyEventUseCase *usecases.ApplyPaymentEventUseCase
	logger            logger.Interface
}

func NewHandler(applyEventUseCase *usecases.ApplyPaymentEventUseCase, log logger.Interface) *Handler {
	return &Handler{
		applyEventUseCase: applyEventUseCase,
		logger:            log,
	}
}

// HandleEvent handles POST /billing/events.
func (h *Handler) HandleEvent(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid payment event payload", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid event payload")
		return
	}

	event := subscription.PaymentEvent{
		Type:             subscription.PaymentEventType(req.Type),
		PaymentReference: req.PaymentReference,
		UserID:           req.UserID,
		Tier:             catalog.Tier(req.Tier),
	}
	if req.PeriodEnd != nil {
		event.PeriodEnd = req.PeriodEnd.UTC()
	}
	if req.OccurredAt != nil {
		event.OccurredAt = req.OccurredAt.UTC()
	} else {
		event.OccurredAt = time.Now().UTC()
	}

	if err := h.applyEventUseCase.Execute(c.Request.Context(), event); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "event processed", nil)
}
