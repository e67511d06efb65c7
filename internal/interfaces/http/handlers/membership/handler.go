// Package membership exposes the user-facing membership endpoints:
// checkout, cancellation, and the membership report.
package membership

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guidepress-io/guidepress/internal/application/subscription/usecases"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
	"github.com/guidepress-io/guidepress/internal/shared/utils"
)

// CheckoutRequest opens a payment session for a paid tier.
type CheckoutRequest struct {
	Tier             string `json:"tier" binding:"required,oneof=premium pro"`
	PaymentReference string `json:"payment_reference" binding:"required"`
}

// CancelRequest ends the membership.
type CancelRequest struct {
	Reason    string `json:"reason" binding:"required"`
	Immediate *bool  `json:"immediate"`
}

type Handler struct {
	checkoutUseCase *usecases.InitiateCheckoutUseCase
	cancelUseCase   *usecases.CancelSubscriptionUseCase
	reportUseCase   *usecases.GetMembershipReportUseCase
	logger          logger.Interface
}

func NewHandler(
	checkoutUseCase *usecases.InitiateCheckoutUseCase,
	cancelUseCase *usecases.CancelSubscriptionUseCase,
	reportUseCase *usecases.GetMembershipReportUseCase,
	log logger.Interface,
) *Handler {
	return &Handler{
		checkoutUseCase: checkoutUseCase,
		cancelUseCase:   cancelUseCase,
		reportUseCase:   reportUseCase,
		logger:          log,
	}
}

// InitiateCheckout handles POST /users/:user_id/membership/checkout.
func (h *Handler) InitiateCheckout(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid checkout request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.checkoutUseCase.Execute(c.Request.Context(), usecases.InitiateCheckoutCommand{
		UserID:           userID,
		Tier:             req.Tier,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "checkout initiated", gin.H{
		"sid":    sub.SID(),
		"status": sub.Status().String(),
		"tier":   sub.PendingTier().String(),
	})
}

// Cancel handles POST /users/:user_id/membership/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid cancel request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.cancelUseCase.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		UserID:    userID,
		Reason:    req.Reason,
		Actor:     subscription.ActorUser,
		Immediate: req.Immediate,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "membership cancellation processed", nil)
}

// GetReport handles GET /users/:user_id/membership.
func (h *Handler) GetReport(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	report, err := h.reportUseCase.Execute(c.Request.Context(), usecases.GetMembershipReportQuery{
		UserID: userID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", report)
}

func parseUserID(c *gin.Context) (uint, bool) {
	raw := c.Param("user_id")
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || userID == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return uint(userID), true
}
