// Package membership exposes the admin back-office endpoints for manual
// tier management.
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

// AssignTierRequest applies a manual tier override. A reason is mandatory:
// every admin action lands in the audit trail with it.
type AssignTierRequest struct {
	Tier   string `json:"tier" binding:"required,oneof=free premium pro"`
	Reason string `json:"reason" binding:"required"`
}

// CancelRequest force-cancels a membership.
type CancelRequest struct {
	Reason    string `json:"reason" binding:"required"`
	Immediate *bool  `json:"immediate"`
}

type Handler struct {
	assignTierUseCase *usecases.AdminAssignTierUseCase
	cancelUseCase     *usecases.CancelSubscriptionUseCase
	reportUseCase     *usecases.GetMembershipReportUseCase
	logger            logger.Interface
}

func NewHandler(
	assignTierUseCase *usecases.AdminAssignTierUseCase,
	cancelUseCase *usecases.CancelSubscriptionUseCase,
	reportUseCase *usecases.GetMembershipReportUseCase,
	log logger.Interface,
) *Handler {
	return &Handler{
		assignTierUseCase: assignTierUseCase,
		cancelUseCase:     cancelUseCase,
		reportUseCase:     reportUseCase,
		logger:            log,
	}
}

// AssignTier handles PUT /admin/users/:user_id/tier.
func (h *Handler) AssignTier(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req AssignTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid tier assignment request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.assignTierUseCase.Execute(c.Request.Context(), usecases.AdminAssignTierCommand{
		UserID: userID,
		Tier:   req.Tier,
		Reason: req.Reason,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "tier assigned", gin.H{
		"sid":    sub.SID(),
		"tier":   sub.Tier().String(),
		"status": sub.Status().String(),
	})
}

// Cancel handles POST /admin/users/:user_id/membership/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid admin cancel request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.cancelUseCase.Execute(c.Request.Context(), usecases.CancelSubscriptionCommand{
		UserID:    userID,
		Reason:    req.Reason,
		Actor:     subscription.ActorAdmin,
		Immediate: req.Immediate,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "membership cancelled", nil)
}

// GetReport handles GET /admin/users/:user_id/membership.
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
