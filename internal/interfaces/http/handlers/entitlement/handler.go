// Package entitlement exposes the entitlement evaluation endpoints.
package entitlement

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guidepress-io/guidepress/internal/application/entitlement/usecases"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
	"github.com/guidepress-io/guidepress/internal/shared/utils"
)

// EvaluateRequest asks for a capability decision, consuming quantity units
// of a metered capability. Quantity 0 peeks without consuming.
type EvaluateRequest struct {
	Capability string `json:"capability" binding:"required"`
	Quantity   *int64 `json:"quantity"`
}

type Handler struct {
	evaluateUseCase  *usecases.EvaluateCapabilityUseCase
	checkTierUseCase *usecases.CheckTierUseCase
	logger           logger.Interface
}

func NewHandler(
	evaluateUseCase *usecases.EvaluateCapabilityUseCase,
	checkTierUseCase *usecases.CheckTierUseCase,
	log logger.Interface,
) *Handler {
	return &Handler{
		evaluateUseCase:  evaluateUseCase,
		checkTierUseCase: checkTierUseCase,
		logger:           log,
	}
}

// Evaluate handles POST /users/:user_id/entitlements/evaluate.
func (h *Handler) Evaluate(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for entitlement evaluation", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	quantity := int64(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	decision, err := h.evaluateUseCase.Execute(c.Request.Context(), usecases.EvaluateCapabilityCommand{
		UserID:     userID,
		Capability: req.Capability,
		Quantity:   quantity,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", decision)
}

// Peek handles GET /users/:user_id/entitlements/:capability. It reports the
// decision without consuming quota.
func (h *Handler) Peek(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	decision, err := h.evaluateUseCase.Execute(c.Request.Context(), usecases.EvaluateCapabilityCommand{
		UserID:     userID,
		Capability: c.Param("capability"),
		Quantity:   0,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", decision)
}

// CheckTier handles GET /users/:user_id/tier/check?min_tier=premium.
func (h *Handler) CheckTier(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	minTier := c.Query("min_tier")
	if minTier == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "min_tier query parameter is required")
		return
	}

	decision, err := h.checkTierUseCase.Execute(c.Request.Context(), usecases.CheckTierQuery{
		UserID:  userID,
		MinTier: minTier,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", decision)
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
