package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/service/costing"
)

// CostEstimator prices material requests.
type CostEstimator interface {
	Estimate(ctx context.Context, req costing.EstimateRequest) (costing.Estimate, error)
}

// CostingHandler serves cost estimates.
type CostingHandler struct {
	estimator CostEstimator
	logger    *zap.Logger
}

// NewCostingHandler constructs the HTTP handler adapter.
func NewCostingHandler(estimator CostEstimator, logger *zap.Logger) *CostingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostingHandler{estimator: estimator, logger: logger}
}

// Estimate costs the requested lines in whole packages.
func (h *CostingHandler) Estimate(c *gin.Context) {
	var req costing.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}

	estimate, err := h.estimator.Estimate(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "estimate cost", err)
		return
	}

	c.JSON(http.StatusOK, estimate)
}
