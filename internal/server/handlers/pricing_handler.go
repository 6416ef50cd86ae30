package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
)

// PriceLedger is the part of the pricing ledger exposed over HTTP.
type PriceLedger interface {
	ResolveEffectivePrice(ctx context.Context, materialID string, asOf time.Time) (models.PriceInterval, error)
	CurrentPrice(ctx context.Context, materialID string) (models.PriceInterval, error)
	PriceHistory(ctx context.Context, materialID string) ([]models.PriceInterval, error)
	ApplyPriceChange(ctx context.Context, materialID string, newPrice decimal.Decimal, effectiveFrom time.Time) (models.PriceInterval, error)
}

// PricingHandler serves material price lookups and changes.
type PricingHandler struct {
	ledger PriceLedger
	logger *zap.Logger
}

// NewPricingHandler constructs the HTTP handler adapter.
func NewPricingHandler(ledger PriceLedger, logger *zap.Logger) *PricingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingHandler{ledger: ledger, logger: logger}
}

type priceChangeRequest struct {
	Price         decimal.Decimal `json:"price"`
	EffectiveFrom time.Time       `json:"effective_from"`
}

// EffectivePrice returns the price interval in effect at ?as_of (RFC3339), or now.
func (h *PricingHandler) EffectivePrice(c *gin.Context) {
	materialID := c.Param("id")

	var (
		interval models.PriceInterval
		err      error
	)
	if raw := c.Query("as_of"); raw != "" {
		asOf, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			badRequest(c, h.logger, "as_of must be an RFC3339 timestamp", perr)
			return
		}
		interval, err = h.ledger.ResolveEffectivePrice(c.Request.Context(), materialID, asOf)
	} else {
		interval, err = h.ledger.CurrentPrice(c.Request.Context(), materialID)
	}
	if err != nil {
		writeError(c, h.logger, "resolve price", err)
		return
	}

	c.JSON(http.StatusOK, interval)
}

// History lists every price interval of a material.
func (h *PricingHandler) History(c *gin.Context) {
	intervals, err := h.ledger.PriceHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "price history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material_id": c.Param("id"), "intervals": intervals})
}

// ChangePrice applies a new price from effective_from onwards.
func (h *PricingHandler) ChangePrice(c *gin.Context) {
	var req priceChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}

	interval, err := h.ledger.ApplyPriceChange(c.Request.Context(), c.Param("id"), req.Price, req.EffectiveFrom)
	if err != nil {
		writeError(c, h.logger, "apply price change", err)
		return
	}

	c.JSON(http.StatusCreated, interval)
}
