package costing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
	"github.com/mamadbah2/agrosupply/internal/repository"
	"github.com/mamadbah2/agrosupply/pkg/clock"
)

// PriceResolver resolves the effective price of a material at an instant.
type PriceResolver interface {
	ResolveEffectivePrice(ctx context.Context, materialID string, asOf time.Time) (models.PriceInterval, error)
}

// EstimateLine requests Quantity of a material for one task or plot.
type EstimateLine struct {
	Reference  string          `json:"reference"`
	MaterialID string          `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// EstimateRequest prices a set of lines at EvaluationDate (now when nil).
type EstimateRequest struct {
	EvaluationDate *time.Time      `json:"evaluation_date,omitempty"`
	AreaHectares   decimal.Decimal `json:"area_ha"`
	Lines          []EstimateLine  `json:"lines"`
}

// Estimate is the priced result of an EstimateRequest.
type Estimate struct {
	EvaluatedAt time.Time                       `json:"evaluated_at"`
	Summary     Summary                         `json:"summary"`
	PerHectare  decimal.Decimal                 `json:"cost_per_hectare"`
	Prices      map[string]models.PriceInterval `json:"prices"`
}

// Service prices material requests against the price ledger.
type Service struct {
	materials repository.MaterialRepository
	prices    PriceResolver
	clock     clock.Clock
	logger    *zap.Logger
}

// NewService wires a costing service.
func NewService(materials repository.MaterialRepository, prices PriceResolver, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{materials: materials, prices: prices, clock: clk, logger: logger}
}

// Estimate resolves each material's package size and effective price, then costs
// every line separately before summing.
func (s *Service) Estimate(ctx context.Context, req EstimateRequest) (Estimate, error) {
	if len(req.Lines) == 0 {
		return Estimate{}, fmt.Errorf("%w: at least one line is required", models.ErrInvalidInput)
	}

	asOf := s.clock.Now()
	if req.EvaluationDate != nil && !req.EvaluationDate.IsZero() {
		asOf = req.EvaluationDate.UTC()
	}

	type resolved struct {
		material models.Material
		price    models.PriceInterval
	}
	cache := make(map[string]resolved)
	lines := make([]Line, 0, len(req.Lines))

	for i, in := range req.Lines {
		if in.MaterialID == "" {
			return Estimate{}, fmt.Errorf("%w: line %d has no material", models.ErrInvalidInput, i)
		}
		if in.Quantity.IsNegative() {
			return Estimate{}, fmt.Errorf("%w: line %d has a negative quantity", models.ErrInvalidInput, i)
		}

		r, ok := cache[in.MaterialID]
		if !ok {
			material, err := s.materials.GetMaterial(ctx, in.MaterialID)
			if err != nil {
				return Estimate{}, models.WrapStorage("get material", err)
			}
			price, err := s.prices.ResolveEffectivePrice(ctx, in.MaterialID, asOf)
			if err != nil {
				s.logger.Warn("material has no effective price",
					zap.String("material_id", in.MaterialID), zap.Time("as_of", asOf), zap.Error(err))
				return Estimate{}, fmt.Errorf("price material %s: %w", in.MaterialID, err)
			}
			if material.AmountPerPackage.Sign() <= 0 {
				s.logger.Debug("material without package amount billed per unit", zap.String("material_id", in.MaterialID))
			}
			r = resolved{material: material, price: price}
			cache[in.MaterialID] = r
		}

		lines = append(lines, Line{
			Reference:        in.Reference,
			MaterialID:       in.MaterialID,
			Quantity:         in.Quantity,
			AmountPerPackage: r.material.AmountPerPackage,
			PricePerPackage:  r.price.PricePerPackage,
		})
	}

	summary := Aggregate(lines)
	prices := make(map[string]models.PriceInterval, len(cache))
	for id, r := range cache {
		prices[id] = r.price
	}

	s.logger.Debug("estimate computed",
		zap.Int("lines", len(lines)), zap.String("total_cost", summary.TotalCost.String()), zap.Time("as_of", asOf))

	return Estimate{
		EvaluatedAt: asOf,
		Summary:     summary,
		PerHectare:  summary.PerHectare(req.AreaHectares),
		Prices:      prices,
	}, nil
}
