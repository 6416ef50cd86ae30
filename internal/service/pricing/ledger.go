// Package pricing maintains the temporally versioned price history of materials.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
	"github.com/mamadbah2/agrosupply/internal/repository"
	"github.com/mamadbah2/agrosupply/pkg/clock"
)

// Repository is the storage surface the ledger needs.
type Repository interface {
	repository.MaterialRepository
	repository.PriceRepository
}

// Ledger resolves effective prices and records price changes.
type Ledger struct {
	repo   Repository
	clock  clock.Clock
	logger *zap.Logger
	newID  func() string
}

// NewLedger wires a price ledger.
func NewLedger(repo Repository, clk clock.Clock, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Ledger{
		repo:   repo,
		clock:  clk,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// ResolveEffectivePrice returns the interval whose [ValidFrom, ValidTo) contains asOf.
func (l *Ledger) ResolveEffectivePrice(ctx context.Context, materialID string, asOf time.Time) (models.PriceInterval, error) {
	if _, err := l.repo.GetMaterial(ctx, materialID); err != nil {
		return models.PriceInterval{}, models.WrapStorage("get material", err)
	}

	intervals, err := l.repo.ListIntervals(ctx, materialID)
	if err != nil {
		return models.PriceInterval{}, models.WrapStorage("list price intervals", err)
	}

	interval, ok := Resolve(intervals, asOf)
	if !ok {
		l.logger.Debug("no effective price", zap.String("material_id", materialID), zap.Time("as_of", asOf))
		return models.PriceInterval{}, models.ErrPriceNotFound
	}
	return interval, nil
}

// CurrentPrice resolves the effective price as of the ledger clock.
func (l *Ledger) CurrentPrice(ctx context.Context, materialID string) (models.PriceInterval, error) {
	return l.ResolveEffectivePrice(ctx, materialID, l.clock.Now())
}

// PriceHistory returns the full audit history of a material ordered by ValidFrom.
func (l *Ledger) PriceHistory(ctx context.Context, materialID string) ([]models.PriceInterval, error) {
	if _, err := l.repo.GetMaterial(ctx, materialID); err != nil {
		return nil, models.WrapStorage("get material", err)
	}

	intervals, err := l.repo.ListIntervals(ctx, materialID)
	if err != nil {
		return nil, models.WrapStorage("list price intervals", err)
	}
	return intervals, nil
}

// ApplyPriceChange makes newPrice effective from effectiveFrom onwards. Re-applying
// the price already in effect at effectiveFrom is a no-op.
func (l *Ledger) ApplyPriceChange(ctx context.Context, materialID string, newPrice decimal.Decimal, effectiveFrom time.Time) (models.PriceInterval, error) {
	if newPrice.Sign() <= 0 {
		return models.PriceInterval{}, models.ErrInvalidPrice
	}
	if effectiveFrom.IsZero() {
		return models.PriceInterval{}, fmt.Errorf("%w: effective date is required", models.ErrInvalidInput)
	}
	effectiveFrom = effectiveFrom.UTC()

	if _, err := l.repo.GetMaterial(ctx, materialID); err != nil {
		return models.PriceInterval{}, models.WrapStorage("get material", err)
	}

	intervals, err := l.repo.ListIntervals(ctx, materialID)
	if err != nil {
		return models.PriceInterval{}, models.WrapStorage("list price intervals", err)
	}

	if current, ok := Resolve(intervals, effectiveFrom); ok && current.PricePerPackage.Equal(newPrice) {
		l.logger.Debug("price unchanged, skipping new interval",
			zap.String("material_id", materialID), zap.String("price", newPrice.String()))
		return current, nil
	}

	next := models.PriceInterval{
		ID:              l.newID(),
		MaterialID:      materialID,
		PricePerPackage: newPrice,
		ValidFrom:       effectiveFrom,
		CreatedAt:       l.clock.Now(),
	}

	open, hasOpen := openInterval(intervals)
	if !hasOpen {
		if err := l.repo.AppendInterval(ctx, next); err != nil {
			return models.PriceInterval{}, models.WrapStorage("append price interval", err)
		}
		l.logger.Info("initial price recorded",
			zap.String("material_id", materialID), zap.String("price", newPrice.String()), zap.Time("valid_from", effectiveFrom))
		return next, nil
	}

	if !effectiveFrom.After(open.ValidFrom) {
		return models.PriceInterval{}, fmt.Errorf("%w: price change at %s must be after current price start %s",
			models.ErrInvalidInput, effectiveFrom.Format(time.RFC3339), open.ValidFrom.Format(time.RFC3339))
	}

	if err := l.repo.ReplaceOpenInterval(ctx, materialID, open.ID, effectiveFrom, next); err != nil {
		return models.PriceInterval{}, models.WrapStorage("replace open price interval", err)
	}

	l.logger.Info("price changed",
		zap.String("material_id", materialID),
		zap.String("previous_price", open.PricePerPackage.String()),
		zap.String("price", newPrice.String()),
		zap.Time("valid_from", effectiveFrom))
	return next, nil
}

// Resolve picks the interval covering asOf. When several cover it, the latest ValidFrom wins.
func Resolve(intervals []models.PriceInterval, asOf time.Time) (models.PriceInterval, bool) {
	var (
		best  models.PriceInterval
		found bool
	)
	for _, p := range intervals {
		if !p.Covers(asOf) {
			continue
		}
		if !found || p.ValidFrom.After(best.ValidFrom) {
			best = p
			found = true
		}
	}
	return best, found
}

func openInterval(intervals []models.PriceInterval) (models.PriceInterval, bool) {
	var (
		open  models.PriceInterval
		found bool
	)
	for _, p := range intervals {
		if !p.IsOpen() {
			continue
		}
		if !found || p.ValidFrom.After(open.ValidFrom) {
			open = p
			found = true
		}
	}
	return open, found
}
