package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
	"github.com/mamadbah2/agrosupply/internal/repository"
	"github.com/mamadbah2/agrosupply/internal/service/settings"
	"github.com/mamadbah2/agrosupply/pkg/clock"
)

// WindowSource supplies the farmer confirmation window in days.
type WindowSource interface {
	FarmerConfirmationWindowDays(ctx context.Context) int
}

// ScheduleRequest creates a distribution for a plot cultivation.
type ScheduleRequest struct {
	MaterialID                     string          `json:"material_id" binding:"required"`
	PlotCultivationID              string          `json:"plot_cultivation_id" binding:"required"`
	Quantity                       decimal.Decimal `json:"quantity"`
	ScheduledDistributionDate      time.Time       `json:"scheduled_distribution_date"`
	DistributionDeadline           time.Time       `json:"distribution_deadline"`
	SupervisorConfirmationDeadline time.Time       `json:"supervisor_confirmation_deadline"`
}

// Service runs the distribution confirmation workflow against a repository.
type Service struct {
	repo   repository.DistributionRepository
	window WindowSource
	clock  clock.Clock
	logger *zap.Logger
	newID  func() string
}

// NewService wires a distribution workflow service.
func NewService(repo repository.DistributionRepository, window WindowSource, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		repo:   repo,
		window: window,
		clock:  clk,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Schedule stores a new distribution in the scheduled state.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (models.DistributionView, error) {
	switch {
	case req.MaterialID == "":
		return models.DistributionView{}, fmt.Errorf("%w: material id is required", models.ErrInvalidInput)
	case req.PlotCultivationID == "":
		return models.DistributionView{}, fmt.Errorf("%w: plot cultivation id is required", models.ErrInvalidInput)
	case req.Quantity.Sign() <= 0:
		return models.DistributionView{}, fmt.Errorf("%w: quantity must be positive", models.ErrInvalidInput)
	case req.ScheduledDistributionDate.IsZero(), req.DistributionDeadline.IsZero(), req.SupervisorConfirmationDeadline.IsZero():
		return models.DistributionView{}, fmt.Errorf("%w: schedule date and deadlines are required", models.ErrInvalidInput)
	case req.DistributionDeadline.Before(req.ScheduledDistributionDate):
		return models.DistributionView{}, fmt.Errorf("%w: distribution deadline precedes scheduled date", models.ErrInvalidInput)
	}

	now := s.clock.Now()
	rec := models.DistributionRecord{
		ID:                             s.newID(),
		MaterialID:                     req.MaterialID,
		PlotCultivationID:              req.PlotCultivationID,
		QuantityDistributed:            req.Quantity,
		ScheduledDistributionDate:      req.ScheduledDistributionDate.UTC(),
		DistributionDeadline:           req.DistributionDeadline.UTC(),
		SupervisorConfirmationDeadline: req.SupervisorConfirmationDeadline.UTC(),
		Status:                         models.DistributionScheduled,
		Version:                        1,
		CreatedAt:                      now,
		UpdatedAt:                      now,
	}

	if err := s.repo.CreateDistribution(ctx, rec); err != nil {
		return models.DistributionView{}, models.WrapStorage("create distribution", err)
	}

	s.logger.Info("distribution scheduled",
		zap.String("distribution_id", rec.ID),
		zap.String("material_id", rec.MaterialID),
		zap.String("plot_cultivation_id", rec.PlotCultivationID))
	return View(rec, now), nil
}

// Get returns the record with its overdue flags evaluated now.
func (s *Service) Get(ctx context.Context, id string) (models.DistributionView, error) {
	agg, err := s.repo.GetDistribution(ctx, id)
	if err != nil {
		return models.DistributionView{}, models.WrapStorage("get distribution", err)
	}
	return View(agg.Record, s.clock.Now()), nil
}

// ListOverdue returns pending records with at least one elapsed deadline.
func (s *Service) ListOverdue(ctx context.Context) ([]models.DistributionView, error) {
	pending, err := s.repo.ListPendingDistributions(ctx)
	if err != nil {
		return nil, models.WrapStorage("list pending distributions", err)
	}

	now := s.clock.Now()
	out := make([]models.DistributionView, 0)
	for _, rec := range pending {
		view := View(rec, now)
		if view.Overdue.Any {
			out = append(out, view)
		}
	}
	return out, nil
}

// ListPending returns every non-terminal record with its overdue flags.
func (s *Service) ListPending(ctx context.Context) ([]models.DistributionView, error) {
	pending, err := s.repo.ListPendingDistributions(ctx)
	if err != nil {
		return nil, models.WrapStorage("list pending distributions", err)
	}

	now := s.clock.Now()
	out := make([]models.DistributionView, 0, len(pending))
	for _, rec := range pending {
		out = append(out, View(rec, now))
	}
	return out, nil
}

// ConfirmBySupervisor records the supervisor confirmation. Confirming after the
// distribution deadline is accepted.
func (s *Service) ConfirmBySupervisor(ctx context.Context, in SupervisorConfirmation) (models.DistributionView, error) {
	window := s.windowDays(ctx)

	view, err := s.transition(ctx, in.RecordID, "supervisor confirmation", func(agg models.DistributionAggregate, now time.Time) (models.DistributionRecord, error) {
		return ApplySupervisorConfirmation(agg, in, now, window)
	})
	if err != nil {
		return view, err
	}

	if view.SupervisorConfirmedAt.After(view.DistributionDeadline) {
		s.logger.Warn("late supervisor confirmation",
			zap.String("distribution_id", view.ID),
			zap.String("supervisor_id", in.SupervisorID),
			zap.Time("distribution_deadline", view.DistributionDeadline),
			zap.Time("confirmed_at", *view.SupervisorConfirmedAt))
	}
	return view, nil
}

// ConfirmByFarmer completes a partially confirmed record.
func (s *Service) ConfirmByFarmer(ctx context.Context, in FarmerConfirmation) (models.DistributionView, error) {
	return s.transition(ctx, in.RecordID, "farmer confirmation", func(agg models.DistributionAggregate, now time.Time) (models.DistributionRecord, error) {
		return ApplyFarmerConfirmation(agg, in, now)
	})
}

// Reject cancels a record that is not yet completed.
func (s *Service) Reject(ctx context.Context, in Rejection) (models.DistributionView, error) {
	return s.transition(ctx, in.RecordID, "rejection", func(agg models.DistributionAggregate, now time.Time) (models.DistributionRecord, error) {
		return ApplyRejection(agg, in, now)
	})
}

type applyFunc func(agg models.DistributionAggregate, now time.Time) (models.DistributionRecord, error)

// transition loads the record, applies fn and writes the result back guarded by the
// record version. A concurrent writer makes the update fail with models.ErrConflict.
func (s *Service) transition(ctx context.Context, id, op string, fn applyFunc) (models.DistributionView, error) {
	if id == "" {
		return models.DistributionView{}, fmt.Errorf("%w: distribution id is required", models.ErrInvalidInput)
	}

	agg, err := s.repo.GetDistribution(ctx, id)
	if err != nil {
		return models.DistributionView{}, models.WrapStorage("get distribution", err)
	}

	now := s.clock.Now()
	next, err := fn(agg, now)
	if err != nil {
		s.logger.Warn("distribution transition refused",
			zap.String("op", op), zap.String("distribution_id", id), zap.String("status", string(agg.Record.Status)), zap.Error(err))
		return View(agg.Record, now), err
	}

	expected := agg.Record.Version
	next.Version = expected + 1
	next.UpdatedAt = now

	if err := s.repo.UpdateDistribution(ctx, next, expected); err != nil {
		err = models.WrapStorage("update distribution", err)
		if models.IsStorage(err) {
			s.logger.Error("distribution update failed", zap.String("op", op), zap.String("distribution_id", id), zap.Error(err))
		} else {
			s.logger.Warn("distribution update rejected", zap.String("op", op), zap.String("distribution_id", id), zap.Error(err))
		}
		return View(agg.Record, now), err
	}

	s.logger.Info("distribution transitioned",
		zap.String("op", op),
		zap.String("distribution_id", id),
		zap.String("from", string(agg.Record.Status)),
		zap.String("to", string(next.Status)))
	return View(next, now), nil
}

func (s *Service) windowDays(ctx context.Context) int {
	if s.window == nil {
		return settings.DefaultFarmerConfirmationWindowDays
	}
	return s.window.FarmerConfirmationWindowDays(ctx)
}
