package reporting

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
	"github.com/mamadbah2/agrosupply/internal/repository"
	"github.com/mamadbah2/agrosupply/pkg/clock"
)

const timeLayout = "2006-01-02 15:04"

// PendingLister lists non-terminal distributions with their overdue flags evaluated now.
type PendingLister interface {
	ListPending(ctx context.Context) ([]models.DistributionView, error)
}

// Service builds overdue summaries over pending distributions. It never mutates records.
type Service struct {
	pending PendingLister
	reports repository.ReportRepository
	clock   clock.Clock
	logger  *zap.Logger
}

// NewService wires a new reporting service instance. reports may be nil, in
// which case sweeps are only logged.
func NewService(pending PendingLister, reports repository.ReportRepository, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{pending: pending, reports: reports, clock: clk, logger: logger}
}

// BuildOverdueReport groups pending distributions by the deadlines they missed.
func (s *Service) BuildOverdueReport(ctx context.Context) (models.OverdueReport, error) {
	views, err := s.pending.ListPending(ctx)
	if err != nil {
		return models.OverdueReport{}, fmt.Errorf("load pending distributions: %w", err)
	}

	report := models.OverdueReport{
		GeneratedAt:            s.clock.Now(),
		PendingCount:           len(views),
		SupervisorOverdueIDs:   []string{},
		FarmerOverdueIDs:       []string{},
		DistributionOverdueIDs: []string{},
	}

	for _, v := range views {
		if v.Overdue.Supervisor {
			report.SupervisorOverdueIDs = append(report.SupervisorOverdueIDs, v.ID)
		}
		if v.Overdue.Farmer {
			report.FarmerOverdueIDs = append(report.FarmerOverdueIDs, v.ID)
		}
		if v.Overdue.Distribution {
			report.DistributionOverdueIDs = append(report.DistributionOverdueIDs, v.ID)
		}
		if v.Overdue.Any {
			report.OverdueCount++
		}
	}

	return report, nil
}

// RunOverdueSweep builds the report, persists it and logs its summary.
func (s *Service) RunOverdueSweep(ctx context.Context) (models.OverdueReport, error) {
	report, err := s.BuildOverdueReport(ctx)
	if err != nil {
		return models.OverdueReport{}, err
	}

	if s.reports != nil {
		if err := s.reports.SaveOverdueReport(ctx, report); err != nil {
			return report, models.WrapStorage("save overdue report", err)
		}
	}

	fields := []zap.Field{
		zap.Int("pending", report.PendingCount),
		zap.Int("overdue", report.OverdueCount),
		zap.Int("supervisor_overdue", len(report.SupervisorOverdueIDs)),
		zap.Int("farmer_overdue", len(report.FarmerOverdueIDs)),
		zap.Int("distribution_overdue", len(report.DistributionOverdueIDs)),
	}
	if report.OverdueCount > 0 {
		s.logger.Warn(Summary(report), fields...)
	} else {
		s.logger.Info(Summary(report), fields...)
	}

	return report, nil
}

// Summary renders a one-line human readable description of the report.
func Summary(report models.OverdueReport) string {
	if report.PendingCount == 0 {
		return fmt.Sprintf("Distributions (%s): nothing pending.", report.GeneratedAt.Format(timeLayout))
	}
	if report.OverdueCount == 0 {
		return fmt.Sprintf("Distributions (%s): %d pending, none overdue.", report.GeneratedAt.Format(timeLayout), report.PendingCount)
	}

	var parts []string
	if n := len(report.SupervisorOverdueIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d awaiting supervisor", n))
	}
	if n := len(report.FarmerOverdueIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d awaiting farmer", n))
	}
	if n := len(report.DistributionOverdueIDs); n > 0 {
		parts = append(parts, fmt.Sprintf("%d past distribution deadline", n))
	}

	return fmt.Sprintf("Distributions (%s): %d pending, %d overdue (%s).",
		report.GeneratedAt.Format(timeLayout), report.PendingCount, report.OverdueCount, strings.Join(parts, ", "))
}
