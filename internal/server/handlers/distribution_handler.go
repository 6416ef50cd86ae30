package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
	"github.com/mamadbah2/agrosupply/internal/service/distribution"
)

// DistributionWorkflow is the confirmation workflow exposed over HTTP.
type DistributionWorkflow interface {
	Schedule(ctx context.Context, req distribution.ScheduleRequest) (models.DistributionView, error)
	Get(ctx context.Context, id string) (models.DistributionView, error)
	ListOverdue(ctx context.Context) ([]models.DistributionView, error)
	ConfirmBySupervisor(ctx context.Context, in distribution.SupervisorConfirmation) (models.DistributionView, error)
	ConfirmByFarmer(ctx context.Context, in distribution.FarmerConfirmation) (models.DistributionView, error)
	Reject(ctx context.Context, in distribution.Rejection) (models.DistributionView, error)
}

// OverdueReporter builds an overdue report without persisting it.
type OverdueReporter interface {
	BuildOverdueReport(ctx context.Context) (models.OverdueReport, error)
}

// DistributionHandler serves distribution records and their confirmations.
type DistributionHandler struct {
	workflow DistributionWorkflow
	reporter OverdueReporter
	logger   *zap.Logger
}

// NewDistributionHandler constructs the HTTP handler adapter.
func NewDistributionHandler(workflow DistributionWorkflow, reporter OverdueReporter, logger *zap.Logger) *DistributionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributionHandler{workflow: workflow, reporter: reporter, logger: logger}
}

// Schedule creates a distribution in the scheduled state.
func (h *DistributionHandler) Schedule(c *gin.Context) {
	var req distribution.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}

	view, err := h.workflow.Schedule(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "schedule distribution", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Get returns a record with its overdue flags.
func (h *DistributionHandler) Get(c *gin.Context) {
	view, err := h.workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get distribution", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Overdue lists pending records with at least one elapsed deadline.
func (h *DistributionHandler) Overdue(c *gin.Context) {
	views, err := h.workflow.ListOverdue(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list overdue distributions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "distributions": views})
}

// OverdueReport returns counts of overdue records per missed deadline.
func (h *DistributionHandler) OverdueReport(c *gin.Context) {
	report, err := h.reporter.BuildOverdueReport(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "build overdue report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ConfirmBySupervisor records the supervisor's confirmation.
func (h *DistributionHandler) ConfirmBySupervisor(c *gin.Context) {
	var in distribution.SupervisorConfirmation
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}
	in.RecordID = c.Param("id")

	view, err := h.workflow.ConfirmBySupervisor(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, "supervisor confirmation", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ConfirmByFarmer records the farmer's acknowledgement.
func (h *DistributionHandler) ConfirmByFarmer(c *gin.Context) {
	var in distribution.FarmerConfirmation
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}
	in.RecordID = c.Param("id")

	view, err := h.workflow.ConfirmByFarmer(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, "farmer confirmation", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Reject cancels a record that is not yet finalized.
func (h *DistributionHandler) Reject(c *gin.Context) {
	var in distribution.Rejection
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, h.logger, "invalid request body", err)
		return
	}
	in.RecordID = c.Param("id")

	view, err := h.workflow.Reject(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, "reject distribution", err)
		return
	}
	c.JSON(http.StatusOK, view)
}
