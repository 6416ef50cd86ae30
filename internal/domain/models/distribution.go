package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistributionStatus enumerates the lifecycle states of a distribution record.
type DistributionStatus string

const (
	DistributionScheduled          DistributionStatus = "scheduled"
	DistributionPartiallyConfirmed DistributionStatus = "partially_confirmed"
	DistributionCompleted          DistributionStatus = "completed"
	DistributionRejected           DistributionStatus = "rejected"
)

// IsTerminal reports whether no further transition is defined out of the status.
func (s DistributionStatus) IsTerminal() bool {
	return s == DistributionCompleted || s == DistributionRejected
}

// DistributionRecord tracks materials physically handed to a farmer for one plot cultivation.
type DistributionRecord struct {
	ID                             string             `json:"id"`
	MaterialID                     string             `json:"material_id"`
	PlotCultivationID              string             `json:"plot_cultivation_id"`
	QuantityDistributed            decimal.Decimal    `json:"quantity_distributed"`
	ScheduledDistributionDate      time.Time          `json:"scheduled_distribution_date"`
	DistributionDeadline           time.Time          `json:"distribution_deadline"`
	SupervisorConfirmationDeadline time.Time          `json:"supervisor_confirmation_deadline"`
	FarmerConfirmationDeadline     *time.Time         `json:"farmer_confirmation_deadline,omitempty"`
	SupervisorConfirmedBy          *string            `json:"supervisor_confirmed_by,omitempty"`
	SupervisorConfirmedAt          *time.Time         `json:"supervisor_confirmed_at,omitempty"`
	SupervisorNotes                string             `json:"supervisor_notes,omitempty"`
	ActualDistributionDate         *time.Time         `json:"actual_distribution_date,omitempty"`
	FarmerConfirmedBy              *string            `json:"farmer_confirmed_by,omitempty"`
	FarmerConfirmedAt              *time.Time         `json:"farmer_confirmed_at,omitempty"`
	FarmerNotes                    string             `json:"farmer_notes,omitempty"`
	RejectedBy                     *string            `json:"rejected_by,omitempty"`
	RejectedAt                     *time.Time         `json:"rejected_at,omitempty"`
	RejectionReason                string             `json:"rejection_reason,omitempty"`
	Status                         DistributionStatus `json:"status"`
	ImageURLs                      []string           `json:"image_urls,omitempty"`
	Version                        int64              `json:"version"`
	CreatedAt                      time.Time          `json:"created_at"`
	UpdatedAt                      time.Time          `json:"updated_at"`
}

// Ownership is the plot cultivation -> plot -> group -> supervisor chain of a record.
type Ownership struct {
	PlotCultivationID string `json:"plot_cultivation_id"`
	PlotID            string `json:"plot_id"`
	GroupID           string `json:"group_id"`
	SupervisorID      string `json:"supervisor_id"`
	FarmerID          string `json:"farmer_id,omitempty"`
}

// DistributionAggregate is a record loaded together with its ownership chain.
// Ownership is nil when the chain could not be resolved.
type DistributionAggregate struct {
	Record    DistributionRecord
	Ownership *Ownership
}

// OverdueFlags holds the derived deadline predicates of a record at a given instant.
type OverdueFlags struct {
	Supervisor   bool `json:"is_supervisor_overdue"`
	Farmer       bool `json:"is_farmer_overdue"`
	Distribution bool `json:"is_distribution_overdue"`
	Any          bool `json:"is_overdue"`
}

// DistributionView is a record enriched with its overdue flags as of EvaluatedAt.
type DistributionView struct {
	DistributionRecord
	Overdue     OverdueFlags `json:"overdue"`
	EvaluatedAt time.Time    `json:"evaluated_at"`
}
