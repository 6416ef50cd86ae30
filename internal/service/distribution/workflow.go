// Package distribution drives material distribution records through supervisor and
// farmer confirmation and derives their overdue state from stored deadlines.
package distribution

import (
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
)

// SupervisorConfirmation is the supervisor's statement that materials were handed over.
type SupervisorConfirmation struct {
	RecordID     string    `json:"-"`
	SupervisorID string    `json:"supervisor_id"`
	ActualDate   time.Time `json:"actual_distribution_date"`
	Notes        string    `json:"notes"`
	ImageURLs    []string  `json:"image_urls"`
}

// FarmerConfirmation is the farmer's acknowledgement of reception.
type FarmerConfirmation struct {
	RecordID string `json:"-"`
	FarmerID string `json:"farmer_id"`
	Notes    string `json:"notes"`
}

// Rejection cancels a distribution that has not been completed.
type Rejection struct {
	RecordID string `json:"-"`
	ActorID  string `json:"actor_id"`
	Reason   string `json:"reason"`
}

// ApplySupervisorConfirmation moves a scheduled record to partially confirmed.
// The farmer gets windowDays from now to confirm reception.
func ApplySupervisorConfirmation(agg models.DistributionAggregate, in SupervisorConfirmation, now time.Time, windowDays int) (models.DistributionRecord, error) {
	rec := agg.Record
	if rec.Status.IsTerminal() {
		return rec, fmt.Errorf("distribution %s is %s: %w", rec.ID, rec.Status, models.ErrAlreadyFinalized)
	}
	if agg.Ownership == nil || agg.Ownership.SupervisorID == "" || agg.Ownership.SupervisorID != in.SupervisorID {
		return rec, fmt.Errorf("supervisor %q cannot confirm distribution %s: %w", in.SupervisorID, rec.ID, models.ErrUnauthorized)
	}
	if rec.Status != models.DistributionScheduled {
		return rec, fmt.Errorf("supervisor confirmation of %s distribution: %w", rec.Status, models.ErrInvalidTransition)
	}

	actual := in.ActualDate
	if actual.IsZero() {
		actual = now
	}
	actual = actual.UTC()
	farmerDeadline := now.AddDate(0, 0, windowDays)
	supervisor := in.SupervisorID
	confirmedAt := now

	next := rec
	next.SupervisorConfirmedBy = &supervisor
	next.SupervisorConfirmedAt = &confirmedAt
	next.ActualDistributionDate = &actual
	next.SupervisorNotes = in.Notes
	next.ImageURLs = append([]string(nil), in.ImageURLs...)
	next.FarmerConfirmationDeadline = &farmerDeadline
	next.Status = models.DistributionPartiallyConfirmed
	return next, nil
}

// ApplyFarmerConfirmation completes a partially confirmed record.
func ApplyFarmerConfirmation(agg models.DistributionAggregate, in FarmerConfirmation, now time.Time) (models.DistributionRecord, error) {
	rec := agg.Record
	if rec.Status.IsTerminal() {
		return rec, fmt.Errorf("distribution %s is %s: %w", rec.ID, rec.Status, models.ErrAlreadyFinalized)
	}
	if strings.TrimSpace(in.FarmerID) == "" {
		return rec, fmt.Errorf("%w: farmer id is required", models.ErrInvalidInput)
	}
	if agg.Ownership != nil && agg.Ownership.FarmerID != "" && agg.Ownership.FarmerID != in.FarmerID {
		return rec, fmt.Errorf("farmer %q cannot confirm distribution %s: %w", in.FarmerID, rec.ID, models.ErrUnauthorized)
	}
	if rec.Status != models.DistributionPartiallyConfirmed {
		return rec, fmt.Errorf("farmer confirmation of %s distribution: %w", rec.Status, models.ErrInvalidTransition)
	}

	farmer := in.FarmerID
	confirmedAt := now

	next := rec
	next.FarmerConfirmedBy = &farmer
	next.FarmerConfirmedAt = &confirmedAt
	next.FarmerNotes = in.Notes
	next.Status = models.DistributionCompleted
	return next, nil
}

// ApplyRejection marks a scheduled or partially confirmed record as rejected.
func ApplyRejection(agg models.DistributionAggregate, in Rejection, now time.Time) (models.DistributionRecord, error) {
	rec := agg.Record
	if rec.Status.IsTerminal() {
		return rec, fmt.Errorf("distribution %s is %s: %w", rec.ID, rec.Status, models.ErrAlreadyFinalized)
	}
	if strings.TrimSpace(in.ActorID) == "" {
		return rec, fmt.Errorf("%w: actor id is required", models.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Reason) == "" {
		return rec, fmt.Errorf("%w: rejection reason is required", models.ErrInvalidInput)
	}

	actor := in.ActorID
	rejectedAt := now

	next := rec
	next.RejectedBy = &actor
	next.RejectedAt = &rejectedAt
	next.RejectionReason = in.Reason
	next.Status = models.DistributionRejected
	return next, nil
}

// IsSupervisorOverdue is true while the supervisor has not confirmed past the deadline.
func IsSupervisorOverdue(rec models.DistributionRecord, now time.Time) bool {
	return rec.SupervisorConfirmedAt == nil && now.After(rec.SupervisorConfirmationDeadline)
}

// IsFarmerOverdue is true when the farmer window opened by the supervisor has elapsed.
func IsFarmerOverdue(rec models.DistributionRecord, now time.Time) bool {
	return rec.SupervisorConfirmedAt != nil &&
		rec.FarmerConfirmedAt == nil &&
		rec.FarmerConfirmationDeadline != nil &&
		now.After(*rec.FarmerConfirmationDeadline)
}

// IsDistributionOverdue is true when no actual distribution date was recorded in time.
func IsDistributionOverdue(rec models.DistributionRecord, now time.Time) bool {
	return rec.ActualDistributionDate == nil && now.After(rec.DistributionDeadline)
}

// Overdue evaluates every deadline of rec at now.
func Overdue(rec models.DistributionRecord, now time.Time) models.OverdueFlags {
	flags := models.OverdueFlags{
		Supervisor:   IsSupervisorOverdue(rec, now),
		Farmer:       IsFarmerOverdue(rec, now),
		Distribution: IsDistributionOverdue(rec, now),
	}
	flags.Any = flags.Supervisor || flags.Farmer || flags.Distribution
	return flags
}

// View pairs rec with its overdue flags at now.
func View(rec models.DistributionRecord, now time.Time) models.DistributionView {
	return models.DistributionView{
		DistributionRecord: rec,
		Overdue:            Overdue(rec, now),
		EvaluatedAt:        now,
	}
}
