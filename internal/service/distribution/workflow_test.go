package distribution

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
)

var base = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func scheduledRecord() models.DistributionRecord {
	return models.DistributionRecord{
		ID:                             "dist-1",
		MaterialID:                     "npk",
		PlotCultivationID:              "pc-1",
		QuantityDistributed:            decimal.NewFromInt(75),
		ScheduledDistributionDate:      base,
		DistributionDeadline:           base.AddDate(0, 0, 5),
		SupervisorConfirmationDeadline: base.AddDate(0, 0, 2),
		Status:                         models.DistributionScheduled,
		Version:                        1,
		CreatedAt:                      base,
		UpdatedAt:                      base,
	}
}

func owned(rec models.DistributionRecord) models.DistributionAggregate {
	return models.DistributionAggregate{
		Record: rec,
		Ownership: &models.Ownership{
			PlotCultivationID: rec.PlotCultivationID,
			PlotID:            "plot-1",
			GroupID:           "group-1",
			SupervisorID:      "sup-1",
			FarmerID:          "farmer-1",
		},
	}
}

func TestApplySupervisorConfirmationSetsOnlyItsFields(t *testing.T) {
	rec := scheduledRecord()
	now := base.AddDate(0, 0, 1)
	actual := base.Add(20 * time.Hour)

	next, err := ApplySupervisorConfirmation(owned(rec), SupervisorConfirmation{
		RecordID:     rec.ID,
		SupervisorID: "sup-1",
		ActualDate:   actual,
		Notes:        "handed over at the cooperative store",
		ImageURLs:    []string{"https://cdn.example.org/d1.jpg"},
	}, now, 3)
	require.NoError(t, err)

	expected := rec
	supervisor := "sup-1"
	farmerDeadline := now.AddDate(0, 0, 3)
	expected.SupervisorConfirmedBy = &supervisor
	expected.SupervisorConfirmedAt = &now
	expected.ActualDistributionDate = &actual
	expected.SupervisorNotes = "handed over at the cooperative store"
	expected.ImageURLs = []string{"https://cdn.example.org/d1.jpg"}
	expected.FarmerConfirmationDeadline = &farmerDeadline
	expected.Status = models.DistributionPartiallyConfirmed

	assert.Equal(t, expected, next)
	assert.Equal(t, models.DistributionScheduled, rec.Status, "input record must not be mutated")
}

func TestApplySupervisorConfirmationDefaultsActualDate(t *testing.T) {
	now := base.Add(time.Hour)

	next, err := ApplySupervisorConfirmation(owned(scheduledRecord()), SupervisorConfirmation{SupervisorID: "sup-1"}, now, 3)
	require.NoError(t, err)
	require.NotNil(t, next.ActualDistributionDate)
	assert.Equal(t, now, *next.ActualDistributionDate)
}

func TestApplySupervisorConfirmationGuards(t *testing.T) {
	completed := scheduledRecord()
	completed.Status = models.DistributionCompleted
	rejected := scheduledRecord()
	rejected.Status = models.DistributionRejected
	partial := scheduledRecord()
	partial.Status = models.DistributionPartiallyConfirmed

	tests := []struct {
		name       string
		agg        models.DistributionAggregate
		supervisor string
		wantErr    error
	}{
		{name: "completed", agg: owned(completed), supervisor: "sup-1", wantErr: models.ErrAlreadyFinalized},
		{name: "rejected", agg: owned(rejected), supervisor: "sup-1", wantErr: models.ErrAlreadyFinalized},
		{name: "wrong supervisor", agg: owned(scheduledRecord()), supervisor: "sup-2", wantErr: models.ErrUnauthorized},
		{name: "no group", agg: models.DistributionAggregate{Record: scheduledRecord()}, supervisor: "sup-1", wantErr: models.ErrUnauthorized},
		{name: "empty supervisor", agg: models.DistributionAggregate{Record: scheduledRecord(), Ownership: &models.Ownership{GroupID: "g"}}, supervisor: "", wantErr: models.ErrUnauthorized},
		{name: "already confirmed", agg: owned(partial), supervisor: "sup-1", wantErr: models.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.agg.Record
			got, err := ApplySupervisorConfirmation(tt.agg, SupervisorConfirmation{SupervisorID: tt.supervisor}, base, 3)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, got)
		})
	}
}

func TestApplyFarmerConfirmation(t *testing.T) {
	now := base.AddDate(0, 0, 1)
	partial, err := ApplySupervisorConfirmation(owned(scheduledRecord()), SupervisorConfirmation{SupervisorID: "sup-1"}, now, 3)
	require.NoError(t, err)

	later := now.Add(6 * time.Hour)
	next, err := ApplyFarmerConfirmation(owned(partial), FarmerConfirmation{FarmerID: "farmer-1", Notes: "received 3 bags"}, later)
	require.NoError(t, err)

	expected := partial
	farmer := "farmer-1"
	expected.FarmerConfirmedBy = &farmer
	expected.FarmerConfirmedAt = &later
	expected.FarmerNotes = "received 3 bags"
	expected.Status = models.DistributionCompleted
	assert.Equal(t, expected, next)

	_, err = ApplyFarmerConfirmation(owned(partial), FarmerConfirmation{FarmerID: "farmer-9"}, later)
	require.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = ApplyFarmerConfirmation(owned(scheduledRecord()), FarmerConfirmation{FarmerID: "farmer-1"}, later)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = ApplyFarmerConfirmation(owned(next), FarmerConfirmation{FarmerID: "farmer-1"}, later)
	require.ErrorIs(t, err, models.ErrAlreadyFinalized)
}

func TestApplyRejection(t *testing.T) {
	now := base.Add(2 * time.Hour)

	for _, status := range []models.DistributionStatus{models.DistributionScheduled, models.DistributionPartiallyConfirmed} {
		t.Run(string(status), func(t *testing.T) {
			rec := scheduledRecord()
			rec.Status = status

			next, err := ApplyRejection(owned(rec), Rejection{ActorID: "sup-1", Reason: "stock damaged"}, now)
			require.NoError(t, err)
			assert.Equal(t, models.DistributionRejected, next.Status)
			assert.Equal(t, "stock damaged", next.RejectionReason)
			require.NotNil(t, next.RejectedBy)
			assert.Equal(t, "sup-1", *next.RejectedBy)
			assert.Equal(t, now, *next.RejectedAt)
		})
	}

	_, err := ApplyRejection(owned(scheduledRecord()), Rejection{ActorID: "sup-1"}, now)
	require.ErrorIs(t, err, models.ErrInvalidInput)

	done := scheduledRecord()
	done.Status = models.DistributionCompleted
	_, err = ApplyRejection(owned(done), Rejection{ActorID: "sup-1", Reason: "late"}, now)
	require.ErrorIs(t, err, models.ErrAlreadyFinalized)
}

func TestOverduePredicates(t *testing.T) {
	rec := scheduledRecord()

	flags := Overdue(rec, base.AddDate(0, 0, 1))
	assert.Equal(t, models.OverdueFlags{}, flags)

	flags = Overdue(rec, base.AddDate(0, 0, 3))
	assert.True(t, flags.Supervisor)
	assert.False(t, flags.Distribution)
	assert.True(t, flags.Any)

	flags = Overdue(rec, base.AddDate(0, 0, 6))
	assert.True(t, flags.Supervisor)
	assert.True(t, flags.Distribution)
	assert.False(t, flags.Farmer)

	// Exactly at the deadline is not yet overdue.
	assert.False(t, IsSupervisorOverdue(rec, rec.SupervisorConfirmationDeadline))
	assert.False(t, IsDistributionOverdue(rec, rec.DistributionDeadline))
}

func TestOverdueIndependenceAfterLateConfirmation(t *testing.T) {
	rec := scheduledRecord()
	late := base.AddDate(0, 0, 4)
	require.True(t, IsSupervisorOverdue(rec, late))

	confirmed, err := ApplySupervisorConfirmation(owned(rec), SupervisorConfirmation{SupervisorID: "sup-1"}, late, 3)
	require.NoError(t, err)

	for _, at := range []time.Time{late, late.AddDate(0, 0, 1), late.AddDate(1, 0, 0)} {
		assert.False(t, IsSupervisorOverdue(confirmed, at))
		assert.False(t, IsDistributionOverdue(confirmed, at))
	}

	assert.False(t, IsFarmerOverdue(confirmed, late.AddDate(0, 0, 3)))
	assert.True(t, IsFarmerOverdue(confirmed, late.AddDate(0, 0, 3).Add(time.Second)))
	assert.True(t, Overdue(confirmed, late.AddDate(0, 0, 4)).Any)

	completed, err := ApplyFarmerConfirmation(owned(confirmed), FarmerConfirmation{FarmerID: "farmer-1"}, late.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, models.OverdueFlags{}, Overdue(completed, late.AddDate(0, 0, 30)))
}

func TestFarmerOverdueNeedsDeadline(t *testing.T) {
	rec := scheduledRecord()
	confirmedAt := base
	rec.SupervisorConfirmedAt = &confirmedAt

	assert.False(t, IsFarmerOverdue(rec, base.AddDate(1, 0, 0)))
}
