package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/agrosupply/internal/domain/models"
)

func TestOwnershipRowWithoutGroup(t *testing.T) {
	assert.Nil(t, ownershipRow{PlotCultivationID: "pc-1", PlotID: "plot-1"}.toModel())

	got := ownershipRow{PlotCultivationID: "pc-1", PlotID: "plot-1", GroupID: "g-1", SupervisorID: "sup-1", FarmerID: "f-1"}.toModel()
	require.NotNil(t, got)
	assert.Equal(t, "sup-1", got.SupervisorID)
	assert.Equal(t, "f-1", got.FarmerID)
}

func TestDistributionRowKeepsWorkflowFields(t *testing.T) {
	at := time.Date(2025, 5, 2, 9, 0, 0, 0, time.FixedZone("GMT+1", 3600))
	sup := "sup-1"
	rec := models.DistributionRecord{
		ID:                    "dist-1",
		QuantityDistributed:   decimal.RequireFromString("12.5"),
		SupervisorConfirmedBy: &sup,
		SupervisorConfirmedAt: &at,
		Status:                models.DistributionPartiallyConfirmed,
		ImageURLs:             []string{"a.jpg"},
		Version:               2,
	}

	got := newDistributionRow(rec).toModel()
	assert.Equal(t, at.UTC(), *got.SupervisorConfirmedAt)
	assert.Equal(t, time.UTC, got.SupervisorConfirmedAt.Location())
	assert.True(t, got.QuantityDistributed.Equal(rec.QuantityDistributed))
	assert.Equal(t, models.DistributionPartiallyConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

// openTestRepository connects to POSTGRES_TEST_DSN; the test is skipped when it is unset.
func openTestRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewRepository(ctx, dsn, true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo
}

func TestPriceIntervalsIntegration(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	materialID := "mat-" + uuid.NewString()

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	first := models.PriceInterval{ID: uuid.NewString(), MaterialID: materialID, PricePerPackage: decimal.NewFromInt(10), ValidFrom: jan, CreatedAt: jan}
	require.NoError(t, repo.AppendInterval(ctx, first))

	dup := first
	dup.ID = uuid.NewString()
	require.ErrorIs(t, repo.AppendInterval(ctx, dup), models.ErrConflict)

	next := models.PriceInterval{ID: uuid.NewString(), MaterialID: materialID, PricePerPackage: decimal.NewFromInt(12), ValidFrom: mar, CreatedAt: mar}
	require.NoError(t, repo.ReplaceOpenInterval(ctx, materialID, first.ID, mar, next))

	stale := next
	stale.ID = uuid.NewString()
	require.ErrorIs(t, repo.ReplaceOpenInterval(ctx, materialID, first.ID, mar, stale), models.ErrConflict)

	intervals, err := repo.ListIntervals(ctx, materialID)
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	require.NotNil(t, intervals[0].ValidTo)
	assert.Equal(t, mar, *intervals[0].ValidTo)
	assert.True(t, intervals[1].IsOpen())
	assert.True(t, intervals[1].PricePerPackage.Equal(decimal.NewFromInt(12)))
}

func TestDistributionVersioningIntegration(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	suffix := uuid.NewString()
	require.NoError(t, repo.db.Create(&groupRow{ID: "g-" + suffix, SupervisorID: "sup-1"}).Error)
	require.NoError(t, repo.db.Create(&plotRow{ID: "p-" + suffix, GroupID: "g-" + suffix}).Error)
	require.NoError(t, repo.db.Create(&plotCultivationRow{ID: "pc-" + suffix, PlotID: "p-" + suffix, FarmerID: "farmer-1"}).Error)

	rec := models.DistributionRecord{
		ID:                             "dist-" + suffix,
		MaterialID:                     "npk",
		PlotCultivationID:              "pc-" + suffix,
		QuantityDistributed:            decimal.NewFromInt(75),
		ScheduledDistributionDate:      now,
		DistributionDeadline:           now.AddDate(0, 0, 5),
		SupervisorConfirmationDeadline: now.AddDate(0, 0, 2),
		Status:                         models.DistributionScheduled,
		Version:                        1,
		CreatedAt:                      now,
		UpdatedAt:                      now,
	}
	require.NoError(t, repo.CreateDistribution(ctx, rec))
	require.ErrorIs(t, repo.CreateDistribution(ctx, rec), models.ErrConflict)

	agg, err := repo.GetDistribution(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, agg.Ownership)
	assert.Equal(t, "sup-1", agg.Ownership.SupervisorID)

	updated := agg.Record
	updated.Status = models.DistributionRejected
	updated.RejectionReason = "flooded"
	updated.Version = 2
	require.NoError(t, repo.UpdateDistribution(ctx, updated, 1))
	require.ErrorIs(t, repo.UpdateDistribution(ctx, updated, 1), models.ErrConflict)

	missing := updated
	missing.ID = "dist-missing-" + suffix
	require.ErrorIs(t, repo.UpdateDistribution(ctx, missing, 1), models.ErrNotFound)

	pending, err := repo.ListPendingDistributions(ctx)
	require.NoError(t, err)
	for _, p := range pending {
		assert.NotEqual(t, rec.ID, p.ID)
	}
}
