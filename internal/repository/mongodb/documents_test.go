package mongodb

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

func TestDecimal128KeepsScale(t *testing.T) {
	for _, in := range []string{"0", "25", "100000", "12.3456", "-3.5"} {
		d := decimal.RequireFromString(in)
		v, err := toDecimal128(d)
		require.NoError(t, err)

		back, err := fromDecimal128(v)
		require.NoError(t, err)
		assert.True(t, d.Equal(back), "%s came back as %s", in, back)
	}
}

func TestPriceDocumentOpenFlag(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	open := models.PriceInterval{ID: "p1", MaterialID: "npk", PricePerPackage: decimal.NewFromInt(10), ValidFrom: from}

	doc, err := newPriceDocument(open)
	require.NoError(t, err)
	assert.True(t, doc.IsOpen)

	to := from.AddDate(0, 2, 0)
	open.ValidTo = &to
	doc, err = newPriceDocument(open)
	require.NoError(t, err)
	assert.False(t, doc.IsOpen)

	got, err := doc.toModel()
	require.NoError(t, err)
	assert.Equal(t, to, *got.ValidTo)
}

// openTestRepository connects to MONGODB_TEST_URI (a replica set); the test is skipped when it is unset.
func openTestRepository(t *testing.T) *MongoDBRepository {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "agrosupply_test_" + uuid.NewString()[:8]
	repo, err := NewMongoDBRepository(ctx, uri, dbName, nil)
	require.NoError(t, err)
	require.NoError(t, repo.EnsureIndexes(ctx))

	t.Cleanup(func() {
		_ = repo.db.Drop(context.Background())
		_ = repo.Close(context.Background())
	})
	return repo
}

func TestReplaceOpenIntervalIntegration(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	first := models.PriceInterval{ID: "p1", MaterialID: "npk", PricePerPackage: decimal.NewFromInt(10), ValidFrom: jan, CreatedAt: jan}
	require.NoError(t, repo.AppendInterval(ctx, first))
	require.ErrorIs(t, repo.AppendInterval(ctx, models.PriceInterval{ID: "p-dup", MaterialID: "npk", PricePerPackage: decimal.NewFromInt(11), ValidFrom: jan}), models.ErrConflict)

	next := models.PriceInterval{ID: "p2", MaterialID: "npk", PricePerPackage: decimal.NewFromInt(12), ValidFrom: mar, CreatedAt: mar}
	require.NoError(t, repo.ReplaceOpenInterval(ctx, "npk", "p1", mar, next))
	require.ErrorIs(t, repo.ReplaceOpenInterval(ctx, "npk", "p1", mar, models.PriceInterval{ID: "p3", MaterialID: "npk", PricePerPackage: decimal.NewFromInt(13), ValidFrom: mar}), models.ErrConflict)

	intervals, err := repo.ListIntervals(ctx, "npk")
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.Equal(t, mar, *intervals[0].ValidTo)
	assert.True(t, intervals[1].IsOpen())
}

func TestDistributionIntegration(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	_, err := repo.db.Collection(plotCultivationsCollection).InsertOne(ctx, plotCultivationDocument{ID: "pc-1", PlotID: "plot-1", FarmerID: "farmer-1"})
	require.NoError(t, err)
	_, err = repo.db.Collection(plotsCollection).InsertOne(ctx, plotDocument{ID: "plot-1", GroupID: "g-1"})
	require.NoError(t, err)
	_, err = repo.db.Collection(groupsCollection).InsertOne(ctx, groupDocument{ID: "g-1", SupervisorID: "sup-1"})
	require.NoError(t, err)
	_, err = repo.db.Collection(settingsCollection).InsertOne(ctx, settingDocument{Key: "FarmerConfirmationWindowDays", Value: "5"})
	require.NoError(t, err)

	rec := models.DistributionRecord{
		ID:                             "dist-1",
		MaterialID:                     "npk",
		PlotCultivationID:              "pc-1",
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

	agg, err := repo.GetDistribution(ctx, "dist-1")
	require.NoError(t, err)
	require.NotNil(t, agg.Ownership)
	assert.Equal(t, "sup-1", agg.Ownership.SupervisorID)
	assert.Equal(t, rec.DistributionDeadline, agg.Record.DistributionDeadline)
	assert.True(t, rec.QuantityDistributed.Equal(agg.Record.QuantityDistributed))

	updated := agg.Record
	updated.Status = models.DistributionRejected
	updated.Version = 2
	require.NoError(t, repo.UpdateDistribution(ctx, updated, 1))
	require.ErrorIs(t, repo.UpdateDistribution(ctx, updated, 1), models.ErrConflict)

	pending, err := repo.ListPendingDistributions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	value, found, err := repo.GetSetting(ctx, "FarmerConfirmationWindowDays")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "5", value)

	_, err = repo.GetDistribution(ctx, "missing")
	require.ErrorIs(t, err, models.ErrDistributionNotFound)
}
