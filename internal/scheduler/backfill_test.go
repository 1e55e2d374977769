package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/slippymap/slippy-backend/internal/geocode"
	"github.com/slippymap/slippy-backend/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Report{}, &models.Comment{}, &models.Vote{}))
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeResolver resolves every coordinate pair to a fixed street name, or falls
// back to coordinates when failing is set.
type fakeResolver struct {
	failing bool
	calls   int
}

func (f *fakeResolver) Intersection(_ context.Context, lat, lng float64) geocode.Result {
	f.calls++
	if f.failing {
		return geocode.Result{
			Address: fmt.Sprintf("%.6f, %.6f", lat, lng),
			Tier:    geocode.TierCoordinates,
		}
	}
	return geocode.Result{
		Address: fmt.Sprintf("Street %d", f.calls),
		Tier:    geocode.TierRoad,
	}
}

func seedReports(t *testing.T, db *gorm.DB, n int) []models.Report {
	t.Helper()
	reports := make([]models.Report, n)
	for i := range reports {
		reports[i] = models.Report{
			Latitude:      40.0 + float64(i)*0.01,
			Longitude:     -74.0,
			ConditionType: models.ConditionIce,
			LocationType:  models.LocationRoad,
		}
		require.NoError(t, db.Create(&reports[i]).Error)
	}
	return reports
}

func newTestBackfill(db *gorm.DB, resolver AddressResolver, batchSize, rowRetries int) *Backfill {
	return NewBackfill(db, resolver, discardLogger(), batchSize, rowRetries)
}

func TestBackfill_RunBatch_UpdatesBacklog(t *testing.T) {
	db := testDB(t)
	seedReports(t, db, 3)
	b := newTestBackfill(db, &fakeResolver{}, 10, 1)

	result, err := b.RunBatch(context.Background(), BackfillOptions{BatchSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 3, result.Updated)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, int64(0), result.Remaining)

	var unresolved int64
	require.NoError(t, db.Model(&models.Report{}).Where("address IS NULL").Count(&unresolved).Error)
	assert.Equal(t, int64(0), unresolved)

	var report models.Report
	require.NoError(t, db.First(&report).Error)
	require.NotNil(t, report.Address)
	assert.Equal(t, string(geocode.TierRoad), report.AddressTier)
}

func TestBackfill_RunBatch_PagesWithOffset(t *testing.T) {
	db := testDB(t)
	seedReports(t, db, 5)
	b := newTestBackfill(db, &fakeResolver{}, 2, 1)

	first, err := b.RunBatch(context.Background(), BackfillOptions{BatchSize: 2, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Processed)
	assert.Equal(t, 2, first.NextOffset)
	assert.Equal(t, int64(3), first.Remaining)

	second, err := b.RunBatch(context.Background(), BackfillOptions{BatchSize: 2, Offset: first.NextOffset, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Processed)
	assert.Equal(t, 4, second.NextOffset)
	assert.Equal(t, int64(1), second.Remaining)
}

func TestBackfill_RunBatch_DryRunLeavesRows(t *testing.T) {
	db := testDB(t)
	seedReports(t, db, 2)
	b := newTestBackfill(db, &fakeResolver{}, 10, 1)

	result, err := b.RunBatch(context.Background(), BackfillOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.True(t, result.DryRun)

	var unresolved int64
	require.NoError(t, db.Model(&models.Report{}).Where("address IS NULL").Count(&unresolved).Error)
	assert.Equal(t, int64(2), unresolved)
}

func TestBackfill_RunBatch_FailedRowsStayEligible(t *testing.T) {
	db := testDB(t)
	seedReports(t, db, 2)
	resolver := &fakeResolver{failing: true}
	b := newTestBackfill(db, resolver, 10, 3)

	result, err := b.RunBatch(context.Background(), BackfillOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 2, result.Failed)

	// Each row got the full retry budget.
	assert.Equal(t, 6, resolver.calls)

	var unresolved int64
	require.NoError(t, db.Model(&models.Report{}).Where("address IS NULL").Count(&unresolved).Error)
	assert.Equal(t, int64(2), unresolved)
}

func TestBackfill_RunBatch_CoordinateTierRowsAreRetried(t *testing.T) {
	db := testDB(t)
	coords := "40.000000, -74.000000"
	report := models.Report{
		Latitude:      40.0,
		Longitude:     -74.0,
		ConditionType: models.ConditionSnow,
		LocationType:  models.LocationRoad,
		Address:       &coords,
		AddressTier:   string(geocode.TierCoordinates),
	}
	require.NoError(t, db.Create(&report).Error)

	b := newTestBackfill(db, &fakeResolver{}, 10, 1)
	result, err := b.RunBatch(context.Background(), BackfillOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	var updated models.Report
	require.NoError(t, db.First(&updated, "id = ?", report.ID).Error)
	require.NotNil(t, updated.Address)
	assert.Equal(t, "Street 1", *updated.Address)
	assert.Equal(t, string(geocode.TierRoad), updated.AddressTier)
}

func TestBackfill_RunBatch_SkipsResolvedRows(t *testing.T) {
	db := testDB(t)
	addr := "Main Street"
	report := models.Report{
		Latitude:      40.0,
		Longitude:     -74.0,
		ConditionType: models.ConditionIce,
		LocationType:  models.LocationRoad,
		Address:       &addr,
		AddressTier:   string(geocode.TierRoad),
	}
	require.NoError(t, db.Create(&report).Error)

	resolver := &fakeResolver{}
	b := newTestBackfill(db, resolver, 10, 1)
	result, err := b.RunBatch(context.Background(), BackfillOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, resolver.calls)
}

func TestBackfill_RunBatch_ContextCancelAbortsBatch(t *testing.T) {
	db := testDB(t)
	seedReports(t, db, 3)
	b := newTestBackfill(db, &fakeResolver{}, 10, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.RunBatch(ctx, BackfillOptions{})
	require.Error(t, err)
}
