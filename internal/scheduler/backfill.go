package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/slippymap/slippy-backend/internal/geocode"
	"github.com/slippymap/slippy-backend/internal/models"
)

// AddressResolver is the geocoding dependency of the backfill scheduler.
type AddressResolver interface {
	Intersection(ctx context.Context, lat, lng float64) geocode.Result
}

// BackfillOptions control one backfill batch.
type BackfillOptions struct {
	BatchSize int
	Offset    int
	DryRun    bool
}

// BackfillResult reports what one batch did. NextOffset and Remaining let a
// web or CLI caller resume a long backlog across invocations.
type BackfillResult struct {
	Processed  int   `json:"processed"`
	Updated    int   `json:"updated"`
	Failed     int   `json:"failed"`
	NextOffset int   `json:"next_offset"`
	Remaining  int64 `json:"remaining"`
	DryRun     bool  `json:"dry_run"`
}

// Backfill fills in addresses for reports whose resolution failed at
// submission time. Only a provider-derived address counts as resolved; a
// coordinate-fallback result leaves the row eligible for the next sweep.
type Backfill struct {
	db         *gorm.DB
	resolver   AddressResolver
	logger     *slog.Logger
	batchSize  int
	rowRetries int
}

// NewBackfill creates the scheduler. Provider pacing lives in the resolver's
// shared limiter, so batches stay under the geocoder rate limit alongside
// every other caller.
func NewBackfill(db *gorm.DB, resolver AddressResolver, logger *slog.Logger, batchSize, rowRetries int) *Backfill {
	return &Backfill{
		db:         db,
		resolver:   resolver,
		logger:     logger,
		batchSize:  batchSize,
		rowRetries: rowRetries,
	}
}

// unresolved matches rows that never got a provider-derived address. The
// coordinate-tier clause covers legacy rows where the fallback string was
// persisted.
func (b *Backfill) unresolved(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Report{}).
		Where("address IS NULL OR address_tier = ?", string(geocode.TierCoordinates))
}

// Run is the timer entry point: one default-sized batch from the head of the
// backlog. Rows that fail stay unresolved and are retried on the next firing.
func (b *Backfill) Run(ctx context.Context) {
	result, err := b.RunBatch(ctx, BackfillOptions{BatchSize: b.batchSize})
	if err != nil {
		b.logger.Error("address backfill run failed", "error", err)
		return
	}
	if result.Processed > 0 {
		b.logger.Info("address backfill run completed",
			"processed", result.Processed,
			"updated", result.Updated,
			"failed", result.Failed,
			"remaining", result.Remaining,
		)
	}
}

// RunBatch processes up to BatchSize unresolved reports starting at Offset,
// ascending id. A store query failure aborts with zero progress; a per-row
// update failure counts as failed and the batch continues.
func (b *Backfill) RunBatch(ctx context.Context, opts BackfillOptions) (BackfillResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = b.batchSize
	}
	result := BackfillResult{DryRun: opts.DryRun, NextOffset: opts.Offset}

	var total int64
	if err := b.unresolved(b.db).Count(&total).Error; err != nil {
		return result, fmt.Errorf("count unresolved reports: %w", err)
	}

	var reports []models.Report
	if err := b.unresolved(b.db).
		Order("id ASC").
		Limit(opts.BatchSize).
		Offset(opts.Offset).
		Find(&reports).Error; err != nil {
		return result, fmt.Errorf("select unresolved reports: %w", err)
	}

	for _, report := range reports {
		resolved, err := b.resolveWithRetries(ctx, report.Latitude, report.Longitude)
		if err != nil {
			// Context cancelled mid-batch; report partial progress.
			return result, err
		}
		result.Processed++

		if !resolved.Resolved() {
			result.Failed++
			b.logger.Warn("backfill could not resolve address",
				"report_id", report.ID, "lat", report.Latitude, "lng", report.Longitude)
			continue
		}

		if opts.DryRun {
			result.Updated++
			continue
		}

		// First success wins: never overwrite an address resolved elsewhere.
		update := b.db.Model(&models.Report{}).
			Where("id = ? AND (address IS NULL OR address_tier = ?)", report.ID, string(geocode.TierCoordinates)).
			Updates(map[string]interface{}{
				"address":      resolved.Address,
				"address_tier": string(resolved.Tier),
			})
		if update.Error != nil {
			result.Failed++
			b.logger.Error("backfill update failed", "report_id", report.ID, "error", update.Error)
			continue
		}
		result.Updated++
	}

	result.NextOffset = opts.Offset + result.Processed
	result.Remaining = total - int64(result.NextOffset)
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result, nil
}

// resolveWithRetries attempts resolution up to rowRetries times. Each attempt
// is paced by the resolver's limiter; cancellation aborts the batch rather
// than burning the remaining retry budget.
func (b *Backfill) resolveWithRetries(ctx context.Context, lat, lng float64) (geocode.Result, error) {
	var last geocode.Result
	for attempt := 0; attempt < b.rowRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		last = b.resolver.Intersection(ctx, lat, lng)
		if last.Resolved() {
			return last, nil
		}
	}
	return last, nil
}
