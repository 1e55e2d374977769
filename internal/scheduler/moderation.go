package scheduler

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/slippymap/slippy-backend/internal/models"
	"github.com/slippymap/slippy-backend/internal/moderation"
)

// ContentGate is the classification dependency of the moderation sweep.
type ContentGate interface {
	Classify(ctx context.Context, text string) moderation.Verdict
}

// SweepResult reports what one moderation sweep did.
type SweepResult struct {
	Processed int `json:"processed"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Errors    int `json:"errors"`
	Parked    int `json:"parked"`
}

// Moderation drains pending comments through the content gate. A classifier
// error leaves the comment pending for the next sweep; after maxAttempts
// consecutive errors the comment is parked for manual review so it stops
// consuming batch slots.
type Moderation struct {
	db          *gorm.DB
	gate        ContentGate
	clock       clockwork.Clock
	logger      *slog.Logger
	batchSize   int
	itemDelay   time.Duration
	maxAttempts int
}

func NewModeration(db *gorm.DB, gate ContentGate, clock clockwork.Clock, logger *slog.Logger, batchSize int, itemDelay time.Duration, maxAttempts int) *Moderation {
	return &Moderation{
		db:          db,
		gate:        gate,
		clock:       clock,
		logger:      logger,
		batchSize:   batchSize,
		itemDelay:   itemDelay,
		maxAttempts: maxAttempts,
	}
}

// Run is the timer entry point.
func (m *Moderation) Run(ctx context.Context) {
	result, err := m.Sweep(ctx)
	if err != nil {
		m.logger.Error("comment moderation run failed", "error", err)
		return
	}
	if result.Processed > 0 {
		m.logger.Info("comment moderation run completed",
			"processed", result.Processed,
			"approved", result.Approved,
			"rejected", result.Rejected,
			"errors", result.Errors,
		)
	}
}

// Sweep classifies up to batchSize pending comments, oldest first.
func (m *Moderation) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	var comments []models.Comment
	if err := m.db.
		Where("status = ? AND needs_review = ?", models.CommentPending, false).
		Order("created_at ASC").
		Limit(m.batchSize).
		Find(&comments).Error; err != nil {
		return result, fmt.Errorf("select pending comments: %w", err)
	}

	for i, comment := range comments {
		if i > 0 {
			// Short pause between classifier calls to respect its rate limits.
			m.clock.Sleep(m.itemDelay)
		}
		result.Processed++

		// Comments are stored HTML-escaped; classify the original text.
		verdict := m.gate.Classify(ctx, html.UnescapeString(comment.Text))

		if verdict.Err() {
			result.Errors++
			m.recordError(comment, &result)
			continue
		}

		status := models.CommentApproved
		if verdict.Flagged {
			status = models.CommentRejected
		}

		// Guard on pending so the pending→terminal transition happens at most once.
		update := m.db.Model(&models.Comment{}).
			Where("id = ? AND status = ?", comment.ID, models.CommentPending).
			Update("status", status)
		if update.Error != nil {
			result.Errors++
			m.logger.Error("comment status update failed", "comment_id", comment.ID, "error", update.Error)
			continue
		}

		if status == models.CommentApproved {
			result.Approved++
		} else {
			result.Rejected++
			m.logger.Info("comment rejected",
				"comment_id", comment.ID,
				"source", string(verdict.Source),
				"categories", verdict.Categories,
			)
		}
	}

	return result, nil
}

func (m *Moderation) recordError(comment models.Comment, result *SweepResult) {
	attempts := comment.ModerationAttempts + 1
	updates := map[string]interface{}{"moderation_attempts": attempts}
	if attempts >= m.maxAttempts {
		updates["needs_review"] = true
		result.Parked++
		m.logger.Error("comment parked for manual review after repeated classifier errors",
			"comment_id", comment.ID, "attempts", attempts)
	}
	if err := m.db.Model(&models.Comment{}).
		Where("id = ? AND status = ?", comment.ID, models.CommentPending).
		Updates(updates).Error; err != nil {
		m.logger.Error("comment attempt bookkeeping failed", "comment_id", comment.ID, "error", err)
	}
}
