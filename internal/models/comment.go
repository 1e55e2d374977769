package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment moderation states. A comment moves pending→approved or
// pending→rejected exactly once and never reverts.
const (
	CommentPending  = "pending"
	CommentApproved = "approved"
	CommentRejected = "rejected"
)

// Comment is user feedback on a report. Text is stored HTML-escaped. Created
// pending; only the moderation sweep transitions the status. A classifier error
// leaves the row pending and bumps ModerationAttempts; once the attempt cap is
// reached the row is parked with NeedsReview so it stops consuming batch slots.
type Comment struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID           uuid.UUID `gorm:"type:uuid;not null;index" json:"report_id"`
	Text               string    `gorm:"type:text;not null" json:"text"`
	Status             string    `gorm:"not null;default:'pending';size:20;index" json:"status"`
	IPAddress          string    `gorm:"size:45" json:"-"`
	ModerationAttempts int       `gorm:"default:0" json:"-"`
	NeedsReview        bool      `gorm:"default:false;index" json:"-"`
	CreatedAt          time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate ensures UUID is set before creation
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
