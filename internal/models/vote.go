package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Vote is one up/down vote per IP per report; a repeat vote from the same IP
// replaces the previous one.
type Vote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vote_report_ip" json:"report_id"`
	VoteType  string    `gorm:"not null;size:10" json:"vote_type"`
	IPAddress string    `gorm:"size:45;uniqueIndex:idx_vote_report_ip" json:"-"`
	UserAgent string    `gorm:"size:500" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate ensures UUID is set before creation
func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
