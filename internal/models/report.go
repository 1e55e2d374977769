package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Condition types accepted for a hazard report.
const (
	ConditionIce   = "ice"
	ConditionSlush = "slush"
	ConditionSnow  = "snow"
	ConditionWater = "water"
)

// Location types accepted for a hazard report.
const (
	LocationRoad     = "road"
	LocationSidewalk = "sidewalk"
)

// Report is a crowd-sourced road-hazard pin. Address stays nil until reverse
// geocoding succeeds at least once; it is never cleared afterwards. AddressTier
// records which extraction tier produced the address — rows whose tier is
// "coordinates" remain eligible for backfill retries.
type Report struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Latitude      float64   `gorm:"not null" json:"latitude"`
	Longitude     float64   `gorm:"not null" json:"longitude"`
	ConditionType string    `gorm:"not null;size:20;index" json:"condition_type"`
	LocationType  string    `gorm:"not null;size:20;default:'road'" json:"location_type"`
	SubmitterName *string   `gorm:"size:25" json:"submitter_name"`
	Address       *string   `gorm:"size:500" json:"address"`
	AddressTier   string    `gorm:"size:20" json:"-"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`

	Comments []Comment `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
	Votes    []Vote    `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate ensures UUID is set before creation
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func ValidCondition(s string) bool {
	switch s {
	case ConditionIce, ConditionSlush, ConditionSnow, ConditionWater:
		return true
	}
	return false
}

func ValidLocation(s string) bool {
	return s == LocationRoad || s == LocationSidewalk
}
