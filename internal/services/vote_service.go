package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/slippymap/slippy-backend/internal/models"
)

var ErrInvalidVoteType = errors.New("vote type must be up or down")

// VoteCounts is the tally returned after casting a vote.
type VoteCounts struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

// VoteService enforces one vote per IP per report; a repeat vote replaces the
// previous one.
type VoteService struct {
	db *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{db: db}
}

// Cast upserts the caller's vote and returns the updated tally.
func (s *VoteService) Cast(reportID uuid.UUID, voteType, ip, userAgent string) (VoteCounts, error) {
	var counts VoteCounts
	if voteType != models.VoteUp && voteType != models.VoteDown {
		return counts, ErrInvalidVoteType
	}

	var exists int64
	if err := s.db.Model(&models.Report{}).Where("id = ?", reportID).Count(&exists).Error; err != nil {
		return counts, fmt.Errorf("check report: %w", err)
	}
	if exists == 0 {
		return counts, ErrReportNotFound
	}

	vote := models.Vote{
		ReportID:  reportID,
		VoteType:  voteType,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: time.Now(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_id"}, {Name: "ip_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote_type", "user_agent", "created_at"}),
	}).Create(&vote).Error
	if err != nil {
		return counts, fmt.Errorf("cast vote: %w", err)
	}

	return s.Counts(reportID)
}

// Counts returns the current tally for a report.
func (s *VoteService) Counts(reportID uuid.UUID) (VoteCounts, error) {
	var counts VoteCounts
	err := s.db.Model(&models.Vote{}).
		Where("report_id = ? AND vote_type = ?", reportID, models.VoteUp).
		Count(&counts.Upvotes).Error
	if err != nil {
		return counts, fmt.Errorf("count upvotes: %w", err)
	}
	err = s.db.Model(&models.Vote{}).
		Where("report_id = ? AND vote_type = ?", reportID, models.VoteDown).
		Count(&counts.Downvotes).Error
	if err != nil {
		return counts, fmt.Errorf("count downvotes: %w", err)
	}
	return counts, nil
}
