package services

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slippymap/slippy-backend/internal/models"
)

var (
	ErrEmptyComment   = errors.New("comment text is empty")
	ErrCommentTooLong = errors.New("comment text exceeds 500 characters")
)

const maxCommentLen = 500

// CommentService stores user comments in the pending state; only the
// moderation sweep moves them out of it.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Create stores a pending comment. Text is trimmed, length-checked against the
// original characters, then HTML-escaped for storage.
func (s *CommentService) Create(reportID uuid.UUID, text, ip string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	if len([]rune(text)) > maxCommentLen {
		return nil, ErrCommentTooLong
	}

	if err := s.reportExists(reportID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		ReportID:  reportID,
		Text:      html.EscapeString(text),
		Status:    models.CommentPending,
		IPAddress: ip,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &comment, nil
}

// ListApproved returns a report's visible comments, oldest first.
func (s *CommentService) ListApproved(reportID uuid.UUID) ([]models.Comment, error) {
	if err := s.reportExists(reportID); err != nil {
		return nil, err
	}
	var comments []models.Comment
	err := s.db.
		Where("report_id = ? AND status = ?", reportID, models.CommentApproved).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) reportExists(reportID uuid.UUID) error {
	var count int64
	if err := s.db.Model(&models.Report{}).Where("id = ?", reportID).Count(&count).Error; err != nil {
		return fmt.Errorf("check report: %w", err)
	}
	if count == 0 {
		return ErrReportNotFound
	}
	return nil
}
