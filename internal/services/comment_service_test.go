package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/slippymap/slippy-backend/internal/models"
)

func seedReport(t *testing.T, db *gorm.DB) models.Report {
	t.Helper()
	report := models.Report{
		Latitude:      40.7,
		Longitude:     -74.0,
		ConditionType: models.ConditionIce,
		LocationType:  models.LocationRoad,
	}
	require.NoError(t, db.Create(&report).Error)
	return report
}

func TestCommentService_Create_StoresPendingEscaped(t *testing.T) {
	db := testDB(t)
	svc := NewCommentService(db)
	report := seedReport(t, db)

	comment, err := svc.Create(report.ID, "  watch out <here>  ", "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, models.CommentPending, comment.Status)
	assert.Equal(t, "watch out &lt;here&gt;", comment.Text)
	assert.Equal(t, "10.0.0.1", comment.IPAddress)
}

func TestCommentService_Create_Validation(t *testing.T) {
	db := testDB(t)
	svc := NewCommentService(db)
	report := seedReport(t, db)

	_, err := svc.Create(report.ID, "   ", "10.0.0.1")
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, err = svc.Create(report.ID, strings.Repeat("x", 501), "10.0.0.1")
	assert.ErrorIs(t, err, ErrCommentTooLong)

	_, err = svc.Create(uuid.New(), "orphan", "10.0.0.1")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestCommentService_ListApproved_OnlyApprovedOldestFirst(t *testing.T) {
	db := testDB(t)
	svc := NewCommentService(db)
	report := seedReport(t, db)

	now := time.Now()
	newer := models.Comment{ReportID: report.ID, Text: "second", Status: models.CommentApproved, CreatedAt: now.Add(time.Second)}
	older := models.Comment{ReportID: report.ID, Text: "first", Status: models.CommentApproved, CreatedAt: now}
	hidden := models.Comment{ReportID: report.ID, Text: "pending", Status: models.CommentPending, CreatedAt: now}
	rejected := models.Comment{ReportID: report.ID, Text: "rejected", Status: models.CommentRejected, CreatedAt: now}
	for _, c := range []*models.Comment{&newer, &older, &hidden, &rejected} {
		require.NoError(t, db.Create(c).Error)
	}

	comments, err := svc.ListApproved(report.ID)
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "second", comments[1].Text)
}
