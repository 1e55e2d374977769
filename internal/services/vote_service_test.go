package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slippymap/slippy-backend/internal/models"
)

func TestVoteService_Cast_CountsVotes(t *testing.T) {
	db := testDB(t)
	svc := NewVoteService(db)
	report := seedReport(t, db)

	counts, err := svc.Cast(report.ID, models.VoteUp, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Upvotes)
	assert.Equal(t, int64(0), counts.Downvotes)

	counts, err = svc.Cast(report.ID, models.VoteDown, "10.0.0.2", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Upvotes)
	assert.Equal(t, int64(1), counts.Downvotes)
}

func TestVoteService_Cast_RepeatVoteReplaces(t *testing.T) {
	db := testDB(t)
	svc := NewVoteService(db)
	report := seedReport(t, db)

	_, err := svc.Cast(report.ID, models.VoteUp, "10.0.0.1", "test-agent")
	require.NoError(t, err)

	counts, err := svc.Cast(report.ID, models.VoteDown, "10.0.0.1", "test-agent")
	require.NoError(t, err)

	assert.Equal(t, int64(0), counts.Upvotes)
	assert.Equal(t, int64(1), counts.Downvotes)

	var total int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestVoteService_Cast_Validation(t *testing.T) {
	db := testDB(t)
	svc := NewVoteService(db)
	report := seedReport(t, db)

	_, err := svc.Cast(report.ID, "sideways", "10.0.0.1", "test-agent")
	assert.ErrorIs(t, err, ErrInvalidVoteType)

	_, err = svc.Cast(uuid.New(), models.VoteUp, "10.0.0.1", "test-agent")
	assert.ErrorIs(t, err, ErrReportNotFound)
}
