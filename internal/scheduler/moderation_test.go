package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/slippymap/slippy-backend/internal/models"
	"github.com/slippymap/slippy-backend/internal/moderation"
)

// fakeGate returns a per-text verdict, defaulting to a clean one.
type fakeGate struct {
	verdicts map[string]moderation.Verdict
	calls    []string
}

func (f *fakeGate) Classify(_ context.Context, text string) moderation.Verdict {
	f.calls = append(f.calls, text)
	if v, ok := f.verdicts[text]; ok {
		return v
	}
	return moderation.Verdict{Flagged: false, Source: moderation.SourceOpenAI}
}

func newTestModeration(db *gorm.DB, gate ContentGate, batchSize, maxAttempts int) *Moderation {
	return NewModeration(db, gate, clockwork.NewRealClock(), discardLogger(), batchSize, 0, maxAttempts)
}

func seedComment(t *testing.T, db *gorm.DB, report models.Report, text string, createdAt time.Time) models.Comment {
	t.Helper()
	comment := models.Comment{
		ReportID:  report.ID,
		Text:      text,
		Status:    models.CommentPending,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&comment).Error)
	return comment
}

func TestModeration_Sweep_ApprovesAndRejects(t *testing.T) {
	db := testDB(t)
	report := seedReports(t, db, 1)[0]
	now := time.Now()
	clean := seedComment(t, db, report, "icy on the ramp", now)
	flagged := seedComment(t, db, report, "nasty text", now.Add(time.Second))

	gate := &fakeGate{verdicts: map[string]moderation.Verdict{
		"nasty text": {Flagged: true, Categories: []string{"harassment"}, Source: moderation.SourceOpenAI},
	}}
	m := newTestModeration(db, gate, 10, 10)

	result, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Approved)
	assert.Equal(t, 1, result.Rejected)

	var got models.Comment
	require.NoError(t, db.First(&got, "id = ?", clean.ID).Error)
	assert.Equal(t, models.CommentApproved, got.Status)
	got = models.Comment{}
	require.NoError(t, db.First(&got, "id = ?", flagged.ID).Error)
	assert.Equal(t, models.CommentRejected, got.Status)
}

func TestModeration_Sweep_OldestFirstWithinBatch(t *testing.T) {
	db := testDB(t)
	report := seedReports(t, db, 1)[0]
	now := time.Now()
	seedComment(t, db, report, "third", now.Add(2*time.Second))
	seedComment(t, db, report, "first", now)
	seedComment(t, db, report, "second", now.Add(time.Second))

	gate := &fakeGate{}
	m := newTestModeration(db, gate, 2, 10)

	result, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, []string{"first", "second"}, gate.calls)
}

func TestModeration_Sweep_ErrorLeavesPending(t *testing.T) {
	db := testDB(t)
	report := seedReports(t, db, 1)[0]
	comment := seedComment(t, db, report, "borderline", time.Now())

	gate := &fakeGate{verdicts: map[string]moderation.Verdict{
		"borderline": {Source: moderation.SourceErrorDefault},
	}}
	m := newTestModeration(db, gate, 10, 10)

	result, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 0, result.Approved)

	var got models.Comment
	require.NoError(t, db.First(&got, "id = ?", comment.ID).Error)
	assert.Equal(t, models.CommentPending, got.Status)
	assert.Equal(t, 1, got.ModerationAttempts)
	assert.False(t, got.NeedsReview)

	// Classifier recovers on the next sweep.
	delete(gate.verdicts, "borderline")
	result, err = m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Approved)

	require.NoError(t, db.First(&got, "id = ?", comment.ID).Error)
	assert.Equal(t, models.CommentApproved, got.Status)
}

func TestModeration_Sweep_ParksAfterAttemptCap(t *testing.T) {
	db := testDB(t)
	report := seedReports(t, db, 1)[0]
	comment := seedComment(t, db, report, "stuck", time.Now())

	gate := &fakeGate{verdicts: map[string]moderation.Verdict{
		"stuck": {Source: moderation.SourceErrorDefault},
	}}
	m := newTestModeration(db, gate, 10, 2)

	for i := 0; i < 2; i++ {
		_, err := m.Sweep(context.Background())
		require.NoError(t, err)
	}

	var got models.Comment
	require.NoError(t, db.First(&got, "id = ?", comment.ID).Error)
	assert.Equal(t, models.CommentPending, got.Status)
	assert.Equal(t, 2, got.ModerationAttempts)
	assert.True(t, got.NeedsReview)

	// Parked comments stop consuming batch slots.
	result, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
}

func TestModeration_Sweep_UnescapesStoredText(t *testing.T) {
	db := testDB(t)
	report := seedReports(t, db, 1)[0]
	seedComment(t, db, report, "ice &amp; slush ahead", time.Now())

	gate := &fakeGate{}
	m := newTestModeration(db, gate, 10, 10)

	_, err := m.Sweep(context.Background())
	require.NoError(t, err)

	require.Len(t, gate.calls, 1)
	assert.Equal(t, "ice & slush ahead", gate.calls[0])
}
