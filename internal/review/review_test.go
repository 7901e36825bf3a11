package review

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/study"
	"github.com/conorfennell/studydeck/internal/validate"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T, fronts ...string) (*Service, *storage.DB, string, []string) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "review.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	p := &domain.Project{Name: "deck", CreatedAt: now}
	require.NoError(t, db.CreateProject(ctx, p))

	var ids []string
	for i, f := range fronts {
		fc := &domain.Flashcard{ProjectID: p.ID, Front: f, Back: "answer " + f, Hash: f, CreatedAt: now}
		require.NoError(t, db.InsertFlashcard(ctx, fc, now.Add(-time.Duration(len(fronts)-i)*time.Minute)))
		ids = append(ids, fc.ID)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(db, logger, WithClock(func() time.Time { return now }))
	return svc, db, p.ID, ids
}

func TestApplySchedulesCard(t *testing.T) {
	svc, db, _, ids := setup(t, "q1")
	ctx := context.Background()

	cs, err := svc.Apply(ctx, study.FeedbackCommand{FlashcardID: ids[0], Difficulty: study.Good})
	require.NoError(t, err)
	assert.Equal(t, storage.StateReview, cs.State)
	assert.True(t, cs.DueAt.After(now))
	assert.True(t, cs.LastReview.Equal(now))

	logs, err := db.ReviewLogs(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "good", logs[0].Rating)
}

func TestApplyRejectsBadCommands(t *testing.T) {
	svc, _, _, ids := setup(t, "q1")
	ctx := context.Background()

	_, err := svc.Apply(ctx, study.FeedbackCommand{FlashcardID: ids[0], Difficulty: "medium"})
	assert.True(t, validate.IsValidation(err))

	_, err = svc.Apply(ctx, study.FeedbackCommand{Difficulty: study.Easy})
	assert.True(t, validate.IsValidation(err))

	_, err = svc.Apply(ctx, study.FeedbackCommand{FlashcardID: "missing", Difficulty: study.Easy})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBackendDrivesSession(t *testing.T) {
	svc, _, projectID, ids := setup(t, "q1", "q2")
	ctx := context.Background()

	total, err := svc.DueCount(ctx, projectID)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	c := study.NewController(svc.Backend(projectID), total, nil)
	require.NoError(t, c.LoadNext(ctx))
	assert.Equal(t, ids[0], c.Snapshot().Card.ID)

	require.NoError(t, c.Reveal())
	require.NoError(t, c.SubmitFeedback(ctx, "hard"))
	s := c.Snapshot()
	require.NotNil(t, s.Card)
	assert.Equal(t, ids[1], s.Card.ID)

	require.NoError(t, c.Reveal())
	require.NoError(t, c.SubmitFeedback(ctx, "easy"))
	s = c.Snapshot()
	assert.Equal(t, study.PhaseFinished, s.Phase)
	assert.Equal(t, 100.0, s.Percentage)

	remaining, err := svc.DueCount(ctx, projectID)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	next, err := svc.Backend(projectID).NextDue(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)
}
