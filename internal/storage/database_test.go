package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studydeck/internal/domain"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createProject(t *testing.T, db *DB, name string) *domain.Project {
	t.Helper()
	p := &domain.Project{Name: name, CreatedAt: t0}
	require.NoError(t, db.CreateProject(context.Background(), p))
	return p
}

func insertCard(t *testing.T, db *DB, projectID, front string, due time.Time) *domain.Flashcard {
	t.Helper()
	fc := &domain.Flashcard{ProjectID: projectID, Front: front, Back: "back of " + front, Hash: "h-" + front, CreatedAt: t0}
	require.NoError(t, db.InsertFlashcard(context.Background(), fc, due))
	return fc
}

func TestProjects(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p := createProject(t, db, "Biology")
	require.NotEmpty(t, p.ID)

	got, err := db.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Biology", got.Name)
	assert.True(t, got.CreatedAt.Equal(t0))

	_, err = db.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	createProject(t, db, "Chemistry")
	all, err := db.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFlashcardCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := createProject(t, db, "Go")

	fc := insertCard(t, db, p.ID, "What is a goroutine?", t0)

	got, err := db.GetFlashcard(ctx, fc.ID)
	require.NoError(t, err)
	assert.Equal(t, fc.Front, got.Front)
	assert.Zero(t, got.SourceID)

	found, err := db.FindFlashcardByHash(ctx, p.ID, fc.Hash)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, fc.ID, found.ID)

	none, err := db.FindFlashcardByHash(ctx, p.ID, "nope")
	require.NoError(t, err)
	assert.Nil(t, none)

	got.Back = "A lightweight thread"
	got.UpdatedAt = t0.Add(time.Hour)
	require.NoError(t, db.UpdateFlashcardContent(ctx, got))
	got, err = db.GetFlashcard(ctx, fc.ID)
	require.NoError(t, err)
	assert.Equal(t, "A lightweight thread", got.Back)

	require.NoError(t, db.DeleteFlashcard(ctx, fc.ID))
	assert.ErrorIs(t, db.DeleteFlashcard(ctx, fc.ID), ErrNotFound)
	_, err = db.GetFlashcard(ctx, fc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	missing := &domain.Flashcard{ID: "missing", Front: "f", Back: "b"}
	assert.ErrorIs(t, db.UpdateFlashcardContent(ctx, missing), ErrNotFound)
}

func TestNextDueCardAndReview(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := createProject(t, db, "History")
	other := createProject(t, db, "Other")

	later := insertCard(t, db, p.ID, "later", t0.Add(-time.Hour))
	first := insertCard(t, db, p.ID, "first", t0.Add(-2*time.Hour))
	insertCard(t, db, p.ID, "future", t0.Add(48*time.Hour))
	insertCard(t, db, other.ID, "elsewhere", t0.Add(-3*time.Hour))

	n, err := db.DueCount(ctx, p.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	next, err := db.NextDueCard(ctx, p.ID, t0)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, first.ID, next.ID)

	cs, err := db.GetCardState(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StateNew, cs.State)
	assert.True(t, cs.LastReview.IsZero())

	cs.Stability = 3
	cs.Difficulty = 2
	cs.DueAt = t0.Add(72 * time.Hour)
	cs.LastReview = t0
	cs.State = StateReview
	require.NoError(t, db.RecordReview(ctx, cs, domain.ReviewLog{
		Rating: "good", ReviewedAt: t0, Stability: 3, DueAt: cs.DueAt,
	}))

	next, err = db.NextDueCard(ctx, p.ID, t0)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, later.ID, next.ID)

	updated, err := db.GetCardState(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StateReview, updated.State)
	assert.True(t, updated.LastReview.Equal(t0))
	assert.True(t, updated.DueAt.Equal(t0.Add(72*time.Hour)))

	logs, err := db.ReviewLogs(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "good", logs[0].Rating)
	assert.Equal(t, first.ID, logs[0].FlashcardID)

	require.NoError(t, db.DeleteFlashcard(ctx, later.ID))
	next, err = db.NextDueCard(ctx, p.ID, t0)
	require.NoError(t, err)
	assert.Nil(t, next)

	err = db.RecordReview(ctx, &CardState{FlashcardID: "missing", DueAt: t0}, domain.ReviewLog{ReviewedAt: t0, DueAt: t0})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSources(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := createProject(t, db, "Notes")

	id, err := db.InsertSource(ctx, p.ID, "/notes", domain.SourceLocal)
	require.NoError(t, err)

	s, err := db.FindSourceByPath(ctx, "/notes")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, id, s.ID)
	assert.True(t, s.LastScanned.IsZero())

	require.NoError(t, db.UpdateSourceLastScanned(ctx, id, t0))
	byProject, err := db.SourcesByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.True(t, byProject[0].LastScanned.Equal(t0))

	fc := &domain.Flashcard{ProjectID: p.ID, Front: "f", Back: "b", Hash: "h", SourceID: id, SourceHash: "h", CreatedAt: t0}
	require.NoError(t, db.InsertFlashcard(ctx, fc, t0))

	fc.Back, fc.Hash = "b2", "h2"
	require.NoError(t, db.UpdateFlashcardContent(ctx, fc))

	cards, err := db.GetCardsBySourceID(ctx, id)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, id, cards[0].SourceID)
	assert.Equal(t, "h2", cards[0].Hash)
	assert.Equal(t, "h", cards[0].SourceHash, "edits keep the source hash")

	_, err = db.InsertSource(ctx, p.ID, "/notes", domain.SourceLocal)
	assert.Error(t, err, "paths are unique")

	require.NoError(t, db.DeleteSource(ctx, id))
	_, err = db.GetFlashcard(ctx, fc.ID)
	assert.ErrorIs(t, err, ErrNotFound, "cards cascade with their source")
	assert.ErrorIs(t, db.DeleteSource(ctx, id), ErrNotFound)

	missing, err := db.FindSourceByPath(ctx, "/nowhere")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
