package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

const flashcardColumns = `id, project_id, front, back, context, hash, source_id, source_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var fc domain.Flashcard
	var sourceID sql.NullInt64
	var created, updated int64
	err := row.Scan(
		&fc.ID,
		&fc.ProjectID,
		&fc.Front,
		&fc.Back,
		&fc.Context,
		&fc.Hash,
		&sourceID,
		&fc.SourceHash,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	fc.SourceID = sourceID.Int64
	fc.CreatedAt = fromUnix(created)
	fc.UpdatedAt = fromUnix(updated)
	return &fc, nil
}

func (db *DB) queryFlashcards(ctx context.Context, what, query string, args ...any) ([]domain.Flashcard, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	defer rows.Close()

	var cards []domain.Flashcard
	for rows.Next() {
		fc, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard row for %s: %w", what, err)
		}
		cards = append(cards, *fc)
	}
	return cards, rows.Err()
}

// InsertFlashcard inserts a new card as New and due at dueAt. An id is
// assigned when fc has none.
func (db *DB) InsertFlashcard(ctx context.Context, fc *domain.Flashcard, dueAt time.Time) error {
	if fc.ID == "" {
		fc.ID = newID()
	}
	if fc.UpdatedAt.IsZero() {
		fc.UpdatedAt = fc.CreatedAt
	}
	var sourceID sql.NullInt64
	if fc.SourceID != 0 {
		sourceID = sql.NullInt64{Int64: fc.SourceID, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO flashcards (id, project_id, front, back, context, hash, source_id, source_hash,
			stability, difficulty, due_at, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?)
	`,
		fc.ID,
		fc.ProjectID,
		fc.Front,
		fc.Back,
		fc.Context,
		fc.Hash,
		sourceID,
		fc.SourceHash,
		toUnix(dueAt),
		StateNew,
		toUnix(fc.CreatedAt),
		toUnix(fc.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert flashcard %s: %w", fc.ID, err)
	}
	return nil
}

// GetFlashcard retrieves a card by id.
func (db *DB) GetFlashcard(ctx context.Context, id string) (*domain.Flashcard, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+flashcardColumns+` FROM flashcards WHERE id = ?`, id)
	fc, err := scanFlashcard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("flashcard %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get flashcard %s: %w", id, err)
	}
	return fc, nil
}

// FindFlashcardByHash looks up a card by content hash within a project.
// It returns nil without an error when there is no such card.
func (db *DB) FindFlashcardByHash(ctx context.Context, projectID, hash string) (*domain.Flashcard, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+flashcardColumns+` FROM flashcards WHERE project_id = ? AND hash = ? LIMIT 1
	`, projectID, hash)
	fc, err := scanFlashcard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find flashcard by hash %s: %w", hash, err)
	}
	return fc, nil
}

// UpdateFlashcardContent replaces a card's front, back and hash. Its
// scheduling state and source hash are kept.
func (db *DB) UpdateFlashcardContent(ctx context.Context, fc *domain.Flashcard) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE flashcards
		SET front = ?, back = ?, hash = ?, updated_at = ?
		WHERE id = ?
	`, fc.Front, fc.Back, fc.Hash, toUnix(fc.UpdatedAt), fc.ID)
	if err != nil {
		return fmt.Errorf("failed to update flashcard %s: %w", fc.ID, err)
	}
	return expectOne(res, "flashcard "+fc.ID)
}

// DeleteFlashcard removes a card and its review history.
func (db *DB) DeleteFlashcard(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard %s: %w", id, err)
	}
	return expectOne(res, "flashcard "+id)
}

// ListFlashcards returns a project's cards, oldest first.
func (db *DB) ListFlashcards(ctx context.Context, projectID string) ([]domain.Flashcard, error) {
	return db.queryFlashcards(ctx, "flashcards for project "+projectID, `
		SELECT `+flashcardColumns+` FROM flashcards
		WHERE project_id = ? ORDER BY created_at, id
	`, projectID)
}

// GetCardsBySourceID retrieves all cards imported from a source.
func (db *DB) GetCardsBySourceID(ctx context.Context, sourceID int64) ([]domain.Flashcard, error) {
	return db.queryFlashcards(ctx, fmt.Sprintf("cards for source ID %d", sourceID), `
		SELECT `+flashcardColumns+` FROM flashcards WHERE source_id = ?
	`, sourceID)
}

// NextDueCard returns the card with the earliest due date not after now, or
// nil when nothing in the project is due.
func (db *DB) NextDueCard(ctx context.Context, projectID string, now time.Time) (*domain.Flashcard, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+flashcardColumns+` FROM flashcards
		WHERE project_id = ? AND due_at <= ?
		ORDER BY due_at, created_at, id
		LIMIT 1
	`, projectID, toUnix(now))
	fc, err := scanFlashcard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get next due card for project %s: %w", projectID, err)
	}
	return fc, nil
}

// DueCount counts the project's cards due at or before now.
func (db *DB) DueCount(ctx context.Context, projectID string, now time.Time) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM flashcards WHERE project_id = ? AND due_at <= ?
	`, projectID, toUnix(now)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count due cards for project %s: %w", projectID, err)
	}
	return n, nil
}
