package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

// Card lifecycle states stored in flashcards.state.
const (
	StateNew    = 0
	StateReview = 2
)

// CardState is the scheduling state of a card.
type CardState struct {
	FlashcardID string
	Stability   float64
	Difficulty  float64
	DueAt       time.Time
	LastReview  time.Time // zero until the first review
	State       int
}

// GetCardState retrieves the scheduling state of a card.
func (db *DB) GetCardState(ctx context.Context, flashcardID string) (*CardState, error) {
	cs := CardState{FlashcardID: flashcardID}
	var due int64
	var last sql.NullInt64
	err := db.conn.QueryRowContext(ctx, `
		SELECT stability, difficulty, due_at, last_review, state
		FROM flashcards WHERE id = ?
	`, flashcardID).Scan(&cs.Stability, &cs.Difficulty, &due, &last, &cs.State)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card state %s: %w", flashcardID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get card state %s: %w", flashcardID, err)
	}
	cs.DueAt = fromUnix(due)
	cs.LastReview = fromNullUnix(last)
	return &cs, nil
}

// RecordReview stores the new scheduling state and appends the review log in
// one transaction.
func (db *DB) RecordReview(ctx context.Context, cs *CardState, log domain.ReviewLog) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE flashcards
		SET stability = ?, difficulty = ?, due_at = ?, last_review = ?, state = ?
		WHERE id = ?
	`,
		cs.Stability,
		cs.Difficulty,
		toUnix(cs.DueAt),
		nullUnix(cs.LastReview),
		cs.State,
		cs.FlashcardID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card state for %s: %w", cs.FlashcardID, err)
	}
	if err := expectOne(res, "card state "+cs.FlashcardID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO review_logs (flashcard_id, rating, reviewed_at, stability, due_at)
		VALUES (?, ?, ?, ?, ?)
	`, cs.FlashcardID, log.Rating, toUnix(log.ReviewedAt), log.Stability, toUnix(log.DueAt))
	if err != nil {
		return fmt.Errorf("failed to insert review log for %s: %w", cs.FlashcardID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review for %s: %w", cs.FlashcardID, err)
	}
	return nil
}

// ReviewLogs returns a card's review history, oldest first.
func (db *DB) ReviewLogs(ctx context.Context, flashcardID string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT flashcard_id, rating, reviewed_at, stability, due_at
		FROM review_logs WHERE flashcard_id = ? ORDER BY id
	`, flashcardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs for %s: %w", flashcardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var l domain.ReviewLog
		var reviewed, due int64
		if err := rows.Scan(&l.FlashcardID, &l.Rating, &reviewed, &l.Stability, &due); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		l.ReviewedAt = fromUnix(reviewed)
		l.DueAt = fromUnix(due)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
