package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

const sourceColumns = `id, project_id, path, type, last_scanned`

func scanSource(row rowScanner) (*domain.Source, error) {
	var s domain.Source
	var last sql.NullInt64
	if err := row.Scan(&s.ID, &s.ProjectID, &s.Path, &s.Type, &last); err != nil {
		return nil, err
	}
	s.LastScanned = fromNullUnix(last)
	return &s, nil
}

// InsertSource inserts a new source for a project and returns its ID.
func (db *DB) InsertSource(ctx context.Context, projectID, path, sourceType string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (project_id, path, type) VALUES (?, ?, ?)
	`, projectID, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path, or nil when it is unknown.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*domain.Source, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM sources WHERE path = ?`, path)
	s, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return s, nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources(ctx context.Context) ([]domain.Source, error) {
	return db.querySources(ctx, "all sources", `SELECT `+sourceColumns+` FROM sources ORDER BY id`)
}

// SourcesByProject retrieves the sources of one project.
func (db *DB) SourcesByProject(ctx context.Context, projectID string) ([]domain.Source, error) {
	return db.querySources(ctx, "sources for project "+projectID,
		`SELECT `+sourceColumns+` FROM sources WHERE project_id = ? ORDER BY id`, projectID)
}

func (db *DB) querySources(ctx context.Context, what, query string, args ...any) ([]domain.Source, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source together with the cards imported from it.
func (db *DB) DeleteSource(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("source %d", id))
}

// UpdateSourceLastScanned records when a source was last reconciled.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, toUnix(at), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
