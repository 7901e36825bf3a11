package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/studydeck/internal/domain"
)

// CreateProject stores p, assigning an id when it has none.
func (db *DB) CreateProject(ctx context.Context, p *domain.Project) error {
	if p.ID == "" {
		p.ID = newID()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, toUnix(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert project %s: %w", p.Name, err)
	}
	return nil
}

// GetProject retrieves a project by id.
func (db *DB) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	var created int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, description, created_at FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	p.CreatedAt = fromUnix(created)
	return &p, nil
}

// ListProjects returns all projects, oldest first.
func (db *DB) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, description, created_at FROM projects ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		var created int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &created); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		p.CreatedAt = fromUnix(created)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
