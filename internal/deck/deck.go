// Package deck manages projects, their flashcards and card sources. Every
// inbound command is validated here before it reaches storage.
package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/fingerprint"
	"github.com/conorfennell/studydeck/internal/generate"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/validate"
)

// ErrConflict is returned when a command would duplicate an existing card
// or source.
var ErrConflict = errors.New("deck: already exists")

// Service is the application service behind the project and flashcard
// endpoints.
type Service struct {
	db        *storage.DB
	generator generate.Generator
	now       func() time.Time
	log       *slog.Logger
}

// NewService creates a deck service. A nil generator falls back to
// generate.RuleBased.
func NewService(db *storage.DB, generator generate.Generator, logger *slog.Logger) *Service {
	if generator == nil {
		generator = generate.RuleBased{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, generator: generator, now: time.Now, log: logger}
}

// CreateProject validates and stores a new project.
func (s *Service) CreateProject(ctx context.Context, cmd domain.CreateProject) (*domain.Project, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	p := &domain.Project{
		Name:        strings.TrimSpace(cmd.Name),
		Description: strings.TrimSpace(cmd.Description),
		CreatedAt:   s.now(),
	}
	if err := s.db.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("project created", "project", p.ID, "name", p.Name)
	return p, nil
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return s.db.GetProject(ctx, id)
}

// ListProjects returns every project.
func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.db.ListProjects(ctx)
}

// CreateFlashcard validates cmd and adds a card to the project, due now.
func (s *Service) CreateFlashcard(ctx context.Context, projectID string, cmd domain.CreateFlashcard) (*domain.Flashcard, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	if _, err := s.db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	now := s.now()
	fc := &domain.Flashcard{
		ProjectID: projectID,
		Front:     strings.TrimSpace(cmd.Front),
		Back:      strings.TrimSpace(cmd.Back),
		CreatedAt: now,
		UpdatedAt: now,
	}
	fc.Hash = fingerprint.Hash(domain.Draft{Front: fc.Front, Back: fc.Back})
	dup, err := s.db.FindFlashcardByHash(ctx, projectID, fc.Hash)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, fmt.Errorf("%w: flashcard %s has the same content", ErrConflict, dup.ID)
	}
	if err := s.db.InsertFlashcard(ctx, fc, now); err != nil {
		return nil, err
	}
	s.log.Debug("flashcard created", "project", projectID, "card", fc.ID)
	return fc, nil
}

// UpdateFlashcard validates cmd and replaces the card's content. The card's
// review schedule is left alone, and an imported card keeps its link to the
// draft it came from.
func (s *Service) UpdateFlashcard(ctx context.Context, id string, cmd domain.CreateFlashcard) (*domain.Flashcard, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	fc, err := s.db.GetFlashcard(ctx, id)
	if err != nil {
		return nil, err
	}
	fc.Front = strings.TrimSpace(cmd.Front)
	fc.Back = strings.TrimSpace(cmd.Back)
	fc.Hash = fingerprint.Hash(domain.Draft{Front: fc.Front, Back: fc.Back, Context: fc.Context})
	fc.UpdatedAt = s.now()
	if err := s.db.UpdateFlashcardContent(ctx, fc); err != nil {
		return nil, err
	}
	return fc, nil
}

// DeleteFlashcard removes a card.
func (s *Service) DeleteFlashcard(ctx context.Context, id string) error {
	return s.db.DeleteFlashcard(ctx, id)
}

// ListFlashcards returns the cards of a project.
func (s *Service) ListFlashcards(ctx context.Context, projectID string) ([]domain.Flashcard, error) {
	if _, err := s.db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.db.ListFlashcards(ctx, projectID)
}

// Generate validates cmd and returns flashcard proposals. Nothing is stored;
// accepted proposals come back through CreateFlashcard.
func (s *Service) Generate(ctx context.Context, projectID string, cmd domain.GenerateFlashcards) ([]domain.Draft, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	if _, err := s.db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	drafts, err := s.generator.Generate(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("generate flashcards: %w", err)
	}
	s.log.Info("flashcards generated", "project", projectID, "requested", cmd.DesiredCount, "proposed", len(drafts))
	return drafts, nil
}

// AddSource registers a local directory or git repository for import. Paths
// that look like git remotes are stored as git sources.
func (s *Service) AddSource(ctx context.Context, cmd domain.AddSource) (*domain.Source, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	if _, err := s.db.GetProject(ctx, cmd.ProjectID); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(cmd.Path)
	existing, err := s.db.FindSourceByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: source %s is already registered", ErrConflict, path)
	}
	src := &domain.Source{ProjectID: cmd.ProjectID, Path: path, Type: SourceType(path)}
	id, err := s.db.InsertSource(ctx, src.ProjectID, src.Path, src.Type)
	if err != nil {
		return nil, err
	}
	src.ID = id
	s.log.Info("source added", "project", src.ProjectID, "path", src.Path, "type", src.Type)
	return src, nil
}

// ListSources returns the sources of a project.
func (s *Service) ListSources(ctx context.Context, projectID string) ([]domain.Source, error) {
	if _, err := s.db.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.db.SourcesByProject(ctx, projectID)
}

// DeleteSource removes a source and the cards imported from it.
func (s *Service) DeleteSource(ctx context.Context, id int64) error {
	return s.db.DeleteSource(ctx, id)
}

// SourceType guesses whether path names a git remote or a local directory.
func SourceType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") || strings.HasPrefix(path, "https://") {
		return domain.SourceGit
	}
	return domain.SourceLocal
}
