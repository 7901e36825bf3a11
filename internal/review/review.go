// Package review schedules due cards and records study feedback on top of
// storage. It is the backend study sessions talk to.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/fsrs"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/study"
	"github.com/conorfennell/studydeck/internal/validate"
)

// Store is the part of storage the review service needs.
type Store interface {
	NextDueCard(ctx context.Context, projectID string, now time.Time) (*domain.Flashcard, error)
	DueCount(ctx context.Context, projectID string, now time.Time) (int, error)
	GetCardState(ctx context.Context, flashcardID string) (*storage.CardState, error)
	RecordReview(ctx context.Context, cs *storage.CardState, log domain.ReviewLog) error
}

// Service selects due cards and applies ratings with the fsrs scheduler.
type Service struct {
	store  Store
	params *fsrs.Params
	now    func() time.Time
	log    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithParams overrides the scheduler parameters.
func WithParams(p *fsrs.Params) Option {
	return func(s *Service) { s.params = p }
}

// NewService creates a review service over store.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		params: fsrs.DefaultParams(),
		now:    time.Now,
		log:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DueCount counts the cards currently due in a project.
func (s *Service) DueCount(ctx context.Context, projectID string) (int, error) {
	return s.store.DueCount(ctx, projectID, s.now())
}

// Backend returns the study backend for one project.
func (s *Service) Backend(projectID string) study.Backend {
	return &projectBackend{svc: s, projectID: projectID}
}

// Apply records rating for a card and returns its new scheduling state.
func (s *Service) Apply(ctx context.Context, cmd study.FeedbackCommand) (*storage.CardState, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	rating, err := fsrsRating(cmd.Difficulty)
	if err != nil {
		return nil, err
	}

	cs, err := s.store.GetCardState(ctx, cmd.FlashcardID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next := s.params.NextState(fsrs.CardState{
		Stability:  cs.Stability,
		Difficulty: cs.Difficulty,
		LastReview: cs.LastReview,
	}, rating, now)

	cs.Stability = next.Stability
	cs.Difficulty = next.Difficulty
	cs.LastReview = next.LastReview
	cs.DueAt = fsrs.NextDueDate(next.Stability, now)
	cs.State = storage.StateReview

	entry := domain.ReviewLog{
		FlashcardID: cmd.FlashcardID,
		Rating:      string(cmd.Difficulty),
		ReviewedAt:  now,
		Stability:   cs.Stability,
		DueAt:       cs.DueAt,
	}
	if err := s.store.RecordReview(ctx, cs, entry); err != nil {
		return nil, err
	}

	s.log.Info("card reviewed",
		"card", cmd.FlashcardID,
		"rating", cmd.Difficulty,
		"stability", cs.Stability,
		"due", cs.DueAt,
	)
	return cs, nil
}

func fsrsRating(r study.Rating) (fsrs.Rating, error) {
	switch r {
	case study.Easy:
		return fsrs.Easy, nil
	case study.Good:
		return fsrs.Good, nil
	case study.Hard:
		return fsrs.Hard, nil
	}
	return 0, validate.Invalid("difficulty", "oneof", "easy good hard")
}

type projectBackend struct {
	svc       *Service
	projectID string
}

func (b *projectBackend) NextDue(ctx context.Context) (*study.StudyCard, error) {
	fc, err := b.svc.store.NextDueCard(ctx, b.projectID, b.svc.now())
	if err != nil {
		return nil, fmt.Errorf("next due card: %w", err)
	}
	if fc == nil {
		return nil, nil
	}
	return &study.StudyCard{ID: fc.ID, Front: fc.Front, Back: fc.Back}, nil
}

func (b *projectBackend) SubmitFeedback(ctx context.Context, cmd study.FeedbackCommand) error {
	_, err := b.svc.Apply(ctx, cmd)
	return err
}
