package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/studydeck/internal/study"
)

type sessionEntry struct {
	controller *study.Controller
	projectID  string
	lastUsed   time.Time
}

// sessionStore keeps the open study sessions. Entries idle for longer than
// ttl are exited and dropped on the next access.
type sessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	ttl     time.Duration
	now     func() time.Time
	log     *slog.Logger
}

func newSessionStore(ttl time.Duration, now func() time.Time, logger *slog.Logger) *sessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionStore{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
		now:     now,
		log:     logger,
	}
}

func (st *sessionStore) add(projectID string, c *study.Controller) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()

	id := uuid.NewString()
	st.entries[id] = &sessionEntry{controller: c, projectID: projectID, lastUsed: st.now()}
	return id
}

func (st *sessionStore) get(id string) (*sessionEntry, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()

	e, ok := st.entries[id]
	if ok {
		e.lastUsed = st.now()
	}
	return e, ok
}

func (st *sessionStore) remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, id)
}

func (st *sessionStore) closeAll() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, e := range st.entries {
		st.exitLocked(id, e, "server closing")
	}
}

func (st *sessionStore) sweepLocked() {
	if st.ttl <= 0 {
		return
	}
	cutoff := st.now().Add(-st.ttl)
	for id, e := range st.entries {
		if e.lastUsed.Before(cutoff) {
			st.exitLocked(id, e, "idle")
		}
	}
}

func (st *sessionStore) exitLocked(id string, e *sessionEntry, reason string) {
	delete(st.entries, id)
	if err := e.controller.Exit(); err != nil && !errors.Is(err, study.ErrSessionClosed) {
		st.log.Debug("failed to exit study session", "session", id, "reason", reason, "error", err)
		return
	}
	st.log.Debug("study session dropped", "session", id, "reason", reason)
}

type sessionResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	study.Snapshot
}

func (s *Server) writeSession(w http.ResponseWriter, status int, id string, e *sessionEntry) {
	s.writeJSON(w, status, sessionResponse{ID: id, ProjectID: e.projectID, Snapshot: e.controller.Snapshot()})
}

// sessionError reports err unless it is a FetchError: those end the session,
// which is already visible in its snapshot.
func (s *Server) sessionError(w http.ResponseWriter, r *http.Request, id string, e *sessionEntry, err error) {
	var fe *study.FetchError
	if errors.As(err, &fe) {
		s.writeSession(w, http.StatusOK, id, e)
		return
	}
	s.writeError(w, r, err)
}

// Backend calls outlive the HTTP request that triggered them, so a client
// disconnect does not fail the session.
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (string, *sessionEntry, bool) {
	id := r.PathValue("id")
	e, ok := s.sessions.get(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return "", nil, false
	}
	return id, e, true
}

// handleStartSession counts the project's due cards and shows the first one.
func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := r.PathValue("id")
		if _, err := s.deck.GetProject(r.Context(), projectID); err != nil {
			s.writeError(w, r, err)
			return
		}
		total, err := s.review.DueCount(r.Context(), projectID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		c := study.NewController(s.review.Backend(projectID), total, s.log.With("project", projectID))
		id := s.sessions.add(projectID, c)
		e := &sessionEntry{controller: c, projectID: projectID}
		s.log.Info("study session started", "session", id, "project", projectID, "due", total)

		if err := c.LoadNext(detached(r)); err != nil {
			var fe *study.FetchError
			if !errors.As(err, &fe) {
				s.writeError(w, r, err)
				return
			}
		}
		s.writeSession(w, http.StatusCreated, id, e)
	}
}

func (s *Server) handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, e, ok := s.lookupSession(w, r)
		if !ok {
			return
		}
		s.writeSession(w, http.StatusOK, id, e)
	}
}

func (s *Server) handleReveal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, e, ok := s.lookupSession(w, r)
		if !ok {
			return
		}
		if err := e.controller.Reveal(); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeSession(w, http.StatusOK, id, e)
	}
}

func (s *Server) handleFeedback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, e, ok := s.lookupSession(w, r)
		if !ok {
			return
		}
		var body struct {
			Difficulty string `json:"difficulty"`
		}
		if err := decode(w, r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := e.controller.SubmitFeedback(detached(r), body.Difficulty); err != nil {
			s.sessionError(w, r, id, e, err)
			return
		}
		s.writeSession(w, http.StatusOK, id, e)
	}
}

// handleExitSession closes the session and tells the client where to go.
func (s *Server) handleExitSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, e, ok := s.lookupSession(w, r)
		if !ok {
			return
		}
		s.sessions.remove(id)
		if err := e.controller.Exit(); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.log.Info("study session exited", "session", id, "completed", e.controller.Snapshot().Completed)
		s.writeJSON(w, http.StatusOK, map[string]string{
			"return_to": "/projects/" + e.projectID,
		})
	}
}
