package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/conorfennell/studydeck/internal/deck"
	"github.com/conorfennell/studydeck/internal/importer"
	"github.com/conorfennell/studydeck/internal/review"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/study"
	"github.com/conorfennell/studydeck/internal/validate"
)

// maxBodyBytes bounds request bodies; generation text is the largest input.
const maxBodyBytes = 1 << 20

// Server holds the dependencies for the HTTP server.
type Server struct {
	deck     *deck.Service
	review   *review.Service
	importer *importer.Importer
	sessions *sessionStore
	router   *http.ServeMux
	log      *slog.Logger
}

// NewServer creates and configures a new server. Idle study sessions are
// dropped after sessionTTL.
func NewServer(deckSvc *deck.Service, reviewSvc *review.Service, imp *importer.Importer, sessionTTL time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		deck:     deckSvc,
		review:   reviewSvc,
		importer: imp,
		sessions: newSessionStore(sessionTTL, time.Now, logger),
		router:   http.NewServeMux(),
		log:      logger,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close exits every open study session.
func (s *Server) Close() {
	s.sessions.closeAll()
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /projects", s.handleListProjects())
	s.router.HandleFunc("POST /projects", s.handleCreateProject())
	s.router.HandleFunc("GET /projects/{id}", s.handleGetProject())
	s.router.HandleFunc("GET /projects/{id}/deck", s.handleGetDeck())

	s.router.HandleFunc("GET /projects/{id}/flashcards", s.handleListFlashcards())
	s.router.HandleFunc("POST /projects/{id}/flashcards", s.handleCreateFlashcard())
	s.router.HandleFunc("PUT /flashcards/{id}", s.handleUpdateFlashcard())
	s.router.HandleFunc("DELETE /flashcards/{id}", s.handleDeleteFlashcard())
	s.router.HandleFunc("POST /projects/{id}/generate", s.handleGenerate())

	s.router.HandleFunc("GET /projects/{id}/sources", s.handleListSources())
	s.router.HandleFunc("POST /projects/{id}/sources", s.handleAddSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /sync", s.handlePostSync())

	s.router.HandleFunc("POST /projects/{id}/sessions", s.handleStartSession())
	s.router.HandleFunc("GET /sessions/{id}", s.handleGetSession())
	s.router.HandleFunc("POST /sessions/{id}/reveal", s.handleReveal())
	s.router.HandleFunc("POST /sessions/{id}/feedback", s.handleFeedback())
	s.router.HandleFunc("DELETE /sessions/{id}", s.handleExitSession())
}

type errorResponse struct {
	Error  string                `json:"error"`
	Fields []validate.FieldError `json:"fields,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to write response", "error", err)
	}
}

// writeError maps service errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validate.ValidationError
	switch {
	case errors.As(err, &ve):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: ve.Fields})
	case errors.Is(err, storage.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, deck.ErrConflict):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, study.ErrInvalidTransition), errors.Is(err, study.ErrBusy):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, study.ErrSessionClosed):
		s.writeJSON(w, http.StatusGone, errorResponse{Error: "session closed"})
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// decode reads a JSON body into v. Malformed bodies are reported as a
// ValidationError on the body itself.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return validate.Invalid("body", "json", err.Error())
	}
	return nil
}
