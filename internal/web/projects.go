package web

import (
	"net/http"
	"strconv"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/validate"
)

func (s *Server) handleListProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := s.deck.ListProjects(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if projects == nil {
			projects = []domain.Project{}
		}
		s.writeJSON(w, http.StatusOK, projects)
	}
}

func (s *Server) handleCreateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd domain.CreateProject
		if err := decode(w, r, &cmd); err != nil {
			s.writeError(w, r, err)
			return
		}
		p, err := s.deck.CreateProject(r.Context(), cmd)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, p)
	}
}

func (s *Server) handleGetProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.deck.GetProject(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, p)
	}
}

// handleGetDeck reports how many cards are due in a project.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, err := s.deck.GetProject(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		due, err := s.review.DueCount(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"due_count":     due,
			"has_due_cards": due > 0,
		})
	}
}

func (s *Server) handleListFlashcards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.deck.ListFlashcards(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if cards == nil {
			cards = []domain.Flashcard{}
		}
		s.writeJSON(w, http.StatusOK, cards)
	}
}

func (s *Server) handleCreateFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd domain.CreateFlashcard
		if err := decode(w, r, &cmd); err != nil {
			s.writeError(w, r, err)
			return
		}
		fc, err := s.deck.CreateFlashcard(r.Context(), r.PathValue("id"), cmd)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, fc)
	}
}

func (s *Server) handleUpdateFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd domain.CreateFlashcard
		if err := decode(w, r, &cmd); err != nil {
			s.writeError(w, r, err)
			return
		}
		fc, err := s.deck.UpdateFlashcard(r.Context(), r.PathValue("id"), cmd)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, fc)
	}
}

func (s *Server) handleDeleteFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deck.DeleteFlashcard(r.Context(), r.PathValue("id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleGenerate returns proposals only; the client saves the ones it keeps.
func (s *Server) handleGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd domain.GenerateFlashcards
		if err := decode(w, r, &cmd); err != nil {
			s.writeError(w, r, err)
			return
		}
		drafts, err := s.deck.Generate(r.Context(), r.PathValue("id"), cmd)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if drafts == nil {
			drafts = []domain.Draft{}
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"proposals": drafts})
	}
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.deck.ListSources(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if sources == nil {
			sources = []domain.Source{}
		}
		s.writeJSON(w, http.StatusOK, sources)
	}
}

func (s *Server) handleAddSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Path string `json:"path"`
		}
		if err := decode(w, r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
		src, err := s.deck.AddSource(r.Context(), domain.AddSource{ProjectID: r.PathValue("id"), Path: body.Path})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, src)
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.writeError(w, r, validate.Invalid("id", "numeric", ""))
			return
		}
		if err := s.deck.DeleteSource(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePostSync runs a sync in the foreground and returns one report per
// source.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := s.importer.RunAll(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"sources": reports})
	}
}
