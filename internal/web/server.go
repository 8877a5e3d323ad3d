package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/chathub/internal/archive"
)

// Server renders the archive as HTML pages and exposes a JSON listing.
type Server struct {
	store  *archive.Store
	logger *slog.Logger
}

// NewHandler builds the web UI router over the given archive store.
func NewHandler(store *archive.Store, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, logger: logger}

	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/conversation/{id}", s.handleDetail)
	r.Get("/trending", s.handleTrending)
	r.Get("/roadmap", s.handleRoadmap)
	r.Get("/api/conversations", s.handleAPIConversations)
	r.Get("/health", handleHealth)

	return r
}

type indexData struct {
	Title         string
	Active        string
	Conversations []archive.SavedConversation
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.store.List(r.Context())
	if err != nil {
		s.renderError(w, err)
		return
	}

	s.render(w, http.StatusOK, "index", indexData{
		Title:         "Archive",
		Active:        "home",
		Conversations: conversations,
	})
}

type detailData struct {
	Title        string
	Active       string
	Conversation archive.SavedConversation
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conv, err := s.store.Get(id)
	if errors.Is(err, archive.ErrNotFound) {
		s.render(w, http.StatusNotFound, "notfound", indexData{Title: "Not Found", Active: "home"})
		return
	}
	if err != nil {
		s.renderError(w, err)
		return
	}

	title := conv.Title
	if title == "" {
		title = "Conversation"
	}
	s.render(w, http.StatusOK, "detail", detailData{
		Title:        title,
		Active:       "home",
		Conversation: conv,
	})
}

type trendingData struct {
	Title    string
	Active   string
	Trending []TrendingConversation
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "trending", trendingData{
		Title:    "Trending",
		Active:   "trending",
		Trending: trendingSample,
	})
}

type roadmapData struct {
	Title   string
	Active  string
	Roadmap []RoadmapFeature
}

func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "roadmap", roadmapData{
		Title:   "Roadmap",
		Active:  "roadmap",
		Roadmap: roadmapFeatures,
	})
}

func (s *Server) handleAPIConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.store.List(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if conversations == nil {
		conversations = []archive.SavedConversation{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(conversations)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data any) {
	if err := renderPage(w, status, page, data); err != nil {
		s.logger.Error("rendering page failed", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	s.logger.Error("loading archive failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
