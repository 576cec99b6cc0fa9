package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itsjustmithun/ai-council/internal/council"
	"github.com/itsjustmithun/ai-council/internal/store"
)

// Deliberator runs a full council deliberation, forwarding events to
// the observer as they arrive.
type Deliberator interface {
	Deliberate(ctx context.Context, query string, obs council.Observer) (*council.Result, error)
	Models() []string
	Chairman() string
}

// ConversationStore is the persistence surface the API needs.
type ConversationStore interface {
	CreateConversation(ctx context.Context, title string) (*store.Conversation, error)
	ListConversations(ctx context.Context) ([]store.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*store.Conversation, []store.Message, error)
	DeleteConversation(ctx context.Context, id uuid.UUID) error
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	AddUserMessage(ctx context.Context, conversationID uuid.UUID, content string) error
	AddAssistantMessage(ctx context.Context, conversationID uuid.UUID, res *council.Result) error
	RecordAggregate(ctx context.Context, entries []council.AggregateEntry) error
	Leaderboard(ctx context.Context) ([]store.LeaderboardEntry, error)
}

// Publisher posts lifecycle events to the bus. May be nil when NATS
// is not configured.
type Publisher interface {
	Publish(subject string, data any) error
}

// TitleFunc produces a conversation title from the first user message.
type TitleFunc func(ctx context.Context, query string) string

type Server struct {
	router  *chi.Mux
	port    int
	store   ConversationStore
	council Deliberator
	title   TitleFunc
	bus     Publisher
	logger  *slog.Logger
}

func NewServer(port int, st ConversationStore, cl Deliberator, title TitleFunc, pub Publisher, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		store:   st,
		council: cl,
		title:   title,
		bus:     pub,
		logger:  logger,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/council/status", s.status)
		r.Get("/leaderboard", s.leaderboard)
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", s.createConversation)
			r.Get("/", s.listConversations)
			r.Get("/{id}", s.getConversation)
			r.Delete("/{id}", s.deleteConversation)
			r.Post("/{id}/messages", s.postMessage)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"models":   s.council.Models(),
		"chairman": s.council.Chairman(),
	})
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Leaderboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
