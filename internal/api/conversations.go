package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itsjustmithun/ai-council/internal/bus"
	"github.com/itsjustmithun/ai-council/internal/store"
)

type createConversationRequest struct {
	Title string `json:"title"`
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if r.Body != nil {
		// Body is optional; an absent or empty title gets the default.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Title == "" {
		req.Title = "New Conversation"
	}

	conv, err := s.store.CreateConversation(r.Context(), req.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if s.bus != nil {
		if err := s.bus.Publish(bus.SubjectConversationCreated, map[string]any{
			"conversation_id": conv.ID.String(),
			"title":           conv.Title,
		}); err != nil {
			s.logger.Warn("failed to publish conversation created", "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.store.ListConversations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if convs == nil {
		convs = []store.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

type conversationResponse struct {
	store.Conversation
	Messages []store.Message `json:"messages"`
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conv, msgs, err := s.store.GetConversation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	writeJSON(w, http.StatusOK, conversationResponse{Conversation: *conv, Messages: msgs})
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.store.DeleteConversation(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
