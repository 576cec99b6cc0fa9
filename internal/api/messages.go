package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/itsjustmithun/ai-council/internal/bus"
	"github.com/itsjustmithun/ai-council/internal/council"
)

var errEmptyContent = errors.New("content is required")

type postMessageRequest struct {
	Content string `json:"content"`
}

// postMessage runs a full deliberation for one user message and
// streams the stages back as server-sent events. The accumulated
// result is persisted once the stream ends; a caller that disconnects
// mid-stream still gets the record stored.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, errEmptyContent)
		return
	}

	conv, _, err := s.store.GetConversation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	obs, err := newSSEObserver(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// Persistence and title generation continue after the client
	// disconnects, so they run off the request context.
	bg := context.WithoutCancel(r.Context())

	if err := s.store.AddUserMessage(bg, id, req.Content); err != nil {
		s.logger.Error("failed to store user message", "conversation", id, "error", err)
		obs.send("error", map[string]string{"message": "failed to store message"})
		return
	}

	// First message names the conversation; done off the hot path.
	if conv.Title == "New Conversation" && s.title != nil {
		go func() {
			title := s.title(bg, req.Content)
			if err := s.store.UpdateTitle(bg, id, title); err != nil {
				s.logger.Warn("failed to update title", "conversation", id, "error", err)
			}
		}()
	}

	res, err := s.council.Deliberate(r.Context(), req.Content, obs)
	if res == nil {
		res = &council.Result{}
	}
	if err != nil {
		s.logger.Error("deliberation failed", "conversation", id, "error", err)
		obs.send("error", map[string]string{"message": err.Error()})
		// res still carries the completed rounds; fall through and
		// persist what the council managed to produce.
	}

	if err := s.store.AddAssistantMessage(bg, id, res); err != nil {
		s.logger.Error("failed to store assistant message", "conversation", id, "error", err)
	}
	if len(res.Aggregate) > 0 {
		if err := s.store.RecordAggregate(bg, res.Aggregate); err != nil {
			s.logger.Error("failed to record aggregate", "conversation", id, "error", err)
		}
	}

	if s.bus != nil {
		if err := s.bus.Publish(bus.SubjectDeliberationCompleted, map[string]any{
			"conversation_id":    id.String(),
			"responses":          len(res.Stage1),
			"rankings":           len(res.Stage2),
			"aggregate_rankings": res.Aggregate,
		}); err != nil {
			s.logger.Warn("failed to publish deliberation completed", "error", err)
		}
	}

	obs.send("done", map[string]string{"conversation_id": id.String()})
}
