package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/itsjustmithun/ai-council/internal/council"
)

// sseObserver renders deliberation events as server-sent events. It
// implements council.Observer and runs on the deliberation goroutine,
// so writes are already serialized.
type sseObserver struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEObserver(w http.ResponseWriter) (*sseObserver, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseObserver{w: w, flusher: flusher}, nil
}

func (o *sseObserver) send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return // payloads are our own structs; this does not happen
	}
	fmt.Fprintf(o.w, "event: %s\ndata: %s\n\n", event, data)
	o.flusher.Flush()
}

func (o *sseObserver) Stage1Chunk(model, content string) {
	o.send("stage1_chunk", map[string]string{"model": model, "content": content})
}

func (o *sseObserver) Stage2Labels(labels council.LabelMap) {
	o.send("stage2_labels", map[string]any{"label_to_model": labels})
}

func (o *sseObserver) Stage2Chunk(model, content string) {
	o.send("stage2_chunk", map[string]string{"model": model, "content": content})
}

func (o *sseObserver) AggregateReady(entries []council.AggregateEntry) {
	if entries == nil {
		entries = []council.AggregateEntry{}
	}
	o.send("aggregate", map[string]any{"aggregate_rankings": entries})
}

func (o *sseObserver) FinalChunk(content string) {
	o.send("stage3_chunk", map[string]string{"content": content})
}
