package council

import (
	"context"

	"github.com/itsjustmithun/ai-council/internal/metrics"
	"github.com/itsjustmithun/ai-council/internal/openrouter"
)

// mergeBuffer sizes the fan-in channel. Large enough that a fast
// worker is never stuck behind a consumer that is still rendering the
// previous fragment.
const mergeBuffer = 256

// fragment is what a worker puts on the merge channel: either a
// content chunk or the worker's single terminal marker.
type fragment struct {
	model   string
	content string
	done    bool
}

// fanOut drives one streaming call per model concurrently and merges
// the fragments into a single event channel. Per-model fragment order
// is preserved; interleaving across models reflects arrival timing.
//
// A worker that errors mid-stream is treated as silently finished: it
// still sends its terminal marker, so the merge loop always observes
// exactly len(models) completions and the output channel always
// closes. The returned channel is single-pass; abandoning it leaves
// in-flight workers running with their output discarded.
func (c *Council) fanOut(ctx context.Context, models []string, messages []openrouter.Message) <-chan Event {
	queue := make(chan fragment, mergeBuffer)

	for _, model := range models {
		go c.streamWorker(ctx, model, messages, queue)
	}

	out := make(chan Event, mergeBuffer)
	go func() {
		defer close(out)
		remaining := len(models)
		for remaining > 0 {
			f := <-queue
			if f.done {
				remaining--
				continue
			}
			out <- Event{Model: f.model, Content: f.content}
		}
	}()
	return out
}

func (c *Council) streamWorker(ctx context.Context, model string, messages []openrouter.Message, queue chan<- fragment) {
	// The terminal marker is unconditional: completion accounting must
	// hold whether the stream succeeded, failed, or never started.
	defer func() { queue <- fragment{model: model, done: true} }()

	ch, err := c.client.Stream(ctx, model, messages)
	if err != nil {
		c.logger.Warn("model stream failed", "model", model, "error", err)
		metrics.ModelFailures.WithLabelValues(model).Inc()
		return
	}
	for chunk := range ch {
		if chunk == "" {
			continue
		}
		queue <- fragment{model: model, content: chunk}
	}
}

// accumulator assembles per-model transcripts from interleaved
// events. Models are ordered by first fragment seen; a model that
// emitted nothing contributes no record.
type accumulator struct {
	order []string
	parts map[string][]byte
}

func newAccumulator() *accumulator {
	return &accumulator{parts: make(map[string][]byte)}
}

func (a *accumulator) add(ev Event) {
	if _, seen := a.parts[ev.Model]; !seen {
		a.order = append(a.order, ev.Model)
	}
	a.parts[ev.Model] = append(a.parts[ev.Model], ev.Content...)
}

func (a *accumulator) responses() []ModelResponse {
	out := make([]ModelResponse, 0, len(a.order))
	for _, model := range a.order {
		out = append(out, ModelResponse{Model: model, Response: string(a.parts[model])})
	}
	return out
}

func (a *accumulator) rankings() []RankingRecord {
	out := make([]RankingRecord, 0, len(a.order))
	for _, model := range a.order {
		out = append(out, RankingRecord{Model: model, Ranking: string(a.parts[model])})
	}
	return out
}
