package council

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/itsjustmithun/ai-council/internal/metrics"
	"github.com/itsjustmithun/ai-council/internal/openrouter"
)

// Council runs the three-stage deliberation: every member answers the
// question, every member reviews the anonymized answers, and the
// chairman synthesizes a final response from both rounds.
type Council struct {
	client   ModelClient
	models   []string
	chairman string
	logger   *slog.Logger
}

func New(client ModelClient, models []string, chairman string, logger *slog.Logger) *Council {
	return &Council{
		client:   client,
		models:   models,
		chairman: chairman,
		logger:   logger,
	}
}

// Models returns the council roster.
func (c *Council) Models() []string {
	return c.models
}

// Chairman returns the synthesis model.
func (c *Council) Chairman() string {
	return c.chairman
}

// Deliberate runs all three stages in sequence, forwarding fragments
// to obs as they arrive and returning the accumulated result.
//
// Member faults never abort a stage: a phase where every model failed
// simply produces empty records, and later phases tolerate the holes.
// The only returned error is a chairman stream that could not start,
// and even then the partial Result is returned alongside it.
func (c *Council) Deliberate(ctx context.Context, query string, obs Observer) (*Result, error) {
	res := &Result{}

	// Stage 1: every member answers the raw question.
	start := time.Now()
	messages := []openrouter.Message{{Role: "user", Content: query}}
	acc := newAccumulator()
	for ev := range c.fanOut(ctx, c.models, messages) {
		obs.Stage1Chunk(ev.Model, ev.Content)
		acc.add(ev)
	}
	res.Stage1 = acc.responses()
	metrics.StageDuration.WithLabelValues("collect_responses").Observe(time.Since(start).Seconds())
	c.logger.Info("stage 1 complete", "responses", len(res.Stage1), "models", len(c.models))

	// Stage 2: every member reviews the anonymized answers. The label
	// map is fixed here and announced to the observer before any
	// review fragments.
	start = time.Now()
	res.Labels = buildLabels(res.Stage1)
	obs.Stage2Labels(res.Labels)
	rankingPrompt := buildRankingPrompt(query, res.Stage1)
	messages = []openrouter.Message{{Role: "user", Content: rankingPrompt}}
	acc = newAccumulator()
	for ev := range c.fanOut(ctx, c.models, messages) {
		obs.Stage2Chunk(ev.Model, ev.Content)
		acc.add(ev)
	}
	res.Stage2 = acc.rankings()
	metrics.StageDuration.WithLabelValues("collect_rankings").Observe(time.Since(start).Seconds())
	c.logger.Info("stage 2 complete", "rankings", len(res.Stage2))

	res.Aggregate = Aggregate(res.Stage2, res.Labels)
	obs.AggregateReady(res.Aggregate)

	// Stage 3: single streaming call to the chairman, no multiplexing.
	start = time.Now()
	chairmanPrompt := buildChairmanPrompt(query, res.Stage1, res.Stage2)
	messages = []openrouter.Message{{Role: "user", Content: chairmanPrompt}}
	ch, err := c.client.Stream(ctx, c.chairman, messages)
	if err != nil {
		metrics.ModelFailures.WithLabelValues(c.chairman).Inc()
		return res, fmt.Errorf("chairman stream: %w", err)
	}
	var final []byte
	for chunk := range ch {
		if chunk == "" {
			continue
		}
		obs.FinalChunk(chunk)
		final = append(final, chunk...)
	}
	res.Final = string(final)
	metrics.StageDuration.WithLabelValues("synthesize").Observe(time.Since(start).Seconds())
	metrics.DeliberationsTotal.Inc()
	c.logger.Info("deliberation complete", "final_len", len(res.Final))

	return res, nil
}
