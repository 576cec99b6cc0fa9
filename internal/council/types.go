package council

import (
	"context"
	"time"

	"github.com/itsjustmithun/ai-council/internal/openrouter"
)

// ModelClient is the subset of the OpenRouter client the council uses.
type ModelClient interface {
	Stream(ctx context.Context, model string, messages []openrouter.Message) (<-chan string, error)
	Complete(ctx context.Context, model string, messages []openrouter.Message, timeout time.Duration) (string, error)
}

// ModelResponse is one model's completed stage-1 answer.
type ModelResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// RankingRecord is one model's raw stage-2 review text, pre-parse.
type RankingRecord struct {
	Model   string `json:"model"`
	Ranking string `json:"ranking"`
}

// LabelMap maps anonymized labels ("Response A") to model identifiers.
// Fixed for the lifetime of one review round.
type LabelMap map[string]string

// AggregateEntry is one model's consensus standing, derived fresh on
// each aggregation.
type AggregateEntry struct {
	Model         string  `json:"model"`
	AverageRank   float64 `json:"average_rank"`
	RankingsCount int     `json:"rankings_count"`
}

// Event is one fragment from a multiplexed stream: which model
// produced it and what it said.
type Event struct {
	Model   string
	Content string
}

// Result is the full record of one deliberation.
type Result struct {
	Stage1    []ModelResponse  `json:"stage1"`
	Labels    LabelMap         `json:"label_to_model"`
	Stage2    []RankingRecord  `json:"stage2"`
	Aggregate []AggregateEntry `json:"aggregate_rankings"`
	Final     string           `json:"final"`
}

// Observer receives deliberation events as they arrive, before the
// stage that produced them has finished. Callbacks run on the
// deliberation goroutine; a blocking observer stalls the pipeline.
type Observer interface {
	Stage1Chunk(model, content string)
	Stage2Labels(labels LabelMap)
	Stage2Chunk(model, content string)
	AggregateReady(entries []AggregateEntry)
	FinalChunk(content string)
}
