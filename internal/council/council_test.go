package council

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// recordingObserver captures the event sequence for assertions.
// Deliberate invokes it synchronously, so no locking is needed.
type recordingObserver struct {
	sequence  []string
	stage1    map[string]string
	labels    LabelMap
	stage2    map[string]string
	aggregate []AggregateEntry
	final     string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		stage1: make(map[string]string),
		stage2: make(map[string]string),
	}
}

func (r *recordingObserver) Stage1Chunk(model, content string) {
	r.sequence = append(r.sequence, "stage1")
	r.stage1[model] += content
}

func (r *recordingObserver) Stage2Labels(labels LabelMap) {
	r.sequence = append(r.sequence, "labels")
	r.labels = labels
}

func (r *recordingObserver) Stage2Chunk(model, content string) {
	r.sequence = append(r.sequence, "stage2")
	r.stage2[model] += content
}

func (r *recordingObserver) AggregateReady(entries []AggregateEntry) {
	r.sequence = append(r.sequence, "aggregate")
	r.aggregate = entries
}

func (r *recordingObserver) FinalChunk(content string) {
	r.sequence = append(r.sequence, "final")
	r.final += content
}

// scriptedCouncil answers stage 1 with "<model> answer", ranks every
// review identically, and has the chairman close with a fixed line.
func scriptedCouncil(t *testing.T, models []string) (*Council, *fakeClient) {
	t.Helper()
	client := &fakeClient{stream: func(model, prompt string) ([]string, error) {
		switch {
		case strings.Contains(prompt, "You are evaluating different responses"):
			return []string{"All fine. FINAL RANKING:\n", "1. Response A\n2. Response B"}, nil
		case strings.Contains(prompt, "You are the Chairman"):
			return []string{"The council ", "has spoken."}, nil
		default:
			return []string{model, " answer"}, nil
		}
	}}
	return testCouncil(client, models), client
}

func TestDeliberate_FullRun(t *testing.T) {
	c, client := scriptedCouncil(t, []string{"m1", "m2"})
	obs := newRecordingObserver()

	res, err := c.Deliberate(context.Background(), "what is up?", obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Stage1) != 2 {
		t.Fatalf("expected 2 stage-1 responses, got %d", len(res.Stage1))
	}
	for i, r := range res.Stage1 {
		if r.Response != r.Model+" answer" {
			t.Errorf("stage1[%d] = %+v", i, r)
		}
		// Label assignment follows stage-1 record order exactly.
		if got := res.Labels[labelFor(i)]; got != r.Model {
			t.Errorf("label %s = %s, want %s", labelFor(i), got, r.Model)
		}
	}

	if len(res.Stage2) != 2 {
		t.Fatalf("expected 2 rankings, got %d", len(res.Stage2))
	}
	for _, r := range res.Stage2 {
		if !strings.Contains(r.Ranking, "FINAL RANKING:") {
			t.Errorf("ranking record missing marker: %q", r.Ranking)
		}
	}

	// Both judges ranked A then B, so the aggregate is total.
	if len(res.Aggregate) != 2 {
		t.Fatalf("expected 2 aggregate entries, got %+v", res.Aggregate)
	}
	if res.Aggregate[0].Model != res.Labels["Response A"] || res.Aggregate[0].AverageRank != 1 {
		t.Errorf("unexpected winner: %+v", res.Aggregate[0])
	}

	if res.Final != "The council has spoken." {
		t.Errorf("final = %q", res.Final)
	}

	// The judge prompt must enumerate responses under their labels.
	var rankingPrompt string
	for _, p := range client.prompts {
		if strings.Contains(p, "You are evaluating different responses") {
			rankingPrompt = p
			break
		}
	}
	if rankingPrompt == "" {
		t.Fatal("no ranking prompt was sent")
	}
	for i, r := range res.Stage1 {
		block := labelFor(i) + ":\n" + r.Response
		if !strings.Contains(rankingPrompt, block) {
			t.Errorf("ranking prompt missing block %q", block)
		}
	}
	if !strings.Contains(rankingPrompt, `Start with the line "FINAL RANKING:"`) {
		t.Error("ranking prompt missing format instruction")
	}

	// The chairman sees both rounds verbatim.
	var chairmanPrompt string
	for _, p := range client.prompts {
		if strings.Contains(p, "You are the Chairman") {
			chairmanPrompt = p
			break
		}
	}
	if chairmanPrompt == "" {
		t.Fatal("no chairman prompt was sent")
	}
	for _, r := range res.Stage1 {
		if !strings.Contains(chairmanPrompt, "Model: "+r.Model+"\nResponse: "+r.Response) {
			t.Errorf("chairman prompt missing stage-1 block for %s", r.Model)
		}
	}
	for _, r := range res.Stage2 {
		if !strings.Contains(chairmanPrompt, "Model: "+r.Model+"\nRanking: "+r.Ranking) {
			t.Errorf("chairman prompt missing stage-2 block for %s", r.Model)
		}
	}
}

func TestDeliberate_EventSequence(t *testing.T) {
	c, _ := scriptedCouncil(t, []string{"m1", "m2"})
	obs := newRecordingObserver()

	if _, err := c.Deliberate(context.Background(), "q", obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idx := func(kind string) int {
		for i, k := range obs.sequence {
			if k == kind {
				return i
			}
		}
		return -1
	}
	// Labels are announced once, after stage 1 and before any stage-2
	// fragment; aggregate lands before the first final chunk.
	last1 := -1
	for i, k := range obs.sequence {
		if k == "stage1" {
			last1 = i
		}
	}
	if li := idx("labels"); li < last1 {
		t.Errorf("labels at %d before last stage1 chunk at %d", li, last1)
	}
	if idx("labels") > idx("stage2") {
		t.Error("labels must precede stage-2 fragments")
	}
	if idx("aggregate") > idx("final") {
		t.Error("aggregate must precede final fragments")
	}
	if obs.final != "The council has spoken." {
		t.Errorf("final = %q", obs.final)
	}
}

func TestDeliberate_PartialFailure(t *testing.T) {
	client := &fakeClient{stream: func(model, prompt string) ([]string, error) {
		if model == "flaky" {
			return nil, errors.New("down")
		}
		switch {
		case strings.Contains(prompt, "You are evaluating different responses"):
			return []string{"FINAL RANKING:\n1. Response A"}, nil
		case strings.Contains(prompt, "You are the Chairman"):
			return []string{"done"}, nil
		default:
			return []string{"hello"}, nil
		}
	}}
	c := testCouncil(client, []string{"steady", "flaky"})
	obs := newRecordingObserver()

	res, err := c.Deliberate(context.Background(), "q", obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Stage1) != 1 || res.Stage1[0].Model != "steady" {
		t.Fatalf("expected only the steady model in stage 1, got %+v", res.Stage1)
	}
	// One survivor, one label.
	if len(res.Labels) != 1 || res.Labels["Response A"] != "steady" {
		t.Errorf("labels = %+v", res.Labels)
	}
	if len(res.Stage2) != 1 {
		t.Errorf("expected 1 ranking, got %+v", res.Stage2)
	}
	if len(res.Aggregate) != 1 || res.Aggregate[0].Model != "steady" {
		t.Errorf("aggregate = %+v", res.Aggregate)
	}
	if res.Final != "done" {
		t.Errorf("final = %q", res.Final)
	}
}

func TestDeliberate_AllMembersFail(t *testing.T) {
	client := &fakeClient{stream: func(model, prompt string) ([]string, error) {
		if strings.Contains(prompt, "You are the Chairman") {
			return []string{"nothing to synthesize"}, nil
		}
		return nil, errors.New("outage")
	}}
	c := testCouncil(client, []string{"m1", "m2"})
	obs := newRecordingObserver()

	res, err := c.Deliberate(context.Background(), "q", obs)
	if err != nil {
		t.Fatalf("phases must complete empty rather than error: %v", err)
	}

	if len(res.Stage1) != 0 || len(res.Labels) != 0 || len(res.Stage2) != 0 || len(res.Aggregate) != 0 {
		t.Errorf("expected empty rounds, got %+v", res)
	}
	// The chairman still runs against an empty transcript.
	if res.Final != "nothing to synthesize" {
		t.Errorf("final = %q", res.Final)
	}
}

func TestDeliberate_ChairmanFailure(t *testing.T) {
	client := &fakeClient{stream: func(model, prompt string) ([]string, error) {
		if strings.Contains(prompt, "You are the Chairman") {
			return nil, errors.New("chairman unavailable")
		}
		return []string{"text"}, nil
	}}
	c := testCouncil(client, []string{"m1"})
	obs := newRecordingObserver()

	res, err := c.Deliberate(context.Background(), "q", obs)
	if err == nil {
		t.Fatal("expected error when the chairman stream cannot start")
	}
	// Earlier rounds survive alongside the error.
	if res == nil || len(res.Stage1) != 1 {
		t.Errorf("expected partial result, got %+v", res)
	}
	if res.Final != "" {
		t.Errorf("expected empty final, got %q", res.Final)
	}
}
