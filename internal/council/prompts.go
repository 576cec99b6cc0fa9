package council

import (
	"fmt"
	"strings"
)

// The ranking instruction scaffold is a wire contract: judge models
// are told to emit the exact "FINAL RANKING:" shape that ParseRanking
// expects. Do not reword it casually.
const rankingPromptFormat = `You are evaluating different responses to the following question:

Question: %s

Here are the responses from different models (anonymized):

%s

Your task:
1. First, evaluate each response individually. For each response, explain what it does well and what it does poorly.
2. Then, at the very end of your response, provide a final ranking.

IMPORTANT: Your final ranking MUST be formatted EXACTLY as follows:
- Start with the line "FINAL RANKING:" (all caps, with colon)
- Then list the responses from best to worst as a numbered list
- Each line should be: number, period, space, then ONLY the response label (e.g., "1. Response A")
- Do not add any other text or explanations in the ranking section

Example of the correct format for your ENTIRE response:

Response A provides good detail on X but misses Y...
Response B is accurate but lacks depth on Z...
Response C offers the most comprehensive answer...

FINAL RANKING:
1. Response C
2. Response A
3. Response B

Now provide your evaluation and ranking:`

const chairmanPromptFormat = `You are the Chairman of an AI Council. Multiple AI models have provided responses to a user's question, and then ranked each other's responses.

Original Question: %s

STAGE 1 - Individual Responses:
%s

STAGE 2 - Peer Rankings:
%s

Your task as Chairman is to synthesize all of this information into a single, comprehensive, accurate answer to the user's original question. Consider:
- The individual responses and their insights
- The peer rankings and what they reveal about response quality
- Any patterns of agreement or disagreement

Provide a clear, well-reasoned final answer that represents the council's collective wisdom:`

const titlePromptFormat = `Generate a very short title (3-5 words maximum) that summarizes the following question.
The title should be concise and descriptive. Do not use quotes or punctuation in the title.

Question: %s

Title:`

// buildLabels assigns anonymized labels by slice position. The same
// order drives both the label map and the prompt enumeration, so
// judges' numeric positions line up with the map.
func buildLabels(responses []ModelResponse) LabelMap {
	labels := make(LabelMap, len(responses))
	for i, r := range responses {
		labels[labelFor(i)] = r.Model
	}
	return labels
}

func labelFor(i int) string {
	return fmt.Sprintf("Response %c", 'A'+i)
}

func buildRankingPrompt(query string, responses []ModelResponse) string {
	blocks := make([]string, len(responses))
	for i, r := range responses {
		blocks[i] = fmt.Sprintf("%s:\n%s", labelFor(i), r.Response)
	}
	return fmt.Sprintf(rankingPromptFormat, query, strings.Join(blocks, "\n\n"))
}

func buildChairmanPrompt(query string, stage1 []ModelResponse, stage2 []RankingRecord) string {
	responseBlocks := make([]string, len(stage1))
	for i, r := range stage1 {
		responseBlocks[i] = fmt.Sprintf("Model: %s\nResponse: %s", r.Model, r.Response)
	}
	rankingBlocks := make([]string, len(stage2))
	for i, r := range stage2 {
		rankingBlocks[i] = fmt.Sprintf("Model: %s\nRanking: %s", r.Model, r.Ranking)
	}
	return fmt.Sprintf(chairmanPromptFormat, query,
		strings.Join(responseBlocks, "\n\n"),
		strings.Join(rankingBlocks, "\n\n"))
}
