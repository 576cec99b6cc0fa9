package council

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/itsjustmithun/ai-council/internal/openrouter"
)

const fallbackTitle = "New Conversation"

const titleTimeout = 30 * time.Second

// GenerateTitle asks a fast model for a short conversation title
// based on the first user message. Any fault resolves to the fixed
// fallback; title generation never surfaces an error.
func GenerateTitle(ctx context.Context, client ModelClient, model, query string) string {
	prompt := fmt.Sprintf(titlePromptFormat, query)
	messages := []openrouter.Message{{Role: "user", Content: prompt}}

	text, err := client.Complete(ctx, model, messages, titleTimeout)
	if err != nil {
		return fallbackTitle
	}

	title := strings.Trim(strings.TrimSpace(text), `"'`)
	if title == "" {
		return fallbackTitle
	}
	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:47]) + "..."
	}
	return title
}
