package retrieval

import (
	"github.com/tmc/langchaingo/prompts"
)

// groundedPrompt restricts the model to the supplied context and to the exact
// set of active documents.
var groundedPrompt = prompts.NewPromptTemplate(`You are a helpful AI assistant. Answer questions ONLY based on the user's ACTIVE documents.

RULES:
- The user currently has exactly {{.count}} active {{if eq .count 1}}document{{else}}documents{{end}}.
- Use ONLY the provided context below.
- Do NOT mention or count documents that are not in this list.
- If asked to list documents, list ONLY the {{.count}} active {{if eq .count 1}}one{{else}}ones{{end}}.
- If the context does not contain the answer, say so instead of guessing.

CONTEXT:
{{.context}}

User Question: {{.question}}

Answer:`, []string{"count", "context", "question"})

// BuildPrompt renders the grounded prompt for a question.
func BuildPrompt(activeCount int, context, question string) (string, error) {
	return groundedPrompt.Format(map[string]any{
		"count":    activeCount,
		"context":  context,
		"question": question,
	})
}
