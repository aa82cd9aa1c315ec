// ABOUTME: Prompt construction for grounded and ungrounded answer generation
// ABOUTME: Context lines carry a text preview and a link back to the workspace
package retrieval

import (
	"fmt"
	"strings"

	"github.com/harper/notion-rag/internal/models"
)

// RefusalPhrase is what the model is told to say when nothing relevant exists
const RefusalPhrase = "I couldn't find that in the notion workspace."

const systemPrompt = "You are a knowledgeable assistant answering questions based on internal company notion workspace.\n" +
	"If you cannot find a direct answer, you may guide the user to the most relevant section or suggest where they can look further, as long as it comes from the context.\n" +
	"Do not make up facts. If nothing is relevant, say: '" + RefusalPhrase + "'\n" +
	"Do not mention 'context' or numerical references like 'context 5' in your responses."

// BuildMessages assembles the system prompt, the replayable history, and the
// user turn. A nil chunk list produces the no-context instruction.
func BuildMessages(query string, history []models.Message, chunks []models.TextChunk, previewChars int, linkBase string) []models.Message {
	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, models.Message{Role: models.RoleSystem, Content: systemPrompt})

	for _, m := range history {
		if m.IsConversational() {
			messages = append(messages, m)
		}
	}

	return append(messages, models.Message{
		Role:    models.RoleUser,
		Content: userMessage(query, chunks, previewChars, linkBase),
	})
}

func userMessage(query string, chunks []models.TextChunk, previewChars int, linkBase string) string {
	if len(chunks) == 0 {
		return "No internal documentation was found related to the question below. " +
			"If you cannot find an answer based on known internal content, respond with: " +
			"'" + RefusalPhrase + "'\n\n" +
			"Question: " + query
	}

	lines := make([]string, len(chunks))
	for i, c := range chunks {
		lines[i] = fmt.Sprintf("%d. [%s...](%s)", i+1, preview(c.Text, previewChars), c.Source.URL(linkBase))
	}
	return "Context:\n" + strings.Join(lines, "\n\n") + "\n\nQuestion: " + query
}

// preview returns at most n runes of s
func preview(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
