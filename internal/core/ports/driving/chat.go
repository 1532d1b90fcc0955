package driving

import (
	"context"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
)

// ChatService answers questions grounded in retrieved document chunks.
type ChatService interface {
	// Answer retrieves context for the question, assembles a bounded
	// prompt from the ranked chunks plus conversation history, and
	// delegates generation to the LLM. It returns the answer text and
	// the updated conversation state.
	Answer(ctx context.Context, conv domain.Conversation, question string) (string, domain.Conversation, error)
}
