package domain

// RetrievedChunk is a single retrieval hit: a stored chunk plus its cosine
// similarity to the query. Results are transient, produced per query.
type RetrievedChunk struct {
	// ChunkID is the matched chunk's identifier.
	ChunkID string

	// DocumentID links back to the source document.
	DocumentID string

	// Content is the chunk text, used to assemble the chat prompt.
	Content string

	// Metadata carries the stored chunk metadata (source path, ...).
	Metadata map[string]any

	// Similarity is the cosine similarity to the query vector.
	// 1.0 is an exact match.
	Similarity float64
}

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleSystem is the grounding instruction turn.
	RoleSystem Role = "system"

	// RoleUser is a user question.
	RoleUser Role = "user"

	// RoleAssistant is a generated answer.
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role
	Content string
}

// Conversation is the chat state threaded through the orchestrator.
// The zero value is an empty conversation.
type Conversation struct {
	Turns []Turn
}

// Append returns a copy of the conversation with an extra turn.
// Conversations are treated as values so callers keep earlier states.
func (c Conversation) Append(role Role, content string) Conversation {
	turns := make([]Turn, 0, len(c.Turns)+1)
	turns = append(turns, c.Turns...)
	turns = append(turns, Turn{Role: role, Content: content})
	return Conversation{Turns: turns}
}

// Tail returns at most n of the most recent turns.
func (c Conversation) Tail(n int) []Turn {
	if n <= 0 || len(c.Turns) <= n {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}
