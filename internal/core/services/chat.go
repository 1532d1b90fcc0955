package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driving"
	"github.com/marrow-labs/docchat-cli/internal/logger"
)

// Ensure ChatOrchestrator implements the interface.
var _ driving.ChatService = (*ChatOrchestrator)(nil)

// groundingPrompt keeps answers inside the retrieved context instead of the
// model's general knowledge.
const groundingPrompt = `You are a helpful assistant that only answers questions based on the provided context.
If you cannot find the answer in the context, say "I cannot answer this question based on the available documents."
Do not make up or infer information that is not directly supported by the context.`

const (
	defaultChatTopK       = 4
	defaultMaxHistory     = 10
	defaultMaxContextSize = 8000
)

// ChatConfig configures the chat orchestrator.
type ChatConfig struct {
	// TopK is the number of chunks retrieved per question. Zero means
	// defaultChatTopK.
	TopK int

	// MaxHistoryTurns bounds how many past turns are replayed to the
	// model. Zero means defaultMaxHistory.
	MaxHistoryTurns int

	// MaxContextChars bounds the total size of the context block.
	// Chunks past the budget are dropped, lowest-ranked first. Zero
	// means defaultMaxContextSize.
	MaxContextChars int

	// Temperature is passed through to the model.
	Temperature float64
}

// ChatOrchestrator answers questions by retrieving chunks, assembling a
// grounded prompt and delegating generation to the model.
type ChatOrchestrator struct {
	retriever driving.Retriever
	llm       driven.LLMService
	cfg       ChatConfig
}

// NewChatOrchestrator creates a chat orchestrator.
func NewChatOrchestrator(retriever driving.Retriever, llm driven.LLMService, cfg ChatConfig) *ChatOrchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultChatTopK
	}
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = defaultMaxHistory
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = defaultMaxContextSize
	}
	return &ChatOrchestrator{
		retriever: retriever,
		llm:       llm,
		cfg:       cfg,
	}
}

// Answer retrieves context for the question, builds the prompt and returns
// the model's answer with the updated conversation.
func (o *ChatOrchestrator) Answer(ctx context.Context, conv domain.Conversation, question string) (string, domain.Conversation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", conv, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	chunks, err := o.retriever.Retrieve(ctx, question, o.cfg.TopK)
	if err != nil {
		return "", conv, fmt.Errorf("retrieve context: %w", err)
	}

	messages := o.buildMessages(conv, chunks, question)

	answer, err := o.llm.Chat(ctx, messages, driven.ChatOptions{
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return "", conv, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	answer = strings.TrimSpace(answer)

	updated := conv.Append(domain.RoleUser, question).Append(domain.RoleAssistant, answer)
	return answer, updated, nil
}

// buildMessages assembles the system instruction, bounded history and the
// context-plus-question turn.
func (o *ChatOrchestrator) buildMessages(conv domain.Conversation, chunks []domain.RetrievedChunk, question string) []driven.ChatMessage {
	messages := []driven.ChatMessage{
		{Role: string(domain.RoleSystem), Content: groundingPrompt},
	}

	for _, turn := range conv.Tail(o.cfg.MaxHistoryTurns) {
		if turn.Role == domain.RoleSystem {
			continue
		}
		messages = append(messages, driven.ChatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	context := o.contextBlock(chunks)
	if context == "" {
		context = "(no relevant documents found)"
	}
	messages = append(messages, driven.ChatMessage{
		Role:    string(domain.RoleUser),
		Content: fmt.Sprintf("Context: %s\n\nQuestion: %s", context, question),
	})
	return messages
}

// contextBlock joins retrieved chunks into one context string, keeping
// higher-ranked chunks when the character budget runs out.
func (o *ChatOrchestrator) contextBlock(chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if b.Len()+len(c.Content) > o.cfg.MaxContextChars && b.Len() > 0 {
			logger.Debug("Context budget reached, dropping %d lower-ranked chunks", len(chunks)-i)
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Content)
	}
	return b.String()
}
