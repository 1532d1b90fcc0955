package cli

import (
	"context"
	"errors"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driving"
)

type mockRetriever struct {
	chunks []domain.RetrievedChunk
	err    error
	lastK  int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievedChunk, error) {
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if k < len(m.chunks) {
		return m.chunks[:k], nil
	}
	return m.chunks, nil
}

type mockChat struct {
	answer string
	err    error
}

func (m *mockChat) Answer(_ context.Context, conv domain.Conversation, question string) (string, domain.Conversation, error) {
	if m.err != nil {
		return "", conv, m.err
	}
	return m.answer, conv.Append(domain.RoleUser, question).Append(domain.RoleAssistant, m.answer), nil
}

type mockIngestor struct {
	report *domain.IngestionReport
	err    error
}

func (m *mockIngestor) Ingest(_ context.Context, raws []domain.RawDocument) (*domain.IngestionReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockIngestor) Status() driving.IngestStatus {
	return driving.IngestStatus{}
}

var errMockFailure = errors.New("backend unavailable")

// swapRetriever injects a retriever and returns a restore func.
func swapRetriever(r driving.Retriever) func() {
	old := retriever
	retriever = r
	return func() { retriever = old }
}

func swapChat(c driving.ChatService) func() {
	old := chatService
	chatService = c
	return func() { chatService = old }
}
