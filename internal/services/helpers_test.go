// internal/services/helpers_test.go
package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Corphon/VeoPromptStudio/internal/events"
	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/storage"
)

// fakeProvider answers every completion with a fixed reply and counts calls
type fakeProvider struct {
	reply string
	err   error
	calls atomic.Int32

	mu   sync.Mutex
	last llm.CompletionRequest
}

func (p *fakeProvider) Initialize(map[string]string) error { return nil }
func (p *fakeProvider) GetName() string                    { return "fake" }
func (p *fakeProvider) GetSupportedModels() []string       { return []string{"fake-model"} }
func (p *fakeProvider) FetchAvailableModels(context.Context) error {
	return nil
}

func (p *fakeProvider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.last = req
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{
		Text:         p.reply,
		TokensUsed:   42,
		ModelName:    req.Model,
		ProviderName: p.GetName(),
	}, nil
}

func (p *fakeProvider) lastRequest() llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []events.HistoryEvent
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event events.HistoryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() {}

func newTestHistory(t *testing.T, publisher events.Publisher) *HistoryService {
	t.Helper()
	fs, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return NewHistoryService(fs, publisher)
}

func newTestLLM(p *fakeProvider) *LLMService {
	return NewLLMServiceWithProvider(p, "fake-model")
}
