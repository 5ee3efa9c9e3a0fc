package llm

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

// MockGenerator is a canned AnswerGenerator for tests and local development.
type MockGenerator struct {
	// Chunks streamed for every request. Defaults to a short canned answer.
	Chunks []string
	// Fail makes every call end with a generation failure after FailAfter
	// chunks have been emitted.
	Fail      bool
	FailAfter int
	// Block, when non-nil, is waited on before each chunk. Lets tests hold a
	// generation in flight.
	Block <-chan struct{}

	calls   atomic.Int64
	mu      sync.Mutex
	lastCtx context.Context
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Chunks: []string{"Here is one way to put it: ", "I focus on ", "clear outcomes."},
	}
}

// Calls reports how many generations were started.
func (m *MockGenerator) Calls() int64 {
	return m.calls.Load()
}

// LastContext returns the context passed to the most recent generation.
func (m *MockGenerator) LastContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCtx
}

func (m *MockGenerator) GenerateAnswerStream(ctx context.Context, prompt repositories.AnswerPrompt) (<-chan string, <-chan error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastCtx = ctx
	m.mu.Unlock()

	tokens := make(chan string, len(m.Chunks))
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(tokens)

		for i, chunk := range m.Chunks {
			if m.Fail && i >= m.FailAfter {
				errs <- repositories.ErrGenerationFailure
				return
			}
			if m.Block != nil {
				select {
				case <-m.Block:
				case <-ctx.Done():
					return
				}
			}
			select {
			case tokens <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return tokens, errs
}
