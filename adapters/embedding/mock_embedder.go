package embedding

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

// MockEmbedder maps exact text to fixed vectors for tests. Unknown text gets
// a deterministic low-magnitude vector so it matches nothing well.
type MockEmbedder struct {
	Vectors map[string][]float32
	Fail    bool
	// Delay is waited before each call, simulating provider latency.
	Delay time.Duration

	calls atomic.Int64
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Vectors: make(map[string][]float32)}
}

func (m *MockEmbedder) Calls() int64 {
	return m.calls.Load()
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Fail {
		return nil, repositories.ErrEmbeddingFailure
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}

	// Orthogonal-ish default so unknown questions score near zero against
	// everything registered.
	v := make([]float32, 4)
	for i, c := range text {
		v[i%4] += float32(c%7) * 0.01
	}
	return v, nil
}
