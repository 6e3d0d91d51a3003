package embedpool

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
)

// MockProvider is a deterministic, dependency-free Provider for tests: it
// derives a vector from each text's SHA-256 digest so the same input
// always embeds to the same output. Adapted from the teacher's
// internal/embed.MockProvider, including its close/error injection hooks.
type MockProvider struct {
	dims int

	mu        sync.Mutex
	closed    bool
	failNext  int
	failErr   error
	callCount int
}

// NewMockProvider returns a MockProvider producing vectors of the given
// dimensionality.
func NewMockProvider(dims int) *MockProvider {
	return &MockProvider{dims: dims}
}

// FailNextCalls makes the next n Embed calls return err.
func (m *MockProvider) FailNextCalls(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
	m.failErr = err
}

// CallCount returns how many times Embed has been invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// IsClosed reports whether Close has been called.
func (m *MockProvider) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockProvider) Embed(_ context.Context, texts []string, _ Mode) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("embedpool: mock provider is closed")
	}
	if m.failNext > 0 {
		m.failNext--
		err := m.failErr
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = deriveVector(text, m.dims)
	}
	return out, nil
}

func (m *MockProvider) Dimensions() int { return m.dims }

func (m *MockProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func deriveVector(text string, dims int) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dims)
	for i := range vec {
		b := sum[i%len(sum)]
		vec[i] = float32(b)/255.0*2 - 1
	}
	return vec
}
