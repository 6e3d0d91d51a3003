// Package embedpool implements the embedder pool (C5): a registry of
// pluggable embedding providers, each wrapped with batch-size-capped
// splitting, TTL-cached availability probing, and exponential backoff
// retry.
//
// Provider is the same shape as the teacher's internal/embed.Provider
// (Embed/Dimensions/Close), and EmbedWithProgress's sequential
// batch-and-report loop (internal/embed/batched.go) is generalized here
// into splitBatches + Pool.Embed's retry wrapper. Availability/capability
// results are cached with github.com/maypok86/otter, already a direct
// teacher dependency used there for the branch-metadata cache.
package embedpool

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/maypok86/otter"
)

// Mode distinguishes how a text should be embedded when the underlying
// model treats queries and passages asymmetrically.
type Mode string

const (
	ModeQuery   Mode = "query"
	ModePassage Mode = "passage"
)

// Provider is a pluggable embedding backend. Implementations are
// expected to be safe for concurrent use.
type Provider interface {
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Config tunes the pool's batching and retry behavior.
type Config struct {
	// MaxBatchSize caps how many texts are sent to a provider in one
	// Embed call.
	MaxBatchSize int
	// MaxRetries is the number of retry attempts after the initial
	// call fails, before the pool gives up.
	MaxRetries int
	// InitialBackoff is the delay before the first retry; each
	// subsequent retry doubles it.
	InitialBackoff time.Duration
	// CapabilityTTL is how long an availability probe result is
	// trusted before it is re-checked.
	CapabilityTTL time.Duration
}

// DefaultConfig matches the component design's defaults: batches of up
// to 64 texts, 3 retries at 1s, 2s and 4s, probes cached for
// 5 minutes.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:   64,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		CapabilityTTL:  5 * time.Minute,
	}
}

// Pool routes embedding requests to a named provider, applying batching
// and retry uniformly regardless of which provider backs a project.
type Pool struct {
	cfg       Config
	mu        sync.RWMutex
	providers map[string]Provider
	probes    otter.Cache[string, bool]
}

// New creates an empty pool. Register providers with Register before
// calling Embed.
func New(cfg Config) (*Pool, error) {
	probes, err := otter.MustBuilder[string, bool](1024).
		WithTTL(cfg.CapabilityTTL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("embedpool: build capability cache: %w", err)
	}
	return &Pool{
		cfg:       cfg,
		providers: make(map[string]Provider),
		probes:    probes,
	}, nil
}

// Register adds or replaces the provider known by name.
func (p *Pool) Register(name string, provider Provider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.providers[name] = provider
}

// Names returns every currently registered provider name, sorted.
func (p *Pool) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.providers))
	for name := range p.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister closes and removes the named provider.
func (p *Pool) Unregister(name string) error {
	p.mu.Lock()
	provider, ok := p.providers[name]
	delete(p.providers, name)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return provider.Close()
}

// Dimensions reports the embedding width of the named provider, needed
// by callers that must size a vector collection before the first Embed
// call.
func (p *Pool) Dimensions(name string) (int, error) {
	provider, err := p.provider(name)
	if err != nil {
		return 0, err
	}
	return provider.Dimensions(), nil
}

func (p *Pool) provider(name string) (Provider, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	provider, ok := p.providers[name]
	if !ok {
		return nil, fmt.Errorf("embedpool: unknown provider %q", name)
	}
	return provider, nil
}

// Available reports whether name's provider answered a cheap probe
// successfully within the last CapabilityTTL, probing it fresh if the
// cache has expired or never been populated.
func (p *Pool) Available(ctx context.Context, name string) bool {
	if ok, hit := p.probes.Get(name); hit {
		return ok
	}
	provider, err := p.provider(name)
	if err != nil {
		p.probes.Set(name, false)
		return false
	}
	_, err = provider.Embed(ctx, []string{"availability probe"}, ModeQuery)
	ok := err == nil
	p.probes.Set(name, ok)
	return ok
}

// Progress is reported after each batch completes, mirroring the
// teacher's BatchProgress shape.
type Progress struct {
	BatchIndex int
	BatchCount int
	TextsTotal int
	TextsDone  int
}

// Embed embeds all of texts using the named provider, splitting into
// batches of at most MaxBatchSize and retrying each batch independently
// with exponential backoff. progress, if non-nil, receives one update per
// completed batch. The returned slice preserves texts' order.
func (p *Pool) Embed(ctx context.Context, providerName string, texts []string, mode Mode, progress func(Progress)) ([][]float32, error) {
	return p.EmbedWithBatchSize(ctx, providerName, texts, mode, 0, progress)
}

// EmbedWithBatchSize is Embed with a per-call batch size override; maxBatch
// <= 0 falls back to the pool's configured MaxBatchSize. This is what lets a
// project's settings override the pool-wide default without a second Pool.
func (p *Pool) EmbedWithBatchSize(ctx context.Context, providerName string, texts []string, mode Mode, maxBatch int, progress func(Progress)) ([][]float32, error) {
	provider, err := p.provider(providerName)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	if maxBatch <= 0 {
		maxBatch = p.cfg.MaxBatchSize
	}
	batches := splitBatches(texts, maxBatch)
	result := make([][]float32, 0, len(texts))

	for i, batch := range batches {
		vectors, err := p.embedWithRetry(ctx, provider, batch, mode)
		if err != nil {
			return nil, fmt.Errorf("embedpool: batch %d/%d: %w", i+1, len(batches), err)
		}
		result = append(result, vectors...)
		if progress != nil {
			progress(Progress{
				BatchIndex: i + 1,
				BatchCount: len(batches),
				TextsTotal: len(texts),
				TextsDone:  len(result),
			})
		}
	}
	return result, nil
}

func (p *Pool) embedWithRetry(ctx context.Context, provider Provider, batch []string, mode Mode) ([][]float32, error) {
	var lastErr error
	backoff := p.cfg.InitialBackoff
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(math.Min(float64(backoff*2), float64(time.Minute)))
		}
		vectors, err := provider.Embed(ctx, batch, mode)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("exhausted %d retries: %w", p.cfg.MaxRetries, lastErr)
}

// splitBatches partitions texts into chunks of at most size items,
// adapted from the sequential loop in the teacher's EmbedWithProgress.
func splitBatches(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var batches [][]string
	for i := 0; i < len(texts); i += size {
		end := i + size
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[i:end])
	}
	return batches
}

// Close closes every registered provider, returning the first error
// encountered (after attempting to close all of them).
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for name, provider := range p.providers {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("embedpool: close %s: %w", name, err)
		}
	}
	p.providers = make(map[string]Provider)
	return firstErr
}
