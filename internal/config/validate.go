package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyProvider indicates a missing embedder provider name.
	ErrEmptyProvider = errors.New("empty embedder provider")

	// ErrInvalidBatchSize indicates a non-positive max batch size.
	ErrInvalidBatchSize = errors.New("invalid max batch size")

	// ErrInvalidChunkSize indicates an invalid chunking window.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidOverlap indicates an invalid overlap configuration.
	ErrInvalidOverlap = errors.New("invalid overlap")

	// ErrInvalidVectorBackend indicates an unsupported vector store backend.
	ErrInvalidVectorBackend = errors.New("invalid vector store backend")

	// ErrEmptyQdrantAddr indicates a qdrant backend chosen without an address.
	ErrEmptyQdrantAddr = errors.New("empty qdrant address")

	// ErrInvalidConcurrency indicates a non-positive concurrency limit.
	ErrInvalidConcurrency = errors.New("invalid concurrency limit")
)

// Validate checks that the configuration is complete and internally
// consistent.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}
	if err := validateChunking(&cfg.Chunking); err != nil {
		errs = append(errs, err)
	}
	if err := validateVectorStore(&cfg.VectorStore); err != nil {
		errs = append(errs, err)
	}
	if err := validateConcurrency(&cfg.Concurrency); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error
	if strings.TrimSpace(cfg.Provider) == "" {
		errs = append(errs, fmt.Errorf("%w: provider is required", ErrEmptyProvider))
	}
	if cfg.MaxBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_batch_size must be positive, got %d", ErrInvalidBatchSize, cfg.MaxBatchSize))
	}
	return joinErrors(errs)
}

func validateChunking(cfg *ChunkingConfig) error {
	var errs []error
	if cfg.TargetLines <= 0 {
		errs = append(errs, fmt.Errorf("%w: target_lines must be positive, got %d", ErrInvalidChunkSize, cfg.TargetLines))
	}
	if cfg.OverlapLines < 0 {
		errs = append(errs, fmt.Errorf("%w: overlap_lines cannot be negative, got %d", ErrInvalidOverlap, cfg.OverlapLines))
	}
	if cfg.TargetLines > 0 && cfg.OverlapLines >= cfg.TargetLines {
		errs = append(errs, fmt.Errorf("%w: overlap_lines (%d) should be less than target_lines (%d)", ErrInvalidOverlap, cfg.OverlapLines, cfg.TargetLines))
	}
	return joinErrors(errs)
}

func validateVectorStore(cfg *VectorStoreConfig) error {
	backend := strings.ToLower(cfg.Backend)
	if backend != "sqlite" && backend != "qdrant" {
		return fmt.Errorf("%w: must be 'sqlite' or 'qdrant', got '%s'", ErrInvalidVectorBackend, cfg.Backend)
	}
	if backend == "qdrant" && strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("%w: addr is required for the qdrant backend", ErrEmptyQdrantAddr)
	}
	return nil
}

func validateConcurrency(cfg *ConcurrencyConfig) error {
	var errs []error
	if cfg.FileWorkers <= 0 {
		errs = append(errs, fmt.Errorf("%w: file_workers must be positive, got %d", ErrInvalidConcurrency, cfg.FileWorkers))
	}
	if cfg.MaxConcurrentProjects <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_concurrent_projects must be positive, got %d", ErrInvalidConcurrency, cfg.MaxConcurrentProjects))
	}
	return joinErrors(errs)
}

// joinErrors combines multiple errors into a single error with clear
// formatting, matching teacher's validation error output shape.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
