package domain

import "errors"

var (
	// ErrNoData signals that a filter matched zero sales records.
	ErrNoData = errors.New("no matching sales data")
	// ErrIndexNotLoaded signals that the precomputed index is unavailable.
	ErrIndexNotLoaded = errors.New("index not loaded")
	// ErrDimensionMismatch signals a vector dimension mismatch against the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatProviderError signals a chat completion provider failure.
	ErrChatProviderError = errors.New("chat provider error")
)
