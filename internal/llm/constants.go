package llm

import "time"

// Shared across the provider clients to avoid redeclaration.
const (
	defaultTimeout    = 120 * time.Second
	maxRetries        = 3
	initialRetryDelay = 2 * time.Second
)
