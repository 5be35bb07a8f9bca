// Package constants provides shared constants used throughout the
// capitolwatch codebase: timeouts, retry bounds, page sizes, external API
// endpoints, and embedding parameters.
package constants

import "time"

// External API base URLs
const (
	// CongressGovBaseURL is the Congress.gov v3 API root
	CongressGovBaseURL = "https://api.congress.gov/v3"

	// FECBaseURL is the Federal Election Commission API root
	FECBaseURL = "https://api.open.fec.gov/v1"
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to data sources
	DefaultHTTPTimeout = 30 * time.Second

	// VoteFetchTimeout is the timeout for vote detail and ballot XML requests,
	// which can be large payloads
	VoteFetchTimeout = 60 * time.Second

	// SyncTimeout is the timeout for a full sync run
	SyncTimeout = 30 * time.Minute

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// Retry and rate limiting constants
const (
	// MaxRetries is the maximum number of retry attempts for transient failures
	MaxRetries = 3

	// CongressGovMinInterval paces Congress.gov requests. The documented
	// limit is 5000/hour; 200ms keeps a full-roster sync comfortably under it.
	CongressGovMinInterval = 200 * time.Millisecond

	// FECMinInterval paces FEC requests (1000/hour documented limit).
	FECMinInterval = 500 * time.Millisecond

	// EmbeddingMinInterval paces embedding service requests.
	EmbeddingMinInterval = 100 * time.Millisecond
)

// Pagination constants
const (
	// CongressGovPageSize is the results-per-request limit for Congress.gov
	CongressGovPageSize = 250

	// FECPageSize is the results-per-page limit for the FEC API
	FECPageSize = 100
)

// Embedding constants
const (
	// EmbeddingModel is the embedding model identifier
	EmbeddingModel = "gemini-embedding-001"

	// EmbeddingDimensions is the fixed embedding vector length
	EmbeddingDimensions = 768

	// MaxEmbeddingChars bounds the text sent to the embedding service
	MaxEmbeddingChars = 8000
)

// CurrentCongress is the default Congress number when none is configured.
const CurrentCongress = 119
