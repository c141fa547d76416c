package orbiseo

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a search or analysis query is empty.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNoEmbedder is returned when an operation requires an embedding
	// provider but none is configured.
	ErrNoEmbedder = errors.New("no embedding provider configured")
)

// ErrProvider indicates a failed call to an external collaborator.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrProvider struct {
	Provider string
	cause    error
}

func (e *ErrProvider) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.cause)
}

func (e *ErrProvider) Unwrap() error { return e.cause }

// NewProviderError wraps an error from an external collaborator.
func NewProviderError(provider string, cause error) *ErrProvider {
	return &ErrProvider{Provider: provider, cause: cause}
}
