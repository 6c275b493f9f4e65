// Package llm provides the completion provider contract and a retrying
// client used by the dialogue engine.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/trupyai/trupy/internal/domain"
)

// Provider is a single external completion call. Implementations translate
// transport failures into *ProviderError so the retrying client can decide
// whether another attempt is worthwhile.
type Provider interface {
	Send(ctx context.Context, messages []domain.Message) (string, error)
}

// ProviderError describes a failed completion call.
type ProviderError struct {
	Op         string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a provider failure worth retrying.
// Anything that is not a *ProviderError is treated as non-transient.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return false
}
