// Package provider wraps the external text-generation backend. Failures
// are classified and degrade to user-safe apology text; no error from
// the backend ever crosses this boundary.
package provider

import (
	"context"
	"fmt"
	"time"
)

// Kind classifies generation failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindPermission
	KindInvalidKey
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindPermission:
		return "permission"
	case KindInvalidKey:
		return "invalid_key"
	default:
		return "unknown"
	}
}

// Error is a classified generation failure. RetryAfter is zero unless
// the backend reported a retry delay.
type Error struct {
	Kind       Kind
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("provider: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Client submits a fully built prompt to the generation backend.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
