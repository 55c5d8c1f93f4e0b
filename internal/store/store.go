package store

import (
	"context"
	"fmt"
	"time"
)

// Kind classifies persistence failures so callers can apply their
// fail-open/fail-closed policy without inspecting error strings.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnavailable // backing store unreachable
	KindDisabled    // backing store exists but is administratively disabled
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	case KindDisabled:
		return "disabled"
	default:
		return "internal"
	}
}

// Error is the only error type that crosses the store boundary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("store: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind, defaulting to KindInternal for
// errors that did not originate here.
func KindOf(err error) Kind {
	var se *Error
	for e := err; e != nil; {
		if s, ok := e.(*Error); ok {
			se = s
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	if se != nil {
		return se.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a not-found store error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// UserRecord is the per-user usage document.
type UserRecord struct {
	UserID      string     `json:"user_id"`
	TokensUsed  int        `json:"tokens_used"`
	TokensLimit int        `json:"tokens_limit"`
	IsPremium   bool       `json:"is_premium"`
	LastReset   *time.Time `json:"last_reset"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UserPatch is a partial update. Nil fields are left untouched; the
// Touch flags request a server-assigned timestamp on the named column.
// Applying a patch to an absent record first creates it with defaults,
// so a merge is always an upsert.
type UserPatch struct {
	TokensUsed     *int
	TokensLimit    *int
	IsPremium      *bool
	TouchLastReset bool
	TouchLastUsed  bool
}

// Exchange is one request/response pair. Written once, never updated.
type Exchange struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AgentID   string    `json:"agent_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscription is owned by the external billing collaborator; this
// system only reads tier to pick a rate window.
type Subscription struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
	Tier   string `json:"tier"`
}

// Store abstracts the document store keyed by user id.
type Store interface {
	GetUser(ctx context.Context, userID string) (*UserRecord, error)
	MergeUser(ctx context.Context, userID string, patch UserPatch) error

	InsertExchange(ctx context.Context, ex *Exchange) error
	CountExchangesSince(ctx context.Context, userID string, since time.Time) (int, error)

	GetSubscription(ctx context.Context, userID string) (*Subscription, error)
}

// Helpers for building patches without intermediate variables.

func Int(v int) *int    { return &v }
func Bool(v bool) *bool { return &v }
