// Package ledger owns the per-user free-token balance: lazy
// initialization, balance checks, consumption, weekly reset, and the
// premium override. Every infrastructure failure resolves in the user's
// favor: a storage outage must never block chat.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/agentchat-platform/agentchat/internal/store"
)

const (
	// FreeTokensLimit is the free-tier message ceiling per window.
	FreeTokensLimit = 6

	// ResetInterval is the fixed window after which free-tier usage resets.
	ResetInterval = 7 * 24 * time.Hour

	// UnlimitedTokens is the tokens_remaining sentinel for premium accounts.
	UnlimitedTokens = -1
)

// Status is a snapshot of a user's token balance.
type Status struct {
	TokensRemaining int        `json:"tokens_remaining"`
	TokensUsed      int        `json:"tokens_used"`
	TokensLimit     int        `json:"tokens_limit"`
	IsPremium       bool       `json:"is_premium"`
	ResetDate       *time.Time `json:"reset_date"`
}

type Ledger struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store) *Ledger {
	return &Ledger{store: s, now: time.Now}
}

func defaultStatus() Status {
	return Status{
		TokensRemaining: FreeTokensLimit,
		TokensUsed:      0,
		TokensLimit:     FreeTokensLimit,
		IsPremium:       false,
		ResetDate:       nil,
	}
}

// Status returns the user's current token balance. It never fails the
// caller: any storage error yields the default free-tier snapshot.
// A never-seen user is initialized as a side effect.
func (l *Ledger) Status(ctx context.Context, userID string) Status {
	rec, err := l.store.GetUser(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			if ierr := l.initialize(ctx, userID); ierr != nil {
				slog.Warn("ledger: initializing user failed", "error", ierr, "user_id", userID)
			}
			return defaultStatus()
		}
		slog.Warn("ledger: status lookup failed, returning defaults", "error", err, "user_id", userID)
		return defaultStatus()
	}

	used := rec.TokensUsed
	if !rec.IsPremium && rec.LastReset != nil && l.now().Sub(*rec.LastReset) >= ResetInterval {
		// Window elapsed: report a clean slate even if the reset write
		// cannot be confirmed.
		if err := l.Reset(ctx, userID); err != nil {
			slog.Warn("ledger: window reset failed", "error", err, "user_id", userID)
		}
		used = 0
	}

	limit := rec.TokensLimit
	if limit <= 0 {
		limit = FreeTokensLimit
	}

	remaining := UnlimitedTokens
	if !rec.IsPremium {
		remaining = limit - used
		if remaining < 0 {
			remaining = 0
		}
	}

	return Status{
		TokensRemaining: remaining,
		TokensUsed:      used,
		TokensLimit:     limit,
		IsPremium:       rec.IsPremium,
		ResetDate:       rec.LastReset,
	}
}

// CanUseToken reports whether the user may send a message. Premium
// accounts always pass; failures resolve to true.
func (l *Ledger) CanUseToken(ctx context.Context, userID string) bool {
	st := l.Status(ctx, userID)
	if st.IsPremium {
		return true
	}
	return st.TokensRemaining > 0
}

// UseToken consumes one token. It returns false only when the stored
// balance is already at the limit; premium accounts consume nothing. A
// storage failure during the write resolves to true: consumption is
// assumed to have succeeded even when it cannot be confirmed. That is a
// deliberate availability-over-accounting trade-off, not a bug.
func (l *Ledger) UseToken(ctx context.Context, userID string) bool {
	rec, err := l.store.GetUser(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			if ierr := l.initialize(ctx, userID); ierr != nil {
				slog.Warn("ledger: initializing user failed", "error", ierr, "user_id", userID)
				return true
			}
			rec = &store.UserRecord{
				UserID:      userID,
				TokensLimit: FreeTokensLimit,
			}
		} else {
			slog.Warn("ledger: use-token lookup failed, allowing", "error", err, "user_id", userID)
			return true
		}
	}

	if rec.IsPremium {
		return true
	}

	limit := rec.TokensLimit
	if limit <= 0 {
		limit = FreeTokensLimit
	}
	if rec.TokensUsed >= limit {
		return false
	}

	patch := store.UserPatch{
		TokensUsed:    store.Int(rec.TokensUsed + 1),
		TouchLastUsed: true,
	}
	if err := l.store.MergeUser(ctx, userID, patch); err != nil {
		slog.Warn("ledger: consumption write failed, allowing", "error", err, "user_id", userID)
		return true
	}
	return true
}

// SetPremiumStatus flips the premium flag. Upgrading to premium resets
// the counter so a later downgrade starts from a clean window.
func (l *Ledger) SetPremiumStatus(ctx context.Context, userID string, premium bool) error {
	patch := store.UserPatch{IsPremium: store.Bool(premium)}
	if err := l.store.MergeUser(ctx, userID, patch); err != nil {
		return err
	}
	if premium {
		return l.Reset(ctx, userID)
	}
	return nil
}

// Reset zeroes the window counter and stamps last_reset. Idempotent.
func (l *Ledger) Reset(ctx context.Context, userID string) error {
	return l.store.MergeUser(ctx, userID, store.UserPatch{
		TokensUsed:     store.Int(0),
		TouchLastReset: true,
	})
}

// initialize creates the record with absolute default values, so
// concurrent first-contact calls for the same user converge without
// double counting.
func (l *Ledger) initialize(ctx context.Context, userID string) error {
	return l.store.MergeUser(ctx, userID, store.UserPatch{
		TokensUsed:     store.Int(0),
		TokensLimit:    store.Int(FreeTokensLimit),
		IsPremium:      store.Bool(false),
		TouchLastReset: true,
	})
}
