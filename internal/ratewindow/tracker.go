// Package ratewindow enforces tier-based message caps over recurring
// billing periods, independently of the free-token ledger.
package ratewindow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentchat-platform/agentchat/internal/store"
)

const counterTTL = 8 * 24 * time.Hour

// Tracker counts messages within the current billing period and
// compares against the tier's cap. All infrastructure failures permit
// the message.
type Tracker struct {
	store store.Store
	rdb   redis.Cmdable // optional fast-count hook; nil disables it
	base  int           // weekly cap for the base tier
	now   func() time.Time

	disabledOnce sync.Once
}

func NewTracker(s store.Store, rdb redis.Cmdable, baseLimit int) *Tracker {
	return &Tracker{
		store: s,
		rdb:   rdb,
		base:  baseLimit,
		now:   time.Now,
	}
}

// CheckLimit reports whether the user has message quota left in the
// current period. A user without a subscription record is permitted;
// billing must not be a hard availability dependency of chat.
func (t *Tracker) CheckLimit(ctx context.Context, userID string) bool {
	sub, err := t.store.GetSubscription(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			slog.Debug("rate window: no subscription on file, permitting", "user_id", userID)
			return true
		}
		t.logInfra("subscription lookup", err)
		return true
	}

	tier := sub.Tier
	if tier == "" {
		tier = TierWeekly
	}

	cap := t.capFor(tier)
	if cap < 0 {
		return true
	}

	start := PeriodStart(tier, t.now())
	count, err := t.store.CountExchangesSince(ctx, userID, start)
	if err != nil {
		t.logInfra("exchange count", err)
		return true
	}

	return count < cap
}

// IncrementUsage bumps the per-period counter. Failures never reach the
// caller. The cap check above counts persisted exchanges directly; this
// counter is the fast path to switch to if that query gets too slow.
func (t *Tracker) IncrementUsage(ctx context.Context, userID string) {
	if t.rdb == nil {
		return
	}

	start := PeriodStart(TierWeekly, t.now())
	key := fmt.Sprintf("ratewindow:%s:%s", userID, start.Format("2006-01-02"))

	pipe := t.rdb.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("rate window: usage increment failed", "error", err, "user_id", userID)
	}
}

// capFor returns the message cap for a tier; negative means unlimited.
func (t *Tracker) capFor(tier string) int {
	switch tier {
	case TierMonthly:
		return t.base * 4
	case TierAnnual:
		return -1
	default:
		return t.base
	}
}

func (t *Tracker) logInfra(op string, err error) {
	if store.KindOf(err) == store.KindDisabled {
		// A disabled store would otherwise log on every message; once
		// per process is enough.
		t.disabledOnce.Do(func() {
			slog.Warn("rate window: persistence disabled, period caps are off", "error", err)
		})
		return
	}
	slog.Warn("rate window: "+op+" failed, permitting", "error", err)
}
