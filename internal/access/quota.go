package access

import (
	"time"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/cache"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

// Action is a quota-limited operation.
type Action string

const (
	ActionCopy      Action = "copy"
	ActionVaultSave Action = "vault"
)

// Quotas enforces per-user, per-calendar-day action caps for free users.
// Counters are keyed by day, so they roll over implicitly at midnight.
type Quotas struct {
	now      func() time.Time
	counters *cache.TTL[int]
	caps     map[Action]int
}

// NewQuotas creates quotas with the given daily caps.
func NewQuotas(caps map[Action]int, now func() time.Time) *Quotas {
	if now == nil {
		now = time.Now
	}

	return &Quotas{
		now:      now,
		counters: cache.New[int](48*time.Hour, cache.WithNow(now)),
		caps:     caps,
	}
}

func (q *Quotas) key(userID string, action Action) string {
	return string(action) + ":" + userID + ":" + q.now().Format("2006-01-02")
}

// Consume counts one action for a free user, failing with QuotaExceededError once
// the daily cap is reached. Premium users and uncapped actions are not counted.
func (q *Quotas) Consume(userID string, tier models.Tier, action Action) error {
	if tier == models.TierPremium {
		return nil
	}

	limit, ok := q.caps[action]
	if !ok || limit <= 0 {
		return nil
	}

	exceeded := false
	q.counters.Update(q.key(userID, action), func(used int, _ bool) int {
		if used >= limit {
			exceeded = true
			return used
		}
		return used + 1
	})

	if exceeded {
		return &models.QuotaExceededError{Action: string(action), Cap: limit}
	}

	return nil
}

// Refund returns one action consumed today, e.g. when the operation it paid for
// failed afterwards. Counts never drop below zero.
func (q *Quotas) Refund(userID string, tier models.Tier, action Action) {
	if tier == models.TierPremium {
		return
	}
	if limit, ok := q.caps[action]; !ok || limit <= 0 {
		return
	}

	q.counters.Update(q.key(userID, action), func(used int, _ bool) int {
		if used > 0 {
			return used - 1
		}
		return 0
	})
}

// Used returns today's count of action for userID.
func (q *Quotas) Used(userID string, action Action) int {
	n, _ := q.counters.Get(q.key(userID, action))
	return n
}

// Cap returns the daily cap of action.
func (q *Quotas) Cap(action Action) int {
	return q.caps[action]
}

// Sweep drops counters of past days.
func (q *Quotas) Sweep() int {
	return q.counters.Sweep()
}
