// Package access implements tiered access control: per-minute cooldown windows,
// subscription evaluation and per-day action quotas.
package access

import (
	"time"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/cache"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

// Window is the length of a cooldown window.
const Window = 60 * time.Second

// Decision is the outcome of a cooldown check.
type Decision struct {
	Allowed    bool
	RetryAfter int
}

type window struct {
	start time.Time
	count int
}

// Cooldowns keeps one reset-on-expiry window per user and tier namespace.
// A window is reset once more than Window has elapsed since it opened; until then
// requests are counted against the tier limit.
type Cooldowns struct {
	now     func() time.Time
	windows *cache.TTL[window]
	limits  map[models.Tier]int
}

// NewCooldowns creates cooldown windows with per-minute limits for each tier.
func NewCooldowns(freeLimit, premiumLimit int, now func() time.Time) *Cooldowns {
	if now == nil {
		now = time.Now
	}

	return &Cooldowns{
		now: now,
		// idle windows are dropped by the cache sweep long after they reset
		windows: cache.New[window](10*Window, cache.WithNow(now)),
		limits: map[models.Tier]int{
			models.TierFree:    freeLimit,
			models.TierPremium: premiumLimit,
		},
	}
}

// CheckAndConsume counts a request of userID in the tier namespace and reports
// whether it is allowed. Denied requests carry the seconds until the window resets.
func (c *Cooldowns) CheckAndConsume(userID string, tier models.Tier) Decision {
	limit, ok := c.limits[tier]
	if !ok {
		limit = c.limits[models.TierFree]
	}

	now := c.now()
	var d Decision

	c.windows.Update(string(tier)+":"+userID, func(w window, found bool) window {
		elapsed := now.Sub(w.start)
		if !found || elapsed > Window {
			d.Allowed = true
			return window{start: now, count: 1}
		}

		if w.count >= limit {
			remaining := Window - elapsed
			d.RetryAfter = int((remaining + time.Second - 1) / time.Second)
			if d.RetryAfter < 1 {
				d.RetryAfter = 1
			}
			return w
		}

		w.count++
		d.Allowed = true
		return w
	})

	return d
}

// Count returns the request count of the current window.
func (c *Cooldowns) Count(userID string, tier models.Tier) int {
	w, ok := c.windows.Get(string(tier) + ":" + userID)
	if !ok || c.now().Sub(w.start) > Window {
		return 0
	}
	return w.count
}

// Sweep drops idle windows.
func (c *Cooldowns) Sweep() int {
	return c.windows.Sweep()
}
