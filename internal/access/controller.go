package access

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

// Controller combines the owner and blacklist sets with cooldowns, subscriptions
// and quotas.
type Controller struct {
	Cooldowns     *Cooldowns
	Subscriptions *Subscriptions
	Quotas        *Quotas

	owners    map[uint64]struct{}
	blacklist map[uint64]struct{}
}

// NewController creates a controller. Owner and blacklist ids are stored hashed.
func NewController(cooldowns *Cooldowns, subs *Subscriptions, quotas *Quotas, owners, blacklist []string) *Controller {
	return &Controller{
		Cooldowns:     cooldowns,
		Subscriptions: subs,
		Quotas:        quotas,
		owners:        hashSet(owners),
		blacklist:     hashSet(blacklist),
	}
}

func hashSet(ids []string) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[xxhash.Sum64String(id)] = struct{}{}
	}
	return set
}

// IsOwner reports whether userID is a configured owner.
func (c *Controller) IsOwner(userID string) bool {
	_, ok := c.owners[xxhash.Sum64String(userID)]
	return ok
}

// IsBlacklisted reports whether userID must be ignored.
func (c *Controller) IsBlacklisted(userID string) bool {
	_, ok := c.blacklist[xxhash.Sum64String(userID)]
	return ok
}

// TierOf evaluates the subscription of userID.
func (c *Controller) TierOf(ctx context.Context, userID string) models.Tier {
	if c.Subscriptions.IsActive(ctx, userID) {
		return models.TierPremium
	}
	return models.TierFree
}

// Admit applies the cooldown of the tier to userID. Owners are never limited.
func (c *Controller) Admit(userID string, tier models.Tier) error {
	if c.IsOwner(userID) {
		return nil
	}

	d := c.Cooldowns.CheckAndConsume(userID, tier)
	if !d.Allowed {
		return &models.RateLimitedError{RetryAfter: d.RetryAfter}
	}

	return nil
}

// Sweep drops idle cooldown windows and past-day quota counters.
func (c *Controller) Sweep() int {
	return c.Cooldowns.Sweep() + c.Quotas.Sweep()
}
