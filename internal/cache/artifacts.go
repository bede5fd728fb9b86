package cache

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

// Artifacts maps opaque handles to cached scripts.
//
// Handles carry 122 random bits so they cannot be enumerated, but they are not
// authorization tokens: anyone holding a handle posted in a public channel may
// redeem it. Per-user limits are enforced by the caller on redemption.
type Artifacts struct {
	items *TTL[models.CachedScript]
}

// NewArtifacts creates an artifact cache with the given handle lifetime.
func NewArtifacts(ttl time.Duration, opts ...Option) *Artifacts {
	return &Artifacts{items: New[models.CachedScript](ttl, opts...)}
}

// Put stores the payload under a fresh handle and returns it.
func (a *Artifacts) Put(payload models.CachedScript) string {
	for {
		handle := strings.ReplaceAll(uuid.NewString(), "-", "")
		if a.items.SetNX(handle, payload) {
			return handle
		}
	}
}

// Get returns the payload stored under handle.
func (a *Artifacts) Get(handle string) (models.CachedScript, error) {
	payload, ok := a.items.Get(handle)
	if !ok {
		return models.CachedScript{}, models.ErrHandleExpired
	}
	return payload, nil
}

// Sweep drops expired handles.
func (a *Artifacts) Sweep() int {
	return a.items.Sweep()
}

// Len returns the number of stored handles.
func (a *Artifacts) Len() int {
	return a.items.Len()
}
