// Package vault keeps the scripts users saved for later, persisted as one document.
package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/storage"
)

// ActionStorage names the vault capacity limit in quota errors.
const ActionStorage = "vault storage"

// Vault stores saved scripts per user. Free users hold at most freeCap entries.
type Vault struct {
	docs    storage.Documents
	now     func() time.Time
	entries map[string][]models.VaultEntry
	log     zerolog.Logger
	freeCap int
	mu      sync.Mutex
}

// New creates a vault. A nil clock uses time.Now.
func New(docs storage.Documents, freeCap int, now func() time.Time) *Vault {
	if now == nil {
		now = time.Now
	}
	return &Vault{
		docs:    docs,
		now:     now,
		freeCap: freeCap,
		entries: make(map[string][]models.VaultEntry),
		log:     logger.Component("vault"),
	}
}

// Load reads the persisted vault document. A missing document leaves the vault empty.
func (v *Vault) Load(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	data := make(map[string][]models.VaultEntry)
	if _, err := v.docs.Load(ctx, storage.DocVault, &data); err != nil {
		return fmt.Errorf("load vault: %w", err)
	}
	v.entries = data

	return nil
}

// Save appends a script to the user's vault and persists the document.
func (v *Vault) Save(ctx context.Context, userID string, tier models.Tier, script models.CachedScript) (models.VaultEntry, error) {
	return v.SaveAdmitted(ctx, userID, tier, script, nil)
}

// SaveAdmitted is Save with an admission hook. admit runs under the vault lock
// after the capacity check and before anything is stored; its error aborts the
// save. A nil admit always admits.
func (v *Vault) SaveAdmitted(ctx context.Context, userID string, tier models.Tier, script models.CachedScript, admit func() error) (models.VaultEntry, error) {
	if userID == "" {
		return models.VaultEntry{}, models.InvalidInput("user id required")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	current := v.entries[userID]
	if tier != models.TierPremium && v.freeCap > 0 && len(current) >= v.freeCap {
		return models.VaultEntry{}, &models.QuotaExceededError{Action: ActionStorage, Cap: v.freeCap}
	}
	if admit != nil {
		if err := admit(); err != nil {
			return models.VaultEntry{}, err
		}
	}

	entry := models.VaultEntry{
		ID:      uuid.NewString(),
		Title:   script.Title,
		Payload: script.Payload,
		SavedAt: v.now(),
	}
	v.entries[userID] = append(current, entry)

	if err := v.docs.Save(ctx, storage.DocVault, v.entries); err != nil {
		v.entries[userID] = current
		return models.VaultEntry{}, fmt.Errorf("persist vault: %w", err)
	}

	v.log.Debug().Str("user_id", userID).Str("title", entry.Title).Int("size", len(current)+1).Msg("Script saved to vault")

	return entry, nil
}

// List returns the user's entries in save order.
func (v *Vault) List(userID string) []models.VaultEntry {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]models.VaultEntry(nil), v.entries[userID]...)
}

// Get returns the user's n-th entry, counting from 1.
func (v *Vault) Get(userID string, n int) (models.VaultEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	list := v.entries[userID]
	if n < 1 || n > len(list) {
		return models.VaultEntry{}, fmt.Errorf("%w: vault entry %d", models.ErrNotFound, n)
	}

	return list[n-1], nil
}

// Remove deletes the user's n-th entry, counting from 1.
func (v *Vault) Remove(ctx context.Context, userID string, n int) (models.VaultEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	list := v.entries[userID]
	if n < 1 || n > len(list) {
		return models.VaultEntry{}, fmt.Errorf("%w: vault entry %d", models.ErrNotFound, n)
	}

	removed := list[n-1]
	next := make([]models.VaultEntry, 0, len(list)-1)
	next = append(next, list[:n-1]...)
	next = append(next, list[n:]...)

	if len(next) == 0 {
		delete(v.entries, userID)
	} else {
		v.entries[userID] = next
	}

	if err := v.docs.Save(ctx, storage.DocVault, v.entries); err != nil {
		v.entries[userID] = list
		return models.VaultEntry{}, fmt.Errorf("persist vault: %w", err)
	}

	return removed, nil
}

// Size returns the total number of stored entries.
func (v *Vault) Size() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := 0
	for _, list := range v.entries {
		n += len(list)
	}

	return n
}
