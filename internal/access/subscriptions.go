package access

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/storage"
)

const tierPremiumLabel = "PREMIUM"

// Subscriptions holds the premium records in memory and rewrites the whole
// document on every mutation.
type Subscriptions struct {
	docs  storage.Documents
	now   func() time.Time
	items map[string]models.Subscription
	log   zerolog.Logger
	mu    sync.Mutex
}

// NewSubscriptions creates an empty subscription set; call Load to read the document.
func NewSubscriptions(docs storage.Documents, now func() time.Time) *Subscriptions {
	if now == nil {
		now = time.Now
	}

	return &Subscriptions{
		docs:  docs,
		now:   now,
		items: make(map[string]models.Subscription),
		log:   logger.Component("subscriptions"),
	}
}

// Load reads the subscription document.
func (s *Subscriptions) Load(ctx context.Context) error {
	items := make(map[string]models.Subscription)
	if _, err := s.docs.Load(ctx, storage.DocSubscriptions, &items); err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	return nil
}

// persist must be called with s.mu held.
func (s *Subscriptions) persist(ctx context.Context) error {
	return s.docs.Save(ctx, storage.DocSubscriptions, s.items)
}

// IsActive reports whether userID holds an unexpired subscription. An expired record
// is deleted immediately.
func (s *Subscriptions) IsActive(ctx context.Context, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.items[userID]
	if !ok {
		return false
	}

	if s.now().After(sub.Expiry) {
		delete(s.items, userID)
		if err := s.persist(ctx); err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to persist expired subscription removal")
		}
		return false
	}

	return true
}

// Get returns the record of userID without evaluating expiry.
func (s *Subscriptions) Get(userID string) (models.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.items[userID]
	return sub, ok
}

// Grant creates or overwrites the subscription of userID for days days from now.
func (s *Subscriptions) Grant(ctx context.Context, userID string, days int) (models.Subscription, error) {
	if userID == "" {
		return models.Subscription{}, models.InvalidInput("missing user id")
	}
	if days <= 0 {
		return models.Subscription{}, models.InvalidInput("duration must be a positive number of days")
	}

	now := s.now()
	sub := models.Subscription{
		UserID:       userID,
		Start:        now,
		Expiry:       now.Add(time.Duration(days) * 24 * time.Hour),
		DurationDays: days,
		Tier:         tierPremiumLabel,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[userID] = sub
	if err := s.persist(ctx); err != nil {
		return sub, fmt.Errorf("save subscription: %w", err)
	}

	s.log.Info().Str("user_id", userID).Int("days", days).Time("expiry", sub.Expiry).Msg("Subscription granted")

	return sub, nil
}

// Revoke deletes the subscription of userID.
func (s *Subscriptions) Revoke(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[userID]; !ok {
		return fmt.Errorf("%w: no subscription for %s", models.ErrNotFound, userID)
	}

	delete(s.items, userID)
	if err := s.persist(ctx); err != nil {
		return fmt.Errorf("save subscriptions: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("Subscription revoked")

	return nil
}

// Active returns unexpired subscriptions ordered by soonest expiry.
func (s *Subscriptions) Active() []models.Subscription {
	now := s.now()

	s.mu.Lock()
	out := make([]models.Subscription, 0, len(s.items))
	for _, sub := range s.items {
		if sub.Expiry.After(now) {
			out = append(out, sub)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Expiry.Equal(out[j].Expiry) {
			return out[i].Expiry.Before(out[j].Expiry)
		}
		return out[i].UserID < out[j].UserID
	})

	return out
}

// Count returns the number of stored records, expired ones included until swept.
func (s *Subscriptions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// SweepExpired removes every record whose expiry is in the past.
func (s *Subscriptions) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sub := range s.items {
		if sub.Expiry.Before(now) {
			delete(s.items, id)
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}

	if err := s.persist(ctx); err != nil {
		return removed, fmt.Errorf("save subscriptions: %w", err)
	}

	return removed, nil
}
