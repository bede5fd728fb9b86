// Package stats accumulates usage counters and persists them as a document.
package stats

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/storage"
)

// Event is a counted occurrence that is not a command.
type Event int

const (
	EventCopy Event = iota
	EventVaultSave
	EventRelease
)

// Recorder holds the statistics document in memory.
type Recorder struct {
	docs storage.Documents
	now  func() time.Time
	data models.Stats
	mu   sync.Mutex
}

// New creates a recorder. A nil clock uses time.Now.
func New(docs storage.Documents, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		docs: docs,
		now:  now,
		data: models.Stats{
			UserActivity: make(map[string]models.UserActivity),
			StartTime:    now().UnixMilli(),
		},
	}
}

// Load reads the statistics document. Missing fields load as zero and a missing
// start time is set to now.
func (r *Recorder) Load(ctx context.Context) error {
	var data models.Stats
	if _, err := r.docs.Load(ctx, storage.DocStats, &data); err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	if data.UserActivity == nil {
		data.UserActivity = make(map[string]models.UserActivity)
	}
	if data.StartTime == 0 {
		data.StartTime = r.now().UnixMilli()
	}

	r.mu.Lock()
	r.data = data
	r.mu.Unlock()

	return nil
}

// persist must be called with r.mu held.
func (r *Recorder) persist(ctx context.Context) error {
	return r.docs.Save(ctx, storage.DocStats, r.data)
}

// Command counts an accepted command of userID.
func (r *Recorder) Command(ctx context.Context, command, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data.TotalCommands++
	switch command {
	case "search", "vsearch", "ksearch", "nksearch":
		r.data.TotalSearches++
	case "serv":
		r.data.TotalServerSearches++
	}

	activity := r.data.UserActivity[userID]
	activity.CommandCount++
	activity.LastActive = r.now().UnixMilli()
	r.data.UserActivity[userID] = activity

	return r.persist(ctx)
}

// Add counts n occurrences of an event.
func (r *Recorder) Add(ctx context.Context, event Event, n int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event {
	case EventCopy:
		r.data.TotalCopies += n
	case EventVaultSave:
		r.data.TotalVaultSaves += n
	case EventRelease:
		r.data.TotalScriptReleases += n
	default:
		return fmt.Errorf("unknown event %d", event)
	}

	return r.persist(ctx)
}

// Grant counts a premium grant and its revenue.
func (r *Recorder) Grant(ctx context.Context, price int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data.PremiumSubscriptions++
	r.data.PremiumRevenue += price

	return r.persist(ctx)
}

// Snapshot returns a copy of the counters.
func (r *Recorder) Snapshot() models.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.data
	out.UserActivity = maps.Clone(r.data.UserActivity)

	return out
}

// Uptime returns the time since the recorded start.
func (r *Recorder) Uptime() time.Duration {
	r.mu.Lock()
	start := r.data.StartTime
	r.mu.Unlock()

	return r.now().Sub(time.UnixMilli(start))
}

// FormatUptime renders d as "1d 2h 3m 4s".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}
