package maintenance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/access"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/bot"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/cache"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/stats"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/storage"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeReleases struct {
	err     error
	scripts []models.ScriptRecord
}

func (f *fakeReleases) Releases(_ context.Context, n int) ([]models.ScriptRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if n < len(f.scripts) {
		return f.scripts[:n], nil
	}
	return f.scripts, nil
}

type published struct {
	channel string
	event   Announcement
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) Publish(channelID string, event any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{channel: channelID, event: event.(Announcement)})
	return 1
}

type fixture struct {
	clock     *fakeClock
	docs      storage.Documents
	subs      *access.Subscriptions
	artifacts *cache.Artifacts
	recorder  *stats.Recorder
	releases  *fakeReleases
	publisher *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	docs, err := storage.NewJSONFiles(t.TempDir())
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	f := &fixture{
		clock:     clock,
		docs:      docs,
		subs:      access.NewSubscriptions(docs, clock.Now),
		artifacts: cache.NewArtifacts(time.Hour, cache.WithNow(clock.Now)),
		recorder:  stats.New(docs, clock.Now),
		releases: &fakeReleases{scripts: []models.ScriptRecord{
			{Title: "Auto Farm", GameName: "Blox Fruits", Payload: "print(1)"},
			{Title: "ESP", GameName: "Arsenal", Payload: "print(2)"},
			{Title: "Fly", GameName: "Brookhaven", Payload: "print(3)"},
			{Title: "Extra", GameName: "Doors", Payload: "print(4)"},
		}},
		publisher: &fakePublisher{},
	}
	require.NoError(t, f.subs.Load(context.Background()))
	require.NoError(t, f.recorder.Load(context.Background()))

	return f
}

func (f *fixture) scheduler(schedule config.Schedule, channels ...string) *Scheduler {
	return NewScheduler(schedule, Jobs{
		Caches:        map[string]Sweeper{"artifacts": f.artifacts},
		Subscriptions: f.subs,
		Releases:      f.releases,
		Artifacts:     f.artifacts,
		Publisher:     f.publisher,
		Render: func(i, total int, s models.ScriptRecord, handle string) bot.Message {
			return bot.Message{Content: s.Title + " " + handle}
		},
		Stats:    f.recorder,
		Channels: channels,
	}, WithNow(f.clock.Now))
}

func TestRunSkipsWithoutFlag(t *testing.T) {
	f := newFixture(t)
	require.False(t, Run(context.Background(), &config.Config{}, f.subs))
}

func TestRunSweepsExpiredSubscriptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.subs.Grant(ctx, "short", 1)
	require.NoError(t, err)
	_, err = f.subs.Grant(ctx, "long", 30)
	require.NoError(t, err)
	f.clock.Advance(48 * time.Hour)

	cfg := &config.Config{Storage: config.Storage{SweepExpired: true}}
	require.True(t, Run(ctx, cfg, f.subs))
	require.Equal(t, 1, f.subs.Count())

	_, ok := f.subs.Get("long")
	require.True(t, ok)
}

func TestRunOncePublishesReleases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.scheduler(config.Schedule{ReleaseCount: 3}, "c1", "c2")

	require.NoError(t, s.RunOnce(ctx))

	require.Len(t, f.publisher.events, 6)
	require.Equal(t, int64(3), f.recorder.Snapshot().TotalScriptReleases)

	first := f.publisher.events[0]
	require.Equal(t, "c1", first.channel)
	require.Equal(t, "c1", first.event.Release.ChannelID)
	require.Equal(t, "Auto Farm", first.event.Release.Script.Title)
	require.Equal(t, f.clock.Now(), first.event.At)
	require.Contains(t, first.event.Message.Content, first.event.Release.Handle)

	// Both channels share one redeemable handle per script.
	require.Equal(t, first.event.Release.Handle, f.publisher.events[1].event.Release.Handle)
	payload, err := f.artifacts.Get(first.event.Release.Handle)
	require.NoError(t, err)
	require.Equal(t, "print(1)", payload.Payload)
	require.Equal(t, 3, f.artifacts.Len())
}

func TestRunOnceWithoutChannelsSkipsReleases(t *testing.T) {
	f := newFixture(t)
	s := f.scheduler(config.Schedule{ReleaseCount: 3})

	require.NoError(t, s.RunOnce(context.Background()))
	require.Empty(t, f.publisher.events)
	require.Zero(t, f.artifacts.Len())
}

func TestRunOnceCollectsErrors(t *testing.T) {
	f := newFixture(t)
	f.releases.err = models.ErrUpstreamUnavailable
	s := f.scheduler(config.Schedule{ReleaseCount: 3}, "c1")

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	require.Contains(t, err.Error(), JobAutoRelease)
	require.Empty(t, f.publisher.events)
}

func TestRunOnceTreatsNoReleasesAsSuccess(t *testing.T) {
	f := newFixture(t)
	f.releases.err = models.ErrNotFound
	s := f.scheduler(config.Schedule{ReleaseCount: 3}, "c1")

	require.NoError(t, s.RunOnce(context.Background()))
	require.Zero(t, f.recorder.Snapshot().TotalScriptReleases)
}

func TestRunOnceSweepsCachesAndSubscriptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.artifacts.Put(models.CachedScript{Title: "old", Payload: "x"})
	_, err := f.subs.Grant(ctx, "u1", 1)
	require.NoError(t, err)
	f.clock.Advance(25 * time.Hour)

	s := f.scheduler(config.Schedule{})
	require.NoError(t, s.RunOnce(ctx))

	require.Zero(t, f.artifacts.Len())
	require.Zero(t, f.subs.Count())
}

func TestSchedulerRunsCronJobs(t *testing.T) {
	f := newFixture(t)
	f.artifacts.Put(models.CachedScript{Title: "old", Payload: "x"})
	f.clock.Advance(2 * time.Hour)

	s := f.scheduler(config.Schedule{CacheSweep: "@every 1s", SubscriptionSweep: "not a spec"})
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return f.artifacts.Len() == 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRecoversPanickingJob(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.subs.Grant(ctx, "u1", 1)
	require.NoError(t, err)
	f.clock.Advance(25 * time.Hour)

	s := NewScheduler(config.Schedule{CacheSweep: "@every 1s", SubscriptionSweep: "@every 1s"}, Jobs{
		Caches:        map[string]Sweeper{"broken": panicSweeper{}},
		Subscriptions: f.subs,
	})
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return f.subs.Count() == 0 }, 3*time.Second, 50*time.Millisecond)
}

type panicSweeper struct{}

func (panicSweeper) Sweep() int { panic("boom") }
