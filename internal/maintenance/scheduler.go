package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/access"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/bot"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/cache"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/metrics"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/stats"
	"go.uber.org/multierr"
)

// Job names used in logs and metrics.
const (
	JobCacheSweep        = "cache_sweep"
	JobSubscriptionSweep = "subscription_sweep"
	JobAutoRelease       = "auto_release"
)

const jobTimeout = 2 * time.Minute

// Sweeper drops expired entries and reports how many were removed.
type Sweeper interface {
	Sweep() int
}

// ReleaseSource lists the newest published scripts.
type ReleaseSource interface {
	Releases(ctx context.Context, n int) ([]models.ScriptRecord, error)
}

// Publisher delivers an announcement to the subscribers of a channel.
type Publisher interface {
	Publish(channelID string, event any) int
}

// Renderer builds the chat message announcing the i-th of total releases.
type Renderer func(i, total int, s models.ScriptRecord, handle string) bot.Message

// Announcement is the event published for every release and target channel.
type Announcement struct {
	At      time.Time      `json:"at"`
	Release models.Release `json:"release"`
	Message bot.Message    `json:"message"`
}

// Jobs holds the components the periodic jobs operate on. Nil members disable
// the jobs depending on them.
type Jobs struct {
	Caches        map[string]Sweeper
	Subscriptions *access.Subscriptions
	Releases      ReleaseSource
	Artifacts     *cache.Artifacts
	Publisher     Publisher
	Render        Renderer
	Stats         *stats.Recorder
	Channels      []string
}

// Scheduler runs the housekeeping jobs on cron schedules.
type Scheduler struct {
	cron     *cron.Cron
	now      func() time.Time
	log      zerolog.Logger
	jobs     Jobs
	schedule config.Schedule
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithCron overrides the cron instance.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used to stamp announcements.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler constructs a scheduler for the given schedule and jobs.
func NewScheduler(schedule config.Schedule, jobs Jobs, opts ...Option) *Scheduler {
	s := &Scheduler{
		now:      time.Now,
		log:      logger.Component("maintenance"),
		jobs:     jobs,
		schedule: schedule,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(
			cron.WithLogger(cron.DiscardLogger),
			cron.WithChain(cron.Recover(cron.PrintfLogger(&s.log))),
		)
	}

	return s
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	s.add(JobCacheSweep, s.schedule.CacheSweep, s.sweepCaches)
	s.add(JobSubscriptionSweep, s.schedule.SubscriptionSweep, s.sweepSubscriptions)
	if s.schedule.ReleaseInterval > 0 {
		s.add(JobAutoRelease, "@every "+s.schedule.ReleaseInterval.String(), s.publishReleases)
	}

	s.cron.Start()
}

// Stop stops the scheduler and returns a context done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce executes every job immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs error
	errs = multierr.Append(errs, s.run(ctx, JobCacheSweep, s.sweepCaches))
	errs = multierr.Append(errs, s.run(ctx, JobSubscriptionSweep, s.sweepSubscriptions))
	errs = multierr.Append(errs, s.run(ctx, JobAutoRelease, s.publishReleases))
	return errs
}

func (s *Scheduler) add(name, spec string, job func(context.Context) error) {
	if spec == "" {
		return
	}

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		_ = s.run(ctx, name, job)
	})
	if err != nil {
		s.log.Warn().Err(err).Str("job", name).Str("spec", spec).Msg("Failed to schedule job")
	}
}

func (s *Scheduler) run(ctx context.Context, name string, job func(context.Context) error) error {
	err := job(ctx)
	metrics.JobRuns.WithLabelValues(name, metrics.Outcome(err)).Inc()
	if err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("Job failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) sweepCaches(context.Context) error {
	for name, c := range s.jobs.Caches {
		removed := c.Sweep()
		if sized, ok := c.(interface{ Len() int }); ok {
			metrics.CacheEntries.WithLabelValues(name).Set(float64(sized.Len()))
		}
		if removed > 0 {
			s.log.Debug().Str("cache", name).Int("removed", removed).Msg("Cache swept")
		}
	}
	return nil
}

func (s *Scheduler) sweepSubscriptions(ctx context.Context) error {
	if s.jobs.Subscriptions == nil {
		return nil
	}

	removed, err := s.jobs.Subscriptions.SweepExpired(ctx)
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("Expired subscriptions removed")
	}
	return err
}

// publishReleases registers the newest scripts as shareable handles and announces
// them to every target channel.
func (s *Scheduler) publishReleases(ctx context.Context) error {
	if s.jobs.Releases == nil || s.jobs.Publisher == nil || s.jobs.Artifacts == nil || len(s.jobs.Channels) == 0 {
		return nil
	}

	scripts, err := s.jobs.Releases.Releases(ctx, s.schedule.ReleaseCount)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch releases: %w", err)
	}

	delivered := 0
	for i, script := range scripts {
		handle := s.jobs.Artifacts.Put(models.CachedScript{Title: script.Title, Payload: script.Payload})

		var msg bot.Message
		if s.jobs.Render != nil {
			msg = s.jobs.Render(i, len(scripts), script, handle)
		}

		for _, channel := range s.jobs.Channels {
			delivered += s.jobs.Publisher.Publish(channel, Announcement{
				At:      s.now(),
				Release: models.Release{Script: script, Handle: handle, ChannelID: channel},
				Message: msg,
			})
		}
	}

	s.log.Info().
		Int("scripts", len(scripts)).
		Int("channels", len(s.jobs.Channels)).
		Int("delivered", delivered).
		Msg("Releases announced")

	if s.jobs.Stats == nil {
		return nil
	}
	return s.jobs.Stats.Add(ctx, stats.EventRelease, int64(len(scripts)))
}
