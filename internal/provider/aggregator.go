package provider

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/cache"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/metrics"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"go.uber.org/multierr"
)

// Source binds a catalog to the number of records requested from it.
type Source struct {
	Catalog Catalog
	Limit   int
}

// Aggregator fans a script query out to the catalogs of a tier.
type Aggregator struct {
	tiers map[models.Tier][]Source
	cache *cache.TTL[[]models.ScriptRecord]
	log   zerolog.Logger
}

// NewAggregator creates an aggregator. A nil query cache disables caching.
func NewAggregator(free, premium []Source, queries *cache.TTL[[]models.ScriptRecord]) *Aggregator {
	return &Aggregator{
		tiers: map[models.Tier][]Source{
			models.TierFree:    free,
			models.TierPremium: premium,
		},
		cache: queries,
		log:   logger.Component("provider"),
	}
}

type outcome struct {
	err     error
	records []models.ScriptRecord
}

// SearchScripts queries every catalog of the tier concurrently and concatenates the
// results in catalog order. Failed catalogs are skipped; the call fails with
// ErrUpstreamUnavailable only when all of them failed.
func (a *Aggregator) SearchScripts(ctx context.Context, query string, tier models.Tier) ([]models.ScriptRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.InvalidInput("search query must not be empty")
	}

	sources, ok := a.tiers[tier]
	if !ok {
		sources = a.tiers[models.TierFree]
	}

	key := "scripts_" + string(tier) + "_" + strings.ToLower(query)
	if a.cache != nil {
		if hit, ok := a.cache.Get(key); ok {
			metrics.QueryCacheLookups.WithLabelValues("hit").Inc()
			return slices.Clone(hit), nil
		}
		metrics.QueryCacheLookups.WithLabelValues("miss").Inc()
	}

	results := make([]outcome, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			records, err := src.Catalog.Search(ctx, query, src.Limit)
			results[i] = outcome{records: records, err: err}
		}(i, src)
	}
	wg.Wait()

	var (
		all    []models.ScriptRecord
		errs   error
		failed int
	)
	for i, res := range results {
		name := sources[i].Catalog.Name()
		if res.err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, res.err))
			a.log.Warn().Err(res.err).Str("provider", name).Str("query", query).Msg("Catalog search failed")
			continue
		}
		all = append(all, res.records...)
	}

	if len(sources) == 0 || failed == len(sources) {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, errs)
	}

	a.log.Debug().
		Str("query", query).
		Str("tier", string(tier)).
		Int("records", len(all)).
		Int("failed", failed).
		Msg("Catalog search finished")

	// Partial answers are not cached so a recovered catalog shows up on the next query.
	if a.cache != nil && failed == 0 {
		a.cache.Set(key, slices.Clone(all))
	}

	return all, nil
}
