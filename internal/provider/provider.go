package provider

import (
	"context"
	"fmt"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/cache"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

// Per-tier catalog budgets.
const (
	freeRScripts      = 25
	freeScriptBlox    = 30
	premiumRScripts   = 40
	premiumScriptBlox = 50
	premiumWeAreDevs  = 50

	// releaseWindow is the page fetched when looking for new releases.
	releaseWindow = 10
)

// Hub bundles every upstream adapter used by the command layer.
type Hub struct {
	*Aggregator

	Games    *Games
	Sessions *Sessions

	rscripts   *RScripts
	scriptblox *ScriptBlox
}

// New wires the adapters from configuration. The thumbnail is used when a
// provider supplies none.
func New(cfg config.Providers, cacheCfg config.Cache, thumbnail string) *Hub {
	client := NewClient(cfg)

	rs := NewRScripts(client, cfg.RScriptsURL, thumbnail, cfg.CatalogTimeout)
	sb := NewScriptBlox(client, cfg.ScriptBloxURL, thumbnail, cfg.CatalogTimeout)
	wd := NewWeAreDevs(client, cfg.WeAreDevsURL, thumbnail, cfg.CatalogTimeout)

	free := []Source{{Catalog: rs, Limit: freeRScripts}, {Catalog: sb, Limit: freeScriptBlox}}
	premium := []Source{{Catalog: rs, Limit: premiumRScripts}, {Catalog: sb, Limit: premiumScriptBlox}, {Catalog: wd, Limit: premiumWeAreDevs}}

	shards := cache.WithShards(cacheCfg.Shards)
	scriptQueries := cache.New[[]models.ScriptRecord](cacheCfg.QueryTTL, shards)
	gameQueries := cache.New[models.GameSearch](cacheCfg.QueryTTL, shards)

	// Place resolution runs under the shorter resolve timeout.
	resolverCatalog := NewRScripts(client, cfg.RScriptsURL, thumbnail, cfg.ResolveTimeout)

	return &Hub{
		Aggregator: NewAggregator(free, premium, scriptQueries),
		Games: NewGames(rs, gameQueries,
			NewCatalogResolver(resolverCatalog),
			NewUniverseResolver(client, cfg.UniverseURL, cfg.GamesURL, cfg.ResolveTimeout),
		),
		Sessions:   NewSessions(client, cfg.GamesURL, cfg.LegacyURL, cfg.SessionTimeout),
		rscripts:   rs,
		scriptblox: sb,
	}
}

// Releases returns the newest n scripts of the rscripts catalog.
func (h *Hub) Releases(ctx context.Context, n int) ([]models.ScriptRecord, error) {
	latest, err := h.rscripts.Latest(ctx, releaseWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: releases: %v", models.ErrUpstreamUnavailable, err)
	}
	if len(latest) == 0 {
		return nil, fmt.Errorf("%w: no scripts released", models.ErrNotFound)
	}
	if n > 0 && len(latest) > n {
		latest = latest[:n]
	}

	return latest, nil
}

// Executors returns the executor list.
func (h *Hub) Executors(ctx context.Context) ([]models.Executor, error) {
	list, err := h.scriptblox.Executors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: executors: %v", models.ErrUpstreamUnavailable, err)
	}
	return list, nil
}

// Sweep drops expired query cache entries.
func (h *Hub) Sweep() int {
	return h.Aggregator.cache.Sweep() + h.Games.cache.Sweep()
}
