package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/cache"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/metrics"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/servers"
	"go.uber.org/multierr"
)

// maxGames bounds the games returned for a text query.
const maxGames = 10

// PlaceResolver looks up the game behind a numeric place id.
type PlaceResolver interface {
	Name() string
	Resolve(ctx context.Context, placeID string) (models.GameSummary, error)
}

// Games resolves user queries to games, caching results per query.
type Games struct {
	catalog   *RScripts
	cache     *cache.TTL[models.GameSearch]
	log       zerolog.Logger
	resolvers []PlaceResolver
}

// NewGames creates a game search backed by the rscripts catalog and the resolver
// chain, tried in order.
func NewGames(catalog *RScripts, queries *cache.TTL[models.GameSearch], resolvers ...PlaceResolver) *Games {
	return &Games{
		catalog:   catalog,
		cache:     queries,
		resolvers: resolvers,
		log:       logger.Component("games"),
	}
}

// Search returns the games matching query. Numeric queries are treated as place ids.
func (g *Games) Search(ctx context.Context, query string) (models.GameSearch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.GameSearch{}, models.InvalidInput("game name or place id required")
	}

	key := "search_" + strings.ToLower(query)
	if hit, ok := g.cache.Get(key); ok {
		metrics.QueryCacheLookups.WithLabelValues("hit").Inc()
		g.log.Debug().Str("query", query).Msg("Game search served from cache")
		return hit, nil
	}
	metrics.QueryCacheLookups.WithLabelValues("miss").Inc()

	var (
		result models.GameSearch
		err    error
	)
	if servers.IsPlaceID(query) {
		result, err = g.byPlaceID(ctx, query)
	} else {
		result, err = g.byName(ctx, query)
	}
	if err != nil {
		return models.GameSearch{}, err
	}

	g.cache.Set(key, result)
	return result, nil
}

func (g *Games) byPlaceID(ctx context.Context, placeID string) (models.GameSearch, error) {
	var errs error
	for _, r := range g.resolvers {
		game, err := r.Resolve(ctx, placeID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Name(), err))
			g.log.Debug().Err(err).Str("resolver", r.Name()).Str("place_id", placeID).Msg("Place resolver failed, trying next")
			continue
		}

		game.ID = placeID
		if game.Name == "" {
			game.Name = "Game " + placeID
		}
		if game.Creator == "" {
			game.Creator = "Unknown"
		}

		return models.GameSearch{Games: []models.GameSummary{game}, IsPlaceID: true}, nil
	}

	return models.GameSearch{}, fmt.Errorf("%w: place id %s not found or invalid (%v)", models.ErrNotFound, placeID, errs)
}

func (g *Games) byName(ctx context.Context, query string) (models.GameSearch, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("page", "1")
	q.Set("limit", "20")

	scripts, err := g.catalog.fetch(ctx, q)
	if err != nil {
		return models.GameSearch{}, fmt.Errorf("%w: game search: %v", models.ErrUpstreamUnavailable, err)
	}

	seen := make(map[string]struct{})
	var games []models.GameSummary
	for _, s := range scripts {
		if s.Game == nil || s.Game.PlaceID == "" {
			continue
		}
		id := string(s.Game.PlaceID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		games = append(games, models.GameSummary{
			ID:      id,
			Name:    orDefault(s.Game.Title, "Game "+id),
			Creator: "Unknown",
			Image:   ResolveURL(g.catalog.base, s.Image, ""),
		})
		if len(games) == maxGames {
			break
		}
	}

	if len(games) == 0 {
		return models.GameSearch{}, fmt.Errorf("%w: game %q", models.ErrNotFound, query)
	}

	return models.GameSearch{Games: games}, nil
}

var errNoMatch = errors.New("no matching place")

// CatalogResolver scans the latest catalog page for a script bound to the place.
type CatalogResolver struct {
	catalog *RScripts
}

// NewCatalogResolver creates a resolver over the rscripts catalog.
func NewCatalogResolver(catalog *RScripts) *CatalogResolver {
	return &CatalogResolver{catalog: catalog}
}

// Name implements PlaceResolver.
func (c *CatalogResolver) Name() string { return "catalog" }

// Resolve implements PlaceResolver.
func (c *CatalogResolver) Resolve(ctx context.Context, placeID string) (models.GameSummary, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("limit", "5")

	scripts, err := c.catalog.fetch(ctx, q)
	if err != nil {
		return models.GameSummary{}, err
	}

	for _, s := range scripts {
		if s.Game != nil && string(s.Game.PlaceID) == placeID {
			return models.GameSummary{Name: s.Game.Title}, nil
		}
	}

	return models.GameSummary{}, errNoMatch
}

// UniverseResolver maps the place to its universe and reads the game details.
type UniverseResolver struct {
	client      *Client
	universeURL string
	gamesURL    string
	timeout     time.Duration
}

// NewUniverseResolver creates a resolver over the universe and games APIs.
func NewUniverseResolver(client *Client, universeURL, gamesURL string, timeout time.Duration) *UniverseResolver {
	return &UniverseResolver{
		client:      client,
		universeURL: strings.TrimRight(universeURL, "/"),
		gamesURL:    strings.TrimRight(gamesURL, "/"),
		timeout:     timeout,
	}
}

// Name implements PlaceResolver.
func (u *UniverseResolver) Name() string { return "universe" }

type universeResponse struct {
	UniverseID flexString `json:"universeId"`
}

type gameDetailsResponse struct {
	Data []struct {
		Creator *struct {
			Name string `json:"name"`
		} `json:"creator"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       flexInt `json:"price"`
		Playing     flexInt `json:"playing"`
	} `json:"data"`
}

// Resolve implements PlaceResolver.
func (u *UniverseResolver) Resolve(ctx context.Context, placeID string) (models.GameSummary, error) {
	var uni universeResponse
	if err := u.client.GetJSON(ctx, u.Name(), u.universeURL+"/universes/v1/places/"+url.PathEscape(placeID)+"/universe", u.timeout, &uni); err != nil {
		return models.GameSummary{}, err
	}
	if uni.UniverseID == "" || uni.UniverseID == "null" {
		return models.GameSummary{}, errNoMatch
	}

	var details gameDetailsResponse
	if err := u.client.GetJSON(ctx, u.Name(), u.gamesURL+"/v1/games?universeIds="+url.QueryEscape(string(uni.UniverseID)), u.timeout, &details); err != nil {
		return models.GameSummary{}, err
	}
	if len(details.Data) == 0 {
		return models.GameSummary{}, errNoMatch
	}

	d := details.Data[0]
	game := models.GameSummary{
		Name:        d.Name,
		Description: d.Description,
		Price:       int64(d.Price),
		PlayerCount: int64(d.Playing),
	}
	if d.Creator != nil {
		game.Creator = d.Creator.Name
	}

	return game, nil
}
