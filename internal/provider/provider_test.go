package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/ranking"
)

const testThumb = "https://example.test/thumb.png"

func upstream(t *testing.T, routes map[string]http.HandlerFunc) *Hub {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.Providers{
		UserAgent:      "xfor-test",
		RScriptsURL:    srv.URL,
		ScriptBloxURL:  srv.URL,
		WeAreDevsURL:   srv.URL,
		GamesURL:       srv.URL,
		UniverseURL:    srv.URL,
		LegacyURL:      srv.URL,
		CatalogTimeout: 2 * time.Second,
		ResolveTimeout: 2 * time.Second,
		SessionTimeout: 2 * time.Second,
	}

	return New(cfg, config.Cache{QueryTTL: time.Minute, Shards: 2}, testThumb)
}

func writeJSON(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func fail(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "boom", http.StatusBadGateway)
}

var arsenalRScripts = map[string]any{
	"scripts": []map[string]any{{
		"title":     "[BEST] Arsenal Script 2024",
		"game":      map[string]any{"title": "Arsenal", "placeId": 286090429},
		"rawScript": "/raw/arsenal.lua",
		"image":     "/images/arsenal.png",
		"views":     1200,
		"keySystem": false,
		"user":      map[string]any{"username": "dev", "verified": true},
		"testedExecutors": []map[string]any{
			{"name": "Delta"},
		},
	}},
}

var arsenalScriptBlox = map[string]any{
	"result": map[string]any{
		"scripts": []map[string]any{{
			"title":  "Arsenal Aimbot",
			"game":   map[string]any{"name": "Arsenal"},
			"script": "print('aim')",
			"views":  "300",
			"key":    true,
			"owner":  map[string]any{"username": "blox"},
		}},
	},
}

func TestSearchScriptsScoresAcrossProviders(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts":    writeJSON(arsenalRScripts),
		"GET /api/script/search": writeJSON(arsenalScriptBlox),
	})

	records, err := hub.SearchScripts(context.Background(), "Arsenal", models.TierFree)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.Equal(t, "Arsenal Script", first.Title)
	require.Equal(t, "Arsenal", first.GameName)
	require.Equal(t, "286090429", first.PlaceID)
	require.Equal(t, "rscripts", first.Source)
	require.True(t, first.Verified)
	require.Equal(t, []string{"Delta"}, first.Executors)
	require.Contains(t, first.Payload, `loadstring(game:HttpGet("http`)
	require.Contains(t, first.Payload, `/raw/arsenal.lua"))()`)
	require.Contains(t, first.Thumbnail, "/images/arsenal.png")

	second := records[1]
	require.Equal(t, "Arsenal Aimbot", second.Title)
	require.Equal(t, "print('aim')", second.Payload)
	require.Equal(t, int64(300), second.Views)
	require.True(t, second.KeyRequired)
	require.Equal(t, testThumb, second.Thumbnail)

	ranked := ranking.Rank(records, "Arsenal", ranking.Options{Budget: 6})
	require.Len(t, ranked, 2)
	for _, r := range ranked {
		require.GreaterOrEqual(t, r.Score, 100, r.Title)
	}
	require.Equal(t, ranked[0].Score, ranked[1].Score)
	require.Equal(t, "Arsenal Script", ranked[0].Title)
	require.Equal(t, "Arsenal Aimbot", ranked[1].Title)

	// With equal scores and verification the view count decides.
	unverified := slices.Clone(records)
	for i := range unverified {
		unverified[i].Verified = false
	}
	ranked = ranking.Rank(unverified, "Arsenal", ranking.Options{Budget: 6})
	require.Equal(t, "Arsenal Script", ranked[0].Title)

	unverified[0].Views, unverified[1].Views = 10, 5000
	ranked = ranking.Rank(unverified, "Arsenal", ranking.Options{Budget: 6})
	require.Equal(t, "Arsenal Aimbot", ranked[0].Title)
}

func TestSearchScriptsPartialFailure(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts":    writeJSON(arsenalRScripts),
		"GET /api/script/search": fail,
	})

	records, err := hub.SearchScripts(context.Background(), "arsenal", models.TierFree)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "rscripts", records[0].Source)
}

func TestSearchScriptsMalformedJSONCountsAsFailure(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		},
		"GET /api/script/search": writeJSON(arsenalScriptBlox),
	})

	records, err := hub.SearchScripts(context.Background(), "arsenal", models.TierFree)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "scriptblox", records[0].Source)
}

func TestSearchScriptsAllFail(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts":     fail,
		"GET /api/script/search":  fail,
		"GET /api/scripts/search": fail,
	})

	_, err := hub.SearchScripts(context.Background(), "arsenal", models.TierPremium)
	require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestSearchScriptsPremiumAddsWeAreDevs(t *testing.T) {
	var limit atomic.Value
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts": func(w http.ResponseWriter, r *http.Request) {
			limit.Store(r.URL.Query().Get("limit"))
			writeJSON(arsenalRScripts)(w, r)
		},
		"GET /api/script/search": writeJSON(arsenalScriptBlox),
		"GET /api/scripts/search": writeJSON([]map[string]any{{
			"title": "Arsenal Silent Aim (Working)",
			"game":  "Arsenal",
			"url":   "https://cdn.example.test/silent.lua",
		}}),
	})

	records, err := hub.SearchScripts(context.Background(), "arsenal", models.TierPremium)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "40", limit.Load())

	last := records[2]
	require.Equal(t, "wearedevs", last.Source)
	require.Equal(t, "Arsenal Silent Aim", last.Title)
	require.Equal(t, `loadstring(game:HttpGet("https://cdn.example.test/silent.lua"))()`, last.Payload)
}

func TestSearchScriptsCachesCompleteAnswers(t *testing.T) {
	var calls atomic.Int32
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(arsenalRScripts)(w, r)
		},
		"GET /api/script/search": writeJSON(arsenalScriptBlox),
	})

	for range 3 {
		_, err := hub.SearchScripts(context.Background(), "Arsenal", models.TierFree)
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), calls.Load())
}

func TestSearchScriptsRejectsEmptyQuery(t *testing.T) {
	hub := upstream(t, nil)

	_, err := hub.SearchScripts(context.Background(), "   ", models.TierFree)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestGamesSearchByName(t *testing.T) {
	var calls atomic.Int32
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(map[string]any{"scripts": []map[string]any{
				{"title": "a", "game": map[string]any{"title": "Blox Fruits", "placeId": "2753915549"}},
				{"title": "b", "game": map[string]any{"title": "Blox Fruits", "placeId": "2753915549"}},
				{"title": "c", "game": map[string]any{"title": "Blox Fruits 2", "placeId": 4442272183}},
				{"title": "d"},
			}})(w, r)
		},
	})

	res, err := hub.Games.Search(context.Background(), "Blox Fruits")
	require.NoError(t, err)
	require.False(t, res.IsPlaceID)
	require.Len(t, res.Games, 2)
	require.Equal(t, "2753915549", res.Games[0].ID)
	require.Equal(t, "4442272183", res.Games[1].ID)

	_, err = hub.Games.Search(context.Background(), "blox fruits")
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestGamesSearchByNameNotFound(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts": writeJSON(map[string]any{"scripts": []any{}}),
	})

	_, err := hub.Games.Search(context.Background(), "nothing here")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestGamesSearchPlaceIDFallsBackToUniverse(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts": writeJSON(arsenalRScripts),
		"GET /universes/v1/places/{id}/universe": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1537690962", r.PathValue("id"))
			writeJSON(map[string]any{"universeId": 601130232})(w, r)
		},
		"GET /v1/games": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "601130232", r.URL.Query().Get("universeIds"))
			writeJSON(map[string]any{"data": []map[string]any{{
				"name":    "Bee Swarm Simulator",
				"creator": map[string]any{"name": "Onett"},
				"playing": 25000,
			}}})(w, r)
		},
	})

	res, err := hub.Games.Search(context.Background(), "1537690962")
	require.NoError(t, err)
	require.True(t, res.IsPlaceID)
	require.Len(t, res.Games, 1)
	require.Equal(t, models.GameSummary{
		ID:          "1537690962",
		Name:        "Bee Swarm Simulator",
		Creator:     "Onett",
		PlayerCount: 25000,
	}, res.Games[0])
}

func TestGamesSearchPlaceIDFromCatalog(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts": writeJSON(arsenalRScripts),
	})

	res, err := hub.Games.Search(context.Background(), "286090429")
	require.NoError(t, err)
	require.Equal(t, "Arsenal", res.Games[0].Name)
	require.Equal(t, "Unknown", res.Games[0].Creator)
}

func TestGamesSearchPlaceIDExhausted(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts":                    fail,
		"GET /universes/v1/places/{id}/universe": fail,
	})

	_, err := hub.Games.Search(context.Background(), "42")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestListSessionsPrimary(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /v1/games/{id}/servers/Public": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			assert.Equal(t, "Asc", r.URL.Query().Get("sortOrder"))
			assert.Equal(t, "xfor-test", r.Header.Get("User-Agent"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			writeJSON(map[string]any{"data": []map[string]any{
				{"id": "abc", "playing": 2, "maxPlayers": 12, "fps": 59.9, "ping": 80},
			}})(w, r)
		},
	})

	sessions, err := hub.Sessions.ListSessions(context.Background(), "123")
	require.NoError(t, err)
	require.Equal(t, []models.Session{{ID: "abc", Players: 2, MaxPlayers: 12, FPS: 59.9, Ping: 80}}, sessions)
}

func TestListSessionsFallsBackToLegacy(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /v1/games/{id}/servers/Public": fail,
		"GET /games/getgameinstancesjson": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "123", r.URL.Query().Get("placeId"))
			writeJSON(map[string]any{"Collection": []map[string]any{
				{"Guid": "g-1", "CurrentPlayers": 3, "MaxPlayers": 30, "FPS": 60, "Ping": 40},
			}})(w, r)
		},
	})

	sessions, err := hub.Sessions.ListSessions(context.Background(), "123")
	require.NoError(t, err)
	require.Equal(t, []models.Session{{ID: "g-1", Players: 3, MaxPlayers: 30, FPS: 60, Ping: 40}}, sessions)
}

func TestListSessionsBothFail(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /v1/games/{id}/servers/Public": fail,
		"GET /games/getgameinstancesjson":   fail,
	})

	_, err := hub.Sessions.ListSessions(context.Background(), "123")
	require.Error(t, err)

	var status *StatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, http.StatusBadGateway, status.Code)
}

func TestReleasesAndExecutors(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{
		"GET /api/v2/scripts": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "date", r.URL.Query().Get("orderBy"))
			scripts := make([]map[string]any, 5)
			for i := range scripts {
				scripts[i] = map[string]any{"title": string(rune('A' + i)), "script": "print(1)"}
			}
			writeJSON(map[string]any{"scripts": scripts})(w, r)
		},
		"GET /api/executor/list": writeJSON([]map[string]any{
			{"name": "Delta", "type": "free", "platform": "android", "website": "https://delta.test", "patched": false},
		}),
	})

	releases, err := hub.Releases(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, releases, 3)
	require.Equal(t, "A", releases[0].Title)
	require.Equal(t, unknownGame, releases[0].GameName)

	executors, err := hub.Executors(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.Executor{{Name: "Delta", Type: "free", Platform: "android", Website: "https://delta.test"}}, executors)
}

func TestExecutorsUnavailable(t *testing.T) {
	hub := upstream(t, map[string]http.HandlerFunc{"GET /api/executor/list": fail})

	_, err := hub.Executors(context.Background())
	require.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}
