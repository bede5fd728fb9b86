package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/access"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/bot"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/stats"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/storage"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/vars"
)

const token = "secret"

type fakeGateway struct {
	commands     []bot.Command
	interactions []bot.Interaction
}

func (g *fakeGateway) HandleCommand(_ context.Context, cmd bot.Command) *bot.Reply {
	g.commands = append(g.commands, cmd)
	if !strings.HasPrefix(cmd.Text, ".") {
		return nil
	}
	return &bot.Reply{Messages: []bot.Message{{Content: "pong " + cmd.UserID}}}
}

func (g *fakeGateway) HandleInteraction(_ context.Context, in bot.Interaction) *bot.Reply {
	g.interactions = append(g.interactions, in)
	return &bot.Reply{Ephemeral: true, Messages: []bot.Message{{Content: in.CustomID}}}
}

type fixture struct {
	gateway  *fakeGateway
	recorder *stats.Recorder
	subs     *access.Subscriptions
	handler  http.Handler
	server   *Server
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()

	docs, err := storage.NewJSONFiles(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		Server:    config.Server{AuthToken: token, MaxBodySize: 512},
		RateLimit: config.RateLimit{HardLimitCount: 100, HardLimitWin: time.Minute},
	}
	if mutate != nil {
		mutate(cfg)
	}

	f := &fixture{
		gateway:  &fakeGateway{},
		recorder: stats.New(docs, nil),
		subs:     access.NewSubscriptions(docs, nil),
	}
	f.server = New(cfg, Deps{
		Gateway:       f.gateway,
		Stats:         f.recorder,
		Subscriptions: f.subs,
		Feed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})
	f.handler = f.server.Run()

	return f
}

func (f *fixture) do(method, path, body string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestCommandRequiresToken(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/command", `{"user_id":"u1","text":".help"}`, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, f.gateway.commands)
}

func TestCommandReturnsReply(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/command", `{"user_id":"u1","channel_id":"c1","text":".help"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var reply bot.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.Len(t, reply.Messages, 1)
	require.Equal(t, "pong u1", reply.Messages[0].Content)

	require.Len(t, f.gateway.commands, 1)
	require.Equal(t, "c1", f.gateway.commands[0].ChannelID)
}

func TestIgnoredCommandIsNoContent(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/command", `{"user_id":"u1","text":"hello"}`, true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestCommandValidation(t *testing.T) {
	f := newFixture(t, nil)

	require.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/command", `{`, true).Code)
	require.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/command", `{"text":".help"}`, true).Code)

	big := `{"user_id":"u1","text":"` + strings.Repeat("a", 1024) + `"}`
	require.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/command", big, true).Code)

	require.Equal(t, http.StatusMethodNotAllowed, f.do(http.MethodGet, "/api/command", "", true).Code)
	require.Empty(t, f.gateway.commands)
}

func TestInteraction(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/interaction", `{"user_id":"u1","custom_id":"copy_script_abc"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply bot.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.True(t, reply.Ephemeral)
	require.Equal(t, "copy_script_abc", reply.Messages[0].Content)

	require.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/interaction", `{"user_id":"u1"}`, true).Code)
}

func TestRateLimitPerIP(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.RateLimit.HardLimitCount = 2
	})

	body := `{"user_id":"u1","text":".help"}`
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/command", body, true).Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/command", body, true).Code)
	require.Equal(t, http.StatusTooManyRequests, f.do(http.MethodPost, "/api/command", body, true).Code)

	// Admin endpoints are not rate limited.
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/stats", "", true).Code)
}

func TestDropIdleClients(t *testing.T) {
	f := newFixture(t, nil)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/command", `{"user_id":"u1","text":".help"}`, true).Code)

	require.Zero(t, f.server.dropIdle(time.Now()))
	require.Equal(t, 1, f.server.dropIdle(time.Now().Add(clientIdle+time.Second)))

	f.server.StartWorkers()
	f.server.StopWorkers()
}

func TestStatsEndpoint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	require.NoError(t, f.recorder.Command(ctx, "search", "u1"))
	require.NoError(t, f.recorder.Grant(ctx, 20000))
	_, err := f.subs.Grant(ctx, "u1", 30)
	require.NoError(t, err)

	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/stats", "", false).Code)

	rec := f.do(http.MethodGet, "/api/stats", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 1, body["totalSearches"])
	require.EqualValues(t, 20000, body["premiumRevenue"])
	require.EqualValues(t, 1, body["premiumUsers"])
	require.Contains(t, body, "uptime")
}

func TestSubscriptionsEndpoint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.subs.Grant(ctx, "u2", 30)
	require.NoError(t, err)
	_, err = f.subs.Grant(ctx, "u1", 7)
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/subscriptions", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var subs []subscriptionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	require.Len(t, subs, 2)
	require.Equal(t, "u1", subs[0].UserID)
	require.Equal(t, 7, subs[0].DaysLeft)
	require.Equal(t, "u2", subs[1].UserID)
}

func TestFeedRequiresToken(t *testing.T) {
	f := newFixture(t, nil)

	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/feed?channel=c1", "", false).Code)
	require.Equal(t, http.StatusTeapot, f.do(http.MethodGet, "/api/feed?channel=c1", "", true).Code)
}

func TestMetricsBasicAuth(t *testing.T) {
	f := newFixture(t, nil)

	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/metrics", "", false).Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("admin", token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHealthAndVersion(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/healthz", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, vars.Name, health.Version.Name)

	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/version", "", false).Code)

	rec = f.do(http.MethodGet, "/api/version", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var info vars.BuildInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, vars.License, info.License)
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")

	require.Equal(t, "10.0.0.1", GetRealIP(req, false))
	require.Equal(t, "1.2.3.4", GetRealIP(req, true))

	req.Header.Set("CF-Connecting-IP", "5.6.7.8")
	require.Equal(t, "5.6.7.8", GetRealIP(req, true))
}
