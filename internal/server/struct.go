package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/access"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/bot"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/stats"
	"golang.org/x/time/rate"
)

// Gateway turns chat events relayed by the platform connector into replies.
type Gateway interface {
	HandleCommand(ctx context.Context, cmd bot.Command) *bot.Reply
	HandleInteraction(ctx context.Context, in bot.Interaction) *bot.Reply
}

// Deps are the components served over HTTP.
type Deps struct {
	Gateway       Gateway
	Stats         *stats.Recorder
	Subscriptions *access.Subscriptions
	// Feed serves the release announcement websocket. Nil disables the route.
	Feed http.Handler
}

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests.
type Server struct {
	// gateway handles relayed commands and button interactions.
	gateway Gateway

	// stats provides the usage counters exposed on /api/stats.
	stats *stats.Recorder

	// subs provides the premium records exposed on /api/subscriptions.
	subs *access.Subscriptions

	// feed is the websocket handler for release announcements.
	feed http.Handler

	// now is the clock used for days-left computations.
	now func() time.Time

	// clients holds the per-IP token buckets of the hard rate limiter.
	clients map[string]*client

	// shutdown is a signal channel used to stop the limiter janitor.
	shutdown chan struct{}

	// authToken is the secret token required by the gateway and admin endpoints.
	authToken string

	// wg waits for the janitor before the server shuts down completely.
	wg sync.WaitGroup

	// mu guards clients.
	mu sync.Mutex

	// maxBody specifies the maximum allowed size (in bytes) for incoming HTTP request bodies.
	maxBody int64

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// or CF-Connecting-IP when determining the client's real IP address.
	trustProxy bool
}

// client is the rate limiter state of one IP address.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}
