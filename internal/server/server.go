// Package server implements the HTTP server, middleware, and request handlers for the
// gateway, admin and feed endpoints.
package server

import (
	"net/http"
	"time"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/metrics"
)

const (
	clientIdle     = 10 * time.Minute
	janitorPeriod  = 5 * time.Minute
	defaultMaxBody = 4096
)

// New creates a new Server instance with the provided dependencies and configuration.
func New(cfg *config.Config, deps Deps) *Server {
	maxBody := cfg.Server.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	return &Server{
		gateway:        deps.Gateway,
		stats:          deps.Stats,
		subs:           deps.Subscriptions,
		feed:           deps.Feed,
		now:            time.Now,
		authToken:      cfg.Server.AuthToken,
		maxBody:        maxBody,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,

		clients:  make(map[string]*client),
		shutdown: make(chan struct{}),
	}
}

// StartWorkers starts the rate limiter janitor.
func (s *Server) StartWorkers() {
	s.wg.Add(1)
	go s.gcClients()
}

// StopWorkers stops the janitor and waits for it.
func (s *Server) StopWorkers() {
	close(s.shutdown)
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	gateway := func(h http.HandlerFunc) http.Handler {
		return s.RateLimitMiddleware(AdminAuthMiddleware(s.authToken, h))
	}

	mux.Handle("POST /api/command", gateway(s.handleCommand))
	mux.Handle("POST /api/interaction", gateway(s.handleInteraction))
	mux.Handle("GET /api/stats", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleStats)))
	mux.Handle("GET /api/subscriptions", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleSubscriptions)))
	if s.feed != nil {
		mux.Handle("GET /api/feed", AdminAuthMiddleware(s.authToken, s.feed))
	}

	mux.Handle("GET /metrics", BasicAuthMiddleware(s.authToken, metrics.Handler()))
	mux.Handle("GET /api/version", AdminAuthMiddleware(s.authToken, http.HandlerFunc(handleVersion)))
	mux.HandleFunc("GET /healthz", handleHealth)

	return s.LoggingMiddleware(mux)
}

// gcClients periodically drops rate limiter state of idle clients.
func (s *Server) gcClients() {
	defer s.wg.Done()

	ticker := time.NewTicker(janitorPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.dropIdle(time.Now())
		}
	}
}

func (s *Server) dropIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for ip, c := range s.clients {
		if now.Sub(c.lastSeen) > clientIdle {
			delete(s.clients, ip)
			dropped++
		}
	}
	return dropped
}
