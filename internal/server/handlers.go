package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/stats"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/vars"
)

// statsResponse is the counters document plus derived runtime values.
type statsResponse struct {
	models.Stats
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	PremiumUsers  int    `json:"premiumUsers"`
}

// subscriptionView is a subscription with readable timestamps.
type subscriptionView struct {
	Start    time.Time `json:"startDate"`
	Expiry   time.Time `json:"expiryDate"`
	UserID   string    `json:"userId"`
	Tier     string    `json:"tier"`
	DaysLeft int       `json:"daysLeft"`
}

// healthResponse is the liveness probe answer.
type healthResponse struct {
	Status  string         `json:"status"`
	Version vars.BuildInfo `json:"version"`
}

// handleHealth answers liveness probes with short version details.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: vars.Ver()})
}

// handleVersion returns full build metadata.
// This endpoint is protected by AdminAuthMiddleware.
func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}

// handleStats returns the usage counters.
// This endpoint is protected by AdminAuthMiddleware.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	uptime := s.stats.Uptime()

	resp := statsResponse{
		Stats:         s.stats.Snapshot(),
		Uptime:        stats.FormatUptime(uptime),
		UptimeSeconds: int64(uptime.Seconds()),
	}
	if s.subs != nil {
		resp.PremiumUsers = len(s.subs.Active())
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleSubscriptions returns active premium subscriptions ordered by soonest expiry.
// This endpoint is protected by AdminAuthMiddleware.
func (s *Server) handleSubscriptions(w http.ResponseWriter, _ *http.Request) {
	if s.subs == nil {
		writeJSON(w, http.StatusOK, []subscriptionView{})
		return
	}

	now := s.now()
	active := s.subs.Active()
	out := make([]subscriptionView, 0, len(active))
	for _, sub := range active {
		out = append(out, subscriptionView{
			UserID:   sub.UserID,
			Tier:     sub.Tier,
			Start:    sub.Start,
			Expiry:   sub.Expiry,
			DaysLeft: sub.DaysLeft(now),
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}
