package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"go.uber.org/multierr"
)

// Sessions lists live sessions of a place, falling back to the legacy instances
// endpoint when the public servers API fails.
type Sessions struct {
	client    *Client
	log       zerolog.Logger
	gamesURL  string
	legacyURL string
	timeout   time.Duration
}

// NewSessions creates a session source.
func NewSessions(client *Client, gamesURL, legacyURL string, timeout time.Duration) *Sessions {
	return &Sessions{
		client:    client,
		gamesURL:  strings.TrimRight(gamesURL, "/"),
		legacyURL: strings.TrimRight(legacyURL, "/"),
		timeout:   timeout,
		log:       logger.Component("sessions"),
	}
}

type publicServersResponse struct {
	Data []struct {
		ID         flexString `json:"id"`
		FPS        float64    `json:"fps"`
		Ping       flexInt    `json:"ping"`
		Playing    flexInt    `json:"playing"`
		MaxPlayers flexInt    `json:"maxPlayers"`
		VIP        bool       `json:"vip"`
	} `json:"data"`
}

type legacyInstancesResponse struct {
	Collection []struct {
		Guid           string  `json:"Guid"`
		FPS            float64 `json:"FPS"`
		Ping           flexInt `json:"Ping"`
		CurrentPlayers flexInt `json:"CurrentPlayers"`
		MaxPlayers     flexInt `json:"MaxPlayers"`
	} `json:"Collection"`
}

// ListSessions implements servers.SessionSource.
func (s *Sessions) ListSessions(ctx context.Context, placeID string) ([]models.Session, error) {
	sessions, primaryErr := s.public(ctx, placeID)
	if primaryErr == nil {
		return sessions, nil
	}

	s.log.Debug().Err(primaryErr).Str("place_id", placeID).Msg("Public servers API failed, trying legacy instances")

	sessions, legacyErr := s.legacy(ctx, placeID)
	if legacyErr == nil {
		return sessions, nil
	}

	return nil, multierr.Combine(
		fmt.Errorf("public servers: %w", primaryErr),
		fmt.Errorf("legacy instances: %w", legacyErr),
	)
}

func (s *Sessions) public(ctx context.Context, placeID string) ([]models.Session, error) {
	var resp publicServersResponse
	endpoint := s.gamesURL + "/v1/games/" + url.PathEscape(placeID) + "/servers/Public?limit=100&sortOrder=Asc"
	if err := s.client.GetJSON(ctx, "sessions", endpoint, s.timeout, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Session, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, models.Session{
			ID:         string(d.ID),
			FPS:        d.FPS,
			Ping:       int(d.Ping),
			Players:    int(d.Playing),
			MaxPlayers: int(d.MaxPlayers),
			VIP:        d.VIP,
		})
	}

	return out, nil
}

func (s *Sessions) legacy(ctx context.Context, placeID string) ([]models.Session, error) {
	var resp legacyInstancesResponse
	endpoint := s.legacyURL + "/games/getgameinstancesjson?placeId=" + url.QueryEscape(placeID) + "&startindex=0"
	if err := s.client.GetJSON(ctx, "sessions-legacy", endpoint, s.timeout, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Session, 0, len(resp.Collection))
	for _, c := range resp.Collection {
		out = append(out, models.Session{
			ID:         c.Guid,
			FPS:        c.FPS,
			Ping:       int(c.Ping),
			Players:    int(c.CurrentPlayers),
			MaxPlayers: int(c.MaxPlayers),
		})
	}

	return out, nil
}
