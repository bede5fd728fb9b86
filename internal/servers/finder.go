package servers

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

var numeric = regexp.MustCompile(`^\d+$`)

// IsPlaceID reports whether s looks like a numeric place identifier.
func IsPlaceID(s string) bool {
	return numeric.MatchString(s)
}

// SessionSource lists the live sessions of a place.
type SessionSource interface {
	ListSessions(ctx context.Context, placeID string) ([]models.Session, error)
}

// Finder selects candidate servers from a session source.
type Finder struct {
	source SessionSource
	log    zerolog.Logger
}

// NewFinder creates a Finder.
func NewFinder(source SessionSource) *Finder {
	return &Finder{source: source, log: logger.Component("servers")}
}

// FindCandidates returns up to MaxCandidates classified sessions of placeID.
func (f *Finder) FindCandidates(ctx context.Context, placeID, gameName string) ([]models.ServerRecord, error) {
	if !IsPlaceID(placeID) {
		return nil, fmt.Errorf("%w: invalid place id %q, must be numbers only", models.ErrNotFound, placeID)
	}

	sessions, err := f.source.ListSessions(ctx, placeID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: list sessions: %v", models.ErrUpstreamUnavailable, err)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("%w: no public servers for place %s", models.ErrNotFound, placeID)
	}

	picked, err := Select(sessions)
	if err != nil {
		return nil, err
	}

	f.log.Debug().
		Str("place_id", placeID).
		Int("sessions", len(sessions)).
		Int("selected", len(picked)).
		Msg("Servers classified")

	out := make([]models.ServerRecord, 0, len(picked))
	for _, s := range picked {
		out = append(out, Classify(s, placeID, gameName))
	}

	return out, nil
}
