// Package servers classifies live game sessions by occupancy and selects the
// emptiest joinable ones.
package servers

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

// Selection limits.
const (
	MaxCandidates = 10
	MaxFallback   = 5

	emptyMinPlayers = 1
	emptyMaxPlayers = 5
	emptyMaxFill    = 30.0
)

// Stability is a static occupancy label with its expected stable duration.
type Stability struct {
	Label   string
	Minutes string
}

var byPlayers = map[int]Stability{
	1: {"VERY EMPTY", "20-40"},
	2: {"EMPTY", "15-30"},
	3: {"MEDIUM", "10-20"},
	4: {"SOMEWHAT BUSY", "5-15"},
	5: {"BUSY", "3-10"},
}

var (
	almostFull     = Stability{"ALMOST FULL", "1-5"}
	moderatelyBusy = Stability{"MODERATELY BUSY", "3-8"}
	stable         = Stability{"STABLE", "15-30"}
)

// Label maps an absolute player count (1..5) or, outside that range, a fill
// percentage to a stability label.
func Label(players, fillPercentage int) Stability {
	if s, ok := byPlayers[players]; ok {
		return s
	}

	switch {
	case fillPercentage >= 50:
		return almostFull
	case fillPercentage >= 30:
		return moderatelyBusy
	default:
		return stable
	}
}

func joinable(s models.Session) bool {
	return !s.VIP && s.Players < s.Capacity()
}

func isEmpty(s models.Session) bool {
	if !joinable(s) {
		return false
	}
	return (s.Players >= emptyMinPlayers && s.Players <= emptyMaxPlayers) || s.Fill() < emptyMaxFill
}

func pick(sessions []models.Session, keep func(models.Session) bool, limit int) []models.Session {
	out := make([]models.Session, 0, limit)
	for _, s := range sessions {
		if keep(s) {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Players < out[j].Players })
	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

// Select returns the empty sessions (at most MaxCandidates), or when none qualify the
// least populated joinable ones (at most MaxFallback). Both lists are ordered by
// ascending player count. It fails with ErrNoSuitableServers when nothing is joinable.
func Select(sessions []models.Session) ([]models.Session, error) {
	if picked := pick(sessions, isEmpty, MaxCandidates); len(picked) > 0 {
		return picked, nil
	}

	if picked := pick(sessions, joinable, MaxFallback); len(picked) > 0 {
		return picked, nil
	}

	return nil, models.ErrNoSuitableServers
}

// Classify annotates a session with fill percentage, stability label and join links.
func Classify(s models.Session, placeID, gameName string) models.ServerRecord {
	capacity := s.Capacity()
	fill := int(math.Round(s.Fill()))
	label := Label(s.Players, fill)

	if gameName == "" {
		gameName = "Game " + placeID
	}

	short := s.ID
	if len(short) > 8 {
		short = short[:8]
	}

	return models.ServerRecord{
		ServerID:       s.ID,
		ShortID:        strings.ToUpper(short),
		PlaceID:        placeID,
		GameName:       gameName,
		Players:        s.Players,
		MaxPlayers:     capacity,
		VIP:            s.VIP,
		FillPercentage: fill,
		Label:          label.Label,
		Stability:      label.Minutes,
		WebLink:        WebLink(placeID, s.ID),
		LaunchLink:     LaunchLink(placeID, s.ID),
	}
}

// WebLink returns the browser join URL for a session.
func WebLink(placeID, serverID string) string {
	return fmt.Sprintf("https://www.roblox.com/games/start?placeId=%s&gameInstanceId=%s",
		url.QueryEscape(placeID), url.QueryEscape(serverID))
}

// LaunchLink returns the native client deep link for a session.
func LaunchLink(placeID, serverID string) string {
	return fmt.Sprintf("roblox://placeId=%s&gameInstanceId=%s",
		url.QueryEscape(placeID), url.QueryEscape(serverID))
}
