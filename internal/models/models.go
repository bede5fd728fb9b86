// Package models defines the data structures shared between the providers, the ranking
// and classification engines, the access controller and the persisted documents.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Tier is the access class of a user.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// ScriptRecord is a normalized catalog entry produced by one of the script providers.
type ScriptRecord struct {
	LastUpdated time.Time `json:"last_updated"`
	Title       string    `json:"title"`
	GameName    string    `json:"game"`
	PlaceID     string    `json:"place_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Payload     string    `json:"script"`
	Creator     string    `json:"creator"`
	Source      string    `json:"source"`
	Executors   []string  `json:"executors,omitempty"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Dislikes    int64     `json:"dislikes"`

	// Score is derived by the ranking engine and never persisted.
	Score int `json:"-"`

	KeyRequired bool `json:"key_required"`
	MobileReady bool `json:"mobile_ready"`
	Verified    bool `json:"verified"`
}

// Identity returns the deduplication key: lowercased title and game name.
func (s ScriptRecord) Identity() string {
	return strings.ToLower(s.Title) + "-" + strings.ToLower(s.GameName)
}

// GameSummary is a lightweight description of a game (place).
type GameSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Creator     string `json:"creator"`
	Image       string `json:"image,omitempty"`
	Price       int64  `json:"price"`
	PlayerCount int64  `json:"player_count"`
}

// GameSearch is the cached result of a game lookup.
type GameSearch struct {
	Games     []GameSummary `json:"games"`
	IsPlaceID bool          `json:"is_place_id"`
}

// Session is a raw live game session reported by a session provider.
type Session struct {
	ID         string  `json:"id"`
	FPS        float64 `json:"fps,omitempty"`
	Ping       int     `json:"ping,omitempty"`
	Players    int     `json:"playing"`
	MaxPlayers int     `json:"maxPlayers"`
	VIP        bool    `json:"vip,omitempty"`
}

// DefaultMaxPlayers is assumed when a provider omits the session capacity.
const DefaultMaxPlayers = 20

// Capacity returns MaxPlayers, falling back to DefaultMaxPlayers for missing values.
func (s Session) Capacity() int {
	if s.MaxPlayers <= 0 {
		return DefaultMaxPlayers
	}
	return s.MaxPlayers
}

// Fill returns the occupancy percentage of the session.
func (s Session) Fill() float64 {
	return float64(s.Players) / float64(s.Capacity()) * 100
}

// ServerRecord is a classified session ready to be rendered.
type ServerRecord struct {
	ServerID       string `json:"server_id"`
	ShortID        string `json:"short_id"`
	PlaceID        string `json:"place_id"`
	GameName       string `json:"game_name"`
	Label          string `json:"label"`
	Stability      string `json:"stability_minutes"`
	WebLink        string `json:"web_link"`
	LaunchLink     string `json:"launch_link"`
	Players        int    `json:"players"`
	MaxPlayers     int    `json:"max_players"`
	FillPercentage int    `json:"fill_percentage"`
	VIP            bool   `json:"vip"`
}

// Prediction renders the label with its stability window, e.g. "EMPTY - Stable 15-30 minutes".
func (s ServerRecord) Prediction() string {
	return s.Label + " - Stable " + s.Stability + " minutes"
}

// Subscription is the persisted premium record of a user.
type Subscription struct {
	Start        time.Time `json:"-"`
	Expiry       time.Time `json:"-"`
	UserID       string    `json:"userId"`
	Tier         string    `json:"tier"`
	DurationDays int       `json:"durationDays"`
}

type subscriptionJSON struct {
	UserID       string `json:"userId"`
	Tier         string `json:"tier"`
	StartDate    int64  `json:"startDate"`
	ExpiryDate   int64  `json:"expiryDate"`
	DurationDays int    `json:"durationDays"`
}

// MarshalJSON keeps millisecond timestamps in the document.
func (s Subscription) MarshalJSON() ([]byte, error) {
	return json.Marshal(subscriptionJSON{
		UserID:       s.UserID,
		Tier:         s.Tier,
		StartDate:    s.Start.UnixMilli(),
		ExpiryDate:   s.Expiry.UnixMilli(),
		DurationDays: s.DurationDays,
	})
}

// UnmarshalJSON reads millisecond timestamps from the document.
func (s *Subscription) UnmarshalJSON(data []byte) error {
	var raw subscriptionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.UserID = raw.UserID
	s.Tier = raw.Tier
	s.Start = time.UnixMilli(raw.StartDate)
	s.Expiry = time.UnixMilli(raw.ExpiryDate)
	s.DurationDays = raw.DurationDays
	return nil
}

// DaysLeft returns the whole days remaining until expiry, rounded up, never negative.
func (s Subscription) DaysLeft(now time.Time) int {
	left := s.Expiry.Sub(now)
	if left <= 0 {
		return 0
	}
	day := 24 * time.Hour
	return int((left + day - 1) / day)
}

// CachedScript is the payload stored behind a script handle.
type CachedScript struct {
	Title   string `json:"title"`
	Payload string `json:"script"`
	UserID  string `json:"user_id,omitempty"`
}

// VaultEntry is a script saved by a user.
type VaultEntry struct {
	SavedAt time.Time `json:"savedAt"`
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Payload string    `json:"script"`
}

// UserActivity tracks per-user command usage.
type UserActivity struct {
	LastActive   int64 `json:"lastActive"`
	CommandCount int64 `json:"commandCount"`
}

// Stats is the aggregate counters document. Missing fields load as zero.
type Stats struct {
	UserActivity         map[string]UserActivity `json:"userActivity"`
	StartTime            int64                   `json:"startTime"`
	TotalSearches        int64                   `json:"totalSearches"`
	TotalCommands        int64                   `json:"totalCommands"`
	TotalVaultSaves      int64                   `json:"totalVaultSaves"`
	TotalServerSearches  int64                   `json:"totalServerSearches"`
	TotalScriptReleases  int64                   `json:"totalScriptReleases"`
	TotalCopies          int64                   `json:"totalCopies"`
	PremiumSubscriptions int64                   `json:"premiumSubscriptions"`
	PremiumRevenue       int64                   `json:"premiumRevenue"`
}

// Executor describes a script executor listed by the catalog.
type Executor struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Platform string `json:"platform"`
	Website  string `json:"website"`
	Patched  bool   `json:"patched"`
}

// Release is a freshly published script announced to target channels.
type Release struct {
	Script    ScriptRecord `json:"script"`
	Handle    string       `json:"handle"`
	ChannelID string       `json:"channel_id"`
}
