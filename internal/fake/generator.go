// Package fake provides utilities for generating random scripts, sessions and
// subscription documents for testing and development purposes.
package fake

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/storage"
)

var (
	games    = []string{"Arsenal", "Blox Fruits", "Brookhaven", "Doors", "Pet Simulator", "Murder Mystery", "Tower of Hell", "Da Hood"}
	features = []string{"Aimbot", "Auto Farm", "ESP", "Hub", "Silent Aim", "Teleport", "Fly", "Infinite Yield"}
	sources  = []string{"rscripts", "scriptblox", "wearedevs"}
	words    = []string{"arsenal", "blox", "fruits", "doors", "hood", "tower", "farm", "hub", "aimbot", "speed"}
)

// Word returns a random lowercase search word of at least four letters.
func Word(rng *rand.Rand) string {
	return words[rng.Intn(len(words))]
}

// Scripts returns count random script records spread across providers.
func Scripts(rng *rand.Rand, count int) []models.ScriptRecord {
	out := make([]models.ScriptRecord, 0, count)
	for i := 0; i < count; i++ {
		game := games[rng.Intn(len(games))]
		out = append(out, models.ScriptRecord{
			Title:       fmt.Sprintf("%s %s", game, features[rng.Intn(len(features))]),
			GameName:    game,
			PlaceID:     strconv.Itoa(1000000 + rng.Intn(9000000)),
			KeyRequired: rng.Float32() < 0.4,
			MobileReady: rng.Float32() < 0.5,
			Views:       int64(rng.Intn(100000)),
			Likes:       int64(rng.Intn(1000)),
			Dislikes:    int64(rng.Intn(100)),
			Payload:     fmt.Sprintf(`loadstring(game:HttpGet("https://example.invalid/%d"))()`, i),
			Verified:    rng.Float32() < 0.3,
			Creator:     fmt.Sprintf("dev%d", rng.Intn(50)),
			Source:      sources[rng.Intn(len(sources))],
			LastUpdated: time.Unix(1700000000+int64(rng.Intn(10000000)), 0).UTC(),
		})
	}

	return out
}

// Sessions returns count random sessions with mixed occupancy, some full and some VIP.
func Sessions(rng *rand.Rand, count int) []models.Session {
	out := make([]models.Session, 0, count)
	for i := 0; i < count; i++ {
		maxPlayers := []int{0, 8, 12, 20, 30, 50}[rng.Intn(6)]
		capacity := maxPlayers
		if capacity == 0 {
			capacity = models.DefaultMaxPlayers
		}

		var players int
		roll := rng.Float32()
		switch {
		case roll < 0.15:
			players = capacity // full
		case roll < 0.25:
			players = 0
		default:
			players = rng.Intn(capacity + 1)
		}

		out = append(out, models.Session{
			ID:         fmt.Sprintf("%08x-%04x-%04x", rng.Uint32(), rng.Intn(0xffff), rng.Intn(0xffff)),
			Players:    players,
			MaxPlayers: maxPlayers,
			VIP:        rng.Float32() < 0.1,
			FPS:        55 + rng.Float64()*5,
			Ping:       20 + rng.Intn(200),
		})
	}

	return out
}

// GenerateData populates the subscription and statistics documents with count random users.
func GenerateData(ctx context.Context, docs storage.Documents, count int) {
	now := time.Now()
	subs := make(map[string]models.Subscription, count)
	stats := models.Stats{
		StartTime:    now.Add(-72 * time.Hour).UnixMilli(),
		UserActivity: make(map[string]models.UserActivity, count),
	}

	for i := 0; i < count; i++ {
		userID := strconv.FormatInt(100000000000000000+rand.Int63n(900000000000000000), 10)

		stats.UserActivity[userID] = models.UserActivity{
			CommandCount: int64(1 + rand.Intn(200)),
			LastActive:   now.Add(-time.Duration(rand.Intn(4320)) * time.Minute).UnixMilli(),
		}
		stats.TotalCommands += stats.UserActivity[userID].CommandCount

		// 30% chance premium, some already expired
		if rand.Float32() < 0.3 {
			days := []int{7, 30, 90}[rand.Intn(3)]
			start := now.Add(-time.Duration(rand.Intn(days+10)) * 24 * time.Hour)
			subs[userID] = models.Subscription{
				UserID:       userID,
				Start:        start,
				Expiry:       start.Add(time.Duration(days) * 24 * time.Hour),
				DurationDays: days,
				Tier:         "PREMIUM",
			}
			stats.PremiumSubscriptions++
		}
	}
	stats.TotalSearches = stats.TotalCommands / 2
	stats.TotalServerSearches = stats.TotalCommands / 5

	if err := docs.Save(ctx, storage.DocSubscriptions, subs); err != nil {
		log.Warn().Err(err).Msg("Failed to generate fake subscriptions")
	}
	if err := docs.Save(ctx, storage.DocStats, stats); err != nil {
		log.Warn().Err(err).Msg("Failed to generate fake stats")
	}

	log.Info().Int("users", count).Int("premium", len(subs)).Msg("Fake data generated")
}
