// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Bot       Bot           `group:"Bot Options" namespace:"bot" env-namespace:"XFOR_BOT"`
	Tier      Tier          `group:"Tier Options" namespace:"tier" env-namespace:"XFOR_TIER"`
	Cache     Cache         `group:"Cache Options" namespace:"cache" env-namespace:"XFOR_CACHE"`
	Providers Providers     `group:"Provider Options" namespace:"provider" env-namespace:"XFOR_PROVIDER"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"XFOR_DB"`
	Server    Server        `group:"Server Options" env-namespace:"XFOR"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"XFOR_RATE_LIMIT"`
	Schedule  Schedule      `group:"Schedule Options" namespace:"schedule" env-namespace:"XFOR_SCHEDULE"`
	Payment   Payment       `group:"Payment Options" namespace:"payment" env-namespace:"XFOR_PAYMENT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"XFOR_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Bot holds command layer configuration.
type Bot struct {
	// betteralign:ignore

	Prefix         string   `long:"prefix" env:"PREFIX" description:"Command prefix" default:"."`
	Owners         []string `long:"owner" env:"OWNER_IDS" description:"Owner user ids" env-delim:","`
	TargetChannels []string `long:"target-channel" env:"TARGET_CHANNELS" description:"Channels receiving auto-release posts" env-delim:","`
	Blacklist      []string `long:"blacklist" env:"BLACKLIST" description:"Ignored user ids" env-delim:","`
	Thumbnail      string   `long:"thumbnail" env:"THUMBNAIL" description:"Fallback thumbnail URL" default:"https://files.catbox.moe/sscgka.jpeg"`
	ServerThumb    string   `long:"server-thumbnail" env:"SERVER_THUMBNAIL" description:"Server search thumbnail URL" default:"https://files.catbox.moe/31024x.jpg"`
}

// Tier holds per-tier budgets and limits.
type Tier struct {
	// betteralign:ignore

	FreeRateLimit    int   `long:"free-rate-limit" env:"FREE_RATE_LIMIT" description:"Free tier requests per minute" default:"10"`
	PremiumRateLimit int   `long:"premium-rate-limit" env:"PREMIUM_RATE_LIMIT" description:"Premium tier requests per minute" default:"100"`
	FreeResults      int   `long:"free-results" env:"FREE_RESULTS" description:"Search results shown to free users" default:"6"`
	PremiumResults   int   `long:"premium-results" env:"PREMIUM_RESULTS" description:"Search results shown to premium users" default:"15"`
	FreeDailyCopies  int   `long:"free-daily-copies" env:"FREE_DAILY_COPIES" description:"Daily script copies for free users" default:"5"`
	FreeDailySaves   int   `long:"free-daily-saves" env:"FREE_DAILY_SAVES" description:"Daily vault saves for free users" default:"5"`
	FreeVaultSize    int   `long:"free-vault-size" env:"FREE_VAULT_SIZE" description:"Vault capacity for free users" default:"5"`
	Price            int64 `long:"price" env:"PRICE" description:"Premium price per period" default:"20000"`
	DefaultDays      int   `long:"default-days" env:"DEFAULT_DAYS" description:"Default premium duration in days" default:"30"`
}

// Cache holds cache lifetimes.
type Cache struct {
	// betteralign:ignore

	QueryTTL    time.Duration `long:"query-ttl" env:"QUERY_TTL" description:"Game search cache duration" default:"5m"`
	ArtifactTTL time.Duration `long:"artifact-ttl" env:"ARTIFACT_TTL" description:"Script handle lifetime" default:"1h"`
	Shards      int           `long:"shards" env:"SHARDS" description:"Number of in-memory cache shards" default:"16"`
}

// Providers holds upstream endpoints and client options.
type Providers struct {
	// betteralign:ignore

	UserAgent        string        `long:"user-agent" env:"USER_AGENT" description:"User-Agent sent to providers" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
	RScriptsURL      string        `long:"rscripts-url" env:"RSCRIPTS_URL" description:"rscripts base URL" default:"https://rscripts.net"`
	ScriptBloxURL    string        `long:"scriptblox-url" env:"SCRIPTBLOX_URL" description:"ScriptBlox base URL" default:"https://scriptblox.com"`
	WeAreDevsURL     string        `long:"wearedevs-url" env:"WEAREDEVS_URL" description:"WeAreDevs base URL" default:"https://wearedevs.net"`
	GamesURL         string        `long:"games-url" env:"GAMES_URL" description:"Games API base URL" default:"https://games.roblox.com"`
	UniverseURL      string        `long:"universe-url" env:"UNIVERSE_URL" description:"Universe API base URL" default:"https://apis.roblox.com"`
	LegacyURL        string        `long:"legacy-url" env:"LEGACY_URL" description:"Legacy web base URL" default:"https://www.roblox.com"`
	CatalogTimeout   time.Duration `long:"catalog-timeout" env:"CATALOG_TIMEOUT" description:"Script catalog timeout" default:"20s"`
	ResolveTimeout   time.Duration `long:"resolve-timeout" env:"RESOLVE_TIMEOUT" description:"Place resolution timeout" default:"10s"`
	SessionTimeout   time.Duration `long:"session-timeout" env:"SESSION_TIMEOUT" description:"Session listing timeout" default:"20s"`
	RequestsPerSec   float64       `long:"rps" env:"RPS" description:"Outbound requests per second per provider host" default:"5"`
	RequestsBurst    int           `long:"burst" env:"BURST" description:"Outbound burst per provider host" default:"10"`
	MaxResponseBytes int64         `long:"max-response" env:"MAX_RESPONSE" description:"Max provider response size" default:"4194304"`
}

// Storage holds persistence configuration.
type Storage struct {
	// betteralign:ignore

	Backend       string `long:"backend" env:"BACKEND" description:"Document backend (json or sqlite)" default:"json" choice:"json" choice:"sqlite"`
	Dir           string `long:"dir" env:"DIR" description:"Directory for JSON documents" default:"databases"`
	Path          string `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"xfor.db"`
	SweepExpired  bool   `long:"sweep-expired" description:"Remove expired subscriptions and exit"`
	GenerateCount int    `long:"gen-fake-data" hidden:"true"`
}

// Server holds gateway/admin HTTP server configuration.
type Server struct {
	// betteralign:ignore

	Address     string `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken   string `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Gateway/admin authentication token"`
	MaxBodySize int64  `long:"max-body-size" env:"MAX_BODY_SIZE" description:"Max body size for incoming requests" default:"4096"`
	TrustProxy  bool   `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// RateLimit holds HTTP API rate limiting configuration.
type RateLimit struct {
	// betteralign:ignore

	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"120"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
}

// Schedule holds periodic job specifications.
type Schedule struct {
	// betteralign:ignore

	CacheSweep        string        `long:"cache-sweep" env:"CACHE_SWEEP" description:"Cron spec for handle cache sweep" default:"@hourly"`
	SubscriptionSweep string        `long:"subscription-sweep" env:"SUBSCRIPTION_SWEEP" description:"Cron spec for subscription expiry sweep" default:"@hourly"`
	ReleaseInterval   time.Duration `long:"release-interval" env:"RELEASE_INTERVAL" description:"Auto-release polling interval (0 disables)" default:"30m"`
	ReleaseCount      int           `long:"release-count" env:"RELEASE_COUNT" description:"Scripts announced per release run" default:"3"`
}

// Payment holds manual payment instructions.
type Payment struct {
	// betteralign:ignore

	DanaNumber  string `long:"dana-number" env:"DANA_NUMBER" description:"DANA account number"`
	DanaName    string `long:"dana-name" env:"DANA_NAME" description:"DANA account name"`
	GopayNumber string `long:"gopay-number" env:"GOPAY_NUMBER" description:"GoPay account number"`
	GopayName   string `long:"gopay-name" env:"GOPAY_NAME" description:"GoPay account name"`
	QRISURL     string `long:"qris-url" env:"QRIS_URL" description:"QRIS image URL"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return &cfg
}

// Validate checks values go-flags cannot express with defaults and choices.
func (c *Config) Validate() error {
	if c.Server.AuthToken == "" {
		return fmt.Errorf("required flag `-t, --auth-token' or environment variable `XFOR_AUTH_TOKEN` was not specified")
	}
	if c.Tier.FreeRateLimit <= 0 || c.Tier.PremiumRateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.Tier.FreeResults <= 0 || c.Tier.PremiumResults <= 0 {
		return fmt.Errorf("result budgets must be positive")
	}
	if c.Cache.ArtifactTTL <= 0 || c.Cache.QueryTTL <= 0 {
		return fmt.Errorf("cache lifetimes must be positive")
	}
	if c.Tier.DefaultDays <= 0 {
		return fmt.Errorf("default premium duration must be positive")
	}

	return nil
}
