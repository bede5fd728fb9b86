// Package storage persists whole JSON documents (subscriptions, vault, statistics)
// either as flat files or as rows of a SQLite database.
package storage

import (
	"context"
	"fmt"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
)

// Document names used by the bot.
const (
	DocSubscriptions = "premium_users"
	DocVault         = "vault_data"
	DocStats         = "bot_stats"
)

// Documents loads and saves named JSON documents. Every Save rewrites the whole
// document; writes to the same backend are serialized.
type Documents interface {
	// Load decodes the named document into v and reports whether it existed.
	// A missing or unreadable document leaves v untouched and returns false.
	Load(ctx context.Context, name string, v any) (bool, error)
	// Save encodes v and replaces the named document.
	Save(ctx context.Context, name string, v any) error
	Close() error
}

// Open returns the backend selected by the storage configuration.
func Open(cfg config.Storage) (Documents, error) {
	switch cfg.Backend {
	case "", "json":
		return NewJSONFiles(cfg.Dir)
	case "sqlite":
		return NewSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
