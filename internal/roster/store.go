package roster

import (
	"context"
	"errors"
	"time"

	"github.com/coopermor/hive/internal/config"
)

var ErrBotNotFound = errors.New("bot not found in roster")

// Bot is one persisted roster entry: a bot identity added at runtime, kept
// across restarts. The yaml files under config/bots remain the static
// source; the roster store holds the dynamic remainder.
type Bot struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Config    config.BotCfg `json:"config"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Store persists the dynamic bot roster. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save inserts or replaces a roster entry keyed by its name.
	Save(ctx context.Context, bot Bot) error

	// Get returns one entry. Returns ErrBotNotFound when absent.
	Get(ctx context.Context, name string) (Bot, error)

	// List returns every entry, unordered.
	List(ctx context.Context) ([]Bot, error)

	// Delete removes an entry. Deleting an absent entry is not an error.
	Delete(ctx context.Context, name string) error

	// Close releases resources held by the store.
	Close() error
}

// NewStore builds the configured driver: redis when enabled, the in-memory
// fallback otherwise.
func NewStore(cfg *config.HiveCfg) (Store, error) {
	if cfg != nil && cfg.Redis.Enabled {
		return NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	return NewMemoryStore(), nil
}
