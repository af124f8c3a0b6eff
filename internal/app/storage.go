package app

import (
	"fmt"

	"github.com/Gauravprp/chatsy/internal/config"
	"github.com/Gauravprp/chatsy/internal/kv"
	"github.com/Gauravprp/chatsy/internal/kv/pebble"
	"github.com/Gauravprp/chatsy/internal/kv/sqlite"
)

// OpenKV opens the durable identity storage selected by cfg.Driver.
func OpenKV(cfg config.StorageConfig) (kv.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		st, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite kv: %w", err)
		}
		return st, nil
	case config.DriverPebble:
		st, err := pebble.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open pebble kv: %w", err)
		}
		return st, nil
	case config.DriverMemory:
		return kv.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
