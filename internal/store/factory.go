package store

import (
	"fmt"

	"github.com/FREDSAYS-dev/Thesis/internal/config"
)

// NewFromConfig opens the backend selected by cfg.Mode and returns the mode.
func NewFromConfig(cfg config.StoreConfig) (Store, string, error) {
	switch cfg.Mode {
	case "", config.StoreModeMemory:
		return NewMemoryStore(), config.StoreModeMemory, nil
	case config.StoreModeSQLite:
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, cfg.Mode, err
		}
		return s, cfg.Mode, nil
	case config.StoreModePostgres:
		s, err := NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, cfg.Mode, err
		}
		return s, cfg.Mode, nil
	default:
		return nil, cfg.Mode, fmt.Errorf("invalid store mode %q (supported: %s, %s, %s)",
			cfg.Mode, config.StoreModeMemory, config.StoreModeSQLite, config.StoreModePostgres)
	}
}
