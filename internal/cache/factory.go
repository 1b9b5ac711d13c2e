package cache

import (
	"context"
	"fmt"
)

// Config selects and configures a persistent Backend at startup.
type Config struct {
	Backend            string // "memory" | "postgres"
	PostgresDSN        string
	MemoryMaxEntries   int
}

// New is the factory spec.md §9 calls for: "Cache backend selection
// via strings... a factory that returns an implementer of the Cache
// capability set." Backend selection is a startup-time configuration
// value per spec.md §6.
func New(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryBackend(cfg.MemoryMaxEntries), nil
	case "postgres":
		pg, err := ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pg.InitSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
