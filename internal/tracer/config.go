package tracer

import (
	"time"

	"github.com/rawblock/kyt-engine/internal/riskscore"
)

// Config bounds one trace (spec.md §4.4 and §6's trace.* keys).
type Config struct {
	DefaultDepth     int
	MaxDepth         int
	MaxAddresses     int
	MaxAPICalls      int
	FetchParallelism int
	Timeout          time.Duration
	CacheTTL         time.Duration
	Score            riskscore.Config
}

// DefaultConfig matches spec.md §6's documented reference values.
func DefaultConfig() Config {
	return Config{
		DefaultDepth:     3,
		MaxDepth:         10,
		MaxAddresses:     500,
		MaxAPICalls:      1000,
		FetchParallelism: 8,
		Timeout:          2 * time.Minute,
		CacheTTL:         1 * time.Hour,
		Score:            riskscore.DefaultConfig(),
	}
}

func (c Config) depthOrDefault(requested int) int {
	if requested <= 0 {
		return c.DefaultDepth
	}
	if requested > c.MaxDepth {
		return c.MaxDepth
	}
	return requested
}
