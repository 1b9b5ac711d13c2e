package providerclient

import (
	"go.uber.org/ratelimit"
)

// pacer enforces "no two calls leave within less than 1/R" (spec.md
// §4.2) using go.uber.org/ratelimit's leaky-bucket Limiter. Pacing
// is per-client, process-wide: a single pacer is shared by every
// goroutine issuing calls through one ProviderClient.
type pacer struct {
	limiter ratelimit.Limiter
}

func newPacer(requestsPerSecond float64) *pacer {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	return &pacer{limiter: ratelimit.New(int(requestsPerSecond))}
}

// wait blocks the calling goroutine until the pacing budget allows
// the next outbound call.
func (p *pacer) wait() {
	p.limiter.Take()
}
