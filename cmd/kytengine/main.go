package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rawblock/kyt-engine/internal/api"
	"github.com/rawblock/kyt-engine/internal/cache"
	"github.com/rawblock/kyt-engine/internal/providerclient"
	"github.com/rawblock/kyt-engine/internal/tracer"
)

func main() {
	log.Println("Starting RawBlock KYT Engine (Microservice: kyt-risk-engine)...")
	log.Println("Initializing Chain Registry, Provider Client and Tracer...")

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values. The binary reads only the
	// process environment; it does not load a .env file itself.
	// ────────────────────────────────────────────────────────────────────

	baseURL := requireEnv("KYT_PROVIDER_BASE_URL")
	apiKey := os.Getenv("KYT_PROVIDER_API_KEY")

	providerCfg := providerclient.Config{
		BaseURL:                 baseURL,
		APIKey:                  apiKey,
		RequestsPerSecond:       getEnvFloat("KYT_PROVIDER_RPS", 10),
		MaxRetries:              getEnvInt("KYT_PROVIDER_MAX_RETRIES", 3),
		RetryDelay:              time.Duration(getEnvInt("KYT_PROVIDER_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		MaxRetryAfter:           30 * time.Second,
		CircuitFailureThreshold: getEnvInt("KYT_CIRCUIT_FAILURE_THRESHOLD", 5),
		CircuitCooldown:         time.Duration(getEnvInt("KYT_CIRCUIT_COOLDOWN_SECONDS", 60)) * time.Second,
		Timeout:                 30 * time.Second,
	}

	metrics := providerclient.NewMetrics(prometheus.DefaultRegisterer)
	provider := providerclient.NewHTTPProvider("blockchair", providerCfg, metrics)

	ctx := context.Background()
	backend, err := cache.New(ctx, cache.Config{
		Backend:          getEnvOrDefault("KYT_CACHE_BACKEND", "memory"),
		PostgresDSN:      os.Getenv("DATABASE_URL"),
		MemoryMaxEntries: getEnvInt("KYT_CACHE_MAX_ENTRIES", 10000),
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize %s cache backend, falling back to in-memory: %v",
			getEnvOrDefault("KYT_CACHE_BACKEND", "memory"), err)
		backend = cache.NewMemoryBackend(10000)
	}
	defer backend.Close()

	traceCfg := tracer.DefaultConfig()
	traceCfg.DefaultDepth = getEnvInt("KYT_TRACE_DEFAULT_DEPTH", traceCfg.DefaultDepth)
	traceCfg.MaxDepth = getEnvInt("KYT_TRACE_MAX_DEPTH", traceCfg.MaxDepth)
	traceCfg.MaxAddresses = getEnvInt("KYT_TRACE_MAX_ADDRESSES", traceCfg.MaxAddresses)
	traceCfg.MaxAPICalls = getEnvInt("KYT_TRACE_MAX_API_CALLS", traceCfg.MaxAPICalls)
	traceCfg.FetchParallelism = getEnvInt("KYT_TRACE_FETCH_PARALLELISM", traceCfg.FetchParallelism)
	traceCfg.CacheTTL = time.Duration(getEnvInt("KYT_CACHE_TTL_SECONDS", 3600)) * time.Second
	traceCfg.Score.ContributionK = getEnvFloat("KYT_SCORE_CONTRIBUTION_K", traceCfg.Score.ContributionK)

	tr := tracer.New(provider, backend, traceCfg)

	var hub *api.Hub
	if getEnvOrDefault("KYT_ENABLE_STREAM", "true") == "true" {
		hub = api.NewHub()
		go hub.Run()
	}

	limiter := api.NewRateLimiter(getEnvInt("KYT_API_RATE_PER_MINUTE", 120), getEnvInt("KYT_API_RATE_BURST", 30))
	r := api.SetupRouter(tr, provider, limiter, hub)

	port := getEnvOrDefault("PORT", "5339")

	log.Printf("KYT engine running on :%s (provider: %s)\n", port, provider.Name())
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is not set.
// This prevents the binary from starting with missing critical configuration.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set. "+
			"Set it in the process environment before starting the engine.", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using default %d", key, val, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using default %g", key, val, fallback)
		return fallback
	}
	return f
}
