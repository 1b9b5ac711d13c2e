package providerclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rawblock/kyt-engine/internal/chains"
	"github.com/rawblock/kyt-engine/internal/kytres"
	"github.com/rawblock/kyt-engine/pkg/models"
)

// errNotFound signals a 404-class definitive negative from
// doWithRetry/request; GetTransaction/GetAddressMeta translate it
// into a *kytres.Error carrying their own chain/id context.
var errNotFound = errors.New("kyt: resource not found")

// Config configures one HTTPProvider instance (spec.md §6's
// provider.* configuration keys).
type Config struct {
	BaseURL                string
	APIKey                 string
	RequestsPerSecond      float64
	MaxRetries             int
	RetryDelay             time.Duration
	MaxRetryAfter          time.Duration
	CircuitFailureThreshold int
	CircuitCooldown        time.Duration
	Timeout                time.Duration
}

// HTTPProvider talks to a Blockchair-shaped JSON API, grounded on
// original_source/app/providers/blockchair.py: the same
// "{base}/{chain_path}/dashboards/transaction/{tx_id}" path shape,
// the same 429-Retry-After-then-exponential-backoff retry loop, and
// the same tag-keyword classification of the address dashboard
// response.
type HTTPProvider struct {
	name       string
	cfg        Config
	httpClient *http.Client
	pacer      *pacer
	breaker    *circuitBreaker
	requests   atomic.Int64
	metrics    *Metrics
	sf         singleflight.Group
}

// NewHTTPProvider constructs an HTTPProvider. metrics may be nil.
func NewHTTPProvider(name string, cfg Config, metrics *Metrics) *HTTPProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryAfter <= 0 {
		cfg.MaxRetryAfter = 30 * time.Second
	}
	return &HTTPProvider{
		name:       name,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		pacer:      newPacer(cfg.RequestsPerSecond),
		breaker:    newCircuitBreaker(cfg.CircuitFailureThreshold, cfg.CircuitCooldown),
		metrics:    metrics,
	}
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) SupportedChains() []string {
	specs := chains.List()
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.ID)
	}
	return out
}

func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func (p *HTTPProvider) Health(ctx context.Context) Health {
	state, _ := p.breaker.snapshot()
	return Health{
		Provider:     p.name,
		State:        state,
		RequestCount: p.requests.Load(),
	}
}

// request performs one logical HTTP call behind pacing, the circuit
// breaker, and the retry policy of spec.md §4.2. It returns the
// decoded JSON body on success.
func (p *HTTPProvider) request(ctx context.Context, op, path string) (map[string]any, error) {
	if !p.breaker.allow() {
		return nil, kytres.ProviderDown(op, fmt.Errorf("circuit breaker open for %s", p.name))
	}

	body, status, err := p.doWithRetry(ctx, path)

	if status == http.StatusNotFound {
		// A definitive negative, not a failure: it must not count
		// toward the breaker (spec.md §4.2). Callers translate this
		// into a kytres.TxNotFound with their own chain/id context.
		return nil, errNotFound
	}
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled/deadline-exceeded calls are neither successes
			// nor failures for the breaker (spec.md §5).
			p.breaker.recordAbandoned()
			return nil, kytres.Internal(op, ctx.Err())
		}
		p.breaker.recordFailure()
		if kind := classifyErr(err); kind == kytres.KindRateLimited {
			return nil, kytres.RateLimited(op, err)
		}
		return nil, kytres.ProviderDown(op, err)
	}

	p.breaker.recordSuccess()
	return body, nil
}

func classifyErr(err error) kytres.Kind {
	if strings.Contains(err.Error(), "rate limit") {
		return kytres.KindRateLimited
	}
	return kytres.KindInternal
}

// doWithRetry implements spec.md §4.2's retry policy: exponential
// backoff `retry_delay * 2^k` plus jitter on network/timeout errors
// and HTTP 5xx; honour Retry-After (capped) on HTTP 429, sharing the
// same retry budget.
func (p *HTTPProvider) doWithRetry(ctx context.Context, path string) (map[string]any, int, error) {
	reqURL := p.cfg.BaseURL + "/" + strings.TrimLeft(path, "/")
	u, err := url.Parse(reqURL)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid provider URL %q: %w", reqURL, err)
	}
	if p.cfg.APIKey != "" {
		q := u.Query()
		q.Set("key", p.cfg.APIKey)
		u.RawQuery = q.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		p.pacer.wait()
		p.requests.Add(1)
		if p.metrics != nil {
			p.metrics.ObserveRequest(p.name)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "kyt-engine/1.0")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < p.cfg.MaxRetries {
				sleepBackoff(ctx, p.cfg.RetryDelay, attempt)
				continue
			}
			return nil, 0, lastErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), p.cfg.RetryDelay)
			wait := retryAfter * time.Duration(1<<attempt)
			if wait > p.cfg.MaxRetryAfter {
				wait = p.cfg.MaxRetryAfter
			}
			resp.Body.Close()
			if attempt < p.cfg.MaxRetries {
				sleepFor(ctx, wait)
				continue
			}
			return nil, resp.StatusCode, fmt.Errorf("rate limit exceeded for %s", p.name)
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, resp.StatusCode, nil
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream %s returned %d", p.name, resp.StatusCode)
			if attempt < p.cfg.MaxRetries {
				sleepBackoff(ctx, p.cfg.RetryDelay, attempt)
				continue
			}
			return nil, resp.StatusCode, lastErr
		}

		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, err
		}
		if resp.StatusCode >= 400 {
			return nil, resp.StatusCode, fmt.Errorf("upstream %s returned %d: %s", p.name, resp.StatusCode, string(raw))
		}

		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("decode response from %s: %w", p.name, err)
		}
		return decoded, resp.StatusCode, nil
	}
	return nil, 0, lastErr
}

func sleepBackoff(ctx context.Context, base time.Duration, attempt int) {
	delay := base * time.Duration(1<<attempt)
	jitter := time.Duration(rand.Int63n(int64(base) + 1))
	sleepFor(ctx, delay+jitter)
}

func sleepFor(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func parseRetryAfter(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// GetTransaction fetches and normalizes a transaction via
// `{base}/{chain_path}/dashboards/transaction/{tx_id}` (spec.md §6),
// coalescing identical in-flight (chain, tx_id) calls per spec.md
// §5's single-flight requirement.
func (p *HTTPProvider) GetTransaction(ctx context.Context, chain, txID string) (models.TxRecord, error) {
	spec, err := chains.Lookup(chain)
	if err != nil {
		return models.TxRecord{}, err
	}

	v, err, _ := p.sf.Do("tx:"+chain+":"+txID, func() (any, error) {
		path := spec.APIPath + "/dashboards/transaction/" + txID
		body, err := p.request(ctx, "GetTransaction", path)
		if err != nil {
			if errors.Is(err, errNotFound) {
				return nil, kytres.TxNotFound("GetTransaction", chain, txID)
			}
			return nil, err
		}
		data := asMap(body["data"])
		entry := asMap(firstValue(data))
		if entry == nil {
			return nil, kytres.TxNotFound("GetTransaction", chain, txID)
		}
		if spec.Family == models.FamilyUTXO {
			return parseUTXOTransaction(chain, txID, entry), nil
		}
		return parseAccountTransaction(chain, txID, entry, spec.Decimals), nil
	})
	if err != nil {
		return models.TxRecord{}, err
	}
	return v.(models.TxRecord), nil
}

// GetAddressMeta fetches and normalizes address metadata via
// `{base}/{chain_path}/dashboards/address/{address}`.
func (p *HTTPProvider) GetAddressMeta(ctx context.Context, chain, address string) (models.AddressMeta, error) {
	spec, err := chains.Lookup(chain)
	if err != nil {
		return models.AddressMeta{}, err
	}

	v, err, _ := p.sf.Do("addr:"+chain+":"+address, func() (any, error) {
		path := spec.APIPath + "/dashboards/address/" + address
		body, err := p.request(ctx, "GetAddressMeta", path)
		if err != nil {
			if errors.Is(err, errNotFound) {
				// Per spec.md §4.2: no tags is not an error.
				return models.AddressMeta{Address: address, Chain: chain}, nil
			}
			return nil, err
		}
		data := asMap(body["data"])
		entry := asMap(firstValue(data))
		if entry == nil {
			return models.AddressMeta{Address: address, Chain: chain}, nil
		}
		return parseAddressMeta(chain, address, entry, spec.Family, spec.Decimals), nil
	})
	if err != nil {
		return models.AddressMeta{}, err
	}
	return v.(models.AddressMeta), nil
}

// GetIncomingTransaction fetches the address dashboard (which lists
// recent related transaction hashes) and resolves the most recent
// one through GetTransaction, implementing spec.md §4.4's "fetch
// the most recent incoming transactions to addr (via Provider, via
// the same API as get_transaction applied to the address's
// history)".
func (p *HTTPProvider) GetIncomingTransaction(ctx context.Context, chain, address string) (models.TxRecord, bool, error) {
	spec, err := chains.Lookup(chain)
	if err != nil {
		return models.TxRecord{}, false, err
	}

	path := spec.APIPath + "/dashboards/address/" + address
	body, err := p.request(ctx, "GetIncomingTransaction", path)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return models.TxRecord{}, false, nil
		}
		return models.TxRecord{}, false, err
	}

	data := asMap(body["data"])
	entry := asMap(firstValue(data))
	txHashes := asSlice(field(entry, "transactions"))
	if len(txHashes) == 0 {
		return models.TxRecord{}, false, nil
	}
	latestTxID := asString(txHashes[0])
	if latestTxID == "" {
		return models.TxRecord{}, false, nil
	}

	rec, err := p.GetTransaction(ctx, chain, latestTxID)
	if err != nil {
		return models.TxRecord{}, false, err
	}
	return rec, true, nil
}
