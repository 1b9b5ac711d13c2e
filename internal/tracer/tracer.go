// Package tracer implements the Tracer of spec.md §4.4: a bounded
// breadth-first walk of a transaction's upstream funding graph,
// grounded on original_source/app/services/tracer.py's
// TransactionTracerService (cache lookup, depth-batched async
// gather, definitive-tag short-circuit) but reshaped around Go
// goroutines bounded per layer instead of asyncio.gather.
package tracer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rawblock/kyt-engine/internal/cache"
	"github.com/rawblock/kyt-engine/internal/kytres"
	"github.com/rawblock/kyt-engine/internal/providerclient"
	"github.com/rawblock/kyt-engine/internal/riskscore"
	"github.com/rawblock/kyt-engine/pkg/models"
)

// Tracer ties a Provider Client, a persistent Cache backend and the
// Risk Scorer together into the single Analyze operation spec.md
// §2 describes.
type Tracer struct {
	provider providerclient.BlockchainProvider
	backend  cache.Backend
	cfg      Config
}

func New(provider providerclient.BlockchainProvider, backend cache.Backend, cfg Config) *Tracer {
	return &Tracer{provider: provider, backend: backend, cfg: cfg}
}

// pendingVisit is one address queued for a BFS layer, carrying the
// value attributed to it by whichever downstream transaction leg
// referenced it.
type pendingVisit struct {
	Address      string
	Distance     int
	Contribution float64
	TxHash       string
}

// visitResult is what processing one pendingVisit produces: the
// finished trace node plus, if traversal should continue past it,
// the next layer's pending visits sourced from its incoming
// transaction.
type visitResult struct {
	node featureNode
	next []pendingVisit
}

// featureNode is a TraceNode plus the bookkeeping the BFS needs that
// the report-facing model type doesn't carry.
type featureNode struct {
	models.TraceNode
	degraded string // non-empty => a degradation note for this node
}

// Trace runs one bounded upstream analysis for (chain, txID) at
// requestedDepth (0 => cfg.DefaultDepth, clamped to cfg.MaxDepth),
// returning a deterministic RiskReport. It is an analysis id
// generator only insofar as log lines reference one per run; the
// report itself carries no analysis id field since spec.md's report
// shape doesn't define one.
func (t *Tracer) Trace(ctx context.Context, chain, txID string, requestedDepth int) (models.RiskReport, error) {
	depth := t.cfg.depthOrDefault(requestedDepth)
	analysisID := uuid.NewString()

	keys := cache.Keys{}
	reportKey := keys.Report(chain, txID, depth)

	if t.backend != nil {
		if raw, ok, err := t.backend.Get(ctx, reportKey); err == nil && ok {
			var cached models.RiskReport
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	run := &run{
		t:          t,
		chain:      chain,
		keys:       keys,
		memo:       cache.NewMemo(),
		visited:    make(map[string]*featureNode),
		order:      nil,
		analysisID: analysisID,
		cacheable:  true,
	}

	root, err := run.fetchTransaction(ctx, chain, txID)
	if err != nil {
		return models.RiskReport{}, err
	}
	run.txCount++

	queue := mergeVisits(nil, root.SourceAddresses(), 1, txID)

	for len(queue) > 0 && run.withinBudget() {
		sort.Slice(queue, func(i, j int) bool { return queue[i].Address < queue[j].Address })

		if over := len(run.visited) + len(queue) - t.cfg.MaxAddresses; over > 0 && t.cfg.MaxAddresses > 0 {
			dropped := over
			if dropped > len(queue) {
				dropped = len(queue)
			}
			if dropped > 0 {
				log.Printf("kyt tracer[%s]: max_addresses reached, dropping %d pending address(es) from this layer", analysisID, dropped)
				queue = queue[:len(queue)-dropped]
			}
		}
		if len(queue) == 0 {
			break
		}

		results := run.processLayer(ctx, queue)

		var next []pendingVisit
		for _, r := range results {
			if r.node.degraded != "" {
				log.Printf("kyt tracer[%s]: %s", analysisID, r.node.degraded)
			}
			if r.next != nil && queue[0].Distance < depth {
				next = mergePendingVisits(next, r.next)
			}
		}
		queue = next
	}

	report := run.buildReport(chain, txID, depth, t.cfg.Score)

	if run.cacheable && t.backend != nil {
		if raw, err := json.Marshal(report); err == nil {
			if err := t.backend.Put(ctx, reportKey, raw, t.cfg.CacheTTL); err != nil {
				log.Printf("kyt tracer[%s]: report cache put failed, continuing without persistence: %v", analysisID, err)
			}
		}
	}

	return report, nil
}

// run carries the mutable state of one Trace call.
type run struct {
	t          *Tracer
	chain      string
	keys       cache.Keys
	memo       *cache.Memo
	mu         sync.Mutex
	visited    map[string]*featureNode
	order      []string
	analysisID string

	apiCalls      int
	txCount       int
	circularPaths int
	cacheable     bool
}

func (r *run) withinBudget() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.t.cfg.MaxAddresses > 0 && len(r.visited) >= r.t.cfg.MaxAddresses {
		return false
	}
	if r.t.cfg.MaxAPICalls > 0 && r.apiCalls >= r.t.cfg.MaxAPICalls {
		return false
	}
	return true
}

func (r *run) incAPICalls() {
	r.mu.Lock()
	r.apiCalls++
	r.mu.Unlock()
}

// fetchTransaction fetches a transaction through the two-tier cache
// (memo, then backend) before falling through to the provider,
// incrementing the shared api-call counter only on an actual
// provider call, per original_source/app/services/tracer.py's
// `state.api_calls` bookkeeping.
func (r *run) fetchTransaction(ctx context.Context, chain, txID string) (models.TxRecord, error) {
	key := r.keys.Transaction(chain, txID)

	if raw, ok := r.memo.Get(key); ok {
		var rec models.TxRecord
		if json.Unmarshal(raw, &rec) == nil {
			return rec, nil
		}
	}
	if r.t.backend != nil {
		if raw, ok, err := r.t.backend.Get(ctx, key); err == nil && ok {
			var rec models.TxRecord
			if json.Unmarshal(raw, &rec) == nil {
				r.memo.Put(key, raw)
				return rec, nil
			}
		}
	}

	r.incAPICalls()
	rec, err := r.t.provider.GetTransaction(ctx, chain, txID)
	if err != nil {
		return models.TxRecord{}, err
	}

	if raw, merr := json.Marshal(rec); merr == nil {
		r.memo.Put(key, raw)
		if r.t.backend != nil {
			if perr := r.t.backend.Put(ctx, key, raw, r.t.cfg.CacheTTL); perr != nil {
				log.Printf("kyt tracer[%s]: tx cache put failed, continuing without persistence: %v", r.analysisID, perr)
			}
		}
	}
	return rec, nil
}

// fetchAddressMeta is fetchTransaction's counterpart for address
// dashboards.
func (r *run) fetchAddressMeta(ctx context.Context, chain, address string) (models.AddressMeta, error) {
	key := r.keys.Address(chain, address)

	if raw, ok := r.memo.Get(key); ok {
		var meta models.AddressMeta
		if json.Unmarshal(raw, &meta) == nil {
			return meta, nil
		}
	}
	if r.t.backend != nil {
		if raw, ok, err := r.t.backend.Get(ctx, key); err == nil && ok {
			var meta models.AddressMeta
			if json.Unmarshal(raw, &meta) == nil {
				r.memo.Put(key, raw)
				return meta, nil
			}
		}
	}

	r.incAPICalls()
	meta, err := r.t.provider.GetAddressMeta(ctx, chain, address)
	if err != nil {
		return models.AddressMeta{}, err
	}

	if raw, merr := json.Marshal(meta); merr == nil {
		r.memo.Put(key, raw)
		if r.t.backend != nil {
			if perr := r.t.backend.Put(ctx, key, raw, r.t.cfg.CacheTTL); perr != nil {
				log.Printf("kyt tracer[%s]: address cache put failed, continuing without persistence: %v", r.analysisID, perr)
			}
		}
	}
	return meta, nil
}

// processLayer visits every pendingVisit in v concurrently, bounded
// by cfg.FetchParallelism, joining every spawned goroutine before
// returning so the next layer never starts early (spec.md §4.4's
// "every task of layer d is joined before layer d+1 begins").
// Addresses already visited are merged into the existing node
// in-place and counted as a circular path; only genuinely new
// addresses are dispatched to the provider.
func (r *run) processLayer(ctx context.Context, v []pendingVisit) []visitResult {
	fresh := make([]pendingVisit, 0, len(v))

	r.mu.Lock()
	for _, pv := range v {
		if existing, ok := r.visited[pv.Address]; ok {
			existing.Contribution += pv.Contribution
			r.circularPaths++
			continue
		}
		fresh = append(fresh, pv)
	}
	r.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}

	parallelism := r.t.cfg.FetchParallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	sem := make(chan struct{}, parallelism)
	results := make([]visitResult, len(fresh))

	var wg sync.WaitGroup
	for i, pv := range fresh {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, pv pendingVisit) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.visit(ctx, pv)
		}(i, pv)
	}
	wg.Wait()

	r.mu.Lock()
	for i := range results {
		n := results[i].node
		r.visited[n.Address] = &n
		r.order = append(r.order, n.Address)
	}
	r.mu.Unlock()

	return results
}

// visit fetches one address's metadata and, if it's not terminal,
// its most recent incoming transaction, producing the next layer's
// pending visits.
func (r *run) visit(ctx context.Context, pv pendingVisit) visitResult {
	node := featureNode{TraceNode: models.TraceNode{
		Address:      pv.Address,
		Distance:     pv.Distance,
		Contribution: pv.Contribution,
	}}

	meta, err := r.fetchAddressMeta(ctx, r.chain, pv.Address)
	if err != nil {
		kind := kytres.KindOf(err)
		if !kytres.Cacheable(kind) {
			r.mu.Lock()
			r.cacheable = false
			r.mu.Unlock()
		}
		node.Unavailable = true
		node.Terminal = true
		node.degraded = fmt.Sprintf("address %s unavailable (%s), treated as terminal", pv.Address, kind)
		return visitResult{node: node}
	}

	node.Tags = meta.Tags
	if models.HasDefinitiveTag(meta.Tags) {
		node.Terminal = true
		return visitResult{node: node}
	}

	incoming, found, err := r.t.provider.GetIncomingTransaction(ctx, r.chain, pv.Address)
	r.incAPICalls()
	if err != nil {
		kind := kytres.KindOf(err)
		if !kytres.Cacheable(kind) {
			r.mu.Lock()
			r.cacheable = false
			r.mu.Unlock()
		}
		node.Unavailable = true
		node.Terminal = true
		node.degraded = fmt.Sprintf("incoming transaction for %s unavailable (%s), treated as terminal", pv.Address, kind)
		return visitResult{node: node}
	}
	if !found {
		node.Terminal = true
		return visitResult{node: node}
	}

	r.mu.Lock()
	r.txCount++
	r.mu.Unlock()

	next := mergeVisits(nil, incoming.SourceAddresses(), pv.Distance+1, incoming.TxID)
	return visitResult{node: node, next: next}
}

// mergeVisits appends contributions from srcs onto base at the
// given distance, summing when the same address appears twice
// within one merge (spec.md §4.2's same-address-multiple-inputs
// rule extended across sibling legs of one transaction).
func mergeVisits(base []pendingVisit, srcs []models.SourceContribution, distance int, txHash string) []pendingVisit {
	if len(srcs) == 0 {
		return base
	}
	index := make(map[string]int, len(base))
	for i, pv := range base {
		index[pv.Address] = i
	}
	for _, s := range srcs {
		if s.Address == "" {
			continue
		}
		if i, ok := index[s.Address]; ok {
			base[i].Contribution += s.Contribution
			continue
		}
		index[s.Address] = len(base)
		base = append(base, pendingVisit{Address: s.Address, Distance: distance, Contribution: s.Contribution, TxHash: txHash})
	}
	return base
}

// mergePendingVisits appends items onto base, summing contributions
// when an address already queued for this same layer appears again
// (two distinct nodes in the current layer both funding the same
// upstream address), keeping the first-seen distance/txHash.
func mergePendingVisits(base, items []pendingVisit) []pendingVisit {
	index := make(map[string]int, len(base))
	for i, pv := range base {
		index[pv.Address] = i
	}
	for _, pv := range items {
		if i, ok := index[pv.Address]; ok {
			base[i].Contribution += pv.Contribution
			continue
		}
		index[pv.Address] = len(base)
		base = append(base, pv)
	}
	return base
}

// buildReport assembles the final RiskReport from the run's visited
// set: flagged entities (nodes carrying a risk tag), the Risk
// Scorer's output, and the trace's bookkeeping counters.
func (r *run) buildReport(chain, txID string, depth int, scoreCfg riskscore.Config) models.RiskReport {
	sort.Strings(r.order)

	var flagged []models.FlaggedEntity
	for _, addr := range r.order {
		n := r.visited[addr]
		if n == nil || len(n.Tags) == 0 {
			continue
		}
		tag, ok := models.DominantTag(n.Tags)
		if !ok || tag == models.TagUnknown {
			continue
		}
		flagged = append(flagged, models.FlaggedEntity{
			Address:      n.Address,
			Chain:        chain,
			Tag:          tag,
			Tags:         n.Tags,
			Distance:     n.Distance,
			Contribution: n.Contribution,
		})
	}

	score := riskscore.Score(flagged, r.circularPaths, scoreCfg)

	return models.RiskReport{
		TxID:                      txID,
		Chain:                     chain,
		Depth:                     depth,
		RiskScore:                 score,
		FlaggedEntities:           flagged,
		TotalAddressesAnalyzed:    len(r.visited),
		TotalTransactionsAnalyzed: r.txCount,
		APICallsUsed:              r.apiCalls,
		CircularPaths:             r.circularPaths,
		GeneratedAt:               time.Now().UTC(),
	}
}
