// Package engine orchestrates batch address resolution: normalization,
// cache consultation, paced registry lookups, reverse DNS, and the fan-out
// of shared results back to every input token.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/StefanGrimminck/Spindle/internal/cache"
	"github.com/StefanGrimminck/Spindle/internal/netaddr"
	"github.com/StefanGrimminck/Spindle/internal/pace"
	"github.com/StefanGrimminck/Spindle/internal/rir"
)

// Querier performs one registry lookup for a normalized key.
type Querier interface {
	Query(ctx context.Context, key string) (*rir.Record, error)
}

// ReverseResolver performs a best-effort PTR lookup.
type ReverseResolver interface {
	Resolve(ctx context.Context, addr string) string
}

// Supplementer fills gaps in a registry record from local data.
type Supplementer interface {
	Supplement(key string, rec *rir.Record)
}

// Reason explains why a token stayed unresolved.
type Reason string

const (
	// ReasonInvalidAddress marks tokens that never reached the network.
	ReasonInvalidAddress Reason = "invalid_address"
	// ReasonLookupFailure marks addresses whose registry query failed.
	ReasonLookupFailure Reason = "lookup_failure"
)

// Outcome is the result for one input token. Entry is nil exactly when
// Reason is set.
type Outcome struct {
	Entry  *cache.Entry
	Reason Reason
}

// Result maps every original input token to its outcome. Tokens that
// normalize identically share one entry but keep distinct keys here.
type Result map[string]Outcome

// Stats are the cumulative counters for one run. Lookups counts addresses
// that triggered a network call, including failed ones; invalid and
// well-known tokens count toward neither hits nor lookups.
type Stats struct {
	CacheHits int
	Lookups   int
	Failures  int
	Invalid   int
	WellKnown int
}

// Engine resolves batches of address tokens against a cache and the RIR
// service. Execution is strictly sequential; the only shared mutable state
// is the cache store, owned by the engine for the duration of a run.
type Engine struct {
	RIR     Querier
	RDNS    ReverseResolver
	Geo     Supplementer
	Log     zerolog.Logger
	Metrics *Metrics

	// TTL bounds cache entry freshness. Zero means cache.DefaultTTL.
	TTL time.Duration
	// Window and Cooldown shape the pause pattern between lookups.
	// Zero values mean 10 lookups and 2 seconds.
	Window   int
	Cooldown time.Duration
	// SaveEvery checkpoints the cache after that many lookups, so an
	// interrupted batch loses at most the in-flight window. Zero means 100.
	SaveEvery int

	// CoolerSleep overrides the cooldown sleep in tests.
	CoolerSleep func(d time.Duration)

	nowFn func() time.Time
}

// NotFound lists the tokens left unresolved by the last Resolve call, for
// the not-found sidecar file.
func (r Result) NotFound() []string {
	var out []string
	for token, o := range r {
		if o.Reason == ReasonLookupFailure {
			out = append(out, token)
		}
	}
	return out
}

// Resolve processes tokens against store. Per-address failures are recorded
// and never abort the batch. The store is persisted incrementally and once
// at the end; a failed save is logged and the in-memory result is still
// returned.
func (e *Engine) Resolve(ctx context.Context, tokens []string, store *cache.Store) (Result, Stats) {
	ttl := e.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	saveEvery := e.SaveEvery
	if saveEvery <= 0 {
		saveEvery = 100
	}
	now := time.Now
	if e.nowFn != nil {
		now = e.nowFn
	}
	cooler := pace.NewCooler(e.Window, e.Cooldown, e.Log)
	if e.CoolerSleep != nil {
		cooler.Sleep = e.CoolerSleep
	}

	var stats Stats
	result := make(Result, len(tokens))

	// Deduplicate by normalized key, preserving first-appearance order and
	// the fan-out back to original tokens.
	var order []string
	keyTokens := make(map[string][]string)
	for _, token := range tokens {
		key, err := netaddr.Normalize(token)
		if err != nil {
			e.Log.Warn().Str("token", token).Msg("invalid address token")
			result[token] = Outcome{Reason: ReasonInvalidAddress}
			stats.Invalid++
			e.Metrics.IncInvalid()
			continue
		}
		if _, seen := keyTokens[key]; !seen {
			order = append(order, key)
		}
		keyTokens[key] = append(keyTokens[key], token)
	}

	// Partition into immediately-answerable keys and the network worklist.
	outcomes := make(map[string]Outcome, len(order))
	var worklist []string
	for _, key := range order {
		if descr, known := netaddr.Classify(key); known {
			outcomes[key] = Outcome{Entry: &cache.Entry{Description: descr, ResolvedAt: now()}}
			stats.WellKnown++
			continue
		}
		if entry, ok := store.Get(key); ok && cache.Fresh(entry, now(), ttl) {
			entryCopy := entry
			outcomes[key] = Outcome{Entry: &entryCopy}
			stats.CacheHits++
			e.Metrics.IncCacheHits()
			continue
		}
		worklist = append(worklist, key)
	}

	for _, key := range worklist {
		// An address inside an already-resolved block shares that block's
		// answer, so one lookup for 8.8.8.0/24 covers every host in it.
		// Checked here rather than during partitioning because the block
		// may have been cached moments ago by this very batch. The FQDN is
		// dropped: a PTR record belongs to one address only.
		if netaddr.IsHost(key) {
			if entry, ok := store.Covering(key); ok && cache.Fresh(entry, now(), ttl) {
				entry.FQDN = ""
				outcomes[key] = Outcome{Entry: &entry}
				stats.CacheHits++
				e.Metrics.IncCacheHits()
				continue
			}
		}

		rec, err := e.RIR.Query(ctx, key)
		stats.Lookups++
		e.Metrics.IncLookups()
		cooler.Tick()

		if err != nil {
			e.Log.Warn().Err(err).Str("address", key).Msg("lookup failed")
			outcomes[key] = Outcome{Reason: ReasonLookupFailure}
			stats.Failures++
			e.Metrics.IncFailures()
			continue
		}

		if e.Geo != nil {
			e.Geo.Supplement(key, rec)
		}
		entry := cache.Entry{
			Name:        rec.Name,
			Description: rec.Description,
			CIDR:        rec.CIDR,
			Country:     rec.Country,
			Registry:    rec.Registry,
		}
		if e.RDNS != nil && netaddr.IsHost(key) {
			entry.FQDN = e.RDNS.Resolve(ctx, key)
		}

		// Delegated aggregates are answered but never cached: the covering
		// block does not identify the holder of this address.
		if rec.Reserved() {
			entry.ResolvedAt = now()
			outcomes[key] = Outcome{Entry: &entry}
		} else {
			store.Put(key, entry)
			stored, _ := store.Get(key)
			outcomes[key] = Outcome{Entry: &stored}
		}

		if stats.Lookups%saveEvery == 0 {
			if err := store.Save(); err != nil {
				e.Log.Error().Err(err).Msg("cache checkpoint failed")
			}
		}
	}

	if err := store.Save(); err != nil {
		e.Log.Error().Err(err).Msg("cache save failed")
	}

	// Fan each key's outcome back out to every token that mapped to it.
	for key, toks := range keyTokens {
		for _, token := range toks {
			result[token] = outcomes[key]
		}
	}

	e.Log.Info().
		Int("cache_hits", stats.CacheHits).
		Int("lookups", stats.Lookups).
		Int("failures", stats.Failures).
		Int("invalid", stats.Invalid).
		Msg("batch complete")
	return result, stats
}
