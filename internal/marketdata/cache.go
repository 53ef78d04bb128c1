/**
 * @description
 * This package implements the in-memory TTL cache in front of the external
 * market-data provider. It is the only component that talks to the provider.
 *
 * Core guarantees:
 * - At most one upstream fetch is in flight per normalized ticker at any time.
 *   Concurrent requests for the same symbol coalesce into a single upstream
 *   call through singleflight and share its result or its failure.
 * - Failures are never cached. A rate-limited or failed fetch leaves no entry,
 *   so the next caller goes back upstream instead of seeing a cached negative.
 * - Upstream calls carry a bounded timeout independent of any one caller's
 *   context, so a timed-out fetch releases the coalescing slot instead of
 *   pinning every later caller behind a dead request.
 * - Cache entries are replaced wholesale, never partially mutated.
 *
 * @dependencies
 * - golang.org/x/sync/singleflight: In-flight request coalescing.
 * - internal/domain, pkg/quoteclient: Snapshot model and upstream client.
 */

package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/finbook/ledger-service/internal/domain"
	"github.com/finbook/ledger-service/pkg/quoteclient"
)

// MaxBatchTickers caps one GetQuotes call.
const MaxBatchTickers = 50

var (
	// ErrUpstream marks a non-rate-limit provider failure, including timeouts.
	ErrUpstream = errors.New("market data upstream error")
	// ErrEmptyTicker marks a blank symbol after normalization.
	ErrEmptyTicker = errors.New("ticker symbol is required")
	// ErrTooManyTickers marks a batch above MaxBatchTickers.
	ErrTooManyTickers = fmt.Errorf("at most %d tickers per batch", MaxBatchTickers)
)

// Fetcher is the upstream dependency. *quoteclient.Client satisfies it.
type Fetcher interface {
	FetchQuote(ctx context.Context, ticker string) (*domain.QuoteSnapshot, error)
}

// QuoteOutcome pairs one requested ticker with either its snapshot or the
// error that fetching it produced. Batch results preserve input order.
type QuoteOutcome struct {
	Ticker string
	Quote  *domain.QuoteSnapshot
	Err    error
}

type cacheEntry struct {
	snapshot  domain.QuoteSnapshot
	expiresAt time.Time
}

// Cache is the read-through quote cache. Construct with NewCache; the zero
// value is not usable.
type Cache struct {
	fetcher      Fetcher
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCache creates a quote cache with the given TTL and per-fetch timeout.
func NewCache(fetcher Fetcher, ttl, fetchTimeout time.Duration) *Cache {
	return &Cache{
		fetcher:      fetcher,
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
		entries:      map[string]cacheEntry{},
	}
}

// NormalizeTicker maps caller input onto the cache key space.
func NormalizeTicker(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// GetQuote returns the snapshot for one ticker, serving from cache when a
// live entry exists and coalescing concurrent upstream fetches otherwise.
func (c *Cache) GetQuote(ctx context.Context, ticker string) (*domain.QuoteSnapshot, error) {
	key := NormalizeTicker(ticker)
	if key == "" {
		return nil, ErrEmptyTicker
	}

	if snap, ok := c.cached(key); ok {
		return snap, nil
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A racing caller may have filled the entry between our cache miss
		// and winning the flight slot.
		if snap, ok := c.cached(key); ok {
			return snap, nil
		}

		// Detach from the individual caller's context: the fetch outcome is
		// shared, and the bounded timeout guarantees the slot is released.
		fetchCtx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()

		snap, err := c.fetcher.FetchQuote(fetchCtx, key)
		if err != nil {
			if errors.Is(err, quoteclient.ErrRateLimited) {
				log.Printf("level=warn component=marketdata msg=\"provider rate limited\" ticker=%s", key)
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}

		c.store(key, *snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.QuoteSnapshot), nil
}

// GetQuotes resolves up to MaxBatchTickers symbols. Each ticker is processed
// independently: one failure never aborts the batch, and the result slice
// preserves input order.
func (c *Cache) GetQuotes(ctx context.Context, tickers []string) ([]QuoteOutcome, error) {
	if len(tickers) > MaxBatchTickers {
		return nil, ErrTooManyTickers
	}

	outcomes := make([]QuoteOutcome, len(tickers))
	var wg sync.WaitGroup
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			snap, err := c.GetQuote(ctx, ticker)
			outcomes[i] = QuoteOutcome{Ticker: NormalizeTicker(ticker), Quote: snap, Err: err}
		}(i, ticker)
	}
	wg.Wait()

	return outcomes, nil
}

func (c *Cache) cached(key string) (*domain.QuoteSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	snap := entry.snapshot
	return &snap, true
}

func (c *Cache) store(key string, snap domain.QuoteSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{snapshot: snap, expiresAt: c.now().Add(c.ttl)}
}
