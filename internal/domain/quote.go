/**
 * @description
 * Market data domain model. A QuoteSnapshot is one point-in-time view of a
 * traded symbol as returned by the upstream provider; cached snapshots are
 * replaced wholesale, never partially mutated.
 */

package domain

import "time"

// QuoteSnapshot is the cached payload for one normalized ticker symbol.
type QuoteSnapshot struct {
	Ticker        string    `json:"ticker"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Currency      string    `json:"currency"`
	Exchange      string    `json:"exchange"`
	MarketState   string    `json:"market_state"`
	FetchedAt     time.Time `json:"fetched_at"`
}
