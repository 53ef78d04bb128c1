/**
 * @description
 * This file contains the HTTP handlers for the market-data endpoints. They sit
 * in front of the quote cache, translate its tagged outcomes into status codes
 * the UI can act on (429 "try later" vs 502 "upstream broken"), and apply the
 * optional per-user redis rate limit.
 *
 * @dependencies
 * - encoding/json, net/http: Standard Go libraries.
 * - internal/app, internal/marketdata, pkg/quoteclient.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finbook/ledger-service/internal/app"
	"github.com/finbook/ledger-service/internal/domain"
	"github.com/finbook/ledger-service/internal/marketdata"
	"github.com/finbook/ledger-service/pkg/quoteclient"
)

// MarketHandlers holds the quote cache and the optional rate limiter.
type MarketHandlers struct {
	cache          *marketdata.Cache
	limiter        *app.RedisQuoteRateLimiter
	limitPerMinute int
}

// NewMarketHandlers creates the handler set for the market-data endpoints.
// limiter may be nil when redis is not configured.
func NewMarketHandlers(cache *marketdata.Cache, limiter *app.RedisQuoteRateLimiter, limitPerMinute int) *MarketHandlers {
	return &MarketHandlers{
		cache:          cache,
		limiter:        limiter,
		limitPerMinute: limitPerMinute,
	}
}

// batchQuoteOutcome is the per-ticker element of a batch response. Exactly one
// of quote and error is populated.
type batchQuoteOutcome struct {
	Ticker string                `json:"ticker"`
	Quote  *domain.QuoteSnapshot `json:"quote,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// GetQuoteHandler serves GET /market/quote/{ticker}.
func (h *MarketHandlers) GetQuoteHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !h.consumeRateLimit(w, r, principal.Username) {
		return
	}

	quote, err := h.cache.GetQuote(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		h.writeQuoteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

// GetQuotesHandler serves POST /market/quotes with a body of up to 50 tickers.
func (h *MarketHandlers) GetQuotesHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !h.consumeRateLimit(w, r, principal.Username) {
		return
	}

	var req struct {
		Tickers []string `json:"tickers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcomes, err := h.cache.GetQuotes(r.Context(), req.Tickers)
	if err != nil {
		if errors.Is(err, marketdata.ErrTooManyTickers) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api msg=\"batch quote lookup failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := make([]batchQuoteOutcome, len(outcomes))
	for i, outcome := range outcomes {
		response[i] = batchQuoteOutcome{Ticker: outcome.Ticker, Quote: outcome.Quote}
		if outcome.Err != nil {
			response[i].Error = quoteErrorTag(outcome.Err)
		}
	}
	h.writeJSON(w, http.StatusOK, response)
}

// consumeRateLimit enforces the per-user quote budget. Limiter failures are
// logged and ignored so a redis outage never blocks market data.
func (h *MarketHandlers) consumeRateLimit(w http.ResponseWriter, r *http.Request, username string) bool {
	if h.limiter == nil || h.limitPerMinute <= 0 {
		return true
	}

	count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), "quotes", username, h.limitPerMinute, time.Minute)
	if err != nil {
		log.Printf("level=warn component=api msg=\"quote rate limiter unavailable; allowing request\" err=%v", err)
		return true
	}
	if count > h.limitPerMinute {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		h.writeError(w, http.StatusTooManyRequests, "Quote request limit reached. Please wait and try again.")
		return false
	}
	return true
}

// writeQuoteError distinguishes "try later" from "upstream broken"; a quote
// failure is never silently treated as a zero price.
func (h *MarketHandlers) writeQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketdata.ErrEmptyTicker):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quoteclient.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, "Market data provider is rate limiting. Please try again shortly.")
	case errors.Is(err, marketdata.ErrUpstream):
		h.writeError(w, http.StatusBadGateway, "Market data provider is unavailable.")
	default:
		log.Printf("level=error component=api msg=\"quote lookup failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func quoteErrorTag(err error) string {
	switch {
	case errors.Is(err, marketdata.ErrEmptyTicker):
		return "invalid_ticker"
	case errors.Is(err, quoteclient.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, marketdata.ErrUpstream):
		return "upstream_error"
	}
	return "error"
}

func (h *MarketHandlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *MarketHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
