/**
 * @description
 * This package provides a client for the external market-data provider. It
 * encapsulates the logic for making authenticated HTTP requests to the quote
 * endpoint, handling request construction, and parsing responses.
 *
 * Rate-limit responses (HTTP 429) are surfaced as the distinguished
 * ErrRateLimited sentinel so callers can tell "try later" apart from a
 * permanent upstream failure. The client never retries on its own.
 *
 * @dependencies
 * - context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package quoteclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/finbook/ledger-service/internal/domain"
)

// ErrRateLimited indicates the upstream provider rejected the request with a
// rate-limit response. Not an outage: callers should retry later.
var ErrRateLimited = errors.New("quote provider rate limited")

// Client is a client for the market-data provider API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new quote provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// quoteResponse is the provider's wire format for a single symbol lookup.
type quoteResponse struct {
	Data struct {
		Symbol        string  `json:"symbol"`
		Name          string  `json:"name"`
		Price         float64 `json:"price"`
		PreviousClose float64 `json:"previousClose"`
		Currency      string  `json:"currency"`
		Exchange      string  `json:"exchange"`
		MarketState   string  `json:"marketState"`
	} `json:"data"`
}

// errorResponse represents an error payload from the provider API.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchQuote retrieves the current snapshot for one ticker symbol. The caller
// bounds the request lifetime through ctx.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*domain.QuoteSnapshot, error) {
	endpoint := fmt.Sprintf("%s/v1/quote?symbol=%s", c.BaseURL, url.QueryEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: symbol %s", ErrRateLimited, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("quote provider error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("quote provider error: unexpected status %d", resp.StatusCode)
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}
	if payload.Data.Symbol == "" {
		return nil, fmt.Errorf("quote provider returned no symbol for %s", ticker)
	}

	return &domain.QuoteSnapshot{
		Ticker:        payload.Data.Symbol,
		Name:          payload.Data.Name,
		Price:         payload.Data.Price,
		PreviousClose: payload.Data.PreviousClose,
		Currency:      payload.Data.Currency,
		Exchange:      payload.Data.Exchange,
		MarketState:   payload.Data.MarketState,
		FetchedAt:     time.Now().UTC(),
	}, nil
}
