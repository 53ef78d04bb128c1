/**
 * @description
 * This file sets up the HTTP router for the ledger-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes creates and returns the router for the ledger service.
func Routes(ledger *LedgerHandlers, market *MarketHandlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/transactions", ledger.ListTransactionsHandler)
			r.Post("/transactions", ledger.CreateTransactionHandler)
			r.Get("/transactions/month/{month}", ledger.GetByMonthHandler)
			r.Delete("/transactions/month/{month}", ledger.DeleteMonthHandler)
			r.Put("/transactions/{id}", ledger.UpdateTransactionHandler)
			r.Delete("/transactions/{id}", ledger.DeleteTransactionHandler)
			r.Get("/stats", ledger.StatsHandler)
			r.Get("/tabs", ledger.ListTabsHandler)
			r.Post("/tabs", ledger.CreateTabHandler)
		})

		r.Route("/market", func(r chi.Router) {
			r.Get("/quote/{ticker}", market.GetQuoteHandler)
			r.Post("/quotes", market.GetQuotesHandler)
		})

		r.Get("/audit/logs", ledger.ListAuditLogsHandler)
	})

	return r
}
