/**
 * @description
 * This file contains the HTTP handlers for the ledger endpoints. Handlers are
 * responsible for parsing incoming requests, calling the appropriate methods
 * on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
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
	"github.com/finbook/ledger-service/internal/store"
)

const dateLayout = "2006-01-02"

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service *app.Service
}

// NewLedgerHandlers creates the handler set for the ledger endpoints.
func NewLedgerHandlers(service *app.Service) *LedgerHandlers {
	return &LedgerHandlers{service: service}
}

// transactionRequest is the request body shared by create and update.
type transactionRequest struct {
	TabID           int64  `json:"tab_id,omitempty"`
	AccountNumber   string `json:"account_number"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	TransactionDate string `json:"transaction_date"`
	TransactionType string `json:"transaction_type"`
}

// ListTransactionsHandler serves GET /ledger/transactions.
func (h *LedgerHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	tabID := parseTabID(r)
	filter := domain.ListFilter{MonthYear: r.URL.Query().Get("month")}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
			return
		}
		filter.From = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
			return
		}
		filter.To = to
	}

	txns, err := h.service.List(r.Context(), principal, tabID, filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, txns)
}

// GetByMonthHandler serves GET /ledger/transactions/month/{month}.
func (h *LedgerHandlers) GetByMonthHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	txns, err := h.service.GetByMonth(r.Context(), principal, parseTabID(r), chi.URLParam(r, "month"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, txns)
}

// CreateTransactionHandler serves POST /ledger/transactions.
func (h *LedgerHandlers) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input, err := req.toNewTransaction()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.service.Insert(r.Context(), principal, req.TabID, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateTransactionHandler serves PUT /ledger/transactions/{id}.
func (h *LedgerHandlers) UpdateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input, err := req.toNewTransaction()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Update(r.Context(), principal, id, domain.TransactionUpdate(input)); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteTransactionHandler serves DELETE /ledger/transactions/{id}.
func (h *LedgerHandlers) DeleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// DeleteMonthHandler serves DELETE /ledger/transactions/month/{month}.
func (h *LedgerHandlers) DeleteMonthHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	count, err := h.service.DeleteByMonth(r.Context(), principal, parseTabID(r), chi.URLParam(r, "month"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}

// StatsHandler serves GET /ledger/stats.
func (h *LedgerHandlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
			return
		}
		to = parsed
	}

	stats, err := h.service.Stats(r.Context(), principal, parseTabID(r), from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// ListTabsHandler serves GET /ledger/tabs.
func (h *LedgerHandlers) ListTabsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	tabs, err := h.service.ListTabs(r.Context(), principal)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tabs)
}

// CreateTabHandler serves POST /ledger/tabs.
func (h *LedgerHandlers) CreateTabHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tab, err := h.service.CreateTab(r.Context(), principal, req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, tab)
}

// ListAuditLogsHandler serves GET /audit/logs (admin only).
func (h *LedgerHandlers) ListAuditLogsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.service.AuditLogs(r.Context(), principal, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (r transactionRequest) toNewTransaction() (domain.NewTransaction, error) {
	date, err := time.Parse(dateLayout, r.TransactionDate)
	if err != nil {
		return domain.NewTransaction{}, errors.New("transaction_date must be formatted YYYY-MM-DD")
	}
	return domain.NewTransaction{
		AccountNumber:   r.AccountNumber,
		Description:     r.Description,
		Amount:          r.Amount,
		TransactionDate: date,
		TransactionType: r.TransactionType,
	}, nil
}

// parseTabID reads tab_id from the query string. Zero means absent; the
// service's fail-closed guard handles that case.
func parseTabID(r *http.Request) int64 {
	tabID, err := strconv.ParseInt(r.URL.Query().Get("tab_id"), 10, 64)
	if err != nil {
		return 0
	}
	return tabID
}

// writeServiceError maps typed service errors onto deterministic status codes.
func (h *LedgerHandlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "You are not permitted to perform this operation")
	case errors.Is(err, store.ErrTransactionNotFound), errors.Is(err, store.ErrTabNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("level=error component=api msg=\"ledger operation failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
