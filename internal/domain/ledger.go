/**
 * @description
 * This file defines the core domain models for the ledger-service. These structs
 * represent the main entities and data transfer objects (DTOs) used throughout the
 * service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Amounts are decimal strings ("4.50") in plaintext form. They are encrypted
 *   before persistence, so the database never sees a numeric amount column and
 *   aggregation happens in application code after decryption.
 * - `MonthYear` is derived from `TransactionDate` ("YYYY-MM") and must stay
 *   consistent with it; the service recomputes it on every insert and update.
 */

package domain

import (
	"strings"
	"time"
)

// Role determines the visibility scope of a principal.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleShared  Role = "shared"
	RoleLimited Role = "limited"
)

// ParseRole validates a role claim coming from an already-verified JWT.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleShared:
		return RoleShared, true
	case RoleLimited:
		return RoleLimited, true
	}
	return "", false
}

// Principal is the authenticated identity making a request. It is issued by the
// authentication middleware from validated JWT claims and never persisted here.
type Principal struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// TransactionTab is an isolation boundary for bank transactions. Every ledger
// query and mutation must name a tab; queries without one return no data.
type TransactionTab struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction types. Absent or unrecognized values default to credit.
const (
	TypeCredit  = "credit"
	TypeDebit   = "debit"
	TypeCash    = "cash"
	TypeUnknown = "unknown"
)

// NormalizeTransactionType maps free-form input onto the known type set.
func NormalizeTransactionType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case TypeDebit:
		return TypeDebit
	case TypeCash:
		return TypeCash
	case TypeUnknown:
		return TypeUnknown
	default:
		return TypeCredit
	}
}

// BankTransaction is one ledger row. AccountNumber, Description and Amount are
// plaintext in this struct; the repository stores and returns them as ciphertext
// and the service runs them through the field codec at the boundary.
type BankTransaction struct {
	ID              int64     `json:"id"`
	TabID           int64     `json:"tab_id"`
	UploadedBy      string    `json:"uploaded_by"`
	AccountNumber   string    `json:"account_number"`
	Description     string    `json:"description"`
	Amount          string    `json:"amount"`
	TransactionDate time.Time `json:"transaction_date"`
	MonthYear       string    `json:"month_year"`
	TransactionType string    `json:"transaction_type"`
	UploadDate      time.Time `json:"upload_date"`
}

// MonthYearOf derives the aggregation key for a transaction date.
func MonthYearOf(d time.Time) string {
	return d.Format("2006-01")
}

// ListFilter narrows a ledger listing. Zero values mean "no constraint".
type ListFilter struct {
	MonthYear string
	From      time.Time
	To        time.Time
}

// NewTransaction carries the caller-supplied fields for a manual ledger entry.
type NewTransaction struct {
	AccountNumber   string    `json:"account_number"`
	Description     string    `json:"description"`
	Amount          string    `json:"amount"`
	TransactionDate time.Time `json:"transaction_date"`
	TransactionType string    `json:"transaction_type"`
}

// TransactionUpdate carries the full replacement field set for an update. The
// three sensitive fields are re-encrypted unconditionally on every update.
type TransactionUpdate struct {
	AccountNumber   string    `json:"account_number"`
	Description     string    `json:"description"`
	Amount          string    `json:"amount"`
	TransactionDate time.Time `json:"transaction_date"`
	TransactionType string    `json:"transaction_type"`
}

// TypeStat aggregates all transactions of one type within the queried scope.
// Sum and Avg are decimal strings computed after per-row decryption.
type TypeStat struct {
	TransactionType string    `json:"transaction_type"`
	Count           int64     `json:"count"`
	Sum             string    `json:"sum"`
	Avg             string    `json:"avg"`
	FirstDate       time.Time `json:"first_date"`
	LastDate        time.Time `json:"last_date"`
}

// MonthlyTypeStat aggregates one (month, type) bucket.
type MonthlyTypeStat struct {
	MonthYear       string `json:"month_year"`
	TransactionType string `json:"transaction_type"`
	Count           int64  `json:"count"`
	Sum             string `json:"sum"`
}

// TransactionStats is the result of a stats query. MonthlyByType is sorted
// descending by (month_year, transaction_type); ByType carries no ordering
// guarantee.
type TransactionStats struct {
	ByType        []TypeStat        `json:"by_type"`
	MonthlyByType []MonthlyTypeStat `json:"monthly_by_type"`
}
