/**
 * @description
 * Audit domain model. Every sensitive read of full transaction data and every
 * mutation on the ledger produces exactly one audit entry. Entries are
 * append-only: the service exposes no update or delete path for them.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction tags what kind of ledger access an audit entry records.
type AuditAction string

const (
	AuditViewAll     AuditAction = "VIEW_ALL"
	AuditViewMonth   AuditAction = "VIEW_MONTH"
	AuditUpdate      AuditAction = "UPDATE"
	AuditDelete      AuditAction = "DELETE"
	AuditDeleteMonth AuditAction = "DELETE_MONTH"
	AuditManualAdd   AuditAction = "MANUAL_ADD"
)

// AuditEntry records one sensitive ledger access. TransactionIDs is a free-text
// identifier or count summary ("id=42", "rows=17").
type AuditEntry struct {
	ID             uuid.UUID   `json:"id"`
	Username       string      `json:"username"`
	Action         AuditAction `json:"action"`
	TransactionIDs string      `json:"transaction_ids"`
	MonthYear      *string     `json:"month_year,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}
