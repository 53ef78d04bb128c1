/**
 * @description
 * This file defines the repository interface for the ledger-service's data
 * access layer. The application service depends on this interface rather
 * than a concrete implementation, which decouples the business logic from
 * the database and allows for mocking in tests.
 *
 * @notes
 * - Sensitive transaction fields (account_number, description, amount) cross
 *   this boundary as ciphertext in both directions. Encryption and decryption
 *   belong to the application service, not the repository.
 */

package store

import (
	"context"
	"time"

	"github.com/finbook/ledger-service/internal/domain"
)

// ListQuery narrows a ledger read. TabID is mandatory for every caller; the
// service enforces the fail-closed guard before the query reaches this layer.
// UploadedBy, when non-empty, is the access-control scope predicate.
type ListQuery struct {
	TabID      int64
	UploadedBy string
	MonthYear  string
	From       time.Time
	To         time.Time
}

// Repository defines the persistence operations needed by the ledger service.
type Repository interface {
	// Transaction tabs.
	CreateTab(ctx context.Context, name, owner string) (*domain.TransactionTab, error)
	FindTabByID(ctx context.Context, id int64) (*domain.TransactionTab, error)
	ListTabs(ctx context.Context, owner string) ([]domain.TransactionTab, error)

	// Ledger rows (sensitive fields are ciphertext).
	ListTransactions(ctx context.Context, q ListQuery) ([]domain.BankTransaction, error)
	FindTransactionByID(ctx context.Context, id int64) (*domain.BankTransaction, error)
	InsertTransaction(ctx context.Context, txn *domain.BankTransaction) (int64, error)
	UpdateTransaction(ctx context.Context, txn *domain.BankTransaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	DeleteTransactionsByMonth(ctx context.Context, tabID int64, monthYear string) (int64, error)

	// Audit log (append-only).
	InsertAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
	ListAuditEntries(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error)
}
