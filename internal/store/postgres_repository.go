/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * related to transaction tabs, bank transactions, and the audit log.
 *
 * @dependencies
 * - context, time, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbook/ledger-service/internal/domain"
)

var (
	ErrTabNotFound         = errors.New("transaction tab not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateTab inserts a new transaction tab owned by the given username.
func (r *PostgresRepository) CreateTab(ctx context.Context, name, owner string) (*domain.TransactionTab, error) {
	var tab domain.TransactionTab
	query := `
		INSERT INTO transaction_tabs (name, owner)
		VALUES ($1, $2)
		RETURNING id, name, owner, created_at
	`
	err := r.db.QueryRow(ctx, query, name, owner).Scan(&tab.ID, &tab.Name, &tab.Owner, &tab.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tab, nil
}

// FindTabByID retrieves a single tab, primarily to resolve its owner for authorization.
func (r *PostgresRepository) FindTabByID(ctx context.Context, id int64) (*domain.TransactionTab, error) {
	var tab domain.TransactionTab
	query := `SELECT id, name, owner, created_at FROM transaction_tabs WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&tab.ID, &tab.Name, &tab.Owner, &tab.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTabNotFound
		}
		return nil, err
	}
	return &tab, nil
}

// ListTabs returns all tabs, or only the tabs owned by `owner` when non-empty.
func (r *PostgresRepository) ListTabs(ctx context.Context, owner string) ([]domain.TransactionTab, error) {
	query := `SELECT id, name, owner, created_at FROM transaction_tabs`
	args := []interface{}{}
	if owner != "" {
		query += ` WHERE owner = $1`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tabs := []domain.TransactionTab{}
	for rows.Next() {
		var tab domain.TransactionTab
		if err := rows.Scan(&tab.ID, &tab.Name, &tab.Owner, &tab.CreatedAt); err != nil {
			return nil, err
		}
		tabs = append(tabs, tab)
	}
	return tabs, rows.Err()
}

const transactionColumns = `id, tab_id, uploaded_by, account_number, description, amount, transaction_date, month_year, transaction_type, upload_date`

// ListTransactions returns ledger rows matching the query, ciphertext intact.
// The WHERE clause is built from the query's populated fields; TabID is always
// present because the service rejects scopeless queries before reaching here.
func (r *PostgresRepository) ListTransactions(ctx context.Context, q ListQuery) ([]domain.BankTransaction, error) {
	where, args := buildTransactionFilter(q)
	query := fmt.Sprintf(
		`SELECT %s FROM bank_transactions WHERE %s ORDER BY transaction_date DESC, id DESC`,
		transactionColumns, where,
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []domain.BankTransaction{}
	for rows.Next() {
		var txn domain.BankTransaction
		if err := scanTransaction(rows, &txn); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

// FindTransactionByID retrieves one ledger row, ciphertext intact.
func (r *PostgresRepository) FindTransactionByID(ctx context.Context, id int64) (*domain.BankTransaction, error) {
	var txn domain.BankTransaction
	query := fmt.Sprintf(`SELECT %s FROM bank_transactions WHERE id = $1`, transactionColumns)
	err := scanTransaction(r.db.QueryRow(ctx, query, id), &txn)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// InsertTransaction persists a new ledger row and returns its id. The tab
// foreign key constraint guarantees every row belongs to an existing tab.
func (r *PostgresRepository) InsertTransaction(ctx context.Context, txn *domain.BankTransaction) (int64, error) {
	var id int64
	query := `
		INSERT INTO bank_transactions
			(tab_id, uploaded_by, account_number, description, amount, transaction_date, month_year, transaction_type, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		txn.TabID,
		txn.UploadedBy,
		txn.AccountNumber,
		txn.Description,
		txn.Amount,
		txn.TransactionDate,
		txn.MonthYear,
		txn.TransactionType,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateTransaction replaces the mutable columns of an existing row.
func (r *PostgresRepository) UpdateTransaction(ctx context.Context, txn *domain.BankTransaction) error {
	query := `
		UPDATE bank_transactions
		SET account_number = $1,
			description = $2,
			amount = $3,
			transaction_date = $4,
			month_year = $5,
			transaction_type = $6
		WHERE id = $7
	`
	result, err := r.db.Exec(ctx, query,
		txn.AccountNumber,
		txn.Description,
		txn.Amount,
		txn.TransactionDate,
		txn.MonthYear,
		txn.TransactionType,
		txn.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// DeleteTransaction removes a single ledger row.
func (r *PostgresRepository) DeleteTransaction(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM bank_transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// DeleteTransactionsByMonth removes every row in one tab and month inside a
// single database transaction so a partial delete is never visible.
func (r *PostgresRepository) DeleteTransactionsByMonth(ctx context.Context, tabID int64, monthYear string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`DELETE FROM bank_transactions WHERE tab_id = $1 AND month_year = $2`,
		tabID, monthYear,
	)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// InsertAuditEntry appends one audit record. There is deliberately no update
// or delete counterpart.
func (r *PostgresRepository) InsertAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_logs (id, username, action, transaction_ids, month_year, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.Username,
		string(entry.Action),
		entry.TransactionIDs,
		entry.MonthYear,
		entry.Timestamp,
	)
	return err
}

// ListAuditEntries returns audit records newest first, paginated.
func (r *PostgresRepository) ListAuditEntries(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, username, action, transaction_ids, month_year, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var entry domain.AuditEntry
		var action string
		if err := rows.Scan(&entry.ID, &entry.Username, &action, &entry.TransactionIDs, &entry.MonthYear, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.Action = domain.AuditAction(action)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// buildTransactionFilter assembles the WHERE clause and its positional
// arguments for a ledger listing.
func buildTransactionFilter(q ListQuery) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}

	addClause := func(column, op string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	addClause("tab_id", "=", q.TabID)
	if q.UploadedBy != "" {
		addClause("uploaded_by", "=", q.UploadedBy)
	}
	if q.MonthYear != "" {
		addClause("month_year", "=", q.MonthYear)
	}
	if !q.From.IsZero() {
		addClause("transaction_date", ">=", q.From)
	}
	if !q.To.IsZero() {
		addClause("transaction_date", "<=", q.To)
	}

	return strings.Join(clauses, " AND "), args
}

// scanTransaction reads one ledger row from pgx. Accepting pgx.Row keeps it
// usable for both Query and QueryRow call sites.
func scanTransaction(row pgx.Row, txn *domain.BankTransaction) error {
	return row.Scan(
		&txn.ID,
		&txn.TabID,
		&txn.UploadedBy,
		&txn.AccountNumber,
		&txn.Description,
		&txn.Amount,
		&txn.TransactionDate,
		&txn.MonthYear,
		&txn.TransactionType,
		&txn.UploadDate,
	)
}
