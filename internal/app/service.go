/**
 * @description
 * This file contains the core business logic for the ledger-service. The `Service`
 * struct owns the encrypted transaction ledger: every read scopes the query
 * through the access evaluator, decrypts returned ciphertext fields through the
 * codec, and records an audit entry; every write encrypts before persisting.
 *
 * Key behaviors:
 * - Reads with a missing tab id return an empty result instead of an error.
 *   This is a deliberate fail-closed guard against cross-tab leakage from
 *   malformed requests, and it is locked in by tests.
 * - A decryption failure on a single field degrades that field to empty and
 *   logs a warning; the rest of the record is still returned.
 * - Authorization denials surface as ErrForbidden and leave no audit entry,
 *   so a denied delete is indistinguishable from no delete in the audit trail.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/shopspring/decimal: Exact decimal aggregation for stats.
 * - internal/access, internal/audit, internal/crypto, internal/domain, internal/store.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbook/ledger-service/internal/access"
	"github.com/finbook/ledger-service/internal/audit"
	"github.com/finbook/ledger-service/internal/crypto"
	"github.com/finbook/ledger-service/internal/domain"
	"github.com/finbook/ledger-service/internal/store"
)

var (
	// ErrValidation marks requests the caller must fix; never retried.
	ErrValidation = errors.New("invalid request")
	// ErrForbidden marks role or ownership mismatches.
	ErrForbidden = errors.New("operation not permitted")
)

// Service provides the core business logic for the encrypted ledger.
type Service struct {
	repo    store.Repository
	codec   *crypto.Codec
	auditor *audit.Recorder
}

// NewService creates a new ledger service instance.
func NewService(repo store.Repository, codec *crypto.Codec, auditor *audit.Recorder) *Service {
	return &Service{
		repo:    repo,
		codec:   codec,
		auditor: auditor,
	}
}

// List returns decrypted ledger rows for one tab, scoped to the principal.
// A missing tab id yields an empty slice, never an error and never unscoped data.
func (s *Service) List(ctx context.Context, p domain.Principal, tabID int64, filter domain.ListFilter) ([]domain.BankTransaction, error) {
	if tabID <= 0 {
		log.Printf("level=warn component=ledger msg=\"list without tab id; returning empty result\" username=%s", p.Username)
		return []domain.BankTransaction{}, nil
	}
	if filter.MonthYear != "" {
		if err := validateMonthYear(filter.MonthYear); err != nil {
			return nil, err
		}
	}

	txns, err := s.queryScoped(ctx, p, store.ListQuery{
		TabID:     tabID,
		MonthYear: filter.MonthYear,
		From:      filter.From,
		To:        filter.To,
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(p.Username, domain.AuditViewAll, fmt.Sprintf("rows=%d", len(txns)), filter.MonthYear)
	return txns, nil
}

// GetByMonth returns decrypted ledger rows for one tab and month.
func (s *Service) GetByMonth(ctx context.Context, p domain.Principal, tabID int64, monthYear string) ([]domain.BankTransaction, error) {
	if tabID <= 0 {
		log.Printf("level=warn component=ledger msg=\"month query without tab id; returning empty result\" username=%s", p.Username)
		return []domain.BankTransaction{}, nil
	}
	if err := validateMonthYear(monthYear); err != nil {
		return nil, err
	}

	txns, err := s.queryScoped(ctx, p, store.ListQuery{TabID: tabID, MonthYear: monthYear})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(p.Username, domain.AuditViewMonth, fmt.Sprintf("rows=%d", len(txns)), monthYear)
	return txns, nil
}

// Insert encrypts the sensitive fields and persists a new ledger row. The
// month key is derived from the transaction date; uploaded_by is always the
// acting principal.
func (s *Service) Insert(ctx context.Context, p domain.Principal, tabID int64, input domain.NewTransaction) (int64, error) {
	if tabID <= 0 {
		return 0, fmt.Errorf("%w: tab id is required", ErrValidation)
	}
	if input.TransactionDate.IsZero() {
		return 0, fmt.Errorf("%w: transaction date is required", ErrValidation)
	}
	if _, err := decimal.NewFromString(input.Amount); err != nil {
		return 0, fmt.Errorf("%w: amount must be a decimal string", ErrValidation)
	}
	if _, err := s.repo.FindTabByID(ctx, tabID); err != nil {
		return 0, err
	}

	sealed, err := s.encryptFields(input.AccountNumber, input.Description, input.Amount)
	if err != nil {
		return 0, err
	}

	monthYear := domain.MonthYearOf(input.TransactionDate)
	id, err := s.repo.InsertTransaction(ctx, &domain.BankTransaction{
		TabID:           tabID,
		UploadedBy:      p.Username,
		AccountNumber:   sealed[0],
		Description:     sealed[1],
		Amount:          sealed[2],
		TransactionDate: input.TransactionDate,
		MonthYear:       monthYear,
		TransactionType: domain.NormalizeTransactionType(input.TransactionType),
	})
	if err != nil {
		return 0, err
	}

	s.auditor.Record(p.Username, domain.AuditManualAdd, fmt.Sprintf("id=%d", id), monthYear)
	return id, nil
}

// Update replaces a ledger row's mutable fields. The three sensitive fields
// are re-encrypted unconditionally, even when their values did not change.
func (s *Service) Update(ctx context.Context, p domain.Principal, id int64, input domain.TransactionUpdate) error {
	if input.TransactionDate.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrValidation)
	}
	if _, err := decimal.NewFromString(input.Amount); err != nil {
		return fmt.Errorf("%w: amount must be a decimal string", ErrValidation)
	}

	current, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return err
	}
	tab, err := s.repo.FindTabByID(ctx, current.TabID)
	if err != nil {
		return err
	}
	if !access.Authorize(p, tab.Owner, current.UploadedBy, access.ActionWrite) {
		return fmt.Errorf("%w: update of transaction %d", ErrForbidden, id)
	}

	sealed, err := s.encryptFields(input.AccountNumber, input.Description, input.Amount)
	if err != nil {
		return err
	}

	monthYear := domain.MonthYearOf(input.TransactionDate)
	err = s.repo.UpdateTransaction(ctx, &domain.BankTransaction{
		ID:              id,
		AccountNumber:   sealed[0],
		Description:     sealed[1],
		Amount:          sealed[2],
		TransactionDate: input.TransactionDate,
		MonthYear:       monthYear,
		TransactionType: domain.NormalizeTransactionType(input.TransactionType),
	})
	if err != nil {
		return err
	}

	s.auditor.Record(p.Username, domain.AuditUpdate, fmt.Sprintf("id=%d", id), monthYear)
	return nil
}

// Delete removes one ledger row after authorizing against the record's
// current tab owner and uploader. A denial leaves no audit entry.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id int64) error {
	current, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return err
	}
	tab, err := s.repo.FindTabByID(ctx, current.TabID)
	if err != nil {
		return err
	}
	if !access.Authorize(p, tab.Owner, current.UploadedBy, access.ActionDelete) {
		return fmt.Errorf("%w: delete of transaction %d", ErrForbidden, id)
	}

	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(p.Username, domain.AuditDelete, fmt.Sprintf("id=%d", id), current.MonthYear)
	return nil
}

// DeleteByMonth removes every row in one tab and month atomically. It is
// authorized against the tab owner, not per row.
func (s *Service) DeleteByMonth(ctx context.Context, p domain.Principal, tabID int64, monthYear string) (int64, error) {
	if tabID <= 0 {
		return 0, fmt.Errorf("%w: tab id is required", ErrValidation)
	}
	if err := validateMonthYear(monthYear); err != nil {
		return 0, err
	}

	tab, err := s.repo.FindTabByID(ctx, tabID)
	if err != nil {
		return 0, err
	}
	if !access.Authorize(p, tab.Owner, "", access.ActionDelete) {
		return 0, fmt.Errorf("%w: bulk delete in tab %d", ErrForbidden, tabID)
	}

	count, err := s.repo.DeleteTransactionsByMonth(ctx, tabID, monthYear)
	if err != nil {
		return 0, err
	}

	s.auditor.Record(p.Username, domain.AuditDeleteMonth, fmt.Sprintf("rows=%d", count), monthYear)
	return count, nil
}

// Stats aggregates the principal's visible rows per type and per (month, type).
// Amounts cannot be aggregated in encrypted form, so every matching row's
// amount is decrypted in application code first. Rows whose amount cannot be
// decrypted or parsed are excluded from the aggregates with a warning.
func (s *Service) Stats(ctx context.Context, p domain.Principal, tabID int64, from, to time.Time) (*domain.TransactionStats, error) {
	if tabID <= 0 {
		log.Printf("level=warn component=ledger msg=\"stats without tab id; returning empty result\" username=%s", p.Username)
		return &domain.TransactionStats{ByType: []domain.TypeStat{}, MonthlyByType: []domain.MonthlyTypeStat{}}, nil
	}

	scope := access.ScopeFor(p)
	rows, err := s.repo.ListTransactions(ctx, store.ListQuery{
		TabID:      tabID,
		UploadedBy: scope.UploadedBy,
		From:       from,
		To:         to,
	})
	if err != nil {
		return nil, err
	}

	type typeAgg struct {
		count     int64
		sum       decimal.Decimal
		firstDate time.Time
		lastDate  time.Time
	}
	type monthAgg struct {
		count int64
		sum   decimal.Decimal
	}

	byType := map[string]*typeAgg{}
	byMonthType := map[[2]string]*monthAgg{}

	for _, row := range rows {
		plainAmount, err := s.codec.Decrypt(row.Amount)
		if err != nil {
			log.Printf("level=warn component=ledger msg=\"amount decryption failed; row excluded from stats\" id=%d err=%v", row.ID, err)
			continue
		}
		amount, err := decimal.NewFromString(plainAmount)
		if err != nil {
			log.Printf("level=warn component=ledger msg=\"amount not a decimal; row excluded from stats\" id=%d", row.ID)
			continue
		}

		agg, ok := byType[row.TransactionType]
		if !ok {
			agg = &typeAgg{firstDate: row.TransactionDate, lastDate: row.TransactionDate}
			byType[row.TransactionType] = agg
		}
		agg.count++
		agg.sum = agg.sum.Add(amount)
		if row.TransactionDate.Before(agg.firstDate) {
			agg.firstDate = row.TransactionDate
		}
		if row.TransactionDate.After(agg.lastDate) {
			agg.lastDate = row.TransactionDate
		}

		key := [2]string{row.MonthYear, row.TransactionType}
		m, ok := byMonthType[key]
		if !ok {
			m = &monthAgg{}
			byMonthType[key] = m
		}
		m.count++
		m.sum = m.sum.Add(amount)
	}

	stats := &domain.TransactionStats{
		ByType:        make([]domain.TypeStat, 0, len(byType)),
		MonthlyByType: make([]domain.MonthlyTypeStat, 0, len(byMonthType)),
	}
	for txnType, agg := range byType {
		avg := agg.sum.Div(decimal.NewFromInt(agg.count)).Round(2)
		stats.ByType = append(stats.ByType, domain.TypeStat{
			TransactionType: txnType,
			Count:           agg.count,
			Sum:             agg.sum.String(),
			Avg:             avg.String(),
			FirstDate:       agg.firstDate,
			LastDate:        agg.lastDate,
		})
	}
	for key, agg := range byMonthType {
		stats.MonthlyByType = append(stats.MonthlyByType, domain.MonthlyTypeStat{
			MonthYear:       key[0],
			TransactionType: key[1],
			Count:           agg.count,
			Sum:             agg.sum.String(),
		})
	}

	// Descending by (month_year, transaction_type).
	sort.Slice(stats.MonthlyByType, func(i, j int) bool {
		a, b := stats.MonthlyByType[i], stats.MonthlyByType[j]
		if a.MonthYear != b.MonthYear {
			return a.MonthYear > b.MonthYear
		}
		return a.TransactionType > b.TransactionType
	})

	return stats, nil
}

// CreateTab creates a new isolation boundary owned by the principal.
func (s *Service) CreateTab(ctx context.Context, p domain.Principal, name string) (*domain.TransactionTab, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tab name is required", ErrValidation)
	}
	return s.repo.CreateTab(ctx, name, p.Username)
}

// ListTabs returns the tabs visible to the principal: all tabs for admin and
// shared roles, owned tabs only for limited.
func (s *Service) ListTabs(ctx context.Context, p domain.Principal) ([]domain.TransactionTab, error) {
	owner := ""
	if p.Role == domain.RoleLimited {
		owner = p.Username
	}
	return s.repo.ListTabs(ctx, owner)
}

// AuditLogs returns the audit trail, admins only.
func (s *Service) AuditLogs(ctx context.Context, p domain.Principal, limit, offset int) ([]domain.AuditEntry, error) {
	if p.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: audit log access requires admin role", ErrForbidden)
	}
	return s.repo.ListAuditEntries(ctx, limit, offset)
}

// queryScoped runs a scoped listing and decrypts every returned row.
func (s *Service) queryScoped(ctx context.Context, p domain.Principal, q store.ListQuery) ([]domain.BankTransaction, error) {
	q.UploadedBy = access.ScopeFor(p).UploadedBy

	rows, err := s.repo.ListTransactions(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		s.decryptInPlace(&rows[i])
	}
	return rows, nil
}

// decryptInPlace decrypts the three sensitive fields. A corrupt field is
// degraded to empty so one bad value never fails a whole page of results.
func (s *Service) decryptInPlace(txn *domain.BankTransaction) {
	fields := []struct {
		name  string
		value *string
	}{
		{name: "account_number", value: &txn.AccountNumber},
		{name: "description", value: &txn.Description},
		{name: "amount", value: &txn.Amount},
	}
	for _, f := range fields {
		plain, err := s.codec.Decrypt(*f.value)
		if err != nil {
			log.Printf("level=warn component=ledger msg=\"field decryption failed; value degraded\" id=%d field=%s err=%v", txn.ID, f.name, err)
			plain = ""
		}
		*f.value = plain
	}
}

// encryptFields seals account number, description and amount, in that order.
func (s *Service) encryptFields(accountNumber, description, amount string) ([3]string, error) {
	var sealed [3]string
	for i, plain := range []string{accountNumber, description, amount} {
		value, err := s.codec.Encrypt(plain)
		if err != nil {
			return sealed, err
		}
		sealed[i] = value
	}
	return sealed, nil
}

func validateMonthYear(monthYear string) error {
	if _, err := time.Parse("2006-01", monthYear); err != nil {
		return fmt.Errorf("%w: month must be formatted YYYY-MM", ErrValidation)
	}
	return nil
}
