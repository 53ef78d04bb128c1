package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/finbook/ledger-service/internal/domain"
)

type captureSink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (s *captureSink) InsertAuditEntry(_ context.Context, entry *domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *captureSink) all() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.entries...)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domain.AuditEntry
	err    error
}

func (p *capturePublisher) PublishAuditEvent(_ context.Context, entry domain.AuditEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, entry)
	return nil
}

func TestRecorder_WritesEntryAndPublishesEvent(t *testing.T) {
	sink := &captureSink{}
	publisher := &capturePublisher{}
	recorder := NewRecorder(sink, publisher)
	recorder.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	recorder.Record("alice", domain.AuditViewMonth, "rows=3", "2024-03")
	recorder.Wait()

	entries := sink.all()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Username != "alice" {
		t.Fatalf("expected username alice, got %q", entry.Username)
	}
	if entry.Action != domain.AuditViewMonth {
		t.Fatalf("expected action VIEW_MONTH, got %s", entry.Action)
	}
	if entry.TransactionIDs != "rows=3" {
		t.Fatalf("expected summary rows=3, got %q", entry.TransactionIDs)
	}
	if entry.MonthYear == nil || *entry.MonthYear != "2024-03" {
		t.Fatalf("expected month 2024-03, got %v", entry.MonthYear)
	}
	if !entry.Timestamp.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", entry.Timestamp)
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.events))
	}
}

func TestRecorder_EmptyMonthStoredAsNil(t *testing.T) {
	sink := &captureSink{}
	recorder := NewRecorder(sink, nil)

	recorder.Record("alice", domain.AuditDelete, "id=42", "")
	recorder.Wait()

	entries := sink.all()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].MonthYear != nil {
		t.Fatalf("expected nil month, got %v", *entries[0].MonthYear)
	}
}

func TestRecorder_SinkFailureIsSwallowed(t *testing.T) {
	sink := &captureSink{err: errors.New("database unavailable")}
	recorder := NewRecorder(sink, nil)

	// Must not panic and must not block the caller.
	recorder.Record("alice", domain.AuditUpdate, "id=1", "")
	recorder.Wait()
}

func TestRecorder_PublisherFailureDoesNotDropEntry(t *testing.T) {
	sink := &captureSink{}
	publisher := &capturePublisher{err: errors.New("broker gone")}
	recorder := NewRecorder(sink, publisher)

	recorder.Record("alice", domain.AuditManualAdd, "id=9", "2024-04")
	recorder.Wait()

	if len(sink.all()) != 1 {
		t.Fatal("expected audit entry to persist despite publish failure")
	}
}
