/**
 * @description
 * This package implements the append-only audit logger for sensitive ledger
 * access. Every full read and every mutation on the ledger is recorded here
 * with the acting username, an action tag, and an identifying summary.
 *
 * Key properties:
 * - Fire-and-forget: recording happens on a background goroutine with its own
 *   bounded context, so a slow or failing audit write never blocks or rolls
 *   back the ledger operation it describes.
 * - Fail-open: persistence and publish failures are surfaced to operational
 *   logs and then swallowed.
 * - Append-only: there is no update or delete path for audit entries.
 *
 * @dependencies
 * - internal/domain, internal/store: For the audit model and its sink.
 * - github.com/google/uuid: For audit entry ids.
 */

package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finbook/ledger-service/internal/domain"
)

const recordTimeout = 5 * time.Second

// Sink persists audit entries. The postgres repository satisfies this.
type Sink interface {
	InsertAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
}

// EventPublisher fans audit entries out to downstream consumers. May be the
// RabbitMQ producer or its noop fallback.
type EventPublisher interface {
	PublishAuditEvent(ctx context.Context, entry domain.AuditEntry) error
}

// Recorder writes audit entries asynchronously to the sink and, when a
// publisher is configured, to the event stream.
type Recorder struct {
	sink      Sink
	publisher EventPublisher
	now       func() time.Time

	wg sync.WaitGroup
}

// NewRecorder creates a Recorder. publisher may be nil when event fan-out is
// not configured.
func NewRecorder(sink Sink, publisher EventPublisher) *Recorder {
	return &Recorder{
		sink:      sink,
		publisher: publisher,
		now:       time.Now,
	}
}

// Record appends one audit entry. monthYear may be empty for actions that are
// not month-scoped. The call returns immediately; failures are logged only.
func (r *Recorder) Record(username string, action domain.AuditAction, transactionIDs, monthYear string) {
	entry := domain.AuditEntry{
		ID:             uuid.New(),
		Username:       username,
		Action:         action,
		TransactionIDs: transactionIDs,
		Timestamp:      r.now().UTC(),
	}
	if monthYear != "" {
		entry.MonthYear = &monthYear
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := r.sink.InsertAuditEntry(ctx, &entry); err != nil {
			log.Printf("level=error component=audit msg=\"audit write failed\" action=%s username=%s err=%v", action, username, err)
		}
		if r.publisher != nil {
			if err := r.publisher.PublishAuditEvent(ctx, entry); err != nil {
				log.Printf("level=warn component=audit msg=\"audit event publish failed\" action=%s username=%s err=%v", action, username, err)
			}
		}
	}()
}

// Wait blocks until all in-flight audit writes have finished. Used by tests
// and by graceful shutdown so pending entries are not dropped.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
