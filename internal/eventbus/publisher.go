// Package eventbus fans out committed audit entries to external
// subscribers over NATS, independent of (and slower than) the hot
// request path. A failed publish never blocks or fails a request --
// it's logged and counted, since the audit store is always the
// durable source of truth.
package eventbus

import (
	"encoding/json"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
	"github.com/j-raghavan/chronoguard-lite/internal/domain"
	"github.com/j-raghavan/chronoguard-lite/internal/logger"
)

// SubjectPrefix is the NATS subject prefix audit entries publish
// under; the decision name is appended, e.g.
// "chronoguard.audit.ALLOW".
const SubjectPrefix = "chronoguard.audit."

// Publisher wraps a NATS connection for best-effort audit-entry
// fan-out.
type Publisher struct {
	conn *nats.Conn

	published int64
	failed    int64
}

// NewPublisher connects to a NATS server at url.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, apperrors.Unavailable("failed to connect to NATS: " + err.Error())
	}
	return &Publisher{conn: conn}, nil
}

// PublishAuditEntry serializes entry as JSON and publishes it on
// SubjectPrefix+decision. A failed publish is logged and counted and
// not returned, since a dropped publish never compromises the ledger,
// which is the durable source of truth; a JSON marshal failure is
// counted and returned as IntegrityFailure.
func (p *Publisher) PublishAuditEntry(entry domain.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		atomic.AddInt64(&p.failed, 1)
		return apperrors.IntegrityFailure("failed to marshal audit entry for publish", err.Error())
	}
	subject := SubjectPrefix + entry.Decision.String()
	if err := p.conn.Publish(subject, data); err != nil {
		atomic.AddInt64(&p.failed, 1)
		logger.EventBus().Warn().Err(err).Msg("failed to publish audit entry")
		return nil
	}
	atomic.AddInt64(&p.published, 1)
	return nil
}

// PublishedCount returns the number of entries successfully published.
func (p *Publisher) PublishedCount() int64 { return atomic.LoadInt64(&p.published) }

// FailedCount returns the number of publish attempts that failed.
func (p *Publisher) FailedCount() int64 { return atomic.LoadInt64(&p.failed) }

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
