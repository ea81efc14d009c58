package notifier

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"go.uber.org/zap"
)

const (
	auditKeyPrefix      = "notify_"
	auditSegmentMaxMsgs = 1000
	auditMaxSegments    = 100
	auditDirPermissions = 0o755
)

// AuditEntry is one delivery attempt, success or failure.
type AuditEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Channel        string    `json:"channel"`
	Success        bool      `json:"success"`
	Kind           string    `json:"kind"`
	MessageExcerpt string    `json:"message_excerpt"`
	Error          string    `json:"error,omitempty"`
}

// AuditLog is the durable append-only record of delivery attempts.
type AuditLog struct {
	mu      sync.RWMutex
	wal     *gowal.Wal
	entries []AuditEntry
	log     *zap.Logger
}

// NewAuditLog opens the audit log in dir, replaying existing entries.
func NewAuditLog(dir string, logger *zap.Logger) (*AuditLog, error) {
	if err := os.MkdirAll(dir, auditDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure audit directory %s", dir)
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "log_",
		SegmentThreshold: auditSegmentMaxMsgs,
		MaxSegments:      auditMaxSegments,
		IsInSyncDiskMode: false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open notification audit WAL")
	}

	a := &AuditLog{wal: wal, log: logger}

	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, auditKeyPrefix) {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal(msg.Value, &entry); err != nil {
			logger.Error("failed to unmarshal audit entry",
				zap.Error(err), zap.String("key", msg.Key))
			continue
		}
		a.entries = append(a.entries, entry)
	}

	return a, nil
}

// Append records one delivery attempt.
func (a *AuditLog) Append(entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to marshal audit entry")
	}

	nextIndex := a.wal.CurrentIndex() + 1
	if err := a.wal.Write(nextIndex, auditKeyPrefix+entry.ID, payload); err != nil {
		return errors.Wrap(err, "failed to append audit entry")
	}

	a.entries = append(a.entries, entry)
	return nil
}

// Entries returns all attempts in append order.
func (a *AuditLog) Entries() []AuditEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// ExportJSON renders the audit log as a JSON array.
func (a *AuditLog) ExportJSON() ([]byte, error) {
	entries := a.Entries()
	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode audit log")
	}
	return payload, nil
}

// Close releases the underlying WAL.
func (a *AuditLog) Close() error {
	return a.wal.Close()
}
