// Package history keeps the append-only record of simulated purchases.
// Records are persisted to a write-ahead log so restarts replay the full
// sequence; summary statistics are always recomputed from the records.
package history

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcabot/internal/domain"
	"github.com/vadiminshakov/gowal"
	"go.uber.org/zap"
)

const (
	purchaseKeyPrefix   = "purchase_"
	walSegmentThreshold = 1000
	walMaxSegments      = 100
	walDirPermissions   = 0o755
)

// PurchaseHistory is the durable, append-only purchase log.
// Record and reads are safe for a single writer with concurrent readers.
type PurchaseHistory struct {
	mu      sync.RWMutex
	wal     *gowal.Wal
	records []domain.PurchaseRecord
	log     *zap.Logger
}

// New opens the purchase history in dir, replaying any existing records.
func New(dir string, logger *zap.Logger) (*PurchaseHistory, error) {
	if err := os.MkdirAll(dir, walDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure history directory %s", dir)
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "log_",
		SegmentThreshold: walSegmentThreshold,
		MaxSegments:      walMaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open purchase history WAL")
	}

	h := &PurchaseHistory{wal: wal, log: logger}

	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, purchaseKeyPrefix) {
			continue
		}
		var rec domain.PurchaseRecord
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			logger.Error("failed to unmarshal purchase record",
				zap.Error(err), zap.String("key", msg.Key))
			continue
		}
		h.records = append(h.records, rec)
	}

	return h, nil
}

// Record appends a purchase. The record is written to the WAL before it
// becomes visible to readers, so a crash never leaves the in-memory view
// ahead of disk.
func (h *PurchaseHistory) Record(rec domain.PurchaseRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal purchase record")
	}

	nextIndex := h.wal.CurrentIndex() + 1
	if err := h.wal.Write(nextIndex, purchaseKeyPrefix+rec.ID, payload); err != nil {
		return errors.Wrap(err, "failed to append purchase record")
	}

	h.records = append(h.records, rec)
	return nil
}

// All returns the records in insertion (chronological) order.
func (h *PurchaseHistory) All() []domain.PurchaseRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.PurchaseRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Summary recomputes the derived statistics from the full sequence.
func (h *PurchaseHistory) Summary() domain.HistorySummary {
	return domain.SummarizePurchases(h.All())
}

// ExportJSON renders the history as a JSON array, the interchange format
// consumed by external tooling.
func (h *PurchaseHistory) ExportJSON() ([]byte, error) {
	records := h.All()
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode purchase history")
	}
	return payload, nil
}

// Close releases the underlying WAL.
func (h *PurchaseHistory) Close() error {
	return h.wal.Close()
}
