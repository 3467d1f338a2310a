package inbox

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/metrics"
)

// ErrNotFound indicates no record with the given id.
var ErrNotFound = errors.New("notification not found")

// Store is the persistence port for the inbox.
type Store interface {
	Load() ([]models.NotificationRecord, error)
	Save(records []models.NotificationRecord) error
}

// Inbox is a deduplicated, newest-first list of notifications for one viewer.
// Every mutation is written through to the store.
type Inbox struct {
	mu      sync.Mutex
	records []models.NotificationRecord
	ids     map[string]struct{}

	store   Store
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New loads the inbox from store. Unreadable storage starts an empty inbox.
func New(store Store, logger *zap.Logger, m *metrics.Metrics) *Inbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	in := &Inbox{
		ids:     make(map[string]struct{}),
		store:   store,
		metrics: m,
		logger:  logger,
	}

	if store == nil {
		return in
	}
	records, err := store.Load()
	if err != nil {
		logger.Error("inbox storage unreadable, starting empty", zap.Error(err))
		return in
	}
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		if _, dup := in.ids[rec.ID]; dup {
			continue
		}
		in.ids[rec.ID] = struct{}{}
		in.records = append(in.records, rec)
	}
	logger.Info("inbox loaded", zap.Int("records", len(in.records)))
	return in
}

// Insert stores env as an unread record at the head. A known id is dropped.
func (in *Inbox) Insert(env models.Envelope) bool {
	if env.ID == "" {
		in.logger.Debug("ignoring envelope without id", zap.String("type", env.Type))
		return false
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if _, dup := in.ids[env.ID]; dup {
		in.metrics.InboxInsert(true)
		return false
	}
	in.ids[env.ID] = struct{}{}
	in.records = append([]models.NotificationRecord{{Envelope: env}}, in.records...)
	in.metrics.InboxInsert(false)
	in.persistLocked()
	return true
}

// Deliver adapts Insert to the router's sink signature.
func (in *Inbox) Deliver(env models.Envelope) {
	in.Insert(env)
}

// MarkRead flags a single record as read.
func (in *Inbox) MarkRead(id string) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i := range in.records {
		if in.records[i].ID == id {
			if !in.records[i].Read {
				in.records[i].Read = true
				in.persistLocked()
			}
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

// MarkAllRead flags every record as read and returns how many changed.
func (in *Inbox) MarkAllRead() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	changed := 0
	for i := range in.records {
		if !in.records[i].Read {
			in.records[i].Read = true
			changed++
		}
	}
	if changed > 0 {
		in.persistLocked()
	}
	return changed
}

// Delete removes a record. The id stays known, so a replay of the same
// envelope does not bring it back.
func (in *Inbox) Delete(id string) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i := range in.records {
		if in.records[i].ID == id {
			in.records = append(in.records[:i], in.records[i+1:]...)
			in.persistLocked()
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

// List returns matching records newest-first by insertion.
func (in *Inbox) List(filter models.NotificationFilter) []models.NotificationRecord {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]models.NotificationRecord, 0, len(in.records))
	for _, rec := range in.records {
		if filter.Read != nil && rec.Read != *filter.Read {
			continue
		}
		if filter.Type != "" && !strings.Contains(rec.Type, filter.Type) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// UnreadCount returns the number of unread records.
func (in *Inbox) UnreadCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	n := 0
	for _, rec := range in.records {
		if !rec.Read {
			n++
		}
	}
	return n
}

func (in *Inbox) persistLocked() {
	if in.store == nil {
		return
	}
	snapshot := make([]models.NotificationRecord, len(in.records))
	copy(snapshot, in.records)
	if err := in.store.Save(snapshot); err != nil {
		in.logger.Error("failed to persist inbox", zap.Error(err))
	}
}
