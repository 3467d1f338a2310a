package inbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/repository/filestore"
)

type memoryStore struct {
	records []models.NotificationRecord
	loadErr error
	saveErr error
	saves   int
}

func (m *memoryStore) Load() ([]models.NotificationRecord, error) {
	return m.records, m.loadErr
}

func (m *memoryStore) Save(records []models.NotificationRecord) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = records
	return nil
}

func env(id, eventType string) models.Envelope {
	return models.Envelope{ID: id, Type: eventType}
}

func ids(records []models.NotificationRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestInbox_InsertNewestFirstAndDedup(t *testing.T) {
	store := &memoryStore{}
	in := New(store, nil, nil)

	assert.True(t, in.Insert(env("a", models.EventMealServed)))
	assert.True(t, in.Insert(env("b", models.EventOrderCreated)))
	assert.False(t, in.Insert(env("a", models.EventMealServed)), "duplicate id is ignored")
	assert.False(t, in.Insert(env("", models.EventMealServed)), "envelopes without id are ignored")

	list := in.List(models.NotificationFilter{})
	assert.Equal(t, []string{"b", "a"}, ids(list))
	assert.Equal(t, 2, in.UnreadCount())
	assert.Equal(t, 2, store.saves, "every accepted insert is persisted")
	assert.Len(t, store.records, 2)
}

func TestInbox_MarkRead(t *testing.T) {
	store := &memoryStore{}
	in := New(store, nil, nil)
	in.Insert(env("a", models.EventMealServed))
	in.Insert(env("b", models.EventMealServed))

	require.NoError(t, in.MarkRead("a"))
	assert.Equal(t, 1, in.UnreadCount())
	assert.True(t, store.records[1].Read)

	saves := store.saves
	require.NoError(t, in.MarkRead("a"))
	assert.Equal(t, saves, store.saves, "marking a read record is a no-op")

	assert.ErrorIs(t, in.MarkRead("zzz"), ErrNotFound)
}

func TestInbox_MarkAllRead(t *testing.T) {
	in := New(&memoryStore{}, nil, nil)
	in.Insert(env("a", models.EventMealServed))
	in.Insert(env("b", models.EventMealServed))
	require.NoError(t, in.MarkRead("b"))

	assert.Equal(t, 1, in.MarkAllRead())
	assert.Equal(t, 0, in.UnreadCount())
	assert.Equal(t, 0, in.MarkAllRead())
}

func TestInbox_DeleteKeepsTombstone(t *testing.T) {
	store := &memoryStore{}
	in := New(store, nil, nil)
	in.Insert(env("a", models.EventMealServed))
	in.Insert(env("b", models.EventMealServed))

	require.NoError(t, in.Delete("a"))
	assert.Equal(t, []string{"b"}, ids(in.List(models.NotificationFilter{})))
	assert.Equal(t, []string{"b"}, ids(store.records))

	assert.False(t, in.Insert(env("a", models.EventMealServed)), "a replayed envelope does not come back")
	assert.ErrorIs(t, in.Delete("a"), ErrNotFound)
}

func TestInbox_ListFilters(t *testing.T) {
	in := New(nil, nil, nil)
	in.Insert(env("1", models.EventMealServed))
	in.Insert(env("2", models.EventInventoryLowStock))
	in.Insert(env("3", models.EventInventoryUpdated))
	require.NoError(t, in.MarkRead("3"))

	read := true
	unread := false

	assert.Equal(t, []string{"3"}, ids(in.List(models.NotificationFilter{Read: &read})))
	assert.Equal(t, []string{"2", "1"}, ids(in.List(models.NotificationFilter{Read: &unread})))
	assert.Equal(t, []string{"3", "2"}, ids(in.List(models.NotificationFilter{Type: "inventory"})))
	assert.Equal(t, []string{"2"}, ids(in.List(models.NotificationFilter{Type: "inventory", Read: &unread})))
	assert.Empty(t, in.List(models.NotificationFilter{Type: "order"}))
}

func TestInbox_SaveFailureKeepsMemoryState(t *testing.T) {
	store := &memoryStore{saveErr: errors.New("disk full")}
	in := New(store, nil, nil)

	assert.True(t, in.Insert(env("a", models.EventMealServed)))
	assert.Len(t, in.List(models.NotificationFilter{}), 1)
}

func TestInbox_LoadFailureStartsEmpty(t *testing.T) {
	in := New(&memoryStore{loadErr: errors.New("corrupt")}, nil, nil)
	assert.Empty(t, in.List(models.NotificationFilter{}))
	assert.True(t, in.Insert(env("a", models.EventMealServed)))
}

func TestInbox_PersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.json")

	first := New(filestore.NewNotificationStore(path), nil, nil)
	first.Insert(env("a", models.EventMealServed))
	first.Insert(env("b", models.EventOrderCreated))
	require.NoError(t, first.MarkRead("a"))

	second := New(filestore.NewNotificationStore(path), nil, nil)
	list := second.List(models.NotificationFilter{})
	require.Len(t, list, 2)
	assert.Equal(t, []string{"b", "a"}, ids(list))
	assert.False(t, list[0].Read)
	assert.True(t, list[1].Read)
	assert.False(t, second.Insert(env("a", models.EventMealServed)), "dedup survives a restart")
}

func TestInbox_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	in := New(filestore.NewNotificationStore(path), nil, nil)
	assert.Empty(t, in.List(models.NotificationFilter{}))
}
