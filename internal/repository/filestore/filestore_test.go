package filestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

func TestNotificationStore_MissingAndEmptyFile(t *testing.T) {
	dir := t.TempDir()

	records, err := NewNotificationStore(filepath.Join(dir, "missing.json")).Load()
	require.NoError(t, err)
	assert.Nil(t, records)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	records, err = NewNotificationStore(empty).Load()
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestNotificationStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "inbox.json")
	store := NewNotificationStore(path)
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	in := []models.NotificationRecord{
		{Envelope: models.Envelope{ID: "2", Type: models.EventOrderCreated, Timestamp: ts, User: &models.Actor{ID: 5, Name: "Kai", Role: models.RoleManager}}},
		{Envelope: models.Envelope{ID: "1", Type: models.EventMealServed, Timestamp: ts, Data: []byte(`{"portions":2}`)}, Read: true},
	}
	require.NoError(t, store.Save(in))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")

	out, err := store.Load()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "2", out[0].ID)
	assert.Equal(t, "Kai", out[0].User.Name)
	assert.True(t, out[1].Read)
	assert.JSONEq(t, `{"portions":2}`, string(out[1].Data))
	assert.True(t, out[0].Timestamp.Equal(ts))

	require.NoError(t, store.Save(nil))
	out, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNotificationStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0o644))

	_, err := NewNotificationStore(path).Load()
	assert.Error(t, err)
}
