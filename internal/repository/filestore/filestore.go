package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

// NotificationStore persists an inbox as a JSON array in a single file.
type NotificationStore struct {
	path string
}

// NewNotificationStore returns a store backed by path.
func NewNotificationStore(path string) *NotificationStore {
	return &NotificationStore{path: path}
}

// Load reads the records. A missing or empty file yields no records and no error.
func (s *NotificationStore) Load() ([]models.NotificationRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read inbox %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []models.NotificationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode inbox %s: %w", s.path, err)
	}
	return records, nil
}

// Save replaces the file atomically via a temp file and rename.
func (s *NotificationStore) Save(records []models.NotificationRecord) error {
	if records == nil {
		records = []models.NotificationRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode inbox: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}

	temp := s.path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return fmt.Errorf("write inbox: %w", err)
	}
	if err := os.Rename(temp, s.path); err != nil {
		return fmt.Errorf("replace inbox: %w", err)
	}
	return nil
}
