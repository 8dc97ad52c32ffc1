package localstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/errcodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	displayKeyPrefix  = "display:"
	activeDisplayKey  = "activeDisplayId"
	displayFilePrefix = "display_"
	recordFileExt     = ".json"
)

// Store is the per-device key-value store. One JSON file per display record
// under the data directory, plus a marker file holding the last-launched
// event id. It is the only store free-tier accounts ever touch and the
// cache/backup layer for premium accounts.
type Store struct {
	dir string
	mu  sync.RWMutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %w", err)
	}

	return &Store{dir: dir}, nil
}

func (s *Store) recordPath(id value.EventID) string {
	return filepath.Join(s.dir, displayFilePrefix+id.String()+recordFileExt)
}

// Save persists a record under display:<eventId>. A failed write is fatal to
// this operation only; the caller decides what to do about it.
func (s *Store) Save(id value.EventID, record entity.DisplayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(record)
	if err != nil {
		return domain.WrapError(err, errcodes.LocalStoreCorrupted, "failed to encode record")
	}

	if err := os.WriteFile(s.recordPath(id), b, 0o644); err != nil {
		return domain.WrapError(err, errcodes.LocalStoreCorrupted, "failed to write record")
	}

	return nil
}

// Load returns the record for an event id, or nil when nothing is stored.
func (s *Store) Load(id value.EventID) (*entity.DisplayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(s.recordPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapError(err, errcodes.LocalStoreCorrupted, "failed to read record")
	}

	var record entity.DisplayRecord
	if err := json.Unmarshal(b, &record); err != nil {
		return nil, domain.WrapError(err, errcodes.LocalStoreCorrupted, "failed to decode record")
	}

	return &record, nil
}

// Delete removes the record. Deleting an absent record is a no-op.
func (s *Store) Delete(id value.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.recordPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.WrapError(err, errcodes.LocalStoreCorrupted, "failed to delete record")
	}

	return nil
}

// List returns every stored record, unreadable files skipped.
func (s *Store) List() ([]entity.DisplayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.LocalStoreCorrupted, "failed to read store directory")
	}

	records := make([]entity.DisplayRecord, 0, len(entries))

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, displayFilePrefix) || !strings.HasSuffix(name, recordFileExt) {
			continue
		}

		b, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}

		var record entity.DisplayRecord
		if err := json.Unmarshal(b, &record); err != nil {
			continue
		}

		records = append(records, record)
	}

	return records, nil
}

// SetActiveDisplay remembers the last-launched event id so same-device
// broadcasts know which display to target.
func (s *Store) SetActiveDisplay(id value.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, activeDisplayKey)
	if err := os.WriteFile(path, []byte(id.String()), 0o644); err != nil {
		return domain.WrapError(err, errcodes.LocalStoreCorrupted, "failed to write active display id")
	}

	return nil
}

// ActiveDisplay returns the last-launched event id, or "" when none was set.
func (s *Store) ActiveDisplay() (value.EventID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(filepath.Join(s.dir, activeDisplayKey))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", domain.WrapError(err, errcodes.LocalStoreCorrupted, "failed to read active display id")
	}

	return value.EventID(strings.TrimSpace(string(b))), nil
}

// Key returns the logical store key for an event id, matching the layout
// documented for the device store.
func Key(id value.EventID) string {
	return displayKeyPrefix + id.String()
}
