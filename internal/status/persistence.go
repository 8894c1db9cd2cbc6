package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// snapshotFileName is the name of the snapshot file inside the base
// directory.
const snapshotFileName = "status.json"

// FilePersistence saves and loads status-store snapshots as JSON on the
// local filesystem. Records are advisory, so losing a snapshot is harmless:
// LoadSnapshot treats a missing file as an empty store.
type FilePersistence struct {
	basePath string
}

// NewFilePersistence creates a FilePersistence rooted at basePath.
func NewFilePersistence(basePath string) *FilePersistence {
	return &FilePersistence{basePath: basePath}
}

// SaveSnapshot writes the records to disk, replacing any previous snapshot.
// The write goes through a temp file and rename so a crash mid-write cannot
// leave a truncated snapshot behind.
func (f *FilePersistence) SaveSnapshot(records map[string]Record) error {
	if err := os.MkdirAll(f.basePath, 0750); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status snapshot: %w", err)
	}

	tmp := filepath.Join(f.basePath, snapshotFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write status snapshot: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(f.basePath, snapshotFileName)); err != nil {
		return fmt.Errorf("failed to replace status snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the saved records. A missing snapshot file returns an
// empty map, not an error.
func (f *FilePersistence) LoadSnapshot() (map[string]Record, error) {
	data, err := os.ReadFile(filepath.Join(f.basePath, snapshotFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("failed to read status snapshot: %w", err)
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse status snapshot: %w", err)
	}
	if records == nil {
		records = map[string]Record{}
	}
	return records, nil
}
