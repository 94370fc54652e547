package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/driveguard/driveguard-api/internal/models"
)

// SnapshotStore abstracts snapshot persistence for environments without a
// database. Implementations must be safe for concurrent use.
type SnapshotStore interface {
	Load() ([]models.Snapshot, error)
	Save(snapshots []models.Snapshot) error
}

// FileSnapshotStore keeps snapshots in a single JSON file on disk. It backs
// local development and demo deployments where Postgres is not available.
type FileSnapshotStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSnapshotStore creates a file-backed store rooted at path. The parent
// directory is created when missing.
func NewFileSnapshotStore(path string) (*FileSnapshotStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot store directory: %w", err)
	}
	return &FileSnapshotStore{path: path}, nil
}

// Load reads all persisted snapshots. A missing file yields an empty slice.
func (s *FileSnapshotStore) Load() ([]models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Snapshot{}, nil
		}
		return nil, fmt.Errorf("read snapshot store: %w", err)
	}
	if len(raw) == 0 {
		return []models.Snapshot{}, nil
	}

	var snapshots []models.Snapshot
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, fmt.Errorf("decode snapshot store: %w", err)
	}
	if snapshots == nil {
		snapshots = []models.Snapshot{}
	}
	return snapshots, nil
}

// Save replaces the stored snapshot set atomically via a temp-file rename.
func (s *FileSnapshotStore) Save(snapshots []models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshots == nil {
		snapshots = []models.Snapshot{}
	}
	payload, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write snapshot store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot store: %w", err)
	}
	return nil
}
