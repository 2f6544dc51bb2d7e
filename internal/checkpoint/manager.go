// internal/checkpoint/manager.go
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"webweave/internal/workspace"
)

// Manager snapshots and restores the workspace through its Store, so the
// containment rule applies to everything a restore writes back.
type Manager struct {
	storage *Storage
	store   *workspace.Store
}

// NewManager creates a Manager using the given storage and workspace.
func NewManager(storage *Storage, store *workspace.Store) *Manager {
	return &Manager{storage: storage, store: store}
}

// Create captures every current workspace file into a new checkpoint.
func (m *Manager) Create(label string) (*Result, error) {
	names := m.store.List()
	files := make([]FileSnapshot, 0, len(names))
	for _, name := range names {
		content, ok := m.store.Read(name)
		if !ok {
			continue
		}
		files = append(files, FileSnapshot{Path: name, Hash: hashContent(content), Content: content})
	}

	cp := &Checkpoint{ID: uuid.New().String(), Label: label}
	return m.storage.Save(cp, files)
}

// Restore rewrites the workspace to match a checkpoint: snapshot files
// are written back and files that did not exist at snapshot time are
// removed. Per-file failures are warnings; the restore continues.
func (m *Manager) Restore(id string) (*Result, error) {
	files, err := m.storage.Load(id)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	result := &Result{Checkpoint: &Checkpoint{ID: id, FileCount: len(files)}}

	inSnapshot := make(map[string]bool, len(files))
	for _, file := range files {
		inSnapshot[file.Path] = true
		if !m.store.Write(file.Path, file.Content) {
			result.Warnings = append(result.Warnings, "Failed to restore "+file.Path)
			continue
		}
		result.FilesProcessed++
	}

	for _, name := range m.store.List() {
		if !inSnapshot[name] {
			if !m.store.Delete(name) {
				result.Warnings = append(result.Warnings, "Failed to remove "+name)
			}
		}
	}

	return result, nil
}

// List returns all checkpoints, newest first.
func (m *Manager) List() ([]*Checkpoint, error) {
	return m.storage.List()
}

// Delete removes a checkpoint.
func (m *Manager) Delete(id string) error {
	return m.storage.Delete(id)
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
