// internal/checkpoint/storage.go
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Storage persists snapshots under a base directory: one metadata.json
// and manifest.json per checkpoint, with file contents deduplicated in a
// zstd-compressed content pool addressed by hash.
type Storage struct {
	baseDir string
	mu      sync.RWMutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewStorage creates a snapshot storage rooted at baseDir.
func NewStorage(baseDir string) *Storage {
	encoder, _ := zstd.NewWriter(nil)
	decoder, _ := zstd.NewReader(nil)
	return &Storage{baseDir: baseDir, encoder: encoder, decoder: decoder}
}

func (s *Storage) checkpointDir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// validateID gates ids arriving over the bindings/RPC surface: only a
// well-formed uuid may be joined into a filesystem path.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid checkpoint id %q", id)
	}
	return nil
}

func (s *Storage) poolDir() string {
	return filepath.Join(s.baseDir, "content_pool")
}

// Save writes a checkpoint's metadata, manifest and file contents.
func (s *Storage) Save(cp *Checkpoint, files []FileSnapshot) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now()
	}
	cp.FileCount = len(files)

	dir := s.checkpointDir(cp.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	if err := os.MkdirAll(s.poolDir(), 0755); err != nil {
		return nil, fmt.Errorf("create content pool: %w", err)
	}

	metadata, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), metadata, 0644); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	result := &Result{Checkpoint: cp}
	manifest := make(map[string]string, len(files))
	for _, file := range files {
		manifest[file.Path] = file.Hash
		if err := s.saveContent(file); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Failed to save %s: %v", file.Path, err))
			continue
		}
		result.FilesProcessed++
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), manifestJSON, 0644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return result, nil
}

// saveContent stores one file in the pool unless its hash is already there.
func (s *Storage) saveContent(file FileSnapshot) error {
	path := filepath.Join(s.poolDir(), file.Hash+".zst")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	compressed := s.encoder.EncodeAll([]byte(file.Content), nil)
	return os.WriteFile(path, compressed, 0644)
}

// Load returns the file snapshots of a checkpoint, contents decompressed.
func (s *Storage) Load(id string) ([]FileSnapshot, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	manifestJSON, err := os.ReadFile(filepath.Join(s.checkpointDir(id), "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest map[string]string
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	files := make([]FileSnapshot, 0, len(manifest))
	for path, hash := range manifest {
		compressed, err := os.ReadFile(filepath.Join(s.poolDir(), hash+".zst"))
		if err != nil {
			return nil, fmt.Errorf("read content %s: %w", hash, err)
		}
		content, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", hash, err)
		}
		files = append(files, FileSnapshot{Path: path, Hash: hash, Content: string(content)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// List returns all checkpoint metadata, newest first.
func (s *Storage) List() ([]*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var checkpoints []*Checkpoint
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "content_pool" {
			continue
		}
		metadata, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var cp Checkpoint
		if err := json.Unmarshal(metadata, &cp); err != nil {
			continue
		}
		checkpoints = append(checkpoints, &cp)
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Timestamp.After(checkpoints[j].Timestamp)
	})
	return checkpoints, nil
}

// Delete removes a checkpoint's metadata and manifest. Pool contents are
// left in place; they may be shared with other checkpoints.
func (s *Storage) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return os.RemoveAll(s.checkpointDir(id))
}
