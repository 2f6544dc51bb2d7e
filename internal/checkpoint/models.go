// internal/checkpoint/models.go
package checkpoint

import "time"

// Checkpoint is the metadata for one workspace snapshot.
type Checkpoint struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
	FileCount int       `json:"file_count"`
}

// FileSnapshot is one file captured in a snapshot. Hash is the sha256 of
// the content and doubles as its content-pool address.
type FileSnapshot struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	Content string `json:"-"`
}

// Result reports the outcome of saving or restoring a snapshot. Warnings
// are per-file and non-fatal.
type Result struct {
	Checkpoint     *Checkpoint `json:"checkpoint"`
	FilesProcessed int         `json:"files_processed"`
	Warnings       []string    `json:"warnings,omitempty"`
}
