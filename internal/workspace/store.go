// internal/workspace/store.go
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Reporter receives inline, human-readable problem messages for display.
// The store never aborts on I/O trouble; it degrades and reports.
type Reporter interface {
	Report(message string)
}

// Store provides file operations scoped to a single workspace directory.
// Every read, write and delete passes the same containment check before
// any I/O happens.
type Store struct {
	root     string
	reporter Reporter
}

// Open creates the workspace directory if needed and returns a Store for it.
func Open(root string, reporter Reporter) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	return &Store{root: root, reporter: reporter}, nil
}

// Root returns the workspace directory path.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) report(msg string) {
	if s.reporter != nil {
		s.reporter.Report(msg)
	}
}

// Allowed reports whether a filename passes the containment rule: not
// empty, no parent-directory segment, no leading path-root marker.
func (s *Store) Allowed(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, "\\") {
		return false
	}
	if filepath.IsAbs(name) {
		return false
	}
	return true
}

// List returns the names of all workspace files, sorted lexicographically.
// Names are slash-separated paths relative to the workspace root. Internal
// bookkeeping directories (anything starting with a dot, such as .git) are
// skipped. On error the list degrades to empty and the error is reported.
func (s *Store) List() []string {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		s.report("Error listing workspace files: " + err.Error())
		return nil
	}
	sort.Strings(names)
	return names
}

// Read returns the content of a workspace file. The second return is false
// when the name fails containment or the file does not exist; other read
// errors are reported and also degrade to not-found.
func (s *Store) Read(name string) (string, bool) {
	if !s.Allowed(name) {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		if !os.IsNotExist(err) {
			s.report("Error reading file '" + name + "': " + err.Error())
		}
		return "", false
	}
	return string(data), true
}

// Write stores content under the given name, creating parent directories
// as needed. Existing content is overwritten unconditionally.
func (s *Store) Write(name, content string) bool {
	if !s.Allowed(name) {
		return false
	}
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		s.report("Error saving file '" + name + "': " + err.Error())
		return false
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		s.report("Error saving file '" + name + "': " + err.Error())
		return false
	}
	return true
}

// Delete removes a workspace file. A missing file is a warning, not an
// error; callers that track a selected file must clear that selection
// themselves when it names the deleted file.
func (s *Store) Delete(name string) bool {
	if !s.Allowed(name) {
		return false
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			s.report("File '" + name + "' not found for deletion.")
		} else {
			s.report("Error deleting file '" + name + "': " + err.Error())
		}
		return false
	}
	return true
}
