// internal/checkpoint/manager_test.go
package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"webweave/internal/workspace"
)

func newTestManager(t *testing.T) (*Manager, *workspace.Store, string) {
	t.Helper()
	baseDir := filepath.Join(t.TempDir(), "checkpoints")
	store, err := workspace.Open(filepath.Join(t.TempDir(), "workspace"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return NewManager(NewStorage(baseDir), store), store, baseDir
}

func TestManager_CreateAndList(t *testing.T) {
	manager, store, _ := newTestManager(t)

	store.Write("index.html", "<html/>")
	store.Write("style.css", "body{}")

	result, err := manager.Create("initial")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if result.FilesProcessed != 2 {
		t.Errorf("expected 2 files processed, got %d", result.FilesProcessed)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	checkpoints, err := manager.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(checkpoints) != 1 || checkpoints[0].Label != "initial" {
		t.Errorf("unexpected listing: %+v", checkpoints)
	}
	if checkpoints[0].FileCount != 2 {
		t.Errorf("expected file count 2, got %d", checkpoints[0].FileCount)
	}
}

func TestManager_RestoreRoundTrip(t *testing.T) {
	manager, store, _ := newTestManager(t)

	store.Write("index.html", "original")
	store.Write("keep.css", "a{}")

	result, err := manager.Create("before changes")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	id := result.Checkpoint.ID

	// Mutate the workspace: edit one file, add another, delete a third.
	store.Write("index.html", "changed")
	store.Write("new.js", "console.log(1)")
	store.Delete("keep.css")

	restore, err := manager.Restore(id)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(restore.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", restore.Warnings)
	}

	if got, _ := store.Read("index.html"); got != "original" {
		t.Errorf("index.html not restored: %q", got)
	}
	if got, _ := store.Read("keep.css"); got != "a{}" {
		t.Errorf("keep.css not restored: %q", got)
	}
	if _, ok := store.Read("new.js"); ok {
		t.Error("file created after the snapshot should be removed on restore")
	}
}

func TestStorage_ContentPoolDeduplicates(t *testing.T) {
	manager, store, baseDir := newTestManager(t)

	// Two files with identical content share one pool entry.
	store.Write("a.html", "same content")
	store.Write("b.html", "same content")

	if _, err := manager.Create("dedup"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(baseDir, "content_pool"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 pool entry, got %d", len(entries))
	}
}

func TestStorage_LoadDecompresses(t *testing.T) {
	manager, store, baseDir := newTestManager(t)

	store.Write("page.html", "<p>compressed away</p>")
	result, err := manager.Create("x")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	files, err := NewStorage(baseDir).Load(result.Checkpoint.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(files) != 1 || files[0].Content != "<p>compressed away</p>" {
		t.Errorf("unexpected snapshot contents: %+v", files)
	}
}

func TestManager_Delete(t *testing.T) {
	manager, store, _ := newTestManager(t)

	store.Write("a.html", "x")
	result, err := manager.Create("doomed")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := manager.Delete(result.Checkpoint.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	checkpoints, err := manager.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(checkpoints) != 0 {
		t.Errorf("checkpoint should be gone, got %+v", checkpoints)
	}
}

func TestStorage_RejectsMalformedID(t *testing.T) {
	base := t.TempDir()
	storage := NewStorage(filepath.Join(base, "checkpoints"))

	// A sibling of the checkpoint dir that a traversal id would reach.
	victim := filepath.Join(base, "victim")
	if err := os.MkdirAll(victim, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(victim, "keep.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	for _, id := range []string{"../victim", "..", "", "not-a-uuid", "a/b"} {
		if err := storage.Delete(id); err == nil {
			t.Errorf("Delete(%q) should be rejected", id)
		}
		if _, err := storage.Load(id); err == nil {
			t.Errorf("Load(%q) should be rejected", id)
		}
	}

	if _, err := os.Stat(filepath.Join(victim, "keep.txt")); err != nil {
		t.Errorf("file outside the checkpoint dir was touched: %v", err)
	}
}

func TestStorage_ListEmpty(t *testing.T) {
	storage := NewStorage(filepath.Join(t.TempDir(), "nope"))
	checkpoints, err := storage.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(checkpoints) != 0 {
		t.Errorf("expected no checkpoints, got %+v", checkpoints)
	}
}
