package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestNewRunIDSortsChronologically(t *testing.T) {
	a := NewRunID(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	b := NewRunID(time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC))
	if !strings.HasPrefix(a, "20260102T030405Z-") {
		t.Errorf("unexpected run id %q", a)
	}
	if len(a) != len("20260102T030405Z-")+8 {
		t.Errorf("unexpected run id length %q", a)
	}
	if a >= b {
		t.Errorf("expected %q < %q", a, b)
	}
}

func TestFSStoreBackUpAndRestore(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root, "")
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	target := filepath.Join(root, "pkg", "__init__.py")
	writeFile(t, target, "__version__ = \"1.0\"\n")

	entry, err := store.BackUp("run-1", target)
	if err != nil {
		t.Fatalf("BackUp failed: %v", err)
	}
	if entry.Path != "pkg/__init__.py" {
		t.Errorf("Path = %q, want pkg/__init__.py", entry.Path)
	}
	if entry.Size != int64(len("__version__ = \"1.0\"\n")) {
		t.Errorf("Size = %d", entry.Size)
	}
	if _, err := os.Stat(store.objectPath(entry.Hash)); err != nil {
		t.Errorf("object file not created: %v", err)
	}

	writeFile(t, target, "changed\n")

	restored, err := store.Restore("run-1", false)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(restored) != 1 {
		t.Fatalf("restored %d entries, want 1", len(restored))
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "__version__ = \"1.0\"\n" {
		t.Errorf("restored content = %q", data)
	}
}

func TestFSStoreFirstBackupWins(t *testing.T) {
	root := t.TempDir()
	store, _ := NewFSStore(root, "")
	target := filepath.Join(root, "CITATION.cff")

	writeFile(t, target, "original\n")
	first, err := store.BackUp("run-1", target)
	if err != nil {
		t.Fatalf("BackUp failed: %v", err)
	}

	writeFile(t, target, "intermediate\n")
	second, err := store.BackUp("run-1", target)
	if err != nil {
		t.Fatalf("BackUp failed: %v", err)
	}
	if first.Hash != second.Hash {
		t.Error("second backup in the same run replaced the first snapshot")
	}

	run, err := store.Run("run-1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(run.Entries) != 1 {
		t.Errorf("run has %d entries, want 1", len(run.Entries))
	}
}

func TestFSStoreRestoreDryRun(t *testing.T) {
	root := t.TempDir()
	store, _ := NewFSStore(root, "")
	target := filepath.Join(root, "codemeta.json")
	writeFile(t, target, "{}\n")

	if _, err := store.BackUp("run-1", target); err != nil {
		t.Fatalf("BackUp failed: %v", err)
	}
	writeFile(t, target, "{\"x\": 1}\n")

	entries, err := store.Restore("run-1", true)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "codemeta.json" {
		t.Errorf("unexpected entries: %+v", entries)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "{\"x\": 1}\n" {
		t.Error("dry-run restore modified the file")
	}
}

func TestFSStoreNoDirectoryUntilBackup(t *testing.T) {
	root := t.TempDir()
	store, _ := NewFSStore(root, "")

	ids, err := store.Runs()
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no runs, got %v", ids)
	}
	if _, err := os.Stat(store.BasePath()); !os.IsNotExist(err) {
		t.Errorf("backup dir should not exist yet, stat err = %v", err)
	}
}

func TestFSStoreLatest(t *testing.T) {
	root := t.TempDir()
	store, _ := NewFSStore(root, "")

	if _, err := store.Latest(); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	target := filepath.Join(root, "a.txt")
	writeFile(t, target, "a")
	for _, id := range []string{"20260101T000000Z-aaaaaaaa", "20260102T000000Z-bbbbbbbb"} {
		if _, err := store.BackUp(id, target); err != nil {
			t.Fatalf("BackUp failed: %v", err)
		}
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != "20260102T000000Z-bbbbbbbb" {
		t.Errorf("Latest = %q", latest.ID)
	}
}

func TestFSStoreRunNotFound(t *testing.T) {
	store, _ := NewFSStore(t.TempDir(), "")
	_, err := store.Restore("missing", false)
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFSStorePrune(t *testing.T) {
	root := t.TempDir()
	store, _ := NewFSStore(root, "")
	target := filepath.Join(root, "a.txt")

	var hashes []string
	for i, id := range []string{"r1", "r2", "r3"} {
		writeFile(t, target, strings.Repeat("x", i+1))
		entry, err := store.BackUp(id, target)
		if err != nil {
			t.Fatalf("BackUp failed: %v", err)
		}
		hashes = append(hashes, entry.Hash)
	}

	removed, err := store.Prune(1)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	ids, _ := store.Runs()
	if len(ids) != 1 || ids[0] != "r3" {
		t.Errorf("remaining runs = %v", ids)
	}
	if _, err := store.Get(hashes[0]); !IsNotFound(err) {
		t.Errorf("expected pruned object to be gone, got %v", err)
	}
	if _, err := store.Get(hashes[2]); err != nil {
		t.Errorf("kept object missing: %v", err)
	}
}
