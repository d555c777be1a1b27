package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
)

// FSStore is a filesystem-based backup store rooted in a project directory.
// Directories are created lazily on the first backup so a dry run leaves no trace.
type FSStore struct {
	root     string
	basePath string
	mu       sync.Mutex
}

// NewFSStore creates a store for files under root. A relative dir is resolved
// against root; an empty dir selects DefaultDir.
func NewFSStore(root, dir string) (*FSStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve project root").
			WithContext("root", root).
			Build()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(absRoot, dir)
	}
	return &FSStore{root: absRoot, basePath: dir}, nil
}

// NewRunID returns a run identifier that sorts chronologically.
func NewRunID(now time.Time) string {
	return now.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
}

// BasePath returns the backup directory.
func (fs *FSStore) BasePath() string {
	return fs.basePath
}

// BackUp copies the current content of path into the store and records it under runID.
// A path already captured in the run keeps its first snapshot.
func (fs *FSStore) BackUp(runID, path string) (Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	// #nosec G304 - path is a resolved sync target
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, errors.WrapError(err, errors.CategoryBackup, "failed to read file for backup").
			WithContext("path", path).
			Build()
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, errors.WrapError(err, errors.CategoryBackup, "failed to stat file for backup").
			WithContext("path", path).
			Build()
	}

	run, err := fs.readRun(runID)
	if err != nil {
		if !IsNotFound(err) {
			return Entry{}, err
		}
		run = &Run{ID: runID, CreatedAt: time.Now().UTC()}
	}

	rel := fs.relative(path)
	if existing, ok := run.Find(rel); ok {
		return existing, nil
	}

	hash, err := fs.put(data)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Path: rel,
		Hash: hash,
		Mode: uint32(info.Mode().Perm()),
		Size: int64(len(data)),
	}
	run.Entries = append(run.Entries, entry)
	if err := fs.writeRun(run); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Get retrieves object content by hash.
func (fs *FSStore) Get(hash string) ([]byte, error) {
	// #nosec G304 - objectPath is internal, constructed from a hex hash
	data, err := os.ReadFile(fs.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Kind: "object", ID: hash}
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// Run loads a recorded run.
func (fs *FSStore) Run(runID string) (*Run, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.readRun(runID)
}

// Runs lists run identifiers, oldest first.
func (fs *FSStore) Runs() ([]string, error) {
	entries, err := os.ReadDir(fs.runsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryBackup, "failed to list backup runs").Build()
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Latest returns the most recent run.
func (fs *FSStore) Latest() (*Run, error) {
	ids, err := fs.Runs()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound{Kind: "run", ID: "latest"}
	}
	return fs.Run(ids[len(ids)-1])
}

// Restore writes every file captured in runID back to its original location.
// With dryRun set, nothing is written and the entries that would be restored are returned.
func (fs *FSStore) Restore(runID string, dryRun bool) ([]Entry, error) {
	run, err := fs.Run(runID)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return run.Entries, nil
	}

	restored := make([]Entry, 0, len(run.Entries))
	for _, entry := range run.Entries {
		data, err := fs.Get(entry.Hash)
		if err != nil {
			return restored, errors.WrapError(err, errors.CategoryBackup, "backup object missing").
				WithContext("path", entry.Path).
				WithContext("run", runID).
				Build()
		}
		target := fs.absolute(entry.Path)
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return restored, errors.WrapError(err, errors.CategoryFileSystem, "failed to create directory").
				WithContext("path", target).
				Build()
		}
		if err := os.WriteFile(target, data, os.FileMode(entry.Mode)); err != nil {
			return restored, errors.WrapError(err, errors.CategoryFileSystem, "failed to restore file").
				WithContext("path", target).
				Build()
		}
		restored = append(restored, entry)
	}
	return restored, nil
}

// Prune keeps the newest keep runs and garbage-collects objects no longer referenced.
// It returns the number of runs removed.
func (fs *FSStore) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	ids, err := fs.Runs()
	if err != nil {
		return 0, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	removed := 0
	if len(ids) > keep {
		for _, id := range ids[:len(ids)-keep] {
			if err := os.Remove(fs.runPath(id)); err != nil && !os.IsNotExist(err) {
				return removed, errors.WrapError(err, errors.CategoryBackup, "failed to remove run").
					WithContext("run", id).
					Build()
			}
			removed++
		}
		ids = ids[len(ids)-keep:]
	}

	referenced := make(map[string]bool)
	for _, id := range ids {
		run, err := fs.readRun(id)
		if err != nil {
			return removed, err
		}
		for _, e := range run.Entries {
			referenced[e.Hash] = true
		}
	}
	if err := fs.gcUnlocked(referenced); err != nil {
		return removed, err
	}
	return removed, nil
}

// gcUnlocked removes objects not present in referenced.
func (fs *FSStore) gcUnlocked(referenced map[string]bool) error {
	objectsDir := filepath.Join(fs.basePath, "objects")
	err := filepath.Walk(objectsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(objectsDir, path)
		if err != nil {
			return nil
		}
		hash := strings.ReplaceAll(relPath, string(filepath.Separator), "")
		if referenced[hash] {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		_ = os.Remove(filepath.Dir(path)) // Best effort, fails while non-empty
		return nil
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryBackup, "failed to collect unreferenced backups").Build()
	}
	return nil
}

// put stores content and returns its hash.
func (fs *FSStore) put(data []byte) (string, error) {
	h := sha256.Sum256(data)
	hash := hex.EncodeToString(h[:])

	objectPath := fs.objectPath(hash)
	if _, err := os.Stat(objectPath); err == nil {
		return hash, nil
	}
	if err := os.MkdirAll(filepath.Dir(objectPath), 0o750); err != nil {
		return "", errors.WrapError(err, errors.CategoryBackup, "failed to create object directory").Build()
	}
	if err := os.WriteFile(objectPath, data, 0o600); err != nil {
		return "", errors.WrapError(err, errors.CategoryBackup, "failed to write backup object").Build()
	}
	return hash, nil
}

func (fs *FSStore) readRun(runID string) (*Run, error) {
	// #nosec G304 - run path is internal
	data, err := os.ReadFile(fs.runPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Kind: "run", ID: runID}
		}
		return nil, errors.WrapError(err, errors.CategoryBackup, "failed to read run").
			WithContext("run", runID).
			Build()
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, errors.WrapError(err, errors.CategoryBackup, "failed to decode run").
			WithContext("run", runID).
			Build()
	}
	return &run, nil
}

func (fs *FSStore) writeRun(run *Run) error {
	if err := os.MkdirAll(fs.runsDir(), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryBackup, "failed to create runs directory").Build()
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode run").Build()
	}
	if err := os.WriteFile(fs.runPath(run.ID), data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryBackup, "failed to write run").
			WithContext("run", run.ID).
			Build()
	}
	return nil
}

// relative maps path to a slash-separated path relative to the root; paths
// outside the root are kept absolute.
func (fs *FSStore) relative(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(fs.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (fs *FSStore) absolute(rel string) string {
	p := filepath.FromSlash(rel)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(fs.root, p)
}

func (fs *FSStore) runsDir() string {
	return filepath.Join(fs.basePath, "runs")
}

func (fs *FSStore) runPath(runID string) string {
	return filepath.Join(fs.runsDir(), runID+".json")
}

// objectPath returns the filesystem path for an object.
func (fs *FSStore) objectPath(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(fs.basePath, "objects", hash)
	}
	return filepath.Join(fs.basePath, "objects", hash[:2], hash[2:])
}
