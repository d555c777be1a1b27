// Package storage keeps pre-write backups of synchronized files.
//
// Backups are content-addressed and grouped by run:
//
//	.metasync/backups/
//	  objects/
//	    ab/
//	      cd1234... (first 2 chars = subdir, rest = filename)
//	  runs/
//	    20261019T101500Z-1a2b3c4d.json (entries backed up during one sync run)
//
// Identical file contents are stored once no matter how many runs reference them.
package storage

import (
	"fmt"
	"time"
)

// DefaultDir is the backup location relative to the project root.
const DefaultDir = ".metasync/backups"

// Entry records one file captured during a run.
type Entry struct {
	// Path is relative to the project root, using forward slashes.
	Path string `json:"path"`
	// Hash is the SHA256 of the file content at backup time.
	Hash string `json:"hash"`
	// Mode holds the permission bits to restore.
	Mode uint32 `json:"mode"`
	// Size is the content length in bytes.
	Size int64 `json:"size"`
}

// Run is the set of files backed up by a single sync invocation.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Find returns the entry recorded for a relative path.
func (r *Run) Find(relPath string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Path == relPath {
			return e, true
		}
	}
	return Entry{}, false
}

// ErrNotFound is returned when an object or run does not exist.
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// IsNotFound checks if an error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}
