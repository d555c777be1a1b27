// Package preview renders unified diffs of the changes a sync run computes.
package preview

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"

	"git.home.luguber.info/inful/metasync/internal/syncer"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Diff returns a unified diff from before to after, labelled with name.
// Identical inputs yield an empty string.
func Diff(name string, before, after []string, context int) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        toDiffLines(before),
		B:        toDiffLines(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  context,
	})
}

func toDiffLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	return difflib.SplitLines(strings.Join(lines, "\n"))
}

// Collector gathers engine changes. Its Observe method can be passed to
// syncer.WithObserver.
type Collector struct {
	mu      sync.Mutex
	root    string
	changes []syncer.Change
}

// NewCollector creates a collector that labels diffs relative to root.
func NewCollector(root string) *Collector {
	return &Collector{root: root}
}

// Observe records a change.
func (c *Collector) Observe(change syncer.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, change)
}

// Changes returns all recorded changes in observation order.
func (c *Collector) Changes() []syncer.Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]syncer.Change(nil), c.changes...)
}

// Drifted returns the changes whose content differs.
func (c *Collector) Drifted() []syncer.Change {
	var out []syncer.Change
	for _, ch := range c.Changes() {
		if ch.Changed() {
			out = append(out, ch)
		}
	}
	return out
}

// WriteDiffs writes a unified diff for every drifted change to w.
func (c *Collector) WriteDiffs(w io.Writer) error {
	for _, ch := range c.Drifted() {
		diff, err := Diff(c.label(ch.Path), ch.Before, ch.After, DefaultContext)
		if err != nil {
			return fmt.Errorf("diff %s: %w", ch.Target, err)
		}
		if _, err := io.WriteString(w, diff); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) label(path string) string {
	if c.root != "" {
		if rel, err := filepath.Rel(c.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}
