package syncer

import (
	"os"
	"slices"
	"strings"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/logfields"
)

// Change describes the effect of one target synchronization.
type Change struct {
	Target string
	Path   string
	Before []string
	After  []string
	// Written is false in dry-run mode.
	Written bool
}

// Changed reports whether the resulting lines differ from the original ones.
func (c Change) Changed() bool {
	return !slices.Equal(c.Before, c.After)
}

// LinesChanged counts positions whose content differs, plus any length difference.
func (c Change) LinesChanged() int {
	n := 0
	common := min(len(c.Before), len(c.After))
	for i := range common {
		if c.Before[i] != c.After[i] {
			n++
		}
	}
	return n + max(len(c.Before), len(c.After)) - common
}

// SplitLines splits text into lines, accepting \n, \r\n and \r terminators.
// A final terminator does not produce a trailing empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// PatchLines applies rules to every line; the first matching rule wins.
// Replacement values containing newlines expand into several lines.
func PatchLines(lines []string, rules []Rule) []string {
	patched := make([]string, len(lines))
	for i, line := range lines {
		patched[i], _ = applyFirst(rules, line)
	}
	return expandLines(patched)
}

// expandLines re-splits lines whose content holds newlines. Empty lines,
// including trailing ones, are kept.
func expandLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	return strings.Split(strings.Join(lines, "\n"), "\n")
}

// readLines loads a target file as lines and reports whether its last line
// was terminated.
func readLines(path string) ([]string, bool, error) {
	// #nosec G304 - path is a resolved sync target
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errors.WrapError(err, errors.CategoryFileSystem, "failed to read target").
			WithContext("path", path).
			Build()
	}
	text := string(data)
	terminated := strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\r")
	return SplitLines(text), terminated, nil
}

// patch rewrites path with rules and reports the change.
func (e *Engine) patch(target, path string, rules []Rule) ([]string, error) {
	before, terminated, err := readLines(path)
	if err != nil {
		return nil, err
	}
	after := make([]string, len(before))
	for i, line := range before {
		replaced, idx := applyFirst(rules, line)
		if idx >= 0 && replaced != line {
			e.log.Debug("Rewrote line", logfields.Target(target), logfields.Rule(rules[idx].String()))
		}
		after[i] = replaced
	}
	return e.commit(target, path, before, expandLines(after), terminated)
}

// commit backs up and writes lines unless in dry-run mode. A terminated file
// keeps its final line terminator.
func (e *Engine) commit(target, path string, before, after []string, terminated bool) ([]string, error) {
	dryRun := e.ctx.DryRun()
	if !dryRun {
		if err := e.ctx.BackUp(path); err != nil {
			return nil, errors.WrapError(err, errors.CategoryBackup, "backup failed, target left untouched").
				WithContext("target", target).
				WithContext("path", path).
				Build()
		}
		if err := writeLines(path, after, terminated); err != nil {
			return nil, err
		}
		e.log.Debug("Wrote target", logfields.Target(target), logfields.Path(path), logfields.Lines(len(after)))
	} else {
		e.log.Debug("Dry run, not writing", logfields.Target(target), logfields.Path(path), logfields.Lines(len(after)))
	}

	change := Change{Target: target, Path: path, Before: before, After: after, Written: !dryRun}
	e.recorder.AddLinesChanged(target, change.LinesChanged())
	if e.observer != nil {
		e.observer(change)
	}
	return after, nil
}

func writeLines(path string, lines []string, terminated bool) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	content := strings.Join(lines, "\n")
	if terminated && len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write target").
			WithContext("path", path).
			Build()
	}
	return nil
}
