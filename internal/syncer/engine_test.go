package syncer

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/metrics"
	"git.home.luguber.info/inful/metasync/internal/util/sets"
)

func snapshot(t *testing.T, ctx *fakeContext) map[string]string {
	t.Helper()
	out := map[string]string{}
	for key, path := range ctx.paths {
		out[key] = readFile(t, path)
	}
	return out
}

func TestSyncProcessesAllAvailableTargets(t *testing.T) {
	ctx := newFakeContext(t)

	processed, err := New(ctx).Sync()
	require.NoError(t, err)
	assert.ElementsMatch(t, Targets(), sets.Sorted(processed))
	assert.Len(t, ctx.backedUp, 4)
}

func TestSyncSkipsUnavailableTargets(t *testing.T) {
	ctx := newFakeContext(t)
	require.NoError(t, os.Remove(ctx.paths[TargetCodemeta]))
	delete(ctx.paths, TargetInit)

	processed, err := New(ctx).Sync()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{TargetRecipe, TargetCitation}, sets.Sorted(processed))
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := newFakeContext(t)
	e := New(ctx)

	_, err := e.Sync()
	require.NoError(t, err)
	first := snapshot(t, ctx)

	_, err = e.Sync()
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, ctx))
}

func TestSyncIsIdempotentWithTrailingBlankLines(t *testing.T) {
	ctx := newFakeContext(t)
	writeTestFile(t, ctx.paths[TargetCitation], "cff-version: 1.2.0\nversion: 0.0.0\nabstract: old text\n\n\n")
	writeTestFile(t, ctx.paths[TargetInit], "__status__ = \"Alpha\"\n\n")
	e := New(ctx)

	_, err := e.Sync()
	require.NoError(t, err)
	first := snapshot(t, ctx)
	assert.Equal(t, "cff-version: 1.2.0\nversion: 2.3.1\nabstract: A sample tool.\n\n\n", first[TargetCitation])
	assert.Equal(t, "__status__ = \"Development\"\n\n", first[TargetInit])

	_, err = e.Sync()
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, ctx))
}

func TestSyncKeepsMissingFinalNewline(t *testing.T) {
	ctx := newFakeContext(t)
	writeTestFile(t, ctx.paths[TargetCitation], "version: 0.0.0\nabstract: old text")

	_, err := New(ctx).FixCitation()
	require.NoError(t, err)
	assert.Equal(t, "version: 2.3.1\nabstract: A sample tool.", readFile(t, ctx.paths[TargetCitation]))
}

func TestDryRunDoesNotMutate(t *testing.T) {
	dry := newFakeContext(t)
	dry.dryRun = true
	before := snapshot(t, dry)

	dryLines := map[string][]string{}
	_, err := New(dry, WithObserver(func(c Change) {
		assert.False(t, c.Written)
		dryLines[c.Target] = c.After
	})).Sync()
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(t, dry))
	assert.Empty(t, dry.backedUp)

	wet := newFakeContext(t)
	_, err = New(wet).Sync()
	require.NoError(t, err)
	for key, lines := range dryLines {
		assert.Equal(t, readFile(t, wet.paths[key]), strings.Join(lines, "\n")+"\n", key)
	}
}

func TestBackupHappensBeforeWrite(t *testing.T) {
	ctx := newFakeContext(t)

	_, err := New(ctx).Sync()
	require.NoError(t, err)
	assert.Equal(t, sampleCitation, ctx.contentAtBackup[ctx.paths[TargetCitation]])
	assert.Equal(t, sampleInit, ctx.contentAtBackup[ctx.paths[TargetInit]])
}

func TestBackupFailureLeavesTargetUntouched(t *testing.T) {
	ctx := newFakeContext(t)
	ctx.backupErr = stderrors.New("disk full")

	processed, err := New(ctx).Sync()
	require.Error(t, err)
	assert.Equal(t, 0, processed.Len())
	assert.True(t, errors.HasCategory(err, errors.CategoryBackup))
	assert.Equal(t, sampleCitation, readFile(t, ctx.paths[TargetCitation]))
}

func TestSyncContinuesPastFailingTarget(t *testing.T) {
	ctx := newFakeContext(t)
	ctx.deps = map[string]string{}

	processed, err := New(ctx).Sync()
	require.Error(t, err)
	assert.ElementsMatch(t, []string{TargetInit, TargetCodemeta, TargetCitation}, sets.Sorted(processed))

	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	target, _ := classified.Context().GetString("target")
	assert.Equal(t, TargetRecipe, target)
	assert.Contains(t, readFile(t, ctx.paths[TargetCitation]), "version: 2.3.1")
}

func TestFixUnknownTarget(t *testing.T) {
	_, err := New(newFakeContext(t)).Fix("readme")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestFixSingleTarget(t *testing.T) {
	ctx := newFakeContext(t)
	lines, err := New(ctx).Fix(TargetCitation)
	require.NoError(t, err)
	assert.Contains(t, lines, "abstract: A sample tool.")
	assert.Equal(t, []string{ctx.paths[TargetCitation]}, ctx.backedUp)
}

type countingRecorder struct {
	metrics.NoopRecorder
	results map[string]metrics.ResultLabel
	lines   map[string]int
	synced  int
}

func (c *countingRecorder) IncTargetResult(target string, result metrics.ResultLabel) {
	c.results[target] = result
}

func (c *countingRecorder) AddLinesChanged(target string, n int) { c.lines[target] += n }

func (c *countingRecorder) ObserveSyncDuration(time.Duration) { c.synced++ }

func TestSyncRecordsMetrics(t *testing.T) {
	ctx := newFakeContext(t)
	delete(ctx.paths, TargetInit)
	rec := &countingRecorder{results: map[string]metrics.ResultLabel{}, lines: map[string]int{}}

	_, err := New(ctx, WithRecorder(rec)).Sync()
	require.NoError(t, err)

	assert.Equal(t, metrics.ResultSkipped, rec.results[TargetInit])
	assert.Equal(t, metrics.ResultSuccess, rec.results[TargetCitation])
	assert.Equal(t, 2, rec.lines[TargetCitation])
	assert.Equal(t, 1, rec.synced)
}

func TestHasRequiresExistingFile(t *testing.T) {
	ctx := newFakeContext(t)
	ctx.paths[TargetInit] = filepath.Join(t.TempDir(), "missing.py")
	e := New(ctx)
	assert.False(t, e.Has(TargetInit))
	assert.True(t, e.Has(TargetRecipe))
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
