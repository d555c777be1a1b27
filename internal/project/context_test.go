package project

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
	"git.home.luguber.info/inful/metasync/internal/license"
	"git.home.luguber.info/inful/metasync/internal/manifest"
	"git.home.luguber.info/inful/metasync/internal/syncer"
	"git.home.luguber.info/inful/metasync/internal/util/sets"
	helpers "git.home.luguber.info/inful/metasync/internal/testutil/testutils"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC) }

func loadSample(t *testing.T, dryRun bool) (*Context, string) {
	t.Helper()
	root := t.TempDir()
	helpers.WriteTree(t, root, helpers.SampleTree())
	ctx, err := Load(Options{Root: root, DryRun: dryRun, Now: fixedNow})
	require.NoError(t, err)
	return ctx, root
}

func parse(t *testing.T, toml string) *manifest.Document {
	t.Helper()
	doc, err := manifest.Parse([]byte(toml))
	require.NoError(t, err)
	return doc
}

func TestLoadSampleManifest(t *testing.T) {
	ctx, root := loadSample(t, false)

	assert.Equal(t, "sample-tool", ctx.Project())
	assert.Equal(t, "sample_tool", ctx.Package())
	assert.Equal(t, "2.3.1", ctx.Version())
	assert.Equal(t, "A sample tool.", ctx.Description())
	assert.Equal(t, license.Apache2, ctx.License())
	assert.Equal(t, []string{"metadata", "sync"}, ctx.Keywords())
	assert.Equal(t, []string{"Ada Lovelace <ada@example.org>"}, ctx.Authors())
	assert.Equal(t, ">=3.9, <4", ctx.Deps()["python"])
	assert.Equal(t, ">= 1.1, <2.0", ctx.BuildSysReqs()["poetry-core"])
	assert.Equal(t, root, ctx.Root())
	assert.True(t, strings.HasPrefix(ctx.RunID(), "20261019T123000Z-"))
	assert.False(t, ctx.DryRun())

	v, ok := ctx.Lookup("tool.black.line-length")
	require.True(t, ok)
	assert.Equal(t, int64(100), v)
}

func TestDefaultTargetPaths(t *testing.T) {
	ctx, root := loadSample(t, false)

	assert.Equal(t, syncer.Targets(), ctx.Targets())
	assert.Equal(t, filepath.Join(root, "sample_tool", "__init__.py"), ctx.PathSource(syncer.TargetInit))
	assert.Equal(t, filepath.Join(root, "recipes", "sample-tool", "meta.yaml"), ctx.PathSource(syncer.TargetRecipe))
	assert.Equal(t, filepath.Join(root, "codemeta.json"), ctx.PathSource(syncer.TargetCodemeta))
	assert.Equal(t, filepath.Join(root, "CITATION.cff"), ctx.PathSource(syncer.TargetCitation))
}

func TestSourcesResolution(t *testing.T) {
	doc := parse(t, `
[tool.poetry]
name = "demo"
version = "1.0.0"
description = "Demo"
license = "MIT"
homepage = "https://demo.example"

[tool.metasync.sources]
status = "'Production'"
copyright = "'Copyright ${year} the ${project} authors'"
date = "'${today}'"
home = "tool.poetry.homepage"
missing = "tool.poetry.nope"
linelength = 88
tags = ["a", "b"]
price = "'costs $5'"
`)
	ctx, err := New(doc, Options{Root: t.TempDir(), Now: fixedNow})
	require.NoError(t, err)

	tests := map[string]string{
		"status":     "Production",
		"copyright":  "Copyright 2026 the demo authors",
		"date":       "2026-10-19",
		"home":       "https://demo.example",
		"linelength": "88",
		"tags":       "a, b",
		"price":      "costs $5",
	}
	for field, want := range tests {
		got, ok := ctx.Source(field)
		assert.True(t, ok, field)
		assert.Equal(t, want, got, field)
	}
	_, ok := ctx.Source("missing")
	assert.False(t, ok, "a reference to a missing key leaves the source unset")
	assert.Len(t, ctx.Sources(), len(tests))
}

func TestTargetsTable(t *testing.T) {
	doc := parse(t, `
[tool.poetry]
name = "demo"
version = "1.0.0"
license = "MIT"

[tool.metasync.targets]
init = true
recipe = false
citation = true
readme = true

[tool.metasync.paths]
citation = "docs/CITATION.cff"
`)
	root := t.TempDir()
	ctx, err := New(doc, Options{Root: root, Now: fixedNow})
	require.NoError(t, err)

	assert.Equal(t, []string{syncer.TargetInit, syncer.TargetCitation}, ctx.Targets())
	assert.False(t, ctx.HasTarget(syncer.TargetRecipe))
	assert.False(t, ctx.HasTarget("readme"))
	assert.Equal(t, filepath.Join(root, "docs", "CITATION.cff"), ctx.PathSource(syncer.TargetCitation))
}

func TestTyrannosaurusTableFallback(t *testing.T) {
	doc := parse(t, `
[tool.poetry]
name = "demo"
version = "1.0.0"
license = "MIT"

[tool.tyrannosaurus.targets]
codemeta = true

[tool.tyrannosaurus.sources]
status = "'Beta'"
`)
	ctx, err := New(doc, Options{Root: t.TempDir(), Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, []string{syncer.TargetCodemeta}, ctx.Targets())
	status, ok := ctx.Source("status")
	assert.True(t, ok)
	assert.Equal(t, "Beta", status)
}

func TestProjectTableFallback(t *testing.T) {
	doc := parse(t, `
[project]
name = "Other.Tool"
version = "0.4.0"
description = "From PEP 621"
requires-python = ">=3.10"
dependencies = ["requests >=2.0", "rich[jupyter] (>=13) ; python_version > '3.9'"]
keywords = ["x"]
authors = [{name = "Grace Hopper", email = "grace@example.org"}, {name = "Anon"}]
license = {text = "GPL-3.0"}

[project.urls]
Homepage = "https://other.example"

[build-system]
requires = ["hatchling>=1.18"]
`)
	ctx, err := New(doc, Options{Root: t.TempDir(), Now: fixedNow})
	require.NoError(t, err)

	assert.Equal(t, "other_tool", ctx.Package())
	assert.Equal(t, "From PEP 621", ctx.Description())
	assert.Equal(t, license.GPL3, ctx.License())
	assert.Equal(t, ">=3.10", ctx.Deps()["python"])
	assert.Equal(t, ">=2.0", ctx.Deps()["requests"])
	assert.Equal(t, ">=13", ctx.Deps()["rich"])
	assert.Equal(t, ">=1.18", ctx.BuildSysReqs()["hatchling"])
	assert.Equal(t, []string{"Grace Hopper <grace@example.org>", "Anon"}, ctx.Authors())

	home, ok := ctx.Manifest("homepage")
	assert.True(t, ok)
	assert.Equal(t, "https://other.example", home)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		toml     string
		category errors.ErrorCategory
	}{
		{"no name", "[tool.poetry]\nversion = \"1\"\nlicense = \"MIT\"\n", errors.CategoryManifest},
		{"no version", "[tool.poetry]\nname = \"x\"\nlicense = \"MIT\"\n", errors.CategoryManifest},
		{"no license", "[tool.poetry]\nname = \"x\"\nversion = \"1\"\n", errors.CategoryManifest},
		{"unknown license", "[tool.poetry]\nname = \"x\"\nversion = \"1\"\nlicense = \"WTFPL\"\n", errors.CategoryManifest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(parse(t, tt.toml), Options{Root: t.TempDir()})
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, tt.category), "got %v", err)
		})
	}
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(Options{Root: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestBackUpRecordsRun(t *testing.T) {
	ctx, root := loadSample(t, false)

	require.NoError(t, ctx.BackUp(filepath.Join(root, "CITATION.cff")))
	run, err := ctx.Store().Run(ctx.RunID())
	require.NoError(t, err)
	require.Len(t, run.Entries, 1)
	assert.Equal(t, "CITATION.cff", run.Entries[0].Path)

	err = ctx.BackUp(filepath.Join(root, "nope.txt"))
	assert.True(t, errors.HasCategory(err, errors.CategoryBackup))
}

func TestSyncSampleProject(t *testing.T) {
	ctx, root := loadSample(t, false)

	processed, err := syncer.New(ctx).Sync()
	require.NoError(t, err)
	assert.Equal(t, syncer.Targets(), orderedKeys(processed))

	helpers.NewFileAssertions(t, root).
		AssertFileContains("sample_tool/__init__.py", `__status__ = "Development"`).
		AssertFileContains("sample_tool/__init__.py", `__date__ = "2026-10-19"`).
		AssertFileContains("recipes/sample-tool/meta.yaml", `{% set version = "2.3.1" %}`).
		AssertFileContains("recipes/sample-tool/meta.yaml", "    - poetry-core >=1.1,<2.0").
		AssertFileContains("recipes/sample-tool/meta.yaml", "    - ada-lovelace\n    - charles-b").
		AssertFileNotContains("recipes/sample-tool/meta.yaml", "old.example.org").
		AssertFileContains("codemeta.json", `"version":"2.3.1",`).
		AssertFileContains("CITATION.cff", "abstract: A sample tool.").
		AssertFileExists(".metasync/backups/runs/" + ctx.RunID() + ".json")

	run, err := ctx.Store().Run(ctx.RunID())
	require.NoError(t, err)
	assert.Len(t, run.Entries, 4)
}

func TestDryRunSampleProject(t *testing.T) {
	ctx, root := loadSample(t, true)
	before := helpers.SnapshotTree(t, root, "CITATION.cff", "codemeta.json", "recipes/sample-tool/meta.yaml")

	_, err := syncer.New(ctx).Sync()
	require.NoError(t, err)

	assert.Equal(t, before, helpers.SnapshotTree(t, root, "CITATION.cff", "codemeta.json", "recipes/sample-tool/meta.yaml"))
	helpers.NewFileAssertions(t, root).AssertNotExists(".metasync")
}

func orderedKeys(s sets.Set[string]) []string {
	var out []string
	for _, key := range syncer.Targets() {
		if s.Has(key) {
			out = append(out, key)
		}
	}
	return out
}
