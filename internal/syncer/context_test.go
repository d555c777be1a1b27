package syncer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/metasync/internal/license"
)

// fakeContext is an in-memory Context over files in a temp directory.
type fakeContext struct {
	paths        map[string]string
	sources      map[string]string
	manifest     map[string]string
	data         map[string]any
	deps         map[string]string
	buildSysReqs map[string]string
	version      string
	description  string
	license      license.License
	dryRun       bool
	backedUp     []string
	backupErr    error
	// contentAtBackup records each file's content when BackUp is called.
	contentAtBackup map[string]string
}

func (f *fakeContext) HasTarget(key string) bool {
	_, ok := f.paths[key]
	return ok
}

func (f *fakeContext) PathSource(key string) string { return f.paths[key] }

func (f *fakeContext) Source(field string) (string, bool) {
	v, ok := f.sources[field]
	return v, ok
}

func (f *fakeContext) Manifest(field string) (string, bool) {
	v, ok := f.manifest[field]
	return v, ok
}

func (f *fakeContext) Lookup(dotted string) (any, bool) {
	v, ok := f.data[dotted]
	return v, ok
}

func (f *fakeContext) Deps() map[string]string         { return f.deps }
func (f *fakeContext) BuildSysReqs() map[string]string { return f.buildSysReqs }
func (f *fakeContext) Version() string                 { return f.version }
func (f *fakeContext) Description() string             { return f.description }
func (f *fakeContext) License() license.License        { return f.license }
func (f *fakeContext) DryRun() bool                    { return f.dryRun }

func (f *fakeContext) BackUp(path string) error {
	if f.backupErr != nil {
		return f.backupErr
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if f.contentAtBackup == nil {
		f.contentAtBackup = map[string]string{}
	}
	f.contentAtBackup[path] = string(data)
	f.backedUp = append(f.backedUp, path)
	return nil
}

const sampleRecipe = `{% set name = "sample-tool" %}
{% set version = "0.0.0" %}

package:
  name: {{ name|lower }}
  version: {{ version }}

requirements:
  host:
    - python >=3.6
    - pip
  run:
    - python >=3.6

test:
  requires:
    - pip

about:
  home: https://old.example.org
  summary: old summary
  this trailing content must disappear
`

const expectedRecipe = `{% set name = "sample-tool" %}
{% set version = "2.3.1" %}

package:
  name: {{ name|lower }}
  version: {{ version }}

requirements:
  host:
    - python >=3.9,<4
    - pip >=20
    - poetry-core >=1.1,<2.0
  run:
    - python >=3.9,<4

test:
  requires:
    - pip >=20
    - poetry-core >=1.1,<2.0

about:
  home: https://example.org/sample-tool
  summary: |
    A sample tool.
  license_family: APACHE
  license: Apache-2.0
  license_file: LICENSE.txt
  description: |
    A sample tool.
  doc_url: https://sample-tool.readthedocs.io
  dev_url: https://github.com/example/sample-tool

extra:
  recipe-maintainers:
    - ada-lovelace
    - charles-b`

const sampleInit = `"""Sample tool."""
__status__ = "Alpha"
__copyright__ = "Copyright 2020"
__date__ = "2020-01-01"
__version__ = "unchanged"
`

const sampleCodemeta = `{
    "@context": "https://doi.org/10.5063/schema/codemeta-2.0",
    "name": "sample-tool",
    "version": "0.0.0",
    "description": "old text",
    "license": "https://spdx.org/licenses/MIT"
}
`

const sampleCitation = `cff-version: 1.1.0
title: sample-tool
version: 0.0.0
abstract: old text
`

// newFakeContext writes all four targets into a temp dir and returns a context for them.
func newFakeContext(t *testing.T) *fakeContext {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		TargetInit:     filepath.Join(root, "sample_tool", "__init__.py"),
		TargetRecipe:   filepath.Join(root, "recipes", "sample-tool", "meta.yaml"),
		TargetCodemeta: filepath.Join(root, "codemeta.json"),
		TargetCitation: filepath.Join(root, "CITATION.cff"),
	}
	contents := map[string]string{
		TargetInit:     sampleInit,
		TargetRecipe:   sampleRecipe,
		TargetCodemeta: sampleCodemeta,
		TargetCitation: sampleCitation,
	}
	for key, path := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(contents[key]), 0o600))
	}
	return &fakeContext{
		paths: files,
		sources: map[string]string{
			"status":      "Development",
			"copyright":   "Copyright 2026",
			"date":        "2026-10-19",
			"maintainers": "github:ada-lovelace, github:charles-b",
		},
		manifest: map[string]string{
			"homepage":      "https://example.org/sample-tool",
			"documentation": "https://sample-tool.readthedocs.io",
			"repository":    "https://github.com/example/sample-tool",
		},
		data:         map[string]any{"tool.black.line-length": int64(100)},
		deps:         map[string]string{"python": ">=3.9, <4"},
		buildSysReqs: map[string]string{"poetry-core": ">=1.1, <2.0"},
		version:      "2.3.1",
		description:  "A sample tool.",
		license:      license.Apache2,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
