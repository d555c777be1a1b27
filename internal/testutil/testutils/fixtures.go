package helpers

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree creates files below root from a map of slash-separated relative paths to content.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
}

// ReadFile returns the content of a file below root, failing the test on error.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

// SnapshotTree reads every listed file so later content can be compared.
func SnapshotTree(t *testing.T, root string, rels ...string) map[string]string {
	t.Helper()
	out := make(map[string]string, len(rels))
	for _, rel := range rels {
		out[rel] = ReadFile(t, root, rel)
	}
	return out
}

// SampleManifest is a pyproject.toml exercising every field the sync targets read.
const SampleManifest = `[tool.poetry]
name = "sample-tool"
version = "2.3.1"
description = "A sample tool."
keywords = ["metadata", "sync"]
authors = ["Ada Lovelace <ada@example.org>"]
license = "Apache-2.0"
homepage = "https://example.org/sample-tool"
repository = "https://github.com/example/sample-tool"
documentation = "https://sample-tool.readthedocs.io"

[tool.poetry.dependencies]
python = ">=3.9, <4"

[build-system]
requires = ["poetry-core >= 1.1, <2.0"]
build-backend = "poetry.core.masonry.api"

[tool.black]
line-length = 100

[tool.metasync.sources]
status = "'Development'"
copyright = "'Copyright 2026'"
date = "'${today}'"
maintainers = "'github:ada-lovelace, github:charles-b'"
`

// SampleTree returns the four target files matching SampleManifest, with stale values.
func SampleTree() map[string]string {
	return map[string]string{
		"pyproject.toml": SampleManifest,
		"sample_tool/__init__.py": `"""Sample tool."""
__status__ = "Alpha"
__copyright__ = "Copyright 2020"
__date__ = "2020-01-01"
`,
		"recipes/sample-tool/meta.yaml": `{% set name = "sample-tool" %}
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
`,
		"codemeta.json": `{
    "@context": "https://doi.org/10.5063/schema/codemeta-2.0",
    "name": "sample-tool",
    "version": "0.0.0",
    "description": "old text",
    "license": "https://spdx.org/licenses/MIT"
}
`,
		"CITATION.cff": `cff-version: 1.1.0
title: sample-tool
version: 0.0.0
abstract: old text
`,
	}
}
