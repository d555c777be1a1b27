package project

import (
	"regexp"
	"strings"
)

var requirementPattern = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*([^;]*)`)

// ParseRequirement splits a PEP 508 requirement such as "poetry-core >= 1.1, <2.0"
// into its normalized name and version constraint. Markers after ";" are dropped.
func ParseRequirement(req string) (name, constraint string, ok bool) {
	m := requirementPattern.FindStringSubmatch(req)
	if m == nil {
		return "", "", false
	}
	constraint = strings.TrimSpace(m[2])
	if strings.HasPrefix(constraint, "(") && strings.HasSuffix(constraint, ")") {
		constraint = strings.TrimSpace(constraint[1 : len(constraint)-1])
	}
	return NormalizeName(m[1]), constraint, true
}

// NormalizeName lowercases a distribution name and folds runs of "-", "_" and "." into "-".
func NormalizeName(name string) string {
	var b strings.Builder
	lastSep := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			if !lastSep {
				b.WriteRune('-')
			}
			lastSep = true
			continue
		}
		lastSep = false
		b.WriteRune(r)
	}
	return b.String()
}

// PackageName derives an importable package name from a project name.
func PackageName(project string) string {
	return strings.ReplaceAll(NormalizeName(project), "-", "_")
}
