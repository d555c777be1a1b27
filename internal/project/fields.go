package project

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/metasync/internal/manifest"
)

// Manifest looks up a metadata field in [tool.poetry], then in the standard
// [project] table. URL fields also fall back to [project.urls].
func (c *Context) Manifest(field string) (string, bool) {
	candidates := []string{
		"tool.poetry." + field,
		"project." + field,
		"project.urls." + field,
	}
	if field != "" {
		candidates = append(candidates, "project.urls."+strings.ToUpper(field[:1])+field[1:])
	}
	for _, dotted := range candidates {
		v, ok := c.doc.Lookup(dotted)
		if !ok {
			continue
		}
		if _, isTable := v.(map[string]any); isTable {
			continue
		}
		return manifest.Stringify(v), true
	}
	return "", false
}

// Source returns a resolved free-form source field.
func (c *Context) Source(field string) (string, bool) {
	v, ok := c.sources[field]
	return v, ok
}

// Sources returns the names of all resolved sources.
func (c *Context) Sources() []string {
	out := make([]string, 0, len(c.sources))
	for k := range c.sources {
		out = append(out, k)
	}
	return out
}

// loadSources resolves [tool.metasync.sources]. A single-quoted string is a
// literal with variables expanded; any other string is a dotted manifest path.
func (c *Context) loadSources(now time.Time) {
	c.sources = make(map[string]string)
	raw, ok := c.toolValue("sources")
	if !ok {
		return
	}
	table, ok := raw.(map[string]any)
	if !ok {
		c.log.Debug("Ignoring malformed sources setting")
		return
	}

	parser := NewLiteralParser(LiteralVars{
		Project:     c.project,
		Package:     c.pkg,
		Version:     c.version,
		Description: c.description,
		License:     c.license.SPDX(),
		Authors:     c.authors,
		Keywords:    c.keywords,
		Now:         now,
	})
	for field, value := range table {
		str, isString := value.(string)
		if !isString {
			c.sources[field] = manifest.Stringify(value)
			continue
		}
		if body, literal := isLiteral(str); literal {
			c.sources[field] = parser.Parse(body)
			continue
		}
		ref, found := c.doc.Lookup(str)
		if !found {
			c.log.Debug("Source references a missing manifest key", "source", field, "ref", str)
			continue
		}
		c.sources[field] = manifest.Stringify(ref)
	}
}

func (c *Context) stringList(field string) []string {
	for _, dotted := range []string{"tool.poetry." + field, "project." + field} {
		if list, ok := c.doc.Strings(dotted); ok {
			return list
		}
	}
	return nil
}

// authorList reads poetry's "Name <email>" strings or the [project] author tables.
func (c *Context) authorList() []string {
	if list, ok := c.doc.Strings("tool.poetry.authors"); ok {
		return list
	}
	raw, ok := c.doc.Lookup("project.authors")
	if !ok {
		return nil
	}
	items, _ := raw.([]any)
	var out []string
	for _, item := range items {
		switch a := item.(type) {
		case string:
			out = append(out, a)
		case map[string]any:
			name := manifest.Stringify(a["name"])
			if email := manifest.Stringify(a["email"]); email != "" {
				name = strings.TrimSpace(name + " <" + email + ">")
			}
			out = append(out, name)
		}
	}
	return out
}

func (c *Context) licenseString() (string, bool) {
	if s, ok := c.doc.String("tool.poetry.license"); ok {
		return s, true
	}
	raw, ok := c.doc.Lookup("project.license")
	if !ok {
		return "", false
	}
	if table, isTable := raw.(map[string]any); isTable {
		text, hasText := table["text"]
		return manifest.Stringify(text), hasText
	}
	return manifest.Stringify(raw), true
}

// packageName uses the first poetry package include, else the derived name.
func (c *Context) packageName() string {
	if raw, ok := c.doc.Lookup("tool.poetry.packages"); ok {
		if items, isList := raw.([]any); isList && len(items) > 0 {
			if table, isTable := items[0].(map[string]any); isTable {
				if include := manifest.Stringify(table["include"]); include != "" {
					return include
				}
			}
		}
	}
	return PackageName(c.project)
}

// dependencies collects version constraints from [tool.poetry.dependencies],
// falling back to [project] requires-python and dependencies.
func (c *Context) dependencies() map[string]string {
	deps := make(map[string]string)
	if table, ok := c.doc.Table("tool.poetry.dependencies"); ok {
		for name, spec := range table {
			switch v := spec.(type) {
			case string:
				deps[NormalizeName(name)] = v
			case map[string]any:
				if version, has := v["version"]; has {
					deps[NormalizeName(name)] = manifest.Stringify(version)
				}
			}
		}
	}
	if reqs, ok := c.doc.Strings("project.dependencies"); ok {
		for _, req := range reqs {
			if name, constraint, parsed := ParseRequirement(req); parsed {
				if _, exists := deps[name]; !exists {
					deps[name] = constraint
				}
			}
		}
	}
	if _, ok := deps["python"]; !ok {
		if py, found := c.doc.String("project.requires-python"); found {
			deps["python"] = py
		}
	}
	return deps
}

func (c *Context) buildRequirements() map[string]string {
	reqs := make(map[string]string)
	list, ok := c.doc.Strings("build-system.requires")
	if !ok {
		return reqs
	}
	for _, req := range list {
		name, constraint, parsed := ParseRequirement(req)
		if !parsed {
			c.log.Debug("Skipping unparsable build requirement", "requirement", req)
			continue
		}
		reqs[name] = constraint
	}
	return reqs
}
