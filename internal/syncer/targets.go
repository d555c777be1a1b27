package syncer

import (
	"bytes"
	"encoding/json"
	"strings"

	"git.home.luguber.info/inful/metasync/internal/logfields"
)

// Target keys.
const (
	TargetInit     = "init"
	TargetRecipe   = "recipe"
	TargetCodemeta = "codemeta"
	TargetCitation = "citation"
)

// Targets returns the target keys in the order Sync processes them.
func Targets() []string {
	return []string{TargetInit, TargetRecipe, TargetCodemeta, TargetCitation}
}

// IsTarget reports whether key names a known target.
func IsTarget(key string) bool {
	for _, t := range Targets() {
		if t == key {
			return true
		}
	}
	return false
}

// FixInit syncs the package __init__ stub if available.
func (e *Engine) FixInit() ([]string, error) {
	if !e.Has(TargetInit) {
		return nil, nil
	}
	return e.FixInitFile(e.ctx.PathSource(TargetInit))
}

// FixInitFile rewrites the status, copyright and date assignments in path.
func (e *Engine) FixInitFile(path string) ([]string, error) {
	return e.patch(TargetInit, path, e.initRules())
}

func (e *Engine) initRules() []Rule {
	var rules []Rule
	for _, field := range []string{"status", "copyright", "date"} {
		value, ok := e.ctx.Source(field)
		if !ok {
			e.log.Debug("Source not set, leaving assignment alone", logfields.Target(TargetInit), "field", field)
			continue
		}
		prefix := "__" + field + "__ = "
		rules = append(rules, Prefix(prefix, prefix+`"`+value+`"`))
	}
	return rules
}

// FixCitation syncs version and abstract in CITATION.cff if available.
func (e *Engine) FixCitation() ([]string, error) {
	if !e.Has(TargetCitation) {
		return nil, nil
	}
	return e.patch(TargetCitation, e.ctx.PathSource(TargetCitation), e.citationRules())
}

func (e *Engine) citationRules() []Rule {
	return []Rule{
		FullMatch(`version: .*`, "version: "+e.ctx.Version()),
		FullMatch(`abstract: .*`, "abstract: "+e.ctx.Description()),
	}
}

// FixCodemeta syncs version, description and license in codemeta.json if available.
func (e *Engine) FixCodemeta() ([]string, error) {
	if !e.Has(TargetCodemeta) {
		return nil, nil
	}
	return e.patch(TargetCodemeta, e.ctx.PathSource(TargetCodemeta), e.codemetaRules())
}

// codemetaRules rewrites top-level keys to the compact "key":"value" form.
//
// Two deliberate departures from a plain "key":"value" substitution keep the
// output valid JSON: a trailing comma on the matched line is carried over,
// and values are JSON-escaped (without HTML escaping), so quotes and
// backslashes in a description cannot break the document.
//
// The license URL is written under "description"; existing files depend on it.
func (e *Engine) codemetaRules() []Rule {
	fields := []struct{ match, key, value string }{
		{match: "version", key: "version", value: e.ctx.Version()},
		{match: "description", key: "description", value: e.ctx.Description()},
		{match: "license", key: "description", value: e.ctx.License().URL()},
	}
	rules := make([]Rule, 0, 2*len(fields))
	for _, f := range fields {
		line := `"` + f.key + `":` + jsonString(f.value)
		rules = append(rules,
			FullMatch(` {4}"`+f.match+`" *: *".*", *`, line+","),
			FullMatch(` {4}"`+f.match+`" *: *".*`, line),
		)
	}
	return rules
}

// FixRecipe rebuilds the conda recipe if available.
func (e *Engine) FixRecipe() ([]string, error) {
	if !e.Has(TargetRecipe) {
		return nil, nil
	}
	return e.FixRecipeFile(e.ctx.PathSource(TargetRecipe))
}

// FixRecipeFile patches the version, python and pip lines in path and rebuilds
// everything from the "about:" line on.
func (e *Engine) FixRecipeFile(path string) ([]string, error) {
	rules, err := e.recipeRules()
	if err != nil {
		return nil, err
	}
	before, terminated, err := readLines(path)
	if err != nil {
		return nil, err
	}
	after := RebuildRecipe(PatchLines(before, rules), e.aboutBlock().Render())
	return e.commit(TargetRecipe, path, before, after, terminated)
}

// jsonString quotes s as a JSON string without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `"` + s + `"`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
