package syncer

import (
	"fmt"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
)

// AboutMarker starts the recipe section that is rebuilt on every sync.
const AboutMarker = "about:"

// LicenseFile is the license file name referenced from the recipe.
const LicenseFile = "LICENSE.txt"

var (
	// A GitHub user name is 1-39 characters of [a-z0-9] with single inner hyphens.
	// The candidate is trimmed to that shape in githubHandle.
	maintainerPattern = regexp.MustCompile(`github:([a-z\d][a-z\d-]*)`)
	blankRunPattern   = regexp.MustCompile(`\n\s*\n`)
)

// buildTools lists the build-system requirements tried, in order, for the recipe's
// build-tool constraint.
var buildTools = []string{"poetry", "poetry-core"}

// MaintainerHandles extracts GitHub user names from "github:<name>" tokens.
func MaintainerHandles(s string) []string {
	var handles []string
	for _, m := range maintainerPattern.FindAllStringSubmatch(s, -1) {
		handles = append(handles, githubHandle(m[1]))
	}
	return handles
}

// githubHandle trims a candidate to at most 39 characters, stopping before
// a hyphen not followed by an alphanumeric.
func githubHandle(candidate string) string {
	const maxLen = 39
	end := 1
	for end < len(candidate) && end < maxLen {
		if candidate[end] == '-' && (end+1 >= len(candidate) || candidate[end+1] == '-') {
			break
		}
		end++
	}
	return candidate[:end]
}

// AboutBlock is the rebuilt trailing section of a recipe.
type AboutBlock struct {
	Home          string
	Summary       string
	LicenseFamily string
	LicenseSPDX   string
	Description   string
	DocURL        string
	DevURL        string
	Maintainers   []string
}

// Render returns the block text, starting with a blank line.
func (a AboutBlock) Render() string {
	var b strings.Builder
	b.WriteString("\n" + AboutMarker + "\n")
	fmt.Fprintf(&b, "  home: %s\n", a.Home)
	fmt.Fprintf(&b, "  summary: |\n    %s\n", a.Summary)
	fmt.Fprintf(&b, "  license_family: %s\n", a.LicenseFamily)
	fmt.Fprintf(&b, "  license: %s\n", a.LicenseSPDX)
	fmt.Fprintf(&b, "  license_file: %s\n", LicenseFile)
	fmt.Fprintf(&b, "  description: |\n    %s\n", a.Description)
	fmt.Fprintf(&b, "  doc_url: %s\n", a.DocURL)
	fmt.Fprintf(&b, "  dev_url: %s\n", a.DevURL)
	b.WriteString("\nextra:\n")
	if len(a.Maintainers) == 0 {
		b.WriteString("  recipe-maintainers: []\n")
		return b.String()
	}
	b.WriteString("  recipe-maintainers:\n")
	for _, m := range a.Maintainers {
		fmt.Fprintf(&b, "    - %s\n", m)
	}
	return b.String()
}

// RebuildRecipe drops everything from the first AboutMarker line on, appends block,
// strips trailing spaces and collapses runs of blank lines into one.
func RebuildRecipe(patched []string, block string) []string {
	lines := make([]string, 0, len(patched)+16)
	for _, line := range patched {
		if strings.HasPrefix(line, AboutMarker) {
			break
		}
		lines = append(lines, line)
	}
	lines = append(lines, SplitLines(block)...)
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	text := blankRunPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.Split(text, "\n")
}

// recipeRules builds the version, python and pip rules.
func (e *Engine) recipeRules() ([]Rule, error) {
	python, ok := e.ctx.Deps()["python"]
	if !ok {
		return nil, errors.ValidationError("recipe needs a python dependency constraint").
			WithContext("field", "tool.poetry.dependencies.python").
			Build()
	}
	tool, toolVersion, ok := e.buildTool()
	if !ok {
		return nil, errors.ValidationError("recipe needs a build-system requirement").
			WithContext("candidates", strings.Join(buildTools, ", ")).
			Build()
	}
	return []Rule{
		Prefix("{% set version = ", `{% set version = "`+e.ctx.Version()+`" %}`),
		Prefix("    - python >=", "    - python "+stripSpaces(python)),
		FullMatch(` {4}- pip *`, "    - pip >=20\n    - "+tool+" "+stripSpaces(toolVersion)),
	}, nil
}

func (e *Engine) buildTool() (name, constraint string, ok bool) {
	reqs := e.ctx.BuildSysReqs()
	for _, tool := range buildTools {
		if v, found := reqs[tool]; found {
			return tool, v, true
		}
	}
	return "", "", false
}

// aboutBlock derives the rebuilt section from the context.
func (e *Engine) aboutBlock() AboutBlock {
	width := e.lineLength()
	summary := Wrap(e.ctx.Description(), width)
	description := summary
	if long, ok := e.ctx.Source("long_description"); ok {
		description = Wrap(long, width)
	}
	var maintainers []string
	if raw, ok := e.ctx.Source("maintainers"); ok {
		maintainers = MaintainerHandles(raw)
	}
	lic := e.ctx.License()
	return AboutBlock{
		Home:          e.manifestField("homepage"),
		Summary:       summary,
		LicenseFamily: lic.Family(),
		LicenseSPDX:   lic.SPDX(),
		Description:   description,
		DocURL:        e.manifestField("documentation"),
		DevURL:        e.manifestField("repository"),
		Maintainers:   maintainers,
	}
}

func (e *Engine) manifestField(field string) string {
	v, _ := e.ctx.Manifest(field)
	return v
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
