package project

import (
	"strings"
	"time"
)

// LiteralParser expands ${...} variables inside literal source values.
//
// Supported variables: today, now, year, version, project, pkg, description,
// license, authors and keywords. Unknown variables are left as written.
type LiteralParser struct {
	replacer *strings.Replacer
}

// LiteralVars holds the values available to literal sources.
type LiteralVars struct {
	Project     string
	Package     string
	Version     string
	Description string
	License     string
	Authors     []string
	Keywords    []string
	Now         time.Time
}

// NewLiteralParser builds a parser over vars.
func NewLiteralParser(vars LiteralVars) *LiteralParser {
	now := vars.Now.UTC()
	pairs := map[string]string{
		"today":       now.Format(time.DateOnly),
		"now":         now.Format(time.RFC3339),
		"year":        now.Format("2006"),
		"version":     vars.Version,
		"project":     vars.Project,
		"pkg":         vars.Package,
		"description": vars.Description,
		"license":     vars.License,
		"authors":     strings.Join(vars.Authors, ", "),
		"keywords":    strings.Join(vars.Keywords, ", "),
	}
	oldnew := make([]string, 0, 2*len(pairs))
	for name, value := range pairs {
		oldnew = append(oldnew, "${"+name+"}", value)
	}
	return &LiteralParser{replacer: strings.NewReplacer(oldnew...)}
}

// Parse expands the variables in s.
func (p *LiteralParser) Parse(s string) string {
	return p.replacer.Replace(s)
}

// isLiteral reports whether a source value is a single-quoted literal and returns its body.
func isLiteral(s string) (string, bool) {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return s[1 : len(s)-1], true
	}
	return "", false
}
