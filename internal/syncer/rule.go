package syncer

import (
	"regexp"
	"strconv"
	"strings"
)

// RuleKind tells how a Rule matches a line.
type RuleKind int

const (
	// PrefixRule matches lines starting with a literal string.
	PrefixRule RuleKind = iota
	// FullMatchRule matches lines the pattern matches in their entirety.
	FullMatchRule
)

func (k RuleKind) String() string {
	switch k {
	case PrefixRule:
		return "prefix"
	case FullMatchRule:
		return "fullmatch"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Rule replaces a matching line with a fixed value.
type Rule struct {
	kind    RuleKind
	prefix  string
	pattern *regexp.Regexp
	value   string
}

// Prefix returns a rule replacing every line that starts with prefix.
func Prefix(prefix, value string) Rule {
	return Rule{kind: PrefixRule, prefix: prefix, value: value}
}

// FullMatch returns a rule replacing every line matched entirely by pattern.
// The pattern is anchored on both ends; it panics if the pattern does not compile.
func FullMatch(pattern, value string) Rule {
	return Rule{
		kind:    FullMatchRule,
		pattern: regexp.MustCompile(`^(?:` + pattern + `)$`),
		value:   value,
	}
}

// Kind returns how the rule matches.
func (r Rule) Kind() RuleKind { return r.kind }

// Value returns the replacement line.
func (r Rule) Value() string { return r.value }

// Apply returns the replacement and true if the rule matches line.
// The value is used literally; capture groups are not expanded.
func (r Rule) Apply(line string) (string, bool) {
	switch r.kind {
	case PrefixRule:
		if strings.HasPrefix(line, r.prefix) {
			return r.value, true
		}
	case FullMatchRule:
		if r.pattern != nil && r.pattern.MatchString(line) {
			return r.value, true
		}
	}
	return "", false
}

// String describes the matcher for log output.
func (r Rule) String() string {
	if r.kind == FullMatchRule && r.pattern != nil {
		return r.kind.String() + " " + strconv.Quote(r.pattern.String())
	}
	return r.kind.String() + " " + strconv.Quote(r.prefix)
}

// applyFirst returns the replacement from the first matching rule and its index,
// or the unchanged line and -1.
func applyFirst(rules []Rule, line string) (string, int) {
	for i, r := range rules {
		if v, ok := r.Apply(line); ok {
			return v, i
		}
	}
	return line, -1
}
