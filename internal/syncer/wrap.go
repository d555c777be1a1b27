package syncer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"git.home.luguber.info/inful/metasync/internal/logfields"
)

// DefaultLineLength is the wrap width used when neither the sources nor the
// formatter configuration provide one.
const DefaultLineLength = 100

// ContinuationIndent is the number of spaces prefixed to wrapped continuation lines.
const ContinuationIndent = 4

// MinLineLength is the narrowest configurable width. Below it continuation
// lines have too little room for the wrapper to break them consistently.
const MinLineLength = ContinuationIndent + 4

// Wrap collapses whitespace runs in s and wraps it at width. Continuation
// lines are indented by ContinuationIndent spaces and count the indent against
// the width. Words are never split, not even at hyphens. Widths below
// MinLineLength are accepted but do not wrap continuation lines reliably.
func Wrap(s string, width int) string {
	text := strings.Join(strings.Fields(s), " ")
	if text == "" {
		return ""
	}
	width = max(width, 1)
	head, rest, wrapped := strings.Cut(wordwrap.WrapString(text, uint(width)), "\n")
	if !wrapped {
		return head
	}
	indent := strings.Repeat(" ", ContinuationIndent)
	rest = strings.ReplaceAll(rest, "\n", " ")
	tail := wordwrap.WrapString(rest, uint(max(width-ContinuationIndent, 1)))
	return head + "\n" + indent + strings.ReplaceAll(tail, "\n", "\n"+indent)
}

// lengthLookup is one candidate source for the wrap width.
type lengthLookup struct {
	name   string
	lookup func() (string, bool)
}

// lineLength resolves the wrap width: the "linelength" source, then the
// black formatter setting, then DefaultLineLength. Values that are not numbers
// or are below MinLineLength are skipped.
func (e *Engine) lineLength() int {
	lookups := []lengthLookup{
		{name: "source linelength", lookup: func() (string, bool) { return e.ctx.Source("linelength") }},
		{name: "tool.black.line-length", lookup: func() (string, bool) {
			v, ok := e.ctx.Lookup("tool.black.line-length")
			if !ok {
				return "", false
			}
			return fmt.Sprint(v), true
		}},
	}
	for _, l := range lookups {
		raw, ok := l.lookup()
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < MinLineLength {
			e.log.Debug("Ignoring invalid line length", "source", l.name, "value", raw)
			continue
		}
		e.log.Debug("Resolved line length", "source", l.name, logfields.Width(n))
		return n
	}
	return DefaultLineLength
}
