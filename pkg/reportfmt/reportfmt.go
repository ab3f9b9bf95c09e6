// Package reportfmt turns structured validation reports into
// user-facing text.
package reportfmt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/smelt-go/smelt"
)

const (
	ansiRed   = "\x1b[31m"
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// Options control rendering.
type Options struct {
	// Color enables ANSI coloring of locations and kinds.
	Color bool
	// MaxInputWidth bounds the display width of input previews.
	// Zero means the default of 60 cells.
	MaxInputWidth int
}

// Format renders a validation error as one block per line error, with
// the located path first and a truncated preview of the offending
// input.
func Format(err *smelt.ValidationError, opts Options) string {
	if err == nil || len(err.Errors) == 0 {
		return "Validation failed, but no additional details were provided.\n"
	}
	maxWidth := opts.MaxInputWidth
	if maxWidth <= 0 {
		maxWidth = 60
	}

	var b strings.Builder
	noun := "errors"
	if len(err.Errors) == 1 {
		noun = "error"
	}
	fmt.Fprintf(&b, "%d validation %s for %s\n", len(err.Errors), noun, err.Title)

	for _, le := range err.Errors {
		loc := le.Loc.String()
		kind := string(le.Kind)
		if opts.Color {
			loc = ansiRed + loc + ansiReset
			kind = ansiDim + kind + ansiReset
		}
		fmt.Fprintf(&b, "- %s\n", loc)
		fmt.Fprintf(&b, "  %s (%s)\n", le.Message, kind)
		if preview := previewInput(le.Input, maxWidth); preview != "" {
			fmt.Fprintf(&b, "  input: %s\n", preview)
		}
	}
	return b.String()
}

// previewInput renders the offending value on one line, truncated to
// the given display width. Width is measured in terminal cells, not
// bytes, so wide runes truncate correctly. Rendering is depth-bounded:
// recursion_loop errors carry cyclic inputs that would never terminate
// under plain %v formatting.
func previewInput(v any, maxWidth int) string {
	s := strings.ReplaceAll(renderValue(v, 3), "\n", " ")
	if runewidth.StringWidth(s) > maxWidth {
		s = runewidth.Truncate(s, maxWidth, "…")
	}
	return s
}

func renderValue(v any, depth int) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", t)
	case map[string]any:
		if depth <= 0 {
			return fmt.Sprintf("{…%d}", len(t))
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + renderValue(t[k], depth-1)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		if depth <= 0 {
			return fmt.Sprintf("[…%d]", len(t))
		}
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = renderValue(e, depth-1)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}
