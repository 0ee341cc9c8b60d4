// Package debug has helpers producing human readable dumps of internal
// structures.
package debug

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes quoted value, invisible characters are escaped.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Attrs writes one line per map entry in natural key order. Nothing is
// written for empty maps.
func (tw TreeWriter) Attrs(depth int, label string, attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	tw.Line(depth, "%s: %d", label, len(attrs))
	keys := slices.Collect(maps.Keys(attrs))
	sort.Sort(natural.StringSlice(keys))
	for _, k := range keys {
		tw.TextBlock(depth+1, k, attrs[k])
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.QuoteToGraphic(raw)
}
