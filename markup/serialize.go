package markup

import (
	"bufio"
	"io"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"rtdoc/document"
	"rtdoc/style"
)

// Options control serialized output.
type Options struct {
	// Prettify wraps output into html element and indents nested blocks.
	Prettify bool
	// Indent is number of spaces per nesting level when prettifying.
	Indent int
}

// elementSpec describes how a style is represented as an element.
type elementSpec struct {
	name        string
	selfClosing bool
	attrs       func(el *etree.Element, p document.Payload)
}

var paragraphElements = map[style.ID]elementSpec{
	style.H1:            {name: "h1"},
	style.H2:            {name: "h2"},
	style.H3:            {name: "h3"},
	style.H4:            {name: "h4"},
	style.H5:            {name: "h5"},
	style.H6:            {name: "h6"},
	style.BlockQuote:    {name: "blockquote"},
	style.CodeBlock:     {name: "codeblock"},
	style.UnorderedList: {name: "li"},
	style.OrderedList:   {name: "li"},
	style.Checklist: {name: "checklist", attrs: func(el *etree.Element, p document.Payload) {
		el.CreateAttr("checked", strconv.FormatBool(p.Checked))
	}},
	style.Divider: {name: "hr", selfClosing: true},
	style.Content: {name: "content", selfClosing: true, attrs: func(el *etree.Element, p document.Payload) {
		setAttr(el, "text", p.Text)
		setAttr(el, "type", p.Type)
		setAttr(el, "src", p.Src)
		setExtraAttrs(el, p.Attrs)
	}},
}

var inlineElements = map[style.ID]elementSpec{
	style.Bold:          {name: "b"},
	style.Italic:        {name: "i"},
	style.Underline:     {name: "u"},
	style.Strikethrough: {name: "s"},
	style.InlineCode:    {name: "code"},
	style.Link: {name: "a", attrs: func(el *etree.Element, p document.Payload) {
		el.CreateAttr("href", p.URL)
	}},
	style.Color: {name: "font", attrs: func(el *etree.Element, p document.Payload) {
		el.CreateAttr("color", p.Color.Hex())
	}},
	style.Mention: {name: "mention", attrs: func(el *etree.Element, p document.Payload) {
		el.CreateAttr("text", p.Text)
		el.CreateAttr("indicator", p.Indicator)
		setExtraAttrs(el, p.Attrs)
	}},
	style.Image: {name: "img", selfClosing: true, attrs: func(el *etree.Element, p document.Payload) {
		el.CreateAttr("src", p.Src)
		if p.Width > 0 {
			el.CreateAttr("width", strconv.Itoa(p.Width))
		}
		if p.Height > 0 {
			el.CreateAttr("height", strconv.Itoa(p.Height))
		}
	}},
}

func setAttr(el *etree.Element, key, value string) {
	if value != "" {
		el.CreateAttr(key, value)
	}
}

func setExtraAttrs(el *etree.Element, attrs map[string]string) {
	keys := slices.Collect(maps.Keys(attrs))
	sort.Sort(natural.StringSlice(keys))
	for _, k := range keys {
		el.CreateAttr(k, attrs[k])
	}
}

// Serializer produces canonical markup. Same document always results in the
// same output.
type Serializer struct {
	log      *zap.Logger
	opts     Options
	settings *etree.WriteSettings
}

func NewSerializer(log *zap.Logger, opts Options) *Serializer {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Indent <= 0 {
		opts.Indent = 2
	}
	return &Serializer{
		log:  log.Named("markup"),
		opts: opts,
		settings: &etree.WriteSettings{
			CanonicalText:    true,
			CanonicalAttrVal: true,
		},
	}
}

// Serialize is a shortcut for serializing with default options and no
// logging.
func Serialize(doc *document.Document, prettify bool) string {
	return NewSerializer(nil, Options{Prettify: prettify}).String(doc)
}

func (s *Serializer) String(doc *document.Document) string {
	var b strings.Builder
	// strings.Builder never fails
	_ = s.Write(&b, doc)
	return b.String()
}

// Write emits one element per paragraph, each on its own line. Consecutive
// paragraphs of the same bulleted or numbered list are grouped.
func (s *Serializer) Write(w io.Writer, doc *document.Document) error {
	bw := bufio.NewWriter(w)
	depth := 0
	if s.opts.Prettify {
		bw.WriteString("<html>\n")
		depth = 1
	}

	var paras []document.Range
	if doc.Len() > 0 {
		paras = doc.AllParagraphs()
	}
	s.log.Debug("Serializing document", zap.Int("runes", doc.Len()), zap.Int("paragraphs", len(paras)))
	for i := 0; i < len(paras); {
		id, grouped := listKind(doc, paras[i])
		if !grouped {
			s.writeElement(bw, depth, s.paragraph(doc, paras[i]))
			i++
			continue
		}
		name := "ul"
		if id == style.OrderedList {
			name = "ol"
		}
		s.writeLine(bw, depth, "<"+name+">")
		for ; i < len(paras); i++ {
			if next, ok := listKind(doc, paras[i]); !ok || next != id {
				break
			}
			s.writeElement(bw, depth+1, s.paragraph(doc, paras[i]))
		}
		s.writeLine(bw, depth, "</"+name+">")
	}

	if s.opts.Prettify {
		bw.WriteString("</html>\n")
	}
	return bw.Flush()
}

// listKind returns list style of paragraphs which are grouped under common
// list element.
func listKind(doc *document.Document, p document.Range) (style.ID, bool) {
	m, ok := doc.ParagraphMark(p)
	if !ok || (m.ID != style.UnorderedList && m.ID != style.OrderedList) {
		return 0, false
	}
	return m.ID, true
}

func (s *Serializer) indent(w *bufio.Writer, depth int) {
	if s.opts.Prettify {
		w.WriteString(strings.Repeat(" ", depth*s.opts.Indent))
	}
}

func (s *Serializer) writeLine(w *bufio.Writer, depth int, line string) {
	s.indent(w, depth)
	w.WriteString(line)
	w.WriteByte('\n')
}

func (s *Serializer) writeElement(w *bufio.Writer, depth int, el *etree.Element) {
	s.indent(w, depth)
	el.WriteTo(w, s.settings)
	w.WriteByte('\n')
}

func (s *Serializer) paragraph(doc *document.Document, p document.Range) *etree.Element {
	var el *etree.Element
	pm, styled := doc.ParagraphMark(p)
	align, aligned := paragraphAlignment(doc, p)
	switch {
	case styled:
		t := paragraphElements[pm.ID]
		el = etree.NewElement(t.name)
		if t.attrs != nil {
			t.attrs(el, pm.Payload)
		}
		if t.selfClosing {
			return el
		}
	case doc.IsEmptyParagraph(p) && !aligned:
		return etree.NewElement("br")
	default:
		el = etree.NewElement("p")
	}
	if aligned {
		el.CreateAttr("alignment", align.String())
	}
	s.inline(el, []rune(doc.Slice(p.Start, p.End)), inlineMarks(doc, p), 0, p.Len())
	if len(el.Child) == 0 {
		// force explicit end tag, empty styled paragraph must keep its frame
		el.CreateText("")
	}
	return el
}

// paragraphAlignment returns alignment of paragraph unless it is the default
// one.
func paragraphAlignment(doc *document.Document, p document.Range) (document.Align, bool) {
	a, ok := doc.MarkIn(style.Alignment, p)
	if !ok || a.Payload.Align == document.AlignDefault {
		return document.AlignDefault, false
	}
	return a.Payload.Align, true
}

// span is an inline mark clipped to paragraph, offsets are paragraph
// relative.
type span struct {
	id      style.ID
	start   int
	end     int
	order   uint64
	payload document.Payload
}

func inlineMarks(doc *document.Document, p document.Range) []span {
	var out []span
	for _, m := range doc.QueryAll(p.Start, p.End) {
		if m.ID.Family() != style.Inline {
			continue
		}
		s, e := max(m.Start, p.Start), min(m.End, p.End)
		if s >= e {
			continue
		}
		out = append(out, span{id: m.ID, start: s - p.Start, end: e - p.Start, order: m.Order(), payload: m.Payload})
	}
	return sortSpans(mergeSpans(sortSpans(out)))
}

func sortSpans(spans []span) []span {
	slices.SortStableFunc(spans, func(a, b span) int {
		switch {
		case a.start != b.start:
			return a.start - b.start
		case a.end != b.end:
			return b.end - a.end
		case a.id != b.id:
			return int(a.id) - int(b.id)
		case a.order < b.order:
			return -1
		case a.order > b.order:
			return 1
		}
		return 0
	})
	return spans
}

// mergeSpans joins touching or overlapping spans of the same style carrying
// equal payloads, images are never merged.
func mergeSpans(spans []span) []span {
	var out []span
	for _, sp := range spans {
		merged := false
		for i := range out {
			o := &out[i]
			if o.id == sp.id && sp.id != style.Image && sp.start <= o.end && o.start <= sp.end && o.payload.Equal(sp.payload) {
				o.start, o.end = min(o.start, sp.start), max(o.end, sp.end)
				o.order = min(o.order, sp.order)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, sp)
		}
	}
	return out
}

// inline emits text of [start, end) into parent nesting elements for spans.
// Spans must be sorted, the first span becomes an element and spans starting
// inside of it are nested, being split at its end when they extend further.
func (s *Serializer) inline(parent *etree.Element, text []rune, spans []span, start, end int) {
	pos := start
	for len(spans) > 0 {
		cur := spans[0]
		appendText(parent, text[pos:cur.start])

		var inner, rest []span
		for _, sp := range spans[1:] {
			switch {
			case sp.start >= cur.end:
				rest = append(rest, sp)
			case sp.end <= cur.end:
				inner = append(inner, sp)
			default:
				head, tail := sp, sp
				head.end, tail.start = cur.end, cur.end
				inner = append(inner, head)
				rest = append(rest, tail)
			}
		}

		t := inlineElements[cur.id]
		el := parent.CreateElement(t.name)
		if t.attrs != nil {
			t.attrs(el, cur.payload)
		}
		if !t.selfClosing {
			s.inline(el, text, sortSpans(inner), cur.start, cur.end)
			if len(el.Child) == 0 {
				// style carried by placeholder only
				parent.RemoveChild(el)
			}
		}
		spans = sortSpans(rest)
		pos = cur.end
	}
	appendText(parent, text[pos:end])
}

func appendText(parent *etree.Element, runes []rune) {
	var b strings.Builder
	for _, r := range runes {
		if r == document.Placeholder || r == document.ObjectReplacement {
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		parent.CreateText(b.String())
	}
}
