// Package markup converts documents from and to the HTML-like markup dialect.
package markup

import (
	"errors"
	"fmt"
	stdhtml "html"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/html"
	"go.uber.org/zap"

	"rtdoc/document"
	"rtdoc/style"
)

// ErrTokenizer is returned when markup cannot be tokenized at all.
var ErrTokenizer = errors.New("unable to tokenize markup")

type frameKind int

const (
	inlineFrame frameKind = iota
	blockFrame
	listFrame
)

// frame is an open element on the parser stack.
type frame struct {
	tag     string
	kind    frameKind
	id      style.ID
	styled  bool
	start   int
	payload document.Payload
	align   string
	aligned bool

	// lists only
	ordered bool
	index   int
}

type pendingMark struct {
	id      style.ID
	start   int
	end     int
	payload document.Payload
}

// Parser builds documents from markup.
type Parser struct {
	log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("markup")}
}

// ParseString is a shortcut for parsing with no logging.
func ParseString(s string) (*document.Document, error) {
	return NewParser(nil).Parse(strings.NewReader(s))
}

// Parse reads markup from r and returns resulting document. Malformed markup
// is recovered silently, only input which cannot be tokenized results in
// error.
func (p *Parser) Parse(r io.Reader) (*document.Document, error) {
	b := &builder{log: p.log}
	l := html.NewLexer(parse.NewInput(r))

	var (
		tag     string
		attrs   map[string]string
		skipRaw bool
	)
	for {
		tt, data := l.Next()
		switch tt {
		case html.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %w", ErrTokenizer, err)
			}
			return b.finish(), nil
		case html.StartTagToken:
			tag, attrs = strings.ToLower(string(l.Text())), map[string]string{}
		case html.AttributeToken:
			if attrs != nil {
				attrs[string(l.AttrKey())] = attrValue(l.AttrVal())
			}
		case html.StartTagCloseToken, html.StartTagVoidToken:
			switch tag {
			case "script", "style", "title", "textarea":
				skipRaw = true
			default:
				b.start(tag, attrs)
			}
			tag, attrs = "", nil
		case html.EndTagToken:
			skipRaw = false
			b.end(strings.ToLower(strings.TrimSpace(string(l.Text()))))
		case html.TextToken:
			if skipRaw {
				skipRaw = false
				continue
			}
			b.text(stdhtml.UnescapeString(string(data)))
		default:
			// comments, doctype, svg and math are of no interest
			p.log.Debug("Skipping markup token", zap.Stringer("type", tt))
		}
	}
}

func attrValue(raw []byte) string {
	v := string(raw)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	} else if len(v) >= 1 && (v[0] == '"' || v[0] == '\'') {
		v = v[1:]
	}
	return stdhtml.UnescapeString(v)
}

// builder accumulates text and marks while markup is being read.
type builder struct {
	log   *zap.Logger
	buf   []rune
	marks []pendingMark
	stack []frame
}

var paragraphTags = map[string]style.ID{
	"h1":         style.H1,
	"h2":         style.H2,
	"h3":         style.H3,
	"h4":         style.H4,
	"h5":         style.H5,
	"h6":         style.H6,
	"blockquote": style.BlockQuote,
	"codeblock":  style.CodeBlock,
	"checklist":  style.Checklist,
}

var inlineTags = map[string]style.ID{
	"b":       style.Bold,
	"i":       style.Italic,
	"u":       style.Underline,
	"s":       style.Strikethrough,
	"strike":  style.Strikethrough,
	"code":    style.InlineCode,
	"a":       style.Link,
	"font":    style.Color,
	"mention": style.Mention,
}

func (b *builder) start(tag string, attrs map[string]string) {
	switch tag {
	case "br":
		b.buf = append(b.buf, '\n')
		return
	case "hr":
		b.selfClosingBlock(style.Divider, document.Payload{})
		return
	case "content":
		b.selfClosingBlock(style.Content, contentPayload(attrs))
		return
	case "img":
		b.image(attrs)
		return
	case "ul", "ol":
		b.ensureNewline()
		b.stack = append(b.stack, frame{tag: tag, kind: listFrame, ordered: tag == "ol", start: len(b.buf)})
		return
	case "li":
		b.ensureNewline()
		f := frame{tag: tag, kind: blockFrame, styled: true, id: style.UnorderedList, start: len(b.buf)}
		if lf := b.list(); lf != nil && lf.ordered {
			lf.index++
			f.id, f.payload.Index = style.OrderedList, lf.index
		}
		f.align, f.aligned = attrs["alignment"]
		b.stack = append(b.stack, f)
		return
	case "p":
		b.ensureNewline()
		f := frame{tag: tag, kind: blockFrame, start: len(b.buf)}
		f.align, f.aligned = attrs["alignment"]
		b.stack = append(b.stack, f)
		return
	}

	if id, ok := paragraphTags[tag]; ok {
		b.ensureNewline()
		f := frame{tag: tag, kind: blockFrame, styled: true, id: id, start: len(b.buf)}
		if id == style.Checklist {
			f.payload.Checked = isTrue(attrs, "checked")
		}
		f.align, f.aligned = attrs["alignment"]
		b.stack = append(b.stack, f)
		return
	}

	id, ok := inlineTags[tag]
	if !ok {
		b.log.Debug("Ignoring unknown tag", zap.String("tag", tag))
		return
	}
	f := frame{tag: tag, kind: inlineFrame, styled: true, id: id, start: len(b.buf)}
	switch id {
	case style.Link:
		f.payload.URL = attrs["href"]
	case style.Color:
		c, ok := ParseColor(attrs["color"])
		if !ok {
			b.log.Warn("Unable to parse color, using black", zap.String("color", attrs["color"]))
		}
		f.payload.Color = c
	case style.Mention:
		f.payload.Text = attrs["text"]
		f.payload.Indicator = attrs["indicator"]
		f.payload.Attrs = extraAttrs(attrs, "text", "indicator")
	}
	b.stack = append(b.stack, f)
}

// end pops the nearest frame with matching tag together with every frame
// opened after it. Unmatched end tags are ignored.
func (b *builder) end(tag string) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].tag != tag {
			continue
		}
		for len(b.stack) > i {
			b.pop()
		}
		return
	}
	b.log.Debug("Ignoring unmatched end tag", zap.String("tag", tag))
}

func (b *builder) pop() {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	switch f.kind {
	case inlineFrame:
		if len(b.buf) > f.start {
			b.marks = append(b.marks, pendingMark{id: f.id, start: f.start, end: len(b.buf), payload: f.payload})
		}
	case listFrame:
		b.ensureNewline()
	case blockFrame:
		if len(b.buf) > f.start && b.buf[len(b.buf)-1] == '\n' {
			b.buf = b.buf[:len(b.buf)-1]
		}
		if len(b.buf) == f.start {
			b.buf = append(b.buf, document.Placeholder)
		}
		for _, r := range b.paragraphs(f.start, len(b.buf)) {
			if f.styled {
				b.marks = append(b.marks, pendingMark{id: f.id, start: r.Start, end: r.End, payload: f.payload})
			}
			if f.aligned {
				b.marks = append(b.marks, pendingMark{
					id: style.Alignment, start: r.Start, end: r.End,
					payload: document.Payload{Align: document.ParseAlign(f.align)},
				})
			}
		}
		b.buf = append(b.buf, '\n')
	}
}

// paragraphs splits range on newlines, empty paragraphs get no marks.
func (b *builder) paragraphs(start, end int) []document.Range {
	var out []document.Range
	s := start
	for i := start; i <= end; i++ {
		if i == end || b.buf[i] == '\n' {
			if i > s {
				out = append(out, document.Range{Start: s, End: i})
			}
			s = i + 1
		}
	}
	return out
}

func (b *builder) list() *frame {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].kind == listFrame {
			return &b.stack[i]
		}
	}
	return nil
}

func (b *builder) ensureNewline() {
	if len(b.buf) > 0 && b.buf[len(b.buf)-1] != '\n' {
		b.buf = append(b.buf, '\n')
	}
}

func (b *builder) selfClosingBlock(id style.ID, payload document.Payload) {
	b.ensureNewline()
	b.marks = append(b.marks, pendingMark{id: id, start: len(b.buf), end: len(b.buf) + 1, payload: payload})
	b.buf = append(b.buf, document.Placeholder, '\n')
}

func (b *builder) image(attrs map[string]string) {
	payload := document.Payload{Src: attrs["src"]}
	payload.Width, _ = strconv.Atoi(attrs["width"])
	payload.Height, _ = strconv.Atoi(attrs["height"])
	b.marks = append(b.marks, pendingMark{id: style.Image, start: len(b.buf), end: len(b.buf) + 1, payload: payload})
	b.buf = append(b.buf, document.ObjectReplacement)
}

// text appends character data collapsing whitespace runs into single space.
// Whitespace is dropped entirely at the start of paragraph.
func (b *builder) text(s string) {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if len(b.buf) == 0 {
				continue
			}
			if last := b.buf[len(b.buf)-1]; last == ' ' || last == '\n' {
				continue
			}
			r = ' '
		}
		b.buf = append(b.buf, r)
	}
}

func (b *builder) finish() *document.Document {
	for len(b.stack) > 0 {
		b.pop()
	}
	doc := document.FromText(string(b.buf))
	for _, m := range b.marks {
		doc.Apply(m.id, m.start, m.end, m.payload)
	}
	doc.NormalizeAll()
	doc.RenumberAll()
	return doc
}

func contentPayload(attrs map[string]string) document.Payload {
	return document.Payload{
		Text:  attrs["text"],
		Type:  attrs["type"],
		Src:   attrs["src"],
		Attrs: extraAttrs(attrs, "text", "type", "src"),
	}
}

func extraAttrs(attrs map[string]string, known ...string) map[string]string {
	out := maps.Clone(attrs)
	maps.DeleteFunc(out, func(k, _ string) bool { return slices.Contains(known, k) })
	if len(out) == 0 {
		return nil
	}
	return out
}

func isTrue(attrs map[string]string, key string) bool {
	v, ok := attrs[key]
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "", "true", "1", "checked", "yes":
		return true
	}
	return false
}
