package editor

import (
	"maps"
	"strings"

	"go.uber.org/zap"

	"rtdoc/document"
	"rtdoc/style"
)

// hasBlock reports fragments holding a non-editable block anywhere.
func hasBlock(frag *document.Document) bool {
	for _, m := range frag.Marks() {
		if m.ID.Family() == style.Block {
			return true
		}
	}
	return false
}

// InsertFragment pastes styled fragment over [start, end). Paragraph styles
// of the destination win over those of the fragment, except when the target
// is an empty paragraph. Fragments with blocks are placed in paragraphs of
// their own.
func (e *Editor) InsertFragment(start, end int, frag *document.Document) {
	if frag == nil || frag.Len() == 0 {
		return
	}
	start = max(0, min(start, e.doc.Len()))
	end = max(0, min(end, e.doc.Len()))
	if end < start {
		start, end = end, start
	}
	if shrunk := e.deletableEnd(start, end); shrunk != end {
		e.log.Debug("Replaced range shrunk, non-editable block would be changed",
			zap.Int("start", start), zap.Int("end", end), zap.Int("to", shrunk))
		end = shrunk
	}
	frag = frag.Clone()
	e.carrier = nil

	para := e.doc.Paragraph(start)
	block := hasBlock(frag)
	targetBlock := e.inBlock(para)

	var from, to int
	switch {
	case start == end && para.Empty():
		from = start
		to = from + e.doc.InsertDocument(from, frag)
	case block || targetBlock:
		if !targetBlock && start < end {
			e.doc.Delete(start, end)
			para = e.doc.Paragraph(start)
		}
		from = para.Start
		if !para.Empty() {
			e.doc.InsertDetached(para.End, "\n")
			from = para.End + 1
		}
		to = from + e.doc.InsertDocument(from, frag)
	default:
		from, to = e.mergeFragment(para, start, end, frag)
	}

	if e.inBlock(e.doc.Paragraph(to - 1)) {
		// blocks are followed by a newline so typing can continue
		if e.doc.RuneAt(to) != '\n' {
			e.doc.InsertDetached(to, "\n")
		}
		to++
	}
	e.log.Debug("Fragment inserted", zap.Int("start", from), zap.Int("end", to))

	e.placeCaret(to)
	// text before start is untouched, so para.Start still opens the edit
	for _, p := range e.doc.Paragraphs(para.Start, e.sel.Start) {
		e.doc.NormalizeParagraph(p.Start)
	}
	e.doc.NormalizeParagraph(e.sel.Start)
	e.sel = e.doc.NormalizeNonEmptyParagraphs(e.sel)
	e.doc.RenumberRange(para.Start, e.sel.End)
	e.finish()
}

// deletableEnd shrinks [start, end) until removing it keeps every
// non-editable block alone in its paragraph.
func (e *Editor) deletableEnd(start, end int) int {
	for end > start && !e.acceptable(start, end, "") {
		end--
	}
	return end
}

func (e *Editor) inBlock(p document.Range) bool {
	for _, m := range e.doc.QueryAll(p.Start, p.End) {
		if m.ID.Family() == style.Block && m.Range().Overlaps(p) {
			return true
		}
	}
	return false
}

// mergeFragment splices fragment text into paragraph para keeping paragraph
// styles of the destination. Returns bounds of the inserted text.
func (e *Editor) mergeFragment(para document.Range, start, end int, frag *document.Document) (int, int) {
	frag.StripMarks(func(m document.Mark) bool {
		return m.ID.IsParagraphScoped()
	})

	original := e.doc.ParagraphMarks(para)
	if a, ok := e.doc.MarkIn(style.Alignment, para); ok {
		original = append(original, a)
	}

	separate := strings.ContainsRune(frag.Text(), '\n') && start == end && start == para.End && !para.Empty()
	if separate {
		// multi-paragraph text pasted at paragraph end starts on a new line
		e.doc.InsertDetached(start, "\n")
		start++
		end++
	}

	e.doc.Delete(start, end)
	to := start + e.doc.InsertDocument(start, frag)
	if separate || len(original) == 0 {
		return start, to
	}

	// destination marks grew over inserted newlines and marks of a joined
	// paragraph were clamped into it, clear the whole span before copying
	merged := document.Range{Start: para.Start, End: e.doc.Paragraph(to).End}
	for _, m := range e.doc.QueryAll(merged.Start, merged.End) {
		if m.ID.IsParagraphScoped() && m.ID.Family() != style.Block {
			e.doc.Remove(m.ID, merged.Start, merged.End)
		}
	}
	for _, p := range e.doc.Paragraphs(merged.Start, merged.End) {
		if p.Empty() || e.inBlock(p) {
			continue
		}
		for _, m := range original {
			e.doc.Copy(m, p.Start, p.End)
		}
	}
	return start, to
}

// SetLink replaces [start, end) with text linked to url. Empty text keeps the
// existing text of the range.
func (e *Editor) SetLink(start, end int, text, url string) bool {
	r := document.Range{Start: max(0, min(start, end)), End: min(e.doc.Len(), max(start, end))}
	if b, ok := e.blockedBy(style.Link, r); ok {
		e.log.Debug("Link is blocked", zap.Stringer("by", b))
		return false
	}
	var frag *document.Document
	if text == "" {
		if r.Empty() {
			return false
		}
		frag = e.doc.Fragment(r.Start, r.End)
	} else {
		frag = document.FromText(text)
	}
	frag.StripMarks(func(m document.Mark) bool {
		return m.ID == style.Link || m.ID == style.Mention || m.ID == style.InlineCode
	})
	frag.Apply(style.Link, 0, frag.Len(), document.Payload{URL: url})
	e.InsertFragment(r.Start, r.End, frag)
	return true
}

// RemoveLink drops links found at selection keeping their text.
func (e *Editor) RemoveLink() bool {
	if !e.removeWhole(style.Link) {
		return false
	}
	e.finish()
	return true
}

// InsertMention replaces [start, end), usually the indicator with a typed
// query, with mention text followed by a space.
func (e *Editor) InsertMention(start, end int, indicator, text string, attrs map[string]string) bool {
	r := document.Range{Start: max(0, min(start, end)), End: min(e.doc.Len(), max(start, end))}
	if b, ok := e.blockedBy(style.Mention, r); ok {
		e.log.Debug("Mention is blocked", zap.Stringer("by", b))
		return false
	}
	if text == "" {
		return false
	}
	frag := document.FromText(text + " ")
	frag.Apply(style.Mention, 0, len([]rune(text)), document.Payload{
		Text:      text,
		Indicator: indicator,
		Attrs:     maps.Clone(attrs),
	})
	e.InsertFragment(r.Start, r.End, frag)
	return true
}

// InsertImage places inline image at [start, end).
func (e *Editor) InsertImage(start, end int, src string, width, height int) bool {
	r := document.Range{Start: max(0, min(start, end)), End: min(e.doc.Len(), max(start, end))}
	if b, ok := e.blockedBy(style.Image, r); ok {
		e.log.Debug("Image is blocked", zap.Stringer("by", b))
		return false
	}
	frag := document.FromText(string(document.ObjectReplacement))
	frag.Apply(style.Image, 0, 1, document.Payload{Src: src, Width: width, Height: height})
	e.InsertFragment(r.Start, r.End, frag)
	return true
}

// InsertDivider places horizontal rule after paragraph at caret.
func (e *Editor) InsertDivider() {
	frag := document.FromText(string(document.Placeholder))
	frag.Apply(style.Divider, 0, 1, document.Payload{})
	e.InsertFragment(e.sel.Start, e.sel.End, frag)
}

// InsertContent places embedded content block after paragraph at caret.
func (e *Editor) InsertContent(typ, src, text string, attrs map[string]string) {
	frag := document.FromText(string(document.Placeholder))
	frag.Apply(style.Content, 0, 1, document.Payload{
		Type:  typ,
		Src:   src,
		Text:  text,
		Attrs: maps.Clone(attrs),
	})
	e.InsertFragment(e.sel.Start, e.sel.End, frag)
}
