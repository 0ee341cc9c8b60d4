package editor

import (
	"go.uber.org/zap"

	"rtdoc/document"
	"rtdoc/style"
)

// Replace substitutes text in [start, end) with s the way typing does and
// reconciles marks afterwards. Edits which would put text into a
// non-editable block paragraph are refused and false is returned.
func (e *Editor) Replace(start, end int, s string) bool {
	start = max(0, min(start, e.doc.Len()))
	end = max(0, min(end, e.doc.Len()))
	if end < start {
		start, end = end, start
	}
	if !e.acceptable(start, end, s) {
		e.log.Debug("Edit refused, non-editable block would be changed",
			zap.Int("start", start), zap.Int("end", end), zap.String("text", s))
		return false
	}
	caret := e.doc.Replace(start, end, s)
	e.placeCaret(caret)
	e.reconcile(start, caret)
	return true
}

// Type inserts s at caret replacing selected text.
func (e *Editor) Type(s string) bool {
	return e.Replace(e.sel.Start, e.sel.End, s)
}

// Backspace deletes selected text or the character before caret.
func (e *Editor) Backspace() bool {
	if !e.sel.Empty() {
		return e.Replace(e.sel.Start, e.sel.End, "")
	}
	if e.sel.Start == 0 {
		return false
	}
	return e.Replace(e.sel.Start-1, e.sel.Start, "")
}

// AfterTextChanged reconciles marks after the document text was changed
// directly. caret is the offset right after the edit and previousLength is
// the document length before it.
func (e *Editor) AfterTextChanged(caret, previousLength int) {
	caret = max(0, min(caret, e.doc.Len()))
	start := caret - max(0, e.doc.Len()-previousLength)
	e.placeCaret(caret)
	e.reconcile(max(0, start), caret)
}

// acceptable checks that after the edit every non-editable block still sits
// alone in its paragraph.
func (e *Editor) acceptable(start, end int, s string) bool {
	near := false
	for _, m := range e.doc.QueryAll(start-1, end+1) {
		if m.ID.Family() == style.Block {
			near = true
			break
		}
	}
	if !near {
		return true
	}
	trial := e.doc.Clone()
	trial.Replace(start, end, s)
	for _, m := range trial.Marks() {
		if m.ID.Family() == style.Block && trial.Paragraph(m.Start) != m.Range() {
			return false
		}
	}
	return true
}

// reconcile restores paragraph invariants after text in [start, caret) was
// inserted, possibly replacing some other text.
func (e *Editor) reconcile(start, caret int) {
	e.carrier = nil
	for id := range e.pending {
		if !id.IsParagraphScoped() {
			delete(e.pending, id)
		}
	}
	if len(e.doc.AllParagraphs()) < e.paragraphs {
		// newline was deleted
		e.clearParagraphPending()
	}

	if caret > start && e.doc.RuneAt(caret-1) == '\n' {
		e.clearParagraphPending()
		e.splitParagraph(caret - 1)
	}

	if e.typingColor != nil && caret > start && e.sel.Start > start {
		end := min(e.sel.Start, caret)
		e.doc.Remove(style.Color, start, end)
		e.doc.Apply(style.Color, start, end, document.Payload{Color: *e.typingColor})
		e.doc.Coalesce(style.Color)
	}

	e.doc.NormalizeParagraph(start)
	e.doc.NormalizeParagraph(e.sel.Start)
	e.sel = e.doc.NormalizeNonEmptyParagraphs(e.sel)
	e.doc.RenumberRange(min(start, e.sel.Start), max(start, e.sel.End))
	e.finish()
}

func (e *Editor) clearParagraphPending() {
	for id := range e.pending {
		if id.IsParagraphScoped() {
			delete(e.pending, id)
		}
	}
}

// splitParagraph handles newline typed at offset q. Paragraph scoped marks
// grown over the newline are trimmed back, continuous ones are copied into the
// new paragraph.
func (e *Editor) splitParagraph(q int) {
	prev := e.doc.Paragraph(q)
	next := e.doc.Paragraph(q + 1)
	if e.endList(prev, next, q) {
		return
	}

	var (
		kind, nextKind style.ID = -1, -1
		copies         []document.Mark
		align          *document.Mark
	)
	for _, m := range e.doc.QueryAll(q, q+1) {
		if !m.ID.IsParagraphScoped() || m.ID.Family() == style.Block || m.Start > q || m.End <= q {
			continue
		}
		if m.Start == q {
			// newline typed at the very start of the paragraph
			e.doc.Resize(m, q+1, m.End)
			continue
		}
		e.doc.Resize(m, m.Start, q)
		switch {
		case m.ID == style.Alignment:
			align = &m
		case kind < 0:
			kind = m.ID
			if style.Lookup(m.ID).Continuous {
				nextKind = m.ID
				copies = append(copies, m)
			}
		}
	}
	keepAlign := align != nil && kind == nextKind && align.Payload.Align != document.AlignDefault
	if len(copies) == 0 && !keepAlign {
		return
	}

	if next.Empty() {
		e.doc.InsertDetached(next.Start, string(document.Placeholder))
		e.shiftSelection(next.Start, 1)
		next.End++
	}
	for _, m := range copies {
		payload := m.Payload.Clone()
		if m.ID == style.Checklist {
			payload.Checked = false
		}
		e.doc.Apply(m.ID, next.Start, next.End, payload)
	}
	if keepAlign {
		e.doc.Apply(style.Alignment, next.Start, next.End, align.Payload)
	}
}

// endList handles newline typed at the end of an empty list item: the list
// ends and the item turns into an empty plain paragraph.
func (e *Editor) endList(prev, next document.Range, q int) bool {
	if prev.Empty() || !next.Empty() || !e.doc.IsEmptyParagraph(prev) {
		return false
	}
	listed := false
	for _, m := range e.doc.QueryAll(q, q+1) {
		listed = listed || (m.ID.Family() == style.List && m.Start <= prev.Start)
	}
	if !listed {
		return false
	}
	e.doc.Delete(q, q+1)
	e.doc.Delete(prev.Start, prev.End)
	e.placeCaret(prev.Start)
	e.log.Debug("List ended", zap.Int("at", prev.Start))
	return true
}
