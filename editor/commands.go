package editor

import (
	"slices"

	"go.uber.org/zap"

	"rtdoc/document"
	"rtdoc/markup"
	"rtdoc/style"
)

// SetColor colors selected text. At collapsed caret the color is remembered
// and applied to text typed next.
func (e *Editor) SetColor(c document.RGB) bool {
	if b, ok := e.blockedBy(style.Color, e.sel); ok {
		e.log.Debug("Color is blocked", zap.Stringer("by", b))
		return false
	}
	if e.sel.Empty() {
		e.typingColor = &c
		e.notify()
		return true
	}
	e.doc.Remove(style.Color, e.sel.Start, e.sel.End)
	e.doc.Apply(style.Color, e.sel.Start, e.sel.End, document.Payload{Color: c})
	e.doc.Coalesce(style.Color)
	e.finish()
	return true
}

// SetColorString is SetColor for css color notation. Values which cannot be
// parsed result in black.
func (e *Editor) SetColorString(value string) bool {
	c, ok := markup.ParseColor(value)
	if !ok {
		e.log.Warn("Unable to parse color, using black", zap.String("color", value))
	}
	return e.SetColor(c)
}

// RemoveColor uncolors selected text or stops coloring typed text.
func (e *Editor) RemoveColor() bool {
	typing := e.typingColor != nil
	e.typingColor = nil
	switch {
	case e.isActive(style.Color) || (!e.sel.Empty() && e.present(style.Color, e.sel)):
		e.removeInline(style.Color, e.sel)
		e.finish()
		return true
	case typing:
		e.notify()
		return true
	}
	return false
}

// SetParagraphAlignment aligns every paragraph intersecting selection.
// Non-editable blocks are skipped.
func (e *Editor) SetParagraphAlignment(a document.Align) bool {
	changed := false
	for _, p := range slices.Backward(e.doc.Paragraphs(e.sel.Start, e.sel.End)) {
		if e.inBlock(p) {
			continue
		}
		if p.Empty() {
			if a == document.AlignDefault {
				continue
			}
			e.doc.InsertDetached(p.Start, string(document.Placeholder))
			e.shiftSelection(p.Start, 1)
			p.End++
		}
		e.doc.Remove(style.Alignment, p.Start, p.End)
		e.doc.Apply(style.Alignment, p.Start, p.End, document.Payload{Align: a})
		changed = true
	}
	if changed {
		e.finish()
	}
	return changed
}

// ToggleChecked flips state of the checklist item at caret.
func (e *Editor) ToggleChecked() bool {
	m, ok := e.doc.MarkIn(style.Checklist, e.doc.Paragraph(e.sel.Start))
	if !ok {
		return false
	}
	p := m.Payload
	p.Checked = !p.Checked
	e.doc.SetPayload(m, p)
	e.finish()
	return true
}
