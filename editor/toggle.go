package editor

import (
	"slices"

	"go.uber.org/zap"

	"rtdoc/document"
	"rtdoc/style"
)

// activeAt reports whether typing at collapsed caret p would continue mark m.
func activeAt(m document.Mark, p int) bool {
	switch m.ID {
	case style.Link, style.Mention, style.Image:
		return m.Start < p && p < m.End
	}
	return m.Start < p && p <= m.End
}

// inlineSetAt returns inline styles in effect at collapsed caret.
func (e *Editor) inlineSetAt(p int) style.Set {
	var s style.Set
	for _, m := range e.doc.QueryAll(p, p) {
		if m.ID.Family() == style.Inline && m.ID != style.Image && activeAt(m, p) {
			s = s.With(m.ID)
		}
	}
	return s
}

// inlineMark returns the mark of an inline style active over r.
func (e *Editor) inlineMark(id style.ID, r document.Range) (document.Mark, bool) {
	if r.Empty() {
		for _, m := range e.doc.Query(id, r.Start, r.Start) {
			if activeAt(m, r.Start) {
				return m, true
			}
		}
		return document.Mark{}, false
	}
	if ms := e.doc.Covering(id, r.Start, r.End); len(ms) > 0 {
		return ms[0], true
	}
	return document.Mark{}, false
}

// paragraphActive reports whether every paragraph carries mark of the style
// with exact bounds.
func (e *Editor) paragraphActive(id style.ID, paras []document.Range) bool {
	for _, p := range paras {
		if p.Empty() {
			return false
		}
		if _, ok := e.doc.ExactMark(id, p); !ok {
			return false
		}
	}
	return len(paras) > 0
}

// isActive reports whether style is in effect over current selection.
func (e *Editor) isActive(id style.ID) bool {
	if id.IsParagraphScoped() {
		return e.paragraphActive(id, e.doc.Paragraphs(e.sel.Start, e.sel.End))
	}
	_, ok := e.inlineMark(id, e.sel)
	return ok
}

// bounds returns range covered by paragraphs.
func bounds(paras []document.Range) document.Range {
	return document.Range{Start: paras[0].Start, End: paras[len(paras)-1].End}
}

// target returns range a style would be applied to for current selection.
func (e *Editor) target(id style.ID) document.Range {
	if id.IsParagraphScoped() {
		return bounds(e.doc.Paragraphs(e.sel.Start, e.sel.End))
	}
	return e.sel
}

// present reports whether style shows up anywhere in range r.
func (e *Editor) present(id style.ID, r document.Range) bool {
	if id.IsParagraphScoped() {
		for _, p := range e.doc.Paragraphs(r.Start, r.End) {
			if _, ok := e.doc.MarkIn(id, p); ok {
				return true
			}
		}
		return false
	}
	if r.Empty() {
		_, ok := e.inlineMark(id, r)
		return ok
	}
	for _, m := range e.doc.Query(id, r.Start, r.End) {
		if m.Range().Overlaps(r) {
			return true
		}
	}
	return false
}

// blockedBy returns the first style preventing id from being applied over r.
func (e *Editor) blockedBy(id style.ID, r document.Range) (style.ID, bool) {
	for _, b := range style.Lookup(id).Blocking.IDs() {
		if e.present(b, r) {
			return b, true
		}
	}
	return 0, false
}

// Toggle flips style over current selection. It returns false when nothing
// changed: style is blocked, has no meaning without payload or is applied
// through a dedicated command.
func (e *Editor) Toggle(id style.ID) bool {
	if !id.Valid() {
		return false
	}
	var changed bool
	switch {
	case id == style.Alignment || id.Family() == style.Block:
		e.log.Debug("Style cannot be toggled", zap.Stringer("style", id))
		return false
	case id == style.Link || id == style.Mention || id == style.Image:
		// applied with payload only, toggling removes
		if !e.isActive(id) {
			return false
		}
		changed = e.removeWhole(id)
	case id == style.Color:
		if !e.isActive(id) {
			return false
		}
		changed = e.toggleInline(id, document.Payload{})
	case id.IsParagraphScoped():
		changed = e.toggleParagraph(id)
	default:
		changed = e.toggleInline(id, document.Payload{})
	}
	if changed {
		e.finish()
	}
	return changed
}

func (e *Editor) toggleInline(id style.ID, payload document.Payload) bool {
	r := e.sel
	if e.isActive(id) {
		e.removeInline(id, r)
		return true
	}
	if b, ok := e.blockedBy(id, r); ok {
		e.log.Debug("Style is blocked", zap.Stringer("style", id), zap.Stringer("by", b))
		return false
	}
	e.applyInline(id, payload, r)
	return true
}

// applyInline strips conflicting styles and applies id over r. Collapsed
// caret gets a styled placeholder to type after.
func (e *Editor) applyInline(id style.ID, payload document.Payload, r document.Range) {
	if !r.Empty() {
		for _, c := range style.Lookup(id).Conflicting.IDs() {
			e.doc.Remove(c, r.Start, r.End)
		}
		e.doc.Remove(id, r.Start, r.End)
		e.doc.Apply(id, r.Start, r.End, payload)
		e.doc.Coalesce(id)
		return
	}
	pos := e.carrierAt(r.Start)
	for _, c := range style.Lookup(id).Conflicting.IDs() {
		e.doc.Remove(c, pos, pos+1)
	}
	e.doc.Apply(id, pos, pos+1, payload)
	e.doc.Coalesce(id)
	e.pending[id] = pos
	e.dropIdleCarrier()
}

// removeInline removes id from r. At collapsed caret the style is cut at a
// placeholder so that typed text does not continue it.
func (e *Editor) removeInline(id style.ID, r document.Range) {
	delete(e.pending, id)
	if !r.Empty() {
		e.doc.Remove(id, r.Start, r.End)
		return
	}
	pos := e.carrierAt(r.Start)
	e.doc.Remove(id, pos, pos+1)
	e.dropIdleCarrier()
}

// removeWhole drops every mark of the style active over selection entirely.
func (e *Editor) removeWhole(id style.ID) bool {
	var found bool
	for {
		m, ok := e.inlineMark(id, e.sel)
		if !ok {
			break
		}
		e.doc.RemoveMark(m)
		found = true
	}
	delete(e.pending, id)
	return found
}

// carrierAt returns offset of the carrier placeholder right before caret p,
// inserting one if needed.
func (e *Editor) carrierAt(p int) int {
	if e.carrier != nil && e.carrier.pos == p-1 && e.doc.RuneAt(p-1) == document.Placeholder {
		return p - 1
	}
	natural := e.inlineSetAt(p)
	e.doc.Insert(p, string(document.Placeholder))
	e.placeCaret(p + 1)
	e.carrier = &carrier{pos: p, natural: natural}
	return p
}

// dropIdleCarrier deletes carrier placeholder once inline styles on it are
// the same as they were before it was inserted.
func (e *Editor) dropIdleCarrier() {
	c := e.carrier
	if c == nil {
		return
	}
	var cur style.Set
	for _, m := range e.doc.QueryAll(c.pos, c.pos+1) {
		if m.ID.Family() == style.Inline && m.Start <= c.pos && c.pos+1 <= m.End {
			cur = cur.With(m.ID)
		}
	}
	if cur != c.natural {
		return
	}
	e.doc.Delete(c.pos, c.pos+1)
	e.placeCaret(c.pos)
	e.carrier = nil
	for id, p := range e.pending {
		if p == c.pos && !id.IsParagraphScoped() {
			delete(e.pending, id)
		}
	}
}

func (e *Editor) toggleParagraph(id style.ID) bool {
	paras := e.doc.Paragraphs(e.sel.Start, e.sel.End)
	r := bounds(paras)
	if e.paragraphActive(id, paras) {
		for _, p := range slices.Backward(paras) {
			e.doc.Remove(id, p.Start, p.End)
		}
		delete(e.pending, id)
		e.doc.RenumberRange(r.Start, r.End)
		return true
	}
	if b, ok := e.blockedBy(id, r); ok {
		e.log.Debug("Style is blocked", zap.Stringer("style", id), zap.Stringer("by", b))
		return false
	}

	conflicting := style.Lookup(id).Conflicting.IDs()
	for _, p := range slices.Backward(paras) {
		if p.Empty() {
			e.doc.InsertDetached(p.Start, string(document.Placeholder))
			// caret at the paragraph ends up after the placeholder
			e.shiftSelection(p.Start, 1)
			p.End++
			r.End++
		}
		for _, c := range conflicting {
			e.doc.Remove(c, p.Start, p.End)
		}
		e.doc.Remove(id, p.Start, p.End)
		e.doc.Apply(id, p.Start, p.End, document.Payload{})
	}
	e.pending[id] = r.Start
	e.doc.RenumberRange(r.Start, r.End)
	return true
}
