package document

import (
	"slices"

	"rtdoc/style"
)

// Mark boundaries react differently to insertions happening exactly at them.
// Paragraph scoped marks (except non-editable blocks) absorb text inserted at
// either edge, simple inline styles absorb text typed at their end, links,
// mentions, images and blocks never grow.

func startInclusive(id style.ID) bool {
	f := id.Family()
	return f == style.Paragraph || f == style.List
}

func endInclusive(id style.ID) bool {
	switch id {
	case style.Link, style.Mention, style.Image:
		return false
	}
	return id.Family() != style.Block
}

// Insert places text at pos growing marks according to their boundary policy.
func (d *Document) Insert(pos int, s string) int {
	return d.insert(pos, []rune(s), true)
}

// InsertDetached places text at pos without growing any mark whose boundary
// is at pos. Marks strictly around pos still grow.
func (d *Document) InsertDetached(pos int, s string) int {
	return d.insert(pos, []rune(s), false)
}

func (d *Document) insert(pos int, runes []rune, grow bool) int {
	pos = max(0, min(pos, len(d.text)))
	n := len(runes)
	if n == 0 {
		return 0
	}
	d.text = slices.Insert(d.text, pos, runes...)
	for i := range d.marks {
		m := &d.marks[i]
		switch {
		case m.Start > pos:
			m.Start += n
			m.End += n
		case m.Start == pos:
			if grow && startInclusive(m.ID) {
				m.End += n
			} else {
				m.Start += n
				m.End += n
			}
		case m.End > pos:
			m.End += n
		case m.End == pos:
			if grow && endInclusive(m.ID) {
				m.End += n
			}
		}
	}
	return n
}

// Delete removes text in the clamped range. Mark boundaries inside of the
// range collapse to its start, marks left empty are dropped.
func (d *Document) Delete(start, end int) int {
	r := d.clamp(start, end)
	n := r.Len()
	if n == 0 {
		return 0
	}
	d.text = slices.Delete(d.text, r.Start, r.End)
	shift := func(x int) int {
		switch {
		case x <= r.Start:
			return x
		case x <= r.End:
			return r.Start
		}
		return x - n
	}
	kept := d.marks[:0]
	for _, m := range d.marks {
		m.Start, m.End = shift(m.Start), shift(m.End)
		if m.Start < m.End {
			kept = append(kept, m)
		}
	}
	d.marks = kept
	return n
}

// Replace substitutes text in range with s. Returns offset right after the
// inserted text.
func (d *Document) Replace(start, end int, s string) int {
	r := d.clamp(start, end)
	d.Delete(r.Start, r.End)
	return r.Start + d.Insert(r.Start, s)
}

// Fragment returns independent document holding the text of the range and
// portions of marks intersecting it.
func (d *Document) Fragment(start, end int) *Document {
	r := d.clamp(start, end)
	f := &Document{text: slices.Clone(d.text[r.Start:r.End])}
	for _, m := range d.Marks() {
		s, e := max(m.Start, r.Start), min(m.End, r.End)
		if s < e {
			f.Apply(m.ID, s-r.Start, e-r.Start, m.Payload)
		}
	}
	return f
}

// InsertDocument splices the whole of other document at pos. Existing marks
// do not grow into the inserted text. Returns the inserted length.
func (d *Document) InsertDocument(pos int, other *Document) int {
	pos = max(0, min(pos, len(d.text)))
	n := d.insert(pos, slices.Clone(other.text), false)
	for _, m := range other.Marks() {
		d.Apply(m.ID, m.Start+pos, m.End+pos, m.Payload)
	}
	return n
}

// StripMarks drops all marks for which drop returns true.
func (d *Document) StripMarks(drop func(Mark) bool) {
	d.marks = slices.DeleteFunc(d.marks, drop)
}
