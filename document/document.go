// Package document implements text buffer annotated with style marks. All
// offsets are rune offsets, ranges are half-open.
package document

import (
	"slices"
	"unicode/utf8"

	"rtdoc/style"
)

const (
	// Placeholder carries marks on otherwise empty paragraphs and is the single
	// character of non-editable blocks.
	Placeholder = '\u200B'
	// ObjectReplacement is the character inline images occupy.
	ObjectReplacement = '\uFFFC'
)

// Range is half-open interval of buffer offsets.
type Range struct {
	Start, End int
}

func (r Range) Len() int {
	return r.End - r.Start
}

func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Overlaps reports whether both ranges share at least one offset.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// Mark is a copy of style annotation kept by the document. Changing a Mark
// value never affects the document, use document methods for that.
type Mark struct {
	ID      style.ID
	Start   int
	End     int
	Payload Payload

	key   uint64
	order uint64
}

func (m Mark) Range() Range {
	return Range{m.Start, m.End}
}

func (m Mark) Len() int {
	return m.End - m.Start
}

// Order returns creation order of the mark. Parts of a split mark share the
// order of the original.
func (m Mark) Order() uint64 {
	return m.order
}

// Valid reports whether the mark was obtained from a document.
func (m Mark) Valid() bool {
	return m.key != 0
}

// Document is text buffer with style marks. It is not safe for concurrent use.
type Document struct {
	text  []rune
	marks []Mark
	seq   uint64
}

func New() *Document {
	return &Document{}
}

// FromText returns unstyled document holding text.
func FromText(text string) *Document {
	return &Document{text: []rune(text)}
}

func (d *Document) Len() int {
	return len(d.text)
}

func (d *Document) Text() string {
	return string(d.text)
}

// Slice returns text in range, range is clamped.
func (d *Document) Slice(start, end int) string {
	r := d.clamp(start, end)
	return string(d.text[r.Start:r.End])
}

// RuneAt returns rune at offset or utf8.RuneError when out of bounds.
func (d *Document) RuneAt(pos int) rune {
	if pos < 0 || pos >= len(d.text) {
		return utf8.RuneError
	}
	return d.text[pos]
}

// Clone returns independent copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{
		text:  slices.Clone(d.text),
		marks: make([]Mark, len(d.marks)),
		seq:   d.seq,
	}
	for i, m := range d.marks {
		m.Payload = m.Payload.Clone()
		c.marks[i] = m
	}
	return c
}

func (d *Document) clamp(start, end int) Range {
	start = max(0, min(start, len(d.text)))
	end = max(0, min(end, len(d.text)))
	if end < start {
		start, end = end, start
	}
	return Range{start, end}
}

func (d *Document) next() uint64 {
	d.seq++
	return d.seq
}

func (d *Document) find(key uint64) int {
	return slices.IndexFunc(d.marks, func(m Mark) bool { return m.key == key })
}

func (d *Document) add(m Mark) Mark {
	m.key = d.next()
	if m.order == 0 {
		m.order = m.key
	}
	m.Payload = m.Payload.Clone()
	d.marks = append(d.marks, m)
	return m.copy()
}

func (m Mark) copy() Mark {
	m.Payload = m.Payload.Clone()
	return m
}

// Marks returns copies of all marks in document order: by start offset, then
// longer marks first, then by style and creation order.
func (d *Document) Marks() []Mark {
	out := make([]Mark, 0, len(d.marks))
	for _, m := range d.marks {
		out = append(out, m.copy())
	}
	SortMarks(out)
	return out
}

// SortMarks orders marks the way Marks does.
func SortMarks(marks []Mark) {
	slices.SortStableFunc(marks, func(a, b Mark) int {
		switch {
		case a.Start != b.Start:
			return a.Start - b.Start
		case a.End != b.End:
			return b.End - a.End
		case a.ID != b.ID:
			return int(a.ID) - int(b.ID)
		case a.order < b.order:
			return -1
		case a.order > b.order:
			return 1
		}
		return 0
	})
}

func touches(m Mark, r Range) bool {
	if r.Empty() {
		return m.Start <= r.Start && r.Start <= m.End
	}
	return m.Start < r.End && r.Start < m.End
}

// Query returns marks of given style intersecting the range. For collapsed
// range marks touching the offset from either side are returned as well.
func (d *Document) Query(id style.ID, start, end int) []Mark {
	r := d.clamp(start, end)
	var out []Mark
	for _, m := range d.marks {
		if m.ID == id && touches(m, r) {
			out = append(out, m.copy())
		}
	}
	SortMarks(out)
	return out
}

// QueryAll is Query for every style.
func (d *Document) QueryAll(start, end int) []Mark {
	r := d.clamp(start, end)
	var out []Mark
	for _, m := range d.marks {
		if touches(m, r) {
			out = append(out, m.copy())
		}
	}
	SortMarks(out)
	return out
}

// Covering returns marks of given style fully containing the range.
func (d *Document) Covering(id style.ID, start, end int) []Mark {
	r := d.clamp(start, end)
	var out []Mark
	for _, m := range d.marks {
		if m.ID == id && m.Start <= r.Start && r.End <= m.End {
			out = append(out, m.copy())
		}
	}
	SortMarks(out)
	return out
}

// Has reports whether any mark of the style intersects the range.
func (d *Document) Has(id style.ID, start, end int) bool {
	r := d.clamp(start, end)
	for _, m := range d.marks {
		if m.ID == id && touches(m, r) {
			return true
		}
	}
	return false
}

// Apply adds new mark over clamped range. Empty ranges are refused and
// false is returned.
func (d *Document) Apply(id style.ID, start, end int, payload Payload) (Mark, bool) {
	if !id.Valid() {
		return Mark{}, false
	}
	r := d.clamp(start, end)
	if r.Empty() {
		return Mark{}, false
	}
	return d.add(Mark{ID: id, Start: r.Start, End: r.End, Payload: payload}), true
}

// Copy adds duplicate of the mark with the same payload over a new range.
func (d *Document) Copy(m Mark, start, end int) (Mark, bool) {
	return d.Apply(m.ID, start, end, m.Payload)
}

// Remove deletes the covered portion of every mark of the style overlapping
// the range. Parts of the marks outside of the range survive as separate
// marks retaining original payload and order.
func (d *Document) Remove(id style.ID, start, end int) {
	r := d.clamp(start, end)
	if r.Empty() {
		return
	}
	kept := d.marks[:0:0]
	var survivors []Mark
	for _, m := range d.marks {
		if m.ID != id || !m.Range().Overlaps(r) {
			kept = append(kept, m)
			continue
		}
		if m.Start < r.Start {
			left := m
			left.End = r.Start
			survivors = append(survivors, left)
		}
		if r.End < m.End {
			right := m
			right.Start = r.End
			survivors = append(survivors, right)
		}
	}
	d.marks = kept
	for i, m := range survivors {
		if i > 0 && survivors[i-1].key == m.key {
			// both sides of the same mark, the right part needs new identity
			m.key = 0
			d.add(m)
			continue
		}
		d.marks = append(d.marks, m)
	}
}

// RemoveMark deletes the mark entirely.
func (d *Document) RemoveMark(m Mark) bool {
	i := d.find(m.key)
	if i < 0 {
		return false
	}
	d.marks = slices.Delete(d.marks, i, i+1)
	return true
}

// Resize moves mark boundaries. Resizing to empty range removes the mark.
func (d *Document) Resize(m Mark, start, end int) (Mark, bool) {
	i := d.find(m.key)
	if i < 0 {
		return Mark{}, false
	}
	r := d.clamp(start, end)
	if r.Empty() {
		d.marks = slices.Delete(d.marks, i, i+1)
		return Mark{}, false
	}
	d.marks[i].Start, d.marks[i].End = r.Start, r.End
	return d.marks[i].copy(), true
}

// SetPayload replaces payload of the mark.
func (d *Document) SetPayload(m Mark, p Payload) bool {
	i := d.find(m.key)
	if i < 0 {
		return false
	}
	d.marks[i].Payload = p.Clone()
	return true
}

// Lookup returns current state of the mark.
func (d *Document) Lookup(m Mark) (Mark, bool) {
	i := d.find(m.key)
	if i < 0 {
		return Mark{}, false
	}
	return d.marks[i].copy(), true
}

// Coalesce merges overlapping or touching marks of the style which carry
// equal payloads. The earliest of merged marks survives.
func (d *Document) Coalesce(id style.ID) {
	var same []Mark
	for _, m := range d.marks {
		if m.ID == id {
			same = append(same, m)
		}
	}
	if len(same) < 2 {
		return
	}
	SortMarks(same)
	for i := 0; i < len(same); i++ {
		cur := same[i]
		for j := i + 1; j < len(same); j++ {
			next := same[j]
			if next.Start > cur.End || !cur.Payload.Equal(next.Payload) {
				continue
			}
			if next.order < cur.order {
				cur.order = next.order
			}
			cur.End = max(cur.End, next.End)
			d.RemoveMark(next)
			same = slices.Delete(same, j, j+1)
			j = i
		}
		if k := d.find(cur.key); k >= 0 {
			d.marks[k].End = cur.End
			d.marks[k].order = cur.order
		}
		same[i] = cur
	}
}
