package document

import (
	"slices"

	"rtdoc/style"
)

// Paragraph returns bounds of the paragraph containing pos. The terminating
// newline does not belong to the range. Offset of a newline belongs to the
// paragraph the newline terminates.
func (d *Document) Paragraph(pos int) Range {
	pos = max(0, min(pos, len(d.text)))
	start := 0
	for i := pos - 1; i >= 0; i-- {
		if d.text[i] == '\n' {
			start = i + 1
			break
		}
	}
	end := len(d.text)
	if i := slices.Index(d.text[pos:], '\n'); i >= 0 {
		end = pos + i
	}
	return Range{start, end}
}

// Paragraphs returns bounds of all paragraphs intersecting the range. A
// non-empty range ending right after a newline does not include the
// paragraph following that newline.
func (d *Document) Paragraphs(start, end int) []Range {
	r := d.clamp(start, end)
	var out []Range
	pos := r.Start
	for {
		p := d.Paragraph(pos)
		out = append(out, p)
		if p.End >= r.End || p.End >= len(d.text) {
			break
		}
		pos = p.End + 1
		if pos >= r.End && !r.Empty() {
			break
		}
	}
	return out
}

// AllParagraphs returns bounds of every paragraph in the document.
func (d *Document) AllParagraphs() []Range {
	return d.Paragraphs(0, len(d.text))
}

// ParagraphMarks returns all paragraph kind marks (alignment excluded)
// intersecting paragraph p.
func (d *Document) ParagraphMarks(p Range) []Mark {
	var out []Mark
	for _, m := range d.marks {
		if m.ID.IsParagraphKind() && intersects(m, p) {
			out = append(out, m.copy())
		}
	}
	sortByOrder(out)
	return out
}

// ParagraphMark returns the paragraph kind mark of the paragraph. When several
// are present the earliest applied wins.
func (d *Document) ParagraphMark(p Range) (Mark, bool) {
	marks := d.ParagraphMarks(p)
	if len(marks) == 0 {
		return Mark{}, false
	}
	return marks[0], true
}

// MarkIn returns the earliest mark of style intersecting paragraph p.
func (d *Document) MarkIn(id style.ID, p Range) (Mark, bool) {
	var found []Mark
	for _, m := range d.marks {
		if m.ID == id && intersects(m, p) {
			found = append(found, m.copy())
		}
	}
	if len(found) == 0 {
		return Mark{}, false
	}
	sortByOrder(found)
	return found[0], true
}

// ExactMark returns mark of style whose range equals paragraph bounds.
func (d *Document) ExactMark(id style.ID, p Range) (Mark, bool) {
	for _, m := range d.marks {
		if m.ID == id && m.Start == p.Start && m.End == p.End {
			return m.copy(), true
		}
	}
	return Mark{}, false
}

// IsEmptyParagraph reports paragraphs with no text other than placeholders.
func (d *Document) IsEmptyParagraph(p Range) bool {
	for _, r := range d.text[p.Start:p.End] {
		if r != Placeholder {
			return false
		}
	}
	return true
}

// intersects treats an empty paragraph as intersected by a mark which covers
// its position from both sides.
func intersects(m Mark, p Range) bool {
	if p.Empty() {
		return m.Start < p.Start && p.Start < m.End
	}
	return m.Start < p.End && p.Start < m.End
}

func sortByOrder(marks []Mark) {
	slices.SortStableFunc(marks, func(a, b Mark) int {
		switch {
		case a.order < b.order:
			return -1
		case a.order > b.order:
			return 1
		}
		return 0
	})
}
