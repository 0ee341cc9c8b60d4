package document

import (
	"slices"

	"rtdoc/style"
)

// settle leaves at most one mark matching the predicate over paragraph p,
// stretched to exactly the paragraph bounds. The earliest applied mark wins,
// portions of the marks outside of the paragraph are kept. Returns false when
// no mark ended up covering the paragraph.
func (d *Document) settle(p Range, match func(style.ID) bool) bool {
	var found []Mark
	for _, m := range d.marks {
		if match(m.ID) && intersects(m, p) {
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		return false
	}
	sortByOrder(found)
	for i, m := range found {
		d.RemoveMark(m)
		if p.Start > 0 && m.Start < p.Start-1 {
			d.addPiece(m, m.Start, p.Start-1)
		}
		if m.End > p.End+1 {
			d.addPiece(m, p.End+1, m.End)
		}
		if i == 0 && !p.Empty() {
			d.addPiece(m, p.Start, p.End)
		}
	}
	return !p.Empty()
}

// addPiece adds part of existing mark keeping its order.
func (d *Document) addPiece(m Mark, start, end int) {
	m.key = 0
	m.Start, m.End = start, end
	d.add(m)
}

// NormalizeParagraph enforces single paragraph kind mark with exact bounds
// over the paragraph containing pos. Alignment is settled independently and
// default alignment mark is added when paragraph ends up having none.
func (d *Document) NormalizeParagraph(pos int) {
	p := d.Paragraph(pos)
	d.settle(p, style.ID.IsParagraphKind)
	if d.isBlockParagraph(p) {
		d.Remove(style.Alignment, p.Start, p.End)
		return
	}
	if !d.settle(p, isAlignment) && !p.Empty() {
		d.Apply(style.Alignment, p.Start, p.End, Payload{Align: AlignDefault})
	}
}

func isAlignment(id style.ID) bool {
	return id == style.Alignment
}

// NormalizeAll settles paragraph kind and alignment marks of every
// paragraph, no alignment marks are synthesized.
func (d *Document) NormalizeAll() {
	for _, p := range slices.Backward(d.AllParagraphs()) {
		d.settle(p, style.ID.IsParagraphKind)
		if d.isBlockParagraph(p) {
			d.Remove(style.Alignment, p.Start, p.End)
			continue
		}
		d.settle(p, isAlignment)
	}
}

func (d *Document) isBlockParagraph(p Range) bool {
	return d.hasFamily(p, style.Block)
}

func (d *Document) hasFamily(p Range, f style.Family) bool {
	for _, m := range d.marks {
		if m.ID.Family() == f && intersects(m, p) {
			return true
		}
	}
	return false
}

// NormalizeNonEmptyParagraphs removes placeholders from paragraphs which have
// real text and carry no list mark. Selection is adjusted for the removed
// characters and returned.
func (d *Document) NormalizeNonEmptyParagraphs(sel Range) Range {
	for _, p := range slices.Backward(d.AllParagraphs()) {
		if p.Empty() || d.IsEmptyParagraph(p) || !slices.Contains(d.text[p.Start:p.End], Placeholder) {
			continue
		}
		if d.hasFamily(p, style.List) || d.isBlockParagraph(p) {
			continue
		}
		for i := p.End - 1; i >= p.Start; i-- {
			if d.text[i] != Placeholder {
				continue
			}
			d.Delete(i, i+1)
			if sel.Start > i {
				sel.Start--
			}
			if sel.End > i {
				sel.End--
			}
		}
	}
	return sel
}

// RenumberAt renumbers ordered list blocks around the paragraph containing pos.
func (d *Document) RenumberAt(pos int) {
	d.RenumberRange(pos, pos)
}

// RenumberAll renumbers every ordered list block in the document.
func (d *Document) RenumberAll() {
	d.RenumberRange(0, len(d.text))
}

// RenumberRange assigns indices 1..N to every contiguous block of ordered
// list paragraphs touching the range or the paragraphs right next to it.
func (d *Document) RenumberRange(start, end int) {
	r := d.clamp(start, end)
	paras := d.AllParagraphs()
	at := func(pos int) int {
		i, _ := slices.BinarySearchFunc(paras, pos, func(p Range, pos int) int {
			if p.End < pos {
				return -1
			}
			if p.Start > pos {
				return 1
			}
			return 0
		})
		return min(i, len(paras)-1)
	}
	first, last := max(0, at(r.Start)-1), min(len(paras)-1, at(r.End)+1)
	for i := first; i <= last; i++ {
		if _, ok := d.MarkIn(style.OrderedList, paras[i]); !ok {
			continue
		}
		head := i
		for head > 0 {
			if _, ok := d.MarkIn(style.OrderedList, paras[head-1]); !ok {
				break
			}
			head--
		}
		i = d.renumberBlock(paras, head)
	}
}

// renumberBlock numbers the block starting at head, returns index of its last
// paragraph.
func (d *Document) renumberBlock(paras []Range, head int) int {
	n := 0
	i := head
	for ; i < len(paras); i++ {
		m, ok := d.MarkIn(style.OrderedList, paras[i])
		if !ok {
			break
		}
		n++
		if m.Payload.Index != n {
			pl := m.Payload
			pl.Index = n
			d.SetPayload(m, pl)
		}
	}
	return i - 1
}
