package document

import (
	"rtdoc/style"
	"rtdoc/utils/debug"
)

// String returns readable dump of the text and all marks. It exists solely
// for manual inspection.
func (d *Document) String() string {
	if d == nil {
		return "<nil Document>"
	}
	tw := debug.NewTreeWriter()
	paras := d.AllParagraphs()
	tw.Line(0, "Document: runes[%d] paragraphs[%d] marks[%d]", len(d.text), len(paras), len(d.marks))
	for i, p := range paras {
		tw.Line(1, "Paragraph[%d] [%d:%d)", i+1, p.Start, p.End)
		tw.TextBlock(2, "text", string(d.text[p.Start:p.End]))
	}
	for _, m := range d.Marks() {
		tw.Line(1, "Mark %s [%d:%d) order[%d]", m.ID, m.Start, m.End, m.order)
		dumpPayload(tw, 2, m)
	}
	return tw.String()
}

func dumpPayload(tw *debug.TreeWriter, depth int, m Mark) {
	p := m.Payload
	switch m.ID {
	case style.Link:
		tw.TextBlock(depth, "url", p.URL)
	case style.Mention:
		tw.TextBlock(depth, "indicator", p.Indicator)
		tw.TextBlock(depth, "text", p.Text)
		tw.Attrs(depth, "attrs", p.Attrs)
	case style.Color:
		tw.Line(depth, "color: %s", p.Color.Hex())
	case style.OrderedList:
		tw.Line(depth, "index: %d", p.Index)
	case style.Checklist:
		tw.Line(depth, "checked: %t", p.Checked)
	case style.Alignment:
		tw.Line(depth, "align: %s", p.Align)
	case style.Image:
		tw.TextBlock(depth, "src", p.Src)
		tw.Line(depth, "size: %dx%d", p.Width, p.Height)
	case style.Content:
		tw.TextBlock(depth, "type", p.Type)
		tw.TextBlock(depth, "src", p.Src)
		tw.TextBlock(depth, "text", p.Text)
		tw.Attrs(depth, "attrs", p.Attrs)
	}
}
