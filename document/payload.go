package document

import (
	"fmt"
	"maps"
	"strings"
)

// RGB is a 24 bit color value, 0xRRGGBB.
type RGB uint32

// Black is used whenever color value cannot be understood.
const Black RGB = 0

func NewRGB(r, g, b uint8) RGB {
	return RGB(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c RGB) Components() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex returns canonical "#RRGGBB" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF)
}

// Align is paragraph alignment.
type Align int

const (
	AlignDefault Align = iota
	AlignStart
	AlignCenter
	AlignEnd
)

func (a Align) String() string {
	switch a {
	case AlignStart:
		return "start"
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	}
	return "default"
}

// ParseAlign understands canonical names as well as left/right/justify,
// anything else is treated as default alignment.
func ParseAlign(s string) Align {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "left":
		return AlignStart
	case "center", "centre":
		return AlignCenter
	case "end", "right":
		return AlignEnd
	}
	return AlignDefault
}

// Payload carries kind specific mark data. Only fields relevant to the mark
// kind are meaningful.
type Payload struct {
	// link target, for links only
	URL string
	// mention display text, or content description
	Text string
	// mention indicator character, like "@" or "#"
	Indicator string
	// additional mention or content attributes
	Attrs map[string]string
	// color marks
	Color RGB
	// 1-based ordered list item index
	Index int
	// checklist item state
	Checked bool
	// alignment marks
	Align Align
	// content type tag
	Type string
	// image or content source
	Src string
	// image dimensions, 0 when unknown
	Width  int
	Height int
}

// Clone returns deep copy so that payloads are never shared between marks.
func (p Payload) Clone() Payload {
	if p.Attrs != nil {
		p.Attrs = maps.Clone(p.Attrs)
	}
	return p
}

func (p Payload) Equal(o Payload) bool {
	return p.URL == o.URL &&
		p.Text == o.Text &&
		p.Indicator == o.Indicator &&
		maps.Equal(p.Attrs, o.Attrs) &&
		p.Color == o.Color &&
		p.Index == o.Index &&
		p.Checked == o.Checked &&
		p.Align == o.Align &&
		p.Type == o.Type &&
		p.Src == o.Src &&
		p.Width == o.Width &&
		p.Height == o.Height
}
