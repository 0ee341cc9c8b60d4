// Package style defines the closed set of style identifiers and the static
// merge policy governing how they combine.
package style

import (
	"fmt"
	"strings"
)

// ID identifies a style kind.
type ID int

const (
	Bold ID = iota
	Italic
	Underline
	Strikethrough
	InlineCode
	Color
	Link
	Mention
	Image
	H1
	H2
	H3
	H4
	H5
	H6
	BlockQuote
	CodeBlock
	Alignment
	UnorderedList
	OrderedList
	Checklist
	Divider
	Content

	// Count is the number of defined styles, not a style itself.
	Count
)

// Family partitions style kinds by the range they may cover.
type Family int

const (
	// Inline styles cover arbitrary sub-ranges and may nest.
	Inline Family = iota
	// Paragraph styles cover exactly one paragraph.
	Paragraph
	// List styles are paragraph scoped and form blocks with adjacent
	// paragraphs of the same kind.
	List
	// Block styles are non-editable and occupy a single placeholder.
	Block
)

func (f Family) String() string {
	switch f {
	case Inline:
		return "inline"
	case Paragraph:
		return "paragraph"
	case List:
		return "list"
	case Block:
		return "block"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// Info is the registry entry for a style.
type Info struct {
	Name        string
	Family      Family
	Continuous  bool
	SelfClosing bool
	Conflicting Set
	Blocking    Set
}

var (
	allHeadings = NewSet(H1, H2, H3, H4, H5, H6)
	allLists    = NewSet(UnorderedList, OrderedList, Checklist)
	allBlocks   = NewSet(Divider, Content)
	simpleText  = NewSet(Bold, Italic, Underline, Strikethrough)
)

var registry = [Count]Info{
	Bold:          {Name: "bold", Family: Inline, Blocking: NewSet(CodeBlock).Union(allBlocks)},
	Italic:        {Name: "italic", Family: Inline, Blocking: NewSet(CodeBlock).Union(allBlocks)},
	Underline:     {Name: "underline", Family: Inline, Blocking: NewSet(CodeBlock).Union(allBlocks)},
	Strikethrough: {Name: "strikethrough", Family: Inline, Blocking: NewSet(CodeBlock).Union(allBlocks)},
	InlineCode: {
		Name: "inline_code", Family: Inline,
		Conflicting: NewSet(Link, Mention, Color),
		Blocking:    NewSet(CodeBlock).Union(allBlocks),
	},
	Color: {Name: "color", Family: Inline, Blocking: NewSet(InlineCode, CodeBlock).Union(allBlocks)},
	Link:  {Name: "link", Family: Inline, Blocking: NewSet(InlineCode, CodeBlock, Mention).Union(allBlocks)},
	Mention: {
		Name: "mention", Family: Inline,
		Blocking: NewSet(InlineCode, CodeBlock, Link).Union(allBlocks),
	},
	Image: {Name: "image", Family: Inline, SelfClosing: true, Blocking: NewSet(InlineCode, CodeBlock).Union(allBlocks)},
	H1:    heading("h1", H1),
	H2:    heading("h2", H2),
	H3:    heading("h3", H3),
	H4:    heading("h4", H4),
	H5:    heading("h5", H5),
	H6:    heading("h6", H6),
	BlockQuote: {
		Name: "block_quote", Family: Paragraph, Continuous: true,
		Conflicting: allHeadings.Union(allLists).With(CodeBlock),
		Blocking:    allBlocks,
	},
	CodeBlock: {
		Name: "code_block", Family: Paragraph, Continuous: true,
		Conflicting: allHeadings.Union(allLists).Union(simpleText).With(BlockQuote, InlineCode, Color),
		Blocking:    NewSet(Link, Mention, Image).Union(allBlocks),
	},
	Alignment:     {Name: "alignment", Family: Paragraph, Blocking: allBlocks},
	UnorderedList: list("unordered_list", UnorderedList),
	OrderedList:   list("ordered_list", OrderedList),
	Checklist:     list("checklist", Checklist),
	Divider:       {Name: "divider", Family: Block, SelfClosing: true, Blocking: everything(Divider)},
	Content:       {Name: "content", Family: Block, SelfClosing: true, Blocking: everything(Content)},
}

func heading(name string, id ID) Info {
	return Info{
		Name:        name,
		Family:      Paragraph,
		Conflicting: allHeadings.Without(id).Union(allLists).With(BlockQuote, CodeBlock),
		Blocking:    allBlocks,
	}
}

func list(name string, id ID) Info {
	return Info{
		Name:        name,
		Family:      List,
		Continuous:  true,
		Conflicting: allLists.Without(id).Union(allHeadings).With(BlockQuote, CodeBlock),
		Blocking:    allBlocks,
	}
}

func everything(except ID) Set {
	var s Set
	for id := range Count {
		if id != except {
			s = s.With(id)
		}
	}
	return s
}

// Lookup returns registry entry for the style. It panics on ids outside of
// the defined range.
func Lookup(id ID) Info {
	if !id.Valid() {
		panic(fmt.Sprintf("unknown style id %d", int(id)))
	}
	return registry[id]
}

// Valid reports whether id names a defined style.
func (id ID) Valid() bool {
	return id >= 0 && id < Count
}

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return registry[id].Name
}

func (id ID) Family() Family {
	return Lookup(id).Family
}

// IsParagraphScoped reports whether marks of this style always cover whole
// paragraphs.
func (id ID) IsParagraphScoped() bool {
	f := id.Family()
	return f == Paragraph || f == List || f == Block
}

// IsParagraphKind reports styles taking part in single paragraph style
// normalization. Alignment is normalized separately.
func (id ID) IsParagraphKind() bool {
	f := id.Family()
	return id != Alignment && (f == Paragraph || f == List || f == Block)
}

// IsHeading reports whether id is one of H1-H6.
func (id ID) IsHeading() bool {
	return id >= H1 && id <= H6
}

// HeadingLevel returns 1-6 for headings and 0 otherwise.
func (id ID) HeadingLevel() int {
	if !id.IsHeading() {
		return 0
	}
	return int(id-H1) + 1
}

// Parse resolves a style name as returned by String. Matching is case
// insensitive.
func Parse(name string) (ID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id := range Count {
		if registry[id].Name == name {
			return id, nil
		}
	}
	return -1, fmt.Errorf("unknown style name %q", name)
}

// All returns every defined style in declaration order.
func All() []ID {
	ids := make([]ID, 0, Count)
	for id := range Count {
		ids = append(ids, id)
	}
	return ids
}

// ParagraphKinds returns all styles for which IsParagraphKind is true.
func ParagraphKinds() []ID {
	var ids []ID
	for id := range Count {
		if id.IsParagraphKind() {
			ids = append(ids, id)
		}
	}
	return ids
}
