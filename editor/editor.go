// Package editor implements style toggling, post edit reconciliation and
// selection state tracking on top of a document.
package editor

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"rtdoc/document"
	"rtdoc/markup"
	"rtdoc/style"
)

// carrier is a placeholder inserted at collapsed caret to hold inline styles
// toggled before any text is typed.
type carrier struct {
	pos int
	// inline styles which were in effect at the caret before the carrier was
	// inserted
	natural style.Set
}

// Editor owns a document and the selection over it. All methods must be
// called from a single goroutine.
type Editor struct {
	log *zap.Logger
	doc *document.Document
	sel document.Range

	pending     map[style.ID]int
	typingColor *document.RGB
	carrier     *carrier
	paragraphs  int

	listener Listener
	last     *Snapshot
}

type Option func(*Editor)

// WithListener registers receiver of state change events.
func WithListener(l Listener) Option {
	return func(e *Editor) {
		e.listener = l
	}
}

// WithDocument makes editor start with existing document, caret is placed at
// its end.
func WithDocument(doc *document.Document) Option {
	return func(e *Editor) {
		e.doc = doc
	}
}

func New(log *zap.Logger, opts ...Option) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Editor{
		log:     log.Named("editor"),
		doc:     document.New(),
		pending: make(map[style.ID]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sel = document.Range{Start: e.doc.Len(), End: e.doc.Len()}
	e.paragraphs = len(e.doc.AllParagraphs())
	return e
}

// Document returns the edited document. Changing it directly must be
// followed by AfterTextChanged.
func (e *Editor) Document() *document.Document {
	return e.doc
}

func (e *Editor) Selection() document.Range {
	return e.sel
}

// SetSelection moves selection, offsets are clamped and ordered. Moving the
// caret forgets pending typing styles.
func (e *Editor) SetSelection(start, end int) {
	start = max(0, min(start, e.doc.Len()))
	end = max(0, min(end, e.doc.Len()))
	if end < start {
		start, end = end, start
	}
	sel := document.Range{Start: start, End: end}
	if sel != e.sel {
		e.carrier = nil
		e.typingColor = nil
		clear(e.pending)
	}
	e.sel = sel
	e.notify()
}

// Serialize returns canonical markup of the document.
func (e *Editor) Serialize(prettify bool) string {
	return markup.NewSerializer(e.log, markup.Options{Prettify: prettify}).String(e.doc)
}

// SetMarkup replaces document with parsed markup, caret is placed at the end.
func (e *Editor) SetMarkup(r io.Reader) error {
	doc, err := markup.NewParser(e.log).Parse(r)
	if err != nil {
		return fmt.Errorf("unable to set markup: %w", err)
	}
	e.doc = doc
	e.carrier = nil
	e.typingColor = nil
	clear(e.pending)
	e.paragraphs = len(doc.AllParagraphs())
	e.sel = document.Range{Start: doc.Len(), End: doc.Len()}
	e.notify()
	return nil
}

// placeCaret moves selection without resetting typing state.
func (e *Editor) placeCaret(pos int) {
	pos = max(0, min(pos, e.doc.Len()))
	e.sel = document.Range{Start: pos, End: pos}
}

// shiftSelection adjusts selection for text inserted (n > 0) or removed
// (n < 0) at pos.
func (e *Editor) shiftSelection(pos, n int) {
	adjust := func(x int) int {
		switch {
		case n > 0 && x >= pos:
			return x + n
		case n < 0 && x > pos:
			return max(pos, x+n)
		}
		return x
	}
	e.sel.Start, e.sel.End = adjust(e.sel.Start), adjust(e.sel.End)
}

// finish runs after every mutating command.
func (e *Editor) finish() {
	e.paragraphs = len(e.doc.AllParagraphs())
	e.sel.Start = max(0, min(e.sel.Start, e.doc.Len()))
	e.sel.End = max(e.sel.Start, min(e.sel.End, e.doc.Len()))
	e.notify()
}
