package editor

import (
	"maps"

	"rtdoc/document"
	"rtdoc/style"
)

// StyleState describes a single style relative to current selection.
type StyleState struct {
	// Active is set when the style is in effect over the whole selection.
	Active bool
	// Conflicting is set when applying the style would remove some other
	// active style.
	Conflicting bool
	// Blocked is set when the style cannot be applied at all.
	Blocked bool
}

type LinkState struct {
	Detected bool
	Text     string
	URL      string
	Range    document.Range
}

type MentionState struct {
	Detected  bool
	Text      string
	Indicator string
	Attrs     map[string]string
	Range     document.Range
}

func (m MentionState) equal(o MentionState) bool {
	return m.Detected == o.Detected && m.Text == o.Text && m.Indicator == o.Indicator &&
		maps.Equal(m.Attrs, o.Attrs)
}

// ColorState is the color in effect at selection. Typing is set when color
// comes from SetColor at collapsed caret rather than from text.
type ColorState struct {
	Detected bool
	Color    document.RGB
	Typing   bool
}

// Snapshot is complete style state of current selection.
type Snapshot struct {
	Selection document.Range
	Styles    [style.Count]StyleState
	Pending   style.Set
	Link      LinkState
	Mention   MentionState
	Color     ColorState
	Alignment document.Align
}

// Listener receives state changes. Every callback fires only when its part
// of the state differs from what was reported last.
type Listener interface {
	StylesChanged(s Snapshot)
	LinkDetected(l LinkState)
	MentionDetected(m MentionState)
	ColorChanged(c ColorState)
	AlignmentChanged(a document.Align)
}

// Listeners adapts functions to Listener, nil functions are skipped.
type Listeners struct {
	OnStyles    func(Snapshot)
	OnLink      func(LinkState)
	OnMention   func(MentionState)
	OnColor     func(ColorState)
	OnAlignment func(document.Align)
}

func (l Listeners) StylesChanged(s Snapshot) {
	if l.OnStyles != nil {
		l.OnStyles(s)
	}
}

func (l Listeners) LinkDetected(s LinkState) {
	if l.OnLink != nil {
		l.OnLink(s)
	}
}

func (l Listeners) MentionDetected(s MentionState) {
	if l.OnMention != nil {
		l.OnMention(s)
	}
}

func (l Listeners) ColorChanged(s ColorState) {
	if l.OnColor != nil {
		l.OnColor(s)
	}
}

func (l Listeners) AlignmentChanged(a document.Align) {
	if l.OnAlignment != nil {
		l.OnAlignment(a)
	}
}

// State computes snapshot of current selection.
func (e *Editor) State() Snapshot {
	s := Snapshot{Selection: e.sel}
	for _, id := range style.All() {
		s.Styles[id].Active = e.isActive(id)
	}
	for _, id := range style.All() {
		for _, c := range style.Lookup(id).Conflicting.IDs() {
			if s.Styles[c].Active {
				s.Styles[id].Conflicting = true
				break
			}
		}
		_, s.Styles[id].Blocked = e.blockedBy(id, e.target(id))
	}
	for id := range e.pending {
		s.Pending = s.Pending.With(id)
	}

	if m, ok := e.detect(style.Link); ok {
		s.Link = LinkState{Detected: true, Text: e.doc.Slice(m.Start, m.End), URL: m.Payload.URL, Range: m.Range()}
	}
	if m, ok := e.detect(style.Mention); ok {
		s.Mention = MentionState{
			Detected:  true,
			Text:      m.Payload.Text,
			Indicator: m.Payload.Indicator,
			Attrs:     maps.Clone(m.Payload.Attrs),
			Range:     m.Range(),
		}
	}
	switch m, ok := e.inlineMark(style.Color, e.sel); {
	case ok:
		s.Color = ColorState{Detected: true, Color: m.Payload.Color}
	case e.typingColor != nil:
		s.Color = ColorState{Detected: true, Color: *e.typingColor, Typing: true}
	}
	if m, ok := e.doc.MarkIn(style.Alignment, e.doc.Paragraph(e.sel.Start)); ok {
		s.Alignment = m.Payload.Align
	}
	return s
}

// detect finds link or mention at selection. Unlike activity, caret right
// at the end of the mark still detects it.
func (e *Editor) detect(id style.ID) (document.Mark, bool) {
	if !e.sel.Empty() {
		return e.inlineMark(id, e.sel)
	}
	for _, m := range e.doc.Query(id, e.sel.Start, e.sel.Start) {
		if m.Start < e.sel.Start && e.sel.Start <= m.End {
			return m, true
		}
	}
	return document.Mark{}, false
}

// notify computes state and reports changed parts to listener.
func (e *Editor) notify() {
	if e.listener == nil {
		return
	}
	cur := e.State()
	prev := e.last
	e.last = &cur
	if prev == nil || prev.Styles != cur.Styles {
		e.listener.StylesChanged(cur)
	}
	if prev == nil || prev.Link.Detected != cur.Link.Detected || prev.Link.Text != cur.Link.Text || prev.Link.URL != cur.Link.URL {
		e.listener.LinkDetected(cur.Link)
	}
	if prev == nil || !prev.Mention.equal(cur.Mention) {
		e.listener.MentionDetected(cur.Mention)
	}
	if prev == nil || prev.Color != cur.Color {
		e.listener.ColorChanged(cur.Color)
	}
	if prev == nil || prev.Alignment != cur.Alignment {
		e.listener.AlignmentChanged(cur.Alignment)
	}
}
