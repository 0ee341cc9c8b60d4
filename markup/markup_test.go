package markup

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"

	"rtdoc/document"
	"rtdoc/style"
)

type markSpan struct {
	ID         style.ID
	Start, End int
}

func spans(d *document.Document) []markSpan {
	var out []markSpan
	for _, m := range d.Marks() {
		out = append(out, markSpan{m.ID, m.Start, m.End})
	}
	return out
}

func newParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
}

func mustParse(t *testing.T, in string) *document.Document {
	t.Helper()
	doc, err := newParser(t).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", in, err)
	}
	return doc
}

const richMarkup = `<h1 alignment="center">Title</h1>
<p>Hello <b>bold <i>mixed</i></b> and <a href="https://x.y/?a=1&amp;b=2">link</a> <font color="#f00">red</font></p>
<ul><li>one</li><li>two</li></ul>
<ol><li>first</li><li><u>second</u></li></ol>
<checklist checked="true">done</checklist>
<blockquote>quote</blockquote>
<codeblock>code</codeblock>
<hr>
<p><mention text="John" indicator="@" id="42">@John</mention> <img src="cat.png" width="10" height="20"></p>
<content type="video" src="v.mp4" text="clip" data-x="1">`

const richCanonical = `<h1 alignment="center">Title</h1>
<p>Hello <b>bold <i>mixed</i></b> and <a href="https://x.y/?a=1&amp;b=2">link</a> <font color="#FF0000">red</font></p>
<ul>
<li>one</li>
<li>two</li>
</ul>
<ol>
<li>first</li>
<li><u>second</u></li>
</ol>
<checklist checked="true">done</checklist>
<blockquote>quote</blockquote>
<codeblock>code</codeblock>
<hr/>
<p><mention text="John" indicator="@" id="42">@John</mention> <img src="cat.png" width="10" height="20"/></p>
<content text="clip" type="video" src="v.mp4" data-x="1"/>
`

func TestPlainParagraph(t *testing.T) {
	doc := mustParse(t, "<p>plain</p>")
	if doc.Text() != "plain\n" {
		t.Errorf("text = %q", doc.Text())
	}
	if len(doc.Marks()) != 0 {
		t.Errorf("unexpected marks %v", spans(doc))
	}
	if got := Serialize(doc, false); got != "<p>plain</p>\n" {
		t.Errorf("Serialize = %q", got)
	}
}

func TestCanonicalForm(t *testing.T) {
	got := Serialize(mustParse(t, richMarkup), false)
	if diff := cmp.Diff(richCanonical, got); diff != "" {
		t.Errorf("canonical markup mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripIsIdempotent(t *testing.T) {
	inputs := []string{
		richMarkup,
		"<p>plain</p>",
		"just text",
		"<p>a</p><p></p><p>b</p>",
		"<p><b>bold <i>both</b> rest</i></p>",
		"<ul><li></li><li>x</li></ul>",
		"<codeblock>a<br>b</codeblock>",
		"<p><b>a<i>b</i></b><i>c</i></p>",
		"<h2>unclosed",
		"<p>a &lt;b&gt; &amp; c</p>",
		"<p>text<hr>more</p>",
		"<ol><li>a</li></ol><ol><li>b</li></ol>",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first := Serialize(mustParse(t, in), false)
			second := Serialize(mustParse(t, first), false)
			if first != second {
				t.Errorf("second pass differs:\nfirst:\n%s\nsecond:\n%s", first, second)
			}
			pretty := Serialize(mustParse(t, in), true)
			if again := Serialize(mustParse(t, pretty), false); again != first {
				t.Errorf("prettified markup parses differently:\n%s\nvs\n%s", again, first)
			}
		})
	}
}

func TestMalformedRecovery(t *testing.T) {
	doc := mustParse(t, "<p><b>bold <i>both</b> rest</i></p>")
	if doc.Text() != "bold both rest\n" {
		t.Fatalf("text = %q", doc.Text())
	}
	want := []markSpan{{style.Bold, 0, 9}, {style.Italic, 5, 9}}
	if diff := cmp.Diff(want, spans(doc)); diff != "" {
		t.Errorf("marks mismatch (-want +got):\n%s", diff)
	}
	if got := Serialize(doc, false); got != "<p><b>bold <i>both</i></b> rest</p>\n" {
		t.Errorf("Serialize = %q", got)
	}
}

func TestUnknownTagsIgnored(t *testing.T) {
	doc := mustParse(t, `<div class="x"><span>x</span> <blink>y</blink></div>`)
	if doc.Text() != "x y" || len(doc.Marks()) != 0 {
		t.Errorf("text = %q marks = %v", doc.Text(), spans(doc))
	}
}

func TestRawTextSkipped(t *testing.T) {
	doc := mustParse(t, "<html><head><title>T</title><style>p{}</style></head><body><p>x</p></body></html>")
	if doc.Text() != "x\n" {
		t.Errorf("text = %q", doc.Text())
	}
}

func TestWhitespaceCollapse(t *testing.T) {
	doc := mustParse(t, "<p>  a  \n <b> b</b>\t\tc </p>\n\n<p>\n d</p>")
	if doc.Text() != "a b c \nd\n" {
		t.Errorf("text = %q", doc.Text())
	}
	if diff := cmp.Diff([]markSpan{{style.Bold, 2, 3}}, spans(doc)); diff != "" {
		t.Errorf("marks mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderedListIndices(t *testing.T) {
	doc := mustParse(t, "<ol><li>a</li><li>b</li><li>c</li></ol><p>x</p><ol><li>d</li></ol>")
	var got []int
	for _, m := range doc.Marks() {
		if m.ID == style.OrderedList {
			got = append(got, m.Payload.Index)
		}
	}
	if diff := cmp.Diff([]int{1, 2, 3, 1}, got); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
}

func TestBlocks(t *testing.T) {
	doc := mustParse(t, "<p>a</p><hr><p>b</p>")
	ph := string(document.Placeholder)
	if doc.Text() != "a\n"+ph+"\nb\n" {
		t.Fatalf("text = %q", doc.Text())
	}
	if diff := cmp.Diff([]markSpan{{style.Divider, 2, 3}}, spans(doc)); diff != "" {
		t.Errorf("marks mismatch (-want +got):\n%s", diff)
	}
	if got := Serialize(doc, false); got != "<p>a</p>\n<hr/>\n<p>b</p>\n" {
		t.Errorf("Serialize = %q", got)
	}
}

func TestEmptyParagraphs(t *testing.T) {
	ph := string(document.Placeholder)

	heading := document.FromText(ph)
	heading.Apply(style.H1, 0, 1, document.Payload{})
	if got := Serialize(heading, false); got != "<h1></h1>\n" {
		t.Errorf("empty heading = %q", got)
	}

	typing := document.FromText("a\n" + ph)
	typing.Apply(style.Bold, 2, 3, document.Payload{})
	if got := Serialize(typing, false); got != "<p>a</p>\n<br/>\n" {
		t.Errorf("placeholder only paragraph = %q", got)
	}

	if got := Serialize(document.New(), false); got != "" {
		t.Errorf("empty document = %q", got)
	}

	doc := mustParse(t, "<h3></h3>")
	if doc.Text() != ph+"\n" {
		t.Errorf("text = %q", doc.Text())
	}
}

func TestEmptyAlignedParagraph(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`<p alignment="center"></p>`, "<p alignment=\"center\"></p>\n"},
		{`<p alignment="end"></p><p>x</p>`, "<p alignment=\"end\"></p>\n<p>x</p>\n"},
		{`<p alignment="default"></p>`, "<br/>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			first := Serialize(mustParse(t, tt.in), false)
			if first != tt.want {
				t.Errorf("Serialize = %q, want %q", first, tt.want)
			}
			if second := Serialize(mustParse(t, first), false); second != first {
				t.Errorf("second pass = %q, want %q", second, first)
			}
		})
	}
}

func TestPrettify(t *testing.T) {
	doc := mustParse(t, "<p>a</p><ul><li>b</li></ul>")
	want := "<html>\n  <p>a</p>\n  <ul>\n    <li>b</li>\n  </ul>\n</html>\n"
	if got := Serialize(doc, true); got != want {
		t.Errorf("Serialize prettified:\n%s\nwant:\n%s", got, want)
	}
	four := NewSerializer(nil, Options{Prettify: true, Indent: 4}).String(doc)
	if !strings.Contains(four, "\n        <li>b</li>\n") {
		t.Errorf("custom indent not applied:\n%s", four)
	}
}

func TestInvalidColorFallsBackToBlack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	doc, err := NewParser(zap.New(core)).Parse(strings.NewReader(`<p><font color="nonsense">x</font></p>`))
	if err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("Unable to parse color, using black").Len() != 1 {
		t.Errorf("expected warning, got %v", logs.All())
	}
	if got := Serialize(doc, false); got != "<p><font color=\"#000000\">x</font></p>\n" {
		t.Errorf("Serialize = %q", got)
	}
}

func TestTokenizerFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := newParser(t).Parse(iotest.ErrReader(boom))
	if !errors.Is(err, ErrTokenizer) || !errors.Is(err, boom) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestParseEncoded(t *testing.T) {
	enc, err := ianaindex.IANA.Encoding("windows-1251")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := charmap.Windows1251.NewEncoder().String("<p>Привет</p>")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("forced", func(t *testing.T) {
		doc, err := newParser(t).ParseEncoded(strings.NewReader(raw), enc)
		if err != nil {
			t.Fatal(err)
		}
		if doc.Text() != "Привет\n" {
			t.Errorf("text = %q", doc.Text())
		}
	})
	t.Run("detected", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString(`<meta charset="windows-1251">`)
		buf.WriteString(raw)
		doc, err := newParser(t).ParseEncoded(&buf, nil)
		if err != nil {
			t.Fatal(err)
		}
		if doc.Text() != "Привет\n" {
			t.Errorf("text = %q", doc.Text())
		}
	})
}

func TestMentionAndContentPayloads(t *testing.T) {
	doc := mustParse(t, `<p><mention text="Ann" indicator="#" id="7" kind="user">#Ann</mention></p><content type="poll" src="p://1" data-b="2" data-a="1">`)
	var mention, content document.Mark
	for _, m := range doc.Marks() {
		switch m.ID {
		case style.Mention:
			mention = m
		case style.Content:
			content = m
		}
	}
	wantMention := document.Payload{Text: "Ann", Indicator: "#", Attrs: map[string]string{"id": "7", "kind": "user"}}
	if !mention.Payload.Equal(wantMention) {
		t.Errorf("mention payload = %+v", mention.Payload)
	}
	wantContent := document.Payload{Type: "poll", Src: "p://1", Attrs: map[string]string{"data-a": "1", "data-b": "2"}}
	if !content.Payload.Equal(wantContent) {
		t.Errorf("content payload = %+v", content.Payload)
	}
	if got := Serialize(doc, false); !strings.Contains(got, `<content type="poll" src="p://1" data-a="1" data-b="2"/>`) {
		t.Errorf("Serialize = %q", got)
	}
}

func TestColor(t *testing.T) {
	tests := []struct {
		in   string
		want document.RGB
		ok   bool
	}{
		{"#f00", 0xFF0000, true},
		{"#12ab34", 0x12AB34, true},
		{" #12AB34 ", 0x12AB34, true},
		{"#12ab34ff", 0x12AB34, true},
		{"rgb(0, 128, 255)", 0x0080FF, true},
		{"RGBA(255,255,255,0.5)", 0xFFFFFF, true},
		{"rgb(100%, 0%, 50%)", 0xFF0080, true},
		{"rgb(300, -1, 0)", 0xFF0000, true},
		{"rgb(1, 2)", 0, false},
		{"hsl(1, 2%, 3%)", 0, false},
		{"#12345", 0, false},
		{"red", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseColor(%q) = %s, %v; want %s, %v", tt.in, got.Hex(), ok, tt.want.Hex(), tt.ok)
			}
		})
	}
}
