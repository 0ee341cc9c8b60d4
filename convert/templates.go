package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/maruel/natural"

	"rtdoc/config"
	"rtdoc/document"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	SourceFile string
	SourceDir  string
	Title      string
	Paragraphs int
	Characters int
	Styles     []string
}

// documentTitle returns text of the first heading, or of the first non-empty
// paragraph when there are no headings.
func documentTitle(doc *document.Document) string {
	var first string
	for _, p := range doc.AllParagraphs() {
		text := visibleText(doc.Slice(p.Start, p.End))
		if text == "" {
			continue
		}
		if m, ok := doc.ParagraphMark(p); ok && m.ID.IsHeading() {
			return text
		}
		if first == "" {
			first = text
		}
	}
	return first
}

func visibleText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == document.Placeholder || r == document.ObjectReplacement {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// documentStyles lists names of styles used in the document.
func documentStyles(doc *document.Document) []string {
	seen := make(map[string]struct{})
	for _, m := range doc.Marks() {
		seen[m.ID.String()] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

func sourceDir(src string) string {
	dir := filepath.ToSlash(filepath.Dir(src))
	if dir == "." {
		return ""
	}
	return dir
}

func expandTemplate(doc *document.Document, src string, name config.TemplateFieldName, field string) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		SourceDir:  sourceDir(src),
		Title:      documentTitle(doc),
		Paragraphs: len(doc.AllParagraphs()),
		Characters: doc.Len(),
		Styles:     documentStyles(doc),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
