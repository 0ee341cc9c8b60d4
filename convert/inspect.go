package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"rtdoc/document"
	"rtdoc/editor"
	"rtdoc/markup"
	"rtdoc/state"
	"rtdoc/style"
)

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func loadDocument(ctx context.Context, cmd *cli.Command, log *zap.Logger) (*document.Document, error) {
	env := state.EnvFromContext(ctx)

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return nil, errors.New("no input source has been specified")
	}
	if cp := cmd.String("input-cp"); cp != "" {
		env.CodePage = codePage(cp, log)
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := env.Rpt.StoreCopy("source"+filepath.Ext(src), src); err != nil {
		log.Warn("Unable to store source in the report", zap.Error(err))
	}
	doc, err := markup.NewParser(log).ParseEncoded(f, env.CodePage)
	if err != nil {
		return nil, fmt.Errorf("unable to parse markup (%s): %w", src, err)
	}
	return doc, nil
}

// Dump is the action of dump command: prints buffer and marks of parsed
// document.
func Dump(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := state.EnvFromContext(ctx).Log.Named("dump")

	doc, err := loadDocument(ctx, cmd, log)
	if err != nil {
		return err
	}
	_, err = io.WriteString(output(cmd), doc.String())
	return err
}

type rangeReport struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

type linkReport struct {
	Text  string      `yaml:"text"`
	URL   string      `yaml:"url"`
	Range rangeReport `yaml:"range"`
}

type mentionReport struct {
	Text      string            `yaml:"text"`
	Indicator string            `yaml:"indicator"`
	Attrs     map[string]string `yaml:"attrs,omitempty"`
	Range     rangeReport       `yaml:"range"`
}

type colorReport struct {
	Value  string `yaml:"value"`
	Typing bool   `yaml:"typing,omitempty"`
}

// inspectReport is yaml form of editor.Snapshot.
type inspectReport struct {
	Selection   rangeReport    `yaml:"selection"`
	Active      []string       `yaml:"active,omitempty"`
	Conflicting []string       `yaml:"conflicting,omitempty"`
	Blocked     []string       `yaml:"blocked,omitempty"`
	Pending     []string       `yaml:"pending,omitempty"`
	Link        *linkReport    `yaml:"link,omitempty"`
	Mention     *mentionReport `yaml:"mention,omitempty"`
	Color       *colorReport   `yaml:"color,omitempty"`
	Alignment   string         `yaml:"alignment"`
	Markup      string         `yaml:"markup,omitempty"`
}

func newInspectReport(s editor.Snapshot) inspectReport {
	r := inspectReport{
		Selection: rangeReport{s.Selection.Start, s.Selection.End},
		Alignment: s.Alignment.String(),
	}
	for _, id := range style.All() {
		st := s.Styles[id]
		if st.Active {
			r.Active = append(r.Active, id.String())
		}
		if st.Conflicting {
			r.Conflicting = append(r.Conflicting, id.String())
		}
		if st.Blocked {
			r.Blocked = append(r.Blocked, id.String())
		}
	}
	for _, id := range s.Pending.IDs() {
		r.Pending = append(r.Pending, id.String())
	}
	if s.Link.Detected {
		r.Link = &linkReport{Text: s.Link.Text, URL: s.Link.URL, Range: rangeReport{s.Link.Range.Start, s.Link.Range.End}}
	}
	if s.Mention.Detected {
		r.Mention = &mentionReport{
			Text:      s.Mention.Text,
			Indicator: s.Mention.Indicator,
			Attrs:     s.Mention.Attrs,
			Range:     rangeReport{s.Mention.Range.Start, s.Mention.Range.End},
		}
	}
	if s.Color.Detected {
		r.Color = &colorReport{Value: s.Color.Color.Hex(), Typing: s.Color.Typing}
	}
	return r
}

// Inspect is the action of inspect command: places selection into parsed
// document, optionally toggles styles over it and prints resulting state.
func Inspect(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	doc, err := loadDocument(ctx, cmd, log)
	if err != nil {
		return err
	}

	start := int(cmd.Int("start"))
	end := start
	if cmd.IsSet("end") {
		end = int(cmd.Int("end"))
	}

	ed := editor.New(log, editor.WithDocument(doc))
	ed.SetSelection(start, end)

	toggles := cmd.StringSlice("toggle")
	for _, name := range toggles {
		id, err := style.Parse(name)
		if err != nil {
			return fmt.Errorf("unable to toggle style: %w", err)
		}
		if !ed.Toggle(id) {
			log.Warn("Style was not toggled", zap.Stringer("style", id))
		}
	}

	report := newInspectReport(ed.State())
	if len(toggles) > 0 {
		report.Markup = markup.NewSerializer(log, env.SerializerOptions()).String(ed.Document())
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("unable to marshal state: %w", err)
	}
	_, err = output(cmd).Write(data)
	return err
}
