// Package convert implements commands which read markup files and produce
// canonical markup or diagnostic dumps.
package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"rtdoc/archive"
	"rtdoc/markup"
	"rtdoc/state"
)

// Run is the action of convert command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	if cmd.IsSet("prettify") {
		env.Cfg.Document.Prettify = cmd.Bool("prettify")
	}
	env.CodePage = codePage(cmd.String("input-cp"), log)

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// codePage resolves forced input encoding, unknown names are ignored.
func codePage(name string, log *zap.Logger) encoding.Encoding {
	if len(name) == 0 {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", name), zap.Error(err))
		return nil
	}
	n, _ := ianaindex.IANA.Name(enc)
	log.Debug("Forcefully decoding all input markup", zap.String("charset", n))
	return enc
}

// process determines whether src is a directory, an archive (possibly followed
// by path inside it) or a single markup file and handles it accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exist, probably path inside archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			inside := filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := processArchive(ctx, head, inside, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		data, err := os.ReadFile(head)
		if err != nil {
			return fmt.Errorf("unable to read file: %w", err)
		}
		if !isMarkup(data[:min(len(data), sniffLen)]) {
			return fmt.Errorf("input was not recognized as markup (%s)", head)
		}
		if err := processMarkup(ctx, data, filepath.Base(head), dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
		}
		break
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir converts markup files and archives found under dir in natural
// name order.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if info.Mode().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(paths))

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		arc, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if arc {
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}
		if !hasExtension(path, env.Cfg.Document.InputExtensions) {
			log.Debug("Skipping file, not recognized as markup or archive", zap.String("file", path))
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !isMarkup(data[:min(len(data), sniffLen)]) {
			log.Debug("Skipping file, binary content", zap.String("file", path))
			continue
		}
		count++
		if err := processMarkup(ctx, data, rel, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

// processArchive converts markup files inside archive found under pathIn.
// pathOut is directory of the archive relative to the walked directory.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	count := 0
	err := archive.Walk(path, pathIn, archive.Extensions(env.Cfg.Document.InputExtensions...), func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := readEntry(f)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		if !isMarkup(data[:min(len(data), sniffLen)]) {
			log.Debug("Skipping file, binary content", zap.String("archive", arc), zap.String("file", f.Name))
			return nil
		}
		count++

		name := f.Name
		if env.CodePage != nil && f.NonUTF8 {
			// zip does not define name encoding, old archives use local code pages
			if n, err := env.CodePage.NewDecoder().String(name); err == nil {
				name = n
			} else {
				log.Warn("Unable to convert archive name from specified encoding", zap.String("path", name), zap.Error(err))
			}
		}
		if err := processMarkup(ctx, data, filepath.Join(pathOut, filepath.FromSlash(name)), dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
	if err == nil && count == 0 {
		log.Debug("Nothing to process", zap.String("archive", path))
	}
	return err
}

func readEntry(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// processMarkup parses single markup file and writes its canonical form. src
// is path of the file relative to the walked directory or archive, or base
// name when single file was requested.
func processMarkup(ctx context.Context, data []byte, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)
	id := uuid.Must(uuid.NewV7()).String()

	var outputName string
	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("id", id))
		}
	}(time.Now())

	env.Rpt.StoreData(fmt.Sprintf("source-%s%s", id, filepath.Ext(src)), data)

	doc, err := markup.NewParser(log).ParseEncoded(bytes.NewReader(data), env.CodePage)
	if err != nil {
		return fmt.Errorf("unable to parse markup (%s): %w", src, err)
	}

	outputName = buildOutputPath(doc, src, dst, env)
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	out, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create output: %w", err)
	}
	if err := markup.NewSerializer(log, env.SerializerOptions()).Write(out, doc); err != nil {
		out.Close()
		return fmt.Errorf("unable to write output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	env.Rpt.Store(fmt.Sprintf("result-%s%s", id, filepath.Ext(outputName)), outputName)
	return nil
}
