package convert

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// sniffLen is how much of the file header filetype needs.
const sniffLen = 8192

var markupType = filetype.NewType("html", "text/html")

func init() {
	filetype.AddMatcher(markupType, isMarkupHeader)
}

// isMarkupHeader recognizes text starting with a tag, possibly after byte
// order mark and white space.
func isMarkupHeader(buf []byte) bool {
	buf = bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF})
	buf = bytes.TrimLeft(buf, " \t\r\n\f")
	return len(buf) > 1 && buf[0] == '<' && (buf[1] == '!' || buf[1] == '/' || isLetter(buf[1]))
}

func isLetter(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

// sniff detects type of data from its header. Empty input is unknown.
func sniff(header []byte) types.Type {
	if len(header) == 0 {
		return filetype.Unknown
	}
	kind, err := filetype.Match(header)
	if err != nil {
		return filetype.Unknown
	}
	return kind
}

func readHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}

// isArchiveFile reports whether file at path is a zip archive.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return false, err
	}
	return sniff(header).Extension == "zip", nil
}

// isMarkup reports whether data may be parsed as markup: anything that is not
// recognized as a known binary format.
func isMarkup(header []byte) bool {
	kind := sniff(header)
	return kind == filetype.Unknown || kind == markupType
}

// hasExtension reports whether name ends with one of configured extensions.
func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	return slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}
