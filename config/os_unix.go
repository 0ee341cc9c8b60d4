//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// CleanFileName drops path and list separators and leading dots so that name
// stays a single visible file in destination directory.
func CleanFileName(in string) string {
	out := strings.Map(func(r rune) rune {
		if r == os.PathSeparator || r == os.PathListSeparator || r == 0 {
			return -1
		}
		return r
	}, in)
	out = strings.TrimLeft(strings.TrimSpace(out), ".")
	if out == "" {
		return badFileName
	}
	return out
}

// EnableColorOutput reports whether stream is a terminal.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
