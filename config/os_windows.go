//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
	"golang.org/x/term"
)

// CleanFileName drops characters Windows does not allow in file names.
func CleanFileName(in string) string {
	out := strings.Map(func(r rune) rune {
		if r < 32 || strings.ContainsRune(`<>":/\|?*`, r) {
			return -1
		}
		return r
	}, in)
	// trailing dots and spaces are silently removed by the system
	out = strings.TrimRight(strings.TrimSpace(out), ". ")
	if out == "" {
		return badFileName
	}
	return out
}

// EnableColorOutput turns on VT100 sequence processing for console stream.
// Consoles older than Windows 10 are not supported.
func EnableColorOutput(stream *os.File) bool {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows NT\CurrentVersion`, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()

	if v, _, err := k.GetIntegerValue("CurrentMajorVersionNumber"); err != nil || v < 10 {
		return false
	}
	if !term.IsTerminal(int(stream.Fd())) {
		return false
	}

	var mode uint32
	if err := windows.GetConsoleMode(windows.Handle(stream.Fd()), &mode); err != nil {
		return false
	}

	return windows.SetConsoleMode(windows.Handle(stream.Fd()), mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
