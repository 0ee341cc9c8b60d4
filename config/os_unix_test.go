//go:build !windows

package config

import "testing"

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"simple", "simple"},
		{"dir/name", "dirname"},
		{"a:b", "ab"},
		{"..hidden", "hidden"},
		{"  spaced  ", "spaced"},
		{"/", badFileName},
		{"", badFileName},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
