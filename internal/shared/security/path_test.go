package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewRoot(t *testing.T) {
	base := t.TempDir()
	work := filepath.Join(base, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(work)

	root, err := NewRoot("../scans")
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if root.String() != filepath.Join(base, "scans") {
		t.Errorf("root = %q, want %q", root, filepath.Join(base, "scans"))
	}

	if _, err := NewRoot(""); err == nil {
		t.Error("expected empty dir to be rejected")
	}
	if _, err := NewRoot(string(os.PathSeparator)); err == nil {
		t.Error("expected filesystem root to be rejected")
	}
}

func TestRootJoin(t *testing.T) {
	root, err := NewRoot(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	got, err := root.Join("abc", "record.json")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got != filepath.Join(root.String(), "abc", "record.json") {
		t.Errorf("Join = %q", got)
	}

	for _, elems := range [][]string{{".."}, {"..", "etc", "passwd"}, {"abc", "..", "..", "x"}} {
		if _, err := root.Join(elems...); !errors.Is(err, ErrPathEscape) {
			t.Errorf("Join(%v) error = %v, want ErrPathEscape", elems, err)
		}
	}
	if _, err := root.Join("a..b"); err != nil {
		t.Errorf("names containing dots should be allowed: %v", err)
	}
}

func TestRootContains(t *testing.T) {
	base := t.TempDir()
	root, err := NewRoot(filepath.Join(base, "scans"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(base, "scans", "a.json"), true},
		{filepath.Join(base, "scans", "x", "..", "a.json"), true},
		{filepath.Join(base, "scans"), false},
		{filepath.Join(base, "scans-other", "a.json"), false},
		{filepath.Join(base, "a.json"), false},
	}
	for _, tt := range tests {
		if got := root.Contains(tt.path); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
