package files

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSessionPath(t *testing.T) {
	tmp := t.TempDir()

	mgr, err := NewManager(tmp)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	tests := map[string]string{
		"":            filepath.Join(tmp, "default.stamps"),
		"talk":        filepath.Join(tmp, "talk.stamps"),
		"talk.stamps": filepath.Join(tmp, "talk.stamps"),
		" interview ": filepath.Join(tmp, "interview.stamps"),
	}
	for name, want := range tests {
		got, err := mgr.SessionPath(name)
		if err != nil {
			t.Fatalf("SessionPath(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("SessionPath(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSessionPathRejectsTraversal(t *testing.T) {
	mgr, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	for _, name := range []string{"../escape", "a/b", "..", `a\b`} {
		if _, err := mgr.SessionPath(name); !errors.Is(err, ErrInvalidSessionName) {
			t.Fatalf("SessionPath(%q) error = %v, want ErrInvalidSessionName", name, err)
		}
	}
}

func TestSessionsListsStampFiles(t *testing.T) {
	tmp := t.TempDir()
	mgr, err := NewManager(tmp)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	for _, name := range []string{"a.stamps", "b.stamps", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(tmp, name), nil, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	names, err := mgr.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Sessions() = %#v, want [a b]", names)
	}
}

func TestEnsureBaseCreatesDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "deep", "root")
	mgr, err := NewManager(base)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := mgr.EnsureBase(); err != nil {
		t.Fatalf("EnsureBase: %v", err)
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		t.Fatalf("expected directory %q to exist: %v", base, err)
	}
	if mgr.ConfigPath() != filepath.Join(base, "config.yaml") {
		t.Fatalf("ConfigPath() = %q", mgr.ConfigPath())
	}
}
