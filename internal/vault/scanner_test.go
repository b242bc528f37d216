package vault

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"notewise/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New("test", logger.NewConfig("error"))
}

func writeNote(t *testing.T, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write note: %v", err)
	}
}

func TestScannerScan(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "inbox.md", "# Inbox")
	writeNote(t, root, "projects/roadmap.md", "# Roadmap")
	writeNote(t, root, "projects/todo.txt", "not a note")
	writeNote(t, root, ".trash/discarded.md", "old note")
	writeNote(t, root, ".hidden.md", "hidden note")

	scanner := NewScanner(root, testLogger(t))
	notes, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	var paths []string
	for _, note := range notes {
		paths = append(paths, note.Path)
	}
	sort.Strings(paths)

	want := []string{"inbox.md", "projects/roadmap.md"}
	if len(paths) != len(want) {
		t.Fatalf("Scan() returned %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("Scan()[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestScannerScanNoteFields(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "projects/roadmap.md", "# Roadmap")

	scanner := NewScanner(root, testLogger(t))
	notes, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}

	note := notes[0]
	if note.Name != "roadmap.md" {
		t.Errorf("Name = %q, want %q", note.Name, "roadmap.md")
	}
	if note.Extension != "md" {
		t.Errorf("Extension = %q, want %q", note.Extension, "md")
	}
	if note.Modified.IsZero() {
		t.Error("Modified should not be zero")
	}
	if note.Size == 0 {
		t.Error("Size should not be zero")
	}
}

func TestScannerRead(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "notes/idea.md", "a spark of an idea")

	scanner := NewScanner(root, testLogger(t))
	content, err := scanner.Read("notes/idea.md")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if content != "a spark of an idea" {
		t.Errorf("Read() = %q", content)
	}
}

func TestScannerReadMissing(t *testing.T) {
	scanner := NewScanner(t.TempDir(), testLogger(t))
	if _, err := scanner.Read("ghost.md"); err == nil {
		t.Error("Read() of missing note should fail")
	}
}

func TestScannerRejectsEscape(t *testing.T) {
	scanner := NewScanner(t.TempDir(), testLogger(t))
	if _, err := scanner.Read("../outside.md"); err == nil {
		t.Error("Read() outside the vault should fail")
	}
}

func TestScannerName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "My Vault")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	scanner := NewScanner(root, testLogger(t))
	if scanner.Name() != "My Vault" {
		t.Errorf("Name() = %q, want %q", scanner.Name(), "My Vault")
	}
}

func TestScannerContains(t *testing.T) {
	scanner := NewScanner(t.TempDir(), testLogger(t))

	tests := []struct {
		path string
		want bool
	}{
		{"note.md", true},
		{"deep/nested/note.markdown", true},
		{"note.txt", false},
		{".hidden.md", false},
		{"dir/.hidden.md", false},
	}

	for _, tt := range tests {
		if got := scanner.Contains(tt.path); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
