package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"notewise/internal/logger"
)

// Scanner enumerates and reads the Markdown notes of one vault.
type Scanner struct {
	root            string
	includePatterns []string
	log             *logger.Logger
}

// NewScanner creates a scanner rooted at the vault directory.
func NewScanner(root string, log *logger.Logger) *Scanner {
	return &Scanner{
		root:            filepath.Clean(root),
		includePatterns: []string{"*.md", "*.mdx", "*.markdown"},
		log:             log.WithComponent("vault"),
	}
}

// Root returns the absolute vault directory.
func (s *Scanner) Root() string {
	return s.root
}

// Name returns the vault name, used as the vector namespace.
func (s *Scanner) Name() string {
	return filepath.Base(s.root)
}

// Scan walks the vault and returns every note. Hidden files and
// directories are skipped. Files that cannot be stat'd are logged
// and left out so one broken entry does not abort the walk.
func (s *Scanner) Scan() ([]Note, error) {
	var notes []Note

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.matches(d.Name()) || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		note, err := s.noteFromPath(filepath.ToSlash(rel))
		if err != nil {
			s.log.Warn("skipping unreadable note: %v", err)
			return nil
		}

		notes = append(notes, note)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan vault %s: %w", s.root, err)
	}

	return notes, nil
}

// Stat returns the note at the given vault-relative path.
func (s *Scanner) Stat(relPath string) (Note, error) {
	return s.noteFromPath(filepath.ToSlash(relPath))
}

// Read returns the content of the note at the given vault-relative path.
func (s *Scanner) Read(relPath string) (string, error) {
	abs, err := s.abs(relPath)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(abs) //nolint:gosec // Paths come from vault scanning
	if err != nil {
		return "", fmt.Errorf("failed to read note %s: %w", relPath, err)
	}
	return string(content), nil
}

// Contains reports whether the path names a note file the scanner
// would pick up, without requiring it to exist.
func (s *Scanner) Contains(relPath string) bool {
	base := filepath.Base(relPath)
	return s.matches(base) && !strings.HasPrefix(base, ".")
}

func (s *Scanner) matches(fileName string) bool {
	for _, pattern := range s.includePatterns {
		if match, _ := filepath.Match(pattern, fileName); match {
			return true
		}
	}
	return false
}

func (s *Scanner) noteFromPath(relPath string) (Note, error) {
	abs, err := s.abs(relPath)
	if err != nil {
		return Note{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Note{}, fmt.Errorf("failed to stat note %s: %w", relPath, err)
	}

	name := filepath.Base(relPath)
	ext := strings.TrimPrefix(filepath.Ext(name), ".")

	return Note{
		Path:      relPath,
		Name:      name,
		Extension: ext,
		// Creation time is not portable; birth time falls back to the
		// modification time, matching what most filesystems report.
		Created:  info.ModTime(),
		Modified: info.ModTime(),
		Size:     info.Size(),
	}, nil
}

// abs resolves a vault-relative path and rejects escapes above the root.
func (s *Scanner) abs(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes vault root", relPath)
	}
	return filepath.Join(s.root, cleaned), nil
}
