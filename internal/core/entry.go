package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileEntry tracks one file of the selected folder.
//
// OriginalPath is the path the file had when the folder was scanned and never
// changes. CurrentPath follows the file through renames and moves. DisplayName
// is the user-editable name applied by Reconcile.
type FileEntry struct {
	OriginalPath string
	CurrentPath  string
	DisplayName  string
}

// NewFileEntry returns an entry whose display name matches its base name.
func NewFileEntry(path string) *FileEntry {
	return &FileEntry{
		OriginalPath: path,
		CurrentPath:  path,
		DisplayName:  filepath.Base(path),
	}
}

// Name returns the base name of the entry's current location.
func (e *FileEntry) Name() string { return filepath.Base(e.CurrentPath) }

// Stem returns the base name without its final extension.
func (e *FileEntry) Stem() string { return Stem(e.CurrentPath) }

// NeedsRename reports whether the display name differs from the current base name.
func (e *FileEntry) NeedsRename() bool { return e.DisplayName != e.Name() }

// SetDisplayName applies a user edit. Blank names revert the edit and return false.
func (e *FileEntry) SetDisplayName(name string) bool {
	if strings.TrimSpace(name) == "" {
		e.DisplayName = e.Name()
		return false
	}
	e.DisplayName = name
	return true
}

// Stem returns the base name of path without its final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadEntries lists the regular files directly inside folder in name order.
func LoadEntries(folder string) ([]*FileEntry, error) {
	if folder == "" {
		return nil, ErrNoFolder
	}
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", folder, err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, &NotFoundError{Path: abs}
	}

	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", abs, err)
	}

	entries := make([]*FileEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		entries = append(entries, NewFileEntry(filepath.Join(abs, de.Name())))
	}
	return entries, nil
}
