package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/folder-tidy/internal/log"
)

// RenameFile renames oldPath to newPath inside the same folder. An existing
// destination is never overwritten unless it is the same file, which allows
// case-only renames on case-insensitive filesystems.
func RenameFile(oldPath, newPath string) error {
	if oldPath == newPath {
		return nil
	}
	if dst, err := os.Lstat(newPath); err == nil {
		src, srcErr := os.Lstat(oldPath)
		if srcErr != nil || !os.SameFile(src, dst) {
			err := fmt.Errorf("destination already exists")
			log.LogRename(oldPath, newPath, false, err)
			return err
		}
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		log.LogRename(oldPath, newPath, false, err)
		return err
	}
	log.LogRename(oldPath, newPath, true, nil)
	return nil
}

// CreateStemDir creates dirPath when absent. An existing directory is not an
// error; an existing non-directory is.
func CreateStemDir(dirPath string) error {
	err := os.Mkdir(dirPath, 0755)
	if err == nil {
		log.LogCreateDir(dirPath, true, nil)
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		if info, statErr := os.Stat(dirPath); statErr == nil && info.IsDir() {
			return nil
		}
		err = fmt.Errorf("cannot create folder %s: a file with that name already exists", filepath.Base(dirPath))
	}
	log.LogCreateDir(dirPath, false, err)
	return err
}

// MoveFile moves src to dst, refusing to replace an existing destination.
func MoveFile(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		err := fmt.Errorf("cannot move %s: %s already exists", filepath.Base(src), dst)
		log.LogMove(src, dst, false, err)
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		log.LogMove(src, dst, false, err)
		return err
	}
	log.LogMove(src, dst, true, nil)
	return nil
}

// validateName rejects display names that cannot name a file in the folder root.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("%q is not a valid file name", name)
	case strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator):
		return fmt.Errorf("name contains a path separator")
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("name contains invalid characters")
	}
	return nil
}
