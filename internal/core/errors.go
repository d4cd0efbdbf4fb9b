package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFolder is returned when an organize run is requested before a folder was selected.
	ErrNoFolder = errors.New("Please select a folder first!")
	// ErrNoFiles is returned when the selected folder holds nothing to organize.
	ErrNoFiles = errors.New("No files to organize!")
	// ErrRunInProgress is returned when a folder already has an organize run in flight.
	ErrRunInProgress = errors.New("an organize run is already in progress for this folder")
)

// NotFoundError reports a selected folder that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Selected folder does not exist: %s", e.Path)
}

// RenameError records a single failed display-name rename. It never blocks
// the remaining renames or the organize phase.
type RenameError struct {
	FileName string
	NewName  string
	Reason   string
}

func (e RenameError) Error() string {
	return fmt.Sprintf("Error renaming %s to %s: %s", e.FileName, e.NewName, e.Reason)
}

// OrganizeError wraps the failure of one file during an organize run.
type OrganizeError struct {
	FileName string
	Stem     string
	Err      error
}

func (e *OrganizeError) Error() string { return e.Err.Error() }

func (e *OrganizeError) Unwrap() error { return e.Err }
