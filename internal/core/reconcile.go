package core

import (
	"path/filepath"

	"go.uber.org/zap"
)

// Reconciler applies pending display-name edits before an organize run so the
// move step works on the names the user confirmed.
type Reconciler struct {
	logger *zap.Logger
	rename func(oldPath, newPath string) error
}

// NewReconciler returns a Reconciler. A nil logger disables diagnostics.
func NewReconciler(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{logger: logger, rename: RenameFile}
}

// Reconcile renames every entry whose display name differs from its current
// base name to folderRoot/DisplayName. Failures leave CurrentPath untouched,
// are collected in order, and never stop the remaining renames.
func (r *Reconciler) Reconcile(entries []*FileEntry, folderRoot string) ([]*FileEntry, []RenameError) {
	var errs []RenameError
	for _, e := range entries {
		if !e.NeedsRename() {
			continue
		}
		oldName := e.Name()
		if !e.SetDisplayName(e.DisplayName) {
			r.logger.Debug("blank display name reverted", zap.String("file", oldName))
			continue
		}

		if err := validateName(e.DisplayName); err != nil {
			errs = append(errs, r.fail(oldName, e.DisplayName, err))
			continue
		}
		newPath := filepath.Join(folderRoot, e.DisplayName)
		if err := r.rename(e.CurrentPath, newPath); err != nil {
			errs = append(errs, r.fail(oldName, e.DisplayName, err))
			continue
		}

		r.logger.Info("renamed file", zap.String("from", oldName), zap.String("to", e.DisplayName))
		e.CurrentPath = newPath
	}
	return entries, errs
}

func (r *Reconciler) fail(oldName, newName string, err error) RenameError {
	r.logger.Warn("rename failed",
		zap.String("from", oldName),
		zap.String("to", newName),
		zap.Error(err))
	return RenameError{FileName: oldName, NewName: newName, Reason: err.Error()}
}

// Reconcile applies display-name edits using a Reconciler without diagnostics.
func Reconcile(entries []*FileEntry, folderRoot string) ([]*FileEntry, []RenameError) {
	return NewReconciler(nil).Reconcile(entries, folderRoot)
}
