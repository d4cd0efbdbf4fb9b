package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Digital-Shane/folder-tidy/internal/config"
	"github.com/Digital-Shane/folder-tidy/internal/core"
	"github.com/Digital-Shane/folder-tidy/internal/log"
	"github.com/Digital-Shane/folder-tidy/internal/logger"
	"github.com/Digital-Shane/folder-tidy/internal/tui/organize"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// diagnosticLogName is the zap log file used while the TUI owns the terminal.
const diagnosticLogName = "folder-tidy.log"

func runOrganize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if reserved != "" {
		cfg.ReservedStem = reserved
	}

	folder := "."
	if len(args) == 1 {
		folder = args[0]
	}

	edits, err := parseRenames(renames)
	if err != nil {
		return err
	}

	headless := instant || !isTerminal(os.Stdout)
	if len(edits) > 0 && !headless {
		return fmt.Errorf("--rename requires --instant")
	}

	log.Initialize(cfg.EnableLogging && !noLog, cfg.LogRetentionDays)

	zl, err := newDiagnosticLogger(cfg, headless)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	opts := []core.Option{
		core.WithReservedStem(cfg.ReservedStem),
		core.WithLogger(zl),
		core.WithCommandArgs(os.Args[1:]),
	}
	if lockDir, err := config.LockDir(); err == nil {
		opts = append(opts, core.WithLockDir(lockDir))
	} else {
		zl.Warn("cross-process locking disabled", zap.Error(err))
	}
	org := core.NewOrganizer(opts...)
	rec := core.NewReconciler(zl)

	if headless {
		return runInstant(cmd.Context(), cmd.OutOrStdout(), folder, edits, rec, org)
	}

	model := organize.New(folder, org, rec, organize.WithContext(cmd.Context()))
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func newDiagnosticLogger(cfg *config.Config, headless bool) (*zap.Logger, error) {
	output := "stderr"
	if !headless {
		dir, err := log.Dir()
		if err != nil {
			return nil, err
		}
		output = filepath.Join(dir, diagnosticLogName)
	}
	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputPath: output})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return zl, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// parseRenames turns repeated old=new flags into a lookup keyed by the
// current file name. An empty new name is kept; it reverts to the old name.
func parseRenames(pairs []string) (map[string]string, error) {
	edits := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		oldName, newName, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(oldName) == "" {
			return nil, fmt.Errorf("invalid --rename %q: want old=new", pair)
		}
		if _, dup := edits[oldName]; dup {
			return nil, fmt.Errorf("duplicate --rename for %q", oldName)
		}
		edits[oldName] = newName
	}
	return edits, nil
}

// applyRenames sets display names from edits. Every edit must name a file
// that exists in the listing.
func applyRenames(entries []*core.FileEntry, edits map[string]string) error {
	byName := make(map[string]*core.FileEntry, len(entries))
	for _, e := range entries {
		byName[e.Name()] = e
	}
	for oldName, newName := range edits {
		e, ok := byName[oldName]
		if !ok {
			return fmt.Errorf("--rename %s: no such file", oldName)
		}
		e.SetDisplayName(newName)
	}
	return nil
}

// runInstant reconciles and organizes folder without the TUI, printing each
// progress event and a summary table to w.
func runInstant(ctx context.Context, w io.Writer, folder string, edits map[string]string, rec *core.Reconciler, org *core.Organizer) error {
	entries, err := core.LoadEntries(folder)
	if err != nil {
		return err
	}
	if err := applyRenames(entries, edits); err != nil {
		return err
	}

	root, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", folder, err)
	}

	entries, renameErrs := rec.Reconcile(entries, root)
	for _, re := range renameErrs {
		fmt.Fprintln(w, re.Error())
	}

	run, err := org.Start(entries, root)
	if err != nil {
		return err
	}
	for ev := range run.Stream(ctx) {
		fmt.Fprintf(w, "[%3d%%] %s\n", ev.Percent, ev.Message)
	}

	out := run.Outcome()
	fmt.Fprintln(w, renderSummary(out, len(renameErrs)))

	if run.State() == core.RunCancelled {
		return errors.New("organize cancelled")
	}
	if failures := out.Failed + len(renameErrs); failures > 0 {
		return fmt.Errorf("%d errors occurred during organizing", failures)
	}
	return nil
}

func renderSummary(out core.Outcome, renameFailures int) string {
	rows := [][]string{
		{"Organized", strconv.Itoa(out.Succeeded)},
		{"Failed", strconv.Itoa(out.Failed)},
		{"Skipped", strconv.Itoa(out.Skipped)},
		{"Rename errors", strconv.Itoa(renameFailures)},
		{"Total files", strconv.Itoa(out.Total)},
	}
	return renderTable([]string{"Result", "Files"}, rows, []columnAlignment{alignLeft, alignRight})
}
