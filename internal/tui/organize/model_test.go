package organize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Digital-Shane/folder-tidy/internal/core"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"
)

func quietOrganizer(fns core.Functions) *core.Organizer {
	if fns.StartSession == nil {
		fns.StartSession = func(string, []string) (string, error) { return "", nil }
	}
	if fns.EndSession == nil {
		fns.EndSession = func() error { return nil }
	}
	if fns.DiscardPending == nil {
		fns.DiscardPending = func() {}
	}
	return core.NewOrganizer(core.WithFunctions(fns))
}

func newTestModel(t *testing.T, dir string) *Model {
	t.Helper()
	return New(dir, quietOrganizer(core.Functions{}), core.NewReconciler(nil))
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("os.WriteFile(%s) error = %v", name, err)
		}
	}
}

func entryNames(m *Model) []string {
	names := make([]string, 0, len(m.Entries()))
	for _, e := range m.Entries() {
		names = append(names, e.Name())
	}
	return names
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "ctrl+u":
			msg = tea.KeyMsg{Type: tea.KeyCtrlU}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func TestNewListsFolder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.txt", "a.txt")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("os.Mkdir() error = %v", err)
	}

	m := newTestModel(t, dir)

	if diff := cmp.Diff([]string{"a.txt", "b.txt"}, entryNames(m)); diff != "" {
		t.Errorf("entries diff (-want +got):\n%s", diff)
	}
	if !filepath.IsAbs(m.Folder()) {
		t.Errorf("Folder() = %q, want absolute path", m.Folder())
	}
}

func TestNewMissingFolderShowsStatus(t *testing.T) {
	m := newTestModel(t, filepath.Join(t.TempDir(), "missing"))

	if m.status != "Selected folder does not exist!" {
		t.Errorf("status = %q, want missing folder message", m.status)
	}

	press(m, "o")
	if diff := cmp.Diff([]string{"Selected folder does not exist!"}, m.LogLines()); diff != "" {
		t.Errorf("log diff (-want +got):\n%s", diff)
	}
}

func TestCursorMovementClamps(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt", "c.txt")
	m := newTestModel(t, dir)

	press(m, "up")
	if m.cursor != 0 {
		t.Errorf("cursor after up at top = %d, want 0", m.cursor)
	}
	press(m, "down", "down", "down", "down")
	if m.cursor != 2 {
		t.Errorf("cursor after moving past end = %d, want 2", m.cursor)
	}
	press(m, "g")
	if m.cursor != 0 {
		t.Errorf("cursor after g = %d, want 0", m.cursor)
	}
}

func TestRenameEditSetsDisplayName(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")
	m := newTestModel(t, dir)

	press(m, "e")
	if m.mode != modeRename {
		t.Fatalf("mode = %v, want rename", m.mode)
	}
	if got := m.input.Value(); got != "a.txt" {
		t.Errorf("input prefilled with %q, want a.txt", got)
	}
	press(m, "ctrl+u", "z.txt", "enter")

	e := m.Entries()[0]
	if e.DisplayName != "z.txt" || !e.NeedsRename() {
		t.Errorf("entry = %+v, want pending rename to z.txt", e)
	}
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse after enter", m.mode)
	}
	if !strings.Contains(m.View(), "z.txt") {
		t.Errorf("View() should show the pending name:\n%s", m.View())
	}

	press(m, "u")
	if e.NeedsRename() {
		t.Errorf("u should revert the pending rename, DisplayName = %q", e.DisplayName)
	}
}

func TestRenameEditBlankKeepsName(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")
	m := newTestModel(t, dir)

	press(m, "e", "ctrl+u", "enter")

	if e := m.Entries()[0]; e.DisplayName != "a.txt" {
		t.Errorf("DisplayName = %q, want a.txt", e.DisplayName)
	}
	if !strings.HasPrefix(m.status, "Name unchanged") {
		t.Errorf("status = %q, want name unchanged notice", m.status)
	}
}

func TestRenameEditEscDiscards(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")
	m := newTestModel(t, dir)

	press(m, "e", "ctrl+u", "b.txt", "esc")

	if m.Entries()[0].NeedsRename() {
		t.Error("esc should discard the edit")
	}
}

func TestSelectFolder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFiles(t, first, "a.txt")
	writeFiles(t, second, "x.txt", "y.txt")
	m := newTestModel(t, first)

	press(m, "f", "ctrl+u", second, "enter")
	if diff := cmp.Diff([]string{"x.txt", "y.txt"}, entryNames(m)); diff != "" {
		t.Errorf("entries after folder change diff (-want +got):\n%s", diff)
	}

	press(m, "f", "ctrl+u", filepath.Join(second, "missing"), "enter")
	if m.status != "Selected folder does not exist!" {
		t.Errorf("status = %q, want missing folder message", m.status)
	}
	if diff := cmp.Diff([]string{"x.txt", "y.txt"}, entryNames(m)); diff != "" {
		t.Errorf("a bad folder should keep the listing (-want +got):\n%s", diff)
	}

	press(m, "f", "ctrl+u", "enter")
	if m.status != core.ErrNoFolder.Error() {
		t.Errorf("status = %q, want %q", m.status, core.ErrNoFolder.Error())
	}
}

func TestOrganizeEmptyFolderReportsNoFiles(t *testing.T) {
	m := newTestModel(t, t.TempDir())

	press(m, "o")

	if m.Running() {
		t.Error("Running() = true, want no run for an empty folder")
	}
	if diff := cmp.Diff([]string{"No files to organize!"}, m.LogLines()); diff != "" {
		t.Errorf("log diff (-want +got):\n%s", diff)
	}
}

func TestRunEventsUpdateProgressAndLog(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")
	m := newTestModel(t, dir)
	m.running = true

	m.Update(progressEventMsg{event: core.ProgressEvent{Percent: 50, Message: "Success: a.txt moved to a"}})
	if m.percent != 0.5 {
		t.Errorf("percent = %v, want 0.5", m.percent)
	}

	// Move the file the way a run would, then finish.
	if err := os.Mkdir(filepath.Join(dir, "a"), 0o755); err != nil {
		t.Fatalf("os.Mkdir() error = %v", err)
	}
	if err := os.Rename(filepath.Join(dir, "a.txt"), filepath.Join(dir, "a", "a.txt")); err != nil {
		t.Fatalf("os.Rename() error = %v", err)
	}
	m.Update(runDoneMsg{outcome: core.Outcome{Total: 1, Succeeded: 1}, state: core.RunCompleted})

	if m.Running() {
		t.Error("Running() = true after runDoneMsg")
	}
	if m.percent != 1 {
		t.Errorf("percent = %v, want 1 after completion", m.percent)
	}
	if len(m.Entries()) != 0 {
		t.Errorf("entries = %v, want reloaded empty listing", entryNames(m))
	}
	if diff := cmp.Diff([]string{"Success: a.txt moved to a"}, m.LogLines()); diff != "" {
		t.Errorf("log diff (-want +got):\n%s", diff)
	}
}

func TestControlsDisabledWhileRunning(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt")
	m := newTestModel(t, dir)
	m.running = true

	press(m, "down", "e", "f", "u", "o")

	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 while running", m.cursor)
	}
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse while running", m.mode)
	}
}

func TestQuitWhileRunningWaitsForRun(t *testing.T) {
	m := newTestModel(t, t.TempDir())
	m.running = true
	cancelled := false
	m.cancelRun = func() { cancelled = true }

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Error("ctrl+c while running should not quit before the run ends")
	}
	if !cancelled {
		t.Error("ctrl+c while running should cancel the run")
	}

	_, cmd = m.Update(runDoneMsg{state: core.RunCancelled})
	if cmd == nil {
		t.Fatal("runDoneMsg after ctrl+c should return tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("cmd() = %T, want tea.QuitMsg", cmd())
	}
}

func TestViewFitsWindow(t *testing.T) {
	// ASCII icons keep cell widths unambiguous.
	t.Setenv("SSH_TTY", "1")
	dir := t.TempDir()
	writeFiles(t, dir, strings.Repeat("long-name-", 20)+".txt", "organize.sh")
	m := newTestModel(t, dir)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})

	lines := strings.Split(m.View(), "\n")
	if len(lines) != 20 {
		t.Errorf("View() height = %d, want 20", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w > 60 {
			t.Errorf("line %d width = %d, want <= 60: %q", i, w, line)
		}
	}
}

func TestRunWorksOnSnapshotOfListing(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt")
	m := newTestModel(t, dir)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	successes := 0
	for cmd != nil {
		msg := cmd()
		if ev, ok := msg.(progressEventMsg); ok && strings.HasPrefix(ev.event.Message, "Success: ") {
			successes++
			for _, e := range m.Entries() {
				if e.CurrentPath != e.OriginalPath {
					t.Errorf("listed entry %s moved to %q during the run", e.OriginalPath, e.CurrentPath)
				}
			}
		}
		// Render between events the way the program loop does.
		_ = m.View()
		_, cmd = m.Update(msg)
	}

	if successes != 2 {
		t.Errorf("success events = %d, want 2", successes)
	}
	if m.Running() {
		t.Error("Running() = true after the run finished")
	}
	if len(m.Entries()) != 0 {
		t.Errorf("entries = %v, want reloaded empty listing", entryNames(m))
	}
	for _, name := range []string{"a", "b"} {
		if _, err := os.Stat(filepath.Join(dir, name, name+".txt")); err != nil {
			t.Errorf("os.Stat(%s) error = %v", name, err)
		}
	}
}

func TestOrganizeBusyFolderReportsError(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")
	m := newTestModel(t, dir)

	entries, err := core.LoadEntries(dir)
	if err != nil {
		t.Fatalf("LoadEntries() error = %v", err)
	}
	other, err := quietOrganizer(core.Functions{}).Start(entries, dir)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer other.Close()

	press(m, "o")

	if m.Running() {
		t.Error("Running() = true, want no run for a claimed folder")
	}
	if diff := cmp.Diff([]string{core.ErrRunInProgress.Error()}, m.LogLines()); diff != "" {
		t.Errorf("log diff (-want +got):\n%s", diff)
	}
}
