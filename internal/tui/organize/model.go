package organize

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/folder-tidy/internal/core"
	"github.com/Digital-Shane/folder-tidy/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

type mode int

const (
	modeBrowse mode = iota
	modeRename
	modeFolder
)

// progressEventMsg carries one event of the active run.
type progressEventMsg struct{ event core.ProgressEvent }

// runDoneMsg signals that the active run's stream has closed.
type runDoneMsg struct {
	outcome core.Outcome
	state   core.RunState
}

// Model lists the files of a folder, lets the user rename them and runs the
// organizer with a live progress bar and log.
type Model struct {
	ctx        context.Context
	organizer  *core.Organizer
	reconciler *core.Reconciler

	folder  string
	entries []*core.FileEntry
	loadErr error

	cursor int
	offset int
	mode   mode
	input  textinput.Model

	running   bool
	quitting  bool
	cancelRun context.CancelFunc
	msgCh     chan tea.Msg
	percent   float64
	outcome   core.Outcome

	progress progress.Model
	logView  viewport.Model
	logLines []string
	status   string

	width      int
	height     int
	listHeight int

	theme theme.Theme
}

// Option configures a Model during construction.
type Option func(*Model)

// WithTheme overrides the theme used by the view.
func WithTheme(th theme.Theme) Option {
	return func(m *Model) {
		m.theme = th
	}
}

// WithContext sets the parent context of every run started from the model.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// New returns a model showing folder. Load errors are kept and shown in the
// status bar instead of failing construction.
func New(folder string, organizer *core.Organizer, reconciler *core.Reconciler, opts ...Option) *Model {
	m := &Model{
		ctx:        context.Background(),
		organizer:  organizer,
		reconciler: reconciler,
		width:      80,
		height:     24,
		msgCh:      make(chan tea.Msg, 64),
	}
	initOpts := append([]Option{WithTheme(theme.Default())}, opts...)
	for _, opt := range initOpts {
		opt(m)
	}

	runewidth.DefaultCondition.EastAsianWidth = false
	runewidth.DefaultCondition.StrictEmojiNeutral = true

	gradient := m.theme.ProgressGradient()
	m.progress = progress.New(progress.WithGradient(gradient[0], gradient[1]))

	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.CharLimit = 255

	m.logView = viewport.New(0, 0)
	m.layout()
	m.loadFolder(folder)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) waitForMsg() tea.Cmd { return func() tea.Msg { return <-m.msgCh } }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case progressEventMsg:
		m.percent = float64(msg.event.Percent) / 100
		m.appendLog(msg.event.Message)
		return m, m.waitForMsg()
	case runDoneMsg:
		return m, m.finishRun(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	if m.mode != modeBrowse {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	switch m.mode {
	case modeRename:
		return m.handleRenameKey(msg)
	case modeFolder:
		return m.handleFolderKey(msg)
	}

	switch msg.String() {
	case "q", "esc":
		return m, m.quit()
	case "pgup":
		m.logView.HalfPageUp()
		return m, nil
	case "pgdown":
		m.logView.HalfPageDown()
		return m, nil
	}

	if m.running {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "home", "g":
		m.moveCursor(-len(m.entries))
	case "end", "G":
		m.moveCursor(len(m.entries))
	case "e", "enter":
		if e := m.selected(); e != nil {
			m.mode = modeRename
			m.input.SetValue(e.DisplayName)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	case "u":
		if e := m.selected(); e != nil {
			e.SetDisplayName("")
		}
	case "f":
		m.mode = modeFolder
		m.input.SetValue(m.folder)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "r":
		m.loadFolder(m.folder)
	case "o":
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if e := m.selected(); e != nil {
			if !e.SetDisplayName(m.input.Value()) {
				m.status = "Name unchanged: " + e.Name()
			} else {
				m.status = ""
			}
		}
		m.endInput()
		return m, nil
	case tea.KeyEsc:
		m.endInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleFolderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		folder := strings.TrimSpace(m.input.Value())
		m.endInput()
		m.selectFolder(folder)
		return m, nil
	case tea.KeyEsc:
		m.endInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.SetValue("")
}

// selectFolder switches to folder, keeping the current listing if it cannot
// be read.
func (m *Model) selectFolder(folder string) {
	entries, err := core.LoadEntries(folder)
	if err != nil {
		m.status = folderErrorText(err)
		return
	}
	abs, _ := filepath.Abs(folder)
	m.folder = abs
	m.entries = entries
	m.loadErr = nil
	m.cursor, m.offset = 0, 0
	m.status = ""
}

func (m *Model) loadFolder(folder string) {
	if abs, err := filepath.Abs(folder); err == nil {
		folder = abs
	}
	m.folder = folder
	m.entries, m.loadErr = core.LoadEntries(folder)
	m.cursor, m.offset = 0, 0
	if m.loadErr != nil {
		m.status = folderErrorText(m.loadErr)
	}
	m.clampCursor()
}

func folderErrorText(err error) string {
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return "Selected folder does not exist!"
	}
	return err.Error()
}

// startRun reconciles pending renames, then streams an organize run into
// msgCh. Preconditions are reported in the log and nothing runs.
func (m *Model) startRun() tea.Cmd {
	m.logLines = nil
	m.refreshLog()
	m.percent = 0
	m.outcome = core.Outcome{}

	if m.loadErr != nil {
		m.appendLog(folderErrorText(m.loadErr))
		return nil
	}

	entries, renameErrs := m.reconciler.Reconcile(m.entries, m.folder)
	for _, re := range renameErrs {
		m.appendLog(re.Error())
	}

	run, err := m.organizer.Start(entries, m.folder)
	if err != nil {
		m.appendLog(err.Error())
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelRun = cancel
	m.running = true
	m.status = ""

	go func() {
		for ev := range run.Stream(ctx) {
			m.msgCh <- progressEventMsg{event: ev}
		}
		m.msgCh <- runDoneMsg{outcome: run.Outcome(), state: run.State()}
	}()
	return m.waitForMsg()
}

func (m *Model) finishRun(msg runDoneMsg) tea.Cmd {
	m.running = false
	m.outcome = msg.outcome
	if m.cancelRun != nil {
		m.cancelRun()
		m.cancelRun = nil
	}
	if m.quitting {
		return tea.Quit
	}

	switch msg.state {
	case core.RunCompleted:
		m.percent = 1
		m.status = ""
	default:
		m.status = "Organize cancelled"
	}
	m.loadFolder(m.folder)
	return nil
}

// quit stops at once when idle. A running organize is cancelled first and
// the program exits when its stream closes.
func (m *Model) quit() tea.Cmd {
	if !m.running {
		return tea.Quit
	}
	m.quitting = true
	m.status = "Cancelling..."
	if m.cancelRun != nil {
		m.cancelRun()
	}
	return nil
}

func (m *Model) selected() *core.FileEntry {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return nil
	}
	return m.entries[m.cursor]
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.listHeight > 0 && m.cursor >= m.offset+m.listHeight {
		m.offset = m.cursor - m.listHeight + 1
	}
}

func (m *Model) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	m.refreshLog()
}

func (m *Model) refreshLog() {
	styled := make([]string, len(m.logLines))
	for i, line := range m.logLines {
		styled[i] = m.theme.LogLineStyle(line).Render(line)
	}
	m.logView.SetContent(strings.Join(styled, "\n"))
	m.logView.GotoBottom()
}

// Folder returns the absolute path of the listed folder.
func (m *Model) Folder() string { return m.folder }

// Entries returns the current listing.
func (m *Model) Entries() []*core.FileEntry { return m.entries }

// LogLines returns the messages of the last run.
func (m *Model) LogLines() []string { return append([]string(nil), m.logLines...) }

// Running reports whether an organize run is in flight.
func (m *Model) Running() bool { return m.running }

// Outcome returns the tally of the last finished run.
func (m *Model) Outcome() core.Outcome { return m.outcome }
