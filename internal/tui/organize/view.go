package organize

import (
	"fmt"
	"strings"

	"github.com/Digital-Shane/folder-tidy/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// chromeLines counts the rows that are not list or log content: header,
// folder line, two panel borders each, progress bar, input line and status.
const chromeLines = 9

const minPanelRows = 3

// layout recomputes panel sizes from the window size.
func (m *Model) layout() {
	content := m.height - chromeLines
	m.listHeight = max(minPanelRows, content/2)
	logHeight := max(minPanelRows, content-m.listHeight)

	frame := m.theme.PanelStyle().GetHorizontalFrameSize()
	m.logView.Width = max(0, m.width-frame)
	m.logView.Height = logHeight
	m.progress.Width = max(10, m.width-2)
	m.input.Width = max(10, m.width-20)
	m.clampCursor()
	m.logView.GotoBottom()
}

// View implements tea.Model.
func (m *Model) View() string {
	panel := m.theme.PanelStyle()
	panelWidth := max(0, m.width-panel.GetHorizontalBorderSize())

	sections := []string{
		m.theme.HeaderStyle().Width(m.width).Render("Folder Tidy"),
		m.folderLine(),
		panel.Width(panelWidth).Render(m.renderList()),
		m.progress.ViewAs(m.percent),
		panel.Width(panelWidth).Render(m.logView.View()),
		m.inputLine(),
		m.statusBar(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) folderLine() string {
	line := fmt.Sprintf("%s %s  (%d files)", m.theme.Icon("folder"), m.folder, len(m.entries))
	return runewidth.Truncate(line, m.width, "…")
}

func (m *Model) renderList() string {
	width := max(0, m.width-m.theme.PanelStyle().GetHorizontalFrameSize())
	rows := make([]string, 0, m.listHeight)

	if len(m.entries) == 0 {
		rows = append(rows, m.theme.MutedStyle().Render(runewidth.FillRight("No files in this folder", width)))
	}

	end := min(len(m.entries), m.offset+m.listHeight)
	for i := m.offset; i < end; i++ {
		rows = append(rows, m.renderRow(i, width))
	}
	for len(rows) < m.listHeight {
		rows = append(rows, strings.Repeat(" ", width))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderRow(i, width int) string {
	e := m.entries[i]

	marker := "  "
	if i == m.cursor {
		marker = m.theme.Icon("cursor") + " "
	}
	icon := m.theme.Icon("file")
	if strings.EqualFold(e.Stem(), m.organizer.ReservedStem()) {
		icon = m.theme.Icon("reserved")
	}

	name := e.Name()
	if e.NeedsRename() {
		name = fmt.Sprintf("%s %s %s", name, m.theme.Icon("arrow"), e.DisplayName)
	}

	line := runewidth.FillRight(runewidth.Truncate(marker+icon+" "+name, width, "…"), width)
	if i == m.cursor {
		return m.theme.SelectedStyle().Render(line)
	}
	return line
}

func (m *Model) inputLine() string {
	switch m.mode {
	case modeRename:
		label := "Rename"
		if e := m.selected(); e != nil {
			label = "Rename " + e.Name()
		}
		return label + " " + m.input.View()
	case modeFolder:
		return "Folder " + m.input.View()
	}
	return ""
}

func (m *Model) statusBar() string {
	var badge string
	switch {
	case m.running:
		badge = m.theme.BadgeStyle(theme.BadgeInfo).Render("RUNNING")
	case m.outcome.Failed > 0:
		badge = m.theme.BadgeStyle(theme.BadgeError).Render(fmt.Sprintf("%d FAILED", m.outcome.Failed))
	case m.percent >= 1:
		badge = m.theme.BadgeStyle(theme.BadgeSuccess).Render("DONE")
	default:
		badge = m.theme.BadgeStyle(theme.BadgeMuted).Render("READY")
	}

	var hint string
	switch {
	case m.mode == modeRename:
		hint = "enter: apply  esc: cancel"
	case m.mode == modeFolder:
		hint = "enter: open folder  esc: cancel"
	case m.running:
		hint = "Organizing...  ctrl+c: cancel"
	default:
		hint = "↑↓: move  e: rename  u: revert  f: folder  r: reload  o: organize  q: quit"
	}
	if m.status != "" {
		hint = m.status + "  |  " + hint
	}

	style := m.theme.StatusBarStyle()
	textWidth := max(0, m.width-lipgloss.Width(badge)-style.GetHorizontalFrameSize())
	return lipgloss.JoinHorizontal(lipgloss.Top, badge, style.Width(textWidth+style.GetHorizontalPadding()).Render(runewidth.Truncate(hint, textWidth, "…")))
}
