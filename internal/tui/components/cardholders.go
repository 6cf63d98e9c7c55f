// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/progress"
	"github.com/ridgelinehq/costcode/internal/tui/themes"
)

// CardholderListModel shows the per-cardholder completion summary for a
// statement and lets the user pick whose transactions to code.
type CardholderListModel struct {
	theme    themes.Theme
	progress model.StatementProgress
	table    table.Model
	lastKey  string
	width    int
	height   int
	cursor   int
}

// CardholderSelectedMsg is sent when a cardholder is chosen.
type CardholderSelectedMsg struct {
	Cardholder model.CardholderProgress
	Index      int
}

// NewCardholderList creates a cardholder list for the given progress summary.
func NewCardholderList(prog model.StatementProgress, theme themes.Theme) CardholderListModel {
	columns := []table.Column{
		{Title: "Cardholder", Width: 24},
		{Title: "Total", Width: 6},
		{Title: "Coded", Width: 6},
		{Title: "Reviewed", Width: 9},
		{Title: "Progress", Width: 28},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = theme.Selected
	t.SetStyles(s)

	m := CardholderListModel{
		progress: prog,
		table:    t,
		theme:    theme,
		width:    80,
		height:   24,
	}
	m.updateColumnWidths()

	return m
}

// SetProgress replaces the summary, keeping the cursor on the same row where
// possible.
func (m *CardholderListModel) SetProgress(prog model.StatementProgress) {
	m.progress = prog
	if m.cursor >= len(prog.Cardholders) {
		m.cursor = max(0, len(prog.Cardholders)-1)
	}
}

// Cursor returns the highlighted row index.
func (m CardholderListModel) Cursor() int { return m.cursor }

// Selected returns the highlighted cardholder, if any.
func (m CardholderListModel) Selected() (model.CardholderProgress, bool) {
	if m.cursor < 0 || m.cursor >= len(m.progress.Cardholders) {
		return model.CardholderProgress{}, false
	}
	return m.progress.Cardholders[m.cursor], true
}

// Update handles messages.
func (m CardholderListModel) Update(msg tea.Msg) (CardholderListModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		cmds = append(cmds, cmd)
		m.lastKey = msg.String()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(1, m.height-4))
	}

	return m, tea.Batch(cmds...)
}

func (m *CardholderListModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "j", "down":
		m.cursor = min(m.cursor+1, len(m.progress.Cardholders)-1)

	case "k", "up":
		m.cursor = max(m.cursor-1, 0)

	case "G", "end":
		m.cursor = len(m.progress.Cardholders) - 1

	case "g", "home":
		if msg.String() == "home" || m.lastKey == "g" {
			m.cursor = 0
		}

	case "enter":
		if ch, ok := m.Selected(); ok {
			index := m.cursor
			return func() tea.Msg {
				return CardholderSelectedMsg{Cardholder: ch, Index: index}
			}
		}
	}

	return nil
}

// View renders the cardholder list.
func (m CardholderListModel) View() string {
	if m.height < 8 {
		return "Terminal too small"
	}

	m.table.SetRows(m.buildRows())
	m.table.SetCursor(m.cursor)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.table.View(),
		m.renderFooter(),
	)
}

func (m CardholderListModel) renderHeader() string {
	title := m.theme.Title.Render("Statement " + m.progress.StatementID)

	totals := progress.Rollup(m.progress.Cardholders)
	status := fmt.Sprintf("%d cardholders | %d/%d transactions coded (%.0f%%)",
		len(m.progress.Cardholders),
		totals.Coded+totals.Reviewed,
		totals.Total,
		totals.Percentage,
	)
	subtitle := m.theme.Subtitle.Render(status)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
}

func (m CardholderListModel) renderFooter() string {
	hints := []string{
		"[↑↓] Navigate",
		"[Enter] Code transactions",
		"[?] Help",
		"[q] Quit",
	}
	return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(strings.Join(hints, "  "))
}

func (m CardholderListModel) buildRows() []table.Row {
	rows := make([]table.Row, 0, len(m.progress.Cardholders))

	for _, ch := range m.progress.Cardholders {
		bar := m.renderProgressCell(ch.ProgressPercentage)

		row := table.Row{
			truncate(ch.CardholderName, 24),
			fmt.Sprintf("%d", ch.TotalTransactions),
			fmt.Sprintf("%d", ch.CodedTransactions),
			fmt.Sprintf("%d", ch.ReviewedTransactions),
			bar,
		}
		rows = append(rows, row)
	}

	return rows
}

// renderProgressCell renders a fixed-width bar plus the percentage. The
// percentage can sit outside [0, 100] when counts disagree with the total;
// the bar clamps but the number is shown as reported.
func (m CardholderListModel) renderProgressCell(pct float64) string {
	width := 18
	filled := int(float64(width) * pct / 100)
	filled = min(max(filled, 0), width)

	bar := m.theme.ProgressFull.Render(strings.Repeat("█", filled)) +
		m.theme.ProgressEmpty.Render(strings.Repeat("░", width-filled))

	return fmt.Sprintf("%s %3.0f%%", bar, pct)
}

// Resize updates the component size.
func (m *CardholderListModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// Header takes 3 lines, footer 1.
	m.table.SetHeight(max(1, height-4))
	m.updateColumnWidths()
}

func (m *CardholderListModel) updateColumnWidths() {
	availableWidth := m.width - 4
	if availableWidth < 60 {
		availableWidth = 60
	}

	columns := []table.Column{
		{Title: "Cardholder", Width: max(16, int(float64(availableWidth)*0.32))},
		{Title: "Total", Width: 6},
		{Title: "Coded", Width: 6},
		{Title: "Reviewed", Width: 9},
		{Title: "Progress", Width: max(24, int(float64(availableWidth)*0.34))},
	}

	m.table.SetColumns(columns)
}

// Helper to truncate strings.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
