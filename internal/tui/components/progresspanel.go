package components

import (
	"fmt"
	"strings"

	bubbleprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/progress"
	"github.com/ridgelinehq/costcode/internal/tui/themes"
)

// ProgressPanelModel shows coding progress for the statement, either as a
// full breakdown or as a single line for narrow terminals.
type ProgressPanelModel struct {
	theme   themes.Theme
	totals  progress.Totals
	bar     bubbleprogress.Model
	width   int
	compact bool
}

// NewProgressPanel creates an empty progress panel.
func NewProgressPanel(theme themes.Theme) ProgressPanelModel {
	bar := bubbleprogress.New(bubbleprogress.WithGradient(string(theme.Primary), string(theme.Secondary)))
	bar.ShowPercentage = false
	bar.Width = 30

	return ProgressPanelModel{
		theme: theme,
		bar:   bar,
	}
}

// SetProgress replaces the panel's data with a rollup of the statement.
func (m *ProgressPanelModel) SetProgress(prog model.StatementProgress) {
	m.totals = progress.Rollup(prog.Cardholders)
}

// SetTotals replaces the panel's data with already-computed totals, used when
// a single cardholder is in view.
func (m *ProgressPanelModel) SetTotals(t progress.Totals) {
	m.totals = t
}

// Totals returns the current totals.
func (m ProgressPanelModel) Totals() progress.Totals { return m.totals }

// SetCompact switches between the one-line and full layouts.
func (m *ProgressPanelModel) SetCompact(compact bool) {
	m.compact = compact
}

// View renders the panel.
func (m ProgressPanelModel) View() string {
	if m.compact {
		return m.renderCompact()
	}
	return m.renderFull()
}

func (m ProgressPanelModel) renderCompact() string {
	return m.theme.Subtitle.Render(fmt.Sprintf(
		"%d/%d coded (%.0f%%), %d rejected",
		m.totals.Coded+m.totals.Reviewed,
		m.totals.Total,
		m.totals.Percentage,
		m.totals.Rejected,
	))
}

func (m ProgressPanelModel) renderFull() string {
	title := m.theme.Title.Render("Progress")

	// The bar clamps to its track, the label shows the computed value even
	// when counts put it outside [0, 100].
	ratio := m.totals.Percentage / 100
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	barLine := fmt.Sprintf("%s %.0f%%", m.bar.ViewAs(ratio), m.totals.Percentage)

	rows := []struct {
		label string
		style lipgloss.Style
		value int
	}{
		{"Total", m.theme.Normal, m.totals.Total},
		{"Coded", m.theme.StatusInfo, m.totals.Coded},
		{"Reviewed", m.theme.StatusSuccess, m.totals.Reviewed},
		{"Rejected", m.theme.StatusError, m.totals.Rejected},
		{"Uncoded", m.theme.StatusPending, m.totals.Uncoded},
	}

	var lines []string
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s %s",
			m.theme.Normal.Render(fmt.Sprintf("%-10s", row.label)),
			row.style.Render(fmt.Sprintf("%4d", row.value)),
		))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		barLine,
		"",
		strings.Join(lines, "\n"),
	)
}

// Resize updates the component size.
func (m *ProgressPanelModel) Resize(width int) {
	m.width = width

	barWidth := width - 8
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}
	m.bar.Width = barWidth
}
