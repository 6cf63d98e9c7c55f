package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ridgelinehq/costcode/internal/common"
)

var loadingFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	loadingText := m.theme.Title.Render("Loading statement...")

	frame := int(time.Since(m.startTime)/(100*time.Millisecond)) % len(loadingFrames)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		loadingText,
		"",
		lipgloss.NewStyle().Foreground(m.theme.Primary).Render(string(loadingFrames[frame])),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Fetching statement progress..."),
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// renderCompactView renders the single-pane layout for narrow terminals.
func (m Model) renderCompactView() string {
	var content string

	switch m.state {
	case StateCardholderSelect:
		// Account for borders (2) and status bar (1)
		m.cardholderList.Resize(m.width-2, m.height-3)
		content = m.cardholderList.View()

	case StateCoding:
		// One pane at a time, following focus
		switch m.focus {
		case FocusForm:
			content = m.codingForm.View()
		case FocusViewer:
			content = m.docViewer.View()
		default:
			m.txnTable.Resize(m.width-2, m.height-5)
			m.progressPanel.SetCompact(true)
			content = lipgloss.JoinVertical(
				lipgloss.Left,
				m.txnTable.View(),
				m.progressPanel.View(),
			)
		}

	case StateHelp:
		content = m.renderHelp()
	}

	return m.wrapWithBorder(content)
}

// renderMediumView renders the two-pane layout for medium terminals.
func (m Model) renderMediumView() string {
	switch m.state {
	case StateCardholderSelect:
		// Left: cardholder list (70%)
		// Right: statement progress (30%)
		// Account for: border (2) + separator (3) = 5 total
		totalUsableWidth := m.width - 5
		leftWidth := int(float64(totalUsableWidth) * 0.7)
		rightWidth := totalUsableWidth - leftWidth

		usableHeight := m.height - 3
		m.cardholderList.Resize(leftWidth, usableHeight)
		left := m.cardholderList.View()

		m.progressPanel.SetCompact(false)
		m.progressPanel.Resize(rightWidth)
		right := m.progressPanel.View()

		content := lipgloss.JoinHorizontal(
			lipgloss.Top,
			left,
			m.theme.Normal.Render(" │ "),
			right,
		)

		return m.wrapWithBorder(content)

	case StateCoding:
		// Left: transaction list (45%)
		// Right: coding form, or the document viewer when it has focus (55%)
		totalUsableWidth := m.width - 5
		leftWidth := int(float64(totalUsableWidth) * 0.45)
		rightWidth := totalUsableWidth - leftWidth

		usableHeight := m.height - 3
		m.txnTable.Resize(leftWidth, usableHeight)
		left := m.txnTable.View()

		var right string
		if m.focus == FocusViewer {
			m.docViewer.Resize(rightWidth, usableHeight)
			right = m.docViewer.View()
		} else {
			m.codingForm.Resize(rightWidth, usableHeight)
			right = m.codingForm.View()
		}

		content := lipgloss.JoinHorizontal(
			lipgloss.Top,
			left,
			m.theme.Normal.Render(" │ "),
			right,
		)

		return m.wrapWithBorder(content)

	default:
		return m.renderCompactView()
	}
}

// renderFullView renders the three-pane layout for wide terminals.
func (m Model) renderFullView() string {
	switch m.state {
	case StateCoding:
		// Left: transaction list (38%)
		// Middle: coding form (32%)
		// Right: document viewer (30%)
		// Account for: border (2) + 2 separators (6) = 8 total
		totalUsableWidth := m.width - 8
		leftWidth := int(float64(totalUsableWidth) * 0.38)
		middleWidth := int(float64(totalUsableWidth) * 0.32)
		rightWidth := totalUsableWidth - leftWidth - middleWidth

		usableHeight := m.height - 3
		m.txnTable.Resize(leftWidth, usableHeight)
		left := m.txnTable.View()

		m.codingForm.Resize(middleWidth, usableHeight)
		middle := m.theme.Box.Width(middleWidth).MaxWidth(middleWidth).Render(m.codingForm.View())

		m.docViewer.Resize(rightWidth, usableHeight)
		right := m.docViewer.View()

		content := lipgloss.JoinHorizontal(
			lipgloss.Top,
			left,
			m.theme.Normal.Render(" │ "),
			middle,
			m.theme.Normal.Render(" │ "),
			right,
		)

		return m.wrapWithBorder(content)

	default:
		return m.renderMediumView()
	}
}

// renderHelp renders the help screen.
func (m Model) renderHelp() string {
	title := m.theme.Title.Render("costcode - Help")

	sections := []struct {
		title string
		items []string
	}{
		{
			"Navigation",
			[]string{
				"↑/k, ↓/j    Move up/down",
				"n/p         Next/previous transaction",
				"g/G         Go to start/end",
				"Esc         Back",
			},
		},
		{
			"Coding",
			[]string{
				"Enter       Edit coding for transaction",
				"Tab         Next form field",
				"Ctrl+S      Submit coding",
				"a           Approve coded transaction",
				"r           Reject coded transaction",
			},
		},
		{
			"Statement PDF",
			[]string{
				"d           View statement PDF",
				"j/k         Next/previous page",
				"+/-         Zoom in/out",
			},
		},
		{
			"Application",
			[]string{
				"Ctrl+R      Refresh from server",
				"Ctrl+L      Clear screen",
				"q           Quit",
				"Ctrl+C      Force quit",
			},
		},
	}

	var content []string
	for _, section := range sections {
		sectionTitle := m.theme.Subtitle.Render(section.title)
		content = append(content, sectionTitle)

		for _, item := range section.items {
			parts := strings.SplitN(item, "  ", 2)
			if len(parts) == 2 {
				line := fmt.Sprintf("  %-12s %s",
					lipgloss.NewStyle().Foreground(m.theme.Primary).Render(parts[0]),
					m.theme.Normal.Render(strings.TrimSpace(parts[1])),
				)
				content = append(content, line)
			}
		}
		content = append(content, "")
	}

	helpText := lipgloss.JoinVertical(
		lipgloss.Left,
		content...,
	)

	footer := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press ? or Esc to close help")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		m.theme.BorderedBox.
			Width(60).
			MaxHeight(m.height-4).
			Render(
				lipgloss.JoinVertical(
					lipgloss.Left,
					title,
					"",
					helpText,
					footer,
				),
			),
	)
}

// wrapWithBorder adds the status bar and outer border around content.
func (m Model) wrapWithBorder(content string) string {
	statusBar := m.renderStatusBar()

	fullContent := lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		statusBar,
	)

	return m.theme.BorderedBox.
		Width(m.width).
		Height(m.height).
		Render(fullContent)
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	var left, center string

	switch m.state {
	case StateCardholderSelect:
		left = "Statement " + m.statementID
	case StateCoding:
		if ch, ok := m.selectedCardholderProgress(); ok {
			left = ch.CardholderName
		} else {
			left = "Coding"
		}
	case StateHelp:
		left = "Help"
	default:
		left = "Loading"
	}

	if m.lastError != nil {
		center = "⚠ " + common.UserMessage(m.lastError)
	} else if totals := m.progressPanel.Totals(); totals.Total > 0 {
		done := totals.Coded + totals.Reviewed
		bar := m.renderMiniProgressBar(20, float64(done)/float64(totals.Total))
		center = fmt.Sprintf("%s %d/%d", bar, done, totals.Total)
	}

	right := "? Help"
	if m.config.User != "" {
		right = m.config.User + "  " + right
	}

	// Spacing is computed from the unstyled strings
	totalWidth := m.width - 4
	spacing := totalWidth - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if spacing < 2 {
		spacing = 2
	}
	leftPad := spacing / 2
	rightPad := spacing - leftPad

	centerStyle := m.theme.Normal
	if m.lastError != nil {
		centerStyle = m.theme.StatusError
	}

	status := fmt.Sprintf("%s%s%s%s%s",
		m.theme.StatusInfo.Render(left),
		strings.Repeat(" ", leftPad),
		centerStyle.Render(center),
		strings.Repeat(" ", rightPad),
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(right),
	)

	return m.theme.Normal.
		Background(m.theme.Border).
		Width(m.width - 2).
		MaxWidth(m.width - 2).
		Render(status)
}

// renderMiniProgressBar renders a small progress bar.
func (m Model) renderMiniProgressBar(width int, ratio float64) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(float64(width) * ratio)
	empty := width - filled

	return m.theme.StatusSuccess.Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(strings.Repeat("░", empty))
}
