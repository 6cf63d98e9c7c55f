package components

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ridgelinehq/costcode/internal/document"
	"github.com/ridgelinehq/costcode/internal/tui/themes"
)

// DocViewerModel renders the cardholder statement PDF pane. Page and zoom
// state live in document.Viewer; this component translates key presses into
// viewer operations and draws a terminal stand-in for the page since we
// cannot rasterize a PDF into cells.
type DocViewerModel struct {
	theme          themes.Theme
	cardholderName string
	viewer         document.Viewer
	width          int
	height         int
	focused        bool
}

// NewDocViewer creates a viewer pane in the loading state.
func NewDocViewer(theme themes.Theme) DocViewerModel {
	return DocViewerModel{
		theme:  theme,
		viewer: document.NewViewer(),
	}
}

// Reset puts the pane back into the loading state for a new cardholder.
func (m *DocViewerModel) Reset(cardholderName string) {
	m.cardholderName = cardholderName
	m.viewer = document.NewViewer()
}

// Loaded marks the document as ready with the given page count.
func (m *DocViewerModel) Loaded(numPages int) {
	m.viewer.Loaded(numPages)
}

// Failed marks the document load as failed.
func (m *DocViewerModel) Failed(message string) {
	m.viewer.Failed(message)
}

// SetFocused toggles whether the pane receives navigation keys.
func (m *DocViewerModel) SetFocused(focused bool) {
	m.focused = focused
}

// Viewer returns the underlying viewer state.
func (m DocViewerModel) Viewer() document.Viewer { return m.viewer }

// Update handles messages.
func (m DocViewerModel) Update(msg tea.Msg) (DocViewerModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	switch key.String() {
	case "j", "down", "right", "n":
		m.viewer.NextPage()
	case "k", "up", "left", "p":
		m.viewer.PrevPage()
	case "+", "=":
		m.viewer.ZoomIn()
	case "-", "_":
		m.viewer.ZoomOut()
	case "g", "home":
		m.viewer.SetPage(1)
	case "G", "end":
		m.viewer.SetPage(m.viewer.NumPages())
	}

	return m, nil
}

// View renders the pane.
func (m DocViewerModel) View() string {
	switch m.viewer.State() {
	case document.LoadStateFailed:
		return lipgloss.JoinVertical(
			lipgloss.Left,
			m.theme.Title.Render("Statement PDF"),
			m.theme.StatusError.Render("✗ "+m.viewer.Err()),
		)
	case document.LoadStateReady:
		return m.renderPage()
	default:
		return lipgloss.JoinVertical(
			lipgloss.Left,
			m.theme.Title.Render("Statement PDF"),
			m.theme.StatusPending.Render("Loading document..."),
		)
	}
}

func (m DocViewerModel) renderPage() string {
	title := m.theme.Title.Render("Statement PDF")

	status := fmt.Sprintf("Page %d/%d  Zoom %.0f%%", m.viewer.Page(), m.viewer.NumPages(), m.viewer.Zoom()*100)
	statusLine := m.theme.Subtitle.Render(status)

	// The page placeholder scales with the zoom level so zooming has a
	// visible effect even without rendered PDF content.
	pageWidth := int(28 * m.viewer.Zoom())
	if m.width > 8 && pageWidth > m.width-8 {
		pageWidth = m.width - 8
	}
	pageHeight := int(10 * m.viewer.Zoom())
	if m.height > 10 && pageHeight > m.height-10 {
		pageHeight = m.height - 10
	}

	body := fmt.Sprintf("%s\n\npage %d of %d", m.cardholderName, m.viewer.Page(), m.viewer.NumPages())
	page := m.theme.RoundedBox.
		Width(max(pageWidth, 16)).
		Height(max(pageHeight, 4)).
		Align(lipgloss.Center, lipgloss.Center).
		Render(m.theme.Normal.Render(body))

	sections := []string{title, statusLine, page}

	if m.focused {
		hints := "[j/k] Page  [+/-] Zoom  [Esc] Back"
		sections = append(sections, "", lipgloss.NewStyle().Foreground(m.theme.Muted).Render(hints))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Resize updates the component size.
func (m *DocViewerModel) Resize(width, height int) {
	m.width = width
	m.height = height
}
