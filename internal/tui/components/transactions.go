package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/tui/themes"
)

// TransactionTableModel renders the transactions of one cardholder statement.
// The parent owns the selection index; this component only displays it, so
// selection rules (reset on cardholder change, clamped navigation) live in one
// place.
type TransactionTableModel struct {
	theme        themes.Theme
	transactions []model.Transaction
	table        table.Model
	width        int
	height       int
	cursor       int
	focused      bool
}

// NewTransactionTable creates an empty transaction table.
func NewTransactionTable(theme themes.Theme) TransactionTableModel {
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Merchant", Width: 25},
		{Title: "Amount", Width: 11},
		{Title: "GL", Width: 5},
		{Title: "Job/Equip", Width: 12},
		{Title: "St", Width: 3},
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

	m := TransactionTableModel{
		table:  t,
		theme:  theme,
		width:  80,
		height: 24,
	}
	m.updateColumnWidths()

	return m
}

// SetTransactions replaces the rows.
func (m *TransactionTableModel) SetTransactions(txns []model.Transaction) {
	m.transactions = txns
	if m.cursor >= len(txns) {
		m.cursor = max(0, len(txns)-1)
	}
}

// SetCursor moves the highlight to index i, clamped to the list.
func (m *TransactionTableModel) SetCursor(i int) {
	if len(m.transactions) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(i, 0), len(m.transactions)-1)
}

// Cursor returns the highlighted row index.
func (m TransactionTableModel) Cursor() int { return m.cursor }

// SetFocused toggles the focus styling.
func (m *TransactionTableModel) SetFocused(focused bool) { m.focused = focused }

// View renders the table.
func (m TransactionTableModel) View() string {
	if len(m.transactions) == 0 {
		return lipgloss.NewStyle().Foreground(m.theme.Muted).Render("No transactions")
	}

	m.table.SetRows(m.buildRows())
	m.table.SetCursor(m.cursor)

	header := m.renderHeader()
	return lipgloss.JoinVertical(lipgloss.Left, header, m.table.View())
}

func (m TransactionTableModel) renderHeader() string {
	title := "Transactions"
	if m.focused {
		title = m.theme.Bold.Render(title)
	} else {
		title = m.theme.Subtitle.Render(title)
	}

	position := fmt.Sprintf("%d of %d", m.cursor+1, len(m.transactions))
	counter := lipgloss.NewStyle().Foreground(m.theme.Muted).Render(position)

	return lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", counter)
}

func (m TransactionTableModel) buildRows() []table.Row {
	rows := make([]table.Row, 0, len(m.transactions))

	for _, txn := range m.transactions {
		reference := txn.JobCode
		if reference == "" {
			reference = txn.EquipmentCode
		}

		icon := themes.GetStatusIcon(string(txn.Status))

		rows = append(rows, table.Row{
			txn.TransactionDate.Format("2006-01-02"),
			truncate(txn.DisplayName(), 25),
			fmt.Sprintf("$%.2f", txn.Amount),
			txn.GLAccount,
			truncate(reference, 12),
			icon,
		})
	}

	return rows
}

// Resize updates the component size.
func (m *TransactionTableModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// One line of header above the table's own column header.
	m.table.SetHeight(max(1, height-2))
	m.updateColumnWidths()
}

func (m *TransactionTableModel) updateColumnWidths() {
	availableWidth := m.width - 4
	if availableWidth < 56 {
		availableWidth = 56
	}

	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Merchant", Width: max(15, int(float64(availableWidth)*0.36))},
		{Title: "Amount", Width: 11},
		{Title: "GL", Width: 5},
		{Title: "Job/Equip", Width: max(9, int(float64(availableWidth)*0.2))},
		{Title: "St", Width: 3},
	}

	m.table.SetColumns(columns)
}
