package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ridgelinehq/costcode/internal/coding"
	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/tui/themes"
)

// FormMode represents the coding form's current mode.
type FormMode int

const (
	FormEditing FormMode = iota
	FormRejecting
	FormSubmitting
	FormSuccess
	FormReadOnly
)

// Form field indexes, in tab order.
const (
	fieldGLAccount = iota
	fieldJobCode
	fieldPhase
	fieldCostType
	fieldEquipmentCode
	fieldEquipmentCostCode
	fieldNotes
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"GL account",
	"Job",
	"Phase",
	"Cost type",
	"Equipment",
	"Equip cost",
	"Notes",
}

// fieldNames matches the validator's field keys so its errors can be shown
// inline next to the right input.
var fieldNames = [fieldCount]string{
	"gl_account",
	"job_code",
	"phase",
	"cost_type",
	"equipment_code",
	"equipment_cost_code",
	"notes",
}

// SubmitCodingMsg is sent when the form submits a valid coding entry.
type SubmitCodingMsg struct {
	TransactionID string
	Fields        model.CodingFields
}

// SubmitReviewMsg is sent when the form submits a rejection.
type SubmitReviewMsg struct {
	TransactionID   string
	RejectionReason string
	Approved        bool
}

// CodingFormModel is the coding entry form for one transaction. It only
// accepts input while the transaction is uncoded; any other status renders a
// read-only summary, so a submission for an already-coded transaction cannot
// even be composed.
type CodingFormModel struct {
	theme       themes.Theme
	transaction model.Transaction
	errors      coding.FieldErrors
	errorLine   string
	inputs      [fieldCount]textinput.Model
	reasonInput textinput.Model
	spinner     spinner.Model
	mode        FormMode
	returnMode  FormMode
	focusIndex  int
	width       int
	height      int
}

// NewCodingForm creates an empty, read-only form. SetTransaction activates it.
func NewCodingForm(theme themes.Theme) CodingFormModel {
	limits := [fieldCount]int{
		4,
		coding.MaxJobCodeLen,
		coding.MaxPhaseLen,
		coding.MaxCostTypeLen,
		coding.MaxEquipmentCodeLen,
		coding.MaxEquipmentCostCodeLen,
		coding.MaxNotesLen,
	}
	placeholders := [fieldCount]string{
		"4 digits",
		"job code",
		"phase",
		"cost type",
		"equipment unit",
		"equipment cost code",
		"notes",
	}

	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = limits[i]
		in.Prompt = ""
		inputs[i] = in
	}

	reason := textinput.New()
	reason.Placeholder = "why is this coding wrong?"
	reason.CharLimit = coding.MaxNotesLen
	reason.Prompt = ""

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Primary)

	return CodingFormModel{
		inputs:      inputs,
		reasonInput: reason,
		spinner:     s,
		theme:       theme,
		mode:        FormReadOnly,
	}
}

// Transaction returns the transaction the form is bound to.
func (m CodingFormModel) Transaction() model.Transaction { return m.transaction }

// Mode returns the form's current mode.
func (m CodingFormModel) Mode() FormMode { return m.mode }

// SetTransaction binds the form to a transaction. A new identity fully resets
// the form: inputs, errors, and focus never carry over from one transaction
// to the next. Rebinding the same id only refreshes the record.
func (m *CodingFormModel) SetTransaction(txn model.Transaction) {
	sameID := txn.ID != "" && txn.ID == m.transaction.ID
	m.transaction = txn

	if sameID {
		if !txn.Codable() && (m.mode == FormEditing || m.mode == FormSuccess) {
			m.mode = FormReadOnly
		}
		return
	}

	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.reasonInput.SetValue("")
	m.reasonInput.Blur()
	m.errors = nil
	m.errorLine = ""
	m.focusIndex = 0

	if txn.Codable() {
		m.mode = FormEditing
		m.inputs[0].Focus()
	} else {
		m.mode = FormReadOnly
	}
}

// BeginReject opens the rejection reason prompt. Only coded transactions can
// be rejected.
func (m *CodingFormModel) BeginReject() tea.Cmd {
	if m.transaction.Status != model.StatusCoded {
		return nil
	}
	m.mode = FormRejecting
	m.errorLine = ""
	m.reasonInput.SetValue("")
	m.reasonInput.Focus()
	return textinput.Blink
}

// ShowError surfaces a submission failure and returns the form to the mode it
// submitted from, keeping the user's input.
func (m *CodingFormModel) ShowError(message string) {
	m.errorLine = message
	m.mode = m.returnMode
	if m.mode == FormEditing {
		m.inputs[m.focusIndex].Focus()
	}
	if m.mode == FormRejecting {
		m.reasonInput.Focus()
	}
}

// ShowSuccess marks the submission as accepted.
func (m *CodingFormModel) ShowSuccess() {
	m.mode = FormSuccess
	m.errorLine = ""
	m.errors = nil
}

// Update handles messages.
func (m CodingFormModel) Update(msg tea.Msg) (CodingFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		var cmd tea.Cmd
		switch m.mode {
		case FormEditing:
			cmd = m.handleEditingKeys(msg)
		case FormRejecting:
			cmd = m.handleRejectKeys(msg)
		}
		return m, cmd

	case spinner.TickMsg:
		if m.mode == FormSubmitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *CodingFormModel) handleEditingKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		m.focusField((m.focusIndex + 1) % fieldCount)

	case "shift+tab", "up":
		m.focusField((m.focusIndex + fieldCount - 1) % fieldCount)

	case "ctrl+s":
		return m.submit()

	case "enter":
		if m.focusIndex == fieldNotes {
			return m.submit()
		}
		m.focusField(m.focusIndex + 1)

	default:
		var cmd tea.Cmd
		m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
		return cmd
	}

	return nil
}

func (m *CodingFormModel) handleRejectKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = FormReadOnly
		m.errorLine = ""
		m.reasonInput.Blur()

	case "enter":
		reason := strings.TrimSpace(m.reasonInput.Value())
		if reason == "" {
			m.errorLine = "rejection requires a reason"
			return nil
		}
		return m.submitReview(false, reason)

	default:
		var cmd tea.Cmd
		m.reasonInput, cmd = m.reasonInput.Update(msg)
		return cmd
	}

	return nil
}

func (m *CodingFormModel) focusField(i int) {
	m.inputs[m.focusIndex].Blur()
	m.focusIndex = min(max(i, 0), fieldCount-1)
	m.inputs[m.focusIndex].Focus()
}

func (m *CodingFormModel) collectFields() model.CodingFields {
	return model.CodingFields{
		GLAccount:         strings.TrimSpace(m.inputs[fieldGLAccount].Value()),
		JobCode:           strings.TrimSpace(m.inputs[fieldJobCode].Value()),
		Phase:             strings.TrimSpace(m.inputs[fieldPhase].Value()),
		CostType:          strings.TrimSpace(m.inputs[fieldCostType].Value()),
		EquipmentCode:     strings.TrimSpace(m.inputs[fieldEquipmentCode].Value()),
		EquipmentCostCode: strings.TrimSpace(m.inputs[fieldEquipmentCostCode].Value()),
		Notes:             strings.TrimSpace(m.inputs[fieldNotes].Value()),
	}
}

// submit validates locally and emits the coding submission. Validation
// failures stay inside the form; nothing reaches the network until the fields
// pass the same rules the server applies.
func (m *CodingFormModel) submit() tea.Cmd {
	fields := m.collectFields()

	if errs := coding.Validate(fields); len(errs) > 0 {
		m.errors = errs
		m.errorLine = ""
		for i, name := range fieldNames {
			if _, ok := errs[name]; ok {
				m.focusField(i)
				break
			}
		}
		return nil
	}

	m.errors = nil
	m.errorLine = ""
	m.returnMode = FormEditing
	m.mode = FormSubmitting

	id := m.transaction.ID
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			return SubmitCodingMsg{TransactionID: id, Fields: fields}
		},
	)
}

func (m *CodingFormModel) submitReview(approved bool, reason string) tea.Cmd {
	m.errorLine = ""
	m.returnMode = FormRejecting
	m.mode = FormSubmitting

	id := m.transaction.ID
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			return SubmitReviewMsg{TransactionID: id, RejectionReason: reason, Approved: approved}
		},
	)
}

// View renders the form.
func (m CodingFormModel) View() string {
	if m.transaction.ID == "" {
		return lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Select a transaction")
	}

	switch m.mode {
	case FormSubmitting:
		return m.renderSubmitting()
	case FormSuccess:
		return m.renderSuccess()
	case FormRejecting:
		return m.renderReject()
	case FormReadOnly:
		return m.renderSummary()
	default:
		return m.renderForm()
	}
}

func (m CodingFormModel) renderTransaction() string {
	title := m.theme.Title.Render(m.transaction.DisplayName())

	details := []string{
		fmt.Sprintf("Date: %s", m.transaction.TransactionDate.Format("January 2, 2006")),
		fmt.Sprintf("Amount: $%.2f", m.transaction.Amount),
	}
	if m.transaction.Description != m.transaction.MerchantName {
		details = append(details, fmt.Sprintf("Description: %s", m.transaction.Description))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.theme.Normal.Render(strings.Join(details, "\n")),
	)
}

func (m CodingFormModel) renderForm() string {
	var rows []string

	for i := range m.inputs {
		label := fieldLabels[i]
		if i == fieldGLAccount {
			label += "*"
		}

		labelStyle := m.theme.Normal
		if i == m.focusIndex {
			labelStyle = lipgloss.NewStyle().Foreground(m.theme.Primary).Bold(true)
		}

		row := fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-12s", label)), m.inputs[i].View())
		rows = append(rows, row)

		if msg, ok := m.errors[fieldNames[i]]; ok {
			rows = append(rows, "             "+m.theme.StatusError.Render(msg))
		}
	}

	if msg, ok := m.errors["coding_mode"]; ok {
		rows = append(rows, m.theme.StatusError.Render(msg))
	}

	sections := []string{m.renderTransaction(), "", strings.Join(rows, "\n")}

	if m.errorLine != "" {
		sections = append(sections, "", m.theme.StatusError.Render(m.errorLine))
	}

	hints := []string{
		"[Tab] Next field",
		"[Ctrl+S] Submit",
		"[Esc] Back to list",
	}
	sections = append(sections, "", lipgloss.NewStyle().Foreground(m.theme.Muted).Render(strings.Join(hints, "  ")))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m CodingFormModel) renderSubmitting() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTransaction(),
		"",
		m.spinner.View()+" "+m.theme.Subtitle.Render("Submitting..."),
	)
}

func (m CodingFormModel) renderSuccess() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTransaction(),
		"",
		m.theme.StatusSuccess.Render("✓ Submitted"),
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("advancing to the next transaction"),
	)
}

func (m CodingFormModel) renderReject() string {
	sections := []string{
		m.renderTransaction(),
		"",
		m.theme.Subtitle.Render("Rejection reason:"),
		m.reasonInput.View(),
	}

	if m.errorLine != "" {
		sections = append(sections, m.theme.StatusError.Render(m.errorLine))
	}

	sections = append(sections, "",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("[Enter] Reject  [Esc] Cancel"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderSummary shows the stored coding for a transaction that is no longer
// editable.
func (m CodingFormModel) renderSummary() string {
	statusStyle := m.statusStyle()
	status := statusStyle.Render(strings.ToUpper(string(m.transaction.Status)))

	var lines []string
	lines = append(lines, fmt.Sprintf("%-12s %s", "Status", status))
	lines = append(lines, fmt.Sprintf("%-12s %s", "GL account", m.valueOrDash(m.transaction.GLAccount)))

	if m.transaction.HasEquipmentCoding() {
		lines = append(lines, fmt.Sprintf("%-12s %s", "Equipment", m.valueOrDash(m.transaction.EquipmentCode)))
		lines = append(lines, fmt.Sprintf("%-12s %s", "Equip cost", m.valueOrDash(m.transaction.EquipmentCostCode)))
	} else {
		lines = append(lines, fmt.Sprintf("%-12s %s", "Job", m.valueOrDash(m.transaction.JobCode)))
		lines = append(lines, fmt.Sprintf("%-12s %s", "Phase", m.valueOrDash(m.transaction.Phase)))
		lines = append(lines, fmt.Sprintf("%-12s %s", "Cost type", m.valueOrDash(m.transaction.CostType)))
	}

	if m.transaction.Notes != "" {
		lines = append(lines, fmt.Sprintf("%-12s %s", "Notes", m.transaction.Notes))
	}
	if m.transaction.CodedBy != "" {
		lines = append(lines, fmt.Sprintf("%-12s %s", "Coded by", m.transaction.CodedBy))
	}
	if m.transaction.ReviewedBy != "" {
		lines = append(lines, fmt.Sprintf("%-12s %s", "Reviewed by", m.transaction.ReviewedBy))
	}

	sections := []string{
		m.renderTransaction(),
		"",
		m.theme.Normal.Render(strings.Join(lines, "\n")),
	}

	if m.transaction.Status == model.StatusRejected && m.transaction.RejectionReason != "" {
		sections = append(sections, "", m.theme.StatusError.Render("Rejected: "+m.transaction.RejectionReason))
	}

	if m.errorLine != "" {
		sections = append(sections, "", m.theme.StatusError.Render(m.errorLine))
	}

	if m.transaction.Status == model.StatusCoded {
		sections = append(sections, "",
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render("[a] Approve  [r] Reject"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m CodingFormModel) statusStyle() lipgloss.Style {
	switch m.transaction.Status {
	case model.StatusReviewed:
		return m.theme.StatusSuccess
	case model.StatusCoded:
		return m.theme.StatusInfo
	case model.StatusRejected:
		return m.theme.StatusError
	case model.StatusExported:
		return m.theme.StatusWarning
	default:
		return m.theme.StatusPending
	}
}

func (m CodingFormModel) valueOrDash(v string) string {
	if v == "" {
		return lipgloss.NewStyle().Foreground(m.theme.Muted).Render("-")
	}
	return v
}

// Resize updates the component size.
func (m *CodingFormModel) Resize(width, height int) {
	m.width = width
	m.height = height

	inputWidth := max(16, width-18)
	for i := range m.inputs {
		m.inputs[i].Width = inputWidth
	}
	m.reasonInput.Width = inputWidth
}
