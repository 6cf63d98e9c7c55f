package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ridgelinehq/costcode/internal/api"
	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/progress"
	"github.com/ridgelinehq/costcode/internal/store"
	"github.com/ridgelinehq/costcode/internal/tui/components"
	"github.com/ridgelinehq/costcode/internal/tui/themes"
)

// State represents the current state of the TUI.
type State int

const (
	StateLoading State = iota
	StateCardholderSelect
	StateCoding
	StateHelp
)

// Focus identifies which pane receives input while coding.
type Focus int

const (
	FocusList Focus = iota
	FocusForm
	FocusViewer
)

// Model holds the main TUI state.
type Model struct {
	theme              themes.Theme
	startTime          time.Time
	lastError          error
	client             api.Client
	store              *store.Store
	statementID        string
	progress           model.StatementProgress
	session            store.State
	cardholderList     components.CardholderListModel
	txnTable           components.TransactionTableModel
	codingForm         components.CodingFormModel
	docViewer          components.DocViewerModel
	progressPanel      components.ProgressPanelModel
	config             Config
	keymap             KeyMap
	selectedCardholder int
	currentIndex       int
	height             int
	width              int
	state              State
	prevState          State
	focus              Focus
	quitting           bool
	ready              bool
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	m := Model{
		state:          StateLoading,
		config:         cfg,
		keymap:         DefaultKeyMap(),
		theme:          cfg.Theme,
		client:         cfg.Client,
		store:          store.New(cfg.Client),
		statementID:    cfg.StatementID,
		startTime:      time.Now(),
		width:          cfg.Width,
		height:         cfg.Height,
		cardholderList: components.NewCardholderList(model.StatementProgress{StatementID: cfg.StatementID}, cfg.Theme),
		txnTable:       components.NewTransactionTable(cfg.Theme),
		codingForm:     components.NewCodingForm(cfg.Theme),
		docViewer:      components.NewDocViewer(cfg.Theme),
		progressPanel:  components.NewProgressPanel(cfg.Theme),
	}
	m.txnTable.SetFocused(true)
	m.handleResize()

	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.loadProgress(),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Handle global messages
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()

	case progressLoadedMsg:
		m.handleProgressLoaded(msg)

	case components.CardholderSelectedMsg:
		cmd := m.handleCardholderSelected(msg)
		return m, cmd

	case transactionsLoadedMsg:
		m.handleTransactionsLoaded(msg)

	case documentLoadedMsg:
		m.handleDocumentLoaded(msg)

	case components.SubmitCodingMsg:
		cmds = append(cmds, m.submitCoding(msg.TransactionID, msg.Fields))

	case components.SubmitReviewMsg:
		cmds = append(cmds, m.submitReview(msg.TransactionID, msg.Approved, msg.RejectionReason))

	case codingSubmittedMsg:
		cmd := m.handleCodingSubmitted(msg)
		return m, cmd

	case reviewSubmittedMsg:
		cmd := m.handleReviewSubmitted(msg)
		return m, cmd

	case advanceMsg:
		m.handleAdvance(msg)
		return m, nil
	}

	// Delegate to the active state
	switch m.state {
	case StateCardholderSelect:
		newList, cmd := m.cardholderList.Update(msg)
		m.cardholderList = newList
		cmds = append(cmds, cmd)

	case StateCoding:
		cmd := m.updateCoding(msg)
		cmds = append(cmds, cmd)

	case StateHelp:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.state = m.prevState
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if !m.ready {
		return m.renderLoading()
	}

	if m.quitting {
		return ""
	}

	// Responsive layout based on terminal size
	if m.width < 80 {
		return m.renderCompactView()
	}

	if m.width < 120 {
		return m.renderMediumView()
	}

	return m.renderFullView()
}

// handleGlobalKeys handles keys that work in any state. Keys that could be
// text while the form has focus are left to the form.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return tea.Quit, true

	case "q":
		if m.typing() {
			return nil, false
		}
		m.quitting = true
		return tea.Quit, true

	case "?":
		if m.typing() {
			return nil, false
		}
		if m.state == StateHelp {
			m.state = m.prevState
		} else {
			m.prevState = m.state
			m.state = StateHelp
		}
		return nil, true

	case "ctrl+r":
		cmds := []tea.Cmd{m.loadProgress()}
		if ch, ok := m.selectedCardholderProgress(); ok && m.state == StateCoding {
			filter := model.TransactionFilter{
				CardholderStatementID: ch.CardholderStatementID,
				Limit:                 defaultFetchLimit,
			}
			cmds = append(cmds, m.fetchTransactions(filter))
		}
		return tea.Batch(cmds...), true

	case "ctrl+l":
		return tea.ClearScreen, true
	}

	return nil, false
}

// typing reports whether keystrokes are currently text entry.
func (m Model) typing() bool {
	if m.state != StateCoding || m.focus != FocusForm {
		return false
	}
	mode := m.codingForm.Mode()
	return mode == components.FormEditing || mode == components.FormRejecting
}

// updateCoding routes messages while coding. Key presses go only to the
// focused pane; everything else reaches every pane that might be animating.
func (m *Model) updateCoding(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch m.focus {
		case FocusList:
			return m.handleListKeys(keyMsg)

		case FocusForm:
			if keyMsg.String() == "esc" && m.codingForm.Mode() != components.FormRejecting {
				m.setFocus(FocusList)
				return nil
			}
			form, cmd := m.codingForm.Update(msg)
			m.codingForm = form
			return cmd

		case FocusViewer:
			if keyMsg.String() == "esc" {
				m.setFocus(FocusList)
				return nil
			}
			viewer, cmd := m.docViewer.Update(msg)
			m.docViewer = viewer
			return cmd
		}
		return nil
	}

	var cmds []tea.Cmd

	form, cmd := m.codingForm.Update(msg)
	m.codingForm = form
	cmds = append(cmds, cmd)

	viewer, cmd := m.docViewer.Update(msg)
	m.docViewer = viewer
	cmds = append(cmds, cmd)

	return tea.Batch(cmds...)
}

// handleListKeys handles navigation and review actions while the transaction
// list has focus.
func (m *Model) handleListKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Down), key.Matches(msg, m.keymap.Next):
		m.setCurrentIndex(m.currentIndex + 1)

	case key.Matches(msg, m.keymap.Up), key.Matches(msg, m.keymap.Prev):
		m.setCurrentIndex(m.currentIndex - 1)

	case key.Matches(msg, m.keymap.Home):
		m.setCurrentIndex(0)

	case key.Matches(msg, m.keymap.End):
		m.setCurrentIndex(len(m.session.Transactions) - 1)

	case key.Matches(msg, m.keymap.Select):
		if _, ok := m.currentTransaction(); ok {
			m.setFocus(FocusForm)
			return textinput.Blink
		}

	case key.Matches(msg, m.keymap.Document):
		m.setFocus(FocusViewer)

	case key.Matches(msg, m.keymap.Approve):
		if cur, ok := m.currentTransaction(); ok && cur.Status == model.StatusCoded {
			return m.submitReview(cur.ID, true, "")
		}

	case key.Matches(msg, m.keymap.Reject):
		if cur, ok := m.currentTransaction(); ok && cur.Status == model.StatusCoded {
			m.setFocus(FocusForm)
			return m.codingForm.BeginReject()
		}

	case key.Matches(msg, m.keymap.Back):
		m.state = StateCardholderSelect
		m.progressPanel.SetProgress(m.progress)
		return m.loadProgress()
	}

	return nil
}

// handleProgressLoaded applies a progress summary.
func (m *Model) handleProgressLoaded(msg progressLoadedMsg) {
	m.ready = true

	if msg.err != nil {
		m.lastError = msg.err
		if m.state == StateLoading {
			m.state = StateCardholderSelect
		}
		return
	}

	m.lastError = nil
	m.progress = msg.progress
	m.cardholderList.SetProgress(msg.progress)

	if ch, ok := m.selectedCardholderProgress(); ok && m.state == StateCoding {
		m.progressPanel.SetTotals(progress.Rollup([]model.CardholderProgress{ch}))
	} else {
		m.progressPanel.SetProgress(msg.progress)
	}

	if m.state == StateLoading {
		m.state = StateCardholderSelect
	}
}

// handleCardholderSelected enters the coding state for one cardholder.
func (m *Model) handleCardholderSelected(msg components.CardholderSelectedMsg) tea.Cmd {
	m.selectedCardholder = msg.Index
	m.currentIndex = 0
	m.state = StateCoding
	m.setFocus(FocusList)

	m.session = store.State{}
	m.txnTable.SetTransactions(nil)
	m.txnTable.SetCursor(0)
	m.codingForm.SetTransaction(model.Transaction{})
	m.docViewer.Reset(msg.Cardholder.CardholderName)
	m.progressPanel.SetTotals(progress.Rollup([]model.CardholderProgress{msg.Cardholder}))

	filter := model.TransactionFilter{
		CardholderStatementID: msg.Cardholder.CardholderStatementID,
		Limit:                 defaultFetchLimit,
	}

	return tea.Batch(
		m.fetchTransactions(filter),
		m.loadDocument(msg.Cardholder.CardholderID),
	)
}

// handleTransactionsLoaded applies a fetched transaction page.
func (m *Model) handleTransactionsLoaded(msg transactionsLoadedMsg) {
	m.session = msg.state
	if msg.err != nil {
		m.lastError = msg.err
	} else {
		m.lastError = nil
	}

	m.txnTable.SetTransactions(m.session.Transactions)
	if m.currentIndex >= len(m.session.Transactions) {
		m.currentIndex = max(0, len(m.session.Transactions)-1)
	}
	m.txnTable.SetCursor(m.currentIndex)

	if cur, ok := m.currentTransaction(); ok {
		m.codingForm.SetTransaction(cur)
	}
}

// handleDocumentLoaded applies a fetched statement PDF. A result for a
// cardholder other than the one in view is stale and dropped.
func (m *Model) handleDocumentLoaded(msg documentLoadedMsg) {
	ch, ok := m.selectedCardholderProgress()
	if !ok || ch.CardholderID != msg.cardholderID {
		return
	}

	if msg.err != nil {
		m.docViewer.Failed(common.UserMessage(msg.err))
		return
	}

	m.docViewer.Loaded(msg.numPages)
}

// handleCodingSubmitted applies a coding submission result.
func (m *Model) handleCodingSubmitted(msg codingSubmittedMsg) tea.Cmd {
	m.session = msg.state
	m.txnTable.SetTransactions(m.session.Transactions)

	if msg.err != nil {
		m.lastError = msg.err
		m.codingForm.ShowError(common.UserMessage(msg.err))
		return nil
	}

	m.lastError = nil
	m.codingForm.ShowSuccess()

	return tea.Batch(m.loadProgress(), m.advanceAfter(msg.id))
}

// handleReviewSubmitted applies a review submission result.
func (m *Model) handleReviewSubmitted(msg reviewSubmittedMsg) tea.Cmd {
	m.session = msg.state
	m.txnTable.SetTransactions(m.session.Transactions)

	if msg.err != nil {
		m.lastError = msg.err
		// Rejections go through the form; approvals are fired straight from
		// the list and report through the status bar instead.
		if m.codingForm.Mode() == components.FormSubmitting {
			m.codingForm.ShowError(common.UserMessage(msg.err))
		}
		return nil
	}

	m.lastError = nil
	m.codingForm.ShowSuccess()
	m.setFocus(FocusList)

	return tea.Batch(m.loadProgress(), m.advanceAfter(msg.id))
}

// handleAdvance moves the selection forward after a submission, unless the
// user already moved somewhere else.
func (m *Model) handleAdvance(msg advanceMsg) {
	if m.state != StateCoding {
		return
	}

	cur, ok := m.currentTransaction()
	if !ok || cur.ID != msg.afterID {
		return
	}

	if m.currentIndex < len(m.session.Transactions)-1 {
		m.setCurrentIndex(m.currentIndex + 1)
	} else {
		// Last transaction: stay put and rebind so the summary replaces the
		// success flash.
		m.setCurrentIndex(m.currentIndex)
	}
}

// setCurrentIndex moves the transaction selection, clamped to the list, and
// rebinds the dependent panes.
func (m *Model) setCurrentIndex(i int) {
	if len(m.session.Transactions) == 0 {
		m.currentIndex = 0
		return
	}

	m.currentIndex = min(max(i, 0), len(m.session.Transactions)-1)
	m.txnTable.SetCursor(m.currentIndex)

	if cur, ok := m.currentTransaction(); ok {
		m.codingForm.SetTransaction(cur)
	}
}

// setFocus moves input focus between the coding panes.
func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.txnTable.SetFocused(f == FocusList)
	m.docViewer.SetFocused(f == FocusViewer)
}

// currentTransaction returns the selected transaction, if any.
func (m Model) currentTransaction() (model.Transaction, bool) {
	if m.currentIndex < 0 || m.currentIndex >= len(m.session.Transactions) {
		return model.Transaction{}, false
	}
	return m.session.Transactions[m.currentIndex], true
}

// selectedCardholderProgress returns the progress row for the cardholder
// being coded, if one is selected.
func (m Model) selectedCardholderProgress() (model.CardholderProgress, bool) {
	if m.selectedCardholder < 0 || m.selectedCardholder >= len(m.progress.Cardholders) {
		return model.CardholderProgress{}, false
	}
	return m.progress.Cardholders[m.selectedCardholder], true
}

// handleResize adjusts component sizes when the terminal resizes.
func (m *Model) handleResize() {
	m.cardholderList.Resize(max(64, m.width*7/10), m.height-6)
	m.progressPanel.Resize(max(20, m.width/4))
	m.progressPanel.SetCompact(m.width < 100)

	switch {
	case m.width >= 120:
		pane := (m.width - 12) / 3
		m.txnTable.Resize(pane+10, m.height-8)
		m.codingForm.Resize(pane, m.height-8)
		m.docViewer.Resize(pane-10, m.height-8)
	case m.width >= 80:
		half := (m.width - 8) / 2
		m.txnTable.Resize(half, m.height-8)
		m.codingForm.Resize(half, m.height-8)
		m.docViewer.Resize(half, m.height-8)
	default:
		m.txnTable.Resize(max(40, m.width-4), m.height-8)
		m.codingForm.Resize(max(40, m.width-4), m.height-8)
		m.docViewer.Resize(max(40, m.width-4), m.height-8)
	}
}
