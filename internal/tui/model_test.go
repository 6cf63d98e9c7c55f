package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgelinehq/costcode/internal/api"
	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/document"
	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/store"
	"github.com/ridgelinehq/costcode/internal/tui/components"
	"github.com/ridgelinehq/costcode/internal/tui/themes"
)

func testConfig(client api.Client) Config {
	return Config{
		Theme:        themes.Default,
		Client:       client,
		StatementID:  "stmt-2026-01",
		User:         "dana@ridgeline.example",
		Width:        100,
		Height:       30,
		AdvanceDelay: time.Millisecond,
	}
}

func statementProgress() model.StatementProgress {
	return model.StatementProgress{
		StatementID: "stmt-2026-01",
		Cardholders: []model.CardholderProgress{
			{
				CardholderStatementID: "chs-boone",
				CardholderID:          "ch-boone",
				CardholderName:        "Marcus Boone",
				TotalTransactions:     3,
				CodedTransactions:     1,
				ProgressPercentage:    33.33,
			},
			{
				CardholderStatementID: "chs-chen",
				CardholderID:          "ch-chen",
				CardholderName:        "Lydia Chen",
				TotalTransactions:     4,
				CodedTransactions:     2,
				ReviewedTransactions:  1,
				ProgressPercentage:    75,
			},
		},
	}
}

func sessionTransactions() []model.Transaction {
	return []model.Transaction{
		{
			ID:                    "txn-01",
			CardholderStatementID: "chs-boone",
			TransactionDate:       time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			Description:           "POS PURCHASE ROCKY MTN SUPPLY",
			MerchantName:          "Rocky Mountain Supply",
			Amount:                412.88,
			Status:                model.StatusUncoded,
		},
		{
			ID:                    "txn-02",
			CardholderStatementID: "chs-boone",
			TransactionDate:       time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC),
			MerchantName:          "United Rentals",
			Amount:                1250.00,
			Status:                model.StatusCoded,
			CodedBy:               "dana@ridgeline.example",
			CodingFields: model.CodingFields{
				GLAccount: "5420",
				JobCode:   "26-104",
				Phase:     "02100",
				CostType:  "S",
			},
		},
		{
			ID:                    "txn-03",
			CardholderStatementID: "chs-boone",
			TransactionDate:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			MerchantName:          "High Desert Fuel",
			Amount:                88.10,
			Status:                model.StatusUncoded,
		},
	}
}

// sessionClient returns a mock wired with a full cardholder session so the
// model can run its real fetch commands.
func sessionClient() *api.MockClient {
	txns := sessionTransactions()
	return &api.MockClient{
		GetStatementProgressFunc: func(_ context.Context, _ string) (model.StatementProgress, error) {
			return statementProgress(), nil
		},
		GetTransactionsFunc: func(_ context.Context, _ model.TransactionFilter) ([]model.Transaction, error) {
			return txns, nil
		},
		GetTransactionFunc: func(_ context.Context, id string) (model.Transaction, error) {
			for _, txn := range txns {
				if txn.ID == id {
					txn.Status = model.StatusReviewed
					txn.ReviewedBy = "pm@ridgeline.example"
					return txn, nil
				}
			}
			return model.Transaction{}, common.ErrNotFound
		},
		SubmitReviewFunc: func(_ context.Context, _ string, _ bool, _ string) error {
			return nil
		},
		GetStatementDocumentFunc: func(_ context.Context, _, _ string) ([]byte, error) {
			return document.GeneratePDF("January statement", 3), nil
		},
	}
}

// update runs one message through the model and hands back the typed model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	typed, ok := next.(Model)
	require.True(t, ok, "Update should return a Model")
	return typed, cmd
}

// runCmd executes a command and unwraps batches into individual messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pump executes a command and feeds every resulting message back through the
// model, one generation deep.
func pump(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range runCmd(cmd) {
		m, _ = update(t, m, msg)
	}
	return m
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// codingModel builds a model that has loaded progress and entered the first
// cardholder's coding session through the real command path.
func codingModel(t *testing.T, client *api.MockClient) Model {
	t.Helper()

	m := newModel(testConfig(client))
	m, _ = update(t, m, progressLoadedMsg{progress: statementProgress()})
	require.Equal(t, StateCardholderSelect, m.state)

	m, cmd := update(t, m, keyPress("enter"))
	require.NotNil(t, cmd)

	msgs := runCmd(cmd)
	require.Len(t, msgs, 1)
	selected, ok := msgs[0].(components.CardholderSelectedMsg)
	require.True(t, ok)
	assert.Equal(t, "Marcus Boone", selected.Cardholder.CardholderName)

	m, cmd = update(t, m, selected)
	require.Equal(t, StateCoding, m.state)
	require.NotNil(t, cmd)

	m = pump(t, m, cmd)
	require.Len(t, m.session.Transactions, 3)

	return m
}

func TestNewModel(t *testing.T) {
	m := newModel(testConfig(sessionClient()))

	assert.Equal(t, StateLoading, m.state)
	assert.Equal(t, FocusList, m.focus)
	assert.False(t, m.ready)
	assert.NotNil(t, m.store)
	assert.Equal(t, "stmt-2026-01", m.statementID)
}

func TestModel_Init(t *testing.T) {
	m := newModel(testConfig(sessionClient()))

	msgs := runCmd(m.Init())

	var loaded bool
	for _, msg := range msgs {
		if progressMsg, ok := msg.(progressLoadedMsg); ok {
			loaded = true
			assert.NoError(t, progressMsg.err)
			assert.Len(t, progressMsg.progress.Cardholders, 2)
		}
	}
	assert.True(t, loaded, "Init should load statement progress")
}

func TestModel_ProgressLoaded(t *testing.T) {
	t.Run("success moves to cardholder selection", func(t *testing.T) {
		m := newModel(testConfig(sessionClient()))

		m, _ = update(t, m, progressLoadedMsg{progress: statementProgress()})

		assert.True(t, m.ready)
		assert.Equal(t, StateCardholderSelect, m.state)
		assert.NoError(t, m.lastError)
		assert.Len(t, m.progress.Cardholders, 2)
	})

	t.Run("error still leaves the loading screen", func(t *testing.T) {
		m := newModel(testConfig(sessionClient()))

		m, _ = update(t, m, progressLoadedMsg{err: common.ErrNetworkFailure})

		assert.True(t, m.ready)
		assert.Equal(t, StateCardholderSelect, m.state)
		assert.ErrorIs(t, m.lastError, common.ErrNetworkFailure)
	})

	t.Run("success clears a previous error", func(t *testing.T) {
		m := newModel(testConfig(sessionClient()))
		m.lastError = common.ErrNetworkFailure

		m, _ = update(t, m, progressLoadedMsg{progress: statementProgress()})

		assert.NoError(t, m.lastError)
	})
}

func TestModel_CardholderSelection(t *testing.T) {
	client := sessionClient()
	m := codingModel(t, client)

	assert.Equal(t, 0, m.selectedCardholder)
	assert.Equal(t, 0, m.currentIndex)
	assert.Equal(t, FocusList, m.focus)

	cur, ok := m.currentTransaction()
	require.True(t, ok)
	assert.Equal(t, "txn-01", cur.ID)

	// The statement PDF arrived alongside the transactions.
	assert.Equal(t, document.LoadStateReady, m.docViewer.Viewer().State())
	assert.Equal(t, 3, m.docViewer.Viewer().NumPages())

	assert.Equal(t, 1, client.Calls("GetTransactions"))
	assert.Equal(t, 1, client.Calls("GetStatementDocument"))
}

func TestModel_TransactionsLoaded(t *testing.T) {
	t.Run("clamps the selection to the new list", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m.currentIndex = 5

		m, _ = update(t, m, transactionsLoadedMsg{state: store.State{
			Transactions: sessionTransactions()[:2],
		}})

		assert.Equal(t, 1, m.currentIndex)
		cur, ok := m.currentTransaction()
		require.True(t, ok)
		assert.Equal(t, "txn-02", cur.ID)
	})

	t.Run("fetch error is surfaced", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, _ = update(t, m, transactionsLoadedMsg{
			err:   common.ErrNetworkFailure,
			state: store.State{LastError: "network request failed"},
		})

		assert.ErrorIs(t, m.lastError, common.ErrNetworkFailure)
	})
}

func TestModel_ListNavigation(t *testing.T) {
	tests := []struct {
		name      string
		keys      []string
		wantIndex int
	}{
		{name: "j moves down", keys: []string{"j"}, wantIndex: 1},
		{name: "n moves down", keys: []string{"n"}, wantIndex: 1},
		{name: "down arrow moves down", keys: []string{"down"}, wantIndex: 1},
		{name: "clamps at the end", keys: []string{"j", "j", "j", "j"}, wantIndex: 2},
		{name: "k clamps at the start", keys: []string{"k"}, wantIndex: 0},
		{name: "p moves up", keys: []string{"j", "j", "p"}, wantIndex: 1},
		{name: "G jumps to the end", keys: []string{"G"}, wantIndex: 2},
		{name: "end jumps to the end", keys: []string{"end"}, wantIndex: 2},
		{name: "g jumps home", keys: []string{"G", "g"}, wantIndex: 0},
		{name: "home jumps home", keys: []string{"G", "home"}, wantIndex: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := codingModel(t, sessionClient())
			for _, k := range tt.keys {
				m, _ = update(t, m, keyPress(k))
			}
			assert.Equal(t, tt.wantIndex, m.currentIndex)
		})
	}
}

func TestModel_NavigationRebindsForm(t *testing.T) {
	m := codingModel(t, sessionClient())

	// txn-01 is uncoded, so the form opens for editing.
	assert.Equal(t, components.FormEditing, m.codingForm.Mode())

	// txn-02 is already coded, so moving onto it shows the summary.
	m, _ = update(t, m, keyPress("j"))
	assert.Equal(t, components.FormReadOnly, m.codingForm.Mode())

	m, _ = update(t, m, keyPress("j"))
	assert.Equal(t, components.FormEditing, m.codingForm.Mode())
}

func TestModel_FocusFlow(t *testing.T) {
	t.Run("enter focuses the form", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, cmd := update(t, m, keyPress("enter"))

		assert.Equal(t, FocusForm, m.focus)
		assert.NotNil(t, cmd)
	})

	t.Run("esc returns focus to the list", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m, _ = update(t, m, keyPress("enter"))

		m, _ = update(t, m, keyPress("esc"))

		assert.Equal(t, FocusList, m.focus)
		assert.Equal(t, StateCoding, m.state)
	})

	t.Run("d focuses the document viewer", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, _ = update(t, m, keyPress("d"))
		assert.Equal(t, FocusViewer, m.focus)

		m, _ = update(t, m, keyPress("esc"))
		assert.Equal(t, FocusList, m.focus)
	})

	t.Run("viewer keys page the document while focused", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m, _ = update(t, m, keyPress("d"))

		m, _ = update(t, m, keyPress("j"))

		assert.Equal(t, 2, m.docViewer.Viewer().Page())
		// The transaction selection did not move.
		assert.Equal(t, 0, m.currentIndex)
	})

	t.Run("esc from the list leaves the session", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, cmd := update(t, m, keyPress("esc"))

		assert.Equal(t, StateCardholderSelect, m.state)
		require.NotNil(t, cmd)

		msgs := runCmd(cmd)
		require.Len(t, msgs, 1)
		_, ok := msgs[0].(progressLoadedMsg)
		assert.True(t, ok, "leaving a session should refresh progress")
	})
}

func TestModel_ApproveFromList(t *testing.T) {
	t.Run("approves the selected coded transaction", func(t *testing.T) {
		client := sessionClient()
		m := codingModel(t, client)
		m, _ = update(t, m, keyPress("j")) // onto txn-02, which is coded

		m, cmd := update(t, m, keyPress("a"))
		require.NotNil(t, cmd)

		msgs := runCmd(cmd)
		require.Len(t, msgs, 1)
		reviewed, ok := msgs[0].(reviewSubmittedMsg)
		require.True(t, ok)
		require.NoError(t, reviewed.err)
		assert.Equal(t, "txn-02", reviewed.id)

		m, cmd = update(t, m, reviewed)
		cur, ok := m.currentTransaction()
		require.True(t, ok)
		assert.Equal(t, model.StatusReviewed, cur.Status)
		assert.Equal(t, "pm@ridgeline.example", cur.ReviewedBy)
		assert.Equal(t, 1, client.Calls("SubmitReview"))

		// The follow-up refreshes progress and advances off the reviewed row.
		m = pump(t, m, cmd)
		assert.Equal(t, 2, m.currentIndex)
	})

	t.Run("ignores uncoded transactions", func(t *testing.T) {
		client := sessionClient()
		m := codingModel(t, client)

		_, cmd := update(t, m, keyPress("a"))

		assert.Nil(t, cmd)
		assert.Equal(t, 0, client.Calls("SubmitReview"))
	})
}

func TestModel_RejectFromList(t *testing.T) {
	t.Run("opens the rejection prompt", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m, _ = update(t, m, keyPress("j"))

		m, cmd := update(t, m, keyPress("r"))

		assert.Equal(t, FocusForm, m.focus)
		assert.Equal(t, components.FormRejecting, m.codingForm.Mode())
		assert.NotNil(t, cmd)
	})

	t.Run("esc cancels the prompt before leaving the form", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m, _ = update(t, m, keyPress("j"))
		m, _ = update(t, m, keyPress("r"))

		m, _ = update(t, m, keyPress("esc"))
		assert.Equal(t, FocusForm, m.focus)
		assert.Equal(t, components.FormReadOnly, m.codingForm.Mode())

		m, _ = update(t, m, keyPress("esc"))
		assert.Equal(t, FocusList, m.focus)
	})

	t.Run("ignores uncoded transactions", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, cmd := update(t, m, keyPress("r"))

		assert.Nil(t, cmd)
		assert.Equal(t, FocusList, m.focus)
	})
}

func TestModel_Advance(t *testing.T) {
	t.Run("moves to the next transaction", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, _ = update(t, m, advanceMsg{afterID: "txn-01"})

		assert.Equal(t, 1, m.currentIndex)
	})

	t.Run("a manual move wins over a pending advance", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m.setCurrentIndex(2)

		m, _ = update(t, m, advanceMsg{afterID: "txn-01"})

		assert.Equal(t, 2, m.currentIndex)
	})

	t.Run("stays on the last transaction", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m.setCurrentIndex(2)

		m, _ = update(t, m, advanceMsg{afterID: "txn-03"})

		assert.Equal(t, 2, m.currentIndex)
	})

	t.Run("ignored outside a coding session", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m.state = StateCardholderSelect

		m, _ = update(t, m, advanceMsg{afterID: "txn-01"})

		assert.Equal(t, 0, m.currentIndex)
	})
}

func TestModel_CodingSubmitted(t *testing.T) {
	t.Run("success flashes and schedules an advance", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		st := m.store.State()

		m, cmd := update(t, m, codingSubmittedMsg{id: "txn-01", state: st})

		assert.Equal(t, components.FormSuccess, m.codingForm.Mode())
		assert.NoError(t, m.lastError)
		require.NotNil(t, cmd)

		var advanced bool
		for _, msg := range runCmd(cmd) {
			if adv, ok := msg.(advanceMsg); ok {
				advanced = true
				assert.Equal(t, "txn-01", adv.afterID)
			}
		}
		assert.True(t, advanced, "a successful submission should schedule an advance")
	})

	t.Run("error goes back to the form", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, cmd := update(t, m, codingSubmittedMsg{
			id:    "txn-01",
			err:   common.ErrNetworkFailure,
			state: m.store.State(),
		})

		assert.Nil(t, cmd)
		assert.ErrorIs(t, m.lastError, common.ErrNetworkFailure)
	})
}

func TestModel_ReviewSubmittedErrorRouting(t *testing.T) {
	// Approvals are fired from the list with the form in its summary mode, so
	// a failure reports through the status bar and leaves the form alone.
	m := codingModel(t, sessionClient())
	m, _ = update(t, m, keyPress("j"))
	require.Equal(t, components.FormReadOnly, m.codingForm.Mode())

	m, cmd := update(t, m, reviewSubmittedMsg{
		id:    "txn-02",
		err:   common.ErrNetworkFailure,
		state: m.store.State(),
	})

	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.lastError, common.ErrNetworkFailure)
	assert.Equal(t, components.FormReadOnly, m.codingForm.Mode())
}

func TestModel_DocumentLoaded(t *testing.T) {
	t.Run("stale cardholder result is dropped", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, _ = update(t, m, documentLoadedMsg{cardholderID: "ch-chen", numPages: 9})

		assert.Equal(t, 3, m.docViewer.Viewer().NumPages())
	})

	t.Run("load failure is shown in the viewer", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, _ = update(t, m, documentLoadedMsg{
			cardholderID: "ch-boone",
			err:          common.ErrNotFound,
		})

		assert.Equal(t, document.LoadStateFailed, m.docViewer.Viewer().State())
	})
}

func TestModel_GlobalKeys(t *testing.T) {
	t.Run("q quits from the list", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, cmd := update(t, m, keyPress("q"))

		assert.True(t, m.quitting)
		assert.NotNil(t, cmd)
	})

	t.Run("q is text while the form is editing", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m, _ = update(t, m, keyPress("enter"))
		require.True(t, m.typing())

		m, _ = update(t, m, keyPress("q"))

		assert.False(t, m.quitting)
	})

	t.Run("ctrl+c always quits", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m, _ = update(t, m, keyPress("enter"))

		m, cmd := update(t, m, keyPress("ctrl+c"))

		assert.True(t, m.quitting)
		assert.NotNil(t, cmd)
	})

	t.Run("help toggles and restores the previous state", func(t *testing.T) {
		m := codingModel(t, sessionClient())

		m, _ = update(t, m, keyPress("?"))
		assert.Equal(t, StateHelp, m.state)
		assert.Equal(t, StateCoding, m.prevState)

		m, _ = update(t, m, keyPress("?"))
		assert.Equal(t, StateCoding, m.state)
	})

	t.Run("esc closes help", func(t *testing.T) {
		m := newModel(testConfig(sessionClient()))
		m, _ = update(t, m, progressLoadedMsg{progress: statementProgress()})

		m, _ = update(t, m, keyPress("?"))
		require.Equal(t, StateHelp, m.state)

		m, _ = update(t, m, keyPress("esc"))
		assert.Equal(t, StateCardholderSelect, m.state)
	})

	t.Run("ctrl+r refetches the active session", func(t *testing.T) {
		client := sessionClient()
		m := codingModel(t, client)

		_, cmd := update(t, m, keyPress("ctrl+r"))
		require.NotNil(t, cmd)

		var gotProgress, gotTransactions bool
		for _, msg := range runCmd(cmd) {
			switch msg.(type) {
			case progressLoadedMsg:
				gotProgress = true
			case transactionsLoadedMsg:
				gotTransactions = true
			}
		}
		assert.True(t, gotProgress)
		assert.True(t, gotTransactions)
		assert.Equal(t, 2, client.Calls("GetTransactions"))
	})
}

func TestModel_View(t *testing.T) {
	t.Run("loading screen", func(t *testing.T) {
		m := newModel(testConfig(sessionClient()))

		assert.Contains(t, m.View(), "Loading statement")
	})

	t.Run("cardholder selection shows the statement", func(t *testing.T) {
		m := newModel(testConfig(sessionClient()))
		m, _ = update(t, m, progressLoadedMsg{progress: statementProgress()})

		view := m.View()
		assert.Contains(t, view, "Statement stmt-2026-01")
		assert.Contains(t, view, "Marcus Boone")
	})

	t.Run("narrow terminal falls back to the compact layout", func(t *testing.T) {
		m := newModel(testConfig(sessionClient()))
		m, _ = update(t, m, progressLoadedMsg{progress: statementProgress()})

		m, _ = update(t, m, tea.WindowSizeMsg{Width: 70, Height: 24})

		assert.Contains(t, m.View(), "Marcus Boone")
	})

	t.Run("help screen", func(t *testing.T) {
		m := newModel(testConfig(sessionClient()))
		m, _ = update(t, m, progressLoadedMsg{progress: statementProgress()})
		m, _ = update(t, m, keyPress("?"))

		view := m.View()
		assert.Contains(t, view, "costcode - Help")
		assert.Contains(t, view, "Navigation")
	})

	t.Run("quitting renders nothing", func(t *testing.T) {
		m := codingModel(t, sessionClient())
		m, _ = update(t, m, keyPress("q"))

		assert.Empty(t, m.View())
	})
}
