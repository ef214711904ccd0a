package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/maonamassa/marketplace/internal/payment"
)

type ledgerState int

const (
	ledgerStateBrowse ledgerState = iota
	ledgerStateSettle
)

// LedgerModel browses the transaction ledger and lets an operator settle or
// fail a stuck processing transaction by hand, standing in for the
// processor's webhook.
type LedgerModel struct {
	CommonModel
	paymentService *payment.Service

	state ledgerState
	table table.Model
	txs   []*payment.Transaction
	form  *huh.Form

	statusFilterIdx int

	filter  payment.TransactionFilter
	loading bool
	err     error
	status  string

	// Form bindings
	formApprove bool
	formReason  string
}

func NewLedgerModel(paymentSvc *payment.Service) LedgerModel {
	columns := []table.Column{
		{Title: "Created", Width: 12},
		{Title: "Status", Width: 12},
		{Title: "Amount", Width: 14},
		{Title: "Fee", Width: 12},
		{Title: "Method", Width: 20},
		{Title: "Description", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return LedgerModel{
		paymentService: paymentSvc,
		table:          t,
		filter:         payment.TransactionFilter{},
	}
}

func (m LedgerModel) Title() string { return "Transaction Ledger" }
func (m LedgerModel) ShortHelp() string {
	if m.state == ledgerStateSettle {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | enter: settle | s: status filter | r: refresh"
}

func (m LedgerModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLedgerMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.txs = msg.txs
		m.status = ""
		m.refreshTable()
		return m, nil

	case settleMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error settling: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Transaction settled as %s", msg.outcome)
		}
		m.state = ledgerStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case ledgerStateBrowse:
		return m.updateBrowse(msg)
	case ledgerStateSettle:
		return m.updateSettle(msg)
	}

	return m, nil
}

func (m LedgerModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "enter":
			return m.enterSettleMode()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % 5
			m.applyFilter()
			return m, m.loadTxsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m LedgerModel) enterSettleMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return m, nil
	}

	tx := m.txs[idx]
	if tx.Status != payment.StatusProcessing {
		m.status = "Only processing transactions can be settled"
		return m, nil
	}

	m.formApprove = true
	m.formReason = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("approve").
				Title("Approve settlement?").
				Affirmative("Complete").
				Negative("Fail").
				Value(&m.formApprove),

			huh.NewInput().
				Key("reason").
				Title("Failure reason (when failing)").
				Placeholder("card declined").
				Value(&m.formReason),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = ledgerStateSettle
	m.table.Blur()
	return m, m.form.Init()
}

func (m LedgerModel) updateSettle(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = ledgerStateBrowse
			m.form = nil
			m.table.Focus()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.settleCmd()
}

func (m LedgerModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	statusLabels := []string{"All", "Processing", "Completed", "Failed", "Refunded"}

	header := fmt.Sprintf("Filter: [s] Status: %s", activeStyle(statusLabels[m.statusFilterIdx]))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == ledgerStateSettle && m.form != nil {
		idx := m.table.Cursor()
		desc := ""
		if idx >= 0 && idx < len(m.txs) {
			desc = fmt.Sprintf("%s — %s", FormatAmount(m.txs[idx].Amount), m.txs[idx].Description)
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(
				fmt.Sprintf("Settle Transaction\n\n%s\n\n%s", desc, m.form.View()),
			)

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *LedgerModel) applyFilter() {
	switch m.statusFilterIdx {
	case 1:
		s := payment.StatusProcessing
		m.filter.Status = &s
	case 2:
		s := payment.StatusCompleted
		m.filter.Status = &s
	case 3:
		s := payment.StatusFailed
		m.filter.Status = &s
	case 4:
		s := payment.StatusRefunded
		m.filter.Status = &s
	default:
		m.filter.Status = nil
	}
}

func (m *LedgerModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatDate(tx.CreatedAt),
			string(tx.Status),
			FormatAmount(tx.Amount),
			FormatAmount(tx.Fee),
			tx.PaymentMethod,
			tx.Description,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadLedgerMsg struct {
	txs []*payment.Transaction
	err error
}

func (m LedgerModel) loadTxsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.paymentService.ListTransactions(ctx, m.filter)
		return loadLedgerMsg{txs: txs, err: err}
	}
}

type settleMsg struct {
	outcome string
	err     error
}

func (m LedgerModel) settleCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	tx := m.txs[idx]
	approve := m.formApprove
	reason := strings.TrimSpace(m.formReason)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if approve {
			if _, err := m.paymentService.CompleteSettlement(ctx, tx.ID); err != nil {
				return settleMsg{err: err}
			}

			return settleMsg{outcome: "completed"}
		}

		if reason == "" {
			reason = "settled manually"
		}

		if _, err := m.paymentService.FailSettlement(ctx, tx.ID, reason); err != nil {
			return settleMsg{err: err}
		}

		return settleMsg{outcome: "failed"}
	}
}
