package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maonamassa/marketplace/internal/payment"
)

// StatsModel shows the completed side of the ledger at a glance.
type StatsModel struct {
	CommonModel
	paymentService *payment.Service

	stats   *payment.PlatformStats
	loading bool
	err     error
}

func NewStatsModel(paymentSvc *payment.Service) StatsModel {
	return StatsModel{paymentService: paymentSvc, loading: true}
}

func (m StatsModel) Title() string     { return "Platform Stats" }
func (m StatsModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m StatsModel) Init() tea.Cmd {
	return m.loadStatsCmd()
}

func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadStatsMsg:
		m.loading = false
		m.stats = msg.stats
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadStatsCmd()
		}
	}

	return m, nil
}

func (m StatsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading stats...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	label := lipgloss.NewStyle().Faint(true)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	body := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s %s", label.Render("Completed transactions:"), value.Render(fmt.Sprintf("%d", m.stats.TotalTransactions))),
		fmt.Sprintf("%s %s", label.Render("Total volume:         "), value.Render(FormatAmount(m.stats.TotalVolume))),
		fmt.Sprintf("%s %s", label.Render("Platform fees:        "), value.Render(FormatAmount(m.stats.TotalFees))),
		fmt.Sprintf("%s %s", label.Render("Average transaction:  "), value.Render(FormatAmount(m.stats.AverageTransaction))),
	)

	panel := lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(body)

	return lipgloss.NewStyle().Padding(1).Render(panel)
}

// Messages

type loadStatsMsg struct {
	stats *payment.PlatformStats
	err   error
}

func (m StatsModel) loadStatsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		stats, err := m.paymentService.PlatformStats(ctx)
		return loadStatsMsg{stats: stats, err: err}
	}
}
