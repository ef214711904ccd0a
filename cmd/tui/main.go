package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/maonamassa/marketplace/cmd/tui/internal/view"
	"github.com/maonamassa/marketplace/internal/config"
	"github.com/maonamassa/marketplace/internal/database"
	"github.com/maonamassa/marketplace/internal/notification"
	notificationStore "github.com/maonamassa/marketplace/internal/notification/store"
	"github.com/maonamassa/marketplace/internal/payment"
	paymentStore "github.com/maonamassa/marketplace/internal/payment/store"
	"github.com/maonamassa/marketplace/internal/request"
	requestStore "github.com/maonamassa/marketplace/internal/request/store"
)

type model struct {
	paymentService *payment.Service

	currentView View

	ledgerView view.LedgerModel
	statsView  view.StatsModel
	sweepView  view.SweepModel
}

type View int

const (
	ViewMenu   View = 0
	ViewLedger View = 1
	ViewStats  View = 2
	ViewSweep  View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	notificationSvc := notification.NewService(notificationStore.New(db))
	requestSvc := request.NewService(requestStore.New(db), notificationSvc)

	// No gateway here: the console settles transactions by hand.
	paymentSvc := payment.NewService(
		paymentStore.New(db),
		notificationSvc,
		nil,
		cfg.Payments.FeePercent,
		cfg.Payments.IntentTTL,
	)

	// Manual settlements close out requests exactly like webhook ones.
	paymentSvc.OnTransactionCompleted(func(ctx context.Context, t *payment.Transaction) {
		if err := requestSvc.CompleteFromSettlement(ctx, t.RequestID); err != nil {
			slog.Error("failed to complete request after settlement",
				"request_id", t.RequestID, "transaction_id", t.ID, "error", err)
		}
	})

	return model{
		paymentService: paymentSvc,
		currentView:    ViewMenu,
		ledgerView:     view.NewLedgerModel(paymentSvc),
		statsView:      view.NewStatsModel(paymentSvc),
		sweepView:      view.NewSweepModel(paymentSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewLedger
				m.ledgerView = view.NewLedgerModel(m.paymentService)

				return m, m.ledgerView.Init()
			case "2":
				m.currentView = ViewStats
				m.statsView = view.NewStatsModel(m.paymentService)

				return m, m.statsView.Init()
			case "3":
				m.currentView = ViewSweep
				m.sweepView = view.NewSweepModel(m.paymentService)

				return m, m.sweepView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.ledgerView.Update(msg)
		m.ledgerView = newModel.(view.LedgerModel)
	case ViewStats:
		var newModel tea.Model
		newModel, cmd = m.statsView.Update(msg)
		m.statsView = newModel.(view.StatsModel)
	case ViewSweep:
		var newModel tea.Model
		newModel, cmd = m.sweepView.Update(msg)
		m.sweepView = newModel.(view.SweepModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Mão na Massa Ops Console\n\n" +
				"1. Transaction Ledger\n" +
				"2. Platform Stats\n" +
				"3. Sweep Expired Intents\n\n" +
				"q. Quit",
		)
	case ViewLedger:
		return m.ledgerView.View()
	case ViewStats:
		return m.statsView.View()
	case ViewSweep:
		return m.sweepView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
