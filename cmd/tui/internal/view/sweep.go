package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/maonamassa/marketplace/internal/payment"
)

// SweepModel runs the expired-intent sweep on demand, for when the
// background reaper in the API is not running.
type SweepModel struct {
	CommonModel
	paymentService *payment.Service

	form    *huh.Form
	confirm bool
	done    bool
	swept   int64
	err     error
}

func NewSweepModel(paymentSvc *payment.Service) SweepModel {
	m := SweepModel{paymentService: paymentSvc}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title("Cancel all expired payment intents?").
				Affirmative("Sweep").
				Negative("Back").
				Value(&m.confirm),
		),
	).WithWidth(45).WithShowHelp(false)

	return m
}

func (m SweepModel) Title() string     { return "Sweep Expired Intents" }
func (m SweepModel) ShortHelp() string { return "Esc: back" }

func (m SweepModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sweepDoneMsg:
		m.done = true
		m.swept = msg.swept
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc || (m.done && msg.String() == "enter") {
			return m, Back
		}
	}

	if m.done {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !m.confirm {
		return m, Back
	}

	return m, m.sweepCmd()
}

func (m SweepModel) View() string {
	if m.done {
		body := fmt.Sprintf("Cancelled %d expired intents", m.swept)
		if m.err != nil {
			body = fmt.Sprintf("Error: %v", m.err)
		}

		return lipgloss.NewStyle().Padding(2).Render(body + "\n\nEnter: back")
	}

	return lipgloss.NewStyle().Padding(2).Render(m.form.View())
}

// Messages

type sweepDoneMsg struct {
	swept int64
	err   error
}

func (m SweepModel) sweepCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		swept, err := m.paymentService.SweepExpiredIntents(ctx)
		return sweepDoneMsg{swept: swept, err: err}
	}
}
