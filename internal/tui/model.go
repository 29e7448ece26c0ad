package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
)

// Model plays one quiz session in the terminal. Key presses become session events and the
// session value is replaced on every step.
type Model struct {
	ctx       context.Context
	session   app.Session
	analytics *app.AnalyticsService
	user      *domain.User
	outcome   *app.Outcome
	message   string
	noColor   bool
	now       func() time.Time
}

// Options configures the terminal model.
type Options struct {
	NoColor bool
	// User is nil for guest play; results are then not stored.
	User *domain.User
	Now  func() time.Time
}

// NewModel wraps a started session.
func NewModel(ctx context.Context, session app.Session, analytics *app.AnalyticsService, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return Model{
		ctx:       ctx,
		session:   session,
		analytics: analytics,
		user:      opts.User,
		noColor:   opts.NoColor,
		now:       now,
	}
}

// Outcome is set once the finished attempt has been summarised.
func (m Model) Outcome() *app.Outcome {
	return m.outcome
}

// Session returns the current session value.
func (m Model) Session() app.Session {
	return m.session
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update maps keys onto session events: a-d or 1-4 pick a choice, enter/n/space move on,
// q quits.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed.String())
	case outcomeMsg:
		m.outcome = typed.outcome
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}
	if m.session.Phase == app.PhaseFinished {
		if key == "enter" && m.outcome != nil {
			return m, tea.Quit
		}
		return m, nil
	}

	if choice, ok := choiceForKey(key); ok {
		return m.apply(app.SelectEvent{Choice: choice, At: m.now()})
	}
	switch key {
	case "enter", "n", " ":
		return m.apply(app.AdvanceEvent{At: m.now()})
	}
	return m, nil
}

func (m Model) apply(ev app.Event) (tea.Model, tea.Cmd) {
	next, err := app.Reduce(m.session, ev)
	if err != nil {
		m.message = messageFor(err)
		return m, nil
	}
	m.message = ""
	m.session = next
	if next.Phase == app.PhaseFinished {
		return m, m.record()
	}
	return m, nil
}

// outcomeMsg carries the summary computed off the update loop.
type outcomeMsg struct {
	outcome *app.Outcome
}

// record summarises the attempt and stores it for signed-in players.
func (m Model) record() tea.Cmd {
	ctx, analytics, user, session := m.ctx, m.analytics, m.user, m.session
	return func() tea.Msg {
		attempt, err := session.Attempt()
		if err != nil {
			return nil
		}
		return outcomeMsg{outcome: app.Summarize(ctx, analytics, user, session, attempt)}
	}
}

func (m Model) View() string {
	if m.session.Phase == app.PhaseFinished {
		if m.outcome == nil {
			return stylize("集計中...", m.noColor, lipgloss.Color("242"))
		}
		return renderOutcome(m.outcome, m.noColor)
	}
	return renderQuestion(m.session, m.message, m.noColor)
}

func choiceForKey(key string) (int, bool) {
	switch key {
	case "a", "1":
		return 0, true
	case "b", "2":
		return 1, true
	case "c", "3":
		return 2, true
	case "d", "4":
		return 3, true
	}
	return 0, false
}
