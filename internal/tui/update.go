package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/recur/internal/clock"
	apperr "github.com/julianstephens/recur/internal/errors"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/tui/components/duelist"
	"github.com/julianstephens/recur/internal/tui/components/habits"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case reloadedMsg:
		if msg.err != nil {
			m.setStatus(msg.err, "")
			return m, nil
		}
		m.refresh()
		m.setStatus(nil, "Reloaded")
		return m, nil

	case duelist.ProcessMsg:
		m.process(msg)
		return m, nil

	case habits.ToggleHabitMsg:
		m.toggleHabit(msg.ID)
		return m, nil

	case tea.KeyMsg:
		if m.filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.tab = (m.tab + 1) % Tab(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.tab = (m.tab - 1 + Tab(len(tabTitles))) % Tab(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	switch m.tab {
	case TabDue:
		m.due, cmd = m.due.Update(msg)
	case TabHabits:
		m.habits, cmd = m.habits.Update(msg)
	case TabPlan:
		m.plan, cmd = m.plan.Update(msg)
	}
	return m, cmd
}

func (m Model) filtering() bool {
	switch m.tab {
	case TabDue:
		return m.due.Filtering()
	case TabHabits:
		return m.habits.Filtering()
	}
	return false
}

// resize gives the active content whatever the tab bar, status and help leave.
func (m *Model) resize() {
	w := m.width - docStyle.GetHorizontalFrameSize()
	h := m.height - docStyle.GetVerticalFrameSize() - 3
	if h < 1 {
		h = 1
	}
	m.due.SetSize(w, h)
	m.habits.SetSize(w, h)
	m.plan.SetSize(w, h)
}

// reload pulls changes made outside this session, e.g. by `recur watch`.
func (m Model) reload() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		return reloadedMsg{err: app.Reload(app.Context())}
	}
}

func (m *Model) process(msg duelist.ProcessMsg) {
	ctx := m.app.Context()
	today := clock.Date(m.app.Now())

	if msg.Kind == models.KindMedication {
		ob, err := m.app.Meds.Get(msg.ID)
		if err != nil {
			m.setStatus(err, "")
			return
		}
		taken, err := m.app.Meds.ToggleTaken(ctx, msg.ID, today)
		if taken {
			m.setStatus(err, fmt.Sprintf("Took %s", ob.Name))
		} else {
			m.setStatus(err, fmt.Sprintf("Unmarked %s", ob.Name))
		}
		m.refresh()
		return
	}

	ob, err := m.app.Expenses.Get(msg.ID)
	if err != nil {
		m.setStatus(err, "")
		return
	}
	err = m.app.Expenses.MarkProcessed(ctx, msg.ID, today)
	m.setStatus(err, fmt.Sprintf("Processed %s", ob.Name))
	m.refresh()
}

func (m *Model) toggleHabit(id string) {
	h, err := m.app.Habits.Toggle(m.app.Context(), id, clock.Date(m.app.Now()))
	if err != nil && !apperr.IsPersistFailure(err) {
		m.setStatus(err, "")
		return
	}
	if h.History.Done(m.today) {
		m.setStatus(err, fmt.Sprintf("%s done · streak %d", h.Name, h.Streak))
	} else {
		m.setStatus(err, fmt.Sprintf("%s unmarked · streak %d", h.Name, h.Streak))
	}
	m.refresh()
}

// setStatus shows ok on success. A persistence failure is a warning since
// the change is still applied for this session.
func (m *Model) setStatus(err error, ok string) {
	switch {
	case err == nil:
		m.status, m.statusErr = ok, false
	case apperr.IsPersistFailure(err):
		logger.Warn("Change not persisted", "error", err)
		m.status, m.statusErr = fmt.Sprintf("Warning: %v", err), true
	default:
		logger.Error("Operation failed", "error", err)
		m.status, m.statusErr = apperr.Format(err), true
	}
}
