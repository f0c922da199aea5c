// Package tui is the interactive dashboard: what is due today, what is
// coming up, habit streaks and the pending notification plan.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/recur/internal/cli"
	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/planner"
	"github.com/julianstephens/recur/internal/tracker"
	"github.com/julianstephens/recur/internal/tui/components/duelist"
	"github.com/julianstephens/recur/internal/tui/components/habits"
	"github.com/julianstephens/recur/internal/tui/components/plan"
)

type Tab int

const (
	TabDue Tab = iota
	TabUpcoming
	TabHabits
	TabPlan
)

var tabTitles = []string{"Due", "Upcoming", "Habits", "Plan"}

// refreshInterval keeps the dashboard current across minute and day boundaries.
const refreshInterval = time.Minute

type tickMsg time.Time

type reloadedMsg struct {
	err error
}

type Model struct {
	app     *cli.Context
	planner *planner.Planner
	tab     Tab
	keys    KeyMap
	help    help.Model

	due      duelist.Model
	habits   habits.Model
	plan     plan.Model
	upcoming []tracker.Reminder

	today     string
	status    string
	statusErr bool
	quitting  bool
	width     int
	height    int
}

// NewModel builds the dashboard over an opened context.
func NewModel(app *cli.Context, p *planner.Planner) Model {
	m := Model{
		app:     app,
		planner: p,
		tab:     TabDue,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		due:     duelist.New(0, 0),
		habits:  habits.New(0, 0),
		plan:    plan.New(0, 0),
	}
	m.refresh()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	switch m.tab {
	case TabDue:
		keys = append(keys, m.keys.Process)
	case TabHabits:
		keys = append(keys, m.keys.Toggle)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.tab {
	case TabDue:
		actions = []key.Binding{m.keys.Process}
	case TabHabits:
		actions = []key.Binding{m.keys.Toggle}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refresh recomputes every tab from the in-memory services.
func (m *Model) refresh() {
	now := m.app.Now()
	today := clock.Date(now)
	m.today = today.Format(constants.DateFormat)

	var meds []duelist.Item
	for _, ob := range tracker.MedicationsDueOn(m.app.Meds.List(), today) {
		meds = append(meds, duelist.Item{Obligation: ob, Taken: ob.Taken.Done(m.today)})
	}
	m.due.SetItems(m.app.Expenses.DueToday(now), meds)

	m.upcoming = m.app.Expenses.Upcoming(now)

	due := map[string]bool{}
	for _, h := range m.app.Habits.DueOn(today) {
		due[h.ID] = true
	}
	var hs []habits.Item
	for _, h := range m.app.Habits.List(today) {
		hs = append(hs, habits.Item{Habit: h, DoneOn: h.History.Done(m.today), Due: due[h.ID]})
	}
	m.habits.SetItems(hs)

	m.plan.SetPlan(m.planner.Plan(now, m.app.PlannerInput()))
}
