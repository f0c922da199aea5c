package duelist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/recurrence"
)

// ProcessMsg asks the parent to mark an expense processed or flip a
// medication's taken marker for today.
type ProcessMsg struct {
	ID   string
	Kind models.ObligationKind
}

type Item struct {
	Obligation models.Obligation
	Taken      bool
}

func (i Item) Title() string {
	if i.Obligation.Kind == models.KindMedication {
		if i.Taken {
			return "✓ " + i.Obligation.Name
		}
		return "○ " + i.Obligation.Name
	}
	return "$ " + i.Obligation.Name
}

func (i Item) Description() string {
	ob := i.Obligation
	if ob.Kind == models.KindMedication {
		desc := ob.TimeOfDay
		if !ob.Payload.Amount.IsZero() {
			desc += " · " + ob.Payload.String()
		}
		if i.Taken {
			return desc + " · taken"
		}
		return desc
	}
	desc := fmt.Sprintf("%s · %s", ob.Payload, recurrence.Describe(ob.Rule))
	if ob.Category != "" {
		desc += " · " + ob.Category
	}
	return desc
}

func (i Item) FilterValue() string { return i.Obligation.Name }

type KeyMap struct {
	Process key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Process: key.NewBinding(
			key.WithKeys("enter", "p"),
			key.WithHelp("enter/p", "process / take"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Due today"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Process}
	}
	return Model{list: l, keys: keys}
}

// SetItems shows the unprocessed expenses first, then the day's medications.
func (m *Model) SetItems(expenses []models.Obligation, meds []Item) {
	items := make([]list.Item, 0, len(expenses)+len(meds))
	for _, ob := range expenses {
		items = append(items, Item{Obligation: ob})
	}
	for _, it := range meds {
		items = append(items, it)
	}
	m.list.SetItems(items)
}

func (m Model) Items() []Item {
	var out []Item
	for _, it := range m.list.Items() {
		out = append(out, it.(Item))
	}
	return out
}

// Filtering reports whether the list is capturing keys for its filter
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		if key.Matches(msg, m.keys.Process) {
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg {
					return ProcessMsg{ID: i.Obligation.ID, Kind: i.Obligation.Kind}
				}
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  Nothing due today."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
