package plan

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/recur/internal/models"
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(13)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	channelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// Model shows the pending notifications in a scrollable viewport.
type Model struct {
	viewport      viewport.Model
	notifications []models.Notification
	width         int
	height        int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.notifications) == 0 {
		return "Nothing scheduled."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetPlan(notes []models.Notification) {
	m.notifications = notes
	m.Render()
}

func (m Model) Len() int {
	return len(m.notifications)
}

// Render writes one line per notification into the viewport
func (m *Model) Render() {
	var b strings.Builder
	for _, n := range m.notifications {
		line := fmt.Sprintf("%s %s %s",
			timeStyle.Render(n.FireAt.Format("Mon 02 15:04")),
			titleStyle.Render(n.Title),
			channelStyle.Render(string(n.Channel)),
		)
		if n.Body != "" {
			line += "\n" + strings.Repeat(" ", 14) + n.Body
		}
		b.WriteString(line + "\n")
	}
	m.viewport.SetContent(b.String())
}
