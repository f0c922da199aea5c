package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.tab {
	case TabDue:
		content = docStyle.Render(m.due.View())
	case TabUpcoming:
		content = docStyle.Render(m.viewUpcoming())
	case TabHabits:
		content = docStyle.Render(m.habits.View())
	case TabPlan:
		content = docStyle.Render(m.plan.View())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.tab == Tab(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	tabs = append(tabs, dimStyle.Render("  "+m.today))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewUpcoming() string {
	if len(m.upcoming) == 0 {
		return "No reminders in the lead window."
	}
	var b strings.Builder
	for _, r := range m.upcoming {
		days := "day"
		if r.DaysUntil != 1 {
			days = "days"
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			warningStyle.Render(fmt.Sprintf("in %d %s", r.DaysUntil, days)),
			r.Obligation.Name,
			dimStyle.Render(fmt.Sprintf("%s · due %s", r.Obligation.Payload, r.DueDate.Format("Mon Jan 2"))),
		)
	}
	return b.String()
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return dangerStyle.Render(m.status)
	}
	return dimStyle.Render(m.status)
}
