package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/maynagashev/statuslist-stats/internal/chart"
	"github.com/maynagashev/statuslist-stats/internal/report"
)

var (
	docStyle    = lipgloss.NewStyle().Margin(1, docMarginHorizontal)
	tabStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTab   = tabStyle.Foreground(lipgloss.Color("39")).Bold(true).Underline(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// View отрисовывает текущее состояние.
func (m *model) View() string {
	var b strings.Builder

	b.WriteString(m.viewTabs())
	b.WriteString("\n\n")

	metric := m.currentMetric()
	spec := chart.ForMetric(metric)
	contentWidth := max(m.width-2*docMarginHorizontal, 0)
	b.WriteString(chart.RenderText(spec, chart.BarsFor(m.groups, metric), contentWidth))

	if m.showTable {
		b.WriteString("\n")
		b.WriteString(report.Render(metric, m.groups))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.loading:
		b.WriteString("Загрузка...")
	case m.err != nil:
		b.WriteString(errorStyle.Render("Ошибка: " + m.err.Error()))
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return docStyle.Render(b.String())
}

func (m *model) viewTabs() string {
	tabs := make([]string, 0, len(m.metrics))
	for i, metric := range m.metrics {
		style := tabStyle
		if i == m.metricIdx {
			style = activeTab
		}
		tabs = append(tabs, style.Render(string(metric)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
