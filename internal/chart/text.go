package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	barRune       = "█"
	minBarWidth   = 10
	valueWidth    = 12
	defaultWidth  = 80
	separatorText = " │ "
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	footerStyle = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

// RenderText рисует горизонтальную столбчатую диаграмму шириной width символов.
func RenderText(spec Spec, bars []Bar, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(spec.Title))
	b.WriteString("\n")

	if len(bars) == 0 {
		b.WriteString(labelStyle.Render("(нет данных)"))
		b.WriteString("\n")
		return b.String()
	}

	labelWidth := 0
	for _, bar := range bars {
		labelWidth = max(labelWidth, lipgloss.Width(bar.Label))
	}
	barArea := max(minBarWidth, width-labelWidth-valueWidth-lipgloss.Width(separatorText))
	top := maxValue(bars)

	for _, bar := range bars {
		n := 0
		if top > 0 {
			n = int(bar.Value / top * float64(barArea))
		}
		label := bar.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(bar.Label))
		b.WriteString(labelStyle.Render(label))
		b.WriteString(separatorText)
		b.WriteString(barStyle.Render(strings.Repeat(barRune, n)))
		b.WriteString(fmt.Sprintf(" %.1f\n", bar.Value))
	}

	b.WriteString(footerStyle.Render(fmt.Sprintf("x: %s   y: %s", spec.XLabel, spec.YLabel)))
	b.WriteString("\n")
	return b.String()
}
