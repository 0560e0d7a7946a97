// Package report печатает агрегаты статистики в виде таблиц.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/maynagashev/statuslist-stats/models"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Render возвращает таблицу средних значений метрики по группам.
func Render(metric models.Metric, groups []models.GroupStats) string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			strconv.Itoa(g.Capacity),
			models.FormatRevoked(g.Revoked),
			strconv.FormatFloat(g.Value(metric), 'f', 2, 64),
			strconv.Itoa(g.Count),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("capacity", "revoked", "mean "+string(metric), "count").
		Rows(rows...)

	return t.Render()
}

// WriteTable печатает таблицу одной метрики с заголовком.
func WriteTable(w io.Writer, metric models.Metric, groups []models.GroupStats) error {
	if _, err := fmt.Fprintf(w, "mean %s by (capacity, revoked)\n%s\n", metric, Render(metric, groups)); err != nil {
		return fmt.Errorf("ошибка вывода таблицы %s: %w", metric, err)
	}
	return nil
}

// WriteAll печатает таблицы всех метрик по порядку.
func WriteAll(w io.Writer, groups []models.GroupStats) error {
	for _, metric := range models.Metrics() {
		if err := WriteTable(w, metric, groups); err != nil {
			return err
		}
	}
	return nil
}
