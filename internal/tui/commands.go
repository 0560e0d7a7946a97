package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// fetchCmd асинхронно запрашивает агрегаты у источника.
func fetchCmd(source Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		groups, err := source(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return groupsLoadedMsg{groups: groups}
	}
}

// clearStatusCmd возвращает команду, которая отправит clearStatusMsg через delay.
func clearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
