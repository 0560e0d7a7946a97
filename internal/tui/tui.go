package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/statuslist-stats/models"
)

// Run запускает просмотрщик и блокируется до выхода пользователя или отмены ctx.
// Если groups равен nil, данные запрашиваются у source при старте.
func Run(ctx context.Context, groups []models.GroupStats, source Source) error {
	p := tea.NewProgram(newModel(groups, source), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("ошибка запуска TUI: %w", err)
	}
	return nil
}
