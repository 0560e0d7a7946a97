// Package tui реализует интерактивный просмотр диаграмм статистики в терминале.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/statuslist-stats/models"
)

// Константы для TUI.
const (
	defaultWidth         = 80 // Стандартная ширина терминала
	defaultHeight        = 24 // Стандартная высота терминала
	statusMessageTimeout = 2 * time.Second
	fetchTimeout         = 10 * time.Second
	docMarginHorizontal  = 2
)

// Source получает актуальные агрегаты (из файла, БД или с сервера).
type Source func(ctx context.Context) ([]models.GroupStats, error)

// keyMap описывает привязки клавиш.
type keyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Table   key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab/→", "след. метрика"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("←", "пред. метрика"),
		),
		Table: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "таблица"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "обновить"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "выход"),
		),
	}
}

// ShortHelp реализует help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Table, k.Refresh, k.Quit}
}

// FullHelp реализует help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// --- Сообщения --- //

type groupsLoadedMsg struct {
	groups []models.GroupStats
}

type errMsg struct {
	err error
}

type clearStatusMsg struct{}

// model хранит состояние просмотрщика.
type model struct {
	groups    []models.GroupStats
	metrics   []models.Metric
	metricIdx int
	showTable bool

	source  Source // Может быть nil, тогда обновление недоступно
	loading bool
	status  string
	err     error

	width  int
	height int

	keys keyMap
	help help.Model
}

func newModel(groups []models.GroupStats, source Source) *model {
	return &model{
		groups:  groups,
		metrics: models.Metrics(),
		source:  source,
		width:   defaultWidth,
		height:  defaultHeight,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

func (m *model) currentMetric() models.Metric {
	return m.metrics[m.metricIdx]
}

// Init запрашивает данные, если их еще нет.
func (m *model) Init() tea.Cmd {
	if m.groups == nil && m.source != nil {
		m.loading = true
		return fetchCmd(m.source)
	}
	return nil
}

// Update обрабатывает входящие сообщения.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case groupsLoadedMsg:
		m.loading = false
		m.err = nil
		m.groups = msg.groups
		return m, m.setStatus("Данные обновлены")

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case clearStatusMsg:
		m.status = ""
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.metricIdx = (m.metricIdx + 1) % len(m.metrics)
	case key.Matches(msg, m.keys.Prev):
		m.metricIdx = (m.metricIdx + len(m.metrics) - 1) % len(m.metrics)
	case key.Matches(msg, m.keys.Table):
		m.showTable = !m.showTable
	case key.Matches(msg, m.keys.Refresh):
		if m.source == nil {
			return m, m.setStatus("Обновление недоступно")
		}
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, fetchCmd(m.source)
	}
	return m, nil
}

// setStatus показывает статусное сообщение и планирует его очистку.
func (m *model) setStatus(status string) tea.Cmd {
	m.status = status
	return clearStatusCmd(statusMessageTimeout)
}
