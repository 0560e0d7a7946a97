package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maynagashev/statuslist-stats/internal/chart"
	"github.com/maynagashev/statuslist-stats/internal/report"
	"github.com/maynagashev/statuslist-stats/internal/services"
	"github.com/maynagashev/statuslist-stats/internal/tui"
	"github.com/maynagashev/statuslist-stats/models"
)

const terminalChartWidth = 100

// runTUI запускает интерактивный просмотр.
var runTUI = tui.Run //nolint:gochecknoglobals // Подменяется в тестах

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Посчитать средние, напечатать таблицы и нарисовать диаграммы",
		Args:  cobra.NoArgs,
		RunE:  a.runAnalyze,
	}
	addAnalyzeFlags(cmd.Flags(), a.cfg)
	return cmd
}

// runAnalyze загружает статистику, печатает агрегаты и рисует диаграммы.
func (a *app) runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	records, err := svc.Load(ctx, a.cfg.Input)
	if err != nil {
		return err
	}
	groups := svc.Summarize(records)

	out := cmd.OutOrStdout()
	if err = report.WriteAll(out, groups); err != nil {
		return fmt.Errorf("ошибка вывода агрегатов: %w", err)
	}

	var paths []string
	if !a.cfg.NoPNG {
		if paths, err = svc.RenderCharts(groups, a.cfg.OutDir); err != nil {
			return err
		}
	}

	if !a.cfg.Show {
		if err = writeTerminalCharts(out, groups); err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "Диаграмма сохранена: %s\n", p)
		}
	}

	if a.cfg.Publish {
		if err = a.publish(ctx, svc, paths); err != nil {
			return err
		}
	}

	if a.cfg.Show {
		return runTUI(ctx, groups, reloadSource(svc, a.cfg.Input))
	}
	return nil
}

// publish загружает диаграммы и исходный CSV, если он локальный.
func (a *app) publish(ctx context.Context, svc services.AnalysisService, charts []string) error {
	files := slices.Clone(charts)
	if services.IsLocalSource(a.cfg.Input) {
		files = append(files, a.cfg.Input)
	}
	if err := svc.Publish(ctx, files, a.cfg.PublishPrefix); err != nil {
		return err
	}
	a.logger.Info("Файлы опубликованы",
		zap.Int("charts", len(charts)), zap.Int("files", len(files)), zap.String("prefix", a.cfg.PublishPrefix))
	return nil
}

func writeTerminalCharts(w io.Writer, groups []models.GroupStats) error {
	for _, metric := range models.Metrics() {
		text := chart.RenderText(chart.ForMetric(metric), chart.BarsFor(groups, metric), terminalChartWidth)
		if _, err := fmt.Fprintln(w, text); err != nil {
			return fmt.Errorf("ошибка вывода диаграммы: %w", err)
		}
	}
	return nil
}

// reloadSource перечитывает источник при обновлении в TUI.
func reloadSource(svc services.AnalysisService, source string) tui.Source {
	return func(ctx context.Context) ([]models.GroupStats, error) {
		records, err := svc.Load(ctx, source)
		if err != nil {
			return nil, err
		}
		return svc.Summarize(records), nil
	}
}
