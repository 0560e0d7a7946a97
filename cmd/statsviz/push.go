package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maynagashev/statuslist-stats/internal/api"
	"github.com/maynagashev/statuslist-stats/internal/chart"
	"github.com/maynagashev/statuslist-stats/models"
)

const chartFileMode = 0o644

func newPushCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Загрузить CSV на сервер статистики",
		Args:  cobra.NoArgs,
		RunE:  a.runPush,
	}
	addPushFlags(cmd.Flags(), a.cfg)
	return cmd
}

func (a *app) runPush(cmd *cobra.Command, _ []string) error {
	f, err := os.Open(a.cfg.Input)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла статистики: %w", err)
	}
	defer f.Close()

	client := api.NewHTTPClient(a.cfg.ServerURL)
	client.SetAPIKey(a.cfg.APIKey)
	result, err := client.UploadStats(cmd.Context(), f)
	if err != nil {
		return err
	}

	a.logger.Info("Статистика загружена на сервер",
		zap.String("server", a.cfg.ServerURL), zap.Int("rows", result.Rows), zap.Int("groups", result.Groups))
	fmt.Fprintf(cmd.OutOrStdout(), "Загружено строк: %d, групп: %d\n", result.Rows, result.Groups)
	if result.RunID != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Прогон сохранен: run:%s\n", *result.RunID)
	}

	if a.cfg.ChartsDir == "" || result.Groups == 0 {
		return nil
	}
	return a.downloadCharts(cmd, client)
}

// downloadCharts сохраняет диаграммы, построенные сервером по загруженному набору.
func (a *app) downloadCharts(cmd *cobra.Command, client api.Client) error {
	if err := os.MkdirAll(a.cfg.ChartsDir, os.ModePerm); err != nil {
		return fmt.Errorf("ошибка создания каталога диаграмм: %w", err)
	}
	for _, metric := range models.Metrics() {
		data, err := client.GetChart(cmd.Context(), metric)
		if err != nil {
			return err
		}
		p := filepath.Join(a.cfg.ChartsDir, chart.ForMetric(metric).FileName())
		if err = os.WriteFile(p, data, chartFileMode); err != nil {
			return fmt.Errorf("ошибка записи диаграммы: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Диаграмма сохранена: %s\n", p)
	}
	return nil
}
