package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maynagashev/statuslist-stats/internal/generator"
	"github.com/maynagashev/statuslist-stats/models"
)

const (
	generateSource = "generate"
	stdoutOutput   = "-"
)

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Замерить размеры токенов и записать stats.csv",
		Long: `generate строит списки статусов заданной вместимости, помечает записи отозванными
с заданной вероятностью, подписывает токен statuslist+jwt (ES256) и записывает
размер токена и его размер после zlib-сжатия.`,
		Args: cobra.NoArgs,
		RunE: a.runGenerate,
	}
	addGenerateFlags(cmd.Flags(), a.cfg)
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if a.cfg.Persist && a.cfg.DatabaseDSN == "" {
		return fmt.Errorf("--persist требует --%s или %s", flagDatabaseDSN, envDatabaseDSN)
	}

	gen, err := generator.New(a.cfg.Generator, a.logger)
	if err != nil {
		return err
	}

	progress := progressPrinter(cmd.ErrOrStderr())
	summary := cmd.OutOrStdout()
	var records []models.Record
	if a.cfg.Output == stdoutOutput {
		// stdout занят CSV, итоги уходят в stderr
		summary = cmd.ErrOrStderr()
		records, err = gen.WriteCSV(ctx, cmd.OutOrStdout(), progress)
	} else {
		records, err = gen.WriteFile(ctx, a.cfg.Output, progress)
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	fmt.Fprintf(summary, "Записано замеров: %d (%s)\n", len(records), a.cfg.Output)

	if !a.cfg.Persist {
		return nil
	}
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}
	run, err := svc.Persist(ctx, generateSource, records)
	if err != nil {
		return err
	}
	a.logger.Info("Прогон сохранен", zap.String("run_id", run.ID.String()))
	fmt.Fprintf(summary, "Прогон сохранен: run:%s\n", run.ID)
	return nil
}

// progressPrinter печатает процент выполнения в одну строку.
func progressPrinter(w io.Writer) generator.ProgressFunc {
	last := -1
	return func(done, total int) {
		if total == 0 {
			return
		}
		percent := done * 100 / total
		if percent == last {
			return
		}
		last = percent
		fmt.Fprintf(w, "\rГенерация: %3d%%", percent)
	}
}
