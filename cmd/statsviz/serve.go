package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maynagashev/statuslist-stats/internal/handlers"
	"github.com/maynagashev/statuslist-stats/internal/services"
	"github.com/maynagashev/statuslist-stats/models"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP-сервер с агрегатами и диаграммами",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
	addServeFlags(cmd.Flags(), a.cfg)
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	records, err := a.initialRecords(ctx, cmd, svc)
	if err != nil {
		return err
	}

	if a.cfg.APIKey == "" {
		a.logger.Warn("API-ключ не задан, загрузка статистики отключена", zap.String("env", envAPIKey))
	}

	h := handlers.NewStatsHandler(services.NewDataset(records), svc, a.logger)
	server := &http.Server{
		Addr:         net.JoinHostPort("", a.cfg.Port),
		Handler:      handlers.NewRouter(h, a.cfg.APIKey, a.logger),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}
	return serveUntilDone(ctx, server, a.logger)
}

// initialRecords загружает стартовый набор. Отсутствие файла по умолчанию не ошибка.
func (a *app) initialRecords(
	ctx context.Context,
	cmd *cobra.Command,
	svc services.AnalysisService,
) ([]models.Record, error) {
	records, err := svc.Load(ctx, a.cfg.Input)
	if err == nil {
		return records, nil
	}
	if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed(flagInput) {
		a.logger.Warn("Файл статистики не найден, сервер запущен с пустым набором", zap.String("path", a.cfg.Input))
		return nil, nil
	}
	return nil, err
}

// serveUntilDone запускает сервер и останавливает его при отмене ctx.
func serveUntilDone(ctx context.Context, server *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Запуск HTTP-сервера", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ошибка запуска HTTP-сервера: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Остановка HTTP-сервера")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки HTTP-сервера: %w", err)
	}
	return nil
}
