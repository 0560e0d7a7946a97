package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/maynagashev/statuslist-stats/internal/repository"
	"github.com/maynagashev/statuslist-stats/internal/services"
	"github.com/maynagashev/statuslist-stats/internal/storage"
)

// Аннотация команд, которые занимают терминал под TUI.
const annotationTUI = "tui"

// app хранит конфигурацию и зависимости на время выполнения команды.
type app struct {
	cfg    *config
	logger *zap.Logger
	db     *sqlx.DB
}

// buildLogger создает логгер. Для TUI-команд логи пишутся в файл, чтобы не портить экран.
func buildLogger(cfg *config, tuiMode bool) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if tuiMode {
		if err := os.MkdirAll(filepath.Dir(defaultLogFile), os.ModePerm); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию для логов: %w", err)
		}
		zapCfg.OutputPaths = []string{defaultLogFile}
		zapCfg.ErrorOutputPaths = []string{defaultLogFile}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("не удалось инициализировать логгер: %w", err)
	}
	return logger, nil
}

// isTUICommand проверяет, запустит ли команда интерактивный просмотр.
func isTUICommand(cmd *cobra.Command, cfg *config) bool {
	return cmd.Annotations[annotationTUI] == "true" || cfg.Show
}

// storage возвращает клиент MinIO или nil, если хранилище не настроено.
func (a *app) storage(ctx context.Context) (storage.FileStorage, error) {
	if a.cfg.MinioEndpoint == "" {
		return nil, nil //nolint:nilnil // Хранилище необязательно
	}
	client, err := storage.NewMinioClient(ctx, storage.MinioConfig{
		Endpoint:        a.cfg.MinioEndpoint,
		AccessKeyID:     a.cfg.MinioUser,
		SecretAccessKey: a.cfg.MinioPassword,
		UseSSL:          a.cfg.MinioSSL,
		BucketName:      a.cfg.MinioBucket,
		Region:          a.cfg.MinioRegion,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// repository возвращает репозиторий статистики или nil, если БД не настроена.
func (a *app) repository(ctx context.Context) (repository.StatsRepository, error) {
	if a.cfg.DatabaseDSN == "" {
		return nil, nil //nolint:nilnil // БД необязательна
	}
	if a.db == nil {
		db, err := repository.NewPostgresDB(a.cfg.DatabaseDSN, a.logger)
		if err != nil {
			return nil, err
		}
		if err = repository.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
	}
	return repository.NewPostgresStatsRepository(a.db, a.logger), nil
}

// service собирает AnalysisService с настроенными зависимостями.
func (a *app) service(ctx context.Context) (services.AnalysisService, error) {
	fs, err := a.storage(ctx)
	if err != nil {
		return nil, err
	}
	repo, err := a.repository(ctx)
	if err != nil {
		return nil, err
	}

	return services.NewAnalysisService(fs, repo, a.logger), nil
}

// close освобождает ресурсы команды.
func (a *app) close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	if a.logger != nil {
		// Sync возвращает ошибку для stderr в некоторых ОС, ее игнорируем
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}
