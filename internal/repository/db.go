package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL, импортируем для регистрации
	"go.uber.org/zap"
)

const (
	maxOpenConns    = 10              // Максимальное количество открытых соединений
	maxIdleConns    = 10              // Максимальное количество простаивающих соединений
	connMaxLifetime = 5 * time.Minute // Максимальное время жизни соединения
	connMaxIdleTime = 5 * time.Minute // Максимальное время простоя соединения
)

// schema создает таблицы прогонов и записей, если их еще нет.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stats_runs (
		id         UUID PRIMARY KEY,
		source     TEXT NOT NULL,
		row_count  INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS stats_records (
		run_id          UUID NOT NULL REFERENCES stats_runs (id) ON DELETE CASCADE,
		idx             INTEGER NOT NULL,
		capacity        INTEGER NOT NULL,
		revoked         DOUBLE PRECISION NOT NULL,
		size            BIGINT NOT NULL,
		compressed_size BIGINT NOT NULL,
		PRIMARY KEY (run_id, idx)
	)`,
}

// NewPostgresDB создает и возвращает новое подключение к PostgreSQL.
func NewPostgresDB(dsn string, logger *zap.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Подключение к PostgreSQL...")

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	logger.Info("Подключение к PostgreSQL успешно установлено.")
	return db, nil
}

// EnsureSchema создает таблицы статистики.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка создания схемы БД: %w", err)
		}
	}
	return nil
}
