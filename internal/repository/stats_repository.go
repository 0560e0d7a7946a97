// Package repository хранит прогоны статистики и их записи в PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/maynagashev/statuslist-stats/models"
)

// StatsRepository определяет методы для работы с прогонами статистики.
type StatsRepository interface {
	SaveRun(ctx context.Context, run *models.Run, records []models.Record) error
	GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error)
	LatestRun(ctx context.Context) (*models.Run, error)
	ListRecords(ctx context.Context, runID uuid.UUID) ([]models.Record, error)
}

// postgresStatsRepository реализует StatsRepository для PostgreSQL.
type postgresStatsRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresStatsRepository создает новый экземпляр репозитория статистики.
func NewPostgresStatsRepository(db *sqlx.DB, logger *zap.Logger) StatsRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresStatsRepository{db: db, logger: logger.With(zap.String("component", "stats_repo"))}
}

const (
	insertRunQuery = `INSERT INTO stats_runs (id, source, row_count) VALUES ($1, $2, $3) RETURNING created_at`
	insertRecQuery = `INSERT INTO stats_records (run_id, idx, capacity, revoked, size, compressed_size)` +
		` VALUES ($1, $2, $3, $4, $5, $6)`
	selectRunQuery    = `SELECT id, source, row_count, created_at FROM stats_runs WHERE id=$1`
	selectLatestQuery = `SELECT id, source, row_count, created_at FROM stats_runs ORDER BY created_at DESC LIMIT 1`
	selectRecsQuery   = `SELECT idx, capacity, revoked, size, compressed_size` +
		` FROM stats_records WHERE run_id=$1 ORDER BY idx`
)

// SaveRun сохраняет прогон и все его записи в одной транзакции.
// Если у прогона нет ID, он генерируется.
func (r *postgresStatsRepository) SaveRun(ctx context.Context, run *models.Run, records []models.Record) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.Rows = len(records)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() {
		// Rollback после Commit возвращает sql.ErrTxDone, это ожидаемо
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Warn("Ошибка отката транзакции", zap.Error(rbErr))
		}
	}()

	if err = tx.QueryRowxContext(ctx, insertRunQuery, run.ID, run.Source, run.Rows).Scan(&run.CreatedAt); err != nil {
		return fmt.Errorf("ошибка создания прогона: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, insertRecQuery)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса записей: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx,
			run.ID, rec.Index, rec.Capacity, rec.Revoked, rec.Size, rec.CompressedSize,
		); err != nil {
			return fmt.Errorf("ошибка сохранения записи %d: %w", rec.Index, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	r.logger.Info("Прогон сохранен", zap.String("run_id", run.ID.String()), zap.Int("rows", run.Rows))
	return nil
}

// GetRun находит прогон по ID.
func (r *postgresStatsRepository) GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error) {
	return r.getRun(ctx, selectRunQuery, runID)
}

// LatestRun возвращает последний сохраненный прогон.
func (r *postgresStatsRepository) LatestRun(ctx context.Context) (*models.Run, error) {
	return r.getRun(ctx, selectLatestQuery)
}

func (r *postgresStatsRepository) getRun(ctx context.Context, query string, args ...any) (*models.Run, error) {
	var run models.Run
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на получение прогона: %w", err)
	}
	return &run, nil
}

// ListRecords возвращает записи прогона в порядке индексов.
func (r *postgresStatsRepository) ListRecords(ctx context.Context, runID uuid.UUID) ([]models.Record, error) {
	records := make([]models.Record, 0)
	if err := r.db.SelectContext(ctx, &records, selectRecsQuery, runID); err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса на получение записей: %w", err)
	}

	r.logger.Debug("Получены записи прогона", zap.String("run_id", runID.String()), zap.Int("count", len(records)))
	return records, nil
}

// Кастомные ошибки репозитория.
var (
	ErrRunNotFound = errors.New("прогон статистики не найден")
)
