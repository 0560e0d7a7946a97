// Package services связывает загрузку, агрегацию, отрисовку и публикацию статистики.
package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maynagashev/statuslist-stats/internal/chart"
	"github.com/maynagashev/statuslist-stats/internal/repository"
	"github.com/maynagashev/statuslist-stats/internal/stats"
	"github.com/maynagashev/statuslist-stats/internal/storage"
	"github.com/maynagashev/statuslist-stats/models"
)

// Префиксы источников данных.
const (
	SourcePrefixS3  = "s3://"
	SourcePrefixRun = "run:"
	SourceLatestRun = "latest"
)

const chartFilePerm = 0o644

// contentTypes задает типы публикуемых файлов, известные заранее.
var contentTypes = map[string]string{
	".csv": "text/csv",
	".png": "image/png",
}

// IsLocalSource сообщает, указывает ли источник на локальный файл.
func IsLocalSource(source string) bool {
	return !strings.HasPrefix(source, SourcePrefixS3) && !strings.HasPrefix(source, SourcePrefixRun)
}

// AnalysisService определяет операции над статистикой прогонов.
type AnalysisService interface {
	// Load читает записи из источника: путь к CSV, s3://<key> или run:<uuid|latest>.
	Load(ctx context.Context, source string) ([]models.Record, error)
	// Summarize группирует записи и считает средние.
	Summarize(records []models.Record) []models.GroupStats
	// RenderCharts рисует PNG-диаграммы всех метрик в outDir и возвращает пути файлов.
	RenderCharts(groups []models.GroupStats, outDir string) ([]string, error)
	// Publish загружает файлы (диаграммы, CSV) в объектное хранилище под префиксом prefix.
	Publish(ctx context.Context, paths []string, prefix string) error
	// Persist сохраняет записи как новый прогон.
	Persist(ctx context.Context, source string, records []models.Record) (*models.Run, error)
}

var _ AnalysisService = (*analysisService)(nil) // Проверка соответствия интерфейсу

type analysisService struct {
	storage storage.FileStorage        // Может быть nil, если хранилище не настроено
	repo    repository.StatsRepository // Может быть nil, если БД не настроена
	logger  *zap.Logger
}

// NewAnalysisService создает сервис. storage и repo необязательны.
func NewAnalysisService(fs storage.FileStorage, repo repository.StatsRepository, logger *zap.Logger) AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &analysisService{
		storage: fs,
		repo:    repo,
		logger:  logger.With(zap.String("component", "analysis")),
	}
}

// Load читает записи из источника.
func (s *analysisService) Load(ctx context.Context, source string) ([]models.Record, error) {
	switch {
	case strings.HasPrefix(source, SourcePrefixS3):
		return s.loadObject(ctx, strings.TrimPrefix(source, SourcePrefixS3))
	case strings.HasPrefix(source, SourcePrefixRun):
		return s.loadRun(ctx, strings.TrimPrefix(source, SourcePrefixRun))
	default:
		records, err := stats.LoadCSV(source)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Статистика загружена из файла", zap.String("path", source), zap.Int("rows", len(records)))
		return records, nil
	}
}

func (s *analysisService) loadObject(ctx context.Context, key string) ([]models.Record, error) {
	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}
	reader, err := s.storage.DownloadFile(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("ошибка скачивания %s: %w", key, err)
	}
	defer reader.Close()

	records, err := stats.ReadCSV(reader)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	s.logger.Info("Статистика загружена из хранилища", zap.String("key", key), zap.Int("rows", len(records)))
	return records, nil
}

func (s *analysisService) loadRun(ctx context.Context, ref string) ([]models.Record, error) {
	if s.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}

	var (
		run *models.Run
		err error
	)
	if ref == SourceLatestRun {
		run, err = s.repo.LatestRun(ctx)
	} else {
		id, parseErr := uuid.Parse(ref)
		if parseErr != nil {
			return nil, fmt.Errorf("некорректный ID прогона %q: %w", ref, parseErr)
		}
		run, err = s.repo.GetRun(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListRecords(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Статистика загружена из БД", zap.String("run_id", run.ID.String()), zap.Int("rows", len(records)))
	return records, nil
}

// Summarize группирует записи и считает средние.
func (s *analysisService) Summarize(records []models.Record) []models.GroupStats {
	groups := stats.Aggregate(records)
	s.logger.Debug("Агрегация выполнена", zap.Int("rows", len(records)), zap.Int("groups", len(groups)))
	return groups
}

// RenderCharts рисует PNG-диаграммы. Для пустого набора групп файлы не создаются.
func (s *analysisService) RenderCharts(groups []models.GroupStats, outDir string) ([]string, error) {
	if len(groups) == 0 {
		s.logger.Warn("Нет данных для построения диаграмм")
		return nil, nil
	}
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", outDir, err)
	}

	paths := make([]string, 0, len(models.Metrics()))
	for _, metric := range models.Metrics() {
		spec := chart.ForMetric(metric)
		target := filepath.Join(outDir, spec.FileName())
		if err := renderFile(target, spec, chart.BarsFor(groups, metric)); err != nil {
			return paths, err
		}
		s.logger.Info("Диаграмма сохранена", zap.String("metric", string(metric)), zap.String("path", target))
		paths = append(paths, target)
	}
	return paths, nil
}

func renderFile(target string, spec chart.Spec, bars []chart.Bar) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, chartFilePerm)
	if err != nil {
		return fmt.Errorf("ошибка создания файла %s: %w", target, err)
	}
	if err = chart.RenderPNG(f, spec, bars); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия файла %s: %w", target, err)
	}
	return nil
}

// Publish загружает файлы в объектное хранилище.
func (s *analysisService) Publish(ctx context.Context, paths []string, prefix string) error {
	if s.storage == nil {
		return ErrStorageNotConfigured
	}
	if len(paths) == 0 {
		return ErrNothingToPublish
	}
	for _, p := range paths {
		if err := s.publishFile(ctx, p, path.Join(prefix, filepath.Base(p))); err != nil {
			return err
		}
	}
	return nil
}

func (s *analysisService) publishFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("ошибка получения размера файла %s: %w", localPath, err)
	}

	contentType := contentTypeFor(localPath)
	if err = s.storage.UploadFile(ctx, key, f, info.Size(), contentType); err != nil {
		return fmt.Errorf("ошибка публикации %s: %w", localPath, err)
	}
	s.logger.Info("Файл опубликован", zap.String("key", key), zap.String("content_type", contentType))
	return nil
}

func contentTypeFor(localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Persist сохраняет записи как новый прогон.
func (s *analysisService) Persist(ctx context.Context, source string, records []models.Record) (*models.Run, error) {
	if s.repo == nil {
		return nil, ErrRepositoryNotConfigured
	}
	run := &models.Run{ID: uuid.New(), Source: source}
	if err := s.repo.SaveRun(ctx, run, records); err != nil {
		return nil, err
	}
	return run, nil
}

// Кастомные ошибки сервиса.
var (
	ErrStorageNotConfigured    = errors.New("объектное хранилище не настроено")
	ErrRepositoryNotConfigured = errors.New("база данных не настроена")
	ErrNothingToPublish        = errors.New("нет файлов для публикации")
)
