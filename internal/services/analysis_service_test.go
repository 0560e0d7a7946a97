package services_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maynagashev/statuslist-stats/internal/chart"
	"github.com/maynagashev/statuslist-stats/internal/repository"
	"github.com/maynagashev/statuslist-stats/internal/services"
	"github.com/maynagashev/statuslist-stats/internal/storage"
	"github.com/maynagashev/statuslist-stats/models"
)

// --- Mocks ---

// MockFileStorage is a mock for FileStorage.
type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	args := m.Called(ctx, objectKey, reader, size, contentType)
	return args.Error(0)
}

func (m *MockFileStorage) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	args := m.Called(ctx, objectKey)
	ret := args.Get(0)
	if ret == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return ret.(io.ReadCloser), args.Error(1)
}

// MockStatsRepository is a mock for StatsRepository.
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) SaveRun(ctx context.Context, run *models.Run, records []models.Record) error {
	args := m.Called(ctx, run, records)
	return args.Error(0)
}

func (m *MockStatsRepository) GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error) {
	args := m.Called(ctx, runID)
	ret := args.Get(0)
	if ret == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return ret.(*models.Run), args.Error(1)
}

func (m *MockStatsRepository) LatestRun(ctx context.Context) (*models.Run, error) {
	args := m.Called(ctx)
	ret := args.Get(0)
	if ret == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return ret.(*models.Run), args.Error(1)
}

func (m *MockStatsRepository) ListRecords(ctx context.Context, runID uuid.UUID) ([]models.Record, error) {
	args := m.Called(ctx, runID)
	ret := args.Get(0)
	if ret == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return ret.([]models.Record), args.Error(1)
}

// --- Tests ---

var sampleRecords = []models.Record{
	{Index: 0, Capacity: 10, Revoked: 2, Size: 100, CompressedSize: 40},
	{Index: 1, Capacity: 10, Revoked: 2, Size: 120, CompressedSize: 48},
	{Index: 2, Capacity: 20, Revoked: 2, Size: 300, CompressedSize: 120},
}

func TestAnalysisService_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Локальный файл", func(t *testing.T) {
		svc := services.NewAnalysisService(nil, nil, zap.NewNop())
		records, err := svc.Load(ctx, filepath.Join("testdata", "stats.csv"))
		require.NoError(t, err)
		assert.Len(t, records, 7)
	})

	t.Run("Файл не найден", func(t *testing.T) {
		svc := services.NewAnalysisService(nil, nil, zap.NewNop())
		_, err := svc.Load(ctx, filepath.Join("testdata", "missing.csv"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Объект из хранилища", func(t *testing.T) {
		fs := new(MockFileStorage)
		body := io.NopCloser(strings.NewReader("capacity,revoked,size,compressedSize\n10,2,100,40\n"))
		fs.On("DownloadFile", ctx, "runs/stats.csv").Return(body, nil).Once()

		svc := services.NewAnalysisService(fs, nil, zap.NewNop())
		records, err := svc.Load(ctx, "s3://runs/stats.csv")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(100), records[0].Size)
		fs.AssertExpectations(t)
	})

	t.Run("Объект отсутствует", func(t *testing.T) {
		fs := new(MockFileStorage)
		fs.On("DownloadFile", ctx, "nope.csv").Return(nil, storage.ErrObjectNotFound).Once()

		svc := services.NewAnalysisService(fs, nil, zap.NewNop())
		_, err := svc.Load(ctx, "s3://nope.csv")
		require.ErrorIs(t, err, storage.ErrObjectNotFound)
	})

	t.Run("Хранилище не настроено", func(t *testing.T) {
		svc := services.NewAnalysisService(nil, nil, zap.NewNop())
		_, err := svc.Load(ctx, "s3://runs/stats.csv")
		require.ErrorIs(t, err, services.ErrStorageNotConfigured)
	})

	t.Run("Последний прогон из БД", func(t *testing.T) {
		repo := new(MockStatsRepository)
		run := &models.Run{ID: uuid.New(), Source: "generate"}
		repo.On("LatestRun", ctx).Return(run, nil).Once()
		repo.On("ListRecords", ctx, run.ID).Return(sampleRecords, nil).Once()

		svc := services.NewAnalysisService(nil, repo, zap.NewNop())
		records, err := svc.Load(ctx, "run:latest")
		require.NoError(t, err)
		assert.Equal(t, sampleRecords, records)
		repo.AssertExpectations(t)
	})

	t.Run("Прогон по ID", func(t *testing.T) {
		repo := new(MockStatsRepository)
		run := &models.Run{ID: uuid.New()}
		repo.On("GetRun", ctx, run.ID).Return(run, nil).Once()
		repo.On("ListRecords", ctx, run.ID).Return([]models.Record{}, nil).Once()

		svc := services.NewAnalysisService(nil, repo, zap.NewNop())
		records, err := svc.Load(ctx, "run:"+run.ID.String())
		require.NoError(t, err)
		assert.Empty(t, records)
		repo.AssertExpectations(t)
	})

	t.Run("Прогон не найден", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("LatestRun", ctx).Return(nil, repository.ErrRunNotFound).Once()

		svc := services.NewAnalysisService(nil, repo, zap.NewNop())
		_, err := svc.Load(ctx, "run:latest")
		require.ErrorIs(t, err, repository.ErrRunNotFound)
	})

	t.Run("Некорректный ID прогона", func(t *testing.T) {
		repo := new(MockStatsRepository)
		svc := services.NewAnalysisService(nil, repo, zap.NewNop())
		_, err := svc.Load(ctx, "run:not-a-uuid")
		require.Error(t, err)
		repo.AssertNotCalled(t, "GetRun", mock.Anything, mock.Anything)
	})

	t.Run("БД не настроена", func(t *testing.T) {
		svc := services.NewAnalysisService(nil, nil, zap.NewNop())
		_, err := svc.Load(ctx, "run:latest")
		require.ErrorIs(t, err, services.ErrRepositoryNotConfigured)
	})
}

func TestAnalysisService_Summarize(t *testing.T) {
	svc := services.NewAnalysisService(nil, nil, nil)
	groups := svc.Summarize(sampleRecords)
	require.Len(t, groups, 2)
	assert.InDelta(t, 110.0, groups[0].MeanSize, 1e-9)
	assert.InDelta(t, 44.0, groups[0].MeanCompressedSize, 1e-9)
	assert.Equal(t, 2, groups[0].Count)
	assert.Empty(t, svc.Summarize(nil))
}

func TestAnalysisService_RenderCharts(t *testing.T) {
	t.Run("Две диаграммы", func(t *testing.T) {
		dir := t.TempDir()
		svc := services.NewAnalysisService(nil, nil, zap.NewNop())
		paths, err := svc.RenderCharts(svc.Summarize(sampleRecords), dir)
		require.NoError(t, err)
		require.Equal(t, []string{
			filepath.Join(dir, "size_chart.png"),
			filepath.Join(dir, "compressed_size_chart.png"),
		}, paths)

		for _, p := range paths {
			data, readErr := os.ReadFile(p)
			require.NoError(t, readErr)
			cfg, decodeErr := png.DecodeConfig(bytes.NewReader(data))
			require.NoError(t, decodeErr)
			assert.Equal(t, chart.CanvasWidth, cfg.Width)
			assert.Equal(t, chart.CanvasHeight, cfg.Height)
		}
	})

	t.Run("Пустой набор", func(t *testing.T) {
		dir := t.TempDir()
		svc := services.NewAnalysisService(nil, nil, zap.NewNop())
		paths, err := svc.RenderCharts(nil, dir)
		require.NoError(t, err)
		assert.Empty(t, paths)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestAnalysisService_Publish(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "size_chart.png")
	require.NoError(t, os.WriteFile(pngPath, []byte("png-data"), 0o600))

	t.Run("Успешная публикация", func(t *testing.T) {
		fs := new(MockFileStorage)
		fs.On("UploadFile", ctx, "charts/size_chart.png", mock.Anything, int64(8), "image/png").
			Return(nil).Once()

		svc := services.NewAnalysisService(fs, nil, zap.NewNop())
		require.NoError(t, svc.Publish(ctx, []string{pngPath}, "charts"))
		fs.AssertExpectations(t)
	})

	t.Run("Ошибка хранилища", func(t *testing.T) {
		fs := new(MockFileStorage)
		fs.On("UploadFile", ctx, "size_chart.png", mock.Anything, int64(8), "image/png").
			Return(errors.New("s3 down")).Once()

		svc := services.NewAnalysisService(fs, nil, zap.NewNop())
		err := svc.Publish(ctx, []string{pngPath}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "s3 down")
	})

	t.Run("Диаграмма и исходный CSV", func(t *testing.T) {
		csvPath := filepath.Join("testdata", "stats.csv")
		info, err := os.Stat(csvPath)
		require.NoError(t, err)

		fs := new(MockFileStorage)
		fs.On("UploadFile", ctx, "stats/size_chart.png", mock.Anything, int64(8), "image/png").
			Return(nil).Once()
		fs.On("UploadFile", ctx, "stats/stats.csv", mock.Anything, info.Size(), "text/csv").
			Return(nil).Once()

		svc := services.NewAnalysisService(fs, nil, zap.NewNop())
		require.NoError(t, svc.Publish(ctx, []string{pngPath, csvPath}, "stats"))
		fs.AssertExpectations(t)
	})

	t.Run("Нечего публиковать", func(t *testing.T) {
		fs := new(MockFileStorage)
		svc := services.NewAnalysisService(fs, nil, zap.NewNop())
		require.ErrorIs(t, svc.Publish(ctx, nil, "stats"), services.ErrNothingToPublish)
		fs.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Хранилище не настроено", func(t *testing.T) {
		svc := services.NewAnalysisService(nil, nil, zap.NewNop())
		require.ErrorIs(t, svc.Publish(ctx, []string{pngPath}, ""), services.ErrStorageNotConfigured)
	})
}

func TestIsLocalSource(t *testing.T) {
	assert.True(t, services.IsLocalSource("stats.csv"))
	assert.True(t, services.IsLocalSource("/tmp/run.csv"))
	assert.False(t, services.IsLocalSource("s3://stats/stats.csv"))
	assert.False(t, services.IsLocalSource("run:latest"))
}

func TestAnalysisService_Persist(t *testing.T) {
	ctx := context.Background()

	t.Run("Сохранение прогона", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("SaveRun", ctx, mock.MatchedBy(func(r *models.Run) bool {
			return r.Source == "generate" && r.ID != uuid.Nil
		}), sampleRecords).Return(nil).Once()

		svc := services.NewAnalysisService(nil, repo, zap.NewNop())
		run, err := svc.Persist(ctx, "generate", sampleRecords)
		require.NoError(t, err)
		assert.Equal(t, "generate", run.Source)
		repo.AssertExpectations(t)
	})

	t.Run("БД не настроена", func(t *testing.T) {
		svc := services.NewAnalysisService(nil, nil, zap.NewNop())
		_, err := svc.Persist(ctx, "generate", sampleRecords)
		require.ErrorIs(t, err, services.ErrRepositoryNotConfigured)
	})
}
