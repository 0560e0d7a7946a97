package generator_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/statuslist-stats/internal/generator"
	"github.com/maynagashev/statuslist-stats/internal/stats"
	"github.com/maynagashev/statuslist-stats/models"
)

func smallConfig() generator.Config {
	cfg := generator.DefaultConfig()
	cfg.Capacities = []int{100, 400}
	cfg.RevokedRates = []float64{0.01, 0.5}
	cfg.Runs = 3
	cfg.Seed = 42
	cfg.Workers = 4
	cfg.Now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := generator.DefaultConfig()
	assert.Equal(t, 4*4*30, cfg.Total())
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *generator.Config)
	}{
		{name: "Нет вместимостей", modify: func(c *generator.Config) { c.Capacities = nil }},
		{name: "Нулевое число прогонов", modify: func(c *generator.Config) { c.Runs = 0 }},
		{name: "Отрицательная вместимость", modify: func(c *generator.Config) { c.Capacities = []int{-1} }},
		{name: "Доля больше единицы", modify: func(c *generator.Config) { c.RevokedRates = []float64{1.5} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			tt.modify(&cfg)
			_, err := generator.New(cfg, nil)
			require.ErrorIs(t, err, generator.ErrInvalidConfig)
		})
	}
}

func TestRun(t *testing.T) {
	gen, err := generator.New(smallConfig(), nil)
	require.NoError(t, err)

	var calls, lastDone, lastTotal int
	records, err := gen.Run(context.Background(), func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	})
	require.NoError(t, err)
	require.Len(t, records, 12)

	assert.Equal(t, 12, calls)
	assert.Equal(t, 12, lastDone)
	assert.Equal(t, 12, lastTotal)

	for i, rec := range records {
		assert.Equal(t, i, rec.Index, "записи должны идти в порядке индексов")
		assert.Positive(t, rec.Size)
		assert.Positive(t, rec.CompressedSize)
	}
	assert.Equal(t, 100, records[0].Capacity)
	assert.InDelta(t, 0.01, records[0].Revoked, 1e-12)
	assert.Equal(t, 400, records[11].Capacity)
	assert.InDelta(t, 0.5, records[11].Revoked, 1e-12)

	// Группировка по результатам генерации дает по группе на каждую комбинацию.
	groups := stats.Aggregate(records)
	require.Len(t, groups, 4)
	for _, g := range groups {
		assert.Equal(t, 3, g.Count)
	}
}

func TestRunDeterministic(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	run := func(workers int) []models.Record {
		cfg := smallConfig()
		cfg.Capacities = []int{10000}
		cfg.RevokedRates = []float64{0.05}
		cfg.Runs = 20
		cfg.Key = key
		cfg.Workers = workers
		gen, genErr := generator.New(cfg, nil)
		require.NoError(t, genErr)
		records, runErr := gen.Run(context.Background(), nil)
		require.NoError(t, runErr)
		return records
	}

	t.Run("Число воркеров не влияет на результат", func(t *testing.T) {
		assert.Equal(t, run(1), run(4))
	})

	t.Run("Повторный запуск с тем же зерном", func(t *testing.T) {
		assert.Equal(t, run(2), run(2))
	})
}

func TestRunDefaultClock(t *testing.T) {
	cfg := smallConfig()
	cfg.Now = nil
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	cfg.Key = key

	gen, err := generator.New(cfg, nil)
	require.NoError(t, err)
	first, err := gen.Run(context.Background(), nil)
	require.NoError(t, err)
	second, err := gen.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second, "все токены генератора получают один iat")
}

func TestRunCancelled(t *testing.T) {
	gen, err := generator.New(smallConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = gen.Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteCSV(t *testing.T) {
	gen, err := generator.New(smallConfig(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	records, err := gen.WriteCSV(context.Background(), &buf, nil)
	require.NoError(t, err)

	loaded, err := stats.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")

	t.Run("Успешная запись", func(t *testing.T) {
		gen, err := generator.New(smallConfig(), nil)
		require.NoError(t, err)

		records, err := gen.WriteFile(context.Background(), path, nil)
		require.NoError(t, err)

		loaded, err := stats.LoadCSV(path)
		require.NoError(t, err)
		assert.Equal(t, records, loaded)

		_, statErr := os.Stat(path + ".lock")
		assert.True(t, os.IsNotExist(statErr), "файл блокировки должен быть удален")
	})

	t.Run("Файл заблокирован", func(t *testing.T) {
		lock := flock.New(path + ".lock")
		locked, err := lock.TryLock()
		require.NoError(t, err)
		require.True(t, locked)
		defer func() { _ = lock.Unlock() }()

		gen, err := generator.New(smallConfig(), nil)
		require.NoError(t, err)
		_, err = gen.WriteFile(context.Background(), path, nil)
		require.ErrorIs(t, err, generator.ErrFileLocked)
	})
}

func TestCompress(t *testing.T) {
	data := bytes.Repeat([]byte("eyJhbGciOiJFUzI1NiJ9"), 100)
	compressed, err := generator.Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))
}
