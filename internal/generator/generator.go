// Package generator строит списки статусов с заданной долей отозванных записей,
// подписывает их как JWT и измеряет размер токена до и после сжатия.
// Результат записывается в CSV, который читает пакет stats.
package generator

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zlib"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maynagashev/statuslist-stats/internal/stats"
	"github.com/maynagashev/statuslist-stats/internal/statuslist"
	"github.com/maynagashev/statuslist-stats/models"
)

// Значения по умолчанию.
const (
	defaultRuns          = 30
	defaultBits          = 2
	defaultIssuerURI     = "https://statuslist.example.com/cf72a49"
	defaultStatusListURI = "https://statuslist.example.com/cf72a49/83"
	outputFilePerm       = 0o644
)

// Config описывает параметры генерации.
type Config struct {
	Capacities    []int     // Вместимости списков
	RevokedRates  []float64 // Вероятность отзыва каждой записи
	Runs          int       // Количество прогонов на каждую комбинацию
	Bits          int       // Бит на статус
	IssuerURI     string
	StatusListURI string
	Workers       int               // Количество параллельных воркеров, 0 - по числу CPU
	Seed          uint64            // 0 - случайное зерно
	Key           *ecdsa.PrivateKey // nil - сгенерировать ключ P-256
	Now           func() time.Time  // Источник времени для iat, nil - время создания генератора
}

// DefaultConfig возвращает конфигурацию исходного набора замеров.
func DefaultConfig() Config {
	return Config{
		Capacities:    []int{10000, 20000, 100000, 1000000},
		RevokedRates:  []float64{0.01, 0.015, 0.02, 0.05},
		Runs:          defaultRuns,
		Bits:          defaultBits,
		IssuerURI:     defaultIssuerURI,
		StatusListURI: defaultStatusListURI,
	}
}

// Total возвращает общее количество замеров.
func (c Config) Total() int {
	return len(c.Capacities) * len(c.RevokedRates) * c.Runs
}

// Validate проверяет конфигурацию.
func (c Config) Validate() error {
	if len(c.Capacities) == 0 || len(c.RevokedRates) == 0 {
		return fmt.Errorf("%w: не заданы capacities или revoked rates", ErrInvalidConfig)
	}
	if c.Runs <= 0 {
		return fmt.Errorf("%w: runs должно быть больше нуля", ErrInvalidConfig)
	}
	for _, capacity := range c.Capacities {
		if capacity <= 0 {
			return fmt.Errorf("%w: capacity %d", ErrInvalidConfig, capacity)
		}
	}
	for _, rate := range c.RevokedRates {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%w: revoked rate %v вне [0, 1]", ErrInvalidConfig, rate)
		}
	}
	return nil
}

// ProgressFunc получает количество выполненных замеров и их общее число.
type ProgressFunc func(done, total int)

// Generator выполняет замеры.
type Generator struct {
	cfg    Config
	logger *zap.Logger
}

// New создает генератор, заполняя незаданные параметры значениями по умолчанию.
func New(cfg Config, logger *zap.Logger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Bits == 0 {
		cfg.Bits = defaultBits
	}
	if cfg.IssuerURI == "" {
		cfg.IssuerURI = defaultIssuerURI
	}
	if cfg.StatusListURI == "" {
		cfg.StatusListURI = defaultStatusListURI
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Now == nil {
		// Один iat на весь прогон, иначе токены разных воркеров отличаются временем выпуска
		start := time.Now()
		cfg.Now = func() time.Time { return start }
	}
	if cfg.Seed == 0 {
		var seed [8]byte
		if _, err := crand.Read(seed[:]); err != nil {
			return nil, fmt.Errorf("ошибка получения случайного зерна: %w", err)
		}
		cfg.Seed = binary.LittleEndian.Uint64(seed[:])
	}
	if cfg.Key == nil {
		key, err := ecdsa.GenerateKey(elliptic.P256(), crand.Reader)
		if err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа подписи: %w", err)
		}
		cfg.Key = key
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, logger: logger.With(zap.String("component", "generator"))}, nil
}

type job struct {
	index    int
	capacity int
	rate     float64
}

// Run выполняет все замеры и возвращает записи в порядке индексов.
func (g *Generator) Run(ctx context.Context, progress ProgressFunc) ([]models.Record, error) {
	jobs := make([]job, 0, g.cfg.Total())
	for _, capacity := range g.cfg.Capacities {
		for _, rate := range g.cfg.RevokedRates {
			for range g.cfg.Runs {
				jobs = append(jobs, job{index: len(jobs), capacity: capacity, rate: rate})
			}
		}
	}

	g.logger.Info("Запуск генерации статистики",
		zap.Int("total", len(jobs)), zap.Int("workers", g.cfg.Workers), zap.Int("bits", g.cfg.Bits))

	records := make([]models.Record, len(jobs))
	var (
		mu   sync.Mutex
		done int
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for _, j := range jobs {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			rec, err := g.measure(j)
			if err != nil {
				return fmt.Errorf("замер %d (capacity=%d, revoked=%v): %w", j.index, j.capacity, j.rate, err)
			}
			records[j.index] = rec

			mu.Lock()
			done++
			if progress != nil {
				progress(done, len(jobs))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.logger.Info("Генерация статистики завершена", zap.Int("records", len(records)))
	return records, nil
}

// measure строит один список статусов и измеряет размеры его токена.
func (g *Generator) measure(j job) (models.Record, error) {
	rng := rand.New(rand.NewPCG(g.cfg.Seed, uint64(j.index)))

	list, err := statuslist.New(j.capacity, g.cfg.Bits)
	if err != nil {
		return models.Record{}, err
	}
	for i := range j.capacity {
		if rng.Float64() < j.rate {
			if err = list.Set(i, statuslist.StatusInvalid); err != nil {
				return models.Record{}, err
			}
		}
	}

	token := &statuslist.Token{
		Subject:  g.cfg.StatusListURI,
		Issuer:   g.cfg.IssuerURI,
		IssuedAt: g.cfg.Now(),
		List:     list,
	}
	serialized, err := token.SignJWT(g.cfg.Key)
	if err != nil {
		return models.Record{}, err
	}

	compressed, err := Compress([]byte(serialized))
	if err != nil {
		return models.Record{}, err
	}

	return models.Record{
		Index:          j.index,
		Capacity:       j.capacity,
		Revoked:        j.rate,
		Size:           int64(len(serialized)),
		CompressedSize: int64(len(compressed)),
	}, nil
}

// Compress сжимает данные DEFLATE в обертке zlib с уровнем по умолчанию.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("ошибка сжатия: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("ошибка завершения сжатия: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCSV выполняет генерацию и пишет CSV в w.
func (g *Generator) WriteCSV(ctx context.Context, w io.Writer, progress ProgressFunc) ([]models.Record, error) {
	records, err := g.Run(ctx, progress)
	if err != nil {
		return nil, err
	}
	if err = stats.WriteCSV(w, records); err != nil {
		return nil, err
	}
	return records, nil
}

// WriteFile выполняет генерацию и пишет CSV в файл path.
// На время записи берется файловая блокировка path + ".lock".
func (g *Generator) WriteFile(ctx context.Context, path string, progress ProgressFunc) ([]models.Record, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки файла %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrFileLocked, path)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			g.logger.Warn("Не удалось снять блокировку файла", zap.String("path", path), zap.Error(unlockErr))
		}
		_ = os.Remove(path + ".lock")
	}()

	records, err := g.Run(ctx, progress)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePerm)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла %s: %w", path, err)
	}
	if err = stats.WriteCSV(f, records); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return nil, fmt.Errorf("ошибка закрытия %s: %w", path, err)
	}

	g.logger.Info("Статистика записана", zap.String("path", path), zap.Int("records", len(records)))
	return records, nil
}

// Кастомные ошибки генератора.
var (
	ErrInvalidConfig = errors.New("некорректная конфигурация генератора")
	ErrFileLocked    = errors.New("файл статистики уже записывается другим процессом")
)
