package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/maynagashev/statuslist-stats/internal/generator"
	"github.com/maynagashev/statuslist-stats/internal/stats"
)

const (
	defaultOutDir        = "."
	defaultServerPort    = "8080"
	defaultServerURL     = "http://localhost:8080"
	defaultMinioBucket   = "statuslist-stats"
	defaultMinioRegion   = "us-east-1"
	defaultPublishPrefix = "charts"
	defaultLogFile       = "logs/statsviz.log"

	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	shutdownTimeout     = 5 * time.Second

	// Переменные окружения.
	envInput         = "STATS_INPUT"
	envOutDir        = "STATS_OUT_DIR"
	envServerPort    = "SERVER_PORT"
	envDatabaseDSN   = "DATABASE_DSN"
	envMinioEndpoint = "MINIO_ENDPOINT"
	envMinioUser     = "MINIO_USER"
	envMinioPassword = "MINIO_PASSWORD"
	envMinioBucket   = "MINIO_BUCKET"
	envMinioRegion   = "MINIO_REGION"
	envAPIKey        = "STATS_API_KEY"
	envServerURL     = "STATS_SERVER_URL"
)

// Имена флагов.
const (
	flagVerbose       = "verbose"
	flagInput         = "input"
	flagOutDir        = "out-dir"
	flagDatabaseDSN   = "database-dsn"
	flagMinioEndpoint = "minio-endpoint"
	flagMinioUser     = "minio-user"
	flagMinioPassword = "minio-password"
	flagMinioBucket   = "minio-bucket"
	flagMinioRegion   = "minio-region"
	flagMinioSSL      = "minio-ssl"
	flagPort          = "port"
	flagAPIKey        = "api-key"
	flagServerURL     = "server-url"
)

// envBindings связывает флаги с переменными окружения.
// Явно заданный флаг важнее переменной окружения, переменная важнее значения по умолчанию.
var envBindings = map[string]string{
	flagInput:         envInput,
	flagOutDir:        envOutDir,
	flagPort:          envServerPort,
	flagDatabaseDSN:   envDatabaseDSN,
	flagMinioEndpoint: envMinioEndpoint,
	flagMinioUser:     envMinioUser,
	flagMinioPassword: envMinioPassword,
	flagMinioBucket:   envMinioBucket,
	flagMinioRegion:   envMinioRegion,
	flagAPIKey:        envAPIKey,
	flagServerURL:     envServerURL,
}

// config хранит конфигурацию всех команд.
type config struct {
	Verbose bool
	Input   string
	OutDir  string

	DatabaseDSN   string
	MinioEndpoint string
	MinioUser     string
	MinioPassword string
	MinioBucket   string
	MinioRegion   string
	MinioSSL      bool

	// analyze
	Show          bool
	Publish       bool
	PublishPrefix string
	NoPNG         bool

	// generate
	Generator generator.Config
	Output    string
	Persist   bool

	// serve, view, push
	Port      string
	APIKey    string
	ServerURL string
	ChartsDir string
}

func newConfig() *config {
	return &config{Generator: generator.DefaultConfig()}
}

// addGlobalFlags регистрирует флаги, общие для всех команд.
func addGlobalFlags(fs *pflag.FlagSet, cfg *config) {
	fs.BoolVarP(&cfg.Verbose, flagVerbose, "v", false, "Подробное логирование")
	fs.StringVarP(&cfg.Input, flagInput, "i", stats.DefaultFileName,
		fmt.Sprintf("Источник статистики: путь к CSV, s3://<key> или run:<uuid|latest> (env: %s)", envInput))
	fs.StringVar(&cfg.DatabaseDSN, flagDatabaseDSN, "",
		fmt.Sprintf("Строка подключения к базе данных (env: %s)", envDatabaseDSN))
	fs.StringVar(&cfg.MinioEndpoint, flagMinioEndpoint, "",
		fmt.Sprintf("Адрес MinIO, например localhost:9000 (env: %s)", envMinioEndpoint))
	fs.StringVar(&cfg.MinioUser, flagMinioUser, "", fmt.Sprintf("Access key MinIO (env: %s)", envMinioUser))
	fs.StringVar(&cfg.MinioPassword, flagMinioPassword, "", fmt.Sprintf("Secret key MinIO (env: %s)", envMinioPassword))
	fs.StringVar(&cfg.MinioBucket, flagMinioBucket, defaultMinioBucket,
		fmt.Sprintf("Бакет MinIO (env: %s)", envMinioBucket))
	fs.StringVar(&cfg.MinioRegion, flagMinioRegion, defaultMinioRegion,
		fmt.Sprintf("Регион MinIO (env: %s)", envMinioRegion))
	fs.BoolVar(&cfg.MinioSSL, flagMinioSSL, false, "Использовать HTTPS для MinIO")
}

// addAnalyzeFlags регистрирует флаги анализа (корневая команда и analyze).
func addAnalyzeFlags(fs *pflag.FlagSet, cfg *config) {
	fs.StringVarP(&cfg.OutDir, flagOutDir, "o", defaultOutDir,
		fmt.Sprintf("Каталог для PNG-диаграмм (env: %s)", envOutDir))
	fs.BoolVar(&cfg.Show, "show", false, "Открыть интерактивный просмотр после анализа")
	fs.BoolVar(&cfg.Publish, "publish", false, "Загрузить диаграммы и исходный CSV в MinIO")
	fs.StringVar(&cfg.PublishPrefix, "publish-prefix", defaultPublishPrefix, "Префикс ключей при публикации")
	fs.BoolVar(&cfg.NoPNG, "no-png", false, "Не сохранять PNG-диаграммы")
}

func addGenerateFlags(fs *pflag.FlagSet, cfg *config) {
	g := &cfg.Generator
	fs.IntSliceVar(&g.Capacities, "capacities", g.Capacities, "Вместимости списков статусов")
	fs.Float64SliceVar(&g.RevokedRates, "rates", g.RevokedRates, "Доли отозванных записей")
	fs.IntVar(&g.Runs, "runs", g.Runs, "Прогонов на каждую комбинацию")
	fs.IntVar(&g.Bits, "bits", g.Bits, "Бит на статус (1, 2, 4, 8)")
	fs.IntVar(&g.Workers, "workers", 0, "Параллельных воркеров, 0 - по числу CPU")
	fs.Uint64Var(&g.Seed, "seed", 0, "Зерно генератора, 0 - случайное")
	fs.StringVar(&cfg.Output, "output", stats.DefaultFileName, "Файл для записи CSV, - для stdout")
	fs.BoolVar(&cfg.Persist, "persist", false, "Сохранить прогон в БД (требует --database-dsn)")
}

func addServeFlags(fs *pflag.FlagSet, cfg *config) {
	fs.StringVar(&cfg.Port, flagPort, defaultServerPort,
		fmt.Sprintf("Порт HTTP-сервера (env: %s)", envServerPort))
	fs.StringVar(&cfg.APIKey, flagAPIKey, "",
		fmt.Sprintf("API-ключ для загрузки статистики (env: %s)", envAPIKey))
}

func addPushFlags(fs *pflag.FlagSet, cfg *config) {
	addClientFlags(fs, cfg, defaultServerURL)
	fs.StringVar(&cfg.ChartsDir, "charts-dir", "", "Каталог для диаграмм, построенных сервером после загрузки")
}

func addClientFlags(fs *pflag.FlagSet, cfg *config, defaultURL string) {
	fs.StringVar(&cfg.ServerURL, flagServerURL, defaultURL,
		fmt.Sprintf("URL сервера статистики (env: %s)", envServerURL))
	fs.StringVar(&cfg.APIKey, flagAPIKey, "",
		fmt.Sprintf("API-ключ сервера (env: %s)", envAPIKey))
}

// applyEnv применяет переменные окружения к флагам, не заданным явно.
func applyEnv(fs *pflag.FlagSet) error {
	for name, env := range envBindings {
		f := fs.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("некорректное значение %s: %w", env, err)
		}
	}
	return nil
}
