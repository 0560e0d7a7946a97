// Package storage публикует диаграммы и CSV в объектное хранилище и читает их оттуда.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// FileStorage определяет интерфейс для взаимодействия с объектным хранилищем.
type FileStorage interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// MinioClient реализует FileStorage для MinIO.
type MinioClient struct {
	client     *minio.Client
	bucketName string
	logger     *zap.Logger
}

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string // Логин
	SecretAccessKey string // Пароль
	UseSSL          bool   // Использовать SSL (обычно false для локальной разработки)
	BucketName      string // Имя бакета для диаграмм и CSV
	Region          string // Регион (не обязательно для MinIO)
}

// Validate проверяет обязательные параметры.
func (c MinioConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: не указан endpoint", ErrInvalidConfig)
	}
	if c.BucketName == "" {
		return fmt.Errorf("%w: не указан бакет", ErrInvalidConfig)
	}
	return nil
}

// NewMinioClient создает новый клиент MinIO и создает бакет при необходимости.
func NewMinioClient(ctx context.Context, cfg MinioConfig, logger *zap.Logger) (*MinioClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "minio"), zap.String("bucket", cfg.BucketName))
	logger.Info("Инициализация клиента MinIO", zap.String("endpoint", cfg.Endpoint))

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		logger.Info("Бакет не найден, попытка создания...")
		if err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
		logger.Info("Бакет успешно создан")
	}

	return &MinioClient{
		client:     minioClient,
		bucketName: cfg.BucketName,
		logger:     logger,
	}, nil
}

// UploadFile загружает файл в MinIO.
func (c *MinioClient) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	uploadInfo, err := c.client.PutObject(ctx, c.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("ошибка загрузки файла '%s' в MinIO: %w", objectKey, err)
	}

	c.logger.Info("Файл загружен",
		zap.String("key", objectKey), zap.Int64("size", uploadInfo.Size), zap.String("etag", uploadInfo.ETag))
	return nil
}

// DownloadFile скачивает файл из MinIO.
// Возвращает io.ReadCloser, который нужно закрыть после использования.
func (c *MinioClient) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	object, err := c.client.GetObject(ctx, c.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения файла '%s' из MinIO: %w", objectKey, err)
	}

	// GetObject ленивый: отсутствие объекта обнаруживается только при Stat или чтении
	if _, err = object.Stat(); err != nil {
		_ = object.Close()
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && minioErr.Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("ошибка получения метаданных '%s' из MinIO: %w", objectKey, err)
	}

	c.logger.Debug("Файл получен для скачивания", zap.String("key", objectKey))
	return object, nil
}

// Кастомные ошибки хранилища.
var (
	ErrObjectNotFound = errors.New("объект не найден в хранилище")
	ErrInvalidConfig  = errors.New("некорректная конфигурация хранилища")
)
