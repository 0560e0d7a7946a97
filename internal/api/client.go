// Package api содержит HTTP-клиент сервера статистики.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maynagashev/statuslist-stats/models"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client определяет интерфейс для взаимодействия с сервером статистики.
type Client interface {
	// GetAggregates получает агрегаты текущего набора.
	GetAggregates(ctx context.Context) ([]models.GroupStats, error)
	// GetChart скачивает PNG-диаграмму метрики.
	GetChart(ctx context.Context, metric models.Metric) ([]byte, error)
	// UploadStats загружает CSV и заменяет текущий набор на сервере.
	UploadStats(ctx context.Context, data io.Reader) (*models.UploadResult, error)
	// SetAPIKey устанавливает ключ для защищенных запросов.
	SetAPIKey(key string)
}

// httpClient реализует интерфейс Client по HTTP.
type httpClient struct {
	baseURL    string       // Базовый URL сервера, например "http://localhost:8080"
	httpClient *http.Client // HTTP клиент для выполнения запросов
	apiKey     string
}

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetAPIKey устанавливает ключ для защищенных запросов.
func (c *httpClient) SetAPIKey(key string) {
	c.apiKey = key
}

// GetAggregates получает агрегаты текущего набора.
func (c *httpClient) GetAggregates(ctx context.Context) ([]models.GroupStats, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/aggregates", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err = checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var groups []models.GroupStats
	if err = json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, fmt.Errorf("ошибка декодирования агрегатов: %w", err)
	}
	return groups, nil
}

// GetChart скачивает PNG-диаграмму метрики.
func (c *httpClient) GetChart(ctx context.Context, metric models.Metric) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/charts/"+url.PathEscape(string(metric))+".png", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err = checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения диаграммы: %w", err)
	}
	return data, nil
}

// UploadStats загружает CSV и заменяет текущий набор на сервере.
func (c *httpClient) UploadStats(ctx context.Context, data io.Reader) (*models.UploadResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/stats", data, "text/csv")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err = checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var result models.UploadResult
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ошибка декодирования ответа на загрузку: %w", err)
	}
	return &result, nil
}

func (c *httpClient) do(
	ctx context.Context,
	method, path string,
	body io.Reader,
	contentType string,
) (*http.Response, error) {
	target, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования URL %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса %s %s: %w", method, path, err)
	}
	return resp, nil
}

// checkStatus превращает неожиданный статус в ошибку с текстом ответа сервера.
func checkStatus(resp *http.Response, expected int) error {
	if resp.StatusCode == expected {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(msg))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthorization, text)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, text)
	default:
		return fmt.Errorf("ошибка сервера: статус %d: %s", resp.StatusCode, text)
	}
}

// Кастомные ошибки клиента.
var (
	// ErrAuthorization сигнализирует об ошибке авторизации (401/403).
	ErrAuthorization = errors.New("ошибка авторизации")
	// ErrBadRequest возвращается, если сервер отклонил данные.
	ErrBadRequest = errors.New("сервер отклонил запрос")
	// ErrNotFound возвращается, если ресурс отсутствует.
	ErrNotFound = errors.New("не найдено")
)
