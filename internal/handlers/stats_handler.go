// Package handlers реализует HTTP-интерфейс просмотра статистики.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maynagashev/statuslist-stats/internal/chart"
	"github.com/maynagashev/statuslist-stats/internal/services"
	"github.com/maynagashev/statuslist-stats/internal/stats"
	"github.com/maynagashev/statuslist-stats/models"
)

// MaxUploadBytes ограничивает размер загружаемого CSV.
const MaxUploadBytes = 64 << 20

// UploadSource записывается в поле source сохраненного прогона.
const UploadSource = "upload"

// HeaderRows содержит число записей текущего набора.
const HeaderRows = "X-Stats-Rows"

// StatsHandler обрабатывает HTTP-запросы к текущему набору статистики.
type StatsHandler struct {
	dataset *services.Dataset
	service services.AnalysisService // Может быть nil, тогда загрузки не сохраняются в БД
	logger  *zap.Logger
}

// NewStatsHandler создает новый экземпляр StatsHandler.
func NewStatsHandler(dataset *services.Dataset, svc services.AnalysisService, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{
		dataset: dataset,
		service: svc,
		logger:  logger.With(zap.String("component", "stats_handler")),
	}
}

// GetAggregates отдает агрегаты текущего набора в JSON.
func (h *StatsHandler) GetAggregates(w http.ResponseWriter, _ *http.Request) {
	rows, updatedAt := h.dataset.Rows()
	w.Header().Set(HeaderRows, strconv.Itoa(rows))
	w.Header().Set("Last-Modified", updatedAt.UTC().Format(http.TimeFormat))

	groups := h.dataset.Groups()
	if groups == nil {
		groups = []models.GroupStats{}
	}
	writeJSON(w, h.logger, http.StatusOK, groups)
}

// GetChart отдает PNG-диаграмму метрики.
func (h *StatsHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	metric, err := models.ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		http.Error(w, "Метрика не найдена", http.StatusNotFound)
		return
	}

	data, err := h.dataset.ChartPNG(metric)
	if err != nil {
		if errors.Is(err, chart.ErrNoData) {
			http.Error(w, "Нет данных для построения диаграммы", http.StatusNotFound)
			return
		}
		h.logger.Error("Ошибка отрисовки диаграммы", zap.String("metric", string(metric)), zap.Error(err))
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(data); err != nil {
		h.logger.Debug("Ошибка отправки диаграммы", zap.Error(err))
	}
}

// Upload заменяет текущий набор записями из CSV в теле запроса.
func (h *StatsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	records, err := stats.ReadCSV(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Слишком большой файл", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Info("Некорректный CSV в запросе", zap.Error(err))
		http.Error(w, "Некорректный CSV: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := models.UploadResult{Rows: len(records)}
	if h.service != nil {
		run, persistErr := h.service.Persist(r.Context(), UploadSource, records)
		switch {
		case persistErr == nil:
			id := run.ID
			result.RunID = &id
		case errors.Is(persistErr, services.ErrRepositoryNotConfigured):
		default:
			h.logger.Error("Ошибка сохранения прогона", zap.Error(persistErr))
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}
	}

	h.dataset.Replace(records)
	result.Groups = len(h.dataset.Groups())

	h.logger.Info("Набор статистики заменен",
		zap.Int("rows", result.Rows),
		zap.Int("groups", result.Groups),
		zap.Stringer("run_id", optionalID(result.RunID)),
	)
	writeJSON(w, h.logger, http.StatusOK, result)
}

func optionalID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Ошибка кодирования ответа", zap.Error(err))
	}
}
