// Package chart строит столбчатые диаграммы средних размеров по группам:
// растровые (PNG) и текстовые для терминала.
package chart

import (
	"errors"

	"github.com/maynagashev/statuslist-stats/internal/stats"
	"github.com/maynagashev/statuslist-stats/models"
)

// Размеры холста PNG в пикселях.
const (
	CanvasWidth  = 1200
	CanvasHeight = 600
)

// Подписи осей одинаковы для обеих диаграмм.
const (
	XAxisLabel = "capacity / revoked"
	YAxisLabel = "bytes"
)

// Spec задает неизменяемые параметры диаграммы.
type Spec struct {
	Metric models.Metric
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
}

// Bar - один столбец диаграммы.
type Bar struct {
	Label string
	Value float64
}

// ForMetric возвращает параметры диаграммы для метрики.
func ForMetric(metric models.Metric) Spec {
	title := "Average status list token size"
	if metric == models.MetricCompressedSize {
		title = "Average compressed status list token size"
	}
	return Spec{
		Metric: metric,
		Title:  title,
		XLabel: XAxisLabel,
		YLabel: YAxisLabel,
		Width:  CanvasWidth,
		Height: CanvasHeight,
	}
}

// FileName возвращает имя PNG-файла диаграммы.
func (s Spec) FileName() string {
	if s.Metric == models.MetricCompressedSize {
		return "compressed_size_chart.png"
	}
	return "size_chart.png"
}

// BarsFor строит столбцы по группам в их порядке.
func BarsFor(groups []models.GroupStats, metric models.Metric) []Bar {
	values := stats.Values(groups, metric)
	bars := make([]Bar, len(groups))
	for i, g := range groups {
		bars[i] = Bar{Label: g.Label(), Value: values[i]}
	}
	return bars
}

func maxValue(bars []Bar) float64 {
	var result float64
	for _, b := range bars {
		result = max(result, b.Value)
	}
	return result
}

// ErrNoData возвращается при попытке построить диаграмму без данных.
var ErrNoData = errors.New("нет данных для диаграммы")
