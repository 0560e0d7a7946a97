package models

import (
	"errors"
	"fmt"
)

// Metric определяет агрегируемую колонку.
type Metric string

const (
	MetricSize           Metric = "size"           // Несжатый размер
	MetricCompressedSize Metric = "compressedSize" // Сжатый размер
)

// Metrics перечисляет метрики в порядке вывода.
func Metrics() []Metric {
	return []Metric{MetricSize, MetricCompressedSize}
}

// ParseMetric разбирает имя метрики из строки (например, из URL).
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricSize, MetricCompressedSize:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Value возвращает среднее значение метрики для группы.
func (g GroupStats) Value(m Metric) float64 {
	if m == MetricCompressedSize {
		return g.MeanCompressedSize
	}
	return g.MeanSize
}

// ErrUnknownMetric возвращается для неизвестного имени метрики.
var ErrUnknownMetric = errors.New("неизвестная метрика")
