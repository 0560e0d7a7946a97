package stats

import (
	"cmp"
	"slices"

	"github.com/maynagashev/statuslist-stats/models"
)

type accumulator struct {
	count          int
	size           int64
	compressedSize int64
}

// Aggregate группирует записи по (capacity, revoked) и считает средние size и compressedSize.
// Результат отсортирован по capacity, затем по revoked. Для пустого ввода возвращается пустой срез.
func Aggregate(records []models.Record) []models.GroupStats {
	groups := make(map[models.GroupKey]*accumulator)
	for _, rec := range records {
		acc, ok := groups[rec.Key()]
		if !ok {
			acc = &accumulator{}
			groups[rec.Key()] = acc
		}
		acc.count++
		acc.size += rec.Size
		acc.compressedSize += rec.CompressedSize
	}

	result := make([]models.GroupStats, 0, len(groups))
	for key, acc := range groups {
		result = append(result, models.GroupStats{
			GroupKey:           key,
			Count:              acc.count,
			MeanSize:           float64(acc.size) / float64(acc.count),
			MeanCompressedSize: float64(acc.compressedSize) / float64(acc.count),
		})
	}

	slices.SortFunc(result, func(a, b models.GroupStats) int {
		if c := cmp.Compare(a.Capacity, b.Capacity); c != 0 {
			return c
		}
		return cmp.Compare(a.Revoked, b.Revoked)
	})
	return result
}

// Values возвращает средние значения метрики в порядке групп.
func Values(groups []models.GroupStats, metric models.Metric) []float64 {
	values := make([]float64, len(groups))
	for i, g := range groups {
		values[i] = g.Value(metric)
	}
	return values
}
