package stats_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/statuslist-stats/internal/stats"
	"github.com/maynagashev/statuslist-stats/models"
)

func findGroup(groups []models.GroupStats, key models.GroupKey) (models.GroupStats, bool) {
	for _, g := range groups {
		if g.GroupKey == key {
			return g, true
		}
	}
	return models.GroupStats{}, false
}

func TestAggregate(t *testing.T) {
	records, err := stats.LoadCSV(filepath.Join("testdata", "stats.csv"))
	require.NoError(t, err)

	groups := stats.Aggregate(records)
	require.Len(t, groups, 3)

	t.Run("Среднее по группе (10, 2)", func(t *testing.T) {
		g, ok := findGroup(groups, models.GroupKey{Capacity: 10, Revoked: 2})
		require.True(t, ok)
		assert.Equal(t, 3, g.Count)
		assert.InDelta(t, 110.0, g.MeanSize, 1e-9)
		assert.InDelta(t, 44.0, g.MeanCompressedSize, 1e-9)
	})

	t.Run("Среднее совпадает с ручным подсчетом для каждой группы", func(t *testing.T) {
		for _, g := range groups {
			var sum, sumCompressed float64
			var n int
			for _, rec := range records {
				if rec.Capacity == g.Capacity && rec.Revoked == g.Revoked {
					sum += float64(rec.Size)
					sumCompressed += float64(rec.CompressedSize)
					n++
				}
			}
			require.Positive(t, n)
			assert.InDelta(t, sum/float64(n), g.MeanSize, 1e-9, g.Label())
			assert.InDelta(t, sumCompressed/float64(n), g.MeanCompressedSize, 1e-9, g.Label())
		}
	})

	t.Run("Группы покрывают все строки без дублей", func(t *testing.T) {
		total := 0
		seen := make(map[models.GroupKey]bool)
		for _, g := range groups {
			assert.False(t, seen[g.GroupKey], "группа %s повторяется", g.Label())
			seen[g.GroupKey] = true
			total += g.Count
		}
		assert.Equal(t, len(records), total)
	})

	t.Run("Порядок по capacity, затем по revoked", func(t *testing.T) {
		labels := make([]string, 0, len(groups))
		for _, g := range groups {
			labels = append(labels, g.Label())
		}
		assert.Equal(t, []string{"10/2", "10/3", "20/2"}, labels)
	})
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, stats.Aggregate(nil))
	assert.Empty(t, stats.Aggregate([]models.Record{}))
}

func TestValues(t *testing.T) {
	groups := []models.GroupStats{
		{MeanSize: 1, MeanCompressedSize: 2},
		{MeanSize: 3, MeanCompressedSize: 4},
	}
	assert.Equal(t, []float64{1, 3}, stats.Values(groups, models.MetricSize))
	assert.Equal(t, []float64{2, 4}, stats.Values(groups, models.MetricCompressedSize))
}
