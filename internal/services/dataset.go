package services

import (
	"bytes"
	"sync"
	"time"

	"github.com/maynagashev/statuslist-stats/internal/chart"
	"github.com/maynagashev/statuslist-stats/internal/stats"
	"github.com/maynagashev/statuslist-stats/models"
)

// Dataset хранит текущий набор записей для HTTP-сервера.
// Агрегаты пересчитываются при замене набора, PNG кэшируются до следующей замены.
type Dataset struct {
	mu        sync.RWMutex
	groups    []models.GroupStats
	rows      int
	updatedAt time.Time
	charts    map[models.Metric][]byte
}

// NewDataset создает набор из записей.
func NewDataset(records []models.Record) *Dataset {
	d := &Dataset{}
	d.Replace(records)
	return d
}

// Replace заменяет записи набора.
func (d *Dataset) Replace(records []models.Record) {
	groups := stats.Aggregate(records)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.groups = groups
	d.rows = len(records)
	d.updatedAt = time.Now()
	d.charts = make(map[models.Metric][]byte, len(models.Metrics()))
}

// Groups возвращает копию агрегатов.
func (d *Dataset) Groups() []models.GroupStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.GroupStats(nil), d.groups...)
}

// Rows возвращает количество записей и время последней замены.
func (d *Dataset) Rows() (int, time.Time) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rows, d.updatedAt
}

// ChartPNG возвращает PNG-диаграмму метрики. Для пустого набора возвращается chart.ErrNoData.
func (d *Dataset) ChartPNG(metric models.Metric) ([]byte, error) {
	d.mu.RLock()
	cached, ok := d.charts[metric]
	groups := d.groups
	d.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, chart.ForMetric(metric), chart.BarsFor(groups, metric)); err != nil {
		return nil, err
	}

	d.mu.Lock()
	// Набор мог быть заменен во время отрисовки, тогда кэш не трогаем
	if sameGroups(d.groups, groups) {
		d.charts[metric] = buf.Bytes()
	}
	d.mu.Unlock()
	return buf.Bytes(), nil
}

func sameGroups(a, b []models.GroupStats) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}
