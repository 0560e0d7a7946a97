package report_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/statuslist-stats/internal/report"
	"github.com/maynagashev/statuslist-stats/models"
)

func TestWriteAll(t *testing.T) {
	groups := []models.GroupStats{
		{GroupKey: models.GroupKey{Capacity: 10, Revoked: 2}, Count: 3, MeanSize: 110, MeanCompressedSize: 44},
		{GroupKey: models.GroupKey{Capacity: 20, Revoked: 2}, Count: 2, MeanSize: 305, MeanCompressedSize: 120.5},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteAll(&buf, groups))
	out := buf.String()

	sizeAt := strings.Index(out, "mean size by")
	compressedAt := strings.Index(out, "mean compressedSize by")
	require.GreaterOrEqual(t, sizeAt, 0)
	require.Greater(t, compressedAt, sizeAt, "таблица size печатается первой")

	assert.Contains(t, out[:compressedAt], "110.00")
	assert.Contains(t, out[:compressedAt], "305.00")
	assert.Contains(t, out[compressedAt:], "44.00")
	assert.Contains(t, out[compressedAt:], "120.50")
}

func TestRenderEmpty(t *testing.T) {
	out := report.Render(models.MetricSize, nil)
	assert.Contains(t, out, "capacity")
	assert.Contains(t, out, "mean size")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("закрыт") }

func TestWriteTableError(t *testing.T) {
	err := report.WriteTable(failingWriter{}, models.MetricSize, nil)
	require.Error(t, err)
}
