package stats_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/statuslist-stats/internal/stats"
	"github.com/maynagashev/statuslist-stats/models"
)

func TestLoadCSV(t *testing.T) {
	t.Run("Файл с колонкой index", func(t *testing.T) {
		records, err := stats.LoadCSV(filepath.Join("testdata", "stats.csv"))
		require.NoError(t, err)
		require.Len(t, records, 7)
		assert.Equal(t, models.Record{Index: 3, Capacity: 10, Revoked: 3, Size: 200, CompressedSize: 90}, records[3])
	})

	t.Run("Файл без колонки index", func(t *testing.T) {
		records, err := stats.LoadCSV(filepath.Join("testdata", "short.csv"))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 1, records[1].Index)
		assert.InDelta(t, 0.015, records[1].Revoked, 1e-12)
	})

	t.Run("Пустой файл", func(t *testing.T) {
		records, err := stats.LoadCSV(filepath.Join("testdata", "empty.csv"))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Файл не найден", func(t *testing.T) {
		_, err := stats.LoadCSV(filepath.Join("testdata", "missing.csv"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ошибка открытия файла статистики")
	})
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr error
	}{
		{name: "Только заголовок", input: "capacity,revoked,size,compressedSize\n", wantLen: 0},
		{name: "Колонки в другом порядке", input: "size,compressedSize,revoked,capacity\n10,5,2,10\n", wantLen: 1},
		{name: "Нет обязательной колонки", input: "capacity,revoked,size\n10,2,100\n", wantErr: stats.ErrMissingColumn},
		{name: "Нечисловое значение", input: "capacity,revoked,size,compressedSize\nten,2,100,40\n", wantErr: stats.ErrMalformedRow},
		{name: "Неверное число полей", input: "capacity,revoked,size,compressedSize\n10,2,100\n", wantErr: stats.ErrMalformedRow},
		{name: "NaN в revoked", input: "capacity,revoked,size,compressedSize\n10,NaN,100,40\n", wantErr: stats.ErrMalformedRow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := stats.ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.wantLen)
		})
	}
}

func TestReadCSVReportsLine(t *testing.T) {
	input := "capacity,revoked,size,compressedSize\n10,2,100,40\n10,2,oops,40\n"
	_, err := stats.ReadCSV(strings.NewReader(input))
	require.ErrorIs(t, err, stats.ErrMalformedRow)
	assert.Contains(t, err.Error(), "строка 3")
}

func TestWriteCSVRoundTrip(t *testing.T) {
	records := []models.Record{
		{Index: 0, Capacity: 10000, Revoked: 0.01, Size: 2000, CompressedSize: 900},
		{Index: 1, Capacity: 10000, Revoked: 0.015, Size: 2100, CompressedSize: 950},
	}
	var buf bytes.Buffer
	require.NoError(t, stats.WriteCSV(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), "index,capacity,revoked,size,compressedSize\n"))

	got, err := stats.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}
