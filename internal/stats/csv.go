// Package stats загружает статистику тестовых прогонов списков статусов из CSV
// и вычисляет средние размеры по группам (capacity, revoked).
package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/maynagashev/statuslist-stats/models"
)

// Имена колонок CSV.
const (
	ColumnIndex          = "index"
	ColumnCapacity       = "capacity"
	ColumnRevoked        = "revoked"
	ColumnSize           = "size"
	ColumnCompressedSize = "compressedSize"
)

// DefaultFileName - имя входного файла по умолчанию.
const DefaultFileName = "stats.csv"

// requiredColumns - колонки, без которых файл считается некорректным.
var requiredColumns = []string{ColumnCapacity, ColumnRevoked, ColumnSize, ColumnCompressedSize}

// LoadCSV читает все записи из CSV-файла по указанному пути.
func LoadCSV(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла статистики: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	return records, nil
}

// ReadCSV читает записи из CSV с заголовком.
// Пустой ввод (без заголовка) и файл только с заголовком дают пустой срез без ошибки.
func ReadCSV(r io.Reader) ([]models.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: заголовок: %w", ErrMalformedRow, err)
	}

	columns, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, 0)
	for {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRow, readErr)
		}

		line, _ := reader.FieldPos(0)
		rec, parseErr := parseRow(row, columns, len(records))
		if parseErr != nil {
			return nil, fmt.Errorf("%w: строка %d: %w", ErrMalformedRow, line, parseErr)
		}
		records = append(records, rec)
	}

	return records, nil
}

// indexColumns строит отображение имени колонки в ее позицию.
func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		columns[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return columns, nil
}

func parseRow(row []string, columns map[string]int, ordinal int) (models.Record, error) {
	field := func(name string) string {
		return strings.TrimSpace(row[columns[name]])
	}

	rec := models.Record{Index: ordinal}
	var err error

	if pos, ok := columns[ColumnIndex]; ok && strings.TrimSpace(row[pos]) != "" {
		if rec.Index, err = strconv.Atoi(strings.TrimSpace(row[pos])); err != nil {
			return rec, fmt.Errorf("колонка %s: %w", ColumnIndex, err)
		}
	}
	if rec.Capacity, err = strconv.Atoi(field(ColumnCapacity)); err != nil {
		return rec, fmt.Errorf("колонка %s: %w", ColumnCapacity, err)
	}
	if rec.Revoked, err = strconv.ParseFloat(field(ColumnRevoked), 64); err != nil {
		return rec, fmt.Errorf("колонка %s: %w", ColumnRevoked, err)
	}
	if math.IsNaN(rec.Revoked) || math.IsInf(rec.Revoked, 0) {
		return rec, fmt.Errorf("колонка %s: недопустимое значение %q", ColumnRevoked, field(ColumnRevoked))
	}
	if rec.Size, err = strconv.ParseInt(field(ColumnSize), 10, 64); err != nil {
		return rec, fmt.Errorf("колонка %s: %w", ColumnSize, err)
	}
	if rec.CompressedSize, err = strconv.ParseInt(field(ColumnCompressedSize), 10, 64); err != nil {
		return rec, fmt.Errorf("колонка %s: %w", ColumnCompressedSize, err)
	}

	return rec, nil
}

// WriteCSV записывает записи в формате, который читает ReadCSV.
func WriteCSV(w io.Writer, records []models.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{
		ColumnIndex, ColumnCapacity, ColumnRevoked, ColumnSize, ColumnCompressedSize,
	}); err != nil {
		return fmt.Errorf("ошибка записи заголовка CSV: %w", err)
	}
	for _, rec := range records {
		if err := writer.Write(FormatRecord(rec)); err != nil {
			return fmt.Errorf("ошибка записи строки CSV: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// FormatRecord возвращает поля записи в порядке колонок WriteCSV.
func FormatRecord(rec models.Record) []string {
	return []string{
		strconv.Itoa(rec.Index),
		strconv.Itoa(rec.Capacity),
		models.FormatRevoked(rec.Revoked),
		strconv.FormatInt(rec.Size, 10),
		strconv.FormatInt(rec.CompressedSize, 10),
	}
}

// Кастомные ошибки загрузки.
var (
	ErrMissingColumn = errors.New("в CSV отсутствует обязательная колонка")
	ErrMalformedRow  = errors.New("некорректная строка CSV")
)
