package models

import "strconv"

// Record представляет одну строку статистики тестового прогона списка статусов.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
type Record struct {
	Index          int     `db:"idx" json:"index"`                      // Порядковый номер строки в прогоне
	Capacity       int     `db:"capacity" json:"capacity"`              // Вместимость списка статусов
	Revoked        float64 `db:"revoked" json:"revoked"`                // Число (или доля) отозванных записей
	Size           int64   `db:"size" json:"size"`                      // Размер сериализованного токена в байтах
	CompressedSize int64   `db:"compressed_size" json:"compressedSize"` // Размер после сжатия DEFLATE
}

// Key возвращает ключ группировки записи.
func (r Record) Key() GroupKey {
	return GroupKey{Capacity: r.Capacity, Revoked: r.Revoked}
}

// GroupKey идентифицирует группу записей с одинаковыми (capacity, revoked).
type GroupKey struct {
	Capacity int     `json:"capacity"`
	Revoked  float64 `json:"revoked"`
}

// Label возвращает подпись группы вида "10000/0.01".
func (k GroupKey) Label() string {
	return strconv.Itoa(k.Capacity) + "/" + FormatRevoked(k.Revoked)
}

// FormatRevoked форматирует значение revoked без лишних нулей (2 -> "2", 0.015 -> "0.015").
func FormatRevoked(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GroupStats содержит агрегаты по одной группе.
type GroupStats struct {
	GroupKey
	Count              int     `json:"count"`              // Количество строк в группе
	MeanSize           float64 `json:"meanSize"`           // Среднее значение size
	MeanCompressedSize float64 `json:"meanCompressedSize"` // Среднее значение compressedSize
}
