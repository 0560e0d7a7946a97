package models

import (
	"time"

	"github.com/google/uuid"
)

// Run представляет сохраненный прогон генератора статистики.
type Run struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Source    string    `db:"source" json:"source"`  // Откуда получены данные (generator, путь к CSV)
	Rows      int       `db:"row_count" json:"rows"` // Количество записей в прогоне
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
