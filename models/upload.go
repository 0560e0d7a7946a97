package models

import "github.com/google/uuid"

// UploadResult описывает результат загрузки CSV на сервер.
type UploadResult struct {
	Rows   int        `json:"rows"`
	Groups int        `json:"groups"`
	RunID  *uuid.UUID `json:"run_id,omitempty"` // Заполняется, если прогон сохранен в БД
}
