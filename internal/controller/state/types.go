package state

import "time"

// UserState текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Ожидаем файл CSV/XLSX после /import
	StateAwaitingImportFile UserState = "awaiting_import_file"
)

// DefaultTTL через сколько брошенный диалог считается завершённым
const DefaultTTL = 15 * time.Minute

// UserData хранит состояние пользователя и время последнего изменения
type UserData struct {
	State     UserState
	UpdatedAt time.Time
}
