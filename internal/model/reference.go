package model

import "github.com/google/uuid"

// AcademicGroup учебная группа. Жизненным циклом групп управляет внешний сервис,
// ядру нужно только знать, существует ли группа и активна ли она
type AcademicGroup struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

// Venue аудитория (внешний справочник)
type Venue struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
	IsActive bool      `json:"is_active"`
}

// Page параметры пагинации. Limit = 0 означает без ограничения
type Page struct {
	Limit  int
	Offset int
}
