package service

import (
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/google/uuid"
)

// CreateScheduleRequest данные для создания расписания
type CreateScheduleRequest struct {
	StartDate    time.Time
	EndDate      time.Time
	StartTime    model.TimeOfDay
	EndTime      model.TimeOfDay
	InstructorID uuid.UUID
	GroupID      uuid.UUID
	VenueID      uuid.UUID
	Subject      string
	Notes        string
}

// UpdateScheduleRequest частичное обновление: nil означает "не менять"
type UpdateScheduleRequest struct {
	StartDate    *time.Time
	EndDate      *time.Time
	StartTime    *model.TimeOfDay
	EndTime      *model.TimeOfDay
	InstructorID *uuid.UUID
	VenueID      *uuid.UUID
	Subject      *string
	Notes        *string
	Status       *model.ScheduleStatus
}

// changesWindow затрагивает ли запрос даты или время
func (r UpdateScheduleRequest) changesWindow() bool {
	return r.StartDate != nil || r.EndDate != nil || r.StartTime != nil || r.EndTime != nil
}

// ScheduleResponse представление сохранённого расписания
type ScheduleResponse struct {
	ID              uuid.UUID            `json:"id"`
	StartDate       string               `json:"start_date"`
	EndDate         string               `json:"end_date"`
	StartTime       string               `json:"start_time"`
	EndTime         string               `json:"end_time"`
	DurationMinutes int                  `json:"duration_minutes"`
	InstructorID    uuid.UUID            `json:"instructor_id"`
	GroupID         uuid.UUID            `json:"group_id"`
	VenueID         uuid.UUID            `json:"venue_id"`
	Subject         string               `json:"subject"`
	Status          model.ScheduleStatus `json:"status"`
	Notes           string               `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// NewScheduleResponse строит ответ из сущности
func NewScheduleResponse(s *model.Schedule) *ScheduleResponse {
	return &ScheduleResponse{
		ID:              s.ID,
		StartDate:       s.StartDate.Format(model.DateLayout),
		EndDate:         s.EndDate.Format(model.DateLayout),
		StartTime:       s.TimeSlot.Start().String(),
		EndTime:         s.TimeSlot.End().String(),
		DurationMinutes: s.TimeSlot.DurationMinutes(),
		InstructorID:    s.InstructorID,
		GroupID:         s.GroupID,
		VenueID:         s.VenueID,
		Subject:         s.Subject,
		Status:          s.Status,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func newScheduleResponses(schedules []*model.Schedule) []*ScheduleResponse {
	responses := make([]*ScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		responses = append(responses, NewScheduleResponse(s))
	}
	return responses
}

// BulkUploadResult итог пакетной загрузки
type BulkUploadResult struct {
	TotalProcessed int      `json:"total_processed"`
	Successful     int      `json:"successful"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors"`
}
