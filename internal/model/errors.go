package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Категории ошибок. Каждая типизированная ошибка разворачивается (Unwrap) в свою категорию,
// поэтому вызывающий код может проверять errors.Is(err, model.ErrConflict)
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalidData = errors.New("invalid data")
)

// ScheduleNotFoundError расписание не найдено
type ScheduleNotFoundError struct {
	ScheduleID uuid.UUID
}

func (e *ScheduleNotFoundError) Error() string {
	return fmt.Sprintf("schedule %s not found", e.ScheduleID)
}

func (e *ScheduleNotFoundError) Unwrap() error { return ErrNotFound }

// AcademicGroupNotFoundError группа не найдена или неактивна
type AcademicGroupNotFoundError struct {
	GroupID uuid.UUID
}

func (e *AcademicGroupNotFoundError) Error() string {
	return fmt.Sprintf("academic group %s not found or inactive", e.GroupID)
}

func (e *AcademicGroupNotFoundError) Unwrap() error { return ErrNotFound }

// VenueNotFoundError аудитория не найдена или неактивна
type VenueNotFoundError struct {
	VenueID uuid.UUID
}

func (e *VenueNotFoundError) Error() string {
	return fmt.Sprintf("venue %s not found or inactive", e.VenueID)
}

func (e *VenueNotFoundError) Unwrap() error { return ErrNotFound }

// InstructorNotAvailableError у инструктора уже есть занятие в пересекающемся окне
type InstructorNotAvailableError struct {
	InstructorID uuid.UUID
	Window       BookingWindow
}

func (e *InstructorNotAvailableError) Error() string {
	return fmt.Sprintf("instructor %s is not available on %s", e.InstructorID, e.Window)
}

func (e *InstructorNotAvailableError) Unwrap() error { return ErrConflict }

// VenueNotAvailableError аудитория уже занята в пересекающемся окне
type VenueNotAvailableError struct {
	VenueID uuid.UUID
	Window  BookingWindow
}

func (e *VenueNotAvailableError) Error() string {
	return fmt.Sprintf("venue %s is not available on %s", e.VenueID, e.Window)
}

func (e *VenueNotAvailableError) Unwrap() error { return ErrConflict }

// InvalidTimeSlotError начало слота не раньше конца
type InvalidTimeSlotError struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (e *InvalidTimeSlotError) Error() string {
	return fmt.Sprintf("invalid time slot: start time %s must be before end time %s", e.Start, e.End)
}

func (e *InvalidTimeSlotError) Unwrap() error { return ErrInvalidData }

// InvalidScheduleError нарушен инвариант сущности Schedule
type InvalidScheduleError struct {
	Field  string
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule %s: %s", e.Field, e.Reason)
}

func (e *InvalidScheduleError) Unwrap() error { return ErrInvalidData }
