package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DateLayout формат календарной даты
const DateLayout = "2006-01-02"

const minSubjectLength = 2

// nowFunc источник времени для аудиторских полей (подменяется в тестах)
var nowFunc = time.Now

type ScheduleStatus string

const (
	ScheduleStatusActive      ScheduleStatus = "active"      // Начальный статус
	ScheduleStatusCancelled   ScheduleStatus = "cancelled"   // Отменено, не участвует в проверке конфликтов
	ScheduleStatusRescheduled ScheduleStatus = "rescheduled" // Перенесено
	ScheduleStatusCompleted   ScheduleStatus = "completed"   // Завершено
)

// ParseScheduleStatus разбирает статус из строки
func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	switch status := ScheduleStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case ScheduleStatusActive, ScheduleStatusCancelled, ScheduleStatusRescheduled, ScheduleStatusCompleted:
		return status, nil
	default:
		return "", &InvalidScheduleError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
	}
}

// Date приводит момент времени к календарной дате (полночь UTC)
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату формата 2006-01-02
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// BookingWindow диапазон дат (включительно) и ежедневный слот, который занимает расписание.
// Предполагается, что слот повторяется каждый день диапазона
type BookingWindow struct {
	StartDate time.Time
	EndDate   time.Time
	Slot      TimeSlot
}

// NewBookingWindow создаёт окно, проверяя порядок дат
func NewBookingWindow(startDate, endDate time.Time, slot TimeSlot) (BookingWindow, error) {
	startDate, endDate = Date(startDate), Date(endDate)
	if startDate.After(endDate) {
		return BookingWindow{}, &InvalidScheduleError{
			Field:  "start_date",
			Reason: fmt.Sprintf("start date %s is after end date %s", startDate.Format(DateLayout), endDate.Format(DateLayout)),
		}
	}
	return BookingWindow{StartDate: startDate, EndDate: endDate, Slot: slot}, nil
}

// DatesOverlap пересекаются ли диапазоны дат (границы включаются)
func (w BookingWindow) DatesOverlap(other BookingWindow) bool {
	return !w.StartDate.After(other.EndDate) && !w.EndDate.Before(other.StartDate)
}

// Overlaps пересечение и по датам, и по времени суток
func (w BookingWindow) Overlaps(other BookingWindow) bool {
	return w.DatesOverlap(other) && w.Slot.OverlapsWith(other.Slot)
}

// Covers попадает ли день в диапазон дат окна
func (w BookingWindow) Covers(day time.Time) bool {
	day = Date(day)
	return !day.Before(w.StartDate) && !day.After(w.EndDate)
}

func (w BookingWindow) String() string {
	return fmt.Sprintf("%s..%s %s", w.StartDate.Format(DateLayout), w.EndDate.Format(DateLayout), w.Slot)
}

// Schedule бронирование инструктора, группы и аудитории на диапазон дат и ежедневный слот.
// Ссылки на группу, аудиторию и инструктора проверяются сервисом, а не сущностью
type Schedule struct {
	ID           uuid.UUID      `json:"id"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      time.Time      `json:"end_date"`
	TimeSlot     TimeSlot       `json:"-"`
	InstructorID uuid.UUID      `json:"instructor_id"`
	GroupID      uuid.UUID      `json:"group_id"`
	VenueID      uuid.UUID      `json:"venue_id"`
	Subject      string         `json:"subject"`
	Status       ScheduleStatus `json:"status"`
	Notes        string         `json:"notes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewScheduleParams данные для создания расписания
type NewScheduleParams struct {
	StartDate    time.Time
	EndDate      time.Time
	TimeSlot     TimeSlot
	InstructorID uuid.UUID
	GroupID      uuid.UUID
	VenueID      uuid.UUID
	Subject      string
	Notes        string
}

// NewSchedule создаёт активное расписание, проверяя все инварианты
func NewSchedule(p NewScheduleParams) (*Schedule, error) {
	window, err := NewBookingWindow(p.StartDate, p.EndDate, p.TimeSlot)
	if err != nil {
		return nil, err
	}
	if p.TimeSlot.Start() >= p.TimeSlot.End() {
		return nil, &InvalidTimeSlotError{Start: p.TimeSlot.Start(), End: p.TimeSlot.End()}
	}
	subject, err := cleanSubject(p.Subject)
	if err != nil {
		return nil, err
	}

	now := nowFunc().UTC()
	return &Schedule{
		ID:           uuid.New(),
		StartDate:    window.StartDate,
		EndDate:      window.EndDate,
		TimeSlot:     p.TimeSlot,
		InstructorID: p.InstructorID,
		GroupID:      p.GroupID,
		VenueID:      p.VenueID,
		Subject:      subject,
		Status:       ScheduleStatusActive,
		Notes:        strings.TrimSpace(p.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func cleanSubject(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if utf8.RuneCountInString(subject) < minSubjectLength {
		return "", &InvalidScheduleError{
			Field:  "subject",
			Reason: fmt.Sprintf("must contain at least %d characters", minSubjectLength),
		}
	}
	return subject, nil
}

// Window окно, которое занимает расписание
func (s *Schedule) Window() BookingWindow {
	return BookingWindow{StartDate: s.StartDate, EndDate: s.EndDate, Slot: s.TimeSlot}
}

// IsCancelled отменённые расписания хранятся для истории, но ничего не блокируют
func (s *Schedule) IsCancelled() bool {
	return s.Status == ScheduleStatusCancelled
}

// Blocks блокирует ли расписание указанное окно
func (s *Schedule) Blocks(window BookingWindow) bool {
	return !s.IsCancelled() && s.Window().Overlaps(window)
}

func (s *Schedule) touch() {
	s.UpdatedAt = nowFunc().UTC()
}

// UpdateDates меняет диапазон дат
func (s *Schedule) UpdateDates(start, end time.Time) error {
	window, err := NewBookingWindow(start, end, s.TimeSlot)
	if err != nil {
		return err
	}
	s.StartDate = window.StartDate
	s.EndDate = window.EndDate
	s.touch()
	return nil
}

// UpdateTimeSlot заменяет слот целиком (слот уже проверен своим конструктором)
func (s *Schedule) UpdateTimeSlot(slot TimeSlot) {
	s.TimeSlot = slot
	s.touch()
}

// UpdateVenue меняет ссылку на аудиторию. Проверка конфликтов - забота сервиса
func (s *Schedule) UpdateVenue(venueID uuid.UUID) {
	s.VenueID = venueID
	s.touch()
}

// UpdateInstructor меняет ссылку на инструктора. Проверка конфликтов - забота сервиса
func (s *Schedule) UpdateInstructor(instructorID uuid.UUID) {
	s.InstructorID = instructorID
	s.touch()
}

// UpdateSubject меняет название предмета
func (s *Schedule) UpdateSubject(subject string) error {
	cleaned, err := cleanSubject(subject)
	if err != nil {
		return err
	}
	s.Subject = cleaned
	s.touch()
	return nil
}

func (s *Schedule) UpdateNotes(notes string) {
	s.Notes = strings.TrimSpace(notes)
	s.touch()
}

// Команды смены статуса. Таблица переходов не проверяется: любой статус может перейти в любой

func (s *Schedule) Cancel()     { s.setStatus(ScheduleStatusCancelled) }
func (s *Schedule) Reschedule() { s.setStatus(ScheduleStatusRescheduled) }
func (s *Schedule) Complete()   { s.setStatus(ScheduleStatusCompleted) }
func (s *Schedule) Activate()   { s.setStatus(ScheduleStatusActive) }

// ApplyStatus вызывает команду, соответствующую статусу
func (s *Schedule) ApplyStatus(status ScheduleStatus) error {
	switch status {
	case ScheduleStatusActive:
		s.Activate()
	case ScheduleStatusCancelled:
		s.Cancel()
	case ScheduleStatusRescheduled:
		s.Reschedule()
	case ScheduleStatusCompleted:
		s.Complete()
	default:
		return &InvalidScheduleError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	return nil
}

func (s *Schedule) setStatus(status ScheduleStatus) {
	s.Status = status
	s.touch()
}

// Clone возвращает копию (хранилища отдают копии, чтобы изменения не утекали)
func (s *Schedule) Clone() *Schedule {
	c := *s
	return &c
}
