package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/google/uuid"
)

// ScheduleRepository хранит расписания в памяти процесса. Наружу всегда отдаются копии
type ScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[uuid.UUID]*model.Schedule
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{
		schedules: make(map[uuid.UUID]*model.Schedule),
	}
}

// Create сохраняет новое расписание
func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schedules[schedule.ID]; exists {
		return fmt.Errorf("schedule %s already exists", schedule.ID)
	}
	r.schedules[schedule.ID] = schedule.Clone()
	return nil
}

// GetByID получает расписание по ID, nil если не найдено
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if schedule, ok := r.schedules[id]; ok {
		return schedule.Clone(), nil
	}
	return nil, nil
}

// Update сохраняет изменённое расписание целиком
func (r *ScheduleRepository) Update(ctx context.Context, schedule *model.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[schedule.ID]; !ok {
		return fmt.Errorf("schedule not found")
	}
	r.schedules[schedule.ID] = schedule.Clone()
	return nil
}

// Delete удаляет расписание
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[id]; !ok {
		return fmt.Errorf("schedule not found")
	}
	delete(r.schedules, id)
	return nil
}

// GetByDateRange расписания, пересекающиеся с диапазоном дат [from, to]
func (r *ScheduleRepository) GetByDateRange(ctx context.Context, from, to time.Time, page model.Page) ([]*model.Schedule, error) {
	from, to = model.Date(from), model.Date(to)
	return r.filter(page, func(s *model.Schedule) bool {
		return !s.StartDate.After(to) && !s.EndDate.Before(from)
	}), nil
}

func (r *ScheduleRepository) GetByInstructor(ctx context.Context, instructorID uuid.UUID, page model.Page) ([]*model.Schedule, error) {
	return r.filter(page, func(s *model.Schedule) bool { return s.InstructorID == instructorID }), nil
}

func (r *ScheduleRepository) GetByGroup(ctx context.Context, groupID uuid.UUID, page model.Page) ([]*model.Schedule, error) {
	return r.filter(page, func(s *model.Schedule) bool { return s.GroupID == groupID }), nil
}

func (r *ScheduleRepository) GetByVenue(ctx context.Context, venueID uuid.UUID, page model.Page) ([]*model.Schedule, error) {
	return r.filter(page, func(s *model.Schedule) bool { return s.VenueID == venueID }), nil
}

func (r *ScheduleRepository) GetActiveSchedules(ctx context.Context, page model.Page) ([]*model.Schedule, error) {
	return r.filter(page, func(s *model.Schedule) bool { return s.Status == model.ScheduleStatusActive }), nil
}

// CompleteEndedBefore переводит в completed активные расписания с end_date раньше day.
// Меняются только статус и updated_at, остальные поля не трогаются
func (r *ScheduleRepository) CompleteEndedBefore(ctx context.Context, day, at time.Time) ([]uuid.UUID, error) {
	day = model.Date(day)

	r.mu.Lock()
	defer r.mu.Unlock()

	completed := make([]uuid.UUID, 0)
	for id, s := range r.schedules {
		if s.Status != model.ScheduleStatusActive || !s.EndDate.Before(day) {
			continue
		}
		s.Status = model.ScheduleStatusCompleted
		s.UpdatedAt = at
		completed = append(completed, id)
	}
	return completed, nil
}

// CheckInstructorConflict есть ли неотменённое расписание инструктора, пересекающееся с окном
func (r *ScheduleRepository) CheckInstructorConflict(ctx context.Context, instructorID uuid.UUID, window model.BookingWindow, excludeID *uuid.UUID) (bool, error) {
	return r.conflicts(window, excludeID, func(s *model.Schedule) bool { return s.InstructorID == instructorID }), nil
}

// CheckVenueConflict есть ли неотменённое расписание аудитории, пересекающееся с окном
func (r *ScheduleRepository) CheckVenueConflict(ctx context.Context, venueID uuid.UUID, window model.BookingWindow, excludeID *uuid.UUID) (bool, error) {
	return r.conflicts(window, excludeID, func(s *model.Schedule) bool { return s.VenueID == venueID }), nil
}

func (r *ScheduleRepository) conflicts(window model.BookingWindow, excludeID *uuid.UUID, sameResource func(*model.Schedule) bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.schedules {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if sameResource(s) && s.Blocks(window) {
			return true
		}
	}
	return false
}

// filter выбирает расписания в порядке start_date, start_time и применяет пагинацию
func (r *ScheduleRepository) filter(page model.Page, match func(*model.Schedule) bool) []*model.Schedule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Schedule, 0)
	for _, s := range r.schedules {
		if match(s) {
			result = append(result, s.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if a.TimeSlot.Start() != b.TimeSlot.Start() {
			return a.TimeSlot.Start() < b.TimeSlot.Start()
		}
		return a.ID.String() < b.ID.String()
	})

	return paginate(result, page)
}

func paginate(items []*model.Schedule, page model.Page) []*model.Schedule {
	if page.Offset > 0 {
		if page.Offset >= len(items) {
			return []*model.Schedule{}
		}
		items = items[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
