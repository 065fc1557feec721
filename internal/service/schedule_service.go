package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Сколько раз Update перезахватывает блокировки, если ресурсы расписания меняются параллельно
const maxUpdateAttempts = 3

var errResourcesMoved = errors.New("schedule resources changed concurrently")

type ScheduleService struct {
	scheduleRepo ScheduleRepository
	groupRepo    GroupRepository
	venueRepo    VenueRepository
	locker       Locker
	now          func() time.Time
	logger       *zap.Logger
}

func NewScheduleService(
	scheduleRepo ScheduleRepository,
	groupRepo GroupRepository,
	venueRepo VenueRepository,
	locker Locker,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		groupRepo:    groupRepo,
		venueRepo:    venueRepo,
		locker:       locker,
		now:          time.Now,
		logger:       logger,
	}
}

// Create создаёт расписание. Проверки идут строго по порядку, первая неудачная прерывает создание:
// группа, аудитория, слот, занятость инструктора, занятость аудитории, инварианты сущности
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*ScheduleResponse, error) {
	var created *model.Schedule

	keys := lockKeys(
		[]uuid.UUID{req.InstructorID},
		[]uuid.UUID{req.VenueID},
	)
	err := s.locker.WithBookingLock(ctx, keys, func(ctx context.Context) error {
		schedule, err := s.create(ctx, req)
		if err != nil {
			return err
		}
		created = schedule
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Schedule created",
		zap.String("schedule_id", created.ID.String()),
		zap.String("instructor_id", created.InstructorID.String()),
		zap.String("venue_id", created.VenueID.String()),
		zap.String("window", created.Window().String()),
	)

	return NewScheduleResponse(created), nil
}

func (s *ScheduleService) create(ctx context.Context, req CreateScheduleRequest) (*model.Schedule, error) {
	if err := s.requireGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}

	if err := s.requireVenue(ctx, req.VenueID); err != nil {
		return nil, err
	}

	slot, err := model.NewTimeSlot(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	window := model.BookingWindow{
		StartDate: model.Date(req.StartDate),
		EndDate:   model.Date(req.EndDate),
		Slot:      slot,
	}

	if err := s.ensureInstructorAvailable(ctx, req.InstructorID, window, nil); err != nil {
		return nil, err
	}

	if err := s.ensureVenueAvailable(ctx, req.VenueID, window, nil); err != nil {
		return nil, err
	}

	schedule, err := model.NewSchedule(model.NewScheduleParams{
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		TimeSlot:     slot,
		InstructorID: req.InstructorID,
		GroupID:      req.GroupID,
		VenueID:      req.VenueID,
		Subject:      req.Subject,
		Notes:        req.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	return schedule, nil
}

// Update применяет только переданные поля. Конфликты перепроверяются, только если меняется
// инструктор, аудитория, даты или время, и всегда по итоговому окну
func (s *ScheduleService) Update(ctx context.Context, id uuid.UUID, req UpdateScheduleRequest) (*ScheduleResponse, error) {
	existing, err := s.getSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *model.Schedule
	for attempt := 1; ; attempt++ {
		updated, err = s.updateLocked(ctx, existing, req)
		if !errors.Is(err, errResourcesMoved) {
			break
		}
		if attempt == maxUpdateAttempts {
			return nil, fmt.Errorf("update schedule %s: %w", id, err)
		}

		// Инструктор или аудитория сменились до захвата блокировок: берём блокировки заново
		s.logger.Debug("Schedule resources changed before lock, retrying",
			zap.String("schedule_id", id.String()),
			zap.Int("attempt", attempt),
		)
		if existing, err = s.getSchedule(ctx, id); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Schedule updated",
		zap.String("schedule_id", updated.ID.String()),
		zap.String("status", string(updated.Status)),
		zap.String("window", updated.Window().String()),
	)

	return NewScheduleResponse(updated), nil
}

// updateLocked берёт блокировки по ресурсам existing (и новым из запроса) и применяет изменения.
// errResourcesMoved если под блокировкой у расписания уже другие инструктор или аудитория
func (s *ScheduleService) updateLocked(ctx context.Context, existing *model.Schedule, req UpdateScheduleRequest) (*model.Schedule, error) {
	instructors := []uuid.UUID{existing.InstructorID}
	if req.InstructorID != nil {
		instructors = append(instructors, *req.InstructorID)
	}
	venues := []uuid.UUID{existing.VenueID}
	if req.VenueID != nil {
		venues = append(venues, *req.VenueID)
	}

	var updated *model.Schedule
	err := s.locker.WithBookingLock(ctx, lockKeys(instructors, venues), func(ctx context.Context) error {
		schedule, err := s.update(ctx, existing, req)
		if err != nil {
			return err
		}
		updated = schedule
		return nil
	})
	return updated, err
}

func (s *ScheduleService) update(ctx context.Context, existing *model.Schedule, req UpdateScheduleRequest) (*model.Schedule, error) {
	// Перечитываем под блокировкой, чтобы работать с актуальной версией
	schedule, err := s.getSchedule(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	if schedule.InstructorID != existing.InstructorID || schedule.VenueID != existing.VenueID {
		return nil, errResourcesMoved
	}

	if req.Status != nil {
		if _, err := model.ParseScheduleStatus(string(*req.Status)); err != nil {
			return nil, err
		}
	}

	instructorChanged := req.InstructorID != nil && *req.InstructorID != schedule.InstructorID
	venueChanged := req.VenueID != nil && *req.VenueID != schedule.VenueID
	windowChanged := req.changesWindow()
	// Отменённое расписание ничего не блокирует, поэтому при возврате из отмены проверяем заново
	reinstated := req.Status != nil && schedule.IsCancelled() && *req.Status != model.ScheduleStatusCancelled

	if venueChanged {
		if err := s.requireVenue(ctx, *req.VenueID); err != nil {
			return nil, err
		}
	}

	window := schedule.Window()
	if windowChanged {
		window, err = mergeWindow(schedule, req)
		if err != nil {
			return nil, err
		}
	}

	instructorID := schedule.InstructorID
	if instructorChanged {
		instructorID = *req.InstructorID
	}
	venueID := schedule.VenueID
	if venueChanged {
		venueID = *req.VenueID
	}

	if instructorChanged || windowChanged || reinstated {
		if err := s.ensureInstructorAvailable(ctx, instructorID, window, &schedule.ID); err != nil {
			return nil, err
		}
	}

	if venueChanged || windowChanged || reinstated {
		if err := s.ensureVenueAvailable(ctx, venueID, window, &schedule.ID); err != nil {
			return nil, err
		}
	}

	if windowChanged {
		if err := schedule.UpdateDates(window.StartDate, window.EndDate); err != nil {
			return nil, err
		}
		if window.Slot != schedule.TimeSlot {
			schedule.UpdateTimeSlot(window.Slot)
		}
	}
	if instructorChanged {
		schedule.UpdateInstructor(instructorID)
	}
	if venueChanged {
		schedule.UpdateVenue(venueID)
	}
	if req.Subject != nil {
		if err := schedule.UpdateSubject(*req.Subject); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		schedule.UpdateNotes(*req.Notes)
	}
	if req.Status != nil {
		if err := schedule.ApplyStatus(*req.Status); err != nil {
			return nil, err
		}
	}

	if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	return schedule, nil
}

// mergeWindow итоговое окно: новое значение там, где оно передано, старое - в остальных полях
func mergeWindow(schedule *model.Schedule, req UpdateScheduleRequest) (model.BookingWindow, error) {
	startDate, endDate := schedule.StartDate, schedule.EndDate
	if req.StartDate != nil {
		startDate = *req.StartDate
	}
	if req.EndDate != nil {
		endDate = *req.EndDate
	}

	startTime, endTime := schedule.TimeSlot.Start(), schedule.TimeSlot.End()
	if req.StartTime != nil {
		startTime = *req.StartTime
	}
	if req.EndTime != nil {
		endTime = *req.EndTime
	}

	slot, err := model.NewTimeSlot(startTime, endTime)
	if err != nil {
		return model.BookingWindow{}, err
	}

	return model.NewBookingWindow(startDate, endDate, slot)
}

// Delete удаляет расписание
func (s *ScheduleService) Delete(ctx context.Context, id uuid.UUID) error {
	schedule, err := s.getSchedule(ctx, id)
	if err != nil {
		return err
	}

	if err := s.scheduleRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}

	s.logger.Info("Schedule deleted",
		zap.String("schedule_id", id.String()),
		zap.String("instructor_id", schedule.InstructorID.String()),
		zap.String("venue_id", schedule.VenueID.String()),
	)

	return nil
}

// Get получает расписание по ID
func (s *ScheduleService) Get(ctx context.Context, id uuid.UUID) (*ScheduleResponse, error) {
	schedule, err := s.getSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewScheduleResponse(schedule), nil
}

// ListByDateRange расписания, диапазон дат которых пересекается с [from, to]
func (s *ScheduleService) ListByDateRange(ctx context.Context, from, to time.Time, page model.Page) ([]*ScheduleResponse, error) {
	from, to = model.Date(from), model.Date(to)
	if from.After(to) {
		return nil, &model.InvalidScheduleError{Field: "date_range", Reason: "from date is after to date"}
	}

	schedules, err := s.scheduleRepo.GetByDateRange(ctx, from, to, page)
	if err != nil {
		return nil, fmt.Errorf("get schedules by date range: %w", err)
	}
	return newScheduleResponses(schedules), nil
}

func (s *ScheduleService) ListByInstructor(ctx context.Context, instructorID uuid.UUID, page model.Page) ([]*ScheduleResponse, error) {
	schedules, err := s.scheduleRepo.GetByInstructor(ctx, instructorID, page)
	if err != nil {
		return nil, fmt.Errorf("get schedules by instructor: %w", err)
	}
	return newScheduleResponses(schedules), nil
}

func (s *ScheduleService) ListByGroup(ctx context.Context, groupID uuid.UUID, page model.Page) ([]*ScheduleResponse, error) {
	schedules, err := s.scheduleRepo.GetByGroup(ctx, groupID, page)
	if err != nil {
		return nil, fmt.Errorf("get schedules by group: %w", err)
	}
	return newScheduleResponses(schedules), nil
}

func (s *ScheduleService) ListByVenue(ctx context.Context, venueID uuid.UUID, page model.Page) ([]*ScheduleResponse, error) {
	schedules, err := s.scheduleRepo.GetByVenue(ctx, venueID, page)
	if err != nil {
		return nil, fmt.Errorf("get schedules by venue: %w", err)
	}
	return newScheduleResponses(schedules), nil
}

func (s *ScheduleService) ListActive(ctx context.Context, page model.Page) ([]*ScheduleResponse, error) {
	schedules, err := s.scheduleRepo.GetActiveSchedules(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("get active schedules: %w", err)
	}
	return newScheduleResponses(schedules), nil
}

// WeekSchedules сырые сущности аудитории или инструктора, пересекающиеся с неделей (для картинки расписания)
func (s *ScheduleService) WeekSchedules(ctx context.Context, weekStart time.Time, venueID, instructorID *uuid.UUID) ([]*model.Schedule, error) {
	weekStart = model.Date(weekStart)
	schedules, err := s.scheduleRepo.GetByDateRange(ctx, weekStart, weekStart.AddDate(0, 0, 6), model.Page{})
	if err != nil {
		return nil, fmt.Errorf("get week schedules: %w", err)
	}

	filtered := schedules[:0]
	for _, schedule := range schedules {
		if venueID != nil && schedule.VenueID != *venueID {
			continue
		}
		if instructorID != nil && schedule.InstructorID != *instructorID {
			continue
		}
		filtered = append(filtered, schedule)
	}
	return filtered, nil
}

// CompleteFinished переводит в completed активные расписания, закончившиеся до указанного дня.
// Вызывается периодически фоновым планировщиком
func (s *ScheduleService) CompleteFinished(ctx context.Context, today time.Time) (int, error) {
	ids, err := s.scheduleRepo.CompleteEndedBefore(ctx, model.Date(today), s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("complete finished schedules: %w", err)
	}

	for _, id := range ids {
		s.logger.Debug("Schedule completed", zap.String("schedule_id", id.String()))
	}

	return len(ids), nil
}

func (s *ScheduleService) getSchedule(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if schedule == nil {
		return nil, &model.ScheduleNotFoundError{ScheduleID: id}
	}
	return schedule, nil
}

func (s *ScheduleService) requireGroup(ctx context.Context, groupID uuid.UUID) error {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("get academic group: %w", err)
	}
	if group == nil || !group.IsActive {
		return &model.AcademicGroupNotFoundError{GroupID: groupID}
	}
	return nil
}

func (s *ScheduleService) requireVenue(ctx context.Context, venueID uuid.UUID) error {
	venue, err := s.venueRepo.GetByID(ctx, venueID)
	if err != nil {
		return fmt.Errorf("get venue: %w", err)
	}
	if venue == nil || !venue.IsActive {
		return &model.VenueNotFoundError{VenueID: venueID}
	}
	return nil
}

func (s *ScheduleService) ensureInstructorAvailable(ctx context.Context, instructorID uuid.UUID, window model.BookingWindow, excludeID *uuid.UUID) error {
	busy, err := s.scheduleRepo.CheckInstructorConflict(ctx, instructorID, window, excludeID)
	if err != nil {
		return fmt.Errorf("check instructor conflict: %w", err)
	}
	if busy {
		s.logger.Warn("Instructor is not available",
			zap.String("instructor_id", instructorID.String()),
			zap.String("window", window.String()),
		)
		return &model.InstructorNotAvailableError{InstructorID: instructorID, Window: window}
	}
	return nil
}

func (s *ScheduleService) ensureVenueAvailable(ctx context.Context, venueID uuid.UUID, window model.BookingWindow, excludeID *uuid.UUID) error {
	busy, err := s.scheduleRepo.CheckVenueConflict(ctx, venueID, window, excludeID)
	if err != nil {
		return fmt.Errorf("check venue conflict: %w", err)
	}
	if busy {
		s.logger.Warn("Venue is not available",
			zap.String("venue_id", venueID.String()),
			zap.String("window", window.String()),
		)
		return &model.VenueNotAvailableError{VenueID: venueID, Window: window}
	}
	return nil
}

// lockKeys уникальные отсортированные ключи блокировок (сортировка исключает взаимные блокировки)
func lockKeys(instructors, venues []uuid.UUID) []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0, len(instructors)+len(venues))
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	for _, id := range instructors {
		add(InstructorLockKey(id))
	}
	for _, id := range venues {
		add(VenueLockKey(id))
	}
	sort.Strings(keys)
	return keys
}
