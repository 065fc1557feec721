package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/elparchetipk/sicora-app-sub000/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Имена ограничений исключения из миграции schedules
const (
	instructorOverlapConstraint = "schedules_instructor_no_overlap"
	venueOverlapConstraint      = "schedules_venue_no_overlap"
)

const scheduleColumns = `id, start_date, end_date, start_time, end_time, instructor_id, group_id, venue_id,
		subject, status, notes, created_at, updated_at`

type ScheduleRepository struct {
	*base.Repository
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет новое расписание
func (r *ScheduleRepository) Create(ctx context.Context, s *model.Schedule) error {
	query := `
		INSERT INTO schedules (id, start_date, end_date, start_time, end_time, instructor_id, group_id, venue_id,
			subject, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.ExecAffected(ctx, query,
		s.ID,
		s.StartDate,
		s.EndDate,
		toPgTime(s.TimeSlot.Start()),
		toPgTime(s.TimeSlot.End()),
		s.InstructorID,
		s.GroupID,
		s.VenueID,
		s.Subject,
		s.Status,
		s.Notes,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if conflict := overlapError(err, s); conflict != nil {
			return conflict
		}
		return fmt.Errorf("insert schedule: %w", err)
	}

	return nil
}

// GetByID получает расписание по ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	schedule, err := scanSchedule(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get schedule by id: %w", err)
	}

	return schedule, nil
}

// Update сохраняет все изменяемые поля расписания
func (r *ScheduleRepository) Update(ctx context.Context, s *model.Schedule) error {
	query := `
		UPDATE schedules
		SET start_date = $2, end_date = $3, start_time = $4, end_time = $5,
		    instructor_id = $6, venue_id = $7, subject = $8, status = $9, notes = $10, updated_at = $11
		WHERE id = $1
	`

	affected, err := r.ExecAffected(ctx, query,
		s.ID,
		s.StartDate,
		s.EndDate,
		toPgTime(s.TimeSlot.Start()),
		toPgTime(s.TimeSlot.End()),
		s.InstructorID,
		s.VenueID,
		s.Subject,
		s.Status,
		s.Notes,
		s.UpdatedAt,
	)
	if err != nil {
		if conflict := overlapError(err, s); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update schedule: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("schedule not found")
	}

	return nil
}

// Delete удаляет расписание
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("schedule not found")
	}

	return nil
}

// GetByDateRange расписания, пересекающиеся с диапазоном дат [from, to]
func (r *ScheduleRepository) GetByDateRange(ctx context.Context, from, to time.Time, page model.Page) ([]*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE start_date <= $2 AND end_date >= $1
		ORDER BY start_date, start_time, id
		LIMIT $3 OFFSET $4`

	return r.list(ctx, "get schedules by date range", query, from, to, limitArg(page), page.Offset)
}

func (r *ScheduleRepository) GetByInstructor(ctx context.Context, instructorID uuid.UUID, page model.Page) ([]*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE instructor_id = $1
		ORDER BY start_date, start_time, id
		LIMIT $2 OFFSET $3`

	return r.list(ctx, "get schedules by instructor", query, instructorID, limitArg(page), page.Offset)
}

func (r *ScheduleRepository) GetByGroup(ctx context.Context, groupID uuid.UUID, page model.Page) ([]*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE group_id = $1
		ORDER BY start_date, start_time, id
		LIMIT $2 OFFSET $3`

	return r.list(ctx, "get schedules by group", query, groupID, limitArg(page), page.Offset)
}

func (r *ScheduleRepository) GetByVenue(ctx context.Context, venueID uuid.UUID, page model.Page) ([]*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE venue_id = $1
		ORDER BY start_date, start_time, id
		LIMIT $2 OFFSET $3`

	return r.list(ctx, "get schedules by venue", query, venueID, limitArg(page), page.Offset)
}

func (r *ScheduleRepository) GetActiveSchedules(ctx context.Context, page model.Page) ([]*model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE status = 'active'
		ORDER BY start_date, start_time, id
		LIMIT $1 OFFSET $2`

	return r.list(ctx, "get active schedules", query, limitArg(page), page.Offset)
}

// CompleteEndedBefore одним запросом переводит в completed активные расписания с end_date раньше day.
// Меняются только статус и updated_at, поэтому параллельные правки других полей не теряются
func (r *ScheduleRepository) CompleteEndedBefore(ctx context.Context, day, at time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE schedules
		SET status = 'completed', updated_at = $2
		WHERE status = 'active' AND end_date < $1
		RETURNING id
	`

	rows, err := r.Query(ctx, query, day, at)
	if err != nil {
		return nil, fmt.Errorf("complete finished schedules: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan schedule id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("complete finished schedules: %w", err)
	}

	return ids, nil
}

// CheckInstructorConflict есть ли у инструктора неотменённое расписание, пересекающееся с окном.
// Пересечение дат и времени проверяется независимо: расписание повторяется каждый день диапазона
func (r *ScheduleRepository) CheckInstructorConflict(ctx context.Context, instructorID uuid.UUID, window model.BookingWindow, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedules
			WHERE instructor_id = $1
			  AND status <> 'cancelled'
			  AND start_date <= $3 AND end_date >= $2
			  AND start_time < $5 AND end_time > $4
			  AND ($6::uuid IS NULL OR id <> $6)
		)
	`

	return r.exists(ctx, "check instructor conflict", query, instructorID, window, excludeID)
}

// CheckVenueConflict есть ли у аудитории неотменённое расписание, пересекающееся с окном
func (r *ScheduleRepository) CheckVenueConflict(ctx context.Context, venueID uuid.UUID, window model.BookingWindow, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedules
			WHERE venue_id = $1
			  AND status <> 'cancelled'
			  AND start_date <= $3 AND end_date >= $2
			  AND start_time < $5 AND end_time > $4
			  AND ($6::uuid IS NULL OR id <> $6)
		)
	`

	return r.exists(ctx, "check venue conflict", query, venueID, window, excludeID)
}

func (r *ScheduleRepository) exists(ctx context.Context, op, query string, resourceID uuid.UUID, window model.BookingWindow, excludeID *uuid.UUID) (bool, error) {
	var busy bool
	err := r.QueryRow(ctx, query,
		resourceID,
		window.StartDate,
		window.EndDate,
		toPgTime(window.Slot.Start()),
		toPgTime(window.Slot.End()),
		excludeID,
	).Scan(&busy)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return busy, nil
}

func (r *ScheduleRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Schedule, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	schedules := make([]*model.Schedule, 0)
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return schedules, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*model.Schedule, error) {
	var (
		s                  model.Schedule
		startTime, endTime pgtype.Time
	)
	err := row.Scan(
		&s.ID,
		&s.StartDate,
		&s.EndDate,
		&startTime,
		&endTime,
		&s.InstructorID,
		&s.GroupID,
		&s.VenueID,
		&s.Subject,
		&s.Status,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	start, err := fromPgTime(startTime)
	if err != nil {
		return nil, err
	}
	end, err := fromPgTime(endTime)
	if err != nil {
		return nil, err
	}
	if s.TimeSlot, err = model.NewTimeSlot(start, end); err != nil {
		return nil, fmt.Errorf("schedule %s: %w", s.ID, err)
	}

	s.StartDate = model.Date(s.StartDate)
	s.EndDate = model.Date(s.EndDate)
	return &s, nil
}

// overlapError переводит срабатывание ограничения исключения в доменную ошибку конфликта
func overlapError(err error, s *model.Schedule) error {
	pgErr, ok := base.PgError(err, base.CodeExclusionViolation)
	if !ok {
		return nil
	}
	switch pgErr.ConstraintName {
	case instructorOverlapConstraint:
		return &model.InstructorNotAvailableError{InstructorID: s.InstructorID, Window: s.Window()}
	case venueOverlapConstraint:
		return &model.VenueNotAvailableError{VenueID: s.VenueID, Window: s.Window()}
	}
	return nil
}

func toPgTime(t model.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Minutes()) * int64(time.Minute/time.Microsecond), Valid: true}
}

func fromPgTime(t pgtype.Time) (model.TimeOfDay, error) {
	if !t.Valid {
		return 0, fmt.Errorf("time is null")
	}
	return model.TimeOfDayFromMinutes(int(t.Microseconds / int64(time.Minute/time.Microsecond)))
}

// limitArg LIMIT NULL в PostgreSQL означает без ограничения
func limitArg(page model.Page) *int {
	if page.Limit <= 0 {
		return nil
	}
	return &page.Limit
}
