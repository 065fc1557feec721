package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/elparchetipk/sicora-app-sub000/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// spyScheduleRepo считает проверки конфликтов
type spyScheduleRepo struct {
	*memory.ScheduleRepository
	instructorChecks int
	venueChecks      int
	failUpdate       error
}

func (r *spyScheduleRepo) CheckInstructorConflict(ctx context.Context, id uuid.UUID, w model.BookingWindow, exclude *uuid.UUID) (bool, error) {
	r.instructorChecks++
	return r.ScheduleRepository.CheckInstructorConflict(ctx, id, w, exclude)
}

func (r *spyScheduleRepo) CheckVenueConflict(ctx context.Context, id uuid.UUID, w model.BookingWindow, exclude *uuid.UUID) (bool, error) {
	r.venueChecks++
	return r.ScheduleRepository.CheckVenueConflict(ctx, id, w, exclude)
}

func (r *spyScheduleRepo) Update(ctx context.Context, s *model.Schedule) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	return r.ScheduleRepository.Update(ctx, s)
}

func (r *spyScheduleRepo) resetChecks() {
	r.instructorChecks = 0
	r.venueChecks = 0
}

type fixture struct {
	svc        *ScheduleService
	schedules  *spyScheduleRepo
	groups     *memory.GroupRepository
	venues     *memory.VenueRepository
	group      model.AcademicGroup
	venue      model.Venue
	otherVenue model.Venue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		schedules:  &spyScheduleRepo{ScheduleRepository: memory.NewScheduleRepository()},
		group:      model.AcademicGroup{ID: uuid.New(), Name: "ADSO-2671143", IsActive: true},
		venue:      model.Venue{ID: uuid.New(), Name: "Ambiente 301", Capacity: 30, IsActive: true},
		otherVenue: model.Venue{ID: uuid.New(), Name: "Ambiente 302", Capacity: 25, IsActive: true},
	}
	f.groups = memory.NewGroupRepository(f.group)
	f.venues = memory.NewVenueRepository(f.venue, f.otherVenue)
	f.svc = NewScheduleService(f.schedules, f.groups, f.venues, memory.NewLocker(), zap.NewNop())
	return f
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func tod(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	v, err := model.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func (f *fixture) request(t *testing.T, instructorID uuid.UUID) CreateScheduleRequest {
	return CreateScheduleRequest{
		StartDate:    day(t, "2025-06-01"),
		EndDate:      day(t, "2025-06-30"),
		StartTime:    tod(t, "08:00"),
		EndTime:      tod(t, "10:00"),
		InstructorID: instructorID,
		GroupID:      f.group.ID,
		VenueID:      f.venue.ID,
		Subject:      "Programación",
		Notes:        "  bring laptops ",
	}
}

func ptr[T any](v T) *T { return &v }

func TestScheduleService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	instructor := uuid.New()

	resp, err := f.svc.Create(ctx, f.request(t, instructor))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, model.ScheduleStatusActive, resp.Status)
	assert.Equal(t, "2025-06-01", resp.StartDate)
	assert.Equal(t, "08:00", resp.StartTime)
	assert.Equal(t, "10:00", resp.EndTime)
	assert.Equal(t, 120, resp.DurationMinutes)
	assert.Equal(t, "bring laptops", resp.Notes)

	stored, err := f.schedules.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, instructor, stored.InstructorID)
}

func TestScheduleService_CreateValidationOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	busyInstructor := uuid.New()

	_, err := f.svc.Create(ctx, f.request(t, busyInstructor))
	require.NoError(t, err)

	inactive := model.Venue{ID: uuid.New(), Name: "Closed", IsActive: false}
	f.venues.Put(inactive)
	inactiveGroup := model.AcademicGroup{ID: uuid.New(), Name: "Old", IsActive: false}
	f.groups.Put(inactiveGroup)

	tests := []struct {
		name   string
		mutate func(r *CreateScheduleRequest)
		target any
		is     error
	}{
		{
			name: "missing group wins over everything",
			mutate: func(r *CreateScheduleRequest) {
				r.GroupID = uuid.New()
				r.VenueID = uuid.New()
				r.EndTime = r.StartTime
			},
			target: new(*model.AcademicGroupNotFoundError),
			is:     model.ErrNotFound,
		},
		{
			name:   "inactive group",
			mutate: func(r *CreateScheduleRequest) { r.GroupID = inactiveGroup.ID },
			target: new(*model.AcademicGroupNotFoundError),
			is:     model.ErrNotFound,
		},
		{
			name: "missing venue before slot",
			mutate: func(r *CreateScheduleRequest) {
				r.VenueID = uuid.New()
				r.EndTime = r.StartTime
			},
			target: new(*model.VenueNotFoundError),
			is:     model.ErrNotFound,
		},
		{
			name:   "inactive venue",
			mutate: func(r *CreateScheduleRequest) { r.VenueID = inactive.ID },
			target: new(*model.VenueNotFoundError),
			is:     model.ErrNotFound,
		},
		{
			name: "slot before conflicts",
			mutate: func(r *CreateScheduleRequest) {
				r.InstructorID = busyInstructor
				r.StartTime, r.EndTime = r.EndTime, r.StartTime
			},
			target: new(*model.InvalidTimeSlotError),
			is:     model.ErrInvalidData,
		},
		{
			name: "instructor conflict before venue conflict",
			mutate: func(r *CreateScheduleRequest) {
				r.InstructorID = busyInstructor
			},
			target: new(*model.InstructorNotAvailableError),
			is:     model.ErrConflict,
		},
		{
			name:   "venue conflict",
			mutate: func(r *CreateScheduleRequest) {},
			target: new(*model.VenueNotAvailableError),
			is:     model.ErrConflict,
		},
		{
			name: "conflict before entity invariants",
			mutate: func(r *CreateScheduleRequest) {
				r.Subject = "x"
			},
			target: new(*model.VenueNotAvailableError),
			is:     model.ErrConflict,
		},
		{
			name: "entity invariants last",
			mutate: func(r *CreateScheduleRequest) {
				r.VenueID = f.otherVenue.ID
				r.Subject = " x "
			},
			target: new(*model.InvalidScheduleError),
			is:     model.ErrInvalidData,
		},
		{
			name: "start date after end date",
			mutate: func(r *CreateScheduleRequest) {
				r.VenueID = f.otherVenue.ID
				r.StartDate, r.EndDate = r.EndDate, r.StartDate
			},
			target: new(*model.InvalidScheduleError),
			is:     model.ErrInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(t, uuid.New())
			tt.mutate(&req)

			resp, err := f.svc.Create(ctx, req)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, errors.As(err, tt.target), "got %T: %v", err, err)
			assert.ErrorIs(t, err, tt.is)
		})
	}

	all, err := f.schedules.GetActiveSchedules(ctx, model.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "failed creates must not persist anything")
}

func TestScheduleService_CreateIgnoresCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	instructor := uuid.New()

	first, err := f.svc.Create(ctx, f.request(t, instructor))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, first.ID, UpdateScheduleRequest{Status: ptr(model.ScheduleStatusCancelled)})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.request(t, instructor))
	assert.NoError(t, err)
}

func TestScheduleService_CreateAdjacentSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	instructor := uuid.New()

	_, err := f.svc.Create(ctx, f.request(t, instructor))
	require.NoError(t, err)

	next := f.request(t, instructor)
	next.StartTime, next.EndTime = tod(t, "10:00"), tod(t, "12:00")
	_, err = f.svc.Create(ctx, next)
	assert.NoError(t, err)
}

func TestScheduleService_UpdatePartialSkipsConflictChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, f.request(t, uuid.New()))
	require.NoError(t, err)
	f.schedules.resetChecks()

	updated, err := f.svc.Update(ctx, created.ID, UpdateScheduleRequest{
		Subject: ptr("Bases de datos"),
		Notes:   ptr("room changed"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Bases de datos", updated.Subject)
	assert.Equal(t, "room changed", updated.Notes)
	assert.Equal(t, created.StartTime, updated.StartTime)
	assert.Zero(t, f.schedules.instructorChecks)
	assert.Zero(t, f.schedules.venueChecks)
}

func TestScheduleService_UpdateExcludesItself(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, f.request(t, uuid.New()))
	require.NoError(t, err)
	f.schedules.resetChecks()

	// сдвиг внутри собственного окна не конфликтует сам с собой
	updated, err := f.svc.Update(ctx, created.ID, UpdateScheduleRequest{EndTime: ptr(tod(t, "11:00"))})
	require.NoError(t, err)

	assert.Equal(t, "08:00", updated.StartTime)
	assert.Equal(t, "11:00", updated.EndTime)
	assert.Equal(t, 180, updated.DurationMinutes)
	assert.Equal(t, 1, f.schedules.instructorChecks)
	assert.Equal(t, 1, f.schedules.venueChecks)
}

func TestScheduleService_UpdateMergedWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	instructor := uuid.New()

	created, err := f.svc.Create(ctx, f.request(t, instructor))
	require.NoError(t, err)

	afternoon := f.request(t, instructor)
	afternoon.StartTime, afternoon.EndTime = tod(t, "14:00"), tod(t, "16:00")
	afternoon.VenueID = f.otherVenue.ID
	_, err = f.svc.Create(ctx, afternoon)
	require.NoError(t, err)

	t.Run("conflict checked against merged window", func(t *testing.T) {
		// только новый конец: итоговый слот 08:00-15:00 пересекается с 14:00-16:00
		_, err := f.svc.Update(ctx, created.ID, UpdateScheduleRequest{EndTime: ptr(tod(t, "15:00"))})
		var conflict *model.InstructorNotAvailableError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, instructor, conflict.InstructorID)
		assert.Equal(t, "08:00-15:00", conflict.Window.Slot.String())

		stored, _ := f.svc.Get(ctx, created.ID)
		assert.Equal(t, "10:00", stored.EndTime, "rejected update leaves schedule unchanged")
	})

	t.Run("merged slot must be valid", func(t *testing.T) {
		_, err := f.svc.Update(ctx, created.ID, UpdateScheduleRequest{StartTime: ptr(tod(t, "10:30"))})
		assert.ErrorIs(t, err, model.ErrInvalidData)
	})

	t.Run("merged dates must be ordered", func(t *testing.T) {
		_, err := f.svc.Update(ctx, created.ID, UpdateScheduleRequest{StartDate: ptr(day(t, "2025-07-15"))})
		assert.ErrorIs(t, err, model.ErrInvalidData)
	})

	t.Run("moving dates out of the way", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, created.ID, UpdateScheduleRequest{
			StartDate: ptr(day(t, "2025-07-01")),
			EndDate:   ptr(day(t, "2025-07-31")),
			EndTime:   ptr(tod(t, "15:00")),
		})
		require.NoError(t, err)
		assert.Equal(t, "2025-07-01", updated.StartDate)
		assert.Equal(t, "15:00", updated.EndTime)
	})
}

func TestScheduleService_UpdateVenue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, f.request(t, uuid.New()))
	require.NoError(t, err)

	t.Run("unknown venue", func(t *testing.T) {
		_, err := f.svc.Update(ctx, created.ID, UpdateScheduleRequest{VenueID: ptr(uuid.New())})
		var notFound *model.VenueNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("same venue is not revalidated", func(t *testing.T) {
		// аудиторию выключили после создания, но запрос её не меняет
		closed := f.venue
		closed.IsActive = false
		f.venues.Put(closed)
		defer f.venues.Put(f.venue)

		f.schedules.resetChecks()
		_, err := f.svc.Update(ctx, created.ID, UpdateScheduleRequest{VenueID: ptr(f.venue.ID)})
		require.NoError(t, err)
		assert.Zero(t, f.schedules.venueChecks)
	})

	t.Run("busy venue", func(t *testing.T) {
		occupant := f.request(t, uuid.New())
		occupant.VenueID = f.otherVenue.ID
		_, err := f.svc.Create(ctx, occupant)
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, created.ID, UpdateScheduleRequest{VenueID: ptr(f.otherVenue.ID)})
		var busy *model.VenueNotAvailableError
		require.ErrorAs(t, err, &busy)
		assert.Equal(t, f.otherVenue.ID, busy.VenueID)
	})
}

func TestScheduleService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	instructor := uuid.New()

	first, err := f.svc.Create(ctx, f.request(t, instructor))
	require.NoError(t, err)

	cancelled, err := f.svc.Update(ctx, first.ID, UpdateScheduleRequest{Status: ptr(model.ScheduleStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatusCancelled, cancelled.Status)

	// место освободилось и занято другим расписанием
	second := f.request(t, instructor)
	_, err = f.svc.Create(ctx, second)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, first.ID, UpdateScheduleRequest{Status: ptr(model.ScheduleStatusActive)})
	assert.ErrorIs(t, err, model.ErrConflict, "reinstating a cancelled schedule rechecks conflicts")

	rescheduled, err := f.svc.Update(ctx, first.ID, UpdateScheduleRequest{Status: ptr(model.ScheduleStatusRescheduled)})
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Nil(t, rescheduled)

	_, err = f.svc.Update(ctx, first.ID, UpdateScheduleRequest{Status: ptr(model.ScheduleStatus("archived"))})
	assert.ErrorIs(t, err, model.ErrInvalidData)
}

func TestScheduleService_UpdateNotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	_, err := f.svc.Update(context.Background(), id, UpdateScheduleRequest{Notes: ptr("x")})
	var notFound *model.ScheduleNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, id, notFound.ScheduleID)
}

func TestScheduleService_UpdateRepositoryError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, f.request(t, uuid.New()))
	require.NoError(t, err)

	storage := errors.New("connection reset")
	f.schedules.failUpdate = storage

	_, err = f.svc.Update(ctx, created.ID, UpdateScheduleRequest{Notes: ptr("x")})
	assert.ErrorIs(t, err, storage)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}

func TestScheduleService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, f.request(t, uuid.New()))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = f.svc.Delete(ctx, created.ID)
	var notFound *model.ScheduleNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestScheduleService_Listing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	instructor := uuid.New()

	june, err := f.svc.Create(ctx, f.request(t, instructor))
	require.NoError(t, err)

	august := f.request(t, instructor)
	august.StartDate, august.EndDate = day(t, "2025-08-01"), day(t, "2025-08-31")
	_, err = f.svc.Create(ctx, august)
	require.NoError(t, err)

	byInstructor, err := f.svc.ListByInstructor(ctx, instructor, model.Page{})
	require.NoError(t, err)
	assert.Len(t, byInstructor, 2)

	byGroup, err := f.svc.ListByGroup(ctx, f.group.ID, model.Page{Limit: 1})
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, june.ID, byGroup[0].ID)

	byVenue, err := f.svc.ListByVenue(ctx, f.otherVenue.ID, model.Page{})
	require.NoError(t, err)
	assert.Empty(t, byVenue)

	inJuly, err := f.svc.ListByDateRange(ctx, day(t, "2025-06-30"), day(t, "2025-07-31"), model.Page{})
	require.NoError(t, err)
	require.Len(t, inJuly, 1)
	assert.Equal(t, june.ID, inJuly[0].ID)

	_, err = f.svc.ListByDateRange(ctx, day(t, "2025-07-31"), day(t, "2025-06-30"), model.Page{})
	assert.ErrorIs(t, err, model.ErrInvalidData)

	active, err := f.svc.ListActive(ctx, model.Page{})
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestScheduleService_WeekSchedules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	instructor := uuid.New()

	_, err := f.svc.Create(ctx, f.request(t, instructor))
	require.NoError(t, err)

	elsewhere := f.request(t, uuid.New())
	elsewhere.VenueID = f.otherVenue.ID
	_, err = f.svc.Create(ctx, elsewhere)
	require.NoError(t, err)

	week := day(t, "2025-06-09")

	all, err := f.svc.WeekSchedules(ctx, week, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byVenue, err := f.svc.WeekSchedules(ctx, week, &f.venue.ID, nil)
	require.NoError(t, err)
	assert.Len(t, byVenue, 1)

	byInstructor, err := f.svc.WeekSchedules(ctx, week, nil, &instructor)
	require.NoError(t, err)
	require.Len(t, byInstructor, 1)
	assert.Equal(t, instructor, byInstructor[0].InstructorID)

	later, err := f.svc.WeekSchedules(ctx, day(t, "2025-09-01"), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, later)
}

func TestScheduleService_CompleteFinished(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	finished, err := f.svc.Create(ctx, f.request(t, uuid.New()))
	require.NoError(t, err)

	running := f.request(t, uuid.New())
	running.VenueID = f.otherVenue.ID
	running.EndDate = day(t, "2025-07-31")
	_, err = f.svc.Create(ctx, running)
	require.NoError(t, err)

	count, err := f.svc.CompleteFinished(ctx, day(t, "2025-07-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := f.svc.Get(ctx, finished.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatusCompleted, got.Status)

	count, err = f.svc.CompleteFinished(ctx, day(t, "2025-07-01"))
	require.NoError(t, err)
	assert.Zero(t, count)
}

// interleavingRepo выполняет hook перед завершением расписаний, как параллельная правка администратора
type interleavingRepo struct {
	*spyScheduleRepo
	beforeComplete func()
}

func (r *interleavingRepo) CompleteEndedBefore(ctx context.Context, day, at time.Time) ([]uuid.UUID, error) {
	if r.beforeComplete != nil {
		r.beforeComplete()
	}
	return r.spyScheduleRepo.CompleteEndedBefore(ctx, day, at)
}

func TestScheduleService_CompleteFinishedKeepsConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := &interleavingRepo{spyScheduleRepo: f.schedules}
	svc := NewScheduleService(repo, f.groups, f.venues, memory.NewLocker(), zap.NewNop())
	completedAt := time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return completedAt }

	edited, err := svc.Create(ctx, f.request(t, uuid.New()))
	require.NoError(t, err)

	other := f.request(t, uuid.New())
	other.StartTime, other.EndTime = tod(t, "12:00"), tod(t, "14:00")
	cancelled, err := svc.Create(ctx, other)
	require.NoError(t, err)

	repo.beforeComplete = func() {
		_, err := svc.Update(ctx, edited.ID, UpdateScheduleRequest{
			VenueID: &f.otherVenue.ID,
			Subject: ptr("Edited subject"),
		})
		require.NoError(t, err)
		_, err = svc.Update(ctx, cancelled.ID, UpdateScheduleRequest{Status: ptr(model.ScheduleStatusCancelled)})
		require.NoError(t, err)
	}

	count, err := svc.CompleteFinished(ctx, day(t, "2025-07-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := svc.Get(ctx, edited.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatusCompleted, got.Status)
	assert.Equal(t, f.otherVenue.ID, got.VenueID)
	assert.Equal(t, "Edited subject", got.Subject)
	assert.Equal(t, completedAt, got.UpdatedAt)

	got, err = svc.Get(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatusCancelled, got.Status)
}

// recordingLocker запоминает ключи каждого захвата
type recordingLocker struct {
	*memory.Locker
	calls [][]string
}

func (l *recordingLocker) WithBookingLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	l.calls = append(l.calls, keys)
	return l.Locker.WithBookingLock(ctx, keys, fn)
}

// movingRepo после первого чтения переносит расписание в другую аудиторию,
// как если бы параллельный Update успел раньше захвата блокировок
type movingRepo struct {
	*spyScheduleRepo
	reads int
	move  func(s *model.Schedule)
	every bool
}

func (r *movingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	s, err := r.spyScheduleRepo.GetByID(ctx, id)
	if err != nil || s == nil {
		return s, err
	}
	r.reads++
	// чтения вне блокировки нечётные: 1-е, 3-е, ...
	if r.reads%2 == 1 && (r.reads == 1 || r.every) {
		moved := s.Clone()
		r.move(moved)
		if err := r.spyScheduleRepo.ScheduleRepository.Update(ctx, moved); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func TestScheduleService_UpdateRelocksWhenResourcesMoved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, f.request(t, uuid.New()))
	require.NoError(t, err)

	repo := &movingRepo{
		spyScheduleRepo: f.schedules,
		move:            func(s *model.Schedule) { s.UpdateVenue(f.otherVenue.ID) },
	}
	locker := &recordingLocker{Locker: memory.NewLocker()}
	svc := NewScheduleService(repo, f.groups, f.venues, locker, zap.NewNop())

	resp, err := svc.Update(ctx, created.ID, UpdateScheduleRequest{Subject: ptr("Bases de datos")})
	require.NoError(t, err)
	assert.Equal(t, f.otherVenue.ID, resp.VenueID)
	assert.Equal(t, "Bases de datos", resp.Subject)

	require.Len(t, locker.calls, 2)
	assert.Contains(t, locker.calls[0], VenueLockKey(f.venue.ID))
	assert.Contains(t, locker.calls[1], VenueLockKey(f.otherVenue.ID))
	assert.NotContains(t, locker.calls[1], VenueLockKey(f.venue.ID))
}

func TestScheduleService_UpdateGivesUpWhenResourcesKeepMoving(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, f.request(t, uuid.New()))
	require.NoError(t, err)

	repo := &movingRepo{
		spyScheduleRepo: f.schedules,
		move:            func(s *model.Schedule) { s.UpdateInstructor(uuid.New()) },
		every:           true,
	}
	locker := &recordingLocker{Locker: memory.NewLocker()}
	svc := NewScheduleService(repo, f.groups, f.venues, locker, zap.NewNop())

	_, err = svc.Update(ctx, created.ID, UpdateScheduleRequest{Subject: ptr("Bases de datos")})
	require.ErrorIs(t, err, errResourcesMoved)
	assert.Len(t, locker.calls, maxUpdateAttempts)
}

func TestLockKeys(t *testing.T) {
	a, b := uuid.MustParse("00000000-0000-0000-0000-00000000000a"), uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	keys := lockKeys([]uuid.UUID{b, a, b}, []uuid.UUID{a})
	assert.Equal(t, []string{
		"instructor:" + a.String(),
		"instructor:" + b.String(),
		"venue:" + a.String(),
	}, keys)
}
