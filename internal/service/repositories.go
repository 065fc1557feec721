package service

import (
	"context"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/google/uuid"
)

// ScheduleRepository хранилище расписаний, поверх которого построено ядро.
// GetByID возвращает nil, nil если запись не найдена
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
	Update(ctx context.Context, schedule *model.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetByDateRange(ctx context.Context, from, to time.Time, page model.Page) ([]*model.Schedule, error)
	GetByInstructor(ctx context.Context, instructorID uuid.UUID, page model.Page) ([]*model.Schedule, error)
	GetByGroup(ctx context.Context, groupID uuid.UUID, page model.Page) ([]*model.Schedule, error)
	GetByVenue(ctx context.Context, venueID uuid.UUID, page model.Page) ([]*model.Schedule, error)
	GetActiveSchedules(ctx context.Context, page model.Page) ([]*model.Schedule, error)
	// CompleteEndedBefore переводит в completed активные расписания, последний день которых раньше day,
	// не трогая остальные поля. Возвращает ID изменённых расписаний
	CompleteEndedBefore(ctx context.Context, day, at time.Time) ([]uuid.UUID, error)

	// CheckInstructorConflict есть ли у инструктора неотменённое расписание,
	// пересекающееся с окном и по датам, и по времени. excludeID исключает само редактируемое расписание
	CheckInstructorConflict(ctx context.Context, instructorID uuid.UUID, window model.BookingWindow, excludeID *uuid.UUID) (bool, error)
	// CheckVenueConflict то же для аудитории
	CheckVenueConflict(ctx context.Context, venueID uuid.UUID, window model.BookingWindow, excludeID *uuid.UUID) (bool, error)
}

// GroupRepository внешний справочник учебных групп. nil, nil если группа не найдена
type GroupRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.AcademicGroup, error)
}

// VenueRepository внешний справочник аудиторий. nil, nil если аудитория не найдена
type VenueRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Venue, error)
}

// Locker сериализует проверку конфликтов и запись для одних и тех же ресурсов.
// fn получает контекст, внутри которого все обращения к хранилищу идут в одной транзакции
type Locker interface {
	WithBookingLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error
}

// InstructorLockKey ключ блокировки инструктора
func InstructorLockKey(id uuid.UUID) string { return "instructor:" + id.String() }

// VenueLockKey ключ блокировки аудитории
func VenueLockKey(id uuid.UUID) string { return "venue:" + id.String() }
