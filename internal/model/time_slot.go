package model

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay время суток в минутах от полуночи (без даты)
type TimeOfDay int

// NewTimeOfDay создаёт время суток из часа и минуты
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay как NewTimeOfDay, но паникует на некорректном значении
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay разбирает строку формата "15:04"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// TimeOfDayFromMinutes восстанавливает время суток из количества минут (например из БД)
func TimeOfDayFromMinutes(minutes int) (TimeOfDay, error) {
	if minutes < 0 || minutes >= minutesPerDay {
		return 0, fmt.Errorf("invalid time of day: %d minutes", minutes)
	}
	return TimeOfDay(minutes), nil
}

func (t TimeOfDay) Hour() int    { return int(t) / 60 }
func (t TimeOfDay) Minute() int  { return int(t) % 60 }
func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// TimeSlot ежедневный интервал [start, end). Неизменяемый: при изменении заменяется целиком
type TimeSlot struct {
	start TimeOfDay
	end   TimeOfDay
}

// NewTimeSlot создаёт слот, start должен быть строго раньше end
func NewTimeSlot(start, end TimeOfDay) (TimeSlot, error) {
	if start >= end {
		return TimeSlot{}, &InvalidTimeSlotError{Start: start, End: end}
	}
	return TimeSlot{start: start, end: end}, nil
}

func (s TimeSlot) Start() TimeOfDay { return s.start }
func (s TimeSlot) End() TimeOfDay   { return s.end }

// DurationMinutes длительность слота в минутах
func (s TimeSlot) DurationMinutes() int {
	return int(s.end - s.start)
}

// IsZero true для незаполненного слота
func (s TimeSlot) IsZero() bool {
	return s.start == 0 && s.end == 0
}

// OverlapsWith проверяет пересечение слотов. Граница исключается:
// 09:00-10:00 и 10:00-11:00 не пересекаются
func (s TimeSlot) OverlapsWith(other TimeSlot) bool {
	return !(s.end <= other.start || s.start >= other.end)
}

func (s TimeSlot) String() string {
	return s.start.String() + "-" + s.end.String()
}
