package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/controller/state"
	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/elparchetipk/sicora-app-sub000/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCommandArgs(t *testing.T) {
	assert.Nil(t, commandArgs("/week"))
	assert.Equal(t, []string{"venue", "abc"}, commandArgs("/week  venue\tabc "))
}

func TestParseArgs(t *testing.T) {
	id := uuid.New()
	args := []string{id.String(), "2025-06-09", "nope"}

	got, err := parseUUIDArg(args, 0, "ID")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = parseUUIDArg(args, 2, "ID")
	assert.EqualError(t, err, "ID должен быть UUID")
	_, err = parseUUIDArg(args, 5, "ID")
	assert.EqualError(t, err, "не указан ID")

	def := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d, err := parseDateArg(args, 1, def)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDateArg(args, 3, def)
	require.NoError(t, err)
	assert.Equal(t, def, d)

	_, err = parseDateArg(args, 2, def)
	assert.Error(t, err)
}

func TestErrorText(t *testing.T) {
	slot, err := model.NewTimeSlot(model.MustTimeOfDay(8, 0), model.MustTimeOfDay(10, 0))
	require.NoError(t, err)
	window := model.BookingWindow{
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Slot:      slot,
	}

	tests := []struct {
		name     string
		err      error
		contains string
		known    bool
	}{
		{"instructor busy", fmt.Errorf("create: %w", &model.InstructorNotAvailableError{InstructorID: uuid.New(), Window: window}), "Инструктор уже занят: 2025-06-01..2025-06-30 08:00-10:00", true},
		{"venue busy", &model.VenueNotAvailableError{VenueID: uuid.New(), Window: window}, "Аудитория уже занята", true},
		{"schedule missing", &model.ScheduleNotFoundError{ScheduleID: uuid.New()}, "Расписание не найдено", true},
		{"group missing", &model.AcademicGroupNotFoundError{GroupID: uuid.New()}, "❌ ", true},
		{"invalid", &model.InvalidScheduleError{Field: "subject", Reason: "too short"}, "Некорректные данные", true},
		{"infrastructure", errors.New("connection refused"), "Попробуйте позже", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, known := errorText(tt.err)
			assert.Contains(t, text, tt.contains)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestFormatBulkResult(t *testing.T) {
	ok := formatBulkResult(&service.BulkUploadResult{TotalProcessed: 3, Successful: 3, Errors: []string{}})
	assert.Contains(t, ok, "Успешно: 3")
	assert.NotContains(t, ok, "•")

	errs := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		errs = append(errs, fmt.Sprintf("Row %d: invalid row", i))
	}
	report := formatBulkResult(&service.BulkUploadResult{TotalProcessed: 20, Failed: 20, Errors: errs})
	assert.Equal(t, maxReportedErrors, strings.Count(report, "• "))
	assert.Contains(t, report, "…и ещё 5")
}

func TestFormatScheduleList(t *testing.T) {
	assert.Contains(t, formatScheduleList("🗓 Title", nil, nil), "Расписаний нет.")

	venueID, groupID, instructorID := uuid.New(), uuid.New(), uuid.New()
	resp := &service.ScheduleResponse{
		ID:           uuid.New(),
		VenueID:      venueID,
		GroupID:      groupID,
		InstructorID: instructorID,
		StartDate: "2025-06-01",
		EndDate:   "2025-06-30",
		StartTime: "08:00",
		EndTime:   "10:00",
		Subject:   "Redes",
		Status:    model.ScheduleStatusActive,
		Notes:     "lab",
	}
	text := formatScheduleList("🗓 Title", []*service.ScheduleResponse{resp}, map[uuid.UUID]string{venueID: "Aula 101"})
	assert.Contains(t, text, "🗓 Title (1)")
	assert.Contains(t, text, "🟢 Redes")
	assert.Contains(t, text, "2025-06-01 - 2025-06-30, 08:00-10:00")
	assert.Contains(t, text, "🏫 Aula 101")
	// Имени группы нет, показываем ID
	assert.Contains(t, text, "👥 "+groupID.String())
	assert.Contains(t, text, "👤 "+instructorID.String())
	assert.Contains(t, text, "📝 lab")
}

type stubVenues map[uuid.UUID]*model.Venue

func (s stubVenues) Lookup(_ context.Context, id uuid.UUID) (*model.Venue, error) {
	return s[id], nil
}

type failingGroups struct{}

func (failingGroups) Lookup(context.Context, uuid.UUID) (*model.AcademicGroup, error) {
	return nil, errors.New("redis down")
}

func TestHandlers_ReferenceNames(t *testing.T) {
	venueID, groupID := uuid.New(), uuid.New()
	venues := stubVenues{venueID: {ID: venueID, Name: "Aula 101"}}

	h := NewHandlers(nil, state.NewManager(time.Minute), venues, failingGroups{}, nil, time.UTC, zap.NewNop())

	names := h.referenceNames(context.Background(),
		&service.ScheduleResponse{VenueID: venueID, GroupID: groupID},
		&service.ScheduleResponse{VenueID: uuid.New(), GroupID: groupID},
	)
	assert.Equal(t, map[uuid.UUID]string{venueID: "Aula 101"}, names)

	// Без справочников только ID
	bare := NewHandlers(nil, state.NewManager(time.Minute), nil, nil, nil, time.UTC, zap.NewNop())
	assert.Empty(t, bare.referenceNames(context.Background(), &service.ScheduleResponse{VenueID: venueID}))
}

func TestCheckImportFile(t *testing.T) {
	assert.NoError(t, checkImportFile("horario.CSV", 100))
	assert.NoError(t, checkImportFile("horario.xlsx", maxImportFileSize))
	assert.Error(t, checkImportFile("horario.xls", 100))
	assert.Error(t, checkImportFile("horario.csv", maxImportFileSize+1))
}

func TestHandlers_AdminsAndToday(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)

	h := NewHandlers(nil, state.NewManager(time.Minute), nil, nil, []int64{10, 20}, bogota, zap.NewNop())
	h.now = func() time.Time { return time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC) }

	assert.True(t, h.isAdmin(10))
	assert.False(t, h.isAdmin(30))
	// 03:00 UTC это ещё 9 июня в Боготе
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), h.today())
}
