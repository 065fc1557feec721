package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/controller/state"
	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/elparchetipk/sicora-app-sub000/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Сколько расписаний показываем в одном ответе
	listLimit = 20
	// Максимальный размер файла импорта
	maxImportFileSize = 5 << 20
	// Сколько ошибок строк показываем в ответе на импорт
	maxReportedErrors = 15
)

// VenueLookup справочник аудиторий для отображения, ответ может быть из кэша
type VenueLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*model.Venue, error)
}

// GroupLookup справочник групп для отображения
type GroupLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*model.AcademicGroup, error)
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	scheduleService *service.ScheduleService
	stateManager    *state.Manager
	venues          VenueLookup
	groups          GroupLookup
	admins          map[int64]struct{}
	location        *time.Location
	now             func() time.Time
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewHandlers создаёт новый обработчик команд. Команды доступны только пользователям из adminIDs
func NewHandlers(
	scheduleService *service.ScheduleService,
	stateManager *state.Manager,
	venues VenueLookup,
	groups GroupLookup,
	adminIDs []int64,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	if location == nil {
		location = time.UTC
	}

	return &Handlers{
		scheduleService: scheduleService,
		stateManager:    stateManager,
		venues:          venues,
		groups:          groups,
		admins:          admins,
		location:        location,
		now:             time.Now,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		logger:          logger,
	}
}

// today текущая дата в часовом поясе приложения
func (h *Handlers) today() time.Time {
	now := h.now().In(h.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
