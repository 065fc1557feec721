package controller

import (
	"context"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/controller/handlers"
	"github.com/elparchetipk/sicora-app-sub000/internal/controller/state"
	"github.com/elparchetipk/sicora-app-sub000/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Как часто чистим брошенные диалоги
const stateSweepInterval = 5 * time.Minute

type BotController struct {
	bot          *bot.Bot
	handlers     *handlers.Handlers
	stateManager *state.Manager
	logger       *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	scheduleService *service.ScheduleService,
	venues handlers.VenueLookup,
	groups handlers.GroupLookup,
	adminIDs []int64,
	location *time.Location,
	logger *zap.Logger,
) *BotController {
	// Создаём менеджер состояний
	stateManager := state.NewManager(state.DefaultTTL)

	// Создаём обработчики команд
	cmdHandlers := handlers.NewHandlers(
		scheduleService,
		stateManager,
		venues,
		groups,
		adminIDs,
		location,
		logger,
	)

	return &BotController{
		bot:          botInstance,
		handlers:     cmdHandlers,
		stateManager: stateManager,
		logger:       logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	admin := c.handlers.AdminOnly

	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart, admin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp, admin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel, admin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/import", bot.MatchTypeExact, c.handlers.HandleImport, admin)

	// Команды с аргументами
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/schedules", bot.MatchTypePrefix, c.handlers.HandleSchedules, admin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/venue", bot.MatchTypePrefix, c.handlers.HandleVenue, admin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/instructor", bot.MatchTypePrefix, c.handlers.HandleInstructor, admin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypePrefix, c.handlers.HandleWeek, admin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancelclass", bot.MatchTypePrefix, c.handlers.HandleCancelClass, admin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/deleteclass", bot.MatchTypePrefix, c.handlers.HandleDeleteClass, admin)

	// Файл импорта
	c.bot.RegisterHandlerMatchFunc(handlers.IsDocument, c.handlers.HandleDocument, admin)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "schedules", Description: "🗓 Расписания за период"},
		{Command: "venue", Description: "🏫 Расписания аудитории"},
		{Command: "instructor", Description: "👤 Расписания инструктора"},
		{Command: "week", Description: "🖼 Картинка недели"},
		{Command: "cancelclass", Description: "⛔ Отменить расписание"},
		{Command: "deleteclass", Description: "🗑 Удалить расписание"},
		{Command: "import", Description: "📥 Импорт из CSV/XLSX"},
		{Command: "cancel", Description: "↩️ Отменить операцию"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены контекста
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	go c.sweepStates(ctx)
	c.bot.Start(ctx)
	return nil
}

func (c *BotController) sweepStates(ctx context.Context) {
	ticker := time.NewTicker(stateSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := c.stateManager.Sweep(); removed > 0 {
				c.logger.Debug("Expired dialog states removed", zap.Int("count", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}
