package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/elparchetipk/sicora-app-sub000/internal/controller/state"
	"github.com/elparchetipk/sicora-app-sub000/internal/controller/timetable"
	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/elparchetipk/sicora-app-sub000/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"/schedules ДАТА [ДАТА] - расписания в диапазоне дат\n" +
	"/venue ID - расписания аудитории\n" +
	"/instructor ID - расписания инструктора\n" +
	"/week venue|instructor ID [ДАТА] - картинка недели\n" +
	"/cancelclass ID - отменить расписание\n" +
	"/deleteclass ID - удалить расписание\n" +
	"/import - загрузить расписания из CSV/XLSX\n" +
	"/cancel - отменить текущую операцию\n\n" +
	"Даты в формате ГГГГ-ММ-ДД."

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	welcome := fmt.Sprintf("👋 Привет, %s!\n\nЭто бот управления расписанием занятий.\n\n%s",
		update.Message.From.FirstName, helpText)
	h.sendMessage(ctx, b, update.Message.Chat.ID, welcome)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleSchedules /schedules FROM [TO]: расписания, пересекающиеся с диапазоном дат
func (h *Handlers) HandleSchedules(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	args := commandArgs(update.Message.Text)

	from, err := parseDateArg(args, 0, h.today())
	if err != nil {
		h.sendError(ctx, b, chatID, "❌ "+err.Error())
		return
	}
	to, err := parseDateArg(args, 1, from)
	if err != nil {
		h.sendError(ctx, b, chatID, "❌ "+err.Error())
		return
	}

	schedules, err := h.scheduleService.ListByDateRange(ctx, from, to, model.Page{Limit: listLimit})
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "list by date range", err)
		return
	}

	title := fmt.Sprintf("🗓 Расписания %s - %s", from.Format(model.DateLayout), to.Format(model.DateLayout))
	h.sendMessage(ctx, b, chatID, formatScheduleList(title, schedules, h.referenceNames(ctx, schedules...)))
}

// HandleVenue /venue ID
func (h *Handlers) HandleVenue(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleResourceList(ctx, b, update, "ID аудитории", "🏫 Расписания аудитории", h.scheduleService.ListByVenue)
}

// HandleInstructor /instructor ID
func (h *Handlers) HandleInstructor(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handleResourceList(ctx, b, update, "ID инструктора", "👤 Расписания инструктора", h.scheduleService.ListByInstructor)
}

func (h *Handlers) handleResourceList(
	ctx context.Context, b *bot.Bot, update *models.Update,
	argName, title string,
	list func(context.Context, uuid.UUID, model.Page) ([]*service.ScheduleResponse, error),
) {
	chatID := update.Message.Chat.ID

	id, err := parseUUIDArg(commandArgs(update.Message.Text), 0, argName)
	if err != nil {
		h.sendError(ctx, b, chatID, "❌ "+err.Error())
		return
	}

	schedules, err := list(ctx, id, model.Page{Limit: listLimit})
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "list by resource", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatScheduleList(title, schedules, h.referenceNames(ctx, schedules...)))
}

// HandleWeek /week venue|instructor ID [DATE]: картинка недели, в которую попадает дата
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	args := commandArgs(update.Message.Text)

	if len(args) == 0 {
		h.sendError(ctx, b, chatID, "❌ Использование: /week venue|instructor ID [ДАТА]")
		return
	}

	kind := strings.ToLower(args[0])
	if kind != "venue" && kind != "instructor" {
		h.sendError(ctx, b, chatID, "❌ Первый аргумент: venue или instructor")
		return
	}

	id, err := parseUUIDArg(args, 1, "ID")
	if err != nil {
		h.sendError(ctx, b, chatID, "❌ "+err.Error())
		return
	}
	date, err := parseDateArg(args, 2, h.today())
	if err != nil {
		h.sendError(ctx, b, chatID, "❌ "+err.Error())
		return
	}

	week := timetable.WeekOf(date)
	title := "instructor " + id.String()
	var venueID, instructorID *uuid.UUID
	if kind == "venue" {
		venueID = &id
		title = "venue " + id.String()
		if venue, err := h.lookupVenue(ctx, id); err == nil && venue != nil {
			title = "venue " + venue.Name
		}
	} else {
		instructorID = &id
	}

	schedules, err := h.scheduleService.WeekSchedules(ctx, week.Start, venueID, instructorID)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "week schedules", err)
		return
	}

	imageData, err := timetable.Render(timetable.Week{
		Start:     week.Start,
		Title:     title,
		Schedules: schedules,
		Now:       h.now().In(h.location),
	})
	if err != nil {
		h.logger.Error("Failed to render timetable", zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось построить картинку расписания.")
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(imageData)},
		Caption: fmt.Sprintf("🗓 %s - %s, занятий: %d", week.Start.Format(model.DateLayout), week.End.Format(model.DateLayout), len(schedules)),
	})
	if err != nil {
		h.logger.Error("Failed to send timetable", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) lookupVenue(ctx context.Context, id uuid.UUID) (*model.Venue, error) {
	if h.venues == nil {
		return nil, nil
	}
	return h.venues.Lookup(ctx, id)
}

// HandleCancelClass /cancelclass ID: расписание остаётся в истории, но перестаёт блокировать ресурсы
func (h *Handlers) HandleCancelClass(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	id, err := parseUUIDArg(commandArgs(update.Message.Text), 0, "ID расписания")
	if err != nil {
		h.sendError(ctx, b, chatID, "❌ "+err.Error())
		return
	}

	cancelled := model.ScheduleStatusCancelled
	resp, err := h.scheduleService.Update(ctx, id, service.UpdateScheduleRequest{Status: &cancelled})
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "cancel schedule", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Расписание отменено.\n\n"+formatSchedule(resp, h.referenceNames(ctx, resp)))
}

// HandleDeleteClass /deleteclass ID
func (h *Handlers) HandleDeleteClass(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	id, err := parseUUIDArg(commandArgs(update.Message.Text), 0, "ID расписания")
	if err != nil {
		h.sendError(ctx, b, chatID, "❌ "+err.Error())
		return
	}

	if err := h.scheduleService.Delete(ctx, id); err != nil {
		h.replyServiceError(ctx, b, chatID, "delete schedule", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "🗑 Расписание удалено.")
}

// HandleImport /import: ждём файл следующим сообщением
func (h *Handlers) HandleImport(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.stateManager.SetState(update.Message.From.ID, state.StateAwaitingImportFile)

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"📎 Отправьте файл CSV или XLSX.\n\nПервая строка - заголовок:\n"+
			"start_date,end_date,start_time,end_time,instructor_id,group_id,venue_id,subject,notes\n\n"+
			"Для отмены: /cancel")
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID

	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.")
}
