package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/elparchetipk/sicora-app-sub000/internal/service"
	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// replyServiceError отвечает понятным текстом на доменную ошибку, остальные логирует
func (h *Handlers) replyServiceError(ctx context.Context, b *bot.Bot, chatID int64, op string, err error) {
	text, known := errorText(err)
	if !known {
		h.logger.Error("Command failed", zap.String("op", op), zap.Error(err))
	}
	h.sendError(ctx, b, chatID, text)
}

// errorText текст ответа для ошибки сервиса. known = false для инфраструктурных ошибок
func errorText(err error) (text string, known bool) {
	var (
		instructorBusy *model.InstructorNotAvailableError
		venueBusy      *model.VenueNotAvailableError
		notFound       *model.ScheduleNotFoundError
	)

	switch {
	case errors.As(err, &instructorBusy):
		return fmt.Sprintf("⚠️ Инструктор уже занят: %s", instructorBusy.Window), true
	case errors.As(err, &venueBusy):
		return fmt.Sprintf("⚠️ Аудитория уже занята: %s", venueBusy.Window), true
	case errors.As(err, &notFound):
		return "❌ Расписание не найдено.", true
	case errors.Is(err, model.ErrNotFound):
		return "❌ " + err.Error(), true
	case errors.Is(err, model.ErrInvalidData):
		return "❌ Некорректные данные: " + err.Error(), true
	default:
		return "❌ Произошла ошибка. Попробуйте позже.", false
	}
}

// commandArgs аргументы команды без самой команды: "/week venue ID" -> [venue ID]
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

func parseUUIDArg(args []string, i int, name string) (uuid.UUID, error) {
	if i >= len(args) {
		return uuid.Nil, fmt.Errorf("не указан %s", name)
	}
	id, err := uuid.Parse(args[i])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s должен быть UUID", name)
	}
	return id, nil
}

// parseDateArg дата из аргумента i или def, если аргумента нет
func parseDateArg(args []string, i int, def time.Time) (time.Time, error) {
	if i >= len(args) {
		return def, nil
	}
	d, err := model.ParseDate(args[i])
	if err != nil {
		return time.Time{}, fmt.Errorf("дата должна быть в формате ГГГГ-ММ-ДД")
	}
	return d, nil
}

var statusEmoji = map[model.ScheduleStatus]string{
	model.ScheduleStatusActive:      "🟢",
	model.ScheduleStatusRescheduled: "🟡",
	model.ScheduleStatusCompleted:   "🔵",
	model.ScheduleStatusCancelled:   "⚪",
}

// referenceNames имена аудиторий и групп из расписаний. Если справочник недоступен, в ответе останется ID
func (h *Handlers) referenceNames(ctx context.Context, schedules ...*service.ScheduleResponse) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string)
	for _, s := range schedules {
		if _, ok := names[s.VenueID]; !ok && h.venues != nil {
			if venue, err := h.venues.Lookup(ctx, s.VenueID); err != nil {
				h.logger.Warn("Venue lookup failed", zap.String("venue_id", s.VenueID.String()), zap.Error(err))
			} else if venue != nil {
				names[s.VenueID] = venue.Name
			}
		}
		if _, ok := names[s.GroupID]; !ok && h.groups != nil {
			if group, err := h.groups.Lookup(ctx, s.GroupID); err != nil {
				h.logger.Warn("Group lookup failed", zap.String("group_id", s.GroupID.String()), zap.Error(err))
			} else if group != nil {
				names[s.GroupID] = group.Name
			}
		}
	}
	return names
}

func nameOr(names map[uuid.UUID]string, id uuid.UUID) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id.String()
}

// formatSchedule форматирует расписание для отображения
func formatSchedule(s *service.ScheduleResponse, names map[uuid.UUID]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", statusEmoji[s.Status], s.Subject)
	fmt.Fprintf(&sb, "📅 %s - %s, %s-%s\n", s.StartDate, s.EndDate, s.StartTime, s.EndTime)
	fmt.Fprintf(&sb, "🏫 %s\n👥 %s\n👤 %s\n", nameOr(names, s.VenueID), nameOr(names, s.GroupID), s.InstructorID)
	fmt.Fprintf(&sb, "🆔 %s", s.ID)
	if s.Notes != "" {
		fmt.Fprintf(&sb, "\n📝 %s", s.Notes)
	}
	return sb.String()
}

func formatScheduleList(title string, schedules []*service.ScheduleResponse, names map[uuid.UUID]string) string {
	if len(schedules) == 0 {
		return title + "\n\nРасписаний нет."
	}

	parts := make([]string, 0, len(schedules)+1)
	parts = append(parts, fmt.Sprintf("%s (%d)", title, len(schedules)))
	for _, s := range schedules {
		parts = append(parts, formatSchedule(s, names))
	}
	if len(schedules) == listLimit {
		parts = append(parts, fmt.Sprintf("Показаны первые %d.", listLimit))
	}
	return strings.Join(parts, "\n\n")
}

// formatBulkResult итог импорта: счётчики и первые ошибки строк
func formatBulkResult(result *service.BulkUploadResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📥 Импорт завершён\n\nВсего строк: %d\n✅ Успешно: %d\n❌ С ошибками: %d",
		result.TotalProcessed, result.Successful, result.Failed)

	if len(result.Errors) == 0 {
		return sb.String()
	}

	sb.WriteString("\n")
	for i, e := range result.Errors {
		if i == maxReportedErrors {
			fmt.Fprintf(&sb, "\n…и ещё %d", len(result.Errors)-maxReportedErrors)
			break
		}
		sb.WriteString("\n• " + e)
	}
	return sb.String()
}
