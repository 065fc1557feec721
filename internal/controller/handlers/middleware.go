package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func (h *Handlers) isAdmin(telegramID int64) bool {
	_, ok := h.admins[telegramID]
	return ok
}

// AdminOnly пропускает к обработчику только сообщения администраторов
func (h *Handlers) AdminOnly(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		telegramID := update.Message.From.ID
		if !h.isAdmin(telegramID) {
			h.logger.Warn("Rejected command from non-admin",
				zap.Int64("telegram_id", telegramID),
				zap.String("text", update.Message.Text),
			)
			h.sendError(ctx, b, update.Message.Chat.ID, "⛔ Бот доступен только администраторам расписания.")
			return
		}

		next(ctx, b, update)
	}
}
