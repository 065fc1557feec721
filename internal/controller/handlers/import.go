package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/elparchetipk/sicora-app-sub000/internal/controller/state"
	"github.com/elparchetipk/sicora-app-sub000/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// IsDocument матчер для сообщений с файлом
func IsDocument(update *models.Update) bool {
	return update.Message != nil && update.Message.Document != nil
}

// HandleDocument принимает файл импорта после /import
func (h *Handlers) HandleDocument(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID
	doc := update.Message.Document

	if h.stateManager.GetState(telegramID) != state.StateAwaitingImportFile {
		h.sendMessage(ctx, b, chatID, "ℹ️ Чтобы загрузить расписания, сначала отправьте /import")
		return
	}

	if err := checkImportFile(doc.FileName, doc.FileSize); err != nil {
		h.sendError(ctx, b, chatID, "❌ "+err.Error())
		return
	}

	data, err := h.download(ctx, b, doc.FileID)
	if err != nil {
		h.logger.Error("Failed to download import file",
			zap.String("file_name", doc.FileName),
			zap.Error(err),
		)
		h.sendError(ctx, b, chatID, "❌ Не удалось скачать файл. Попробуйте ещё раз.")
		return
	}

	rows, err := service.ParseScheduleRows(doc.FileName, bytes.NewReader(data))
	if err != nil {
		h.sendError(ctx, b, chatID, "❌ Не удалось прочитать файл: "+err.Error())
		return
	}

	h.stateManager.ClearState(telegramID)

	result := h.scheduleService.BulkUploadRows(ctx, rows)

	h.logger.Info("Schedules imported",
		zap.Int64("telegram_id", telegramID),
		zap.String("file_name", doc.FileName),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
	)

	h.sendMessage(ctx, b, chatID, formatBulkResult(result))
}

func checkImportFile(name string, size int64) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
	default:
		return fmt.Errorf("поддерживаются только файлы .csv и .xlsx")
	}
	if size > maxImportFileSize {
		return fmt.Errorf("файл больше %d МБ", maxImportFileSize>>20)
	}
	return nil
}

func (h *Handlers) download(ctx context.Context, b *bot.Bot, fileID string) ([]byte, error) {
	file, err := b.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImportFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxImportFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxImportFileSize)
	}
	return data, nil
}
