package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BulkUpload прогоняет каждую строку через Create независимо от остальных.
// Ошибка строки i записывается как "Row {i+1}: ..." и обработка продолжается, отката нет
func (s *ScheduleService) BulkUpload(ctx context.Context, requests []CreateScheduleRequest) *BulkUploadResult {
	return s.processRows(ctx, len(requests), nil, func(i int) error {
		_, err := s.Create(ctx, requests[i])
		return err
	})
}

// BulkUploadRows то же для сырых строк файла: строка, не прошедшая разбор, считается неудачной.
// В ошибке указывается номер строки в файле (ScheduleRow.Line), если он известен
func (s *ScheduleService) BulkUploadRows(ctx context.Context, rows []ScheduleRow) *BulkUploadResult {
	line := func(i int) int {
		if rows[i].Line > 0 {
			return rows[i].Line
		}
		return i + 1
	}
	return s.processRows(ctx, len(rows), line, func(i int) error {
		req, err := rows[i].ToRequest()
		if err != nil {
			return err
		}
		_, err = s.Create(ctx, req)
		return err
	})
}

func (s *ScheduleService) processRows(ctx context.Context, n int, line func(i int) int, process func(i int) error) *BulkUploadResult {
	result := &BulkUploadResult{Errors: []string{}}
	if line == nil {
		line = func(i int) int { return i + 1 }
	}

	for i := 0; i < n; i++ {
		result.TotalProcessed++

		if err := process(i); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", line(i), err.Error()))
			continue
		}

		result.Successful++
	}

	s.logger.Info("Bulk upload finished",
		zap.Int("total_processed", result.TotalProcessed),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
	)

	return result
}
