package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ScheduleCompleter переводит закончившиеся расписания в completed
type ScheduleCompleter interface {
	CompleteFinished(ctx context.Context, today time.Time) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	completer ScheduleCompleter
	interval  time.Duration
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
	stopChan  chan struct{}
	done      chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(completer ScheduleCompleter, interval time.Duration, location *time.Location, logger *zap.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{
		completer: completer,
		interval:  interval,
		location:  location,
		now:       time.Now,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runCompletionTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прогона
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runCompletionTask периодически завершает расписания, у которых прошла дата окончания
func (s *Scheduler) runCompletionTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.completeFinished(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.completeFinished(ctx)
		case <-s.stopChan:
			s.logger.Info("Completion task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Completion task cancelled")
			return
		}
	}
}

func (s *Scheduler) completeFinished(ctx context.Context) {
	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	count, err := s.completer.CompleteFinished(ctx, today)
	if err != nil {
		s.logger.Error("Failed to complete finished schedules", zap.Error(err))
		return
	}

	if count > 0 {
		s.logger.Info("Finished schedules completed", zap.Int("count", count))
	}
}
