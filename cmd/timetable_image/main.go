package main

import (
	"fmt"
	"os"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/controller/timetable"
	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/google/uuid"
)

// Рисует картинку недели на тестовых данных, чтобы проверить вёрстку без бота
func main() {
	now := time.Now()
	week := timetable.WeekOf(now)

	venueID := uuid.New()
	groupID := uuid.New()

	samples := []struct {
		from, to     int
		startH, endH int
		subject      string
		status       model.ScheduleStatus
	}{
		{0, 4, 8, 10, "Programming basics", model.ScheduleStatusActive},
		{0, 2, 10, 12, "Databases", model.ScheduleStatusActive},
		{1, 1, 14, 16, "Networks", model.ScheduleStatusRescheduled},
		{2, 3, 14, 17, "English", model.ScheduleStatusCancelled},
		{-7, 3, 16, 18, "Math", model.ScheduleStatusActive},
		{4, 5, 9, 11, "Ethics", model.ScheduleStatusCompleted},
	}

	schedules := make([]*model.Schedule, 0, len(samples))
	for _, smp := range samples {
		slot, err := model.NewTimeSlot(model.MustTimeOfDay(smp.startH, 0), model.MustTimeOfDay(smp.endH, 0))
		if err != nil {
			fmt.Printf("Ошибка слота: %v\n", err)
			os.Exit(1)
		}

		s, err := model.NewSchedule(model.NewScheduleParams{
			StartDate:    week.Start.AddDate(0, 0, smp.from),
			EndDate:      week.Start.AddDate(0, 0, smp.to),
			TimeSlot:     slot,
			InstructorID: uuid.New(),
			GroupID:      groupID,
			VenueID:      venueID,
			Subject:      smp.subject,
		})
		if err != nil {
			fmt.Printf("Ошибка расписания: %v\n", err)
			os.Exit(1)
		}
		s.Status = smp.status
		schedules = append(schedules, s)
	}

	imageData, err := timetable.Render(timetable.Week{
		Start:     week.Start,
		Title:     "venue " + venueID.String(),
		Schedules: schedules,
		Now:       now,
	})
	if err != nil {
		fmt.Printf("Ошибка генерации изображения: %v\n", err)
		os.Exit(1)
	}

	filename := "week.png"
	if err := os.WriteFile(filename, imageData, 0644); err != nil {
		fmt.Printf("Ошибка сохранения файла: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Изображение успешно сохранено в %s\n", filename)
	fmt.Printf("📅 Период: %s - %s\n", week.Start.Format("02.01.2006"), week.End.Format("02.01.2006"))
	fmt.Printf("📊 Расписаний: %d\n", len(schedules))
}
