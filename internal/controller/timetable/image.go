package timetable

import (
	"bytes"
	"image/color"
	"strconv"
	"time"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Константы размеров и отступов
const (
	imageWidth      = 1400
	imageHeight     = 900
	headerHeight    = 100
	leftLabelsWidth = 80
	legendWidth     = 140
	dayPaddingX     = 6
	minEntryHeight  = 8.0
	entryRadius     = 6.0
	shadowOffset    = 3.0
	daysInWeek      = 7
	hourPaddingTop  = 1
	hourPaddingBot  = 1
	defaultMinHour  = 7
	defaultMaxHour  = 18
	maxLabelRunes   = 22
	lineHeight      = 14.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 90}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{225, 225, 225, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	activeColor      = color.RGBA{133, 193, 85, 220}
	rescheduledColor = color.RGBA{255, 196, 87, 230}
	completedColor   = color.RGBA{140, 170, 210, 220}
	cancelledColor   = color.RGBA{170, 170, 170, 200}
	entryTextColor   = color.RGBA{20, 24, 28, 230}
	entryShadowColor = color.RGBA{0, 0, 0, 20}
	legendItemColor  = color.RGBA{70, 74, 78, 220}
)

// Week параметры картинки: неделя, заголовок и расписания, которые в неё попадают
type Week struct {
	Start     time.Time
	Title     string
	Schedules []*model.Schedule
	// Now момент "сейчас" для подсветки сегодняшнего дня, нулевое значение отключает подсветку
	Now time.Time
	// Face шрифт, по умолчанию basicfont (только ASCII)
	Face font.Face
}

// Bounds первый (понедельник) и последний (воскресенье) день недели
type Bounds struct {
	Start time.Time
	End   time.Time
}

type hourRange struct {
	start int
	end   int
	total int
}

// Render рисует недельное расписание в PNG. Расписание повторяется в каждый день своего
// диапазона дат, поэтому рисуется во всех днях недели, которые покрывает
func Render(w Week) ([]byte, error) {
	week := WeekOf(w.Start)
	face := w.Face
	if face == nil {
		face = basicfont.Face7x13
	}

	highlightToday := !w.Now.IsZero() && week.contains(model.Date(w.Now))
	hours := calculateHourRange(w.Schedules)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(face)

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, week, w.Title)
	drawHourLabels(dc, hours, cellHeight)

	for i := 0; i < daysInWeek; i++ {
		day := week.Start.AddDate(0, 0, i)
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)
		isToday := highlightToday && day.Equal(model.Date(w.Now))

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, isToday)
		drawDayHeader(dc, day, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, s := range schedulesOn(w.Schedules, day) {
			drawEntry(dc, s, x, y, dayWidth, hours, cellHeight)
		}
	}

	if highlightToday {
		drawCurrentTimeLine(dc, w.Now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WeekOf границы недели, в которую попадает дата
func WeekOf(date time.Time) Bounds {
	day := model.Date(date)

	daysSinceMonday := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}

	start := day.AddDate(0, 0, -daysSinceMonday)
	return Bounds{Start: start, End: start.AddDate(0, 0, 6)}
}

func (b Bounds) contains(day time.Time) bool {
	return !day.Before(b.Start) && !day.After(b.End)
}

func schedulesOn(schedules []*model.Schedule, day time.Time) []*model.Schedule {
	var result []*model.Schedule
	for _, s := range schedules {
		if s.Window().Covers(day) {
			result = append(result, s)
		}
	}
	return result
}

// calculateHourRange диапазон часов, в который помещаются все занятия
func calculateHourRange(schedules []*model.Schedule) hourRange {
	minHour, maxHour := 24, 0

	for _, s := range schedules {
		startH := s.TimeSlot.Start().Hour()
		endH := s.TimeSlot.End().Hour()
		if s.TimeSlot.End().Minute() > 0 {
			endH++
		}
		minHour = min(minHour, startH)
		maxHour = max(maxHour, endH)
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(minHour-hourPaddingTop, 0)
	end := min(maxHour+hourPaddingBot, 24)

	return hourRange{start: start, end: end, total: end - start}
}

func drawHeader(dc *gg.Context, week Bounds, title string) {
	period := week.Start.Format("02 Jan") + " - " + week.End.Format("02 Jan 2006")

	dc.SetColor(textColor)
	dc.DrawString(title, 16, float64(headerHeight)/4)
	dc.DrawString(period, 16, float64(headerHeight)/4+lineHeight+4)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	dc.SetColor(hourLabelColor)

	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, day time.Time, x, y float64, dayWidth int) {
	dc.SetColor(textColor)
	dc.DrawStringAnchored(day.Format("Mon"), x+float64(dayWidth)/2, y-lineHeight-8, 0.5, 0)
	dc.DrawStringAnchored(day.Format("02.01"), x+float64(dayWidth)/2, y-8, 0.5, 0)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawEntry(dc *gg.Context, s *model.Schedule, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(s.TimeSlot.Start().Minutes()) / 60
	endHour := float64(s.TimeSlot.End().Minutes()) / 60

	entryY := y + (startHour-float64(hours.start))*cellHeight
	entryHeight := max((endHour-startHour)*cellHeight, minEntryHeight)
	entryWidth := float64(dayWidth) - dayPaddingX*2
	fill := statusColor(s.Status)

	dc.SetColor(entryShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, entryY+2+shadowOffset, entryWidth, entryHeight-4, entryRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, entryY+2, entryWidth, entryHeight-4, entryRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, entryY+2, entryWidth, entryHeight-4, entryRadius)
	dc.Stroke()

	dc.SetColor(entryTextColor)
	txtX := x + dayPaddingX + 6
	txtY := entryY + 4 + lineHeight
	dc.DrawString(s.TimeSlot.String(), txtX, txtY)

	// Название предмета, если помещается
	if entryHeight > 2*lineHeight+6 {
		dc.DrawString(truncate(s.Subject, maxLabelRunes), txtX, txtY+lineHeight)
	}
}

func statusColor(status model.ScheduleStatus) color.RGBA {
	switch status {
	case model.ScheduleStatusActive:
		return activeColor
	case model.ScheduleStatusRescheduled:
		return rescheduledColor
	case model.ScheduleStatusCompleted:
		return completedColor
	default:
		return cancelledColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	lineY := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2)
	dc.DrawLine(float64(leftLabelsWidth), lineY, float64(leftLabelsWidth+daysInWeek*dayWidth), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"active", activeColor},
		{"rescheduled", rescheduledColor},
		{"completed", completedColor},
		{"cancelled", cancelledColor},
	}

	const boxW, boxH = 20.0, 14.0
	x := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	y := float64(imageHeight) - 130.0

	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, x+boxW+8, y+boxH/2, 0, 0.5)
		y += boxH + 14
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatHourLabel(h int) string {
	if h < 10 {
		return "0" + strconv.Itoa(h) + ":00"
	}
	return strconv.Itoa(h) + ":00"
}
