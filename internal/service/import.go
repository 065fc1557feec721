package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// Колонки файла импорта (первая строка файла - заголовок)
var importColumns = []string{
	"start_date", "end_date", "start_time", "end_time",
	"instructor_id", "group_id", "venue_id", "subject", "notes",
}

var validate = newRowValidator()

func newRowValidator() *validator.Validate {
	v := validator.New()
	// В ошибках используем имена колонок, а не имена полей структуры
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("csv"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ScheduleRow строка файла импорта в сыром виде
type ScheduleRow struct {
	// Line номер строки в файле без заголовка, пустые строки тоже считаются. 0 если строка не из файла
	Line int `csv:"-"`

	StartDate    string `csv:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `csv:"end_date" validate:"required,datetime=2006-01-02"`
	StartTime    string `csv:"start_time" validate:"required,datetime=15:04"`
	EndTime      string `csv:"end_time" validate:"required,datetime=15:04"`
	InstructorID string `csv:"instructor_id" validate:"required,uuid"`
	GroupID      string `csv:"group_id" validate:"required,uuid"`
	VenueID      string `csv:"venue_id" validate:"required,uuid"`
	Subject      string `csv:"subject" validate:"required"`
	Notes        string `csv:"notes" validate:"max=2000"`
}

// FieldError ошибка конкретной колонки
type FieldError struct {
	Field string
	Error string
}

// RowValidationError строка файла не прошла проверку формата
type RowValidationError struct {
	Fields []FieldError
}

func (e *RowValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return "invalid row: " + strings.Join(parts, "; ")
}

func (e *RowValidationError) Unwrap() error { return model.ErrInvalidData }

// ToRequest проверяет формат строки и превращает её в запрос на создание
func (r ScheduleRow) ToRequest() (CreateScheduleRequest, error) {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return CreateScheduleRequest{}, err
		}
		rowErr := &RowValidationError{}
		for _, fe := range verrs {
			rowErr.Fields = append(rowErr.Fields, FieldError{Field: fe.Field(), Error: describeTag(fe)})
		}
		return CreateScheduleRequest{}, rowErr
	}

	var (
		req  CreateScheduleRequest
		errs []error
		err  error
	)
	if req.StartDate, err = model.ParseDate(r.StartDate); err != nil {
		errs = append(errs, err)
	}
	if req.EndDate, err = model.ParseDate(r.EndDate); err != nil {
		errs = append(errs, err)
	}
	if req.StartTime, err = model.ParseTimeOfDay(r.StartTime); err != nil {
		errs = append(errs, err)
	}
	if req.EndTime, err = model.ParseTimeOfDay(r.EndTime); err != nil {
		errs = append(errs, err)
	}
	if req.InstructorID, err = uuid.Parse(r.InstructorID); err != nil {
		errs = append(errs, err)
	}
	if req.GroupID, err = uuid.Parse(r.GroupID); err != nil {
		errs = append(errs, err)
	}
	if req.VenueID, err = uuid.Parse(r.VenueID); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return CreateScheduleRequest{}, errors.Join(errs...)
	}

	req.Subject = r.Subject
	req.Notes = r.Notes
	return req, nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "datetime":
		return fmt.Sprintf("expected format %s", layoutHint(fe.Param()))
	case "uuid":
		return "must be a valid UUID"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func layoutHint(layout string) string {
	switch layout {
	case model.DateLayout:
		return "YYYY-MM-DD"
	case "15:04":
		return "HH:MM"
	default:
		return layout
	}
}

// record строка файла и её номер: 0 у заголовка, дальше по порядку вместе с пустыми строками
type record struct {
	line   int
	fields []string
}

// ParseScheduleRows читает файл импорта. Формат выбирается по расширению: .xlsx или CSV
func ParseScheduleRows(filename string, r io.Reader) ([]ScheduleRow, error) {
	var (
		records []record
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	index, err := headerIndex(records[0].fields)
	if err != nil {
		return nil, err
	}

	rows := make([]ScheduleRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec.fields) {
			continue
		}
		cell := func(column string) string {
			i := index[column]
			if i < 0 || i >= len(rec.fields) {
				return ""
			}
			return strings.TrimSpace(rec.fields[i])
		}
		rows = append(rows, ScheduleRow{
			Line:         rec.line,
			StartDate:    cell("start_date"),
			EndDate:      cell("end_date"),
			StartTime:    cell("start_time"),
			EndTime:      cell("end_time"),
			InstructorID: cell("instructor_id"),
			GroupID:      cell("group_id"),
			VenueID:      cell("venue_id"),
			Subject:      cell("subject"),
			Notes:        cell("notes"),
		})
	}

	return rows, nil
}

// readCSV читает записи по одной. csv.Reader пропускает пустые строки,
// поэтому номер считаем по строкам файла: каждая пропущенная строка тоже занимает номер
func readCSV(r io.Reader) ([]record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		records []record
		row     int
		endLine int
	)
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		startLine, _ := reader.FieldPos(0)
		if len(records) > 0 {
			row += startLine - endLine
		}
		records = append(records, record{line: row, fields: fields})

		// Кавычки позволяют переносить значение на несколько строк
		last := len(fields) - 1
		lastLine, _ := reader.FieldPos(last)
		endLine = lastLine + strings.Count(fields[last], "\n")
	}
	return records, nil
}

func readXLSX(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}

	// GetRows сохраняет пустые строки внутри листа, индекс совпадает с номером строки
	records := make([]record, 0, len(rows))
	for i, fields := range rows {
		records = append(records, record{line: i, fields: fields})
	}
	return records, nil
}

// headerIndex сопоставляет колонки файла с ожидаемыми. notes необязательна
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(importColumns))
	for _, column := range importColumns {
		index[column] = -1
	}

	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := index[name]; ok {
			index[name] = i
		}
	}

	var missing []string
	for _, column := range importColumns {
		if index[column] < 0 && column != "notes" {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	return index, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
