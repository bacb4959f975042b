package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

const defaultSheetName = "Sheet1"

// sheetCodec maps one record type to spreadsheet rows.
type sheetCodec[T any] struct {
	header []string
	encode func(T) []interface{}
	decode func(row []string, index map[string]int) (T, error)
}

type xlsxSheet[T any] struct {
	path  string
	codec sheetCodec[T]
}

func (s xlsxSheet[T]) load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return []T{}, nil
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return []T{}, nil
	}

	index, err := headerIndex(rows[0], s.codec.header)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		record, err := s.codec.decode(row, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, record)
	}
	return out, nil
}

func (s xlsxSheet[T]) save(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := buildWorkbook(s.codec, records)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	return writeFileAtomic(s.path, func(f *os.File) error {
		if _, err := file.WriteTo(f); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		return nil
	})
}

func buildWorkbook[T any](codec sheetCodec[T], records []T) (*excelize.File, error) {
	file := excelize.NewFile()

	header := make([]interface{}, 0, len(codec.header))
	for _, column := range codec.header {
		header = append(header, column)
	}
	if err := file.SetSheetRow(defaultSheetName, "A1", &header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		row := codec.encode(record)
		if err := checkCellLengths(row); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
		if err := file.SetSheetRow(defaultSheetName, cell, &row); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return file, nil
}

type absenceXLSXRepository struct {
	sheet xlsxSheet[models.AbsenceRecord]
}

// NewAbsenceXLSXRepository stores the absence table in a single-sheet workbook at path.
func NewAbsenceXLSXRepository(path string) AbsenceRepository {
	return &absenceXLSXRepository{sheet: xlsxSheet[models.AbsenceRecord]{path: path, codec: absenceCodec}}
}

func (r *absenceXLSXRepository) Load(ctx context.Context) (models.AbsenceTable, error) {
	records, err := r.sheet.load(ctx)
	return models.AbsenceTable(records), err
}

func (r *absenceXLSXRepository) Save(ctx context.Context, table models.AbsenceTable) error {
	return r.sheet.save(ctx, table)
}

type eventXLSXRepository struct {
	sheet xlsxSheet[models.EventRecord]
}

// NewEventXLSXRepository stores the event table in a single-sheet workbook at path.
func NewEventXLSXRepository(path string) EventRepository {
	return &eventXLSXRepository{sheet: xlsxSheet[models.EventRecord]{path: path, codec: eventCodec}}
}

func (r *eventXLSXRepository) Load(ctx context.Context) (models.EventTable, error) {
	records, err := r.sheet.load(ctx)
	return models.EventTable(records), err
}

func (r *eventXLSXRepository) Save(ctx context.Context, table models.EventTable) error {
	return r.sheet.save(ctx, table)
}

var absenceCodec = sheetCodec[models.AbsenceRecord]{
	header: models.AbsenceColumns,
	encode: func(r models.AbsenceRecord) []interface{} {
		return []interface{}{
			r.Date.String(),
			r.ClassLabel,
			r.TotalAbsent,
			r.SickCount,
			r.ExcusedCount,
			r.UnexcusedCount,
		}
	},
	decode: func(row []string, index map[string]int) (models.AbsenceRecord, error) {
		var (
			record models.AbsenceRecord
			err    error
		)
		if record.Date, err = parseSheetDate(cellValue(row, index[models.AbsenceColumnDate])); err != nil {
			return record, err
		}
		record.ClassLabel = cellValue(row, index[models.AbsenceColumnClass])

		counts := []struct {
			column string
			target *int
		}{
			{models.AbsenceColumnTotal, &record.TotalAbsent},
			{models.AbsenceColumnSick, &record.SickCount},
			{models.AbsenceColumnExcused, &record.ExcusedCount},
			{models.AbsenceColumnUnexcused, &record.UnexcusedCount},
		}
		for _, count := range counts {
			if *count.target, err = parseSheetInt(cellValue(row, index[count.column])); err != nil {
				return record, fmt.Errorf("%s: %w", count.column, err)
			}
		}
		return record, nil
	},
}

var eventCodec = sheetCodec[models.EventRecord]{
	header: models.EventColumns,
	encode: func(r models.EventRecord) []interface{} {
		return []interface{}{
			r.EventName,
			string(r.EventLevel),
			string(r.EventType),
			string(r.EventResult),
			r.ParticipantName,
			r.ClassLabel,
		}
	},
	decode: func(row []string, index map[string]int) (models.EventRecord, error) {
		return models.EventRecord{
			EventName:       cellValue(row, index[models.EventColumnName]),
			EventLevel:      models.EventLevel(cellValue(row, index[models.EventColumnLevel])),
			EventType:       models.EventType(cellValue(row, index[models.EventColumnType])),
			EventResult:     models.EventResult(cellValue(row, index[models.EventColumnResult])),
			ParticipantName: cellValue(row, index[models.EventColumnParticipant]),
			ClassLabel:      cellValue(row, index[models.EventColumnClass]),
		}, nil
	},
}

// checkCellLengths refuses text excelize would truncate on write.
func checkCellLengths(row []interface{}) error {
	for _, value := range row {
		if text, ok := value.(string); ok && utf8.RuneCountInString(text) > excelize.TotalCellChars {
			return fmt.Errorf("cell text longer than %d characters", excelize.TotalCellChars)
		}
	}
	return nil
}

func headerIndex(header []string, columns []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[normalizeHeader(name)] = i
	}

	index := make(map[string]int, len(columns))
	for _, column := range columns {
		pos, ok := positions[normalizeHeader(column)]
		if !ok {
			return nil, fmt.Errorf("missing column %q", column)
		}
		index[column] = pos
	}
	return index, nil
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseSheetInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	// Spreadsheet editors sometimes turn integer cells into "5.0".
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not a whole number", value)
	}
	if f < float64(math.MinInt) || f >= float64(math.MaxInt) {
		return 0, fmt.Errorf("%q is out of range", value)
	}
	return int(f), nil
}

var sheetDateLayouts = []string{
	models.DateLayout,
	"2006-01-02 15:04:05",
	"02.01.2006",
	"01-02-06",
	"1/2/06",
	"1/2/2006",
}

func parseSheetDate(value string) (models.Date, error) {
	if value == "" {
		return models.Date{}, fmt.Errorf("missing date")
	}

	for _, layout := range sheetDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return models.DateOf(parsed), nil
		}
	}

	// Excel numeric date serial.
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return models.DateOf(parsed), nil
		}
	}

	return models.Date{}, fmt.Errorf("invalid date %q", value)
}
