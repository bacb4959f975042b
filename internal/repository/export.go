package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

// Export formats understood by EncodeAbsenceTable and EncodeEventTable.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ErrUnsupportedFormat indicates an export format other than xlsx or csv.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// EncodeAbsenceTable renders table in the same layout the file stores use.
func EncodeAbsenceTable(table models.AbsenceTable, format string) ([]byte, error) {
	return encodeTable(absenceCodec, []models.AbsenceRecord(table), format)
}

// EncodeEventTable renders table in the same layout the file stores use.
func EncodeEventTable(table models.EventTable, format string) ([]byte, error) {
	return encodeTable(eventCodec, []models.EventRecord(table), format)
}

func encodeTable[T any](codec sheetCodec[T], records []T, format string) ([]byte, error) {
	if records == nil {
		records = []T{}
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatXLSX, "":
		file, err := buildWorkbook(codec, records)
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		buf, err := file.WriteToBuffer()
		if err != nil {
			return nil, fmt.Errorf("write workbook: %w", err)
		}
		return buf.Bytes(), nil
	case FormatCSV:
		data, err := gocsv.MarshalBytes(&records)
		if err != nil {
			return nil, fmt.Errorf("encode csv: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
