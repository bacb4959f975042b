package repository

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

func TestEncodeAbsenceTableXLSX(t *testing.T) {
	data, err := EncodeAbsenceTable(sampleAbsences(), FormatXLSX)
	require.NoError(t, err)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", mimetype.Detect(data).String())

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows(file.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, models.AbsenceColumns, rows[0])
	require.Equal(t, "2024-01-10", rows[1][0])
}

func TestEncodeEventTableCSV(t *testing.T) {
	data, err := EncodeEventTable(sampleEvents(), FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, strings.Join(models.EventColumns, ","), lines[0])
	require.Contains(t, lines[2], "Петрова Анна")
}

func TestEncodeEmptyTableKeepsHeader(t *testing.T) {
	data, err := EncodeAbsenceTable(nil, "CSV")
	require.NoError(t, err)
	require.Equal(t, strings.Join(models.AbsenceColumns, ","), strings.TrimSpace(string(data)))
}

func TestEncodeRejectsUnknownFormat(t *testing.T) {
	_, err := EncodeEventTable(sampleEvents(), "ods")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
