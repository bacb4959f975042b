package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

func TestValidateAbsenceSumAgainstTotal(t *testing.T) {
	for total := 0; total <= 4; total++ {
		for sick := 0; sick <= 3; sick++ {
			for excused := 0; excused <= 3; excused++ {
				for unexcused := 0; unexcused <= 3; unexcused++ {
					record := models.AbsenceRecord{
						Date:           models.NewDate(2024, time.January, 10),
						ClassLabel:     "10А",
						TotalAbsent:    total,
						SickCount:      sick,
						ExcusedCount:   excused,
						UnexcusedCount: unexcused,
					}
					err := ValidateAbsence(record)
					if sick+excused+unexcused > total {
						require.ErrorIs(t, err, ErrSumExceedsTotal, "%+v", record)
					} else {
						require.NoError(t, err, "%+v", record)
					}
				}
			}
		}
	}
}

func TestValidateAbsenceRejectsCountsThatWouldOverflow(t *testing.T) {
	cases := []models.AbsenceRecord{
		{TotalAbsent: 5, SickCount: math.MaxInt, ExcusedCount: math.MaxInt, UnexcusedCount: 2},
		{TotalAbsent: 5, SickCount: 1, ExcusedCount: math.MaxInt, UnexcusedCount: math.MaxInt},
		{TotalAbsent: 0, SickCount: math.MaxInt, ExcusedCount: 1, UnexcusedCount: 1},
	}
	for _, record := range cases {
		require.ErrorIs(t, ValidateAbsence(record), ErrSumExceedsTotal, "%+v", record)
	}

	full := models.AbsenceRecord{TotalAbsent: math.MaxInt, SickCount: math.MaxInt - 2, ExcusedCount: 1, UnexcusedCount: 1}
	require.NoError(t, ValidateAbsence(full))
}

func TestValidateAbsenceRejectsNegativeCounts(t *testing.T) {
	cases := []models.AbsenceRecord{
		{TotalAbsent: -1},
		{TotalAbsent: 3, SickCount: -1},
		{TotalAbsent: 3, ExcusedCount: -2},
		{TotalAbsent: 3, SickCount: 4, UnexcusedCount: -1},
	}
	for _, record := range cases {
		err := ValidateAbsence(record)
		require.ErrorIs(t, err, ErrNegativeCount)
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestValidateAbsenceAcceptsAnyLabelAndDate(t *testing.T) {
	record := models.AbsenceRecord{Date: models.NewDate(2099, time.December, 31), ClassLabel: "anything", TotalAbsent: 2, SickCount: 1}
	require.NoError(t, ValidateAbsence(record))
}

func individualBatch() EventBatch {
	return EventBatch{
		EventName:    "Олимпиада по физике",
		EventLevel:   models.EventLevelRegional,
		EventType:    models.EventTypeIndividual,
		EventResult:  models.EventResultRunnerUp2,
		Participants: []string{"Иванов Иван", "  ", "Петров Петр"},
		ClassLabel:   "10А",
	}
}

func groupBatch() EventBatch {
	return EventBatch{
		EventName:   "Смотр строя",
		EventLevel:  models.EventLevelSchool,
		EventType:   models.EventTypeGroup,
		EventResult: models.EventResultGrandPrix,
		Classes: []GroupClassEntry{
			{ClassLabel: "5А", Participants: []string{"Анна", ""}},
			{ClassLabel: "6Б", Participants: []string{"Борис"}},
		},
	}
}

func TestValidateEventBatchIndividual(t *testing.T) {
	records, err := ValidateEventBatch(individualBatch(), true)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Иванов Иван", records[0].ParticipantName)
	require.Equal(t, "Петров Петр", records[1].ParticipantName)
	for _, record := range records {
		require.Equal(t, "10А", record.ClassLabel)
		require.Equal(t, models.EventResultRunnerUp2, record.EventResult)
	}
}

func TestValidateEventBatchGroupBlankPolicy(t *testing.T) {
	records, err := ValidateEventBatch(groupBatch(), true)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "5А", records[0].ClassLabel)
	require.Equal(t, "6Б", records[1].ClassLabel)

	_, err = ValidateEventBatch(groupBatch(), false)
	require.ErrorIs(t, err, ErrBlankParticipant)
}

func TestValidateEventBatchErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*EventBatch)
		group  bool
		want   error
	}{
		{name: "missing name", mutate: func(b *EventBatch) { b.EventName = "  " }, want: ErrMissingName},
		{name: "no participants", mutate: func(b *EventBatch) { b.Participants = []string{"", " "} }, want: ErrMissingParticipant},
		{name: "missing class", mutate: func(b *EventBatch) { b.ClassLabel = "" }, want: ErrMissingClass},
		{name: "unknown level", mutate: func(b *EventBatch) { b.EventLevel = "Federal" }, want: ErrInvalidEventField},
		{name: "unknown type", mutate: func(b *EventBatch) { b.EventType = "Mixed" }, want: ErrInvalidEventField},
		{name: "no classes", group: true, mutate: func(b *EventBatch) { b.Classes = nil }, want: ErrNoClassesSelected},
		{name: "all blank", group: true, mutate: func(b *EventBatch) {
			b.Classes = []GroupClassEntry{{ClassLabel: "5А", Participants: []string{"", ""}}}
		}, want: ErrMissingParticipant},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch := individualBatch()
			if tc.group {
				batch = groupBatch()
			}
			tc.mutate(&batch)

			records, err := ValidateEventBatch(batch, true)
			require.Nil(t, records)
			require.ErrorIs(t, err, tc.want)
			require.True(t, errors.Is(err, ErrValidation))
		})
	}
}
