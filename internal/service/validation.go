package service

import (
	"errors"
	"strings"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

var (
	// ErrValidation is the parent of every record admission failure.
	ErrValidation = errors.New("validation failed")
	// ErrSumExceedsTotal indicates cause counts add up to more than the reported total.
	ErrSumExceedsTotal = newValidationError("sum of absences by cause exceeds total absent")
	// ErrNegativeCount indicates a count field below zero.
	ErrNegativeCount = newValidationError("absence counts must not be negative")
	// ErrMissingName indicates an event submission without a name.
	ErrMissingName = newValidationError("event name is required")
	// ErrMissingParticipant indicates a submission that names nobody.
	ErrMissingParticipant = newValidationError("at least one participant is required")
	// ErrMissingClass indicates an individual event submission without a class.
	ErrMissingClass = newValidationError("participant class is required")
	// ErrNoClassesSelected indicates a group event submission without classes.
	ErrNoClassesSelected = newValidationError("at least one class must be selected")
	// ErrBlankParticipant indicates a blank participant name in a group batch under the reject policy.
	ErrBlankParticipant = newValidationError("participant name must not be blank")
	// ErrInvalidEventField indicates an unknown event level, type or result.
	ErrInvalidEventField = newValidationError("unknown event level, type or result")
)

type validationError struct {
	msg string
}

func newValidationError(msg string) error {
	return &validationError{msg: msg}
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

// ValidateAbsence admits or rejects a candidate absence record. Only the counts are checked.
func ValidateAbsence(record models.AbsenceRecord) error {
	if record.TotalAbsent < 0 || record.SickCount < 0 || record.ExcusedCount < 0 || record.UnexcusedCount < 0 {
		return ErrNegativeCount
	}
	// Compared by remainders so that huge counts cannot wrap the sum.
	total, sick, excused := record.TotalAbsent, record.SickCount, record.ExcusedCount
	if sick > total || excused > total-sick || record.UnexcusedCount > total-sick-excused {
		return ErrSumExceedsTotal
	}
	return nil
}

// GroupClassEntry lists the participants entered for one selected class of a group event.
type GroupClassEntry struct {
	ClassLabel   string
	Participants []string
}

// EventBatch is one submission of the event form, before flattening into records.
type EventBatch struct {
	EventName   string
	EventLevel  models.EventLevel
	EventType   models.EventType
	EventResult models.EventResult
	// Participants and ClassLabel are used by individual events.
	Participants []string
	ClassLabel   string
	// Classes is used by group events.
	Classes []GroupClassEntry
}

// ValidateEventBatch checks a batch and flattens it into one record per participant.
// With skipBlank set, blank participant names in group classes are dropped instead of
// rejecting the whole batch.
func ValidateEventBatch(batch EventBatch, skipBlank bool) ([]models.EventRecord, error) {
	name := strings.TrimSpace(batch.EventName)
	if name == "" {
		return nil, ErrMissingName
	}
	if !knownLevel(batch.EventLevel) || !knownResult(batch.EventResult) {
		return nil, ErrInvalidEventField
	}

	newRecord := func(participant, class string) models.EventRecord {
		return models.EventRecord{
			EventName:       name,
			EventLevel:      batch.EventLevel,
			EventType:       batch.EventType,
			EventResult:     batch.EventResult,
			ParticipantName: participant,
			ClassLabel:      class,
		}
	}

	var records []models.EventRecord
	switch batch.EventType {
	case models.EventTypeIndividual:
		participants := nonBlank(batch.Participants)
		if len(participants) == 0 {
			return nil, ErrMissingParticipant
		}
		class := strings.TrimSpace(batch.ClassLabel)
		if class == "" {
			return nil, ErrMissingClass
		}
		for _, participant := range participants {
			records = append(records, newRecord(participant, class))
		}
	case models.EventTypeGroup:
		if len(batch.Classes) == 0 {
			return nil, ErrNoClassesSelected
		}
		for _, entry := range batch.Classes {
			class := strings.TrimSpace(entry.ClassLabel)
			if class == "" {
				return nil, ErrMissingClass
			}
			for _, participant := range entry.Participants {
				participant = strings.TrimSpace(participant)
				if participant == "" {
					if skipBlank {
						continue
					}
					return nil, ErrBlankParticipant
				}
				records = append(records, newRecord(participant, class))
			}
		}
		if len(records) == 0 {
			return nil, ErrMissingParticipant
		}
	default:
		return nil, ErrInvalidEventField
	}

	return records, nil
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func knownLevel(level models.EventLevel) bool {
	for _, candidate := range models.EventLevels() {
		if candidate == level {
			return true
		}
	}
	return false
}

func knownResult(result models.EventResult) bool {
	for _, candidate := range models.EventResults() {
		if candidate == result {
			return true
		}
	}
	return false
}
