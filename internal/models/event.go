package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Column headers of the event participation table.
const (
	EventColumnName        = "Название мероприятия"
	EventColumnLevel       = "Уровень мероприятия"
	EventColumnType        = "Тип мероприятия"
	EventColumnResult      = "Результат участия"
	EventColumnParticipant = "Участник"
	EventColumnClass       = "Класс"
)

// EventColumns lists the event table header in storage order.
var EventColumns = []string{
	EventColumnName,
	EventColumnLevel,
	EventColumnType,
	EventColumnResult,
	EventColumnParticipant,
	EventColumnClass,
}

// EventLevel is the organisational level of a competition or event.
type EventLevel string

const (
	EventLevelOblast   EventLevel = "Областной"
	EventLevelRegional EventLevel = "Региональный"
	EventLevelCity     EventLevel = "Городской"
	EventLevelSchool   EventLevel = "Школьный"
)

var eventLevelCodes = map[string]EventLevel{
	"oblast":   EventLevelOblast,
	"regional": EventLevelRegional,
	"city":     EventLevelCity,
	"school":   EventLevelSchool,
}

// EventLevels returns the selectable levels in form order.
func EventLevels() []EventLevel {
	return []EventLevel{EventLevelOblast, EventLevelRegional, EventLevelCity, EventLevelSchool}
}

// ParseEventLevel accepts either the stored label or its latin code.
func ParseEventLevel(value string) (EventLevel, error) {
	value = strings.TrimSpace(value)
	for _, level := range EventLevels() {
		if string(level) == value {
			return level, nil
		}
	}
	if level, ok := eventLevelCodes[strings.ToLower(value)]; ok {
		return level, nil
	}
	return "", fmt.Errorf("unknown event level %q", value)
}

func (l *EventLevel) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(raw string) error {
		parsed, err := ParseEventLevel(raw)
		*l = parsed
		return err
	})
}

// EventType distinguishes individual entries from team entries.
type EventType string

const (
	EventTypeIndividual EventType = "Индивидуальный"
	EventTypeGroup      EventType = "Групповой"
)

// ParseEventType accepts either the stored label or "individual"/"group".
func ParseEventType(value string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "individual", strings.ToLower(string(EventTypeIndividual)):
		return EventTypeIndividual, nil
	case "group", strings.ToLower(string(EventTypeGroup)):
		return EventTypeGroup, nil
	}
	return "", fmt.Errorf("unknown event type %q", value)
}

func (t *EventType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(raw string) error {
		parsed, err := ParseEventType(raw)
		*t = parsed
		return err
	})
}

// EventResult is the outcome achieved by a participant.
type EventResult string

const (
	EventResultWinner       EventResult = "Победитель"
	EventResultRunnerUp2    EventResult = "Призер (2 место)"
	EventResultRunnerUp3    EventResult = "Призер (3 место)"
	EventResultParticipant  EventResult = "Участник"
	EventResultDiploma1     EventResult = "Диплом 1 степени"
	EventResultDiploma2     EventResult = "Диплом 2 степени"
	EventResultDiploma3     EventResult = "Диплом 3 степени"
	EventResultLaureate     EventResult = "Лауреат"
	EventResultGrandPrix    EventResult = "Гран-при"
	EventResultDiplomant    EventResult = "Дипломант"
	EventResultSpecialPrize EventResult = "Специальный приз"
)

var eventResultCodes = map[string]EventResult{
	"winner":        EventResultWinner,
	"runner_up_2":   EventResultRunnerUp2,
	"runner_up_3":   EventResultRunnerUp3,
	"participant":   EventResultParticipant,
	"diploma_1":     EventResultDiploma1,
	"diploma_2":     EventResultDiploma2,
	"diploma_3":     EventResultDiploma3,
	"laureate":      EventResultLaureate,
	"grand_prix":    EventResultGrandPrix,
	"diplomant":     EventResultDiplomant,
	"special_prize": EventResultSpecialPrize,
}

// EventResults returns the selectable outcomes in form order.
func EventResults() []EventResult {
	return []EventResult{
		EventResultWinner, EventResultRunnerUp2, EventResultRunnerUp3, EventResultParticipant,
		EventResultDiploma1, EventResultDiploma2, EventResultDiploma3,
		EventResultLaureate, EventResultGrandPrix, EventResultDiplomant, EventResultSpecialPrize,
	}
}

// ParseEventResult accepts either the stored label or its latin code.
func ParseEventResult(value string) (EventResult, error) {
	value = strings.TrimSpace(value)
	for _, result := range EventResults() {
		if string(result) == value {
			return result, nil
		}
	}
	if result, ok := eventResultCodes[strings.ToLower(value)]; ok {
		return result, nil
	}
	return "", fmt.Errorf("unknown event result %q", value)
}

func (r *EventResult) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, func(raw string) error {
		parsed, err := ParseEventResult(raw)
		*r = parsed
		return err
	})
}

func unmarshalEnum(data []byte, parse func(string) error) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return parse(raw)
}

// EventRecord is one participant of one event; group events produce one record per participant.
type EventRecord struct {
	EventName       string      `json:"event_name" csv:"Название мероприятия"`
	EventLevel      EventLevel  `json:"event_level" csv:"Уровень мероприятия"`
	EventType       EventType   `json:"event_type" csv:"Тип мероприятия"`
	EventResult     EventResult `json:"event_result" csv:"Результат участия"`
	ParticipantName string      `json:"participant_name" csv:"Участник"`
	ClassLabel      string      `json:"class_label" csv:"Класс"`
}

// EventTable is the ordered collection of event participation records.
type EventTable []EventRecord
