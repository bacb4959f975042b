package dto

import "github.com/noah-isme/absence-tracker-api/internal/models"

// EventGroupClassRequest lists participants entered for one selected class.
type EventGroupClassRequest struct {
	ClassLabel   string   `json:"class_label" validate:"max=16"`
	Participants []string `json:"participants" validate:"max=50,dive,max=255"`
}

// EventCreateRequest is the payload of the event participation form.
type EventCreateRequest struct {
	EventName    string                   `json:"event_name" validate:"max=255"`
	EventLevel   models.EventLevel        `json:"event_level" validate:"required"`
	EventType    models.EventType         `json:"event_type" validate:"required"`
	EventResult  models.EventResult       `json:"event_result" validate:"required"`
	Participants []string                 `json:"participants" validate:"dive,max=255"`
	ClassLabel   string                   `json:"class_label" validate:"max=16"`
	Classes      []EventGroupClassRequest `json:"classes" validate:"dive"`
}

// EventSubmitResponse reports the records admitted from one form submission.
type EventSubmitResponse struct {
	Records   []models.EventRecord `json:"records"`
	Skipped   int                  `json:"skipped"`
	TableSize int                  `json:"table_size"`
	Persisted bool                 `json:"persisted"`
	Warning   string               `json:"warning,omitempty"`
}

// ResultCountResponse is one row of a class result distribution.
type ResultCountResponse struct {
	Result models.EventResult `json:"result"`
	Count  int                `json:"count"`
}

// ClassEventResponse is one event of a class.
type ClassEventResponse struct {
	EventName    string             `json:"event_name"`
	EventLevel   models.EventLevel  `json:"event_level"`
	EventType    models.EventType   `json:"event_type"`
	EventResult  models.EventResult `json:"event_result"`
	Participants []string           `json:"participants"`
}

// EventClassReportResponse is the per-class analysis of event results.
type EventClassReportResponse struct {
	ClassLabel string                `json:"class_label"`
	Results    []ResultCountResponse `json:"results"`
	Events     []ClassEventResponse  `json:"events"`
	Empty      bool                  `json:"empty"`
}

// ParticipantHistoryResponse lists the events of one participant.
type ParticipantHistoryResponse struct {
	ParticipantName string               `json:"participant_name"`
	Records         []models.EventRecord `json:"records"`
}

// EventOptionsResponse lists the values offered by the event form.
type EventOptionsResponse struct {
	Levels  []models.EventLevel  `json:"levels"`
	Types   []models.EventType   `json:"types"`
	Results []models.EventResult `json:"results"`
	Classes []string             `json:"classes"`
}
