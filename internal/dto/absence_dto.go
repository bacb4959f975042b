package dto

import (
	"time"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

// NotApplicable is rendered in place of percentages when nobody was absent.
const NotApplicable = "N/A"

// AbsenceCreateRequest is the payload of the absence entry form.
type AbsenceCreateRequest struct {
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	ClassLabel     string `json:"class_label" validate:"required,max=16"`
	TotalAbsent    int    `json:"total_absent" validate:"max=100000"`
	SickCount      int    `json:"sick_count" validate:"max=100000"`
	ExcusedCount   int    `json:"excused_count" validate:"max=100000"`
	UnexcusedCount int    `json:"unexcused_count" validate:"max=100000"`
}

// AbsenceRecordResponse serializes one stored absence row.
type AbsenceRecordResponse struct {
	Date           models.Date `json:"date"`
	ClassLabel     string      `json:"class_label"`
	TotalAbsent    int         `json:"total_absent"`
	SickCount      int         `json:"sick_count"`
	ExcusedCount   int         `json:"excused_count"`
	UnexcusedCount int         `json:"unexcused_count"`
}

// NewAbsenceRecordResponse converts a model into a DTO.
func NewAbsenceRecordResponse(record models.AbsenceRecord) AbsenceRecordResponse {
	return AbsenceRecordResponse{
		Date:           record.Date,
		ClassLabel:     record.ClassLabel,
		TotalAbsent:    record.TotalAbsent,
		SickCount:      record.SickCount,
		ExcusedCount:   record.ExcusedCount,
		UnexcusedCount: record.UnexcusedCount,
	}
}

// NewAbsenceRecordResponseSlice converts a table into DTOs.
func NewAbsenceRecordResponseSlice(table models.AbsenceTable) []AbsenceRecordResponse {
	out := make([]AbsenceRecordResponse, 0, len(table))
	for _, record := range table {
		out = append(out, NewAbsenceRecordResponse(record))
	}
	return out
}

// AbsenceSubmitResponse reports the outcome of an admitted record.
type AbsenceSubmitResponse struct {
	Record    AbsenceRecordResponse `json:"record"`
	TableSize int                   `json:"table_size"`
	Persisted bool                  `json:"persisted"`
	Warning   string                `json:"warning,omitempty"`
}

// AbsenceReportQuery selects the rows of an analysis.
type AbsenceReportQuery struct {
	Mode       string `query:"mode" validate:"omitempty,oneof=day week month all"`
	Date       string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	ClassLabel string `query:"class" validate:"omitempty,max=16"`
}

// SummaryResponse holds summed absence counts.
type SummaryResponse struct {
	Total     int `json:"total"`
	Sick      int `json:"sick"`
	Excused   int `json:"excused"`
	Unexcused int `json:"unexcused"`
	Rows      int `json:"rows"`
}

// PercentagesResponse holds each cause's share of the total. Values are numbers, or
// the string "N/A" when the total is zero.
type PercentagesResponse struct {
	Sick      interface{} `json:"sick"`
	Excused   interface{} `json:"excused"`
	Unexcused interface{} `json:"unexcused"`
}

// AbsenceReportResponse is the result of a summary analysis.
type AbsenceReportResponse struct {
	Mode        string              `json:"mode"`
	Anchor      models.Date         `json:"anchor"`
	ClassLabel  string              `json:"class_label,omitempty"`
	Dates       []models.Date       `json:"dates"`
	Summary     SummaryResponse     `json:"summary"`
	Percentages PercentagesResponse `json:"percentages"`
	Empty       bool                `json:"empty"`
	GeneratedAt time.Time           `json:"generated_at"`
	CacheHit    bool                `json:"cache_hit"`
}

// ClassSummaryResponse is one bar of the per-class chart.
type ClassSummaryResponse struct {
	ClassLabel string `json:"class_label"`
	SummaryResponse
}

// DateSummaryResponse is one point of the trend chart.
type DateSummaryResponse struct {
	Date models.Date `json:"date"`
	SummaryResponse
}

// AbsenceClassChartResponse carries the per-class series.
type AbsenceClassChartResponse struct {
	Mode    string                 `json:"mode"`
	Anchor  models.Date            `json:"anchor"`
	Classes []ClassSummaryResponse `json:"classes"`
}

// AbsenceTrendResponse carries the per-date series.
type AbsenceTrendResponse struct {
	Mode   string                `json:"mode"`
	Anchor models.Date           `json:"anchor"`
	Points []DateSummaryResponse `json:"points"`
}
