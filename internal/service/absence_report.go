package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

// DateRangeMode selects which dates participate in an aggregation.
type DateRangeMode string

const (
	RangeDay           DateRangeMode = "day"
	RangeTrailingWeek  DateRangeMode = "week"
	RangeCalendarMonth DateRangeMode = "month"
	RangeAllTime       DateRangeMode = "all"
)

// trailingWeekDays is the look-back of RangeTrailingWeek; both ends are inclusive.
const trailingWeekDays = 7

// ParseDateRangeMode maps a query value to a mode. An empty value means RangeDay.
func ParseDateRangeMode(value string) (DateRangeMode, error) {
	switch DateRangeMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", RangeDay:
		return RangeDay, nil
	case RangeTrailingWeek:
		return RangeTrailingWeek, nil
	case RangeCalendarMonth:
		return RangeCalendarMonth, nil
	case RangeAllTime:
		return RangeAllTime, nil
	}
	return "", fmt.Errorf("unknown date range mode %q", value)
}

// ClassOrder decides how class labels are sorted in per-class reports.
type ClassOrder string

const (
	// ClassOrderLexical compares labels as plain strings, so "10А" sorts before "2А".
	ClassOrderLexical ClassOrder = "lexical"
	// ClassOrderGrade compares the numeric grade first, then the section.
	ClassOrderGrade ClassOrder = "grade"
)

// DateSet is an unordered set of calendar dates.
type DateSet map[models.Date]struct{}

// NewDateSet builds a set from dates.
func NewDateSet(dates ...models.Date) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

// Contains reports whether d is in the set.
func (s DateSet) Contains(d models.Date) bool {
	_, ok := s[d]
	return ok
}

// Sorted returns the dates in chronological order.
func (s DateSet) Sorted() []models.Date {
	out := make([]models.Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j].Time) })
	return out
}

// BucketDates resolves a date range mode against the dates present in table.
// RangeDay always yields the anchor alone, even when the table has no row for it.
func BucketDates(table models.AbsenceTable, mode DateRangeMode, anchor models.Date) DateSet {
	if mode == RangeDay {
		return NewDateSet(anchor)
	}

	weekStart := anchor.AddDays(-trailingWeekDays)
	set := DateSet{}
	for _, record := range table {
		d := record.Date
		switch mode {
		case RangeTrailingWeek:
			if !d.Before(weekStart.Time) && !d.After(anchor.Time) {
				set[d] = struct{}{}
			}
		case RangeCalendarMonth:
			if d.SameMonth(anchor) {
				set[d] = struct{}{}
			}
		case RangeAllTime:
			set[d] = struct{}{}
		}
	}
	return set
}

// Summary holds absence counts summed over a filtered set of rows.
type Summary struct {
	Total     int `json:"total"`
	Sick      int `json:"sick"`
	Excused   int `json:"excused"`
	Unexcused int `json:"unexcused"`
	Rows      int `json:"rows"`
}

func (s *Summary) add(record models.AbsenceRecord) {
	s.Total += record.TotalAbsent
	s.Sick += record.SickCount
	s.Excused += record.ExcusedCount
	s.Unexcused += record.UnexcusedCount
	s.Rows++
}

// Empty reports whether no rows contributed to the summary.
func (s Summary) Empty() bool {
	return s.Rows == 0
}

// Percentages is the share of each cause in the total, in percent.
type Percentages struct {
	Sick      float64 `json:"sick"`
	Excused   float64 `json:"excused"`
	Unexcused float64 `json:"unexcused"`
}

// Percentages returns each cause as a percentage of the total. ok is false when the
// total is zero, in which case the shares are not applicable.
func (s Summary) Percentages() (p Percentages, ok bool) {
	if s.Total <= 0 {
		return Percentages{}, false
	}
	share := func(count int) float64 {
		return math.Round(float64(count)/float64(s.Total)*10000) / 100
	}
	return Percentages{
		Sick:      share(s.Sick),
		Excused:   share(s.Excused),
		Unexcused: share(s.Unexcused),
	}, true
}

// Summarize sums the rows whose date is in dates and, when classFilter is not empty,
// whose class label equals it.
func Summarize(table models.AbsenceTable, dates DateSet, classFilter string) Summary {
	var summary Summary
	for _, record := range table {
		if !dates.Contains(record.Date) {
			continue
		}
		if classFilter != "" && record.ClassLabel != classFilter {
			continue
		}
		summary.add(record)
	}
	return summary
}

// ClassSummary is one entry of a per-class report.
type ClassSummary struct {
	ClassLabel string `json:"class_label"`
	Summary
}

// GroupByClass sums the rows in dates per class label.
func GroupByClass(table models.AbsenceTable, dates DateSet, order ClassOrder) []ClassSummary {
	groups := map[string]*Summary{}
	for _, record := range table {
		if !dates.Contains(record.Date) {
			continue
		}
		summary, ok := groups[record.ClassLabel]
		if !ok {
			summary = &Summary{}
			groups[record.ClassLabel] = summary
		}
		summary.add(record)
	}

	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	SortClassLabels(labels, order)

	out := make([]ClassSummary, 0, len(labels))
	for _, label := range labels {
		out = append(out, ClassSummary{ClassLabel: label, Summary: *groups[label]})
	}
	return out
}

// DateSummary is one entry of a per-date trend report.
type DateSummary struct {
	Date models.Date `json:"date"`
	Summary
}

// GroupByDate sums the rows in dates per date, in chronological order.
func GroupByDate(table models.AbsenceTable, dates DateSet) []DateSummary {
	groups := map[models.Date]*Summary{}
	for _, record := range table {
		if !dates.Contains(record.Date) {
			continue
		}
		summary, ok := groups[record.Date]
		if !ok {
			summary = &Summary{}
			groups[record.Date] = summary
		}
		summary.add(record)
	}

	keys := make(DateSet, len(groups))
	for d := range groups {
		keys[d] = struct{}{}
	}

	out := make([]DateSummary, 0, len(groups))
	for _, d := range keys.Sorted() {
		out = append(out, DateSummary{Date: d, Summary: *groups[d]})
	}
	return out
}

// DistinctDates lists the dates present in table, oldest first.
func DistinctDates(table models.AbsenceTable) []models.Date {
	return BucketDates(table, RangeAllTime, models.Date{}).Sorted()
}

// ClassesOn lists the class labels with rows on date, or in the whole table when date is zero.
func ClassesOn(table models.AbsenceTable, date models.Date, order ClassOrder) []string {
	seen := map[string]struct{}{}
	for _, record := range table {
		if !date.IsZero() && record.Date != date {
			continue
		}
		seen[record.ClassLabel] = struct{}{}
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	SortClassLabels(labels, order)
	return labels
}

// SortClassLabels sorts labels in place.
func SortClassLabels(labels []string, order ClassOrder) {
	if order != ClassOrderGrade {
		sort.Strings(labels)
		return
	}

	sort.SliceStable(labels, func(i, j int) bool {
		gi, si, oki := models.SplitClassLabel(labels[i])
		gj, sj, okj := models.SplitClassLabel(labels[j])
		switch {
		case oki && okj:
			if gi != gj {
				return gi < gj
			}
			return si < sj
		case oki != okj:
			// Labels without a grade number go last.
			return oki
		default:
			return labels[i] < labels[j]
		}
	})
}
