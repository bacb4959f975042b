package service

import (
	"sort"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

// ResultCount is how many participations of a class ended with a given result.
type ResultCount struct {
	Result models.EventResult `json:"result"`
	Count  int                `json:"count"`
}

// ResultDistribution counts results for class, most frequent first. Ties keep the
// order in which the results appear in the form.
func ResultDistribution(table models.EventTable, class string) []ResultCount {
	counts := map[models.EventResult]int{}
	for _, record := range table {
		if record.ClassLabel == class {
			counts[record.EventResult]++
		}
	}

	rank := map[models.EventResult]int{}
	for i, result := range models.EventResults() {
		rank[result] = i
	}

	out := make([]ResultCount, 0, len(counts))
	for result, count := range counts {
		out = append(out, ResultCount{Result: result, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		ri, iKnown := rank[out[i].Result]
		rj, jKnown := rank[out[j].Result]
		if iKnown && jKnown {
			return ri < rj
		}
		if iKnown != jKnown {
			return iKnown
		}
		return out[i].Result < out[j].Result
	})
	return out
}

// ClassEvent is one event a class took part in, with that class's participants.
type ClassEvent struct {
	EventName    string             `json:"event_name"`
	EventLevel   models.EventLevel  `json:"event_level"`
	EventType    models.EventType   `json:"event_type"`
	EventResult  models.EventResult `json:"event_result"`
	Participants []string           `json:"participants"`
}

// EventsForClass lists the events of class in first-seen order, merging the rows of
// group events into a single entry.
func EventsForClass(table models.EventTable, class string) []ClassEvent {
	type eventKey struct {
		name   string
		level  models.EventLevel
		typ    models.EventType
		result models.EventResult
	}

	positions := map[eventKey]int{}
	var out []ClassEvent
	for _, record := range table {
		if record.ClassLabel != class {
			continue
		}
		key := eventKey{record.EventName, record.EventLevel, record.EventType, record.EventResult}
		pos, ok := positions[key]
		if !ok {
			pos = len(out)
			positions[key] = pos
			out = append(out, ClassEvent{
				EventName:   record.EventName,
				EventLevel:  record.EventLevel,
				EventType:   record.EventType,
				EventResult: record.EventResult,
			})
		}
		out[pos].Participants = append(out[pos].Participants, record.ParticipantName)
	}
	return out
}

// ParticipantHistory returns every record naming participant, in table order.
func ParticipantHistory(table models.EventTable, participant string) []models.EventRecord {
	out := []models.EventRecord{}
	for _, record := range table {
		if record.ParticipantName == participant {
			out = append(out, record)
		}
	}
	return out
}

// EventClasses lists the class labels present in the event table.
func EventClasses(table models.EventTable, order ClassOrder) []string {
	seen := map[string]struct{}{}
	for _, record := range table {
		if record.ClassLabel != "" {
			seen[record.ClassLabel] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	SortClassLabels(labels, order)
	return labels
}
