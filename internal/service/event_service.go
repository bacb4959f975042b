package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/absence-tracker-api/internal/dto"
	"github.com/noah-isme/absence-tracker-api/internal/models"
	"github.com/noah-isme/absence-tracker-api/internal/observability"
	"github.com/noah-isme/absence-tracker-api/internal/repository"
)

// EventServiceOptions tunes the event participation workflow.
type EventServiceOptions struct {
	Policy     PersistPolicy
	SkipBlank  bool
	ClassOrder ClassOrder
}

// EventService owns the event participation table for the running process.
type EventService interface {
	Load(ctx context.Context) error
	Submit(ctx context.Context, req dto.EventCreateRequest) (dto.EventSubmitResponse, error)
	List(ctx context.Context) []models.EventRecord
	Options(ctx context.Context) dto.EventOptionsResponse
	Classes(ctx context.Context) []string
	ClassReport(ctx context.Context, class string) (dto.EventClassReportResponse, error)
	ParticipantHistory(ctx context.Context, name string) (dto.ParticipantHistoryResponse, error)
	Export(ctx context.Context, format string) ([]byte, error)
	Snapshot() models.EventTable
}

type eventService struct {
	mu        sync.RWMutex
	table     models.EventTable
	repo      repository.EventRepository
	validator *validator.Validate
	publisher RecordPublisher
	sanitizer *bluemonday.Policy
	options   EventServiceOptions
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewEventService constructs the event workflow. publisher may be nil.
func NewEventService(repo repository.EventRepository, validate *validator.Validate, publisher RecordPublisher, options EventServiceOptions, logger zerolog.Logger) EventService {
	if publisher == nil {
		publisher = noopRecordPublisher{}
	}
	if options.ClassOrder == "" {
		options.ClassOrder = ClassOrderLexical
	}
	return &eventService{
		table:     models.EventTable{},
		repo:      repo,
		validator: validate,
		publisher: publisher,
		sanitizer: bluemonday.StrictPolicy(),
		options:   options,
		logger:    logger.With().Str("component", "event_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/absence-tracker-api/internal/service/event"),
	}
}

func (s *eventService) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "event.load")
	defer span.End()

	table, err := s.repo.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return fmt.Errorf("load event table: %w", err)
	}
	if table == nil {
		table = models.EventTable{}
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()

	s.logger.Info().Int("rows", len(table)).Msg("event table loaded")
	return nil
}

func (s *eventService) Submit(ctx context.Context, req dto.EventCreateRequest) (dto.EventSubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "event.submit")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		observability.Records().WithLabelValues("event", "rejected").Inc()
		return dto.EventSubmitResponse{}, err
	}

	batch := s.batchFromRequest(req)
	records, err := ValidateEventBatch(batch, s.options.SkipBlank)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		observability.Records().WithLabelValues("event", "rejected").Inc()
		return dto.EventSubmitResponse{}, err
	}

	skipped := 0
	if batch.EventType == models.EventTypeGroup {
		skipped = groupParticipantCount(batch) - len(records)
	}
	span.SetAttributes(
		attribute.Int("event.participants", len(records)),
		attribute.Int("event.skipped", skipped),
	)

	s.mu.Lock()
	table, persistErr := AppendAndPersist(ctx, s.repo.Save, s.table, s.options.Policy, records...)
	admitted := len(table) > len(s.table)
	s.table = table
	size := len(table)
	s.mu.Unlock()

	response := dto.EventSubmitResponse{
		Records:   records,
		Skipped:   skipped,
		TableSize: size,
		Persisted: persistErr == nil,
	}

	if persistErr != nil {
		span.RecordError(persistErr)
		observability.StorageFailures().WithLabelValues("event", policyName(s.options.Policy)).Inc()
		if !admitted {
			span.SetStatus(codes.Error, "persistence failed")
			observability.Records().WithLabelValues("event", "rolled_back").Inc()
			s.logger.Error().Err(persistErr).Str("event", batch.EventName).Msg("event batch rolled back")
			return dto.EventSubmitResponse{}, persistErr
		}
		response.Warning = "records kept in memory but could not be saved"
		s.logger.Warn().Err(persistErr).Str("event", batch.EventName).Msg("event batch not persisted")
	}

	observability.Records().WithLabelValues("event", "admitted").Add(float64(len(records)))
	if err := s.publisher.Publish(ctx, "event.recorded", records); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish event records")
	}

	s.logger.Info().
		Str("event", records[0].EventName).
		Int("participants", len(records)).
		Int("skipped", skipped).
		Bool("persisted", response.Persisted).
		Msg("event batch admitted")
	span.SetStatus(codes.Ok, "admitted")

	return response, nil
}

func (s *eventService) List(ctx context.Context) []models.EventRecord {
	return s.Snapshot()
}

func (s *eventService) Options(ctx context.Context) dto.EventOptionsResponse {
	return dto.EventOptionsResponse{
		Levels:  models.EventLevels(),
		Types:   []models.EventType{models.EventTypeIndividual, models.EventTypeGroup},
		Results: models.EventResults(),
		Classes: models.ClassCatalogue(models.EventSections),
	}
}

func (s *eventService) Classes(ctx context.Context) []string {
	return EventClasses(s.Snapshot(), s.options.ClassOrder)
}

func (s *eventService) ClassReport(ctx context.Context, class string) (dto.EventClassReportResponse, error) {
	class = strings.TrimSpace(class)
	if class == "" {
		return dto.EventClassReportResponse{}, fmt.Errorf("%w: class is required", ErrInvalidQuery)
	}

	table := s.Snapshot()
	distribution := ResultDistribution(table, class)
	events := EventsForClass(table, class)

	results := make([]dto.ResultCountResponse, 0, len(distribution))
	for _, item := range distribution {
		results = append(results, dto.ResultCountResponse{Result: item.Result, Count: item.Count})
	}
	classEvents := make([]dto.ClassEventResponse, 0, len(events))
	for _, event := range events {
		classEvents = append(classEvents, dto.ClassEventResponse{
			EventName:    event.EventName,
			EventLevel:   event.EventLevel,
			EventType:    event.EventType,
			EventResult:  event.EventResult,
			Participants: event.Participants,
		})
	}

	return dto.EventClassReportResponse{
		ClassLabel: class,
		Results:    results,
		Events:     classEvents,
		Empty:      len(results) == 0,
	}, nil
}

func (s *eventService) ParticipantHistory(ctx context.Context, name string) (dto.ParticipantHistoryResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return dto.ParticipantHistoryResponse{}, fmt.Errorf("%w: participant name is required", ErrInvalidQuery)
	}
	return dto.ParticipantHistoryResponse{
		ParticipantName: name,
		Records:         ParticipantHistory(s.Snapshot(), name),
	}, nil
}

func (s *eventService) Export(ctx context.Context, format string) ([]byte, error) {
	return repository.EncodeEventTable(s.Snapshot(), format)
}

// Snapshot returns a copy of the current table.
func (s *eventService) Snapshot() models.EventTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.EventTable, len(s.table))
	copy(out, s.table)
	return out
}

func (s *eventService) batchFromRequest(req dto.EventCreateRequest) EventBatch {
	batch := EventBatch{
		EventName:    cleanText(s.sanitizer, req.EventName),
		EventLevel:   req.EventLevel,
		EventType:    req.EventType,
		EventResult:  req.EventResult,
		Participants: cleanTexts(s.sanitizer, req.Participants),
		ClassLabel:   cleanText(s.sanitizer, req.ClassLabel),
	}
	for _, entry := range req.Classes {
		batch.Classes = append(batch.Classes, GroupClassEntry{
			ClassLabel:   cleanText(s.sanitizer, entry.ClassLabel),
			Participants: cleanTexts(s.sanitizer, entry.Participants),
		})
	}
	return batch
}

func groupParticipantCount(batch EventBatch) int {
	total := 0
	for _, entry := range batch.Classes {
		total += len(entry.Participants)
	}
	return total
}

func policyName(policy PersistPolicy) string {
	if policy == FailOpen {
		return "fail_open"
	}
	return "fail_closed"
}
