package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
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

// ErrInvalidQuery indicates report parameters that cannot be interpreted.
var ErrInvalidQuery = errors.New("invalid report query")

// AbsenceServiceOptions tunes the absence workflow.
type AbsenceServiceOptions struct {
	Policy     PersistPolicy
	ClassOrder ClassOrder
	CacheTTL   time.Duration
}

// AbsenceService owns the absence table for the running process.
type AbsenceService interface {
	Load(ctx context.Context) error
	Submit(ctx context.Context, req dto.AbsenceCreateRequest) (dto.AbsenceSubmitResponse, error)
	List(ctx context.Context) []dto.AbsenceRecordResponse
	Dates(ctx context.Context) []models.Date
	Classes(ctx context.Context, date models.Date) []string
	Report(ctx context.Context, query dto.AbsenceReportQuery) (dto.AbsenceReportResponse, error)
	ClassChart(ctx context.Context, query dto.AbsenceReportQuery) (dto.AbsenceClassChartResponse, error)
	Trend(ctx context.Context, query dto.AbsenceReportQuery) (dto.AbsenceTrendResponse, error)
	Export(ctx context.Context, format string) ([]byte, error)
	Snapshot() models.AbsenceTable
}

type absenceService struct {
	mu        sync.RWMutex
	table     models.AbsenceTable
	version   int64
	repo      repository.AbsenceRepository
	cache     *redis.Client
	validator *validator.Validate
	publisher RecordPublisher
	sanitizer *bluemonday.Policy
	options   AbsenceServiceOptions
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAbsenceService constructs the absence workflow. cache and publisher may be nil.
func NewAbsenceService(repo repository.AbsenceRepository, cache *redis.Client, validate *validator.Validate, publisher RecordPublisher, options AbsenceServiceOptions, logger zerolog.Logger) AbsenceService {
	if publisher == nil {
		publisher = noopRecordPublisher{}
	}
	if options.ClassOrder == "" {
		options.ClassOrder = ClassOrderLexical
	}
	return &absenceService{
		table:     models.AbsenceTable{},
		repo:      repo,
		cache:     cache,
		validator: validate,
		publisher: publisher,
		sanitizer: bluemonday.StrictPolicy(),
		options:   options,
		logger:    logger.With().Str("component", "absence_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/absence-tracker-api/internal/service/absence"),
		now:       time.Now,
	}
}

func (s *absenceService) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "absence.load")
	defer span.End()

	table, err := s.repo.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return fmt.Errorf("load absence table: %w", err)
	}
	if table == nil {
		table = models.AbsenceTable{}
	}

	s.mu.Lock()
	s.table = table
	s.version = s.now().UnixNano()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("absence.rows", len(table)))
	s.logger.Info().Int("rows", len(table)).Msg("absence table loaded")
	return nil
}

func (s *absenceService) Submit(ctx context.Context, req dto.AbsenceCreateRequest) (dto.AbsenceSubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "absence.submit")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		observability.Records().WithLabelValues("absence", "rejected").Inc()
		return dto.AbsenceSubmitResponse{}, err
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		return dto.AbsenceSubmitResponse{}, err
	}

	record := models.AbsenceRecord{
		Date:           date,
		ClassLabel:     cleanText(s.sanitizer, req.ClassLabel),
		TotalAbsent:    req.TotalAbsent,
		SickCount:      req.SickCount,
		ExcusedCount:   req.ExcusedCount,
		UnexcusedCount: req.UnexcusedCount,
	}

	if err := ValidateAbsence(record); err != nil {
		span.SetStatus(codes.Error, err.Error())
		observability.Records().WithLabelValues("absence", "rejected").Inc()
		return dto.AbsenceSubmitResponse{}, err
	}

	s.mu.Lock()
	table, persistErr := AppendAndPersist(ctx, s.repo.Save, s.table, s.options.Policy, record)
	admitted := len(table) > len(s.table)
	s.table = table
	if admitted {
		s.version++
	}
	size := len(table)
	s.mu.Unlock()

	response := dto.AbsenceSubmitResponse{
		Record:    dto.NewAbsenceRecordResponse(record),
		TableSize: size,
		Persisted: persistErr == nil,
	}

	if persistErr != nil {
		span.RecordError(persistErr)
		observability.StorageFailures().WithLabelValues("absence", policyName(s.options.Policy)).Inc()
		if !admitted {
			span.SetStatus(codes.Error, "persistence failed")
			observability.Records().WithLabelValues("absence", "rolled_back").Inc()
			s.logger.Error().Err(persistErr).Str("class", record.ClassLabel).Msg("absence record rolled back")
			return dto.AbsenceSubmitResponse{}, persistErr
		}
		response.Warning = "record kept in memory but could not be saved"
		s.logger.Warn().Err(persistErr).Str("class", record.ClassLabel).Msg("absence record not persisted")
	}

	observability.Records().WithLabelValues("absence", "admitted").Inc()
	if err := s.publisher.Publish(ctx, "absence.recorded", response.Record); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish absence record")
	}

	s.logger.Info().
		Str("date", record.Date.String()).
		Str("class", record.ClassLabel).
		Int("total", record.TotalAbsent).
		Bool("persisted", response.Persisted).
		Msg("absence record admitted")
	span.SetStatus(codes.Ok, "admitted")

	return response, nil
}

func (s *absenceService) List(ctx context.Context) []dto.AbsenceRecordResponse {
	return dto.NewAbsenceRecordResponseSlice(s.Snapshot())
}

func (s *absenceService) Dates(ctx context.Context) []models.Date {
	return DistinctDates(s.Snapshot())
}

func (s *absenceService) Classes(ctx context.Context, date models.Date) []string {
	return ClassesOn(s.Snapshot(), date, s.options.ClassOrder)
}

func (s *absenceService) Report(ctx context.Context, query dto.AbsenceReportQuery) (dto.AbsenceReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "absence.report")
	defer span.End()

	mode, anchor, err := s.parseQuery(query)
	if err != nil {
		span.RecordError(err)
		return dto.AbsenceReportResponse{}, err
	}

	table, version := s.snapshotWithVersion()
	cacheKey := fmt.Sprintf("absence:report:%d:%s:%s:%s", version, mode, anchor, query.ClassLabel)
	span.SetAttributes(attribute.String("report.cache_key", cacheKey))

	if cached, ok := s.readCache(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("report.cache_hit", true))
		return cached, nil
	}

	dates := BucketDates(table, mode, anchor)
	summary := Summarize(table, dates, query.ClassLabel)

	response := dto.AbsenceReportResponse{
		Mode:        string(mode),
		Anchor:      anchor,
		ClassLabel:  query.ClassLabel,
		Dates:       dates.Sorted(),
		Summary:     newSummaryResponse(summary),
		Percentages: newPercentagesResponse(summary),
		Empty:       summary.Empty(),
		GeneratedAt: s.now().UTC(),
	}

	span.SetAttributes(
		attribute.Int("report.rows", summary.Rows),
		attribute.Int("report.dates", len(response.Dates)),
	)

	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *absenceService) ClassChart(ctx context.Context, query dto.AbsenceReportQuery) (dto.AbsenceClassChartResponse, error) {
	mode, anchor, err := s.parseQuery(query)
	if err != nil {
		return dto.AbsenceClassChartResponse{}, err
	}

	table := s.Snapshot()
	groups := GroupByClass(table, BucketDates(table, mode, anchor), s.options.ClassOrder)

	classes := make([]dto.ClassSummaryResponse, 0, len(groups))
	for _, group := range groups {
		classes = append(classes, dto.ClassSummaryResponse{ClassLabel: group.ClassLabel, SummaryResponse: newSummaryResponse(group.Summary)})
	}
	return dto.AbsenceClassChartResponse{Mode: string(mode), Anchor: anchor, Classes: classes}, nil
}

func (s *absenceService) Trend(ctx context.Context, query dto.AbsenceReportQuery) (dto.AbsenceTrendResponse, error) {
	mode, anchor, err := s.parseQuery(query)
	if err != nil {
		return dto.AbsenceTrendResponse{}, err
	}

	table := s.Snapshot()
	dates := BucketDates(table, mode, anchor)
	if query.ClassLabel != "" {
		table = filterClass(table, query.ClassLabel)
	}

	groups := GroupByDate(table, dates)
	points := make([]dto.DateSummaryResponse, 0, len(groups))
	for _, group := range groups {
		points = append(points, dto.DateSummaryResponse{Date: group.Date, SummaryResponse: newSummaryResponse(group.Summary)})
	}
	return dto.AbsenceTrendResponse{Mode: string(mode), Anchor: anchor, Points: points}, nil
}

func (s *absenceService) Export(ctx context.Context, format string) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "absence.export")
	defer span.End()

	data, err := repository.EncodeAbsenceTable(s.Snapshot(), format)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("export.bytes", len(data)))
	return data, nil
}

// Snapshot returns a copy of the current table.
func (s *absenceService) Snapshot() models.AbsenceTable {
	table, _ := s.snapshotWithVersion()
	return table
}

func (s *absenceService) snapshotWithVersion() (models.AbsenceTable, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.AbsenceTable, len(s.table))
	copy(out, s.table)
	return out, s.version
}

func (s *absenceService) parseQuery(query dto.AbsenceReportQuery) (DateRangeMode, models.Date, error) {
	if err := s.validator.Struct(query); err != nil {
		return "", models.Date{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	mode, err := ParseDateRangeMode(query.Mode)
	if err != nil {
		return "", models.Date{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	anchor := models.DateOf(s.now())
	if query.Date != "" {
		if anchor, err = models.ParseDate(query.Date); err != nil {
			return "", models.Date{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
	}
	return mode, anchor, nil
}

func (s *absenceService) readCache(ctx context.Context, key string) (dto.AbsenceReportResponse, bool) {
	if s.cache == nil {
		return dto.AbsenceReportResponse{}, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
		}
		observability.ReportCache().WithLabelValues("miss").Inc()
		return dto.AbsenceReportResponse{}, false
	}

	var response dto.AbsenceReportResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		observability.ReportCache().WithLabelValues("miss").Inc()
		return dto.AbsenceReportResponse{}, false
	}
	observability.ReportCache().WithLabelValues("hit").Inc()
	response.CacheHit = true
	return response, true
}

func (s *absenceService) writeCache(ctx context.Context, key string, response dto.AbsenceReportResponse) {
	if s.cache == nil || s.options.CacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.options.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store report cache")
	}
}

func filterClass(table models.AbsenceTable, class string) models.AbsenceTable {
	out := make(models.AbsenceTable, 0, len(table))
	for _, record := range table {
		if record.ClassLabel == class {
			out = append(out, record)
		}
	}
	return out
}

func newSummaryResponse(summary Summary) dto.SummaryResponse {
	return dto.SummaryResponse{
		Total:     summary.Total,
		Sick:      summary.Sick,
		Excused:   summary.Excused,
		Unexcused: summary.Unexcused,
		Rows:      summary.Rows,
	}
}

func newPercentagesResponse(summary Summary) dto.PercentagesResponse {
	p, ok := summary.Percentages()
	if !ok {
		return dto.PercentagesResponse{Sick: dto.NotApplicable, Excused: dto.NotApplicable, Unexcused: dto.NotApplicable}
	}
	return dto.PercentagesResponse{Sick: p.Sick, Excused: p.Excused, Unexcused: p.Unexcused}
}
