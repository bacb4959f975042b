package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/absence-tracker-api/internal/dto"
	"github.com/noah-isme/absence-tracker-api/internal/models"
	"github.com/noah-isme/absence-tracker-api/internal/repository"
	"github.com/noah-isme/absence-tracker-api/internal/service"
	"github.com/noah-isme/absence-tracker-api/internal/utils"
)

// AbsenceHandler exposes the absence entry form and its analyses.
type AbsenceHandler struct {
	service service.AbsenceService
	logger  zerolog.Logger
}

// NewAbsenceHandler constructs an absence handler.
func NewAbsenceHandler(service service.AbsenceService, logger zerolog.Logger) *AbsenceHandler {
	return &AbsenceHandler{
		service: service,
		logger:  logger.With().Str("component", "absence_handler").Logger(),
	}
}

// Register wires absence routes. submitGuards run before the submit handler only.
func (h *AbsenceHandler) Register(router fiber.Router, submitGuards ...fiber.Handler) {
	router.Get("", h.list)
	router.Post("", guarded(h.submit, submitGuards)...)
	router.Get("/classes", h.classes)
	router.Get("/dates", h.dates)
	router.Get("/report", h.report)
	router.Get("/report/classes", h.classChart)
	router.Get("/report/dates", h.trend)
	router.Get("/export", h.export)
}

func (h *AbsenceHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "absence records retrieved", h.service.List(c.UserContext()))
}

func (h *AbsenceHandler) submit(c *fiber.Ctx) error {
	var payload dto.AbsenceCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Submit(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to record absence")
	}

	message := "absence recorded"
	if !response.Persisted {
		message = "absence recorded in memory only"
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, response)
}

// classes returns the form catalogue, or the classes recorded on ?date= when given.
func (h *AbsenceHandler) classes(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return utils.SendSuccess(c, "class catalogue retrieved", models.ClassCatalogue(models.AbsenceSections))
	}

	date, err := models.ParseDate(raw)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid date")
	}
	return utils.SendSuccess(c, "classes retrieved", h.service.Classes(c.UserContext(), date))
}

func (h *AbsenceHandler) dates(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "dates retrieved", h.service.Dates(c.UserContext()))
}

func (h *AbsenceHandler) report(c *fiber.Ctx) error {
	query, err := parseReportQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	response, err := h.service.Report(c.UserContext(), query)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to build report")
	}

	message := "report generated"
	if response.Empty {
		message = "no data for the selected period"
	}
	return utils.SendSuccess(c, message, response)
}

func (h *AbsenceHandler) classChart(c *fiber.Ctx) error {
	query, err := parseReportQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	response, err := h.service.ClassChart(c.UserContext(), query)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to build class chart")
	}
	return utils.SendSuccess(c, "class chart generated", response)
}

func (h *AbsenceHandler) trend(c *fiber.Ctx) error {
	query, err := parseReportQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	response, err := h.service.Trend(c.UserContext(), query)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to build trend")
	}
	return utils.SendSuccess(c, "trend generated", response)
}

func (h *AbsenceHandler) export(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", repository.FormatXLSX))
	data, err := h.service.Export(c.UserContext(), format)
	if err != nil {
		if errors.Is(err, repository.ErrUnsupportedFormat) {
			return utils.SendError(c, fiber.StatusBadRequest, "unsupported export format")
		}
		return sendServiceError(c, h.logger, err, "failed to export absences")
	}
	return utils.SendDownload(c, fmt.Sprintf("school_absences.%s", format), data)
}

func parseReportQuery(c *fiber.Ctx) (dto.AbsenceReportQuery, error) {
	var query dto.AbsenceReportQuery
	if err := c.QueryParser(&query); err != nil {
		return dto.AbsenceReportQuery{}, err
	}
	query.Mode = strings.TrimSpace(query.Mode)
	query.Date = strings.TrimSpace(query.Date)
	query.ClassLabel = strings.TrimSpace(query.ClassLabel)
	return query, nil
}
