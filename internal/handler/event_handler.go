package handler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/absence-tracker-api/internal/dto"
	"github.com/noah-isme/absence-tracker-api/internal/repository"
	"github.com/noah-isme/absence-tracker-api/internal/service"
	"github.com/noah-isme/absence-tracker-api/internal/utils"
)

// EventHandler exposes the event participation form and its analyses.
type EventHandler struct {
	service service.EventService
	logger  zerolog.Logger
}

// NewEventHandler constructs an event handler.
func NewEventHandler(service service.EventService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register wires event routes. submitGuards run before the submit handler only.
func (h *EventHandler) Register(router fiber.Router, submitGuards ...fiber.Handler) {
	router.Get("", h.list)
	router.Post("", guarded(h.submit, submitGuards)...)
	router.Get("/options", h.options)
	router.Get("/classes", h.classes)
	router.Get("/report", h.classReport)
	router.Get("/participants/:name", h.participantHistory)
	router.Get("/export", h.export)
}

func (h *EventHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "event records retrieved", h.service.List(c.UserContext()))
}

func (h *EventHandler) submit(c *fiber.Ctx) error {
	var payload dto.EventCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Submit(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to record event")
	}

	message := fmt.Sprintf("%d participation records added", len(response.Records))
	if !response.Persisted {
		message = "event recorded in memory only"
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, response)
}

func (h *EventHandler) options(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "event form options retrieved", h.service.Options(c.UserContext()))
}

func (h *EventHandler) classes(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "classes retrieved", h.service.Classes(c.UserContext()))
}

func (h *EventHandler) classReport(c *fiber.Ctx) error {
	response, err := h.service.ClassReport(c.UserContext(), c.Query("class"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to build class report")
	}

	message := "class report generated"
	if response.Empty {
		message = "no events recorded for class"
	}
	return utils.SendSuccess(c, message, response)
}

func (h *EventHandler) participantHistory(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid participant name")
	}

	response, err := h.service.ParticipantHistory(c.UserContext(), name)
	if err != nil {
		return sendServiceError(c, h.logger, err, "failed to load participant history")
	}
	return utils.SendSuccess(c, "participant history retrieved", response)
}

func (h *EventHandler) export(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", repository.FormatXLSX))
	data, err := h.service.Export(c.UserContext(), format)
	if err != nil {
		if errors.Is(err, repository.ErrUnsupportedFormat) {
			return utils.SendError(c, fiber.StatusBadRequest, "unsupported export format")
		}
		return sendServiceError(c, h.logger, err, "failed to export events")
	}
	return utils.SendDownload(c, fmt.Sprintf("events_data.%s", format), data)
}
