package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/absence-tracker-api/internal/config"
	"github.com/noah-isme/absence-tracker-api/internal/handler"
	"github.com/noah-isme/absence-tracker-api/internal/middleware"
	"github.com/noah-isme/absence-tracker-api/internal/repository"
	"github.com/noah-isme/absence-tracker-api/internal/router"
	"github.com/noah-isme/absence-tracker-api/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zerolog.Nop()
	dir := t.TempDir()
	validate := validator.New()

	absences := service.NewAbsenceService(repository.NewAbsenceXLSXRepository(filepath.Join(dir, "school_absences.xlsx")), nil, validate, nil, service.AbsenceServiceOptions{}, logger)
	events := service.NewEventService(repository.NewEventXLSXRepository(filepath.Join(dir, "events_data.xlsx")), validate, nil, service.EventServiceOptions{SkipBlank: true}, logger)
	require.NoError(t, absences.Load(context.Background()))
	require.NoError(t, events.Load(context.Background()))

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "School Absence API", AppEnv: "test"}, router.Dependencies{
		AbsenceHandler: handler.NewAbsenceHandler(absences, logger),
		EventHandler:   handler.NewEventHandler(events, logger),
		SubmitLimiter:  middleware.RateLimit("submit", 100, 0),
	})
	return app
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "School Absence API", resp.Header.Get("X-Application"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "http_requests_total")
}

func TestRouterRecordsAndReportsEvents(t *testing.T) {
	app := newTestApp(t)

	payload, err := json.Marshal(map[string]interface{}{
		"event_name":   "Олимпиада по химии",
		"event_level":  "regional",
		"event_type":   "individual",
		"event_result": "laureate",
		"participants": []string{"Смирнова Ольга"},
		"class_label":  "9В",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/events/report?class=9%D0%92", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var report struct {
		Data struct {
			Results []struct {
				Result string `json:"result"`
				Count  int    `json:"count"`
			} `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.Len(t, report.Data.Results, 1)
	require.Equal(t, "Лауреат", report.Data.Results[0].Result)
	require.Equal(t, 1, report.Data.Results[0].Count)
}
