package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/absence-tracker-api/internal/config"
	"github.com/noah-isme/absence-tracker-api/internal/utils"
)

// HealthResponse reports liveness and how records are being stored.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	Storage       string    `json:"storage"`
	PersistPolicy string    `json:"persist_policy"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			Storage:       cfg.StorageDriver,
			PersistPolicy: cfg.PersistPolicy,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
