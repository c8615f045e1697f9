package handlers

import (
	"time"

	"widgets/internal/database"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	db *gorm.DB // nil when widgets live in memory
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth answers 200 when healthy and 503 when the database is unreachable.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	status, code, dbState := "healthy", fiber.StatusOK, "memory"
	if h.db != nil {
		dbState = "up"
		if err := database.Ping(c.UserContext(), h.db); err != nil {
			status, code, dbState = "degraded", fiber.StatusServiceUnavailable, "down"
		}
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"time":     time.Now().Format(time.RFC3339),
		"database": dbState,
	})
}
