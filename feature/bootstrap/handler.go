package bootstrap

import (
	"tenant-bootstrapper/core/journal"
	"tenant-bootstrapper/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for bootstrap status.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the bootstrap routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/bootstrap")
	group.Get("/status", h.HandleStatus)
	group.Get("/events", h.HandleEvents)
}

// HandleStatus returns the status of the current run.
// @Summary Get Bootstrap Status
// @Description Returns the state of the current run with per-area progress and item counters.
// @Tags bootstrap
// @Produce json
// @Success 200 {object} Status
// @Security ApiKeyAuth
// @Router /bootstrap/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	status := h.service.Status()
	l.Debug("Status requested", zap.String("state", string(status.State)))
	return c.JSON(status)
}

// HandleEvents returns the journaled events of the current run.
// @Summary List Bootstrap Events
// @Description Returns journaled lifecycle events, oldest first. Progress ticks are not journaled.
// @Tags bootstrap
// @Produce json
// @Param type query string false "Event type (e.g. error, warning, item-created)"
// @Param code query string false "Error code (e.g. CANNOT_HANDLE_ITEM)"
// @Param limit query int false "Maximum number of events (default 100)"
// @Success 200 {array} journal.Record
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Security ApiKeyAuth
// @Router /bootstrap/events [get]
func (h *Handler) HandleEvents(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	recs, err := h.service.Events(journal.Filter{
		Type:  c.Query("type"),
		Code:  c.Query("code"),
		Limit: c.QueryInt("limit", 0),
	})
	if err != nil {
		l.Error("Failed to query events", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(recs)
}
