package handlers

import (
	"errors"
	"net/url"

	"widgets/internal/models"
	"widgets/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WidgetHandler handles HTTP requests for widgets.
type WidgetHandler struct {
	service   *services.WidgetService
	validator *services.WidgetValidator
	logger    *zap.Logger
}

// NewWidgetHandler creates a new WidgetHandler.
func NewWidgetHandler(service *services.WidgetService, logger *zap.Logger) *WidgetHandler {
	return &WidgetHandler{
		service:   service,
		validator: services.NewWidgetValidator(),
		logger:    logger,
	}
}

// RegisterRoutes registers the widget routes with the Fiber app.
func (h *WidgetHandler) RegisterRoutes(router fiber.Router) {
	widgetRoutes := router.Group("/widgets")
	widgetRoutes.Get("/", h.HandleGetWidgets)
	widgetRoutes.Get("/:name", h.HandleGetWidgetByName)
	widgetRoutes.Post("/", h.HandleCreateWidget)
	widgetRoutes.Put("/:name", h.HandleUpdateWidget)
	widgetRoutes.Delete("/:name", h.HandleDeleteWidget)
}

// HandleGetWidgets retrieves all widgets.
func (h *WidgetHandler) HandleGetWidgets(c *fiber.Ctx) error {
	widgets, err := h.service.GetAllWidgets(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.NewWidgetResponses(widgets))
}

// HandleGetWidgetByName retrieves a single widget by its name.
func (h *WidgetHandler) HandleGetWidgetByName(c *fiber.Ctx) error {
	name, err := h.nameParam(c)
	if err != nil {
		return h.respondError(c, err)
	}
	widget, err := h.service.GetWidgetByName(c.UserContext(), name)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.NewWidgetResponse(*widget))
}

// HandleCreateWidget creates a new widget.
func (h *WidgetHandler) HandleCreateWidget(c *fiber.Ctx) error {
	var req models.WidgetRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badBody(c, err)
	}
	if err := h.validator.ValidateCreate(req); err != nil {
		return h.respondError(c, err)
	}

	widget, err := h.service.CreateWidget(c.UserContext(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewWidgetResponse(*widget))
}

// HandleUpdateWidget applies a partial update to an existing widget.
func (h *WidgetHandler) HandleUpdateWidget(c *fiber.Ctx) error {
	name, err := h.nameParam(c)
	if err != nil {
		return h.respondError(c, err)
	}

	var req models.WidgetRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badBody(c, err)
	}
	if err := h.validator.ValidateUpdate(req); err != nil {
		return h.respondError(c, err)
	}

	widget, err := h.service.UpdateWidget(c.UserContext(), name, req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.NewWidgetResponse(*widget))
}

// HandleDeleteWidget deletes a widget by its name.
// A missing widget answers 409, not 404.
func (h *WidgetHandler) HandleDeleteWidget(c *fiber.Ctx) error {
	name, err := h.nameParam(c)
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.service.DeleteWidget(c.UserContext(), name); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// nameParam decodes and checks the {name} path segment.
func (h *WidgetHandler) nameParam(c *fiber.Ctx) (string, error) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return "", &services.ValidationError{Messages: []string{"name: Name is not a valid path segment"}}
	}
	if err := h.validator.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

func (h *WidgetHandler) badBody(c *fiber.Ctx, err error) error {
	h.logger.Warn("Error parsing widget request body", zap.Error(err))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// respondError maps service errors to status codes.
func (h *WidgetHandler) respondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Messages,
		})
	case errors.Is(err, services.ErrWidgetNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Widget not found",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrWidgetAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Widget already exists",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrWidgetNotFoundOnDelete):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Widget could not be deleted",
			"error":   err.Error(),
		})
	default:
		h.logger.Error("Unexpected error handling widget request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
			"error":   err.Error(),
		})
	}
}
