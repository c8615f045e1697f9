package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"widgets/internal/models"
	"widgets/internal/repositories"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "widget-service"

// EventPublisher receives lifecycle events after a change has been committed.
type EventPublisher interface {
	Publish(ctx context.Context, event models.WidgetEvent) error
}

// WidgetService handles business logic related to widgets.
type WidgetService struct {
	repo      repositories.WidgetRepository
	publisher EventPublisher
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewWidgetService creates a new WidgetService. publisher may be nil.
func NewWidgetService(repo repositories.WidgetRepository, publisher EventPublisher, logger *zap.Logger) *WidgetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WidgetService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// GetAllWidgets retrieves all widgets in storage order.
func (s *WidgetService) GetAllWidgets(ctx context.Context) ([]models.Widget, error) {
	ctx, span := s.tracer.Start(ctx, "WidgetService.GetAllWidgets")
	defer span.End()

	widgets, err := s.repo.FindAll(context.WithoutCancel(ctx))
	if err != nil {
		s.fail(span, "Failed to fetch widgets", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("widgets.count", len(widgets)))
	s.logger.Info("Retrieved widgets", zap.Int("count", len(widgets)))
	return widgets, nil
}

// GetWidgetByName retrieves a single widget by its name.
func (s *WidgetService) GetWidgetByName(ctx context.Context, name string) (*models.Widget, error) {
	ctx, span := s.start(ctx, "WidgetService.GetWidgetByName", name)
	defer span.End()

	widget, err := s.find(ctx, name)
	if err != nil {
		s.reject(span, "Widget not found", name, err)
		return nil, err
	}
	s.logger.Info("Fetched widget", zap.String("name", name))
	return widget, nil
}

// CreateWidget persists a new widget. The name must not be taken.
func (s *WidgetService) CreateWidget(ctx context.Context, req models.WidgetRequest) (*models.Widget, error) {
	widget := req.ToWidget()
	ctx, span := s.start(ctx, "WidgetService.CreateWidget", widget.Name)
	defer span.End()

	storeCtx := context.WithoutCancel(ctx)
	exists, err := s.repo.ExistsByName(storeCtx, widget.Name)
	if err != nil {
		s.fail(span, "Failed to check widget name", err)
		return nil, err
	}
	if exists {
		err := fmt.Errorf("widget with name '%s' %w", widget.Name, ErrWidgetAlreadyExists)
		s.reject(span, "Widget already exists", widget.Name, err)
		return nil, err
	}

	// The pre-check can race with another writer; the unique index decides.
	if err := s.repo.Save(storeCtx, &widget); err != nil {
		if errors.Is(err, repositories.ErrDuplicateName) {
			err = fmt.Errorf("widget with name '%s' %w", widget.Name, ErrWidgetAlreadyExists)
			s.reject(span, "Widget already exists", widget.Name, err)
			return nil, err
		}
		s.fail(span, "Failed to create widget", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("widget.id", int64(widget.ID)))
	s.logger.Info("Created widget", zap.String("name", widget.Name), zap.Uint("id", widget.ID))
	s.publish(ctx, models.EventWidgetCreated, widget)
	return &widget, nil
}

// UpdateWidget overwrites the description and price present in patch.
// Name and ID never change.
func (s *WidgetService) UpdateWidget(ctx context.Context, name string, patch models.WidgetRequest) (*models.Widget, error) {
	ctx, span := s.start(ctx, "WidgetService.UpdateWidget", name)
	defer span.End()

	existing, err := s.find(ctx, name)
	if err != nil {
		s.reject(span, "Widget not found", name, err)
		return nil, err
	}

	if patch.Description != nil {
		d := *patch.Description
		existing.Description = &d
	}
	if patch.Price != nil {
		existing.Price = patch.Price.Decimal
	}

	if err := s.repo.Save(context.WithoutCancel(ctx), existing); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			err = fmt.Errorf("widget with name '%s' %w", name, ErrWidgetNotFound)
			s.reject(span, "Widget not found", name, err)
			return nil, err
		}
		s.fail(span, "Failed to update widget", err)
		return nil, err
	}

	s.logger.Info("Updated widget", zap.String("name", name))
	s.publish(ctx, models.EventWidgetUpdated, *existing)
	return existing, nil
}

// DeleteWidget removes a widget. Unlike the repository, deleting a missing
// name is an error.
func (s *WidgetService) DeleteWidget(ctx context.Context, name string) error {
	ctx, span := s.start(ctx, "WidgetService.DeleteWidget", name)
	defer span.End()

	storeCtx := context.WithoutCancel(ctx)
	exists, err := s.repo.ExistsByName(storeCtx, name)
	if err != nil {
		s.fail(span, "Failed to check widget name", err)
		return err
	}
	if !exists {
		err := fmt.Errorf("widget with name '%s' %w", name, ErrWidgetNotFoundOnDelete)
		s.reject(span, "Widget not found for deletion", name, err)
		return err
	}

	if err := s.repo.DeleteByName(storeCtx, name); err != nil {
		s.fail(span, "Failed to delete widget", err)
		return err
	}

	s.logger.Info("Deleted widget", zap.String("name", name))
	s.publish(ctx, models.EventWidgetDeleted, models.Widget{Name: name})
	return nil
}

func (s *WidgetService) find(ctx context.Context, name string) (*models.Widget, error) {
	widget, err := s.repo.FindByName(context.WithoutCancel(ctx), name)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, fmt.Errorf("widget with name '%s' %w", name, ErrWidgetNotFound)
		}
		return nil, err
	}
	return widget, nil
}

func (s *WidgetService) start(ctx context.Context, op, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("widget.name", name)))
}

// reject records an expected domain failure. Storage errors go through fail.
func (s *WidgetService) reject(span trace.Span, msg, name string, err error) {
	if !isDomainError(err) {
		s.fail(span, msg, err)
		return
	}
	span.SetAttributes(attribute.String("widget.outcome", err.Error()))
	s.logger.Warn(msg, zap.String("name", name), zap.Error(err))
}

func (s *WidgetService) fail(span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.logger.Error(msg, zap.Error(err))
}

func (s *WidgetService) publish(ctx context.Context, eventType string, widget models.Widget) {
	if s.publisher == nil {
		return
	}
	event := models.WidgetEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Widget:     models.NewWidgetResponse(widget),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish widget event",
			zap.String("type", eventType),
			zap.String("name", widget.Name),
			zap.Error(err),
		)
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrWidgetNotFound) ||
		errors.Is(err, ErrWidgetAlreadyExists) ||
		errors.Is(err, ErrWidgetNotFoundOnDelete)
}
