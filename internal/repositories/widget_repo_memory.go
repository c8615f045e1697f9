package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"widgets/internal/models"
)

// MemoryWidgetRepository is an in-memory implementation of WidgetRepository.
// It keeps insertion order and enforces name uniqueness like the SQL schema does.
type MemoryWidgetRepository struct {
	widgets map[string]models.Widget
	order   []string
	nextID  uint
	mu      sync.RWMutex
}

// NewMemoryWidgetRepository creates a new instance of MemoryWidgetRepository.
func NewMemoryWidgetRepository() *MemoryWidgetRepository {
	return &MemoryWidgetRepository{
		widgets: make(map[string]models.Widget),
		nextID:  1,
	}
}

// FindAll returns all widgets in insertion order.
func (r *MemoryWidgetRepository) FindAll(_ context.Context) ([]models.Widget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Widget, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, cloneWidget(r.widgets[name]))
	}
	return list, nil
}

// FindByName returns a widget by its name.
func (r *MemoryWidgetRepository) FindByName(_ context.Context, name string) (*models.Widget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	widget, ok := r.widgets[name]
	if !ok {
		return nil, fmt.Errorf("widget with name %s: %w", name, ErrRecordNotFound)
	}
	w := cloneWidget(widget)
	return &w, nil
}

// ExistsByName reports whether a widget with the name is stored.
func (r *MemoryWidgetRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.widgets[name]
	return ok, nil
}

// Save inserts a new widget or replaces the mutable fields of an existing one.
func (r *MemoryWidgetRepository) Save(_ context.Context, widget *models.Widget) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if widget.ID == 0 {
		if _, taken := r.widgets[widget.Name]; taken {
			return fmt.Errorf("widget with name %s: %w", widget.Name, ErrDuplicateName)
		}
		widget.ID = r.nextID
		r.nextID++
		widget.CreatedAt = now
		widget.UpdatedAt = now
		r.widgets[widget.Name] = cloneWidget(*widget)
		r.order = append(r.order, widget.Name)
		return nil
	}

	stored, ok := r.widgets[widget.Name]
	if !ok || stored.ID != widget.ID {
		return fmt.Errorf("widget with ID %d: %w", widget.ID, ErrRecordNotFound)
	}
	stored.Description = widget.Description
	stored.Price = widget.Price
	stored.UpdatedAt = now
	r.widgets[widget.Name] = cloneWidget(stored)
	widget.UpdatedAt = now
	return nil
}

// DeleteByName removes a widget by its name. Missing names are ignored.
func (r *MemoryWidgetRepository) DeleteByName(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.widgets[name]; !ok {
		return nil
	}
	delete(r.widgets, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// cloneWidget copies the description so callers cannot mutate stored state.
func cloneWidget(w models.Widget) models.Widget {
	if w.Description != nil {
		d := *w.Description
		w.Description = &d
	}
	return w
}
