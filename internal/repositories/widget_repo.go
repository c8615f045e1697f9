package repositories

import (
	"context"
	"errors"

	"widgets/internal/models"
)

var (
	// ErrRecordNotFound is returned by FindByName when no widget has the name.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateName is returned by Save when the unique constraint on name is violated.
	ErrDuplicateName = errors.New("duplicate widget name")
)

// WidgetRepository defines the interface for widget data access.
// Names are matched exactly and case-sensitively.
type WidgetRepository interface {
	FindAll(ctx context.Context) ([]models.Widget, error)
	FindByName(ctx context.Context, name string) (*models.Widget, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	// Save inserts the widget when its ID is zero and updates it otherwise.
	// The assigned ID is written back into widget.
	Save(ctx context.Context, widget *models.Widget) error
	// DeleteByName is a no-op when the name does not exist.
	DeleteByName(ctx context.Context, name string) error
}
