package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"widgets/internal/models"

	"gorm.io/gorm"
)

// GORMWidgetRepository is a GORM implementation of WidgetRepository.
type GORMWidgetRepository struct {
	db *gorm.DB
}

// NewGORMWidgetRepository creates a new instance of GORMWidgetRepository.
func NewGORMWidgetRepository(db *gorm.DB) *GORMWidgetRepository {
	return &GORMWidgetRepository{
		db: db,
	}
}

// FindAll retrieves all widgets ordered by ID.
func (r *GORMWidgetRepository) FindAll(ctx context.Context) ([]models.Widget, error) {
	var widgets []models.Widget
	if err := r.db.WithContext(ctx).Order("id").Find(&widgets).Error; err != nil {
		return nil, fmt.Errorf("failed to get all widgets: %w", err)
	}
	return widgets, nil
}

// FindByName retrieves a single widget by its name.
func (r *GORMWidgetRepository) FindByName(ctx context.Context, name string) (*models.Widget, error) {
	var widget models.Widget
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&widget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("widget with name %s: %w", name, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get widget by name %s: %w", name, err)
	}
	return &widget, nil
}

// ExistsByName reports whether a widget with the name is stored.
func (r *GORMWidgetRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Widget{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check widget %s: %w", name, err)
	}
	return count > 0, nil
}

// Save inserts or updates the widget inside a single transaction.
func (r *GORMWidgetRepository) Save(ctx context.Context, widget *models.Widget) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if widget.ID == 0 {
			return tx.Create(widget).Error
		}
		res := tx.Model(widget).Select("description", "price", "updated_at").Updates(widget)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("widget with ID %d: %w", widget.ID, ErrRecordNotFound)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("widget with name %s: %w", widget.Name, ErrDuplicateName)
		}
		return fmt.Errorf("failed to save widget: %w", err)
	}
	return nil
}

// DeleteByName removes the widget with the name, if any.
func (r *GORMWidgetRepository) DeleteByName(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("name = ?", name).Delete(&models.Widget{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete widget %s: %w", name, err)
	}
	return nil
}

// isUniqueViolation recognizes unique constraint failures from both the
// sqlite and postgres drivers. gorm only translates them to ErrDuplicatedKey
// when the connection was opened with TranslateError.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
