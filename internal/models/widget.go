package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Widget is the storage record of a widget.
type Widget struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	Name        string          `gorm:"uniqueIndex;size:100;not null"`
	Description *string         `gorm:"size:1000"`
	Price       decimal.Decimal `gorm:"type:decimal(7,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName pins the table name regardless of GORM's naming strategy.
func (Widget) TableName() string {
	return "widgets"
}

// WidgetRequest is the body of create and update requests. Every field is a
// pointer so that an absent field can be told apart from a zero value.
// An "id" sent by the client is ignored.
type WidgetRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *Amount `json:"price,omitempty"`
}

// ToWidget maps a (validated) request onto a new storage record.
func (r WidgetRequest) ToWidget() Widget {
	var w Widget
	if r.Name != nil {
		w.Name = *r.Name
	}
	if r.Description != nil {
		d := *r.Description
		w.Description = &d
	}
	if r.Price != nil {
		w.Price = r.Price.Decimal
	}
	return w
}

// WidgetResponse is the wire representation of a stored widget.
type WidgetResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       Amount  `json:"price"`
}

// NewWidgetResponse maps a storage record onto its wire representation.
func NewWidgetResponse(w Widget) WidgetResponse {
	return WidgetResponse{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Price:       NewAmount(w.Price),
	}
}

// NewWidgetResponses maps a list of records, never returning nil so that an
// empty list encodes as [].
func NewWidgetResponses(widgets []Widget) []WidgetResponse {
	out := make([]WidgetResponse, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, NewWidgetResponse(w))
	}
	return out
}
