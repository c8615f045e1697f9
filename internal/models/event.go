package models

import "time"

// Widget lifecycle event types.
const (
	EventWidgetCreated = "widget.created"
	EventWidgetUpdated = "widget.updated"
	EventWidgetDeleted = "widget.deleted"
)

// WidgetEvent describes a committed change to a widget.
type WidgetEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Widget     WidgetResponse `json:"widget"`
	OccurredAt time.Time      `json:"occurred_at"`
}
