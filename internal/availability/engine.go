package availability

import (
	"context"

	"github.com/noah-isme/orgcal-api/internal/models"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
)

// EventSource returns every event of scope whose range intersects window.
// Implementations must read a consistent snapshot for the duration of a call.
type EventSource interface {
	ListEvents(ctx context.Context, scope models.EventScope, window Interval) ([]models.CalendarEvent, error)
}

// ValidateScope checks that exactly one of organization or user is selected.
func ValidateScope(scope models.EventScope) error {
	switch {
	case scope.OrganizationID != "" && scope.UserID != "":
		return appErrors.InvalidArgument("scope must select an organization or a user, not both")
	case scope.OrganizationID == "" && scope.UserID == "":
		return appErrors.InvalidArgument("scope must select an organization or a user")
	}
	return nil
}

// ValidateWindow rejects empty and inverted windows.
func ValidateWindow(window Interval) error {
	_, err := NewInterval(window.Start, window.End)
	return err
}

// Engine answers busy queries for a scope.
type Engine struct {
	source EventSource
}

// NewEngine constructs an engine reading events from source.
func NewEngine(source EventSource) *Engine {
	return &Engine{source: source}
}

// Busy returns the merged busy sub-intervals of window for scope, ascending and disjoint.
func (e *Engine) Busy(ctx context.Context, scope models.EventScope, window Interval) ([]Interval, error) {
	if err := ValidateScope(scope); err != nil {
		return nil, err
	}
	if err := ValidateWindow(window); err != nil {
		return nil, err
	}
	events, err := e.source.ListEvents(ctx, scope, window)
	if err != nil {
		return nil, err
	}
	return BusyIntervals(events, window), nil
}

// BusyIntervals clips the busy events to window and merges them.
func BusyIntervals(events []models.CalendarEvent, window Interval) []Interval {
	clipped := make([]Interval, 0, len(events))
	for _, event := range events {
		if !event.IsBusy() {
			continue
		}
		span := Interval{Start: event.StartDate, End: event.EndDate}
		if part, ok := span.Clip(window); ok {
			clipped = append(clipped, part)
		}
	}
	return Merge(clipped)
}
