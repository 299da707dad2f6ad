package main

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/models"
	"github.com/noah-isme/orgcal-api/internal/recurrence"
	"github.com/noah-isme/orgcal-api/pkg/ical"
)

// fileSource serves the events of one decoded iCalendar document.
type fileSource struct {
	events []models.CalendarEvent
	logger *zap.Logger
}

func newFileSource(r io.Reader, logger *zap.Logger) (*fileSource, error) {
	events, err := ical.Decode(r)
	if err != nil {
		return nil, err
	}
	return &fileSource{events: events, logger: logger}, nil
}

func (s *fileSource) ListEvents(_ context.Context, _ models.EventScope, window availability.Interval) ([]models.CalendarEvent, error) {
	result, err := recurrence.Expand(s.events, window, recurrence.DefaultMaxOccurrences)
	if err != nil {
		return nil, err
	}
	if len(result.Truncated) > 0 {
		s.logger.Warn("recurrence expansion truncated", zap.Strings("event_ids", result.Truncated))
	}
	return result.Events, nil
}
