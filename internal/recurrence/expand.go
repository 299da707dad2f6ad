package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/models"
)

// DefaultMaxOccurrences caps the expansion of a single recurring event.
const DefaultMaxOccurrences = 5000

const occurrenceIDLayout = "20060102T150405Z"

// Result carries expanded events and the ids of recurring events that hit the cap.
type Result struct {
	Events    []models.CalendarEvent
	Truncated []string
}

// Parse parses an RRULE anchored at dtstart. A leading "RRULE:" is accepted.
func Parse(rule string, dtstart time.Time) (*rrule.RRule, error) {
	rule = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:"))
	if rule == "" {
		return nil, fmt.Errorf("empty recurrence rule")
	}
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence rule %q: %w", rule, err)
	}
	r.DTStart(dtstart)
	return r, nil
}

// Expand returns the events overlapping window. One-off events pass through
// untouched; recurring events are replaced by their occurrences, each keeping
// the original duration. maxPerEvent <= 0 selects DefaultMaxOccurrences.
func Expand(events []models.CalendarEvent, window availability.Interval, maxPerEvent int) (Result, error) {
	if maxPerEvent <= 0 {
		maxPerEvent = DefaultMaxOccurrences
	}
	result := Result{Events: make([]models.CalendarEvent, 0, len(events))}
	for _, event := range events {
		if event.RecurrenceRule == nil || strings.TrimSpace(*event.RecurrenceRule) == "" {
			if overlaps(event.StartDate, event.EndDate, window) {
				result.Events = append(result.Events, event)
			}
			continue
		}
		occurrences, truncated, err := expandEvent(event, window, maxPerEvent)
		if err != nil {
			return Result{}, fmt.Errorf("expand event %s: %w", event.ID, err)
		}
		if truncated {
			result.Truncated = append(result.Truncated, event.ID)
		}
		result.Events = append(result.Events, occurrences...)
	}
	return result, nil
}

func expandEvent(event models.CalendarEvent, window availability.Interval, maxPerEvent int) ([]models.CalendarEvent, bool, error) {
	loc := time.UTC
	if event.TimeZone != "" {
		if zone, err := time.LoadLocation(event.TimeZone); err == nil {
			loc = zone
		}
	}
	r, err := Parse(*event.RecurrenceRule, event.StartDate.In(loc))
	if err != nil {
		return nil, false, err
	}

	length := event.EndDate.Sub(event.StartDate)
	starts := r.Between(window.Start.Add(-length).In(loc), window.End.In(loc), true)

	out := make([]models.CalendarEvent, 0, len(starts))
	truncated := false
	for _, start := range starts {
		end := start.Add(length)
		if !overlaps(start, end, window) {
			continue
		}
		if len(out) == maxPerEvent {
			truncated = true
			break
		}
		occurrence := event
		occurrence.ID = event.ID + "@" + start.UTC().Format(occurrenceIDLayout)
		occurrence.StartDate = start
		occurrence.EndDate = end
		occurrence.RecurrenceRule = nil
		out = append(out, occurrence)
	}
	return out, truncated, nil
}

// overlaps reports whether [start, end) intersects window. Point events count
// when they fall inside the window.
func overlaps(start, end time.Time, window availability.Interval) bool {
	if !start.Before(end) {
		return window.Contains(start)
	}
	return start.Before(window.End) && end.After(window.Start)
}
