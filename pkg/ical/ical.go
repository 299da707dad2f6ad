// Package ical converts calendar events to and from iCalendar (RFC 5545) documents.
package ical

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	goical "github.com/arran4/golang-ical"

	"github.com/noah-isme/orgcal-api/internal/models"
)

const productID = "-//orgcal-api//calendar export//EN"

const propertyTransp = goical.ComponentProperty("TRANSP")

// Encode renders events as a VCALENDAR document. Times are written in UTC;
// loc only controls the X-WR-TIMEZONE hint.
func Encode(events []models.CalendarEvent, loc *time.Location, name string) ([]byte, error) {
	cal := goical.NewCalendar()
	cal.SetMethod(goical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	if loc != nil {
		cal.SetXWRTimezone(loc.String())
	}

	stamp := time.Now().UTC()
	for _, event := range events {
		if event.ID == "" {
			return nil, fmt.Errorf("encode event %q: missing id", event.Title)
		}
		ve := cal.AddEvent(event.ID)
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(event.StartDate.UTC())
		ve.SetEndAt(event.EndDate.UTC())
		ve.SetSummary(event.Title)
		if event.Description != "" {
			ve.SetDescription(event.Description)
		}
		if event.RecurrenceRule != nil && *event.RecurrenceRule != "" {
			ve.AddProperty(goical.ComponentPropertyRrule, strings.TrimPrefix(*event.RecurrenceRule, "RRULE:"))
		}
		ve.SetProperty(propertyTransp, transparency(event.Availability))
		if event.Availability == models.AvailabilityTentative {
			ve.SetProperty(goical.ComponentPropertyStatus, "TENTATIVE")
		}
	}

	return []byte(cal.Serialize()), nil
}

// Decode reads the VEVENTs of an iCalendar document. Events without a UID or
// a DTSTART are rejected; a missing DTEND yields a point event.
func Decode(r io.Reader) ([]models.CalendarEvent, error) {
	cal, err := goical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	events := make([]models.CalendarEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		event, err := decodeEvent(ve)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func decodeEvent(ve *goical.VEvent) (models.CalendarEvent, error) {
	uid := propertyValue(ve, goical.ComponentPropertyUniqueId)
	if uid == "" {
		return models.CalendarEvent{}, errors.New("vevent missing UID")
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return models.CalendarEvent{}, fmt.Errorf("vevent %s: DTSTART: %w", uid, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = start
	}

	event := models.CalendarEvent{
		ID:           uid,
		Title:        propertyValue(ve, goical.ComponentPropertySummary),
		Description:  propertyValue(ve, goical.ComponentPropertyDescription),
		StartDate:    start,
		EndDate:      end,
		EventType:    models.EventTypeEvent,
		Availability: models.AvailabilityBusy,
		IsVisible:    true,
	}
	if strings.EqualFold(propertyValue(ve, propertyTransp), "TRANSPARENT") {
		event.Availability = models.AvailabilityFree
	} else if strings.EqualFold(propertyValue(ve, goical.ComponentPropertyStatus), "TENTATIVE") {
		event.Availability = models.AvailabilityTentative
	}
	if rule := propertyValue(ve, goical.ComponentPropertyRrule); rule != "" {
		event.RecurrenceRule = &rule
	}
	if prop := ve.GetProperty(goical.ComponentPropertyDtStart); prop != nil {
		if tzids, ok := prop.ICalParameters["TZID"]; ok && len(tzids) > 0 {
			event.TimeZone = tzids[0]
		}
	}
	return event, nil
}

func propertyValue(ve *goical.VEvent, name goical.ComponentProperty) string {
	prop := ve.GetProperty(name)
	if prop == nil {
		return ""
	}
	return strings.TrimSpace(prop.Value)
}

func transparency(availability models.Availability) string {
	if availability == models.AvailabilityFree {
		return "TRANSPARENT"
	}
	return "OPAQUE"
}
