package dto

import (
	"time"

	"github.com/noah-isme/orgcal-api/internal/models"
)

// CreateCalendarEventRequest is the payload for POST /calendar-events.
type CreateCalendarEventRequest struct {
	OrganizationID string              `json:"organizationId" validate:"required"`
	Title          string              `json:"title" validate:"required,min=3,max=200"`
	Description    string              `json:"description" validate:"max=1000"`
	StartDate      time.Time           `json:"startDate" validate:"required"`
	EndDate        time.Time           `json:"endDate" validate:"required"`
	EventType      models.EventType    `json:"eventType" validate:"omitempty,oneof=personal meeting event"`
	Availability   models.Availability `json:"availability" validate:"omitempty,oneof=busy free tentative"`
	IsVisible      *bool               `json:"isVisible"`
	RecurrenceRule *string             `json:"recurrenceRule"`
	TimeZone       string              `json:"timeZone" validate:"omitempty,timezone"`
	AttendeeIDs    []string            `json:"attendeeIds" validate:"omitempty,dive,required"`
}

// UpdateCalendarEventRequest carries a partial update; nil fields are left untouched.
type UpdateCalendarEventRequest struct {
	Title          *string              `json:"title" validate:"omitempty,min=3,max=200"`
	Description    *string              `json:"description" validate:"omitempty,max=1000"`
	StartDate      *time.Time           `json:"startDate"`
	EndDate        *time.Time           `json:"endDate"`
	EventType      *models.EventType    `json:"eventType" validate:"omitempty,oneof=personal meeting event"`
	Availability   *models.Availability `json:"availability" validate:"omitempty,oneof=busy free tentative"`
	IsVisible      *bool                `json:"isVisible"`
	RecurrenceRule *string              `json:"recurrenceRule"`
	TimeZone       *string              `json:"timeZone" validate:"omitempty,timezone"`
}

// AttendanceRequest is an RSVP.
type AttendanceRequest struct {
	Status models.AttendeeStatus `json:"status" validate:"required,oneof=going maybe declined"`
}

// ImportResult reports the events created from an uploaded .ics file.
type ImportResult struct {
	Imported int      `json:"imported"`
	EventIDs []string `json:"eventIds"`
}
