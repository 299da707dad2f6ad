package dto

import (
	"time"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/models"
)

// AvailabilityQuery is the parsed form of an availability request.
type AvailabilityQuery struct {
	Scope    models.EventScope
	Start    time.Time
	End      time.Time
	TimeZone string
	// Duration is the minimum free slot length; zero selects the configured default.
	Duration time.Duration
}

// Period echoes the requested window.
type Period struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// BusyResponse lists merged busy intervals for an organization or a user.
type BusyResponse struct {
	OrganizationID string                  `json:"organizationId,omitempty"`
	UserID         string                  `json:"userId,omitempty"`
	Period         Period                  `json:"period"`
	BusySlots      []availability.Interval `json:"busySlots"`
}

// FreeSlotsResponse lists gaps long enough for a meeting of Duration.
type FreeSlotsResponse struct {
	OrganizationID  string                  `json:"organizationId,omitempty"`
	UserID          string                  `json:"userId,omitempty"`
	Duration        string                  `json:"duration"`
	DurationMinutes int64                   `json:"durationMinutes"`
	Period          Period                  `json:"period"`
	FreeSlots       []availability.FreeSlot `json:"freeSlots"`
}

// MembersEventsResponse groups visible events by the id of the member who created them.
type MembersEventsResponse map[string][]availability.EventProjection

// ExportFile is a rendered calendar download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
