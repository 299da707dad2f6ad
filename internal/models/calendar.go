package models

import "time"

// EventType classifies a calendar entry.
type EventType string

const (
	EventTypePersonal EventType = "personal"
	EventTypeMeeting  EventType = "meeting"
	EventTypeEvent    EventType = "event"
)

// Availability describes how an event affects its owner's free/busy state.
type Availability string

const (
	AvailabilityBusy      Availability = "busy"
	AvailabilityFree      Availability = "free"
	AvailabilityTentative Availability = "tentative"
)

// AttendeeStatus is an attendee's RSVP answer.
type AttendeeStatus string

const (
	AttendeeGoing    AttendeeStatus = "going"
	AttendeeMaybe    AttendeeStatus = "maybe"
	AttendeeDeclined AttendeeStatus = "declined"
)

// CalendarEvent represents an organization calendar entry.
type CalendarEvent struct {
	ID             string          `db:"id" json:"id"`
	OrganizationID string          `db:"organization_id" json:"organization_id"`
	CreatedBy      string          `db:"created_by" json:"created_by"`
	Title          string          `db:"title" json:"title"`
	Description    string          `db:"description" json:"description"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        time.Time       `db:"end_date" json:"end_date"`
	EventType      EventType       `db:"event_type" json:"event_type"`
	Availability   Availability    `db:"availability" json:"availability"`
	IsVisible      bool            `db:"is_visible" json:"is_visible"`
	RecurrenceRule *string         `db:"recurrence_rule" json:"recurrence_rule,omitempty"`
	TimeZone       string          `db:"time_zone" json:"time_zone,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	Attendees      []EventAttendee `db:"-" json:"attendees,omitempty"`
}

// IsBusy reports whether the event blocks its owner's time.
func (e CalendarEvent) IsBusy() bool {
	return e.Availability == AvailabilityBusy
}

// EventAttendee links a user to an event together with the user's display name.
type EventAttendee struct {
	EventID   string         `db:"event_id" json:"-"`
	UserID    string         `db:"user_id" json:"user_id"`
	FirstName string         `db:"first_name" json:"first_name"`
	LastName  string         `db:"last_name" json:"last_name"`
	Status    AttendeeStatus `db:"status" json:"status"`
}

// EventScope selects whose events are read. Exactly one field is set.
type EventScope struct {
	OrganizationID string
	UserID         string
}

// OrganizationScope builds a scope covering every event of an organization.
func OrganizationScope(id string) EventScope {
	return EventScope{OrganizationID: id}
}

// UserScope builds a scope covering events a user owns or attends.
func UserScope(id string) EventScope {
	return EventScope{UserID: id}
}

// Key renders the scope as a stable cache-key fragment.
func (s EventScope) Key() string {
	if s.OrganizationID != "" {
		return "org:" + s.OrganizationID
	}
	return "user:" + s.UserID
}

// CalendarFilter narrows down events for listing endpoints.
type CalendarFilter struct {
	OrganizationID string
	StartDate      *time.Time
	EndDate        *time.Time
	VisibleOnly    bool
	Page           int
	PageSize       int
}
