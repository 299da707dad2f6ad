package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/dto"
	"github.com/noah-isme/orgcal-api/internal/models"
	"github.com/noah-isme/orgcal-api/internal/recurrence"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
	"github.com/noah-isme/orgcal-api/pkg/ical"
)

type calendarRepository interface {
	ListEvents(ctx context.Context, scope models.EventScope, window availability.Interval) ([]models.CalendarEvent, error)
	List(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, int, error)
	ListForUser(ctx context.Context, userID string) ([]models.CalendarEvent, error)
	GetByID(ctx context.Context, id string) (*models.CalendarEvent, error)
	Create(ctx context.Context, event *models.CalendarEvent) error
	Update(ctx context.Context, event *models.CalendarEvent) error
	Delete(ctx context.Context, id string) error
	UpsertAttendee(ctx context.Context, attendee models.EventAttendee) error
}

type organizationChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type scopeInvalidator interface {
	Invalidate(scopes ...models.EventScope)
}

// CalendarService manages calendar events and attendee RSVPs.
type CalendarService struct {
	repo        calendarRepository
	orgs        organizationChecker
	invalidator scopeInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCalendarService constructs the service. invalidator may be nil when caching is off.
func NewCalendarService(repo calendarRepository, orgs organizationChecker, invalidator scopeInvalidator, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{repo: repo, orgs: orgs, invalidator: invalidator, validator: validate, logger: logger}
}

// Create registers a new event owned by createdBy, who is added as a going attendee.
func (s *CalendarService) Create(ctx context.Context, req dto.CreateCalendarEventRequest, createdBy string) (*models.CalendarEvent, error) {
	if createdBy == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing user")
	}
	event, err := s.buildEvent(req, createdBy)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOrganization(ctx, req.OrganizationID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.logger.Info("calendar event created",
		zap.String("event_id", event.ID),
		zap.String("organization_id", event.OrganizationID),
		zap.String("created_by", createdBy),
	)
	s.invalidate(event)
	return event, nil
}

// Get returns a calendar event by id.
func (s *CalendarService) Get(ctx context.Context, id string) (*models.CalendarEvent, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get event")
	}
	return event, nil
}

// ListByOrganization returns a page of the organization's events.
func (s *CalendarService) ListByOrganization(ctx context.Context, orgID string, page, pageSize int) ([]models.CalendarEvent, *models.Pagination, error) {
	if orgID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "organizationId is required")
	}
	filter := models.CalendarFilter{OrganizationID: orgID, Page: page, PageSize: pageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendar events")
	}
	return events, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListByRange returns the organization's events overlapping window with
// recurring series expanded into occurrences.
func (s *CalendarService) ListByRange(ctx context.Context, orgID string, window availability.Interval) ([]models.CalendarEvent, error) {
	if err := availability.ValidateWindow(window); err != nil {
		return nil, err
	}
	scope := models.OrganizationScope(orgID)
	if err := availability.ValidateScope(scope); err != nil {
		return nil, err
	}
	events, err := s.repo.ListEvents(ctx, scope, window)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organization not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendar events")
	}
	expanded, err := recurrence.Expand(events, window, recurrence.DefaultMaxOccurrences)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand recurring events")
	}
	return expanded.Events, nil
}

// ListForUser returns the events a user created or attends.
func (s *CalendarService) ListForUser(ctx context.Context, userID string) ([]models.CalendarEvent, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing user")
	}
	events, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list user events")
	}
	return events, nil
}

// Update applies the non-nil fields of req and revalidates the resulting event.
func (s *CalendarService) Update(ctx context.Context, id string, req dto.UpdateCalendarEventRequest) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.StartDate != nil {
		event.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		event.EndDate = req.EndDate.UTC()
	}
	if req.EventType != nil {
		event.EventType = *req.EventType
	}
	if req.Availability != nil {
		event.Availability = *req.Availability
	}
	if req.IsVisible != nil {
		event.IsVisible = *req.IsVisible
	}
	if req.TimeZone != nil {
		event.TimeZone = *req.TimeZone
	}
	if req.RecurrenceRule != nil {
		if rule := strings.TrimSpace(*req.RecurrenceRule); rule == "" {
			event.RecurrenceRule = nil
		} else {
			event.RecurrenceRule = &rule
		}
	}
	if err := validateSchedule(event); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidate(event)
	return event, nil
}

// Delete removes a calendar event and its attendees.
func (s *CalendarService) Delete(ctx context.Context, id string) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.logger.Info("calendar event deleted", zap.String("event_id", id), zap.String("organization_id", event.OrganizationID))
	s.invalidate(event)
	return nil
}

// RespondAttendance records userID's RSVP for the event.
func (s *CalendarService) RespondAttendance(ctx context.Context, eventID, userID string, req dto.AttendanceRequest) (*models.CalendarEvent, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing user")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	attendee := models.EventAttendee{EventID: eventID, UserID: userID, Status: req.Status}
	if err := s.repo.UpsertAttendee(ctx, attendee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.invalidate(event, models.UserScope(userID))
	return s.Get(ctx, eventID)
}

// ImportICS creates one event per VEVENT of an iCalendar document. Every
// entry is validated before anything is written.
func (s *CalendarService) ImportICS(ctx context.Context, orgID, createdBy string, r io.Reader) (*dto.ImportResult, error) {
	if createdBy == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing user")
	}
	decoded, err := ical.Decode(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid iCalendar file")
	}
	if len(decoded) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "iCalendar file contains no events")
	}
	if err := s.ensureOrganization(ctx, orgID); err != nil {
		return nil, err
	}

	events := make([]*models.CalendarEvent, 0, len(decoded))
	for _, item := range decoded {
		visible := item.IsVisible
		req := dto.CreateCalendarEventRequest{
			OrganizationID: orgID,
			Title:          item.Title,
			Description:    item.Description,
			StartDate:      item.StartDate,
			EndDate:        item.EndDate,
			EventType:      item.EventType,
			Availability:   item.Availability,
			IsVisible:      &visible,
			RecurrenceRule: item.RecurrenceRule,
			TimeZone:       item.TimeZone,
		}
		event, err := s.buildEvent(req, createdBy)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("event %s: %s", item.ID, appErrors.FromError(err).Message))
		}
		events = append(events, event)
	}

	result := &dto.ImportResult{EventIDs: make([]string, 0, len(events))}
	for _, event := range events {
		if err := s.repo.Create(ctx, event); err != nil {
			s.logger.Error("ics import aborted", zap.String("organization_id", orgID), zap.Int("imported", result.Imported), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import events")
		}
		result.Imported++
		result.EventIDs = append(result.EventIDs, event.ID)
	}
	s.logger.Info("ics import completed", zap.String("organization_id", orgID), zap.Int("imported", result.Imported))
	if s.invalidator != nil {
		s.invalidator.Invalidate(models.OrganizationScope(orgID), models.UserScope(createdBy))
	}
	return result, nil
}

func (s *CalendarService) buildEvent(req dto.CreateCalendarEventRequest, createdBy string) (*models.CalendarEvent, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	event := &models.CalendarEvent{
		OrganizationID: req.OrganizationID,
		CreatedBy:      createdBy,
		Title:          req.Title,
		Description:    req.Description,
		StartDate:      req.StartDate.UTC(),
		EndDate:        req.EndDate.UTC(),
		EventType:      req.EventType,
		Availability:   req.Availability,
		IsVisible:      true,
		TimeZone:       req.TimeZone,
		Attendees:      []models.EventAttendee{{UserID: createdBy, Status: models.AttendeeGoing}},
	}
	if event.EventType == "" {
		event.EventType = models.EventTypePersonal
	}
	if event.Availability == "" {
		event.Availability = models.AvailabilityBusy
	}
	if req.IsVisible != nil {
		event.IsVisible = *req.IsVisible
	}
	if req.RecurrenceRule != nil {
		if rule := strings.TrimSpace(*req.RecurrenceRule); rule != "" {
			event.RecurrenceRule = &rule
		}
	}
	for _, id := range req.AttendeeIDs {
		if id == createdBy {
			continue
		}
		event.Attendees = append(event.Attendees, models.EventAttendee{UserID: id, Status: models.AttendeeMaybe})
	}
	if err := validateSchedule(event); err != nil {
		return nil, err
	}
	return event, nil
}

func validateSchedule(event *models.CalendarEvent) error {
	if !event.EndDate.After(event.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "endDate must be after startDate")
	}
	if event.RecurrenceRule != nil {
		if _, err := recurrence.Parse(*event.RecurrenceRule, event.StartDate); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurrenceRule")
		}
	}
	return nil
}

func (s *CalendarService) ensureOrganization(ctx context.Context, orgID string) error {
	exists, err := s.orgs.Exists(ctx, orgID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check organization")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "organization not found")
	}
	return nil
}

// invalidate drops cached availability for the event's organization, its
// creator and every attendee, plus any extra scopes.
func (s *CalendarService) invalidate(event *models.CalendarEvent, extra ...models.EventScope) {
	if s.invalidator == nil || event == nil {
		return
	}
	scopes := append([]models.EventScope{models.OrganizationScope(event.OrganizationID)}, extra...)
	if event.CreatedBy != "" {
		scopes = append(scopes, models.UserScope(event.CreatedBy))
	}
	for _, a := range event.Attendees {
		scopes = append(scopes, models.UserScope(a.UserID))
	}
	s.invalidator.Invalidate(scopes...)
}
