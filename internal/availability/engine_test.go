package availability

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgcal-api/internal/models"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
)

type eventSourceStub struct {
	events []models.CalendarEvent
	err    error
	scope  models.EventScope
	window Interval
	calls  int
}

func (s *eventSourceStub) ListEvents(_ context.Context, scope models.EventScope, window Interval) ([]models.CalendarEvent, error) {
	s.calls++
	s.scope = scope
	s.window = window
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func event(id string, start, end time.Time, availability models.Availability) models.CalendarEvent {
	return models.CalendarEvent{
		ID:             id,
		OrganizationID: "org-1",
		CreatedBy:      "user-1",
		Title:          "Event " + id,
		StartDate:      start,
		EndDate:        end,
		EventType:      models.EventTypeMeeting,
		Availability:   availability,
		IsVisible:      true,
	}
}

func TestEngineBusyMergesAndClips(t *testing.T) {
	source := &eventSourceStub{events: []models.CalendarEvent{
		event("a", at(9, 0), at(10, 0), models.AvailabilityBusy),
		event("b", at(9, 30), at(11, 0), models.AvailabilityBusy),
		event("c", at(7, 0), at(8, 30), models.AvailabilityBusy),
		event("d", at(12, 0), at(13, 0), models.AvailabilityFree),
		event("e", at(14, 0), at(15, 0), models.AvailabilityTentative),
		event("f", at(17, 30), at(19, 0), models.AvailabilityBusy),
	}}
	engine := NewEngine(source)
	window := between(t, 8, 0, 18, 0)

	busy, err := engine.Busy(context.Background(), models.OrganizationScope("org-1"), window)
	require.NoError(t, err)

	assert.Equal(t, []Interval{
		between(t, 8, 0, 8, 30),
		between(t, 9, 0, 11, 0),
		between(t, 17, 30, 18, 0),
	}, busy)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, "org-1", source.scope.OrganizationID)
	assert.Equal(t, window, source.window)
}

func TestEngineBusyMergesTouchingBlocks(t *testing.T) {
	source := &eventSourceStub{events: []models.CalendarEvent{
		event("a", at(10, 0), at(11, 0), models.AvailabilityBusy),
		event("b", at(11, 0), at(12, 0), models.AvailabilityBusy),
	}}
	busy, err := NewEngine(source).Busy(context.Background(), models.UserScope("user-1"), between(t, 8, 0, 18, 0))
	require.NoError(t, err)
	assert.Equal(t, []Interval{between(t, 10, 0, 12, 0)}, busy)
}

func TestEngineBusyValidatesInput(t *testing.T) {
	source := &eventSourceStub{}
	engine := NewEngine(source)
	window := between(t, 8, 0, 18, 0)

	_, err := engine.Busy(context.Background(), models.EventScope{}, window)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidArgument.Code))

	_, err = engine.Busy(context.Background(), models.EventScope{OrganizationID: "org-1", UserID: "user-1"}, window)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidArgument.Code))

	_, err = engine.Busy(context.Background(), models.OrganizationScope("org-1"), Interval{Start: at(10, 0), End: at(9, 0)})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidArgument.Code))

	assert.Zero(t, source.calls, "invalid requests must not reach the collaborator")
}

func TestEngineBusyPropagatesCollaboratorErrors(t *testing.T) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "organization not found")
	_, err := NewEngine(&eventSourceStub{err: notFound}).Busy(context.Background(), models.OrganizationScope("missing"), between(t, 8, 0, 9, 0))
	require.Error(t, err)
	assert.Same(t, notFound, err)

	_, err = NewEngine(&eventSourceStub{err: sql.ErrConnDone}).Busy(context.Background(), models.OrganizationScope("org-1"), between(t, 8, 0, 9, 0))
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
