package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/dto"
	"github.com/noah-isme/orgcal-api/internal/middleware"
	"github.com/noah-isme/orgcal-api/internal/models"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
)

type fakeCalendarSrv struct {
	createReq   dto.CreateCalendarEventRequest
	createdBy   string
	updateReq   dto.UpdateCalendarEventRequest
	rsvp        dto.AttendanceRequest
	rsvpUser    string
	page, size  int
	window      availability.Interval
	importOrg   string
	importBody  string
	deleteErr   error
	getErr      error
	event       *models.CalendarEvent
	importRes   *dto.ImportResult
	listedOwner string
}

func (f *fakeCalendarSrv) Create(_ context.Context, req dto.CreateCalendarEventRequest, createdBy string) (*models.CalendarEvent, error) {
	f.createReq = req
	f.createdBy = createdBy
	return &models.CalendarEvent{ID: "evt-1", Title: req.Title, CreatedBy: createdBy}, nil
}

func (f *fakeCalendarSrv) Get(context.Context, string) (*models.CalendarEvent, error) {
	return f.event, f.getErr
}

func (f *fakeCalendarSrv) ListByOrganization(_ context.Context, _ string, page, pageSize int) ([]models.CalendarEvent, *models.Pagination, error) {
	f.page, f.size = page, pageSize
	return []models.CalendarEvent{}, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: 0}, nil
}

func (f *fakeCalendarSrv) ListByRange(_ context.Context, _ string, window availability.Interval) ([]models.CalendarEvent, error) {
	f.window = window
	return []models.CalendarEvent{}, nil
}

func (f *fakeCalendarSrv) ListForUser(_ context.Context, userID string) ([]models.CalendarEvent, error) {
	f.listedOwner = userID
	return []models.CalendarEvent{}, nil
}

func (f *fakeCalendarSrv) Update(_ context.Context, id string, req dto.UpdateCalendarEventRequest) (*models.CalendarEvent, error) {
	f.updateReq = req
	return &models.CalendarEvent{ID: id}, nil
}

func (f *fakeCalendarSrv) Delete(context.Context, string) error {
	return f.deleteErr
}

func (f *fakeCalendarSrv) RespondAttendance(_ context.Context, eventID, userID string, req dto.AttendanceRequest) (*models.CalendarEvent, error) {
	f.rsvp = req
	f.rsvpUser = userID
	return &models.CalendarEvent{ID: eventID}, nil
}

func (f *fakeCalendarSrv) ImportICS(_ context.Context, orgID, _ string, r io.Reader) (*dto.ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.importOrg = orgID
	f.importBody = string(raw)
	return f.importRes, nil
}

func authenticated(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
}

func jsonRequest(c *gin.Context, method, target, body string) {
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
}

func TestCalendarHandlerCreate(t *testing.T) {
	srv := &fakeCalendarSrv{}
	h := NewCalendarHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/calendar-events")
	jsonRequest(c, http.MethodPost, "/calendar-events", `{"organizationId":"org-1","title":"Kickoff","startDate":"2025-03-10T09:00:00Z","endDate":"2025-03-10T10:00:00Z","availability":"tentative"}`)
	h.Create(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/calendar-events")
	jsonRequest(c, http.MethodPost, "/calendar-events", `{"organizationId":"org-1","title":"Kickoff","startDate":"2025-03-10T09:00:00Z","endDate":"2025-03-10T10:00:00Z","availability":"tentative"}`)
	authenticated(c)
	h.Create(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", srv.createdBy)
	assert.Equal(t, "Kickoff", srv.createReq.Title)
	assert.Equal(t, models.AvailabilityTentative, srv.createReq.Availability)
	assert.True(t, srv.createReq.StartDate.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))

	c, rec = newTestContext(http.MethodPost, "/calendar-events")
	jsonRequest(c, http.MethodPost, "/calendar-events", `{"title":`)
	authenticated(c)
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarHandlerGetAndDeleteMapErrors(t *testing.T) {
	srv := &fakeCalendarSrv{getErr: appErrors.Clone(appErrors.ErrNotFound, "event not found")}
	h := NewCalendarHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/calendar-events/x", gin.Param{Key: "id", Value: "x"})
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "event not found", decodeEnvelope(t, rec).Error.Message)

	c, rec = newTestContext(http.MethodDelete, "/calendar-events/x", gin.Param{Key: "id", Value: "x"})
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	srv.deleteErr = appErrors.Clone(appErrors.ErrNotFound, "event not found")
	c, rec = newTestContext(http.MethodDelete, "/calendar-events/x", gin.Param{Key: "id", Value: "x"})
	h.Delete(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendarHandlerUpdateAndAttendance(t *testing.T) {
	srv := &fakeCalendarSrv{}
	h := NewCalendarHandler(srv)

	c, rec := newTestContext(http.MethodPut, "/calendar-events/evt-1", gin.Param{Key: "id", Value: "evt-1"})
	jsonRequest(c, http.MethodPut, "/calendar-events/evt-1", `{"title":"Renamed","isVisible":false}`)
	h.Update(c)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.updateReq.Title)
	assert.Equal(t, "Renamed", *srv.updateReq.Title)
	require.NotNil(t, srv.updateReq.IsVisible)
	assert.False(t, *srv.updateReq.IsVisible)
	assert.Nil(t, srv.updateReq.StartDate)

	c, rec = newTestContext(http.MethodPut, "/calendar-events/evt-1/attendance", gin.Param{Key: "id", Value: "evt-1"})
	jsonRequest(c, http.MethodPut, "/calendar-events/evt-1/attendance", `{"status":"maybe"}`)
	authenticated(c)
	h.RespondAttendance(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", srv.rsvpUser)
	assert.Equal(t, models.AttendeeMaybe, srv.rsvp.Status)
}

func TestCalendarHandlerListing(t *testing.T) {
	srv := &fakeCalendarSrv{}
	h := NewCalendarHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/organization/org-1?page=3&page_size=abc", orgParam("org-1"))
	h.ListByOrganization(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, srv.page)
	assert.Equal(t, 50, srv.size)
	var body struct {
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Pagination.Page)

	c, rec = newTestContext(http.MethodGet, "/organization/org-1/date-range?start_date=2025-03-01&end_date=2025-04-01", orgParam("org-1"))
	h.ListByRange(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.window.Start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, srv.window.End.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))

	c, rec = newTestContext(http.MethodGet, "/my")
	authenticated(c)
	h.ListMine(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", srv.listedOwner)
}

func TestCalendarHandlerImportICS(t *testing.T) {
	srv := &fakeCalendarSrv{importRes: &dto.ImportResult{Imported: 1, EventIDs: []string{"evt-1"}}}
	h := NewCalendarHandler(srv)
	const ics = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "team.ics")
	require.NoError(t, err)
	_, _ = part.Write([]byte(ics))
	require.NoError(t, writer.Close())

	c, rec := newTestContext(http.MethodPost, "/import", orgParam("org-1"))
	c.Request = httptest.NewRequest(http.MethodPost, "/import", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	authenticated(c)
	h.ImportICS(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "org-1", srv.importOrg)
	assert.Equal(t, ics, srv.importBody)

	c, rec = newTestContext(http.MethodPost, "/import", orgParam("org-1"))
	c.Request = httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(ics))
	c.Request.Header.Set("Content-Type", "text/calendar")
	authenticated(c)
	h.ImportICS(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, ics, srv.importBody)

	c, rec = newTestContext(http.MethodPost, "/import", orgParam("org-1"))
	c.Request = httptest.NewRequest(http.MethodPost, "/import", &bytes.Buffer{})
	c.Request.Header.Set("Content-Type", "multipart/form-data; boundary=nothing")
	authenticated(c)
	h.ImportICS(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
