package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/dto"
	"github.com/noah-isme/orgcal-api/internal/models"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
	"github.com/noah-isme/orgcal-api/pkg/response"
)

const maxImportBytes = 2 << 20

type calendarService interface {
	Create(ctx context.Context, req dto.CreateCalendarEventRequest, createdBy string) (*models.CalendarEvent, error)
	Get(ctx context.Context, id string) (*models.CalendarEvent, error)
	ListByOrganization(ctx context.Context, orgID string, page, pageSize int) ([]models.CalendarEvent, *models.Pagination, error)
	ListByRange(ctx context.Context, orgID string, window availability.Interval) ([]models.CalendarEvent, error)
	ListForUser(ctx context.Context, userID string) ([]models.CalendarEvent, error)
	Update(ctx context.Context, id string, req dto.UpdateCalendarEventRequest) (*models.CalendarEvent, error)
	Delete(ctx context.Context, id string) error
	RespondAttendance(ctx context.Context, eventID, userID string, req dto.AttendanceRequest) (*models.CalendarEvent, error)
	ImportICS(ctx context.Context, orgID, createdBy string, r io.Reader) (*dto.ImportResult, error)
}

// CalendarHandler manages calendar event endpoints.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Create godoc
// @Summary Create calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateCalendarEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendar-events [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateCalendarEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.service.Create(c.Request.Context(), req, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// ListMine godoc
// @Summary Events the current user created or attends
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /calendar-events/my [get]
func (h *CalendarHandler) ListMine(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	events, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Get godoc
// @Summary Get calendar event
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendar-events/{id} [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Update godoc
// @Summary Update calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param payload body dto.UpdateCalendarEventRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendar-events/{id} [put]
func (h *CalendarHandler) Update(c *gin.Context) {
	var req dto.UpdateCalendarEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete calendar event
// @Tags Calendar
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /calendar-events/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RespondAttendance godoc
// @Summary RSVP to a calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param payload body dto.AttendanceRequest true "RSVP"
// @Success 200 {object} response.Envelope
// @Router /calendar-events/{id}/attendance [put]
func (h *CalendarHandler) RespondAttendance(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.service.RespondAttendance(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// ListByOrganization godoc
// @Summary Paginated organization events
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param organizationId path string true "Organization ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /calendar-events/organization/{organizationId} [get]
func (h *CalendarHandler) ListByOrganization(c *gin.Context) {
	page := parsePositiveInt(c, "page", 1)
	size := parsePositiveInt(c, "page_size", 50)
	events, pagination, err := h.service.ListByOrganization(c.Request.Context(), c.Param("organizationId"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// ListByRange godoc
// @Summary Organization events overlapping a date range
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param organizationId path string true "Organization ID"
// @Param startDate query string true "Range start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string true "Range end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /calendar-events/organization/{organizationId}/date-range [get]
func (h *CalendarHandler) ListByRange(c *gin.Context) {
	start, end, err := parseWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	events, err := h.service.ListByRange(c.Request.Context(), c.Param("organizationId"), availability.Interval{Start: start, End: end})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// ImportICS godoc
// @Summary Import events from an iCalendar file
// @Tags Calendar
// @Accept multipart/form-data
// @Accept text/calendar
// @Produce json
// @Security BearerAuth
// @Param organizationId path string true "Organization ID"
// @Param file formData file false ".ics file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar-events/organization/{organizationId}/import [post]
func (h *CalendarHandler) ImportICS(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload"))
			return
		}
		defer file.Close()
		body = file
	}

	result, err := h.service.ImportICS(c.Request.Context(), c.Param("organizationId"), userID, body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
