package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/dto"
	"github.com/noah-isme/orgcal-api/internal/middleware"
	"github.com/noah-isme/orgcal-api/internal/models"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
	"github.com/noah-isme/orgcal-api/pkg/export"
	"github.com/noah-isme/orgcal-api/pkg/response"
)

type availabilityService interface {
	Busy(ctx context.Context, q dto.AvailabilityQuery) (*dto.BusyResponse, bool, error)
	FreeSlots(ctx context.Context, q dto.AvailabilityQuery) (*dto.FreeSlotsResponse, bool, error)
	CalendarView(ctx context.Context, q dto.AvailabilityQuery) (availability.BucketMap, bool, error)
	MembersEvents(ctx context.Context, q dto.AvailabilityQuery) (dto.MembersEventsResponse, bool, error)
	ExportCalendar(ctx context.Context, q dto.AvailabilityQuery, format export.Format) (*dto.ExportFile, error)
}

// AvailabilityHandler exposes free/busy and calendar view endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// OrganizationBusy godoc
// @Summary Merged busy intervals of an organization
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param organizationId path string true "Organization ID"
// @Param startDate query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendar-events/organization/{organizationId}/busy [get]
func (h *AvailabilityHandler) OrganizationBusy(c *gin.Context) {
	q, err := organizationQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.busy(c, q)
}

// MyAvailability godoc
// @Summary Busy intervals of the current user
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param startDate query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /calendar-events/my/availability [get]
func (h *AvailabilityHandler) MyAvailability(c *gin.Context) {
	q, err := userQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.busy(c, q)
}

func (h *AvailabilityHandler) busy(c *gin.Context, q dto.AvailabilityQuery) {
	resp, hit, err := h.service.Busy(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, http.StatusOK, resp, hit)
}

// FreeSlots godoc
// @Summary Free slots shared by an organization
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param organizationId path string true "Organization ID"
// @Param startDate query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Param duration query int false "Minimum slot length in minutes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendar-events/organization/{organizationId}/free-slots [get]
func (h *AvailabilityHandler) FreeSlots(c *gin.Context) {
	q, err := organizationQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.freeSlots(c, q)
}

// MyFreeSlots godoc
// @Summary Free slots of the current user
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param startDate query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Param duration query int false "Minimum slot length in minutes"
// @Success 200 {object} response.Envelope
// @Router /calendar-events/my/free-slots [get]
func (h *AvailabilityHandler) MyFreeSlots(c *gin.Context) {
	q, err := userQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.freeSlots(c, q)
}

func (h *AvailabilityHandler) freeSlots(c *gin.Context, q dto.AvailabilityQuery) {
	duration, err := parseDurationMinutes(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	q.Duration = duration
	resp, hit, err := h.service.FreeSlots(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, http.StatusOK, resp, hit)
}

// CalendarView godoc
// @Summary Organization events bucketed by local day and hour
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param organizationId path string true "Organization ID"
// @Param startDate query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Param timeZone query string false "IANA time zone"
// @Success 200 {object} response.Envelope
// @Router /calendar-events/organization/{organizationId}/calendar-view [get]
func (h *AvailabilityHandler) CalendarView(c *gin.Context) {
	q, err := organizationQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, hit, err := h.service.CalendarView(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	if q.TimeZone != "" {
		middleware.SetMeta(c, "time_zone", q.TimeZone)
	}
	respondWithMeta(c, http.StatusOK, view, hit)
}

// MembersEvents godoc
// @Summary Visible organization events grouped by member
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param organizationId path string true "Organization ID"
// @Param startDate query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Param timeZone query string false "IANA time zone"
// @Success 200 {object} response.Envelope
// @Router /calendar-events/organization/{organizationId}/all-members [get]
func (h *AvailabilityHandler) MembersEvents(c *gin.Context) {
	q, err := organizationQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp, hit, err := h.service.MembersEvents(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, http.StatusOK, resp, hit)
}

// Export godoc
// @Summary Download the organization calendar
// @Tags Availability
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Security BearerAuth
// @Param organizationId path string true "Organization ID"
// @Param startDate query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Param timeZone query string false "IANA time zone"
// @Param format query string false "csv, pdf or ics"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /calendar-events/organization/{organizationId}/calendar-view/export [get]
func (h *AvailabilityHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.InvalidArgument("%s", err.Error()))
		return
	}
	q, err := organizationQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.ExportCalendar(c.Request.Context(), q, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func organizationQuery(c *gin.Context) (dto.AvailabilityQuery, error) {
	orgID := strings.TrimSpace(c.Param("organizationId"))
	if orgID == "" {
		return dto.AvailabilityQuery{}, appErrors.InvalidArgument("organizationId is required")
	}
	return windowQuery(c, models.OrganizationScope(orgID))
}

func userQuery(c *gin.Context) (dto.AvailabilityQuery, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return dto.AvailabilityQuery{}, err
	}
	return windowQuery(c, models.UserScope(userID))
}

func windowQuery(c *gin.Context, scope models.EventScope) (dto.AvailabilityQuery, error) {
	start, end, err := parseWindow(c)
	if err != nil {
		return dto.AvailabilityQuery{}, err
	}
	return dto.AvailabilityQuery{
		Scope:    scope,
		Start:    start,
		End:      end,
		TimeZone: queryValue(c, "timeZone", "tz"),
	}, nil
}
