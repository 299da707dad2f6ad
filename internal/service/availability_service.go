package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/dto"
	"github.com/noah-isme/orgcal-api/internal/models"
	"github.com/noah-isme/orgcal-api/internal/recurrence"
	"github.com/noah-isme/orgcal-api/pkg/cache"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
	"github.com/noah-isme/orgcal-api/pkg/export"
	"github.com/noah-isme/orgcal-api/pkg/ical"
)

type scopeEventRepository interface {
	ListEvents(ctx context.Context, scope models.EventScope, window availability.Interval) ([]models.CalendarEvent, error)
}

// eventSource adapts the repository to availability.EventSource: it maps
// missing owners to NOT_FOUND and expands recurring series inside the window.
type eventSource struct {
	repo           scopeEventRepository
	metrics        *MetricsService
	logger         *zap.Logger
	maxOccurrences int
}

func (s *eventSource) ListEvents(ctx context.Context, scope models.EventScope, window availability.Interval) ([]models.CalendarEvent, error) {
	start := time.Now()
	events, err := s.repo.ListEvents(ctx, scope, window)
	s.metrics.ObserveDBQuery("list_scope_events", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if scope.OrganizationID != "" {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "organization not found")
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}

	expanded, err := recurrence.Expand(events, window, s.maxOccurrences)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand recurring events")
	}
	if len(expanded.Truncated) > 0 {
		s.metrics.AddRecurrenceTruncations(len(expanded.Truncated))
		s.logger.Warn("recurrence expansion truncated",
			zap.String("scope", scope.Key()),
			zap.Strings("event_ids", expanded.Truncated),
			zap.Int("max_occurrences", s.maxOccurrences),
		)
	}
	return expanded.Events, nil
}

// AvailabilityServiceConfig tunes availability queries.
type AvailabilityServiceConfig struct {
	DefaultTimeZone    string
	DefaultSlotMinutes int
	MaxWindow          time.Duration
	CacheTTL           time.Duration
	MaxOccurrences     int
}

// AvailabilityServiceParams groups constructor dependencies.
type AvailabilityServiceParams struct {
	Repository scopeEventRepository
	Cache      *CacheService
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     AvailabilityServiceConfig
}

// AvailabilityService answers busy, free slot and calendar view queries.
type AvailabilityService struct {
	source  *eventSource
	engine  *availability.Engine
	finder  *availability.SlotFinder
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     AvailabilityServiceConfig
}

// NewAvailabilityService constructs an AvailabilityService with defaults applied.
func NewAvailabilityService(params AvailabilityServiceParams) *AvailabilityService {
	cfg := params.Config
	if cfg.DefaultTimeZone == "" {
		cfg.DefaultTimeZone = "Europe/Istanbul"
	}
	if cfg.DefaultSlotMinutes <= 0 {
		cfg.DefaultSlotMinutes = 60
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = recurrence.DefaultMaxOccurrences
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	source := &eventSource{
		repo:           params.Repository,
		metrics:        params.Metrics,
		logger:         logger,
		maxOccurrences: cfg.MaxOccurrences,
	}
	engine := availability.NewEngine(source)
	return &AvailabilityService{
		source:  source,
		engine:  engine,
		finder:  availability.NewSlotFinder(engine),
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Busy returns the merged busy intervals of the query window.
func (s *AvailabilityService) Busy(ctx context.Context, q dto.AvailabilityQuery) (*dto.BusyResponse, bool, error) {
	window, err := s.window(q)
	if err != nil {
		return nil, false, err
	}
	key := s.cacheKey("busy", q.Scope, window, "")
	var cached dto.BusyResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	busy, err := s.engine.Busy(ctx, q.Scope, window)
	if err != nil {
		return nil, false, err
	}
	s.metrics.ObserveAvailability("busy", scopeLabel(q.Scope), time.Since(start))
	s.metrics.ObserveBusyIntervals(len(busy))

	resp := &dto.BusyResponse{
		OrganizationID: q.Scope.OrganizationID,
		UserID:         q.Scope.UserID,
		Period:         dto.Period{StartDate: window.Start, EndDate: window.End},
		BusySlots:      busy,
	}
	s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, false, nil
}

// FreeSlots returns the gaps of the window long enough for q.Duration.
func (s *AvailabilityService) FreeSlots(ctx context.Context, q dto.AvailabilityQuery) (*dto.FreeSlotsResponse, bool, error) {
	window, err := s.window(q)
	if err != nil {
		return nil, false, err
	}
	duration := q.Duration
	if duration == 0 {
		duration = time.Duration(s.cfg.DefaultSlotMinutes) * time.Minute
	}
	if duration <= 0 {
		return nil, false, appErrors.InvalidArgument("duration must be positive")
	}
	minutes := int64(duration / time.Minute)

	key := s.cacheKey("slots", q.Scope, window, fmt.Sprintf("%d", int64(duration/time.Second)))
	var cached dto.FreeSlotsResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	slots, err := s.finder.Find(ctx, q.Scope, window, duration)
	if err != nil {
		return nil, false, err
	}
	s.metrics.ObserveAvailability("free_slots", scopeLabel(q.Scope), time.Since(start))

	resp := &dto.FreeSlotsResponse{
		OrganizationID:  q.Scope.OrganizationID,
		UserID:          q.Scope.UserID,
		Duration:        fmt.Sprintf("%d minutes", minutes),
		DurationMinutes: minutes,
		Period:          dto.Period{StartDate: window.Start, EndDate: window.End},
		FreeSlots:       slots,
	}
	s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, false, nil
}

// CalendarView buckets the visible events of the window by local day and hour.
func (s *AvailabilityService) CalendarView(ctx context.Context, q dto.AvailabilityQuery) (availability.BucketMap, bool, error) {
	window, err := s.window(q)
	if err != nil {
		return availability.BucketMap{}, false, err
	}
	zone := s.zone(q)
	if _, err := availability.LoadZone(zone); err != nil {
		return availability.BucketMap{}, false, err
	}
	key := s.cacheKey("view", q.Scope, window, zone)
	var cached availability.BucketMap
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	events, err := s.visibleEvents(ctx, q.Scope, window)
	if err != nil {
		return availability.BucketMap{}, false, err
	}
	view, err := availability.BucketWithin(events, zone, window)
	if err != nil {
		return availability.BucketMap{}, false, err
	}
	s.metrics.ObserveAvailability("calendar_view", scopeLabel(q.Scope), time.Since(start))

	s.cache.Set(ctx, key, view, s.cfg.CacheTTL)
	return view, false, nil
}

// MembersEvents groups the visible events of an organization by creator.
func (s *AvailabilityService) MembersEvents(ctx context.Context, q dto.AvailabilityQuery) (dto.MembersEventsResponse, bool, error) {
	if q.Scope.OrganizationID == "" || q.Scope.UserID != "" {
		return nil, false, appErrors.InvalidArgument("members events require an organization scope")
	}
	window, err := s.window(q)
	if err != nil {
		return nil, false, err
	}
	zone := s.zone(q)
	loc, err := availability.LoadZone(zone)
	if err != nil {
		return nil, false, err
	}
	key := s.cacheKey("members", q.Scope, window, zone)
	var cached dto.MembersEventsResponse
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	events, err := s.visibleEvents(ctx, q.Scope, window)
	if err != nil {
		return nil, false, err
	}
	resp := make(dto.MembersEventsResponse)
	for _, event := range events {
		resp[event.CreatedBy] = append(resp[event.CreatedBy], availability.Project(event, loc))
	}
	s.metrics.ObserveAvailability("members_events", scopeLabel(q.Scope), time.Since(start))

	s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, false, nil
}

// ExportCalendar renders the visible events of the window as CSV, PDF or iCalendar.
func (s *AvailabilityService) ExportCalendar(ctx context.Context, q dto.AvailabilityQuery, format export.Format) (*dto.ExportFile, error) {
	window, err := s.window(q)
	if err != nil {
		return nil, err
	}
	zone := s.zone(q)
	loc, err := availability.LoadZone(zone)
	if err != nil {
		return nil, err
	}
	events, err := s.visibleEvents(ctx, q.Scope, window)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("calendar-%s-%s", strings.ReplaceAll(q.Scope.Key(), ":", "-"), window.Start.In(loc).Format(availability.DateLayout))
	var body []byte
	switch format {
	case export.FormatICS:
		body, err = ical.Encode(events, loc, q.Scope.Key())
	case export.FormatPDF:
		body, err = export.NewPDFExporter().Render(eventDataset(events, loc, q.Scope, window))
	case export.FormatCSV:
		body, err = export.NewCSVExporter().Render(eventDataset(events, loc, q.Scope, window))
	default:
		return nil, appErrors.InvalidArgument("unsupported export format %q", format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar export")
	}
	s.logger.Info("calendar exported",
		zap.String("scope", q.Scope.Key()),
		zap.String("format", string(format)),
		zap.Int("events", len(events)),
	)
	return &dto.ExportFile{Filename: format.Filename(base), ContentType: format.ContentType(), Body: body}, nil
}

func (s *AvailabilityService) visibleEvents(ctx context.Context, scope models.EventScope, window availability.Interval) ([]models.CalendarEvent, error) {
	if err := availability.ValidateScope(scope); err != nil {
		return nil, err
	}
	events, err := s.source.ListEvents(ctx, scope, window)
	if err != nil {
		return nil, err
	}
	visible := events[:0:0]
	for _, event := range events {
		if event.IsVisible {
			visible = append(visible, event)
		}
	}
	return visible, nil
}

// window validates the scope and the requested range before any cache or store access.
func (s *AvailabilityService) window(q dto.AvailabilityQuery) (availability.Interval, error) {
	if err := availability.ValidateScope(q.Scope); err != nil {
		return availability.Interval{}, err
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return availability.Interval{}, appErrors.InvalidArgument("startDate and endDate are required")
	}
	window, err := availability.NewInterval(q.Start.UTC(), q.End.UTC())
	if err != nil {
		return availability.Interval{}, err
	}
	if s.cfg.MaxWindow > 0 && window.Duration() > s.cfg.MaxWindow {
		return availability.Interval{}, appErrors.InvalidArgument("window must not exceed %s", s.cfg.MaxWindow)
	}
	return window, nil
}

func (s *AvailabilityService) zone(q dto.AvailabilityQuery) string {
	if zone := strings.TrimSpace(q.TimeZone); zone != "" {
		return zone
	}
	return s.cfg.DefaultTimeZone
}

func (s *AvailabilityService) cacheKey(op string, scope models.EventScope, window availability.Interval, extra string) string {
	parts := []string{"avail", op, scope.Key(), fmt.Sprintf("%d-%d", window.Start.Unix(), window.End.Unix())}
	if extra != "" {
		parts = append(parts, extra)
	}
	return cache.Key(parts...)
}

func scopeLabel(scope models.EventScope) string {
	if scope.OrganizationID != "" {
		return "organization"
	}
	return "user"
}

func eventDataset(events []models.CalendarEvent, loc *time.Location, scope models.EventScope, window availability.Interval) export.Dataset {
	sorted := append([]models.CalendarEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})
	rows := make([]map[string]string, 0, len(sorted))
	for _, event := range sorted {
		start := event.StartDate.In(loc)
		end := event.EndDate.In(loc)
		names := make([]string, 0, len(event.Attendees))
		for _, a := range event.Attendees {
			if a.Status == models.AttendeeDeclined {
				continue
			}
			names = append(names, strings.TrimSpace(a.FirstName+" "+a.LastName))
		}
		rows = append(rows, map[string]string{
			"Date":         start.Format(availability.DateLayout),
			"Start":        start.Format("15:04 MST"),
			"End":          end.Format("2006-01-02 15:04 MST"),
			"Title":        event.Title,
			"Type":         string(event.EventType),
			"Availability": string(event.Availability),
			"Attendees":    strings.Join(names, ", "),
		})
	}
	return export.Dataset{
		Title:    "Calendar " + scope.Key(),
		Subtitle: fmt.Sprintf("%s to %s (%s)", window.Start.In(loc).Format(time.RFC3339), window.End.In(loc).Format(time.RFC3339), loc.String()),
		Headers:  []string{"Date", "Start", "End", "Title", "Type", "Availability", "Attendees"},
		Rows:     rows,
	}
}
