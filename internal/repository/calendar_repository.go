package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/orgcal-api/internal/availability"
	"github.com/noah-isme/orgcal-api/internal/models"
	"github.com/noah-isme/orgcal-api/pkg/database"
)

const eventColumns = `e.id, e.organization_id, e.created_by, e.title, COALESCE(e.description, '') AS description, e.start_date, e.end_date, e.event_type, e.availability, e.is_visible, e.recurrence_rule, COALESCE(e.time_zone, '') AS time_zone, e.created_at, e.updated_at`

const attendeeQuery = `SELECT a.event_id, a.user_id, u.first_name, u.last_name, a.status
FROM event_attendees a JOIN users u ON u.id = a.user_id
WHERE a.event_id = ANY($1) ORDER BY a.event_id, u.first_name, u.last_name, a.user_id`

// CalendarRepository persists calendar events and their attendees.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// ListEvents returns the events of scope that may overlap window, attendees
// included. All reads share one snapshot. Recurring series starting before the
// window end are always returned so they can be expanded by the caller.
// sql.ErrNoRows signals an unknown organization or user.
func (r *CalendarRepository) ListEvents(ctx context.Context, scope models.EventScope, window availability.Interval) ([]models.CalendarEvent, error) {
	existsQuery, ownerFilter, ownerID := scopeClauses(scope)
	query := fmt.Sprintf(`SELECT %s FROM calendar_events e
WHERE %s AND e.start_date < $2 AND (e.end_date >= $3 OR e.recurrence_rule IS NOT NULL)
ORDER BY e.start_date, e.end_date, e.id`, eventColumns, ownerFilter)

	var events []models.CalendarEvent
	err := database.ReadSnapshot(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, existsQuery, ownerID); err != nil {
			return fmt.Errorf("check scope owner: %w", err)
		}
		if !exists {
			return sql.ErrNoRows
		}
		if err := tx.SelectContext(ctx, &events, query, ownerID, window.End, window.Start); err != nil {
			return fmt.Errorf("list scope events: %w", err)
		}
		return attachAttendees(ctx, tx, events)
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func scopeClauses(scope models.EventScope) (existsQuery, ownerFilter, ownerID string) {
	if scope.OrganizationID != "" {
		return `SELECT EXISTS(SELECT 1 FROM organizations WHERE id = $1)`,
			`e.organization_id = $1`,
			scope.OrganizationID
	}
	return `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`,
		`(e.created_by = $1 OR EXISTS (SELECT 1 FROM event_attendees a WHERE a.event_id = e.id AND a.user_id = $1 AND a.status <> 'declined'))`,
		scope.UserID
}

// GetByID fetches an event with its attendees.
func (r *CalendarRepository) GetByID(ctx context.Context, id string) (*models.CalendarEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM calendar_events e WHERE e.id = $1`, eventColumns)
	var event models.CalendarEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get calendar event: %w", err)
	}
	events := []models.CalendarEvent{event}
	if err := attachAttendees(ctx, r.db, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

// List returns a page of organization events matching filter and the total count.
func (r *CalendarRepository) List(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, int, error) {
	where := []string{"e.organization_id = $1"}
	args := []interface{}{filter.OrganizationID}
	if filter.StartDate != nil {
		where = append(where, fmt.Sprintf("e.end_date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, fmt.Sprintf("e.start_date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.VisibleOnly {
		where = append(where, "e.is_visible = TRUE")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM calendar_events e WHERE %s ORDER BY e.start_date ASC, e.id ASC LIMIT %d OFFSET %d`, eventColumns, whereClause, size, offset)
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list calendar events: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM calendar_events e WHERE %s", whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("count calendar events: %w", err)
	}
	if err := attachAttendees(ctx, r.db, events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListForUser returns every event the user created or attends without declining.
func (r *CalendarRepository) ListForUser(ctx context.Context, userID string) ([]models.CalendarEvent, error) {
	_, ownerFilter, _ := scopeClauses(models.UserScope(userID))
	query := fmt.Sprintf(`SELECT %s FROM calendar_events e WHERE %s ORDER BY e.start_date ASC, e.id ASC`, eventColumns, ownerFilter)
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	if err := attachAttendees(ctx, r.db, events); err != nil {
		return nil, err
	}
	return events, nil
}

// Create inserts an event together with its attendees.
func (r *CalendarRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	const query = `INSERT INTO calendar_events (id, organization_id, created_by, title, description, start_date, end_date, event_type, availability, is_visible, recurrence_rule, time_zone, created_at, updated_at)
VALUES (:id, :organization_id, :created_by, :title, :description, :start_date, :end_date, :event_type, :availability, :is_visible, :recurrence_rule, :time_zone, :created_at, :updated_at)`
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
			return fmt.Errorf("create calendar event: %w", err)
		}
		for i := range event.Attendees {
			event.Attendees[i].EventID = event.ID
			if err := upsertAttendee(ctx, tx, event.Attendees[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update rewrites the mutable columns of an event. sql.ErrNoRows is returned
// when the event does not exist.
func (r *CalendarRepository) Update(ctx context.Context, event *models.CalendarEvent) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE calendar_events SET title = :title, description = :description, start_date = :start_date, end_date = :end_date,
event_type = :event_type, availability = :availability, is_visible = :is_visible, recurrence_rule = :recurrence_rule, time_zone = :time_zone, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update calendar event: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an event and its attendees.
func (r *CalendarRepository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM event_attendees WHERE event_id = $1", id); err != nil {
			return fmt.Errorf("delete event attendees: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM calendar_events WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete calendar event: %w", err)
		}
		return requireAffected(res)
	})
}

// UpsertAttendee records a user's RSVP for an event.
func (r *CalendarRepository) UpsertAttendee(ctx context.Context, attendee models.EventAttendee) error {
	return upsertAttendee(ctx, r.db, attendee)
}

func upsertAttendee(ctx context.Context, exec sqlx.ExecerContext, attendee models.EventAttendee) error {
	const query = `INSERT INTO event_attendees (event_id, user_id, status) VALUES ($1, $2, $3)
ON CONFLICT (event_id, user_id) DO UPDATE SET status = EXCLUDED.status`
	if _, err := exec.ExecContext(ctx, query, attendee.EventID, attendee.UserID, attendee.Status); err != nil {
		return fmt.Errorf("upsert event attendee: %w", err)
	}
	return nil
}

// attachAttendees loads attendees for events in one query and assigns them in place.
func attachAttendees(ctx context.Context, q sqlx.QueryerContext, events []models.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	var attendees []models.EventAttendee
	if err := sqlx.SelectContext(ctx, q, &attendees, attendeeQuery, pq.Array(ids)); err != nil {
		return fmt.Errorf("list event attendees: %w", err)
	}
	byEvent := make(map[string][]models.EventAttendee, len(events))
	for _, a := range attendees {
		byEvent[a.EventID] = append(byEvent[a.EventID], a)
	}
	for i := range events {
		events[i].Attendees = byEvent[events[i].ID]
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
