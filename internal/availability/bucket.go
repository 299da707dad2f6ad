package availability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/noah-isme/orgcal-api/internal/models"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
)

const (
	// DateLayout formats bucket day keys.
	DateLayout = "2006-01-02"
	// HourLayout formats bucket hour keys.
	HourLayout = "15:00"
)

// AttendeeSummary is the render-facing view of an attendee.
type AttendeeSummary struct {
	UserID    string                `json:"userId"`
	FirstName string                `json:"firstName"`
	LastName  string                `json:"lastName"`
	Status    models.AttendeeStatus `json:"status"`
}

// EventProjection is the render-facing view of an event in a target zone.
type EventProjection struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	StartDate    string              `json:"startDate"`
	EndDate      string              `json:"endDate"`
	EventType    models.EventType    `json:"eventType"`
	Availability models.Availability `json:"availability"`
	IsVisible    bool                `json:"isVisible"`
	Attendees    []AttendeeSummary   `json:"attendees"`
}

// Project renders event with its timestamps expressed in loc.
func Project(event models.CalendarEvent, loc *time.Location) EventProjection {
	attendees := make([]AttendeeSummary, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		attendees = append(attendees, AttendeeSummary{
			UserID:    a.UserID,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Status:    a.Status,
		})
	}
	return EventProjection{
		ID:           event.ID,
		Title:        event.Title,
		Description:  event.Description,
		StartDate:    event.StartDate.In(loc).Format(time.RFC3339),
		EndDate:      event.EndDate.In(loc).Format(time.RFC3339),
		EventType:    event.EventType,
		Availability: event.Availability,
		IsVisible:    event.IsVisible,
		Attendees:    attendees,
	}
}

// HourBucket holds the events overlapping one local wall-clock hour.
type HourBucket struct {
	Hour   string
	Start  time.Time
	Events []EventProjection
}

// DayBucket holds the hour buckets of one local calendar day in ascending order.
type DayBucket struct {
	Date  string
	Hours []HourBucket
}

// BucketMap maps local date -> local hour -> events, ordered by date then hour.
type BucketMap struct {
	Days []DayBucket
}

// Dates lists the day keys in order.
func (m BucketMap) Dates() []string {
	dates := make([]string, 0, len(m.Days))
	for _, day := range m.Days {
		dates = append(dates, day.Date)
	}
	return dates
}

// Hours lists the hour keys of date in order.
func (m BucketMap) Hours(date string) []string {
	for _, day := range m.Days {
		if day.Date != date {
			continue
		}
		hours := make([]string, 0, len(day.Hours))
		for _, h := range day.Hours {
			hours = append(hours, h.Hour)
		}
		return hours
	}
	return nil
}

// Events returns the projections stored in the (date, hour) bucket.
func (m BucketMap) Events(date, hour string) []EventProjection {
	for _, day := range m.Days {
		if day.Date != date {
			continue
		}
		for _, h := range day.Hours {
			if h.Hour == hour {
				return h.Events
			}
		}
	}
	return nil
}

// MarshalJSON writes the nested date/hour object preserving bucket order.
func (m BucketMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range m.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(day.Date)
		buf.Write(key)
		buf.WriteString(":{")
		for j, hour := range day.Hours {
			if j > 0 {
				buf.WriteByte(',')
			}
			hourKey, _ := json.Marshal(hour.Hour)
			buf.Write(hourKey)
			buf.WriteByte(':')
			events := hour.Events
			if events == nil {
				events = []EventProjection{}
			}
			payload, err := json.Marshal(events)
			if err != nil {
				return nil, fmt.Errorf("marshal bucket %s %s: %w", day.Date, hour.Hour, err)
			}
			buf.Write(payload)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a bucket map keeping the document's key order.
// Hour start instants are not part of the encoding and stay zero.
func (m *BucketMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		m.Days = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	days := make([]DayBucket, 0)
	for dec.More() {
		date, err := stringToken(dec)
		if err != nil {
			return err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return err
		}
		day := DayBucket{Date: date}
		for dec.More() {
			hour, err := stringToken(dec)
			if err != nil {
				return err
			}
			var events []EventProjection
			if err := dec.Decode(&events); err != nil {
				return fmt.Errorf("decode bucket %s %s: %w", date, hour, err)
			}
			day.Hours = append(day.Hours, HourBucket{Hour: hour, Events: events})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
		days = append(days, day)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	m.Days = days
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("bucket map: expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("bucket map: expected key, got %v", tok)
	}
	return key, nil
}

// LoadZone resolves an IANA zone identifier.
func LoadZone(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" || zone == "Local" {
		return nil, appErrors.InvalidArgument("time zone must be an IANA identifier")
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidArgument.Code, appErrors.ErrInvalidArgument.Status, fmt.Sprintf("unknown time zone %q", zone))
	}
	return loc, nil
}

// Bucket groups events by the local day and hour cells of zone they overlap.
func Bucket(events []models.CalendarEvent, zone string) (BucketMap, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return BucketMap{}, err
	}
	return fold(events, loc, nil), nil
}

// BucketWithin is Bucket restricted to the cells overlapping window.
func BucketWithin(events []models.CalendarEvent, zone string, window Interval) (BucketMap, error) {
	if err := ValidateWindow(window); err != nil {
		return BucketMap{}, err
	}
	loc, err := LoadZone(zone)
	if err != nil {
		return BucketMap{}, err
	}
	return fold(events, loc, &window), nil
}

type cell struct {
	start  time.Time
	events []EventProjection
}

func fold(events []models.CalendarEvent, loc *time.Location, window *Interval) BucketMap {
	ordered := make([]models.CalendarEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(a, b int) bool {
		ea, eb := ordered[a], ordered[b]
		if !ea.StartDate.Equal(eb.StartDate) {
			return ea.StartDate.Before(eb.StartDate)
		}
		if !ea.EndDate.Equal(eb.EndDate) {
			return ea.EndDate.Before(eb.EndDate)
		}
		return ea.ID < eb.ID
	})

	cells := map[int64]*cell{}
	for _, event := range ordered {
		from, to, ok := span(event, window)
		if !ok {
			continue
		}
		projection := Project(event, loc)
		for c := cellStart(from.In(loc)); ; c = nextCell(c) {
			entry, exists := cells[c.Unix()]
			if !exists {
				entry = &cell{start: c}
				cells[c.Unix()] = entry
			}
			entry.events = append(entry.events, projection)
			if !nextCell(c).Before(to) {
				break
			}
		}
	}

	starts := make([]int64, 0, len(cells))
	for key := range cells {
		starts = append(starts, key)
	}
	sort.Slice(starts, func(a, b int) bool { return starts[a] < starts[b] })

	result := BucketMap{Days: make([]DayBucket, 0)}
	for _, key := range starts {
		entry := cells[key]
		local := entry.start.In(loc)
		date := local.Format(DateLayout)
		if n := len(result.Days); n == 0 || result.Days[n-1].Date != date {
			result.Days = append(result.Days, DayBucket{Date: date})
		}
		day := &result.Days[len(result.Days)-1]
		day.Hours = append(day.Hours, HourBucket{
			Hour:   hourLabel(local),
			Start:  entry.start,
			Events: entry.events,
		})
	}
	return result
}

// span returns the range of event to walk, honouring window when set.
// Events with end <= start are treated as points at their start.
func span(event models.CalendarEvent, window *Interval) (time.Time, time.Time, bool) {
	from, to := event.StartDate, event.EndDate
	if !from.Before(to) {
		to = from
		if window != nil && !window.Contains(from) {
			return time.Time{}, time.Time{}, false
		}
		return from, to, true
	}
	if window == nil {
		return from, to, true
	}
	clipped, ok := Interval{Start: from, End: to}.Clip(*window)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return clipped.Start, clipped.End, true
}

// hourStart truncates a local time to the start of its wall-clock hour.
func hourStart(local time.Time) time.Time {
	offset := time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
	return local.Add(-offset)
}

// cellStart returns the start of the wall-clock hour cell holding local. A cell
// never reaches back across an offset change, so a transition in the middle of
// an hour opens a new cell.
func cellStart(local time.Time) time.Time {
	start := hourStart(local)
	if zoneStart, _ := local.ZoneBounds(); start.Before(zoneStart) {
		return zoneStart
	}
	return start
}

// nextCell returns the start of the cell following the one starting at c: the
// next wall-clock hour, or the next offset change when that comes first.
func nextCell(c time.Time) time.Time {
	next := hourStart(c).Add(time.Hour)
	if _, zoneEnd := c.ZoneBounds(); !zoneEnd.IsZero() && zoneEnd.Before(next) {
		return zoneEnd
	}
	return next
}

// hourLabel formats the hour key. A wall-clock hour occurring twice on the same
// day (DST fall-back) carries its zone abbreviation so both cells stay distinct.
func hourLabel(local time.Time) string {
	label := local.Format(HourLayout)
	date := local.Format(DateLayout)
	_, offset := local.Zone()

	neighbours := []time.Time{local.Add(-time.Hour), local.Add(time.Hour)}
	zoneStart, zoneEnd := local.ZoneBounds()
	if !zoneStart.IsZero() {
		neighbours = append(neighbours, zoneStart.Add(-time.Nanosecond))
	}
	if !zoneEnd.IsZero() {
		neighbours = append(neighbours, zoneEnd)
	}
	for _, neighbour := range neighbours {
		if _, other := neighbour.Zone(); other == offset {
			continue
		}
		if neighbour.Format(HourLayout) == label && neighbour.Format(DateLayout) == date {
			return label + " " + local.Format("MST")
		}
	}
	return label
}
