package availability

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgcal-api/internal/models"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestBucketFansOutAcrossHours(t *testing.T) {
	istanbul := mustZone(t, "Europe/Istanbul")
	standup := event("standup", time.Date(2025, 5, 6, 9, 30, 0, 0, istanbul), time.Date(2025, 5, 6, 11, 15, 0, 0, istanbul), models.AvailabilityBusy)

	buckets, err := Bucket([]models.CalendarEvent{standup}, "Europe/Istanbul")
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-05-06"}, buckets.Dates())
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, buckets.Hours("2025-05-06"))
	for _, hour := range []string{"09:00", "10:00", "11:00"} {
		events := buckets.Events("2025-05-06", hour)
		require.Len(t, events, 1)
		assert.Equal(t, "standup", events[0].ID)
		assert.Equal(t, "2025-05-06T09:30:00+03:00", events[0].StartDate)
		assert.Equal(t, "2025-05-06T11:15:00+03:00", events[0].EndDate)
	}
}

func TestBucketEndOnHourBoundaryIsExclusive(t *testing.T) {
	meeting := event("m", time.Date(2025, 5, 6, 6, 0, 0, 0, time.UTC), time.Date(2025, 5, 6, 8, 0, 0, 0, time.UTC), models.AvailabilityBusy)

	buckets, err := Bucket([]models.CalendarEvent{meeting}, "UTC")
	require.NoError(t, err)

	assert.Equal(t, []string{"06:00", "07:00"}, buckets.Hours("2025-05-06"))
}

func TestBucketConvertsIntoTargetZoneAcrossMidnight(t *testing.T) {
	// 21:30Z-23:30Z is 00:30-02:30 the next day in Istanbul.
	late := event("late", time.Date(2025, 5, 6, 21, 30, 0, 0, time.UTC), time.Date(2025, 5, 6, 23, 30, 0, 0, time.UTC), models.AvailabilityFree)

	buckets, err := Bucket([]models.CalendarEvent{late}, "Europe/Istanbul")
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-05-07"}, buckets.Dates())
	assert.Equal(t, []string{"00:00", "01:00", "02:00"}, buckets.Hours("2025-05-07"))
}

func TestBucketMultiDayEvent(t *testing.T) {
	offsite := event("offsite", time.Date(2025, 5, 6, 22, 0, 0, 0, time.UTC), time.Date(2025, 5, 8, 1, 30, 0, 0, time.UTC), models.AvailabilityBusy)

	buckets, err := Bucket([]models.CalendarEvent{offsite}, "UTC")
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-05-06", "2025-05-07", "2025-05-08"}, buckets.Dates())
	assert.Equal(t, []string{"22:00", "23:00"}, buckets.Hours("2025-05-06"))
	assert.Len(t, buckets.Hours("2025-05-07"), 24)
	assert.Equal(t, []string{"00:00", "01:00"}, buckets.Hours("2025-05-08"))
}

func TestBucketOrdersEventsWithinCell(t *testing.T) {
	second := event("second", time.Date(2025, 5, 6, 9, 30, 0, 0, time.UTC), time.Date(2025, 5, 6, 10, 0, 0, 0, time.UTC), models.AvailabilityBusy)
	first := event("first", time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC), time.Date(2025, 5, 6, 10, 0, 0, 0, time.UTC), models.AvailabilityBusy)

	buckets, err := Bucket([]models.CalendarEvent{second, first}, "UTC")
	require.NoError(t, err)

	events := buckets.Events("2025-05-06", "09:00")
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].ID)
	assert.Equal(t, "second", events[1].ID)
}

func TestBucketSpringForwardDayHasTwentyThreeCells(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	allDay := event("all-day", time.Date(2024, 3, 10, 0, 0, 0, 0, ny), time.Date(2024, 3, 11, 0, 0, 0, 0, ny), models.AvailabilityBusy)

	buckets, err := Bucket([]models.CalendarEvent{allDay}, "America/New_York")
	require.NoError(t, err)

	hours := buckets.Hours("2024-03-10")
	assert.Len(t, hours, 23)
	assert.NotContains(t, hours, "02:00")
	assert.Equal(t, []string{"2024-03-10"}, buckets.Dates())
}

func TestBucketFallBackDayHasTwentyFiveCells(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	allDay := event("all-day", time.Date(2024, 11, 3, 0, 0, 0, 0, ny), time.Date(2024, 11, 4, 0, 0, 0, 0, ny), models.AvailabilityBusy)

	buckets, err := Bucket([]models.CalendarEvent{allDay}, "America/New_York")
	require.NoError(t, err)

	hours := buckets.Hours("2024-11-03")
	require.Len(t, hours, 25)
	assert.Equal(t, []string{"00:00", "01:00 EDT", "01:00 EST", "02:00"}, hours[:4])
	assert.Equal(t, "23:00", hours[24])
}

func TestBucketHalfHourFallBackKeepsCellsOnTheHour(t *testing.T) {
	// Lord Howe leaves +11 for +10:30 at 2025-04-05 15:00Z, local 02:00 becoming 01:30.
	long := event("long", time.Date(2025, 4, 5, 14, 0, 0, 0, time.UTC), time.Date(2025, 4, 5, 17, 0, 0, 0, time.UTC), models.AvailabilityBusy)
	atThree := event("at-three", time.Date(2025, 4, 5, 16, 30, 0, 0, time.UTC), time.Date(2025, 4, 5, 17, 30, 0, 0, time.UTC), models.AvailabilityBusy)

	buckets, err := Bucket([]models.CalendarEvent{atThree, long}, "Australia/Lord_Howe")
	require.NoError(t, err)

	hours := buckets.Hours("2025-04-06")
	require.Len(t, hours, 4)
	assert.True(t, strings.HasPrefix(hours[0], "01:00 "))
	assert.True(t, strings.HasPrefix(hours[1], "01:00 "))
	assert.NotEqual(t, hours[0], hours[1])
	assert.Equal(t, []string{"02:00", "03:00"}, hours[2:])

	three := buckets.Events("2025-04-06", "03:00")
	require.Len(t, three, 2)
	assert.Equal(t, "long", three[0].ID)
	assert.Equal(t, "at-three", three[1].ID)

	loc := mustZone(t, "Australia/Lord_Howe")
	for _, hour := range buckets.Days[0].Hours {
		if hour.Hour == hours[1] {
			// opens at the offset change, 01:30 local
			continue
		}
		assert.Zero(t, hour.Start.In(loc).Minute(), hour.Hour)
	}
}

func TestBucketHalfHourSpringForwardDropsMissingHalf(t *testing.T) {
	// Lord Howe jumps from 02:00 +10:30 to 02:30 +11 at 2025-10-04 15:30Z.
	night := event("night", time.Date(2025, 10, 4, 14, 30, 0, 0, time.UTC), time.Date(2025, 10, 4, 16, 30, 0, 0, time.UTC), models.AvailabilityBusy)

	buckets, err := Bucket([]models.CalendarEvent{night}, "Australia/Lord_Howe")
	require.NoError(t, err)
	assert.Equal(t, []string{"01:00", "02:00", "03:00"}, buckets.Hours("2025-10-05"))
}

func TestBucketFixedOffsetWouldMisbucketAcrossDST(t *testing.T) {
	// 2024-07-01 14:00Z is 10:00 EDT; a fixed EST offset would file it under 09:00.
	summer := event("summer", time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC), time.Date(2024, 7, 1, 14, 45, 0, 0, time.UTC), models.AvailabilityBusy)

	buckets, err := Bucket([]models.CalendarEvent{summer}, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, buckets.Hours("2024-07-01"))
}

func TestBucketWithinClipsRange(t *testing.T) {
	long := event("long", time.Date(2025, 5, 6, 6, 0, 0, 0, time.UTC), time.Date(2025, 5, 6, 12, 0, 0, 0, time.UTC), models.AvailabilityBusy)
	outside := event("outside", time.Date(2025, 5, 7, 6, 0, 0, 0, time.UTC), time.Date(2025, 5, 7, 7, 0, 0, 0, time.UTC), models.AvailabilityBusy)
	window := Interval{Start: time.Date(2025, 5, 6, 8, 0, 0, 0, time.UTC), End: time.Date(2025, 5, 6, 10, 0, 0, 0, time.UTC)}

	buckets, err := BucketWithin([]models.CalendarEvent{long, outside}, "UTC", window)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-05-06"}, buckets.Dates())
	assert.Equal(t, []string{"08:00", "09:00"}, buckets.Hours("2025-05-06"))
	assert.Equal(t, "2025-05-06T06:00:00Z", buckets.Events("2025-05-06", "08:00")[0].StartDate)
}

func TestBucketPointEventOccupiesStartHour(t *testing.T) {
	reminder := event("reminder", time.Date(2025, 5, 6, 9, 15, 0, 0, time.UTC), time.Date(2025, 5, 6, 9, 15, 0, 0, time.UTC), models.AvailabilityFree)

	buckets, err := Bucket([]models.CalendarEvent{reminder}, "UTC")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, buckets.Hours("2025-05-06"))
}

func TestBucketRejectsUnknownZone(t *testing.T) {
	for _, zone := range []string{"", "Local", "Mars/Olympus_Mons", "+03:00"} {
		_, err := Bucket(nil, zone)
		require.Error(t, err, zone)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidArgument.Code), zone)
	}
}

func TestBucketMapJSONKeepsOrder(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	allDay := event("all-day", time.Date(2024, 11, 3, 0, 0, 0, 0, ny), time.Date(2024, 11, 3, 3, 0, 0, 0, ny), models.AvailabilityBusy)
	allDay.Attendees = []models.EventAttendee{{UserID: "user-1", FirstName: "Ada", LastName: "Lovelace", Status: models.AttendeeGoing}}

	buckets, err := Bucket([]models.CalendarEvent{allDay}, "America/New_York")
	require.NoError(t, err)

	raw, err := json.Marshal(buckets)
	require.NoError(t, err)
	assert.Regexp(t, `^\{"2024-11-03":\{"00:00":\[.*\],"01:00 EDT":\[.*\],"01:00 EST":\[.*\],"02:00":\[.*\]\}\}$`, string(raw))
	assert.Contains(t, string(raw), `"attendees":[{"userId":"user-1","firstName":"Ada","lastName":"Lovelace","status":"going"}]`)

	var decoded BucketMap
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, buckets.Dates(), decoded.Dates())
	assert.Equal(t, buckets.Hours("2024-11-03"), decoded.Hours("2024-11-03"))
	assert.Equal(t, buckets.Events("2024-11-03", "01:00 EST"), decoded.Events("2024-11-03", "01:00 EST"))
}

func TestEmptyBucketMapMarshalsAsObject(t *testing.T) {
	buckets, err := Bucket(nil, "UTC")
	require.NoError(t, err)
	raw, err := json.Marshal(buckets)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}
