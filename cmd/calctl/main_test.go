package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teamCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:a\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250310T090000Z\r\n" +
	"DTEND:20250310T100000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:b\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250310T093000Z\r\n" +
	"DTEND:20250310T110000Z\r\n" +
	"SUMMARY:Design review\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:c\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250310T140000Z\r\n" +
	"DTEND:20250310T150000Z\r\n" +
	"SUMMARY:Optional talk\r\n" +
	"TRANSP:TRANSPARENT\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func writeCalendar(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "team.ics")
	require.NoError(t, os.WriteFile(path, []byte(teamCalendar), 0o600))
	return path
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, newApp(&out).Run(append([]string{"calctl"}, args...)))
	return out.Bytes()
}

func TestBusyCommand(t *testing.T) {
	raw := run(t, "busy", "--file", writeCalendar(t), "--from", "2025-03-10T08:00:00Z", "--to", "2025-03-10T18:00:00Z")

	var out struct {
		BusySlots []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"busySlots"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.BusySlots, 1)
	assert.Equal(t, "2025-03-10T09:00:00Z", out.BusySlots[0].Start)
	assert.Equal(t, "2025-03-10T11:00:00Z", out.BusySlots[0].End)
}

func TestSlotsCommand(t *testing.T) {
	raw := run(t, "slots", "--file", writeCalendar(t), "--from", "2025-03-10T08:00:00Z", "--to", "2025-03-10T18:00:00Z", "--duration", "90")

	var out struct {
		Duration  string `json:"duration"`
		FreeSlots []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"freeSlots"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "90 minutes", out.Duration)
	require.Len(t, out.FreeSlots, 1)
	assert.Equal(t, "2025-03-10T11:00:00Z", out.FreeSlots[0].Start)
	assert.Equal(t, "2025-03-10T18:00:00Z", out.FreeSlots[0].End)
}

func TestViewCommandUsesZone(t *testing.T) {
	raw := run(t, "view", "--file", writeCalendar(t), "--from", "2025-03-10", "--to", "2025-03-11", "--tz", "Europe/Istanbul")

	var out map[string]map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	day := out["2025-03-10"]
	require.NotNil(t, day)
	assert.Len(t, day["12:00"], 2)
	assert.Len(t, day["13:00"], 1)
	assert.Len(t, day["17:00"], 1)
}

func TestCommandErrors(t *testing.T) {
	path := writeCalendar(t)
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"calctl", "busy", "--file", path, "--from", "2025-03-10", "--to", "2025-03-09"})
	assert.Error(t, err)

	err = newApp(&out).Run([]string{"calctl", "view", "--file", path, "--from", "2025-03-10", "--to", "2025-03-11", "--tz", "Atlantis/Capital"})
	assert.Error(t, err)

	err = newApp(&out).Run([]string{"calctl", "slots", "--file", path, "--from", "2025-03-10", "--to", "2025-03-11", "--duration", "0"})
	assert.Error(t, err)
}
