package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
)

const dateOnlyLayout = "2006-01-02"

// queryValue returns the first non-empty query parameter among names.
func queryValue(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.Query(name)); v != "" {
			return v
		}
	}
	return ""
}

// parseInstant accepts RFC 3339 timestamps or bare dates, which mean midnight UTC.
func parseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dateOnlyLayout, raw)
}

func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	rawStart := queryValue(c, "startDate", "start_date")
	rawEnd := queryValue(c, "endDate", "end_date")
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, appErrors.InvalidArgument("startDate and endDate are required")
	}
	start, err := parseInstant(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.InvalidArgument("invalid startDate %q, expected RFC3339 or YYYY-MM-DD", rawStart)
	}
	end, err := parseInstant(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.InvalidArgument("invalid endDate %q, expected RFC3339 or YYYY-MM-DD", rawEnd)
	}
	return start, end, nil
}

// parseDurationMinutes reads the duration parameter; zero means "use the default".
func parseDurationMinutes(c *gin.Context) (time.Duration, error) {
	raw := queryValue(c, "duration")
	if raw == "" {
		return 0, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, appErrors.InvalidArgument("duration must be a positive number of minutes")
	}
	return time.Duration(minutes) * time.Minute, nil
}

func parsePositiveInt(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
