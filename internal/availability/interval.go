// Package availability computes busy intervals, free slots and hour-bucketed
// calendar views from a snapshot of calendar events. Nothing in this package
// performs I/O; events arrive through the EventSource collaborator.
package availability

import (
	"sort"
	"time"

	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval validates and builds an interval. Empty and inverted ranges are rejected.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, appErrors.InvalidArgument("interval start %s must be before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Contains reports whether t falls inside [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Overlaps reports whether the two intervals share at least one instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Clip intersects the interval with window. ok is false when nothing remains.
func (i Interval) Clip(window Interval) (Interval, bool) {
	start := i.Start
	if window.Start.After(start) {
		start = window.Start
	}
	end := i.End
	if window.End.Before(end) {
		end = window.End
	}
	if !start.Before(end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Merge returns the minimal ordered set of disjoint intervals covering the
// same instants as the input. Overlapping and touching intervals are joined.
// The input slice is left untouched.
func Merge(intervals []Interval) []Interval {
	merged := make([]Interval, 0, len(intervals))
	if len(intervals) == 0 {
		return merged
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Start.Equal(sorted[b].Start) {
			return sorted[a].End.Before(sorted[b].End)
		}
		return sorted[a].Start.Before(sorted[b].Start)
	})

	current := sorted[0]
	for _, next := range sorted[1:] {
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
