package availability

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
)

var baseDay = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return baseDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func between(t *testing.T, fromHour, fromMinute, toHour, toMinute int) Interval {
	t.Helper()
	iv, err := NewInterval(at(fromHour, fromMinute), at(toHour, toMinute))
	require.NoError(t, err)
	return iv
}

func TestNewIntervalRejectsEmptyAndInverted(t *testing.T) {
	_, err := NewInterval(at(10, 0), at(10, 0))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidArgument.Code))

	_, err = NewInterval(at(11, 0), at(10, 0))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidArgument.Code))
}

func TestIntervalClip(t *testing.T) {
	window := between(t, 8, 0, 18, 0)

	clipped, ok := between(t, 7, 0, 9, 0).Clip(window)
	require.True(t, ok)
	assert.Equal(t, at(8, 0), clipped.Start)
	assert.Equal(t, at(9, 0), clipped.End)

	_, ok = between(t, 18, 0, 19, 0).Clip(window)
	assert.False(t, ok, "touching the window end is not an overlap")
}

func TestMergeEmpty(t *testing.T) {
	merged := Merge(nil)
	require.NotNil(t, merged)
	assert.Empty(t, merged)
}

func TestMergeOverlappingTouchingAndDisjoint(t *testing.T) {
	input := []Interval{
		between(t, 13, 0, 14, 0),
		between(t, 9, 30, 11, 0),
		between(t, 9, 0, 10, 0),
		between(t, 11, 0, 12, 0),
		between(t, 15, 0, 16, 0),
		between(t, 15, 15, 15, 45),
	}
	snapshot := append([]Interval(nil), input...)

	merged := Merge(input)

	assert.Equal(t, []Interval{
		between(t, 9, 0, 12, 0),
		between(t, 13, 0, 14, 0),
		between(t, 15, 0, 16, 0),
	}, merged)
	assert.Equal(t, snapshot, input, "input must not be reordered")
}

func randomIntervals(rng *rand.Rand, n int) []Interval {
	out := make([]Interval, 0, n)
	for i := 0; i < n; i++ {
		start := baseDay.Add(time.Duration(rng.Intn(48*4)) * 15 * time.Minute)
		length := time.Duration(1+rng.Intn(12)) * 15 * time.Minute
		out = append(out, Interval{Start: start, End: start.Add(length)})
	}
	return out
}

func covered(intervals []Interval, t time.Time) bool {
	for _, iv := range intervals {
		if iv.Contains(t) {
			return true
		}
	}
	return false
}

func TestMergeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		input := randomIntervals(rng, rng.Intn(20))
		merged := Merge(input)

		assert.Equal(t, merged, Merge(merged), "merge must be idempotent")

		for i := 1; i < len(merged); i++ {
			assert.True(t, merged[i-1].End.Before(merged[i].Start), "merged intervals must be disjoint and non-adjacent")
		}

		for probe := baseDay; probe.Before(baseDay.Add(52 * time.Hour)); probe = probe.Add(5 * time.Minute) {
			require.Equal(t, covered(input, probe), covered(merged, probe), "coverage differs at %s", probe)
		}
	}
}
