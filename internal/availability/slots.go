package availability

import (
	"context"
	"time"

	"github.com/noah-isme/orgcal-api/internal/models"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
)

// FreeSlot is a gap between busy intervals that is at least the requested duration long.
type FreeSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int64     `json:"durationMinutes"`
}

// Interval returns the slot as an Interval.
func (s FreeSlot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// SlotFinder locates free slots for a scope.
type SlotFinder struct {
	engine *Engine
}

// NewSlotFinder constructs a finder on top of engine.
func NewSlotFinder(engine *Engine) *SlotFinder {
	return &SlotFinder{engine: engine}
}

// Find returns the chronological free slots of window lasting at least minDuration.
func (f *SlotFinder) Find(ctx context.Context, scope models.EventScope, window Interval, minDuration time.Duration) ([]FreeSlot, error) {
	if minDuration <= 0 {
		return nil, appErrors.InvalidArgument("duration must be positive")
	}
	busy, err := f.engine.Busy(ctx, scope, window)
	if err != nil {
		return nil, err
	}
	return FreeSlots(busy, window, minDuration)
}

// FreeSlots computes the complement of busy inside window, keeping gaps of at
// least minDuration. busy must be sorted and disjoint, as returned by Merge.
func FreeSlots(busy []Interval, window Interval, minDuration time.Duration) ([]FreeSlot, error) {
	if minDuration <= 0 {
		return nil, appErrors.InvalidArgument("duration must be positive")
	}
	if err := ValidateWindow(window); err != nil {
		return nil, err
	}

	slots := make([]FreeSlot, 0, len(busy)+1)
	emit := func(start, end time.Time) {
		if gap := end.Sub(start); gap >= minDuration {
			slots = append(slots, FreeSlot{Start: start, End: end, DurationMinutes: int64(gap / time.Minute)})
		}
	}

	cursor := window.Start
	for _, block := range busy {
		if !block.End.After(window.Start) || !block.Start.Before(window.End) {
			continue
		}
		if cursor.Before(block.Start) {
			emit(cursor, block.Start)
		}
		if block.End.After(cursor) {
			cursor = block.End
		}
	}
	if cursor.Before(window.End) {
		emit(cursor, window.End)
	}
	return slots, nil
}
