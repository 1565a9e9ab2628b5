package utils

import (
	"errors"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrTimeRangeTooLong = errors.New("time range exceeds maximum duration")
)

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Duration of the range.
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// NewTimeRange requires both bounds and start < end.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// NormalizeTimeRange validates the range and converts both bounds to loc
// (UTC when loc is nil). A range longer than maxDuration is rejected;
// maxDuration <= 0 disables the limit. Bounds are never swapped or
// trimmed: a malformed request is an error, not a guess.
func NormalizeTimeRange(
	start, end time.Time,
	loc *time.Location,
	maxDuration time.Duration,
) (TimeRange, error) {
	tr, err := NewTimeRange(start, end)
	if err != nil {
		return TimeRange{}, err
	}

	if loc == nil {
		loc = time.UTC
	}
	tr.Start = tr.Start.In(loc)
	tr.End = tr.End.In(loc)

	if maxDuration > 0 && tr.Duration() > maxDuration {
		return TimeRange{}, ErrTimeRangeTooLong
	}

	return tr, nil
}

// HasOverlap checks newRange against existing.
// inclusive = true treats touching ends as overlap.
func HasOverlap(
	newRange TimeRange,
	existing []TimeRange,
	inclusive bool,
) (bool, []TimeRange) {
	var conflicts []TimeRange

	for _, tr := range existing {
		if rangesOverlap(newRange, tr, inclusive) {
			conflicts = append(conflicts, tr)
		}
	}

	return len(conflicts) > 0, conflicts
}

func rangesOverlap(a, b TimeRange, inclusive bool) bool {
	if inclusive {
		// [a.Start, a.End] and [b.Start, b.End] overlap
		// if a.Start <= b.End && b.Start <= a.End
		return !a.Start.After(b.End) && !b.Start.After(a.End)
	}

	// half-open [Start, End)
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
