package booking

import "time"

// Interval is the half-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start time.Time, d Duration) Interval {
	return Interval{Start: start, End: start.Add(d.Span())}
}

// Overlaps reports whether the two spans share at least one instant.
// A span ending exactly when the other starts does not overlap it.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether t falls inside the span.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}
