package schedule

// Interval is a half-open range [Start, End) within a day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewInterval builds the interval that starts at start and lasts the given
// number of minutes.
func NewInterval(start TimeOfDay, durationMinutes int) Interval {
	return Interval{Start: start, End: start.Add(durationMinutes)}
}

// Minutes returns the length of the interval.
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

// Overlaps reports whether two half-open intervals share at least one
// minute. Intervals that only touch at a boundary do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Within reports whether i lies entirely inside window.
func (i Interval) Within(window Interval) bool {
	return i.Start >= window.Start && i.End <= window.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// OverlapsAny reports whether candidate overlaps any of busy.
func OverlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
