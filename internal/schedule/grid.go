package schedule

// Grid walks the booking grid of a day window: candidates start at the
// window's open time and advance by step minutes until a booking of the
// requested duration would run past close. Every candidate whose interval
// does not overlap busy is returned, in ascending order.
//
// step is the table's turnover time, not the requested duration.
func Grid(window Interval, durationMinutes, step int, busy []Interval) []TimeOfDay {
	if durationMinutes <= 0 || step <= 0 {
		return nil
	}

	slots := []TimeOfDay{}
	for candidate := window.Start; candidate.Add(durationMinutes) <= window.End; candidate = candidate.Add(step) {
		if !OverlapsAny(NewInterval(candidate, durationMinutes), busy) {
			slots = append(slots, candidate)
		}
	}
	return slots
}
