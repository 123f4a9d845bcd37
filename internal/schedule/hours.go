package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayHours is the open/close window of a single weekday.
type DayHours struct {
	Open   TimeOfDay `json:"open"`
	Close  TimeOfDay `json:"close"`
	IsOpen bool      `json:"isOpen"`
}

// Window returns the open/close window as an interval.
func (h DayHours) Window() Interval {
	return Interval{Start: h.Open, End: h.Close}
}

// Closed reports whether nothing can be booked on this day.
func (h DayHours) Closed() bool {
	return !h.IsOpen || h.Open >= h.Close
}

// WeeklyHours holds business hours in Monday-first order.
type WeeklyHours [7]DayHours

// dayNames is Monday-first, matching WeeklyHours indexes.
var dayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// MondayFirst converts Go's Sunday-first weekday into a Monday-first index.
func MondayFirst(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// DayName returns the lowercase weekday name for a calendar date.
func DayName(date time.Time) string {
	return dayNames[MondayFirst(date.Weekday())]
}

// DefaultWeeklyHours is the week a restaurant gets when it has not
// configured its own hours.
func DefaultWeeklyHours() WeeklyHours {
	weekday := DayHours{Open: 9 * 60, Close: 22 * 60, IsOpen: true}
	weekend := DayHours{Open: 9 * 60, Close: 23 * 60, IsOpen: true}
	return WeeklyHours{
		weekday, weekday, weekday, weekday,
		weekend, weekend,
		{Open: 10 * 60, Close: 21 * 60, IsOpen: true},
	}
}

// Resolve returns the hours that apply to the given calendar date.
func (w WeeklyHours) Resolve(date time.Time) DayHours {
	return w[MondayFirst(date.Weekday())]
}

func (w WeeklyHours) MarshalJSON() ([]byte, error) {
	out := make(map[string]DayHours, len(dayNames))
	for i, name := range dayNames {
		out[name] = w[i]
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the day-name keyed form. Days missing from the input
// are treated as closed.
func (w *WeeklyHours) UnmarshalJSON(data []byte) error {
	var in map[string]DayHours
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode business hours: %w", err)
	}

	var hours WeeklyHours
	for i, name := range dayNames {
		hours[i] = in[name]
	}
	*w = hours
	return nil
}
