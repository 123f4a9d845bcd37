package service

import (
	"context"

	"github.com/Freeeeeet/table_reservation/internal/schedule"
	"github.com/google/uuid"
)

// SlotReason explains the outcome of a slot listing.
type SlotReason string

const (
	SlotReasonSuccess SlotReason = "success"
	SlotReasonClosed  SlotReason = "closed"
	SlotReasonNoSlots SlotReason = "no_slots"
)

// SlotList is the set of free start times of a table on a date.
type SlotList struct {
	Date              string            `json:"date"`
	Day               string            `json:"day"`
	Slots             []string          `json:"slots"`
	Reason            SlotReason        `json:"reason"`
	Hours             schedule.DayHours `json:"hours"`
	IncrementMinutes  int               `json:"increment_minutes"`
	RequestedDuration int               `json:"requested_duration"`
	ExistingCount     int               `json:"existing_count"` // blocking reservations seen
}

// ListSlots generates the booking grid for a table: start times anchored to
// the opening time, stepped by the table's slot increment, whose interval of
// durationMinutes fits before closing and overlaps no blocking reservation.
// A closed day is not an error; it yields an empty list with reason closed.
func (c *AvailabilityChecker) ListSlots(ctx context.Context, tableID uuid.UUID, date string, durationMinutes int) (*SlotList, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, wrap(ErrValidation, "%v", err)
	}
	if durationMinutes == 0 {
		durationMinutes = DefaultDurationMinutes
	}

	table, restaurant, err := c.loadTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if durationMinutes < 0 || !table.AcceptsDuration(durationMinutes) {
		return nil, wrap(ErrValidation, "duration %d is outside %d-%d minutes for table %s",
			durationMinutes, table.MinDuration(), table.MaxDuration(), table.TableNumber)
	}

	hours := restaurant.BusinessHours.Resolve(day)
	list := &SlotList{
		Date:              schedule.FormatDate(day),
		Day:               schedule.DayName(day),
		Slots:             []string{},
		Hours:             hours,
		IncrementMinutes:  table.SlotIncrement(),
		RequestedDuration: durationMinutes,
	}
	if hours.Closed() {
		list.Reason = SlotReasonClosed
		return list, nil
	}

	busy, err := c.busy(ctx, table.ID, day, uuid.Nil)
	if err != nil {
		return nil, err
	}
	list.ExistingCount = len(busy)

	for _, start := range schedule.Grid(hours.Window(), durationMinutes, list.IncrementMinutes, busy) {
		list.Slots = append(list.Slots, start.String())
	}

	list.Reason = SlotReasonSuccess
	if len(list.Slots) == 0 {
		list.Reason = SlotReasonNoSlots
	}
	return list, nil
}
