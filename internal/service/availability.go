package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/schedule"
	"github.com/google/uuid"
)

// DefaultDurationMinutes is used when a request leaves the duration empty.
const DefaultDurationMinutes = 120

// AvailabilityQuery asks whether a table is free for an interval.
// Date is YYYY-MM-DD and Time is HH:MM, both restaurant-local.
type AvailabilityQuery struct {
	TableID         uuid.UUID
	Date            string
	Time            string
	DurationMinutes int
	PartySize       int // 0 skips the capacity check
}

// AvailabilityChecker answers conflict questions for a single table and date
// from the current set of blocking reservations.
type AvailabilityChecker struct {
	store   ReservationStore
	catalog Catalog
}

func NewAvailabilityChecker(store ReservationStore, catalog Catalog) *AvailabilityChecker {
	return &AvailabilityChecker{store: store, catalog: catalog}
}

// slotRequest is a parsed and resolved booking interval.
type slotRequest struct {
	table      *model.Table
	restaurant *model.Restaurant
	date       time.Time
	interval   schedule.Interval
	partySize  int
}

// resolve loads the table and its restaurant and parses the wire values.
func (c *AvailabilityChecker) resolve(ctx context.Context, tableID uuid.UUID, date, start string, duration, partySize int) (*slotRequest, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, wrap(ErrValidation, "%v", err)
	}
	at, err := schedule.ParseTimeOfDay(start)
	if err != nil {
		return nil, wrap(ErrValidation, "%v", err)
	}
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	if partySize < 0 {
		return nil, wrap(ErrValidation, "party size must not be negative")
	}

	table, restaurant, err := c.loadTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	return &slotRequest{
		table:      table,
		restaurant: restaurant,
		date:       day,
		interval:   schedule.NewInterval(at, duration),
		partySize:  partySize,
	}, nil
}

// loadTable returns an active table together with its restaurant.
func (c *AvailabilityChecker) loadTable(ctx context.Context, tableID uuid.UUID) (*model.Table, *model.Restaurant, error) {
	table, err := c.catalog.GetTable(ctx, tableID)
	if err != nil {
		return nil, nil, fmt.Errorf("get table: %w", err)
	}
	if table == nil || !table.IsActive {
		return nil, nil, wrap(ErrNotFound, "table %s", tableID)
	}

	restaurant, err := c.catalog.GetRestaurant(ctx, table.RestaurantID)
	if err != nil {
		return nil, nil, fmt.Errorf("get restaurant: %w", err)
	}
	if restaurant == nil || !restaurant.IsActive {
		return nil, nil, wrap(ErrNotFound, "restaurant %s", table.RestaurantID)
	}

	return table, restaurant, nil
}

// validate checks everything about the request that does not depend on other
// reservations.
func (req *slotRequest) validate() error {
	duration := req.interval.Minutes()
	if duration <= 0 {
		return wrap(ErrValidation, "duration must be positive, got %d", duration)
	}
	if !req.table.AcceptsDuration(duration) {
		return wrap(ErrValidation, "duration %d is outside %d-%d minutes for table %s",
			duration, req.table.MinDuration(), req.table.MaxDuration(), req.table.TableNumber)
	}
	if req.partySize > 0 && req.partySize > req.table.Capacity {
		return wrap(ErrCapacityExceeded, "party of %d exceeds capacity %d of table %s",
			req.partySize, req.table.Capacity, req.table.TableNumber)
	}

	hours := req.restaurant.BusinessHours.Resolve(req.date)
	if hours.Closed() {
		return wrap(ErrClosedDay, "%s %s", schedule.DayName(req.date), schedule.FormatDate(req.date))
	}
	if !req.interval.Within(hours.Window()) {
		return wrap(ErrOutsideBusinessHours, "%s is outside %s", req.interval, hours.Window())
	}
	return nil
}

// conflicts reports whether the request overlaps a blocking reservation
// other than exclude.
func (c *AvailabilityChecker) conflicts(ctx context.Context, req *slotRequest, exclude uuid.UUID) (bool, error) {
	busy, err := c.busy(ctx, req.table.ID, req.date, exclude)
	if err != nil {
		return false, err
	}
	return schedule.OverlapsAny(req.interval, busy), nil
}

func (c *AvailabilityChecker) busy(ctx context.Context, tableID uuid.UUID, date time.Time, exclude uuid.UUID) ([]schedule.Interval, error) {
	reservations, err := c.store.ListBlocking(ctx, tableID, date)
	if err != nil {
		return nil, fmt.Errorf("list blocking reservations: %w", err)
	}

	busy := make([]schedule.Interval, 0, len(reservations))
	for _, r := range reservations {
		if r.ID == exclude {
			continue
		}
		busy = append(busy, r.Interval())
	}
	return busy, nil
}

// CheckAvailability reports whether the table is free for the requested
// interval. Requests that can never succeed return false together with the
// reason: ErrValidation, ErrCapacityExceeded, ErrClosedDay or
// ErrOutsideBusinessHours. An overlap returns (false, nil).
func (c *AvailabilityChecker) CheckAvailability(ctx context.Context, q AvailabilityQuery) (bool, error) {
	req, err := c.resolve(ctx, q.TableID, q.Date, q.Time, q.DurationMinutes, q.PartySize)
	if err != nil {
		return false, err
	}
	if err := req.validate(); err != nil {
		return false, err
	}

	conflict, err := c.conflicts(ctx, req, uuid.Nil)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

// FindAvailableTables returns the active tables of a restaurant that seat
// the party and are free for the interval, ordered as the catalog lists them.
// Tables whose duration bounds reject the request are skipped.
func (c *AvailabilityChecker) FindAvailableTables(ctx context.Context, restaurantID uuid.UUID, date, start string, duration, partySize int) ([]*model.Table, error) {
	if partySize < 1 {
		return nil, wrap(ErrValidation, "party size must be at least 1")
	}
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, wrap(ErrValidation, "%v", err)
	}
	if _, err := schedule.ParseTimeOfDay(start); err != nil {
		return nil, wrap(ErrValidation, "%v", err)
	}

	restaurant, err := c.catalog.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	if restaurant == nil || !restaurant.IsActive {
		return nil, wrap(ErrNotFound, "restaurant %s", restaurantID)
	}

	tables, err := c.catalog.ListActiveTables(ctx, restaurantID, partySize)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	free := make([]*model.Table, 0, len(tables))
	for _, table := range tables {
		ok, err := c.CheckAvailability(ctx, AvailabilityQuery{
			TableID:         table.ID,
			Date:            date,
			Time:            start,
			DurationMinutes: duration,
			PartySize:       partySize,
		})
		if errors.Is(err, ErrValidation) || errors.Is(err, ErrCapacityExceeded) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, table)
		}
	}
	return free, nil
}
