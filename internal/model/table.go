package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMinBookingDuration = 90  // minutes
	DefaultMaxBookingDuration = 180 // minutes
)

// Table is a bookable unit of a restaurant.
type Table struct {
	ID                   uuid.UUID `json:"id"`
	RestaurantID         uuid.UUID `json:"restaurant_id"`
	TableNumber          string    `json:"table_number"`
	Capacity             int       `json:"capacity"`
	Location             string    `json:"location"`               // indoor, outdoor, private, bar
	SlotIncrementMinutes int       `json:"slot_increment_minutes"` // 0 = use max booking duration
	MinDurationMinutes   int       `json:"min_duration_minutes"`
	MaxDurationMinutes   int       `json:"max_duration_minutes"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// SlotIncrement is the turnover time used as the booking grid step.
func (t *Table) SlotIncrement() int {
	if t.SlotIncrementMinutes > 0 {
		return t.SlotIncrementMinutes
	}
	return t.MaxDuration()
}

func (t *Table) MinDuration() int {
	if t.MinDurationMinutes > 0 {
		return t.MinDurationMinutes
	}
	return DefaultMinBookingDuration
}

func (t *Table) MaxDuration() int {
	if t.MaxDurationMinutes > 0 {
		return t.MaxDurationMinutes
	}
	return DefaultMaxBookingDuration
}

// AcceptsDuration reports whether a booking length is within the table's bounds.
func (t *Table) AcceptsDuration(minutes int) bool {
	return minutes >= t.MinDuration() && minutes <= t.MaxDuration()
}
