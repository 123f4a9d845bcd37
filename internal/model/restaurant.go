package model

import (
	"time"

	"github.com/Freeeeeet/table_reservation/internal/schedule"
	"github.com/google/uuid"
)

const (
	DefaultCancellationNoticeHours = 2
	DefaultAdvanceBookingDays      = 30
)

// BookingPolicy holds the general booking rules of a restaurant.
type BookingPolicy struct {
	AllowsCancellation *bool `json:"allows_cancellation"`
	MinBookingHours    *int  `json:"min_booking_hours"`
	AdvanceBookingDays int   `json:"advance_booking_days"`
}

// CancellationPolicy is the dedicated cancellation section. When set, its
// fields take precedence over the general BookingPolicy.
type CancellationPolicy struct {
	AllowFreeCancel   *bool `json:"allow_free_cancel"`
	CancelBeforeHours *int  `json:"cancel_before_hours"`
}

// NotificationSettings controls which staff alerts a restaurant receives.
type NotificationSettings struct {
	BookingAlerts      bool `json:"booking_alerts"`
	CancellationAlerts bool `json:"cancellation_alerts"`
}

type Restaurant struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Timezone      string               `json:"timezone"` // IANA name, empty means UTC
	BusinessHours schedule.WeeklyHours `json:"business_hours"`
	Policy        BookingPolicy        `json:"policy"`
	Cancellation  CancellationPolicy   `json:"cancellation"`
	Notifications NotificationSettings `json:"notifications"`
	StaffChatID   *int64               `json:"staff_chat_id"` // telegram chat for staff alerts
	IsActive      bool                 `json:"is_active"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Location returns the restaurant's time zone, falling back to UTC when the
// configured name is empty or unknown.
func (r *Restaurant) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AllowsCustomerCancellation reports whether customers may cancel at all.
func (r *Restaurant) AllowsCustomerCancellation() bool {
	if r.Cancellation.AllowFreeCancel != nil {
		return *r.Cancellation.AllowFreeCancel
	}
	if r.Policy.AllowsCancellation != nil {
		return *r.Policy.AllowsCancellation
	}
	return true
}

// CancellationNoticeHours is the minimum number of hours before the booking
// a customer cancellation must arrive.
func (r *Restaurant) CancellationNoticeHours() int {
	if r.Cancellation.CancelBeforeHours != nil {
		return *r.Cancellation.CancelBeforeHours
	}
	if r.Policy.MinBookingHours != nil {
		return *r.Policy.MinBookingHours
	}
	return DefaultCancellationNoticeHours
}

// AdvanceBookingDays is how far ahead a reservation may be made.
func (r *Restaurant) AdvanceBookingDays() int {
	if r.Policy.AdvanceBookingDays > 0 {
		return r.Policy.AdvanceBookingDays
	}
	return DefaultAdvanceBookingDays
}

// MenuItem is the read-only part of a menu entry needed to price pre-orders.
type MenuItem struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	PriceCents   int64     `json:"price_cents"`
	IsAvailable  bool      `json:"is_available"`
}
