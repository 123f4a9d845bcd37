package model

import (
	"time"

	"github.com/Freeeeeet/table_reservation/internal/schedule"
	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"   // waiting for staff
	ReservationStatusConfirmed ReservationStatus = "confirmed" // accepted by staff
	ReservationStatusRejected  ReservationStatus = "rejected"  // declined by staff
	ReservationStatusCancelled ReservationStatus = "cancelled" // cancelled by customer or staff
	ReservationStatusCompleted ReservationStatus = "completed" // guest was seated and served
	ReservationStatusNoShow    ReservationStatus = "no-show"   // guest never arrived
)

// IsBlocking reports whether a reservation in this status occupies its table.
func (s ReservationStatus) IsBlocking() bool {
	return s == ReservationStatusPending || s == ReservationStatusConfirmed
}

// IsTerminal reports whether no further transitions are allowed.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationStatusRejected, ReservationStatusCancelled, ReservationStatusCompleted, ReservationStatusNoShow:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	return s.IsBlocking() || s.IsTerminal()
}

// BlockingStatuses lists the statuses that occupy a table.
var BlockingStatuses = []ReservationStatus{ReservationStatusPending, ReservationStatusConfirmed}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentStatusPending || p == PaymentStatusPaid || p == PaymentStatusRefunded
}

// Actor is the party performing an operation on a reservation.
type Actor string

const (
	ActorStaff    Actor = "staff"
	ActorCustomer Actor = "customer"
)

func (a Actor) Valid() bool {
	return a == ActorStaff || a == ActorCustomer
}

// CustomerInfo is the contact data kept on every reservation, including
// walk-in guests without an account.
type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// PreOrderItem is a menu item ordered ahead together with the reservation.
// UnitPriceCents is captured at booking time.
type PreOrderItem struct {
	MenuItemID     uuid.UUID `json:"menu_item_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

type Reservation struct {
	ID                 uuid.UUID          `json:"id"`
	RestaurantID       uuid.UUID          `json:"restaurant_id"`
	TableID            uuid.UUID          `json:"table_id"`
	CustomerID         *uuid.UUID         `json:"customer_id"` // nil for walk-in guests booked by staff
	CreatedBy          Actor              `json:"created_by"`
	Date               time.Time          `json:"date"` // UTC midnight of the calendar date
	StartTime          schedule.TimeOfDay `json:"start_time"`
	DurationMinutes    int                `json:"duration_minutes"`
	PartySize          int                `json:"party_size"`
	Status             ReservationStatus  `json:"status"`
	Customer           CustomerInfo       `json:"customer"`
	SpecialRequests    string             `json:"special_requests"`
	PreOrder           []PreOrderItem     `json:"pre_order"`
	TotalAmountCents   int64              `json:"total_amount_cents"`
	PaymentStatus      PaymentStatus      `json:"payment_status"`
	CancellationReason *string            `json:"cancellation_reason"`
	StaffNotes         string             `json:"staff_notes"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	ConfirmedAt        *time.Time         `json:"confirmed_at"` // set once, on first confirmation
	CancelledAt        *time.Time         `json:"cancelled_at"` // set once, on cancellation
}

// Interval returns the occupied part of the day.
func (r *Reservation) Interval() schedule.Interval {
	return schedule.NewInterval(r.StartTime, r.DurationMinutes)
}

// Clone returns a deep copy, so stores never share mutable state with callers.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	c := *r
	if r.CustomerID != nil {
		id := *r.CustomerID
		c.CustomerID = &id
	}
	if r.CancellationReason != nil {
		reason := *r.CancellationReason
		c.CancellationReason = &reason
	}
	if r.ConfirmedAt != nil {
		at := *r.ConfirmedAt
		c.ConfirmedAt = &at
	}
	if r.CancelledAt != nil {
		at := *r.CancelledAt
		c.CancelledAt = &at
	}
	if r.PreOrder != nil {
		c.PreOrder = append([]PreOrderItem(nil), r.PreOrder...)
	}
	return &c
}

// ReservationFilter narrows restaurant reservation listings. Zero fields are
// ignored.
type ReservationFilter struct {
	Status ReservationStatus
	Date   *time.Time
	From   *time.Time // bookings on or after this date
}

// Matches applies the filter to a single reservation.
func (f ReservationFilter) Matches(r *Reservation) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Date != nil && !r.Date.Equal(*f.Date) {
		return false
	}
	if f.From != nil && r.Date.Before(*f.From) {
		return false
	}
	return true
}
