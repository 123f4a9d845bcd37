package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventReservationCreated     EventType = "created"
	EventReservationConfirmed   EventType = "confirmed"
	EventReservationRejected    EventType = "rejected"
	EventReservationCancelled   EventType = "cancelled"
	EventReservationCompleted   EventType = "completed"
	EventReservationNoShow      EventType = "no_show"
	EventReservationRescheduled EventType = "rescheduled"
)

// ReservationEvent is emitted after a reservation change has been committed.
// It carries enough data for consumers to notify people without querying
// the primary database.
type ReservationEvent struct {
	Type            EventType         `json:"type"`
	ReservationID   uuid.UUID         `json:"reservation_id"`
	RestaurantID    uuid.UUID         `json:"restaurant_id"`
	TableID         uuid.UUID         `json:"table_id"`
	Date            string            `json:"date"`
	Time            string            `json:"time"`
	DurationMinutes int               `json:"duration_minutes"`
	PartySize       int               `json:"party_size"`
	Status          ReservationStatus `json:"status"`
	PreviousStatus  ReservationStatus `json:"previous_status,omitempty"`
	Actor           Actor             `json:"actor"`
	CustomerName    string            `json:"customer_name"`
	Reason          string            `json:"reason,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at"`
}
