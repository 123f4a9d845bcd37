package service

import (
	"context"
	"errors"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/schedule"
)

// FanoutSink delivers every event to each of its sinks and joins their errors.
type FanoutSink []EventSink

func (f FanoutSink) Emit(ctx context.Context, event model.ReservationEvent) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newEvent(t model.EventType, r *model.Reservation, previous model.ReservationStatus, actor model.Actor, reason string) model.ReservationEvent {
	return model.ReservationEvent{
		Type:            t,
		ReservationID:   r.ID,
		RestaurantID:    r.RestaurantID,
		TableID:         r.TableID,
		Date:            schedule.FormatDate(r.Date),
		Time:            r.StartTime.String(),
		DurationMinutes: r.DurationMinutes,
		PartySize:       r.PartySize,
		Status:          r.Status,
		PreviousStatus:  previous,
		Actor:           actor,
		CustomerName:    r.Customer.Name,
		Reason:          reason,
		OccurredAt:      r.UpdatedAt,
	}
}
