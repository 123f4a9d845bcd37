package service

import (
	"fmt"
	"slices"

	"github.com/Freeeeeet/table_reservation/internal/model"
)

// Action is a lifecycle operation on a reservation.
type Action string

const (
	ActionConfirm    Action = "confirm"
	ActionReject     Action = "reject"
	ActionCancel     Action = "cancel"
	ActionComplete   Action = "complete"
	ActionNoShow     Action = "no-show"
	ActionReschedule Action = "reschedule"
)

type transitionRule struct {
	from   []model.ReservationStatus
	actors []model.Actor
	// to is empty when the action keeps the current status
	to model.ReservationStatus
}

var (
	active     = []model.ReservationStatus{model.ReservationStatusPending, model.ReservationStatusConfirmed}
	staffOnly  = []model.Actor{model.ActorStaff}
	everyActor = []model.Actor{model.ActorStaff, model.ActorCustomer}
)

var transitions = map[Action]transitionRule{
	ActionConfirm: {
		from:   []model.ReservationStatus{model.ReservationStatusPending},
		actors: staffOnly,
		to:     model.ReservationStatusConfirmed,
	},
	ActionReject: {
		from:   []model.ReservationStatus{model.ReservationStatusPending},
		actors: staffOnly,
		to:     model.ReservationStatusRejected,
	},
	ActionReschedule: {
		from:   active,
		actors: everyActor,
	},
	ActionCancel: {
		from:   active,
		actors: everyActor,
		to:     model.ReservationStatusCancelled,
	},
	ActionComplete: {
		from:   []model.ReservationStatus{model.ReservationStatusConfirmed},
		actors: staffOnly,
		to:     model.ReservationStatusCompleted,
	},
	ActionNoShow: {
		from:   []model.ReservationStatus{model.ReservationStatusConfirmed},
		actors: staffOnly,
		to:     model.ReservationStatusNoShow,
	},
}

// NextStatus returns the status a reservation moves to when actor performs
// action on it, or ErrInvalidStateTransition when the lifecycle does not
// allow it. Preconditions beyond status and actor (reasons, notice windows,
// availability) are checked by the caller.
func NextStatus(current model.ReservationStatus, action Action, actor model.Actor) (model.ReservationStatus, error) {
	rule, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidStateTransition, action)
	}
	if !slices.Contains(rule.actors, actor) {
		return "", fmt.Errorf("%w: %s may not %s a reservation", ErrInvalidStateTransition, actor, action)
	}
	if !slices.Contains(rule.from, current) {
		return "", fmt.Errorf("%w: cannot %s a %s reservation", ErrInvalidStateTransition, action, current)
	}
	if rule.to == "" {
		return current, nil
	}
	return rule.to, nil
}

// eventFor maps a lifecycle action to the event published after it commits.
func eventFor(action Action) model.EventType {
	switch action {
	case ActionConfirm:
		return model.EventReservationConfirmed
	case ActionReject:
		return model.EventReservationRejected
	case ActionCancel:
		return model.EventReservationCancelled
	case ActionComplete:
		return model.EventReservationCompleted
	case ActionNoShow:
		return model.EventReservationNoShow
	default:
		return model.EventReservationRescheduled
	}
}
