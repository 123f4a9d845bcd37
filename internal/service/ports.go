package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/google/uuid"
)

// ReservationStore persists reservations. Lookups return (nil, nil) when the
// reservation does not exist. Implementations must run on the transaction
// carried by ctx when called inside Transactor.RunInScope.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// ListBlocking returns the pending and confirmed reservations of a table
	// on a calendar date.
	ListBlocking(ctx context.Context, tableID uuid.UUID, date time.Time) ([]*model.Reservation, error)
	// Update writes r only if the stored status still equals expected and
	// reports whether the row was written.
	Update(ctx context.Context, r *model.Reservation, expected model.ReservationStatus) (bool, error)
	// UpdateStatus writes only the status fields of r (status, payment,
	// reason, notes, confirmed/cancelled/updated times) if the stored status
	// still equals expected. It returns the stored row, or nil on mismatch.
	UpdateStatus(ctx context.Context, r *model.Reservation, expected model.ReservationStatus) (*model.Reservation, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, filter model.ReservationFilter) ([]*model.Reservation, error)
}

// Catalog is the read-only view of restaurants, tables and menus. Lookups
// return (nil, nil) when the entity does not exist.
type Catalog interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*model.Restaurant, error)
	GetTable(ctx context.Context, id uuid.UUID) (*model.Table, error)
	ListActiveTables(ctx context.Context, restaurantID uuid.UUID, minCapacity int) ([]*model.Table, error)
	GetMenuItems(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]*model.MenuItem, error)
}

// Transactor runs fn atomically with respect to every other fn started for
// the same scope. Transient conflicts must be reported wrapped in
// base.ErrTxConflict so that ConflictGuard can retry them.
type Transactor interface {
	RunInScope(ctx context.Context, scope string, fn func(ctx context.Context) error) error
}

// EventSink receives committed reservation changes. Delivery is best effort.
type EventSink interface {
	Emit(ctx context.Context, event model.ReservationEvent) error
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}
