package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxReasonLength          = 200
	maxNotesLength           = 500
	maxSpecialRequestsLength = 500
	maxPreOrderQuantity      = 10

	defaultCustomerCancelReason = "Cancelled by customer"
	defaultStaffCancelReason    = "Cancelled by restaurant"
)

type ReservationService struct {
	*AvailabilityChecker

	store   ReservationStore
	catalog Catalog
	guard   *ConflictGuard
	events  EventSink
	clock   Clock
	logger  *zap.Logger
}

func NewReservationService(
	store ReservationStore,
	catalog Catalog,
	guard *ConflictGuard,
	events EventSink,
	clock Clock,
	logger *zap.Logger,
) *ReservationService {
	if events == nil {
		events = FanoutSink(nil)
	}
	if clock == nil {
		clock = SystemClock
	}
	return &ReservationService{
		AvailabilityChecker: NewAvailabilityChecker(store, catalog),
		store:               store,
		catalog:             catalog,
		guard:               guard,
		events:              events,
		clock:               clock,
		logger:              logger,
	}
}

// PreOrderLine is a menu item requested together with a reservation.
type PreOrderLine struct {
	MenuItemID uuid.UUID
	Quantity   int
}

type CreateReservationRequest struct {
	RestaurantID    uuid.UUID
	TableID         uuid.UUID
	Date            string // YYYY-MM-DD
	Time            string // HH:MM
	DurationMinutes int    // 0 means DefaultDurationMinutes
	PartySize       int
	CustomerID      *uuid.UUID // nil for walk-in guests
	Actor           model.Actor
	Customer        model.CustomerInfo
	SpecialRequests string
	PreOrder        []PreOrderLine
}

// CreateReservation books a table. The availability check and the insert run
// atomically for the (table, date) scope; the new reservation is pending.
func (s *ReservationService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*model.Reservation, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	slot, err := s.resolve(ctx, req.TableID, req.Date, req.Time, req.DurationMinutes, req.PartySize)
	if err != nil {
		return nil, err
	}
	if slot.table.RestaurantID != req.RestaurantID {
		return nil, wrap(ErrNotFound, "table %s in restaurant %s", req.TableID, req.RestaurantID)
	}
	if err := s.checkBookingWindow(slot); err != nil {
		return nil, err
	}
	if err := slot.validate(); err != nil {
		return nil, err
	}

	preOrder, total, err := s.pricePreOrder(ctx, req.RestaurantID, req.PreOrder)
	if err != nil {
		return nil, err
	}

	actor := req.Actor
	if actor == "" {
		actor = model.ActorCustomer
	}
	now := s.clock.Now()
	reservation := &model.Reservation{
		ID:               uuid.New(),
		RestaurantID:     req.RestaurantID,
		TableID:          req.TableID,
		CustomerID:       req.CustomerID,
		CreatedBy:        actor,
		Date:             slot.date,
		StartTime:        slot.interval.Start,
		DurationMinutes:  slot.interval.Minutes(),
		PartySize:        req.PartySize,
		Status:           model.ReservationStatusPending,
		Customer:         trimCustomer(req.Customer),
		SpecialRequests:  strings.TrimSpace(req.SpecialRequests),
		PreOrder:         preOrder,
		TotalAmountCents: total,
		PaymentStatus:    model.PaymentStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.guard.Do(ctx, ScopeKey(slot.table.ID, slot.date), func(ctx context.Context) error {
		conflict, err := s.conflicts(ctx, slot, uuid.Nil)
		if err != nil {
			return err
		}
		if conflict {
			return wrap(ErrSlotUnavailable, "table %s is booked around %s on %s",
				slot.table.TableNumber, slot.interval, schedule.FormatDate(slot.date))
		}
		if err := s.store.Create(ctx, reservation); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("restaurant_id", reservation.RestaurantID.String()),
		zap.String("table", slot.table.TableNumber),
		zap.String("date", schedule.FormatDate(reservation.Date)),
		zap.String("interval", slot.interval.String()),
		zap.Int("party_size", reservation.PartySize),
		zap.String("created_by", string(actor)),
	)
	s.emit(ctx, newEvent(model.EventReservationCreated, reservation, "", actor, ""))

	return reservation, nil
}

func validateCreate(req CreateReservationRequest) error {
	if req.Actor != "" && !req.Actor.Valid() {
		return wrap(ErrValidation, "unknown actor %q", req.Actor)
	}
	if req.PartySize < 1 {
		return wrap(ErrValidation, "party size must be at least 1")
	}
	if req.CustomerID == nil && strings.TrimSpace(req.Customer.Name) == "" {
		return wrap(ErrValidation, "walk-in reservations need a customer name")
	}
	if utf8.RuneCountInString(req.SpecialRequests) > maxSpecialRequestsLength {
		return wrap(ErrValidation, "special requests exceed %d characters", maxSpecialRequestsLength)
	}
	for _, line := range req.PreOrder {
		if line.Quantity < 1 || line.Quantity > maxPreOrderQuantity {
			return wrap(ErrValidation, "pre-order quantity must be between 1 and %d", maxPreOrderQuantity)
		}
	}
	return nil
}

// checkBookingWindow rejects bookings in the past or too far ahead, measured
// in the restaurant's time zone.
func (s *ReservationService) checkBookingWindow(slot *slotRequest) error {
	loc := slot.restaurant.Location()
	now := s.clock.Now()
	today := schedule.DateOf(now, loc)

	if slot.date.Before(today) {
		return wrap(ErrValidation, "date %s is in the past", schedule.FormatDate(slot.date))
	}
	if schedule.At(slot.date, slot.interval.Start, loc).Before(now) {
		return wrap(ErrValidation, "time %s on %s has already passed", slot.interval.Start, schedule.FormatDate(slot.date))
	}
	days := slot.restaurant.AdvanceBookingDays()
	if slot.date.After(today.AddDate(0, 0, days)) {
		return wrap(ErrValidation, "bookings open at most %d days ahead", days)
	}
	return nil
}

// pricePreOrder resolves pre-order lines against the restaurant's menu and
// captures unit prices.
func (s *ReservationService) pricePreOrder(ctx context.Context, restaurantID uuid.UUID, lines []PreOrderLine) ([]model.PreOrderItem, int64, error) {
	if len(lines) == 0 {
		return nil, 0, nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.MenuItemID)
	}
	items, err := s.catalog.GetMenuItems(ctx, restaurantID, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("get menu items: %w", err)
	}
	menu := make(map[uuid.UUID]*model.MenuItem, len(items))
	for _, item := range items {
		menu[item.ID] = item
	}

	var total int64
	preOrder := make([]model.PreOrderItem, 0, len(lines))
	for _, line := range lines {
		item, ok := menu[line.MenuItemID]
		if !ok || item.RestaurantID != restaurantID {
			return nil, 0, wrap(ErrValidation, "menu item %s not found", line.MenuItemID)
		}
		if !item.IsAvailable {
			return nil, 0, wrap(ErrValidation, "menu item %q is not available", item.Name)
		}
		preOrder = append(preOrder, model.PreOrderItem{
			MenuItemID:     item.ID,
			Quantity:       line.Quantity,
			UnitPriceCents: item.PriceCents,
		})
		total += item.PriceCents * int64(line.Quantity)
	}
	return preOrder, total, nil
}

func trimCustomer(c model.CustomerInfo) model.CustomerInfo {
	return model.CustomerInfo{
		Name:  strings.TrimSpace(c.Name),
		Phone: strings.TrimSpace(c.Phone),
		Email: strings.TrimSpace(c.Email),
	}
}

// TransitionRequest drives a reservation through its lifecycle. Reason is
// used by reject and cancel. Notes, when set, replace the staff notes.
// PaymentStatus applies to complete. The reschedule fields default to the
// reservation's current values when empty.
type TransitionRequest struct {
	ReservationID   uuid.UUID
	Action          Action
	Actor           model.Actor
	Reason          string
	Notes           *string
	PaymentStatus   model.PaymentStatus
	Date            string
	Time            string
	DurationMinutes int
	PartySize       int
}

// Transition applies a lifecycle action. Status changes are compare-and-set
// on the stored status, so of two concurrent transitions from the same state
// only one succeeds; the other gets ErrInvalidStateTransition.
func (s *ReservationService) Transition(ctx context.Context, req TransitionRequest) (*model.Reservation, error) {
	if !req.Actor.Valid() {
		return nil, wrap(ErrValidation, "unknown actor %q", req.Actor)
	}
	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > maxNotesLength {
		return nil, wrap(ErrValidation, "notes exceed %d characters", maxNotesLength)
	}
	if req.PaymentStatus != "" && !req.PaymentStatus.Valid() {
		return nil, wrap(ErrValidation, "unknown payment status %q", req.PaymentStatus)
	}

	current, err := s.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}
	next, err := NextStatus(current.Status, req.Action, req.Actor)
	if err != nil {
		return nil, err
	}

	if req.Action == ActionReschedule {
		return s.reschedule(ctx, current, req)
	}

	updated := current.Clone()
	updated.Status = next
	updated.UpdatedAt = s.clock.Now()
	if req.Notes != nil {
		updated.StaffNotes = strings.TrimSpace(*req.Notes)
	}
	reason := strings.TrimSpace(req.Reason)

	switch req.Action {
	case ActionConfirm:
		if updated.ConfirmedAt == nil {
			at := updated.UpdatedAt
			updated.ConfirmedAt = &at
		}
	case ActionReject:
		if reason == "" {
			return nil, wrap(ErrValidation, "a reason is required to reject a reservation")
		}
		if utf8.RuneCountInString(reason) > maxReasonLength {
			return nil, wrap(ErrValidation, "reason exceeds %d characters", maxReasonLength)
		}
		updated.CancellationReason = &reason
	case ActionCancel:
		if err := s.checkCancellation(ctx, current, req.Actor); err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(reason) > maxReasonLength {
			return nil, wrap(ErrValidation, "reason exceeds %d characters", maxReasonLength)
		}
		if reason == "" {
			reason = defaultStaffCancelReason
			if req.Actor == model.ActorCustomer {
				reason = defaultCustomerCancelReason
			}
		}
		updated.CancellationReason = &reason
		if updated.CancelledAt == nil {
			at := updated.UpdatedAt
			updated.CancelledAt = &at
		}
	case ActionComplete:
		if req.PaymentStatus != "" {
			updated.PaymentStatus = req.PaymentStatus
		}
	}

	// the interval may have moved since current was read; only status fields
	// are written and the stored row is what the caller sees
	stored, err := s.store.UpdateStatus(ctx, updated, current.Status)
	if err != nil {
		return nil, fmt.Errorf("update reservation status: %w", err)
	}
	if stored == nil {
		return nil, wrap(ErrInvalidStateTransition, "reservation %s changed concurrently", current.ID)
	}
	updated = stored

	s.logger.Info("Reservation status changed",
		zap.String("reservation_id", updated.ID.String()),
		zap.String("action", string(req.Action)),
		zap.String("actor", string(req.Actor)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)
	eventReason := ""
	if updated.CancellationReason != nil && (req.Action == ActionReject || req.Action == ActionCancel) {
		eventReason = *updated.CancellationReason
	}
	s.emit(ctx, newEvent(eventFor(req.Action), updated, current.Status, req.Actor, eventReason))

	return updated, nil
}

// checkCancellation applies the restaurant's cancellation policy to customer
// cancellations. Staff may always cancel.
func (s *ReservationService) checkCancellation(ctx context.Context, r *model.Reservation, actor model.Actor) error {
	if actor != model.ActorCustomer {
		return nil
	}

	restaurant, err := s.catalog.GetRestaurant(ctx, r.RestaurantID)
	if err != nil {
		return fmt.Errorf("get restaurant: %w", err)
	}
	if restaurant == nil {
		return wrap(ErrNotFound, "restaurant %s", r.RestaurantID)
	}
	if !restaurant.AllowsCustomerCancellation() {
		return wrap(ErrPolicyViolation, "restaurant does not allow cancellations")
	}

	notice := time.Duration(restaurant.CancellationNoticeHours()) * time.Hour
	startsAt := schedule.At(r.Date, r.StartTime, restaurant.Location())
	if startsAt.Sub(s.clock.Now()) < notice {
		return wrap(ErrPolicyViolation, "cancellations need at least %d hours notice", restaurant.CancellationNoticeHours())
	}
	return nil
}

// reschedule moves a reservation to a new interval. The availability check
// excludes the reservation itself and runs atomically for the target
// (table, date) scope.
func (s *ReservationService) reschedule(ctx context.Context, current *model.Reservation, req TransitionRequest) (*model.Reservation, error) {
	date := req.Date
	if date == "" {
		date = schedule.FormatDate(current.Date)
	}
	start := req.Time
	if start == "" {
		start = current.StartTime.String()
	}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = current.DurationMinutes
	}
	partySize := req.PartySize
	if partySize == 0 {
		partySize = current.PartySize
	}

	slot, err := s.resolve(ctx, current.TableID, date, start, duration, partySize)
	if err != nil {
		return nil, err
	}
	if err := s.checkBookingWindow(slot); err != nil {
		return nil, err
	}
	if err := slot.validate(); err != nil {
		return nil, err
	}

	var updated, previous *model.Reservation
	err = s.guard.Do(ctx, ScopeKey(slot.table.ID, slot.date), func(ctx context.Context) error {
		fresh, err := s.store.GetByID(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("get reservation: %w", err)
		}
		if fresh == nil {
			return wrap(ErrNotFound, "reservation %s", current.ID)
		}
		if _, err := NextStatus(fresh.Status, ActionReschedule, req.Actor); err != nil {
			return err
		}

		conflict, err := s.conflicts(ctx, slot, fresh.ID)
		if err != nil {
			return err
		}
		if conflict {
			return wrap(ErrSlotUnavailable, "table %s is booked around %s on %s",
				slot.table.TableNumber, slot.interval, schedule.FormatDate(slot.date))
		}

		next := fresh.Clone()
		next.Date = slot.date
		next.StartTime = slot.interval.Start
		next.DurationMinutes = slot.interval.Minutes()
		next.PartySize = slot.partySize
		next.UpdatedAt = s.clock.Now()

		ok, err := s.store.Update(ctx, next, fresh.Status)
		if err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		if !ok {
			return wrap(ErrInvalidStateTransition, "reservation %s changed concurrently", fresh.ID)
		}
		updated, previous = next, fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation rescheduled",
		zap.String("reservation_id", updated.ID.String()),
		zap.String("actor", string(req.Actor)),
		zap.String("from", schedule.FormatDate(previous.Date)+" "+previous.Interval().String()),
		zap.String("to", schedule.FormatDate(updated.Date)+" "+updated.Interval().String()),
	)
	s.emit(ctx, newEvent(model.EventReservationRescheduled, updated, previous.Status, req.Actor, ""))

	return updated, nil
}

// GetReservation returns a reservation or ErrNotFound.
func (s *ReservationService) GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if r == nil {
		return nil, wrap(ErrNotFound, "reservation %s", id)
	}
	return r, nil
}

// ListRestaurantReservations returns the restaurant's reservations matching
// filter, ordered by date and start time.
func (s *ReservationService) ListRestaurantReservations(ctx context.Context, restaurantID uuid.UUID, filter model.ReservationFilter) ([]*model.Reservation, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, wrap(ErrValidation, "unknown status %q", filter.Status)
	}
	reservations, err := s.store.ListByRestaurant(ctx, restaurantID, filter)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

// emit publishes an event after commit. Failures are logged and never undo
// the change.
func (s *ReservationService) emit(ctx context.Context, event model.ReservationEvent) {
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.Warn("Failed to publish reservation event",
			zap.String("reservation_id", event.ReservationID.String()),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
