// Package memory keeps restaurants, tables, menus and reservations in process
// memory. It backs the STORAGE_DRIVER=memory mode and the engine tests, and
// enforces the same no-overlap rule as the Postgres exclusion constraint.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/repository/base"
	"github.com/google/uuid"
)

type Store struct {
	mu           sync.RWMutex
	restaurants  map[uuid.UUID]*model.Restaurant
	tables       map[uuid.UUID]*model.Table
	menu         map[uuid.UUID]*model.MenuItem
	reservations map[uuid.UUID]*model.Reservation

	*Transactor
}

func NewStore() *Store {
	return &Store{
		restaurants:  make(map[uuid.UUID]*model.Restaurant),
		tables:       make(map[uuid.UUID]*model.Table),
		menu:         make(map[uuid.UUID]*model.MenuItem),
		reservations: make(map[uuid.UUID]*model.Reservation),
		Transactor:   NewTransactor(),
	}
}

// AddRestaurant stores a copy of r, assigning an ID when it has none.
func (s *Store) AddRestaurant(r model.Restaurant) *model.Restaurant {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.ID] = &r
	c := r
	return &c
}

// AddTable stores a copy of t, assigning an ID when it has none.
func (s *Store) AddTable(t model.Table) *model.Table {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = &t
	c := t
	return &c
}

// AddMenuItem stores a copy of m, assigning an ID when it has none.
func (s *Store) AddMenuItem(m model.MenuItem) *model.MenuItem {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[m.ID] = &m
	c := m
	return &c
}

func (s *Store) GetRestaurant(ctx context.Context, id uuid.UUID) (*model.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.restaurants[id]
	if !ok {
		return nil, nil
	}
	c := *r
	return &c, nil
}

// ListRestaurants returns the active restaurants ordered by name.
func (s *Store) ListRestaurants(ctx context.Context) ([]*model.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Restaurant
	for _, r := range s.restaurants {
		if r.IsActive {
			c := *r
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *model.Restaurant) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *Store) GetTable(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

// ListActiveTables returns tables seating at least minCapacity, smallest
// first.
func (s *Store) ListActiveTables(ctx context.Context, restaurantID uuid.UUID, minCapacity int) ([]*model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Table
	for _, t := range s.tables {
		if t.RestaurantID == restaurantID && t.IsActive && t.Capacity >= minCapacity {
			c := *t
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *model.Table) int {
		return cmp.Or(cmp.Compare(a.Capacity, b.Capacity), cmp.Compare(a.TableNumber, b.TableNumber))
	})
	return out, nil
}

func (s *Store) GetMenuItems(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]*model.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.MenuItem
	for _, id := range ids {
		m, ok := s.menu[id]
		if !ok || m.RestaurantID != restaurantID {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[r.ID]; ok {
		return fmt.Errorf("reservation %s already exists", r.ID)
	}
	if err := s.checkOverlap(r); err != nil {
		return err
	}
	s.reservations[r.ID] = r.Clone()
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

func (s *Store) ListBlocking(ctx context.Context, tableID uuid.UUID, date time.Time) ([]*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Reservation
	for _, r := range s.reservations {
		if r.TableID == tableID && r.Date.Equal(date) && r.Status.IsBlocking() {
			out = append(out, r.Clone())
		}
	}
	sortReservations(out)
	return out, nil
}

func (s *Store) Update(ctx context.Context, r *model.Reservation, expected model.ReservationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reservations[r.ID]
	if !ok || stored.Status != expected {
		return false, nil
	}
	if err := s.checkOverlap(r); err != nil {
		return false, err
	}
	s.reservations[r.ID] = r.Clone()
	return true, nil
}

// UpdateStatus copies the status fields of r onto the stored reservation if
// its status still equals expected. The interval is left as stored.
func (s *Store) UpdateStatus(ctx context.Context, r *model.Reservation, expected model.ReservationStatus) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reservations[r.ID]
	if !ok || stored.Status != expected {
		return nil, nil
	}
	src := r.Clone()
	next := stored.Clone()
	next.Status = src.Status
	next.PaymentStatus = src.PaymentStatus
	next.CancellationReason = src.CancellationReason
	next.StaffNotes = src.StaffNotes
	next.ConfirmedAt = src.ConfirmedAt
	next.CancelledAt = src.CancelledAt
	next.UpdatedAt = src.UpdatedAt
	if err := s.checkOverlap(next); err != nil {
		return nil, err
	}
	s.reservations[r.ID] = next
	return next.Clone(), nil
}

func (s *Store) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, filter model.ReservationFilter) ([]*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Reservation
	for _, r := range s.reservations {
		if r.RestaurantID == restaurantID && filter.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	sortReservations(out)
	return out, nil
}

// checkOverlap mirrors the Postgres exclusion constraint. Callers hold mu.
func (s *Store) checkOverlap(r *model.Reservation) error {
	if !r.Status.IsBlocking() {
		return nil
	}
	for _, other := range s.reservations {
		if other.ID == r.ID || other.TableID != r.TableID || !other.Date.Equal(r.Date) || !other.Status.IsBlocking() {
			continue
		}
		if other.Interval().Overlaps(r.Interval()) {
			return fmt.Errorf("reservation %s overlaps %s: %w", r.ID, other.ID, base.ErrOverlap)
		}
	}
	return nil
}

func sortReservations(rs []*model.Reservation) {
	slices.SortFunc(rs, func(a, b *model.Reservation) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.StartTime, b.StartTime))
	})
}
