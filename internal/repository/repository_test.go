package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/repository/base"
	"github.com/Freeeeeet/table_reservation/internal/schedule"
	"github.com/Freeeeeet/table_reservation/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// openTestPool connects to TEST_DB_DSN and applies the migrations. Tests are
// skipped when the variable is not set.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, goose.SetDialect("postgres"))
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	require.NoError(t, goose.UpContext(ctx, db, "../../migrations"))

	return pool
}

type seeded struct {
	restaurant *model.Restaurant
	table      *model.Table
	date       time.Time
}

func seed(t *testing.T, pool *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()

	restaurant := &model.Restaurant{
		Name:          "Bistro " + uuid.NewString()[:8],
		Timezone:      "Europe/Berlin",
		BusinessHours: schedule.DefaultWeeklyHours(),
		IsActive:      true,
	}
	require.NoError(t, NewRestaurantRepository(pool).Create(ctx, restaurant))

	table := &model.Table{
		RestaurantID:         restaurant.ID,
		TableNumber:          "T1",
		Capacity:             4,
		SlotIncrementMinutes: 120,
		IsActive:             true,
	}
	require.NoError(t, NewTableRepository(pool).Create(ctx, table))

	date, err := schedule.ParseDate("2026-10-19")
	require.NoError(t, err)

	return seeded{restaurant: restaurant, table: table, date: date}
}

func reservationAt(s seeded, start string, duration int) *model.Reservation {
	at, _ := schedule.ParseTimeOfDay(start)
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Reservation{
		ID:              uuid.New(),
		RestaurantID:    s.restaurant.ID,
		TableID:         s.table.ID,
		CreatedBy:       model.ActorStaff,
		Date:            s.date,
		StartTime:       at,
		DurationMinutes: duration,
		PartySize:       2,
		Status:          model.ReservationStatusPending,
		Customer:        model.CustomerInfo{Name: "Guest"},
		PaymentStatus:   model.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	pool := openTestPool(t)
	s := seed(t, pool)
	ctx := context.Background()
	catalog := NewCatalog(pool)

	restaurant, err := catalog.GetRestaurant(ctx, s.restaurant.ID)
	require.NoError(t, err)
	require.NotNil(t, restaurant)
	assert.Equal(t, schedule.DefaultWeeklyHours(), restaurant.BusinessHours)
	assert.Equal(t, 30, restaurant.AdvanceBookingDays())

	table, err := catalog.GetTable(ctx, s.table.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, table.MinDurationMinutes)
	assert.Equal(t, 180, table.MaxDurationMinutes)

	missing, err := catalog.GetTable(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	tables, err := catalog.ListActiveTables(ctx, s.restaurant.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, tables)

	items, err := catalog.GetMenuItems(ctx, s.restaurant.ID, []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReservationRepository(t *testing.T) {
	pool := openTestPool(t)
	s := seed(t, pool)
	ctx := context.Background()
	repo := NewReservationRepository(pool)

	first := reservationAt(s, "18:00", 90)
	first.PreOrder = []model.PreOrderItem{{MenuItemID: uuid.New(), Quantity: 2, UnitPriceCents: 450}}
	require.NoError(t, repo.Create(ctx, first))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.StartTime, got.StartTime)
	assert.Equal(t, first.PreOrder, got.PreOrder)
	assert.Equal(t, "2026-10-19", schedule.FormatDate(got.Date))

	require.NoError(t, repo.Create(ctx, reservationAt(s, "19:30", 60)), "touching intervals do not overlap")

	err = repo.Create(ctx, reservationAt(s, "19:00", 60))
	assert.ErrorIs(t, err, base.ErrOverlap)

	blocking, err := repo.ListBlocking(ctx, s.table.ID, s.date)
	require.NoError(t, err)
	assert.Len(t, blocking, 2)

	confirmed := got.Clone()
	confirmed.Status = model.ReservationStatusConfirmed
	ok, err := repo.Update(ctx, confirmed, model.ReservationStatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Update(ctx, confirmed, model.ReservationStatusPending)
	require.NoError(t, err)
	assert.False(t, ok, "status already moved on")

	pending, err := repo.ListByRestaurant(ctx, s.restaurant.ID, model.ReservationFilter{Status: model.ReservationStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	onDate, err := repo.ListByRestaurant(ctx, s.restaurant.ID, model.ReservationFilter{Date: &s.date})
	require.NoError(t, err)
	assert.Len(t, onDate, 2)
}

func TestUpdateStatusKeepsRescheduledInterval(t *testing.T) {
	pool := openTestPool(t)
	s := seed(t, pool)
	ctx := context.Background()
	repo := NewReservationRepository(pool)

	r := reservationAt(s, "12:00", 120)
	require.NoError(t, repo.Create(ctx, r))
	stale := r.Clone()

	moved := r.Clone()
	moved.StartTime, _ = schedule.ParseTimeOfDay("18:00")
	ok, err := repo.Update(ctx, moved, model.ReservationStatusPending)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Create(ctx, reservationAt(s, "12:00", 120)), "old slot is free again")

	confirmedAt := time.Now().UTC().Truncate(time.Microsecond)
	stale.Status = model.ReservationStatusConfirmed
	stale.ConfirmedAt = &confirmedAt
	stale.UpdatedAt = confirmedAt
	stored, err := repo.UpdateStatus(ctx, stale, model.ReservationStatusPending)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.ReservationStatusConfirmed, stored.Status)
	assert.Equal(t, "18:00", stored.StartTime.String())
	require.NotNil(t, stored.ConfirmedAt)

	stored, err = repo.UpdateStatus(ctx, stale, model.ReservationStatusPending)
	require.NoError(t, err)
	assert.Nil(t, stored, "status already moved on")
}

type frozenClock time.Time

func (c frozenClock) Now() time.Time { return time.Time(c) }

// interleavingReservations runs beforeStatusWrite once, between a
// transition's read and its status write.
type interleavingReservations struct {
	*ReservationRepository
	once              sync.Once
	beforeStatusWrite func()
}

func (r *interleavingReservations) UpdateStatus(ctx context.Context, res *model.Reservation, expected model.ReservationStatus) (*model.Reservation, error) {
	r.once.Do(r.beforeStatusWrite)
	return r.ReservationRepository.UpdateStatus(ctx, res, expected)
}

func TestConfirmKeepsConcurrentReschedule(t *testing.T) {
	pool := openTestPool(t)
	s := seed(t, pool)
	ctx := context.Background()

	repo := NewReservationRepository(pool)
	catalog := NewCatalog(pool)
	guard := service.NewConflictGuard(NewTransactor(pool), service.DefaultGuardConfig, zap.NewNop())
	clock := frozenClock(time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC))
	direct := service.NewReservationService(repo, catalog, guard, nil, clock, zap.NewNop())

	request := service.CreateReservationRequest{
		RestaurantID:    s.restaurant.ID,
		TableID:         s.table.ID,
		Date:            "2026-10-19",
		Time:            "12:00",
		DurationMinutes: 120,
		PartySize:       2,
		Actor:           model.ActorStaff,
		Customer:        model.CustomerInfo{Name: "Walk-in guest"},
	}
	r, err := direct.CreateReservation(ctx, request)
	require.NoError(t, err)

	interleaved := &interleavingReservations{ReservationRepository: repo}
	interleaved.beforeStatusWrite = func() {
		_, err := direct.Transition(ctx, service.TransitionRequest{ReservationID: r.ID, Action: service.ActionReschedule, Actor: model.ActorStaff, Time: "18:00"})
		require.NoError(t, err)
		_, err = direct.CreateReservation(ctx, request)
		require.NoError(t, err, "old slot is free again")
	}
	svc := service.NewReservationService(interleaved, catalog, guard, nil, clock, zap.NewNop())

	confirmed, err := svc.Transition(ctx, service.TransitionRequest{ReservationID: r.ID, Action: service.ActionConfirm, Actor: model.ActorStaff})
	require.NoError(t, err)
	assert.Equal(t, "18:00", confirmed.StartTime.String())

	stored, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusConfirmed, stored.Status)
	assert.Equal(t, "18:00", stored.StartTime.String())
}

func TestTransactorSerialisesScope(t *testing.T) {
	pool := openTestPool(t)
	s := seed(t, pool)
	repo := NewReservationRepository(pool)
	tx := NewTransactor(pool)
	scope := s.table.ID.String() + "/2026-10-19"

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = tx.RunInScope(context.Background(), scope, func(ctx context.Context) error {
				busy, err := repo.ListBlocking(ctx, s.table.ID, s.date)
				if err != nil {
					return err
				}
				if len(busy) > 0 {
					return nil
				}
				return repo.Create(ctx, reservationAt(s, "12:00", 120))
			})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	blocking, err := repo.ListBlocking(context.Background(), s.table.ID, s.date)
	require.NoError(t, err)
	assert.Len(t, blocking, 1)
}
