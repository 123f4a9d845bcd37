package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/repository/base"
	"github.com/Freeeeeet/table_reservation/internal/schedule"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationColumns = `
	id, restaurant_id, table_id, customer_id, created_by, booking_date,
	start_minute, duration_minutes, party_size, status,
	customer_name, customer_phone, customer_email, special_requests,
	pre_order, total_amount_cents, payment_status, cancellation_reason,
	staff_notes, created_at, updated_at, confirmed_at, cancelled_at`

type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(pool)}
}

// Create inserts a reservation. An overlap with another blocking reservation
// on the same table is reported as base.ErrOverlap.
func (r *ReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	preOrder := res.PreOrder
	if preOrder == nil {
		preOrder = []model.PreOrderItem{}
	}

	_, err := r.ExecAffected(ctx, query,
		res.ID,
		res.RestaurantID,
		res.TableID,
		res.CustomerID,
		res.CreatedBy,
		res.Date,
		int(res.StartTime),
		res.DurationMinutes,
		res.PartySize,
		res.Status,
		res.Customer.Name,
		res.Customer.Phone,
		res.Customer.Email,
		res.SpecialRequests,
		preOrder,
		res.TotalAmountCents,
		res.PaymentStatus,
		res.CancellationReason,
		res.StaffNotes,
		res.CreatedAt,
		res.UpdatedAt,
		res.ConfirmedAt,
		res.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}

	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	return res, nil
}

// ListBlocking returns pending and confirmed reservations of a table on a date.
func (r *ReservationRepository) ListBlocking(ctx context.Context, tableID uuid.UUID, date time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE table_id = $1
		  AND booking_date = $2
		  AND status IN ('pending', 'confirmed')
		ORDER BY start_minute
	`

	rows, err := r.Query(ctx, query, tableID, date)
	if err != nil {
		return nil, fmt.Errorf("list blocking reservations: %w", base.Classify(err))
	}

	return collectReservations(rows)
}

// Update writes the interval and every mutable field of res if the stored
// status still equals expected. Only reschedule uses it, inside its scope.
func (r *ReservationRepository) Update(ctx context.Context, res *model.Reservation, expected model.ReservationStatus) (bool, error) {
	query := `
		UPDATE reservations
		SET booking_date = $2,
		    start_minute = $3,
		    duration_minutes = $4,
		    party_size = $5,
		    status = $6,
		    payment_status = $7,
		    cancellation_reason = $8,
		    staff_notes = $9,
		    confirmed_at = $10,
		    cancelled_at = $11,
		    updated_at = $12
		WHERE id = $1 AND status = $13
	`

	affected, err := r.ExecAffected(ctx, query,
		res.ID,
		res.Date,
		int(res.StartTime),
		res.DurationMinutes,
		res.PartySize,
		res.Status,
		res.PaymentStatus,
		res.CancellationReason,
		res.StaffNotes,
		res.ConfirmedAt,
		res.CancelledAt,
		res.UpdatedAt,
		expected,
	)
	if err != nil {
		return false, fmt.Errorf("update reservation: %w", err)
	}

	return affected == 1, nil
}

// UpdateStatus writes the status fields of res if the stored status still
// equals expected, leaving the interval untouched. It returns the stored row,
// or nil when the status no longer matches.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, res *model.Reservation, expected model.ReservationStatus) (*model.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $2,
		    payment_status = $3,
		    cancellation_reason = $4,
		    staff_notes = $5,
		    confirmed_at = $6,
		    cancelled_at = $7,
		    updated_at = $8
		WHERE id = $1 AND status = $9
		RETURNING ` + reservationColumns

	stored, err := scanReservation(r.QueryRow(ctx, query,
		res.ID,
		res.Status,
		res.PaymentStatus,
		res.CancellationReason,
		res.StaffNotes,
		res.ConfirmedAt,
		res.CancelledAt,
		res.UpdatedAt,
		expected,
	))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("update reservation status: %w", base.Classify(err))
	}

	return stored, nil
}

// ListByRestaurant returns the restaurant's reservations matching filter,
// ordered by date and start time.
func (r *ReservationRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, filter model.ReservationFilter) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE restaurant_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3::date IS NULL OR booking_date = $3::date)
		  AND ($4::date IS NULL OR booking_date >= $4::date)
		ORDER BY booking_date, start_minute
	`

	rows, err := r.Query(ctx, query, restaurantID, string(filter.Status), filter.Date, filter.From)
	if err != nil {
		return nil, fmt.Errorf("list reservations by restaurant: %w", base.Classify(err))
	}

	return collectReservations(rows)
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	var start int
	err := row.Scan(
		&res.ID,
		&res.RestaurantID,
		&res.TableID,
		&res.CustomerID,
		&res.CreatedBy,
		&res.Date,
		&start,
		&res.DurationMinutes,
		&res.PartySize,
		&res.Status,
		&res.Customer.Name,
		&res.Customer.Phone,
		&res.Customer.Email,
		&res.SpecialRequests,
		&res.PreOrder,
		&res.TotalAmountCents,
		&res.PaymentStatus,
		&res.CancellationReason,
		&res.StaffNotes,
		&res.CreatedAt,
		&res.UpdatedAt,
		&res.ConfirmedAt,
		&res.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	res.StartTime = schedule.TimeOfDay(start)
	if len(res.PreOrder) == 0 {
		res.PreOrder = nil
	}
	return &res, nil
}

func collectReservations(rows pgx.Rows) ([]*model.Reservation, error) {
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", base.Classify(err))
	}

	return reservations, nil
}
