package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const restaurantColumns = `
	id, name, timezone, business_hours,
	allows_cancellation, min_booking_hours, advance_booking_days,
	allow_free_cancel, cancel_before_hours,
	booking_alerts, cancellation_alerts, staff_chat_id,
	is_active, created_at, updated_at`

type RestaurantRepository struct {
	*base.Repository
}

func NewRestaurantRepository(pool *pgxpool.Pool) *RestaurantRepository {
	return &RestaurantRepository{Repository: base.NewRepository(pool)}
}

// Create inserts a restaurant. The ID is generated when empty.
func (r *RestaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	if restaurant.ID == uuid.Nil {
		restaurant.ID = uuid.New()
	}

	query := `
		INSERT INTO restaurants (
			id, name, timezone, business_hours,
			allows_cancellation, min_booking_hours, advance_booking_days,
			allow_free_cancel, cancel_before_hours,
			booking_alerts, cancellation_alerts, staff_chat_id, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(ctx, query,
		restaurant.ID,
		restaurant.Name,
		restaurant.Timezone,
		restaurant.BusinessHours,
		restaurant.Policy.AllowsCancellation,
		restaurant.Policy.MinBookingHours,
		restaurant.AdvanceBookingDays(),
		restaurant.Cancellation.AllowFreeCancel,
		restaurant.Cancellation.CancelBeforeHours,
		restaurant.Notifications.BookingAlerts,
		restaurant.Notifications.CancellationAlerts,
		restaurant.StaffChatID,
		restaurant.IsActive,
	).Scan(&restaurant.CreatedAt, &restaurant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}

	return nil
}

func (r *RestaurantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`

	restaurant, err := scanRestaurant(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get restaurant by id: %w", err)
	}

	return restaurant, nil
}

// ListActive returns every active restaurant ordered by name.
func (r *RestaurantRepository) ListActive(ctx context.Context) ([]*model.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE is_active = TRUE ORDER BY name`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []*model.Restaurant
	for rows.Next() {
		restaurant, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		restaurants = append(restaurants, restaurant)
	}

	return restaurants, rows.Err()
}

func scanRestaurant(row pgx.Row) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	err := row.Scan(
		&restaurant.ID,
		&restaurant.Name,
		&restaurant.Timezone,
		&restaurant.BusinessHours,
		&restaurant.Policy.AllowsCancellation,
		&restaurant.Policy.MinBookingHours,
		&restaurant.Policy.AdvanceBookingDays,
		&restaurant.Cancellation.AllowFreeCancel,
		&restaurant.Cancellation.CancelBeforeHours,
		&restaurant.Notifications.BookingAlerts,
		&restaurant.Notifications.CancellationAlerts,
		&restaurant.StaffChatID,
		&restaurant.IsActive,
		&restaurant.CreatedAt,
		&restaurant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}
