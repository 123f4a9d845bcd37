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

const tableColumns = `
	id, restaurant_id, table_number, capacity, location,
	slot_increment_minutes, min_duration_minutes, max_duration_minutes,
	is_active, created_at, updated_at`

type TableRepository struct {
	*base.Repository
}

func NewTableRepository(pool *pgxpool.Pool) *TableRepository {
	return &TableRepository{Repository: base.NewRepository(pool)}
}

// Create inserts a table. The ID is generated when empty.
func (r *TableRepository) Create(ctx context.Context, table *model.Table) error {
	if table.ID == uuid.Nil {
		table.ID = uuid.New()
	}

	query := `
		INSERT INTO restaurant_tables (
			id, restaurant_id, table_number, capacity, location,
			slot_increment_minutes, min_duration_minutes, max_duration_minutes, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(ctx, query,
		table.ID,
		table.RestaurantID,
		table.TableNumber,
		table.Capacity,
		table.Location,
		table.SlotIncrementMinutes,
		table.MinDuration(),
		table.MaxDuration(),
		table.IsActive,
	).Scan(&table.CreatedAt, &table.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	return nil
}

func (r *TableRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = $1`

	table, err := scanTable(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get table by id: %w", err)
	}

	return table, nil
}

// ListActive returns the active tables of a restaurant seating at least
// minCapacity, smallest first.
func (r *TableRepository) ListActive(ctx context.Context, restaurantID uuid.UUID, minCapacity int) ([]*model.Table, error) {
	query := `
		SELECT ` + tableColumns + `
		FROM restaurant_tables
		WHERE restaurant_id = $1 AND is_active = TRUE AND capacity >= $2
		ORDER BY capacity, table_number
	`

	rows, err := r.Query(ctx, query, restaurantID, minCapacity)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []*model.Table
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, table)
	}

	return tables, rows.Err()
}

func scanTable(row pgx.Row) (*model.Table, error) {
	var table model.Table
	err := row.Scan(
		&table.ID,
		&table.RestaurantID,
		&table.TableNumber,
		&table.Capacity,
		&table.Location,
		&table.SlotIncrementMinutes,
		&table.MinDurationMinutes,
		&table.MaxDurationMinutes,
		&table.IsActive,
		&table.CreatedAt,
		&table.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &table, nil
}
