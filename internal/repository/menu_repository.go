package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/Freeeeeet/table_reservation/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuRepository struct {
	*base.Repository
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{Repository: base.NewRepository(pool)}
}

// GetByIDs returns the menu items of a restaurant with the given IDs.
// Unknown IDs are skipped.
func (r *MenuRepository) GetByIDs(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]*model.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	query := `
		SELECT id, restaurant_id, name, price_cents, is_available
		FROM menu_items
		WHERE restaurant_id = $1 AND id = ANY($2::uuid[])
	`

	rows, err := r.Query(ctx, query, restaurantID, keys)
	if err != nil {
		return nil, fmt.Errorf("get menu items: %w", err)
	}
	defer rows.Close()

	var items []*model.MenuItem
	for rows.Next() {
		var item model.MenuItem
		err := rows.Scan(&item.ID, &item.RestaurantID, &item.Name, &item.PriceCents, &item.IsAvailable)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}
