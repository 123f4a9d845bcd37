package repository

import (
	"context"

	"github.com/Freeeeeet/table_reservation/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Catalog is the read side of restaurants, tables and menus.
type Catalog struct {
	Restaurants *RestaurantRepository
	Tables      *TableRepository
	Menu        *MenuRepository
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{
		Restaurants: NewRestaurantRepository(pool),
		Tables:      NewTableRepository(pool),
		Menu:        NewMenuRepository(pool),
	}
}

func (c *Catalog) GetRestaurant(ctx context.Context, id uuid.UUID) (*model.Restaurant, error) {
	return c.Restaurants.GetByID(ctx, id)
}

func (c *Catalog) ListRestaurants(ctx context.Context) ([]*model.Restaurant, error) {
	return c.Restaurants.ListActive(ctx)
}

func (c *Catalog) GetTable(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	return c.Tables.GetByID(ctx, id)
}

func (c *Catalog) ListActiveTables(ctx context.Context, restaurantID uuid.UUID, minCapacity int) ([]*model.Table, error) {
	return c.Tables.ListActive(ctx, restaurantID, minCapacity)
}

func (c *Catalog) GetMenuItems(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]*model.MenuItem, error) {
	return c.Menu.GetByIDs(ctx, restaurantID, ids)
}
