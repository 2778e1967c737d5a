package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saffron-restaurant/api/internal/domain/menu"
)

const (
	menuColumns = `id, name, description, ingredients, price, category_id,
		meal_type, image, calories, cooking_time, is_special, is_new`

	listMenuItemsSQL = `SELECT ` + menuColumns + ` FROM menu_items ORDER BY category_id, name`

	getMenuItemSQL = `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`

	getMenuItemsSQL = `SELECT ` + menuColumns + ` FROM menu_items WHERE id = ANY($1)`

	listCategoriesSQL = `SELECT id, name, sort_order FROM categories ORDER BY sort_order, name`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns every dish on the menu, grouped by category.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return items, nil
}

// ListCategories returns all categories in display order.
func (r *MenuRepository) ListCategories(ctx context.Context) ([]menu.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	cats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (menu.Category, error) {
		var c menu.Category
		err := row.Scan(&c.ID, &c.Name, &c.SortOrder)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return cats, nil
}

// GetByID returns one dish. Returns menu.ErrNotFound when it does not exist.
func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %d: %w", id, err)
	}
	item, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, fmt.Errorf("getting menu item %d: %w", id, err)
	}
	return &item, nil
}

// GetByIDs returns the dishes matching the given ids. Missing ids are simply
// absent from the result; callers decide how to treat vanished items.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []int64) ([]menu.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, getMenuItemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting menu items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, fmt.Errorf("getting menu items: %w", err)
	}
	return items, nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var (
		item     menu.Item
		mealType string
		calories *int32
	)
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Ingredients, &item.Price,
		&item.CategoryID, &mealType, &item.Image, &calories, &item.CookingTime,
		&item.IsSpecial, &item.IsNew,
	)
	item.MealType = menu.MealType(mealType)
	if calories != nil {
		item.Calories = int(*calories)
	}
	return item, err
}
