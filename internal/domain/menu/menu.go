// Package menu defines the dish catalog exposed to customers.
package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// MealType restricts when a dish is served.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealAny       MealType = "any"
)

// Category groups menu items for display ordering.
type Category struct {
	ID        int64
	Name      string
	SortOrder int
}

// Item is a dish on the menu.
type Item struct {
	ID          int64
	Name        string
	Description string
	Ingredients string
	Price       decimal.Decimal
	CategoryID  int64
	MealType    MealType
	Image       string
	Calories    int
	CookingTime int
	IsSpecial   bool
	IsNew       bool
}

// Repository defines read operations for the dish catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Item, error)
}
