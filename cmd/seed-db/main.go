// Command seed-db populates the database with the restaurant's categories,
// menu, a few demo coupons, and an admin API key. Everything is upserted so
// reseeding is safe.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/saffron-restaurant/api/internal/repository"
)

type dish struct {
	name        string
	description string
	ingredients string
	price       string
	mealType    string
	cookingTime int
	special     bool
	isNew       bool
}

var seedMenu = map[string][]dish{
	"Starters": {
		{name: "Achichuk salad", description: "Thin-sliced tomatoes and onion", ingredients: "tomato, onion, basil", price: "4.50", mealType: "any", cookingTime: 10},
		{name: "Suzma", description: "Strained yogurt with herbs", ingredients: "yogurt, dill, garlic", price: "3.80", mealType: "any", cookingTime: 5},
	},
	"Mains": {
		{name: "Pilaf", description: "Rice slow-cooked with lamb and yellow carrot", ingredients: "rice, lamb, carrot, cumin", price: "12.00", mealType: "lunch", cookingTime: 35, special: true},
		{name: "Lagman", description: "Hand-pulled noodles in spiced broth", ingredients: "noodles, beef, peppers", price: "10.50", mealType: "dinner", cookingTime: 25},
		{name: "Manty", description: "Steamed dumplings with pumpkin", ingredients: "flour, pumpkin, onion", price: "9.00", mealType: "dinner", cookingTime: 30, isNew: true},
	},
	"Desserts": {
		{name: "Halva", description: "Sesame halva with pistachio", ingredients: "sesame, sugar, pistachio", price: "5.20", mealType: "any", cookingTime: 5},
	},
}

type seedCoupon struct {
	code    string
	percent int64
	amount  string
	maxUses int
	days    int
}

var seedCoupons = []seedCoupon{
	{code: "WELCOME10", percent: 10, amount: "0", maxUses: 1000, days: 365},
	{code: "FIVER", percent: 0, amount: "5.00", maxUses: 500, days: 90},
	{code: "FEAST20", percent: 20, amount: "0", maxUses: 100, days: 30},
}

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or SAFFRON_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SAFFRON_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SAFFRON_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SAFFRON_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		return errors.Wrap(err, "migrate")
	}

	if err := seedDishes(ctx, pool); err != nil {
		return errors.Wrap(err, "seed menu")
	}
	if err := seedDiscounts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if apiKey != "" {
		if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
			return errors.Wrap(err, "seed api key")
		}
	}
	return nil
}

func seedDishes(ctx context.Context, pool *pgxpool.Pool) error {
	order := 0
	for category, dishes := range seedMenu {
		order++
		var categoryID int64
		err := pool.QueryRow(ctx, `
			INSERT INTO categories (name, sort_order) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
			RETURNING id`, category, order).Scan(&categoryID)
		if err != nil {
			// Conflict returns no row; fetch the existing id.
			err = pool.QueryRow(ctx,
				`SELECT id FROM categories WHERE name = $1`, category).Scan(&categoryID)
			if err != nil {
				return errors.Wrapf(err, "category %q", category)
			}
		}

		for _, d := range dishes {
			price, err := decimal.NewFromString(d.price)
			if err != nil {
				return errors.Wrapf(err, "price for %q", d.name)
			}
			_, err = pool.Exec(ctx, `
				INSERT INTO menu_items
					(name, description, ingredients, price, category_id, meal_type,
					 cooking_time, is_special, is_new)
				SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
				WHERE NOT EXISTS (SELECT 1 FROM menu_items WHERE name = $1)`,
				d.name, d.description, d.ingredients, price, categoryID, d.mealType,
				d.cookingTime, d.special, d.isNew,
			)
			if err != nil {
				return errors.Wrapf(err, "dish %q", d.name)
			}
		}
		slog.Info("seeded category", slog.String("name", category), slog.Int("dishes", len(dishes)))
	}
	return nil
}

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool) error {
	now := time.Now()
	for _, c := range seedCoupons {
		amount, err := decimal.NewFromString(c.amount)
		if err != nil {
			return errors.Wrapf(err, "amount for %q", c.code)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO coupons
				(code, discount_percent, discount_amount, is_active,
				 valid_from, valid_until, max_uses, times_used)
			VALUES ($1, $2, $3, TRUE, $4, $5, $6, 0)
			ON CONFLICT (code) DO UPDATE
			SET discount_percent = EXCLUDED.discount_percent,
			    discount_amount  = EXCLUDED.discount_amount,
			    valid_until      = EXCLUDED.valid_until,
			    max_uses         = EXCLUDED.max_uses,
			    is_active        = TRUE`,
			c.code, decimal.NewFromInt(c.percent), amount,
			now, now.AddDate(0, 0, c.days), c.maxUses,
		)
		if err != nil {
			return errors.Wrapf(err, "coupon %q", c.code)
		}
	}
	slog.Info("seeded coupons", slog.Int("count", len(seedCoupons)))
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	hash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, `
		INSERT INTO api_keys (id, key_hash, name, scopes, active)
		VALUES ($1, $2, 'admin', '{orders:write}', TRUE)
		ON CONFLICT (key_hash) DO UPDATE SET active = TRUE`,
		uuid.New(), hash,
	)
	if err != nil {
		return errors.Wrap(err, "insert api key")
	}
	slog.Info("seeded admin api key")
	return nil
}
