// Command seed-db runs migrations and seeds the reference data a fresh
// deployment needs: roles, the loyalty tier table, a starter catalog, and an
// admin account.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/dungnguyen2112/FLowershop/internal/repository"
)

type productJSON struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity"`
}

type roleSeed struct {
	id          int64
	name        string
	description string
}

type tierSeed struct {
	id          int64
	status      string
	points      int64
	description string
}

var roles = []roleSeed{
	{id: 1, name: "admin", description: "Full access: catalog writes, listings, reporting"},
	{id: 2, name: "customer", description: "Regular shop customer"},
}

var tiers = []tierSeed{
	{id: 1, status: "Bronze", points: 0, description: "Entry tier"},
	{id: 2, status: "Silver", points: 100, description: "Spend 100 or more"},
	{id: 3, status: "Gold", points: 500, description: "Spend 500 or more"},
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminEmail, "admin-email", "admin@flowershop.local", "admin account email")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or FLOWER_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("FLOWER_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or FLOWER_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedRoles(ctx, pool); err != nil {
		return errors.Wrap(err, "seed roles")
	}
	if err := seedTiers(ctx, pool); err != nil {
		return errors.Wrap(err, "seed loyalty tiers")
	}
	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedAdmin(ctx, pool, adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin account")
	}

	return nil
}

func seedRoles(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding roles", slog.Int("count", len(roles)))

	for _, r := range roles {
		_, err := pool.Exec(ctx, `INSERT INTO roles (role_id, role_name, role_description)
			VALUES ($1, $2, $3)
			ON CONFLICT (role_id) DO UPDATE SET role_name = EXCLUDED.role_name, role_description = EXCLUDED.role_description`,
			r.id, r.name, r.description,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert role %s", r.name)
		}
	}

	return bumpSequence(ctx, pool, "roles", "role_id")
}

func seedTiers(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding loyalty tiers", slog.Int("count", len(tiers)))

	for _, t := range tiers {
		_, err := pool.Exec(ctx, `INSERT INTO loyalty_tiers (loyalty_id, status, loyalty_points, loyalty_description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (loyalty_id) DO UPDATE SET status = EXCLUDED.status,
				loyalty_points = EXCLUDED.loyalty_points, loyalty_description = EXCLUDED.loyalty_description`,
			t.id, t.status, t.points, t.description,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert tier %s", t.status)
		}
		slog.Info("upserted tier", slog.String("status", t.status), slog.Int64("points", t.points))
	}

	return bumpSequence(ctx, pool, "loyalty_tiers", "loyalty_id")
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("inserting products", slog.Int("count", len(products)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range products {
		g.Go(func() error {
			// Seed by name so reruns don't duplicate the catalog.
			_, err := pool.Exec(gctx, `INSERT INTO products (name, description, price, stock_quantity)
				SELECT $1, $2, $3, $4
				WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1)`,
				p.Name, p.Description, p.Price, p.StockQuantity,
			)
			if err != nil {
				return errors.Wrapf(err, "insert product %s", p.Name)
			}
			slog.Info("seeded product", slog.String("name", p.Name))
			return nil
		})
	}
	return g.Wait()
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	slog.Info("seeding admin account", slog.String("email", email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	_, err = pool.Exec(ctx, `INSERT INTO customers (name, email, hashed_password, phone_number, address, total_spent, role_id)
		SELECT 'Administrator', $1, $2, '', '', 0, 1
		WHERE NOT EXISTS (SELECT 1 FROM customers WHERE email = $1)`,
		email, string(hash),
	)
	if err != nil {
		return errors.Wrap(err, "insert admin account")
	}
	return nil
}

// bumpSequence keeps the serial sequence ahead of explicitly seeded ids.
func bumpSequence(ctx context.Context, pool *pgxpool.Pool, table, column string) error {
	_, err := pool.Exec(ctx,
		`SELECT setval(pg_get_serial_sequence($1, $2), (SELECT COALESCE(MAX(`+column+`), 1) FROM `+table+`))`,
		table, column,
	)
	if err != nil {
		return errors.Wrapf(err, "bump sequence for %s", table)
	}
	return nil
}
