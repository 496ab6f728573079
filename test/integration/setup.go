package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	// Register the decimal codec exactly as the production pool does.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing. Kept in lockstep with
// migrations/001_init.sql.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			sku VARCHAR(50) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			name_ar VARCHAR(255) NOT NULL DEFAULT '',
			image_url VARCHAR(512) NOT NULL DEFAULT '',
			price NUMERIC(12, 2) NOT NULL,
			inventory INTEGER NOT NULL DEFAULT 0 CHECK (inventory >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS configurations (
			id UUID PRIMARY KEY,
			product_sku VARCHAR(50) NOT NULL REFERENCES products (sku),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			color_temperature VARCHAR(50),
			surface_color VARCHAR(50),
			total_price NUMERIC(12, 2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			order_number VARCHAR(50) NOT NULL,
			user_id VARCHAR(100) NOT NULL,
			idempotency_key CHAR(64) NOT NULL,
			subtotal NUMERIC(12, 2) NOT NULL,
			shipping_cost NUMERIC(12, 2) NOT NULL,
			total NUMERIC(12, 2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'processing',
			shipping_option VARCHAR(50) NOT NULL,
			shipping_address_id VARCHAR(100) NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT orders_order_number_key UNIQUE (order_number),
			CONSTRAINT orders_idempotency_key_key UNIQUE (idempotency_key)
		);

		CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders (id),
			product_sku VARCHAR(50) NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			product_image VARCHAR(512) NOT NULL DEFAULT '',
			unit_price NUMERIC(12, 2) NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			color_temperature VARCHAR(50),
			surface_color VARCHAR(50)
		);

		CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedProduct inserts one product and returns its SKU.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, sku string, price string, inventory int) {
	t.Helper()

	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		INSERT INTO products (id, sku, name, name_ar, image_url, price, inventory)
		VALUES (gen_random_uuid(), $1, $2, '', '/images/test.jpg', $3, $4)
	`, sku, "Test Lamp "+sku, price, inventory)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", sku, err)
	}
}

// ProductInventory reads the current inventory for a SKU.
func ProductInventory(t *testing.T, pool *pgxpool.Pool, sku string) int {
	t.Helper()

	var inventory int
	err := pool.QueryRow(context.Background(),
		"SELECT inventory FROM products WHERE sku = $1", sku).Scan(&inventory)
	if err != nil {
		t.Fatalf("failed to read inventory for %s: %v", sku, err)
	}
	return inventory
}

// CountOrders returns the number of order rows.
func CountOrders(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()

	var count int
	err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM orders").Scan(&count)
	if err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	return count
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "configurations", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
