package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/guillermoBallester/nfaudit/internal/adapter/postgres"
	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testSchemaOrders = `
	CREATE TABLE bad_orders (
		order_id     INTEGER NOT NULL,
		product_id   INTEGER NOT NULL,
		product_name TEXT NOT NULL,
		quantity     INTEGER NOT NULL,
		PRIMARY KEY (order_id, product_id)
	);
	COMMENT ON TABLE bad_orders IS 'Order lines
fd: product_id -> product_name';

	CREATE TABLE customers (
		customer_id SERIAL PRIMARY KEY,
		email       TEXT NOT NULL UNIQUE,
		contacts    TEXT[],
		notes       TEXT
	);
	COMMENT ON COLUMN customers.notes IS 'multivalued: free-form notes list';

	CREATE TABLE cities (
		city_id INTEGER PRIMARY KEY,
		city    TEXT NOT NULL,
		zipcode TEXT NOT NULL,
		UNIQUE (city, zipcode),
		UNIQUE (city_id, city)
	);

	CREATE TABLE orders (
		order_id    INTEGER PRIMARY KEY,
		customer_id INTEGER NOT NULL REFERENCES customers(customer_id)
	);

	CREATE SCHEMA archive;
	CREATE TABLE archive.orders (
		order_id INTEGER PRIMARY KEY,
		city_id  INTEGER REFERENCES public.cities(city_id)
	);

	INSERT INTO bad_orders VALUES
		(1, 10, 'Widget', 2),
		(1, 11, 'Gadget', 1),
		(2, 10, 'Widget', 5);
	INSERT INTO customers (email, contacts) VALUES ('a@x.com', ARRAY['555-1234', '555-9876']);
`

func setupCatalogDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, connStr, postgres.PoolOptions{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	_, err = pool.Exec(ctx, testSchemaOrders)
	require.NoError(t, err)

	return pool
}

func TestCatalog_Load(t *testing.T) {
	pool := setupCatalogDB(t)
	ctx := context.Background()

	cat := postgres.NewCatalog(pool, postgres.CatalogOptions{SampleRows: 50, QueryTimeout: 5 * time.Second})
	in, err := cat.Load(ctx)
	require.NoError(t, err)

	assert.Contains(t, in.Source, "postgres://")
	assert.Contains(t, in.Source, "/testdb")

	tables := make(map[string]domain.TableDef)
	for _, td := range in.Definition.Tables {
		tables[td.Name] = td
	}
	require.Len(t, tables, 5)

	t.Run("keys and comment dependencies", func(t *testing.T) {
		bo := tables["bad_orders"]
		assert.Equal(t, [][]string{{"order_id", "product_id"}}, bo.Keys)
		require.Len(t, bo.Dependencies, 1)
		assert.Equal(t, "product_id -> product_name", bo.Dependencies[0].String())
		require.Len(t, bo.Columns, 4)
		assert.Equal(t, "integer", bo.Columns[0].Type)
		assert.False(t, bo.Columns[0].Nullable)
	})

	t.Run("multivalued columns", func(t *testing.T) {
		c := tables["customers"]
		require.Len(t, c.Columns, 4)
		assert.Equal(t, "text[]", c.Columns[2].Type)
		assert.True(t, c.Columns[2].Multivalued)
		assert.True(t, c.Columns[3].Multivalued)
		assert.False(t, c.Columns[1].Multivalued)
		assert.Equal(t, [][]string{{"customer_id"}, {"email"}}, c.Keys)
	})

	t.Run("unique superkeys pruned", func(t *testing.T) {
		assert.Equal(t, [][]string{{"city_id"}, {"city", "zipcode"}}, tables["cities"].Keys)
	})

	t.Run("foreign keys", func(t *testing.T) {
		assert.Equal(t, []domain.ForeignKey{{
			Columns:           []string{"customer_id"},
			References:        "customers",
			ReferencedColumns: []string{"customer_id"},
		}}, tables["orders"].ForeignKeys)

		archived, ok := tables["archive.orders"]
		require.True(t, ok)
		require.Len(t, archived.ForeignKeys, 1)
		assert.Equal(t, "cities", archived.ForeignKeys[0].References)
	})

	t.Run("samples", func(t *testing.T) {
		require.Len(t, in.Samples["bad_orders"], 3)
		assert.Equal(t, "Widget", in.Samples["bad_orders"][0]["product_name"])
		require.Len(t, in.Samples["customers"], 1)
		assert.Equal(t, []any{"555-1234", "555-9876"}, in.Samples["customers"][0]["contacts"])
		assert.NotContains(t, in.Samples, "cities")
	})

	t.Run("audit", func(t *testing.T) {
		schema, err := domain.NewSchema(in.Definition)
		require.NoError(t, err)
		report := domain.Check(schema, in.Samples)

		for _, tr := range report.Tables {
			switch tr.Table {
			case "bad_orders":
				assert.Equal(t, domain.FirstNF, tr.NormalForm)
				require.Len(t, tr.Violations, 1)
				assert.Equal(t, domain.TwoNF, tr.Violations[0].Kind)
				assert.NotNil(t, tr.Violations[0].Example)
			case "customers":
				assert.Equal(t, domain.NotNormalized, tr.NormalForm)
			default:
				assert.Equal(t, domain.ThirdNF, tr.NormalForm, tr.Table)
			}
		}
	})
}

func TestCatalog_SchemaFilter(t *testing.T) {
	pool := setupCatalogDB(t)
	ctx := context.Background()

	cat := postgres.NewCatalog(pool, postgres.CatalogOptions{Schemas: []string{"archive"}})
	in, err := cat.Load(ctx)
	require.NoError(t, err)

	require.Len(t, in.Definition.Tables, 1)
	td := in.Definition.Tables[0]
	assert.Equal(t, "archive.orders", td.Name)
	assert.Empty(t, td.ForeignKeys, "references outside the filter are dropped")
	assert.Nil(t, in.Samples)

	cat = postgres.NewCatalog(pool, postgres.CatalogOptions{Schemas: []string{"missing"}})
	_, err = cat.Load(ctx)
	assert.ErrorContains(t, err, "no tables found")
}
