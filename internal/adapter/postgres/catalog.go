package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/guillermoBallester/nfaudit/internal/adapter/ddl"
	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"github.com/guillermoBallester/nfaudit/internal/core/port"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogOptions controls what Catalog reads from the database.
type CatalogOptions struct {
	Schemas      []string      // empty means every non-system schema
	SampleRows   int           // rows fetched per table as evidence; 0 disables sampling
	QueryTimeout time.Duration // statement_timeout for each catalog query
}

// Catalog reads a schema declaration from a live PostgreSQL database.
// Keys and foreign keys come from constraints, dependencies from "fd:" lines
// in table comments, and sample rows from the first rows of each table.
type Catalog struct {
	pool *pgxpool.Pool
	opts CatalogOptions
}

var _ port.SchemaSource = (*Catalog)(nil)

func NewCatalog(pool *pgxpool.Pool, opts CatalogOptions) *Catalog {
	return &Catalog{pool: pool, opts: opts}
}

type tableRef struct {
	schema, name, comment string
}

// Load reads every table in one read-only transaction.
func (c *Catalog) Load(ctx context.Context) (*port.Input, error) {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.opts.QueryTimeout > 0 {
		ms := c.opts.QueryTimeout.Milliseconds()
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", ms)); err != nil {
			return nil, fmt.Errorf("setting statement timeout: %w", err)
		}
	}

	refs, err := c.listTables(ctx, tx)
	if err != nil {
		return nil, err
	}

	loaded := make(map[string]bool, len(refs))
	for _, r := range refs {
		loaded[tableName(r.schema, r.name)] = true
	}

	in := &port.Input{Source: c.source()}
	for _, r := range refs {
		td, err := c.readTable(ctx, tx, r, loaded)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tableName(r.schema, r.name), err)
		}
		in.Definition.Tables = append(in.Definition.Tables, td)

		if c.opts.SampleRows <= 0 {
			continue
		}
		rows, err := c.sampleRows(ctx, tx, r)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", td.Name, err)
		}
		if len(rows) > 0 {
			if in.Samples == nil {
				in.Samples = make(domain.SampleData)
			}
			in.Samples[td.Name] = rows
		}
	}

	if len(in.Definition.Tables) == 0 {
		return nil, fmt.Errorf("no tables found in %s", in.Source)
	}
	return in, tx.Commit(ctx)
}

func (c *Catalog) source() string {
	cfg := c.pool.Config().ConnConfig
	return fmt.Sprintf("postgres://%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}

func (c *Catalog) listTables(ctx context.Context, tx pgx.Tx) ([]tableRef, error) {
	clause, args := schemaFilter(c.opts.Schemas, "n.nspname", 1)
	rows, err := tx.Query(ctx, fmt.Sprintf(queryTables, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var refs []tableRef
	for rows.Next() {
		var r tableRef
		if err := rows.Scan(&r.schema, &r.name, &r.comment); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return refs, nil
}

func (c *Catalog) readTable(ctx context.Context, tx pgx.Tx, r tableRef, loaded map[string]bool) (domain.TableDef, error) {
	td := domain.TableDef{Name: tableName(r.schema, r.name)}

	deps, err := ddl.TableDirectives(r.comment)
	if err != nil {
		return td, err
	}
	td.Dependencies = deps

	if td.Columns, err = fetchColumns(ctx, tx, r); err != nil {
		return td, err
	}
	if td.Keys, err = fetchKeys(ctx, tx, r); err != nil {
		return td, err
	}
	fks, err := fetchForeignKeys(ctx, tx, r)
	if err != nil {
		return td, err
	}
	// References into schemas outside the filter cannot be validated.
	for _, fk := range fks {
		if loaded[fk.References] {
			td.ForeignKeys = append(td.ForeignKeys, fk)
		}
	}
	return td, nil
}

func fetchColumns(ctx context.Context, tx pgx.Tx, r tableRef) ([]domain.Column, error) {
	rows, err := tx.Query(ctx, queryColumns, r.schema, r.name)
	if err != nil {
		return nil, fmt.Errorf("fetching columns: %w", err)
	}
	defer rows.Close()

	var cols []domain.Column
	for rows.Next() {
		var (
			col     domain.Column
			isArray bool
			comment string
		)
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &isArray, &comment); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		col.Multivalued = isArray || ddl.MultivaluedDirective(comment)
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	return cols, nil
}

// fetchKeys returns the primary key followed by UNIQUE constraints, with
// constraints that contain another one dropped.
func fetchKeys(ctx context.Context, tx pgx.Tx, r tableRef) ([][]string, error) {
	rows, err := tx.Query(ctx, queryKeys, r.schema, r.name)
	if err != nil {
		return nil, fmt.Errorf("fetching keys: %w", err)
	}
	defer rows.Close()

	var keys [][]string
	for rows.Next() {
		var (
			primary bool
			columns []string
		)
		if err := rows.Scan(&primary, &columns); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, columns)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return domain.PruneSuperkeys(keys), nil
}

func fetchForeignKeys(ctx context.Context, tx pgx.Tx, r tableRef) ([]domain.ForeignKey, error) {
	rows, err := tx.Query(ctx, queryForeignKeys, r.schema, r.name)
	if err != nil {
		return nil, fmt.Errorf("fetching foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []domain.ForeignKey
	for rows.Next() {
		var (
			refSchema, refTable string
			fk                  domain.ForeignKey
		)
		if err := rows.Scan(&refSchema, &refTable, &fk.Columns, &fk.ReferencedColumns); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %w", err)
		}
		fk.References = tableName(refSchema, refTable)
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating foreign keys: %w", err)
	}
	return fks, nil
}

func (c *Catalog) sampleRows(ctx context.Context, tx pgx.Tx, r tableRef) ([]domain.Row, error) {
	fqn := quoteIdent(r.schema) + "." + quoteIdent(r.name)
	rows, err := tx.Query(ctx, fmt.Sprintf(querySampleRows, fqn, c.opts.SampleRows))
	if err != nil {
		return nil, fmt.Errorf("sampling rows: %w", err)
	}
	defer rows.Close()
	return rowsToSamples(rows)
}
