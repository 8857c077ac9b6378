package postgres

// queryTables has one %s placeholder for the schema filter clause.
const queryTables = `
	SELECT n.nspname, c.relname, COALESCE(pg_catalog.obj_description(c.oid, 'pg_class'), '')
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE c.relkind IN ('r', 'p')
		AND NOT c.relispartition
		AND %s
	ORDER BY n.nspname, c.relname`

// queryColumns fetches columns in declaration order. Array columns are
// reported through typcategory 'A'.
// $1 = schema, $2 = table_name.
const queryColumns = `
	SELECT
		a.attname::text,
		pg_catalog.format_type(a.atttypid, a.atttypmod),
		NOT a.attnotnull,
		t.typcategory = 'A',
		COALESCE(pg_catalog.col_description(c.oid, a.attnum), '')
	FROM pg_attribute a
	JOIN pg_class c ON c.oid = a.attrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_type t ON t.oid = a.atttypid
	WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped
	ORDER BY a.attnum`

// queryKeys fetches PRIMARY KEY and UNIQUE constraints, primary key first,
// each with its columns in constraint order.
// $1 = schema, $2 = table_name.
const queryKeys = `
	SELECT con.contype = 'p', array_agg(a.attname::text ORDER BY k.ord)
	FROM pg_constraint con
	JOIN pg_class c ON c.oid = con.conrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
	JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
	WHERE n.nspname = $1 AND c.relname = $2 AND con.contype IN ('p', 'u')
	GROUP BY con.oid, con.contype, con.conname
	ORDER BY con.contype = 'p' DESC, con.conname`

// queryForeignKeys fetches foreign keys with local and referenced columns
// paired by position, so composite keys keep their column mapping.
// $1 = schema, $2 = table_name.
const queryForeignKeys = `
	SELECT
		rn.nspname,
		rc.relname,
		array_agg(a.attname::text ORDER BY k.ord),
		array_agg(ra.attname::text ORDER BY k.ord)
	FROM pg_constraint con
	JOIN pg_class c ON c.oid = con.conrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_class rc ON rc.oid = con.confrelid
	JOIN pg_namespace rn ON rn.oid = rc.relnamespace
	CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refnum, ord)
	JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
	JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = k.refnum
	WHERE n.nspname = $1 AND c.relname = $2 AND con.contype = 'f'
	GROUP BY con.oid, con.conname, rn.nspname, rc.relname
	ORDER BY con.conname`

// querySampleRows has two %s placeholders: the quoted table name and the row limit.
const querySampleRows = `SELECT * FROM %s LIMIT %d`
