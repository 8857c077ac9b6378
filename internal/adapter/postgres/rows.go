package postgres

import (
	"database/sql/driver"
	"fmt"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// rowsToSamples converts pgx.Rows into sample rows keyed by column name.
func rowsToSamples(rows pgx.Rows) ([]domain.Row, error) {
	fields := rows.FieldDescriptions()
	var result []domain.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading row values: %w", err)
		}
		row := make(domain.Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = plainValue(vals[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// plainValue turns pgtype values (numeric, uuid, ...) into strings and
// numbers so they render and compare like values decoded from YAML.
func plainValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	case driver.Valuer:
		if dv, err := x.Value(); err == nil {
			return dv
		}
	}
	return v
}
