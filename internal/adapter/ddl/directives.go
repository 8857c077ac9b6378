package ddl

import (
	"fmt"
	"strings"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
)

// TableDirectives extracts the functional dependencies declared in a table
// comment. Each line starting with "fd:" holds one or more dependencies
// separated by ';'. Other lines are free text.
//
//	COMMENT ON TABLE bad_orders IS 'Order lines
//	fd: product_id -> product_name';
func TableDirectives(comment string) ([]domain.Dependency, error) {
	var deps []domain.Dependency
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 3 || !strings.EqualFold(line[:3], "fd:") {
			continue
		}
		for _, part := range strings.Split(line[3:], ";") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			d, err := domain.ParseDependency(part)
			if err != nil {
				return nil, fmt.Errorf("table comment: %w", err)
			}
			deps = append(deps, d)
		}
	}
	return deps, nil
}

// MultivaluedDirective reports whether a column comment marks the column as
// holding several values per cell.
func MultivaluedDirective(comment string) bool {
	for _, line := range strings.Split(comment, "\n") {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "multivalued") {
			return true
		}
	}
	return false
}
