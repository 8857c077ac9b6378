package ddl

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// typeNames maps Postgres internal type names to their SQL spelling.
var typeNames = map[string]string{
	"int2":        "smallint",
	"int4":        "integer",
	"int8":        "bigint",
	"float4":      "real",
	"float8":      "double precision",
	"bool":        "boolean",
	"bpchar":      "char",
	"timestamptz": "timestamp with time zone",
	"timestamp":   "timestamp",
}

// tableBuilder accumulates a CREATE TABLE and what later statements add to it.
type tableBuilder struct {
	def     domain.TableDef
	primary []string
	uniques [][]string
}

// script is the schema state after replaying a sequence of statements.
type script struct {
	order   []string
	tables  map[string]*tableBuilder
	samples domain.SampleData
}

// Parse replays a Postgres DDL script and returns the schema it leaves
// behind. CREATE TABLE, ALTER TABLE ... ADD, COMMENT ON and DROP TABLE shape
// the schema; INSERT ... VALUES rows become sample data. Other statements
// are ignored.
func Parse(sql string) (domain.Definition, domain.SampleData, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return domain.Definition{}, nil, fmt.Errorf("parsing SQL script: %w", err)
	}

	s := &script{tables: make(map[string]*tableBuilder)}
	for i, raw := range tree.GetStmts() {
		if err := s.apply(raw.GetStmt()); err != nil {
			return domain.Definition{}, nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	if len(s.order) == 0 {
		return domain.Definition{}, nil, fmt.Errorf("parsing SQL script: no CREATE TABLE statements")
	}
	return s.definition(), s.samples, nil
}

func (s *script) apply(stmt *pg_query.Node) error {
	if stmt == nil {
		return nil
	}
	switch n := stmt.Node.(type) {
	case *pg_query.Node_CreateStmt:
		return s.create(n.CreateStmt)
	case *pg_query.Node_AlterTableStmt:
		return s.alter(n.AlterTableStmt)
	case *pg_query.Node_CommentStmt:
		return s.comment(n.CommentStmt)
	case *pg_query.Node_DropStmt:
		s.drop(n.DropStmt)
	case *pg_query.Node_InsertStmt:
		s.insert(n.InsertStmt)
	}
	return nil
}

func (s *script) create(cs *pg_query.CreateStmt) error {
	name := cs.GetRelation().GetRelname()
	if _, exists := s.tables[name]; exists {
		if cs.GetIfNotExists() {
			return nil
		}
		return fmt.Errorf("CREATE TABLE %s: table already exists", name)
	}

	tb := &tableBuilder{def: domain.TableDef{Name: name}}
	for _, elt := range cs.GetTableElts() {
		switch e := elt.Node.(type) {
		case *pg_query.Node_ColumnDef:
			tb.addColumn(e.ColumnDef)
		case *pg_query.Node_Constraint:
			tb.addConstraint(e.Constraint, nil)
		}
	}
	s.tables[name] = tb
	s.order = append(s.order, name)
	return nil
}

func (s *script) alter(as *pg_query.AlterTableStmt) error {
	tb, err := s.table(as.GetRelation().GetRelname())
	if err != nil {
		return fmt.Errorf("ALTER TABLE: %w", err)
	}
	for _, cmd := range as.GetCmds() {
		c := cmd.GetAlterTableCmd()
		switch c.GetSubtype() {
		case pg_query.AlterTableType_AT_AddColumn:
			if cd := c.GetDef().GetColumnDef(); cd != nil {
				tb.addColumn(cd)
			}
		case pg_query.AlterTableType_AT_AddConstraint:
			if con := c.GetDef().GetConstraint(); con != nil {
				tb.addConstraint(con, nil)
			}
		}
	}
	return nil
}

func (s *script) comment(cs *pg_query.CommentStmt) error {
	path := stringList(cs.GetObject().GetList().GetItems())
	switch cs.GetObjtype() {
	case pg_query.ObjectType_OBJECT_TABLE:
		if len(path) == 0 {
			return nil
		}
		tb, err := s.table(path[len(path)-1])
		if err != nil {
			return fmt.Errorf("COMMENT ON TABLE: %w", err)
		}
		deps, err := TableDirectives(cs.GetComment())
		if err != nil {
			return fmt.Errorf("COMMENT ON TABLE %s: %w", tb.def.Name, err)
		}
		tb.def.Dependencies = deps
	case pg_query.ObjectType_OBJECT_COLUMN:
		if len(path) < 2 {
			return nil
		}
		tb, err := s.table(path[len(path)-2])
		if err != nil {
			return fmt.Errorf("COMMENT ON COLUMN: %w", err)
		}
		col := path[len(path)-1]
		i := slices.IndexFunc(tb.def.Columns, func(c domain.Column) bool { return c.Name == col })
		if i < 0 {
			return fmt.Errorf("COMMENT ON COLUMN %s.%s: %w", tb.def.Name, col, domain.ErrUnknownColumn)
		}
		if MultivaluedDirective(cs.GetComment()) {
			tb.def.Columns[i].Multivalued = true
		}
	}
	return nil
}

func (s *script) drop(ds *pg_query.DropStmt) {
	if ds.GetRemoveType() != pg_query.ObjectType_OBJECT_TABLE {
		return
	}
	for _, obj := range ds.GetObjects() {
		path := stringList(obj.GetList().GetItems())
		if len(path) == 0 {
			continue
		}
		name := path[len(path)-1]
		delete(s.tables, name)
		delete(s.samples, name)
		s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })

		// Postgres drops the referencing constraints with the table (CASCADE).
		for _, tb := range s.tables {
			tb.def.ForeignKeys = slices.DeleteFunc(tb.def.ForeignKeys, func(fk domain.ForeignKey) bool {
				return fk.References == name
			})
		}
	}
}

func (s *script) insert(is *pg_query.InsertStmt) {
	name := is.GetRelation().GetRelname()
	var cols []string
	for _, c := range is.GetCols() {
		cols = append(cols, c.GetResTarget().GetName())
	}
	if len(cols) == 0 {
		tb, ok := s.tables[name]
		if !ok {
			return
		}
		for _, c := range tb.def.Columns {
			cols = append(cols, c.Name)
		}
	}

	sel := is.GetSelectStmt().GetSelectStmt()
	for _, values := range sel.GetValuesLists() {
		row := make(domain.Row, len(cols))
		for i, item := range values.GetList().GetItems() {
			if i >= len(cols) {
				break
			}
			if v, ok := constValue(item); ok {
				row[cols[i]] = v
			}
		}
		if s.samples == nil {
			s.samples = make(domain.SampleData)
		}
		s.samples[name] = append(s.samples[name], row)
	}
}

func (s *script) table(name string) (*tableBuilder, error) {
	tb, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, domain.ErrUnknownTable)
	}
	return tb, nil
}

func (s *script) definition() domain.Definition {
	var def domain.Definition
	for _, name := range s.order {
		tb := s.tables[name]
		td := tb.def

		var keys [][]string
		if tb.primary != nil {
			keys = append(keys, tb.primary)
		}
		td.Keys = domain.PruneSuperkeys(append(keys, tb.uniques...))

		// REFERENCES without a column list points at the primary key.
		for i, fk := range td.ForeignKeys {
			if len(fk.ReferencedColumns) > 0 {
				continue
			}
			if ref, ok := s.tables[fk.References]; ok && ref.primary != nil {
				td.ForeignKeys[i].ReferencedColumns = slices.Clone(ref.primary)
			}
		}
		def.Tables = append(def.Tables, td)
	}
	return def
}

func (tb *tableBuilder) addColumn(cd *pg_query.ColumnDef) {
	tn := cd.GetTypeName()
	col := domain.Column{
		Name:        cd.GetColname(),
		Type:        typeName(tn),
		Nullable:    !cd.GetIsNotNull(),
		Multivalued: len(tn.GetArrayBounds()) > 0,
	}
	tb.def.Columns = append(tb.def.Columns, col)

	for _, n := range cd.GetConstraints() {
		if c := n.GetConstraint(); c != nil {
			tb.addConstraint(c, []string{col.Name})
		}
	}
}

// addConstraint records a table constraint, or a column constraint when
// column is set.
func (tb *tableBuilder) addConstraint(c *pg_query.Constraint, column []string) {
	cols := column
	if keys := stringList(c.GetKeys()); len(keys) > 0 {
		cols = keys
	}

	switch c.GetContype() {
	case pg_query.ConstrType_CONSTR_NOTNULL:
		tb.markNotNull(cols)
	case pg_query.ConstrType_CONSTR_PRIMARY:
		tb.primary = cols
		tb.markNotNull(cols)
	case pg_query.ConstrType_CONSTR_UNIQUE:
		tb.uniques = append(tb.uniques, cols)
	case pg_query.ConstrType_CONSTR_FOREIGN:
		local := stringList(c.GetFkAttrs())
		if len(local) == 0 {
			local = column
		}
		tb.def.ForeignKeys = append(tb.def.ForeignKeys, domain.ForeignKey{
			Columns:           local,
			References:        c.GetPktable().GetRelname(),
			ReferencedColumns: stringList(c.GetPkAttrs()),
		})
	}
}

func (tb *tableBuilder) markNotNull(cols []string) {
	for i := range tb.def.Columns {
		if slices.Contains(cols, tb.def.Columns[i].Name) {
			tb.def.Columns[i].Nullable = false
		}
	}
}

func typeName(tn *pg_query.TypeName) string {
	names := stringList(tn.GetNames())
	if len(names) == 0 {
		return ""
	}
	name := names[len(names)-1]
	if sql, ok := typeNames[name]; ok {
		name = sql
	}
	for range tn.GetArrayBounds() {
		name += "[]"
	}
	return name
}

// constValue converts a literal from a VALUES list. Expressions that are
// not literals are skipped.
func constValue(n *pg_query.Node) (any, bool) {
	switch x := n.GetNode().(type) {
	case *pg_query.Node_AConst:
		c := x.AConst
		if c.GetIsnull() {
			return nil, true
		}
		switch v := c.GetVal().(type) {
		case *pg_query.A_Const_Ival:
			return int(v.Ival.GetIval()), true
		case *pg_query.A_Const_Fval:
			if f, err := strconv.ParseFloat(v.Fval.GetFval(), 64); err == nil {
				return f, true
			}
			return v.Fval.GetFval(), true
		case *pg_query.A_Const_Sval:
			return v.Sval.GetSval(), true
		case *pg_query.A_Const_Boolval:
			return v.Boolval.GetBoolval(), true
		case *pg_query.A_Const_Bsval:
			return v.Bsval.GetBsval(), true
		}
	case *pg_query.Node_TypeCast:
		return constValue(x.TypeCast.GetArg())
	case *pg_query.Node_AArrayExpr:
		elems := make([]any, 0, len(x.AArrayExpr.GetElements()))
		for _, e := range x.AArrayExpr.GetElements() {
			v, ok := constValue(e)
			if !ok {
				return nil, false
			}
			elems = append(elems, v)
		}
		return elems, true
	}
	return nil, false
}

func stringList(nodes []*pg_query.Node) []string {
	var out []string
	for _, n := range nodes {
		if s := n.GetString_(); s != nil {
			out = append(out, s.GetSval())
		}
	}
	return out
}
