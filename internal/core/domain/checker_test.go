package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func badOrders() TableDef {
	return TableDef{
		Name:    "bad_orders",
		Columns: cols("order_id", "product_id", "product_name", "customer_name"),
		Keys:    [][]string{{"order_id", "product_id"}},
		Dependencies: []Dependency{
			dep([]string{"product_id"}, "product_name"),
		},
	}
}

func kinds(vs []Violation) []ViolationKind {
	out := make([]ViolationKind, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Kind)
	}
	return out
}

func TestCheck_PartialDependency(t *testing.T) {
	t.Parallel()

	s := mustSchema(t, badOrders())
	rows := []Row{
		{"order_id": 1, "product_id": 10, "product_name": "Widget", "customer_name": "Ana"},
		{"order_id": 1, "product_id": 11, "product_name": "Gadget", "customer_name": "Ana"},
		{"order_id": 2, "product_id": 10, "product_name": "Widget", "customer_name": "Ben"},
	}
	r := Check(s, SampleData{"bad_orders": rows})

	require.Len(t, r.Tables, 1)
	tr := r.Tables[0]
	assert.Equal(t, FirstNF, tr.NormalForm)
	require.Len(t, tr.Violations, 1)

	v := tr.Violations[0]
	assert.Equal(t, TwoNF, v.Kind)
	assert.Equal(t, "bad_orders", v.Table)
	assert.Equal(t, []string{"product_name"}, v.Columns)
	assert.Equal(t, []string{"product_id"}, v.Determinant)
	assert.Equal(t, []string{"order_id", "product_id"}, v.Key)
	assert.False(t, v.Heuristic)
	assert.Contains(t, v.Explanation, "partial dependency")

	require.NotNil(t, v.Example)
	assert.Equal(t, []string{"product_id", "product_name"}, v.Example.Columns)
	require.Len(t, v.Example.Rows, 2)
	assert.Equal(t, 0, v.Example.Rows[0].Index)
	assert.Equal(t, 2, v.Example.Rows[1].Index)
	assert.Equal(t, "Widget", v.Example.Rows[1].Values["product_name"])

	assert.False(t, r.AllIn3NF())
}

func TestCheck_NoTransitiveDependencyAcrossAlternateKeys(t *testing.T) {
	t.Parallel()

	s := mustSchema(t,
		TableDef{
			Name:    "cities",
			Columns: cols("city_id", "city", "zipcode"),
			Keys:    [][]string{{"city_id"}},
			Dependencies: []Dependency{
				dep([]string{"city", "zipcode"}, "city_id"),
				dep([]string{"city_id"}, "city", "zipcode"),
			},
		},
		TableDef{
			Name:        "customers",
			Columns:     cols("customer_id", "name", "city_id"),
			Keys:        [][]string{{"customer_id"}},
			ForeignKeys: []ForeignKey{{Columns: []string{"city_id"}, References: "cities", ReferencedColumns: []string{"city_id"}}},
		},
	)
	r := Check(s, nil)

	assert.Empty(t, r.Violations())
	for _, tr := range r.Tables {
		assert.Equal(t, ThirdNF, tr.NormalForm, tr.Table)
	}
	assert.True(t, r.AllIn3NF())
}

func TestCheck_DeclaredMultivaluedColumn(t *testing.T) {
	t.Parallel()

	td := TableDef{
		Name: "customer_phones",
		Columns: []Column{
			{Name: "customer_id", Type: "integer"},
			{Name: "name", Type: "text"},
			{Name: "phones", Type: "text", Multivalued: true},
		},
		Keys: [][]string{{"customer_id"}},
	}
	rows := []Row{
		{"customer_id": 1, "name": "Ana", "phones": "555-1234"},
		{"customer_id": 2, "name": "Ben", "phones": "555-1234; 555-9876"},
	}
	r := Check(mustSchema(t, td), SampleData{"customer_phones": rows})

	tr := r.Tables[0]
	assert.Equal(t, NotNormalized, tr.NormalForm)
	require.Len(t, tr.Violations, 1)
	v := tr.Violations[0]
	assert.Equal(t, OneNF, v.Kind)
	assert.Equal(t, []string{"phones"}, v.Columns)
	assert.False(t, v.Heuristic)
	require.NotNil(t, v.Example)
	assert.Equal(t, 1, v.Example.Rows[0].Index)
	assert.Empty(t, tr.Warnings)
}

func TestCheck_HeuristicList(t *testing.T) {
	t.Parallel()

	td := TableDef{
		Name:    "contacts",
		Columns: cols("contact_id", "emails"),
		Keys:    [][]string{{"contact_id"}},
	}
	rows := []Row{
		{"contact_id": 1, "emails": "a@x.com, b@y.com"},
		{"contact_id": 2, "emails": "c@z.com"},
		{"contact_id": 3, "emails": "d@x.com;e@x.com"},
	}
	r := Check(mustSchema(t, td), SampleData{"contacts": rows})

	tr := r.Tables[0]
	assert.Equal(t, NotNormalized, tr.NormalForm)
	require.Len(t, tr.Violations, 1)
	v := tr.Violations[0]
	assert.True(t, v.Heuristic)
	assert.Equal(t, []string{"emails"}, v.Columns)
	assert.Contains(t, v.Explanation, "2 of 3 sample rows")
	require.NotNil(t, v.Example)
	assert.Equal(t, 0, v.Example.Rows[0].Index)
	assert.Contains(t, v.String(), "(heuristic)")

	require.Len(t, tr.Warnings, 1)
	assert.Equal(t, "emails", tr.Warnings[0].Column)
}

func TestCheck_TransitiveDependency(t *testing.T) {
	t.Parallel()

	td := TableDef{
		Name:    "customers",
		Columns: cols("customer_id", "name", "zipcode", "city"),
		Keys:    [][]string{{"customer_id"}},
		Dependencies: []Dependency{
			dep([]string{"zipcode"}, "city"),
		},
	}
	rows := []Row{
		{"customer_id": 1, "name": "Ana", "zipcode": nil, "city": "Lyon"},
		{"customer_id": 2, "name": "Ben", "zipcode": "69001", "city": "Lyon"},
		{"customer_id": 3, "name": "Cid", "zipcode": nil, "city": "Paris"},
		{"customer_id": 4, "name": "Dee", "zipcode": "69001", "city": "Lyon"},
	}
	r := Check(mustSchema(t, td), SampleData{"customers": rows})

	tr := r.Tables[0]
	assert.Equal(t, SecondNF, tr.NormalForm)
	require.Len(t, tr.Violations, 1)
	v := tr.Violations[0]
	assert.Equal(t, ThreeNF, v.Kind)
	assert.Equal(t, []string{"city"}, v.Columns)
	assert.Equal(t, []string{"zipcode"}, v.Determinant)
	assert.Equal(t, []string{"customer_id"}, v.Key)

	require.NotNil(t, v.Example)
	assert.Equal(t, 1, v.Example.Rows[0].Index)
	assert.Equal(t, 3, v.Example.Rows[1].Index)
}

func TestCheck_PrefersDirectDeterminant(t *testing.T) {
	t.Parallel()

	td := TableDef{
		Name:    "chain",
		Columns: cols("id", "a", "b", "c"),
		Keys:    [][]string{{"id"}},
		Dependencies: []Dependency{
			dep([]string{"a"}, "b"),
			dep([]string{"b"}, "c"),
		},
	}
	r := Check(mustSchema(t, td), nil)

	vs := r.Tables[0].Violations
	require.Len(t, vs, 2)
	assert.Equal(t, []string{"b"}, vs[0].Columns)
	assert.Equal(t, []string{"a"}, vs[0].Determinant)
	assert.Equal(t, []string{"c"}, vs[1].Columns)
	assert.Equal(t, []string{"b"}, vs[1].Determinant)
}

func TestCheck_ThirdNormalFormPerKey(t *testing.T) {
	t.Parallel()

	td := TableDef{
		Name:         "stores",
		Columns:      cols("id", "code", "zip", "city"),
		Keys:         [][]string{{"id"}, {"code"}},
		Dependencies: []Dependency{dep([]string{"zip"}, "city")},
	}
	vs := Check(mustSchema(t, td), nil).Tables[0].Violations

	require.Len(t, vs, 2)
	assert.Equal(t, []string{"id"}, vs[0].Key)
	assert.Equal(t, []string{"code"}, vs[1].Key)
}

func TestCheck_ViolationsAccumulate(t *testing.T) {
	t.Parallel()

	td := TableDef{
		Name:    "lines",
		Columns: cols("a", "b", "c", "d"),
		Keys:    [][]string{{"a", "b"}},
		Dependencies: []Dependency{
			dep([]string{"a"}, "c"),
			dep([]string{"c"}, "d"),
		},
	}
	r := Check(mustSchema(t, td), nil)

	vs := r.Tables[0].Violations
	assert.Equal(t, []ViolationKind{TwoNF, TwoNF, ThreeNF}, kinds(vs))
	assert.Equal(t, []string{"a"}, vs[1].Determinant)
	assert.Equal(t, []string{"c"}, vs[2].Determinant)
	assert.Equal(t, FirstNF, r.Tables[0].NormalForm)
	assert.Equal(t, map[ViolationKind]int{OneNF: 0, TwoNF: 2, ThreeNF: 1}, r.Counts())
}

func TestCheck_PartialDeterminantIsMinimal(t *testing.T) {
	t.Parallel()

	td := TableDef{
		Name:         "wide_key",
		Columns:      cols("a", "b", "c", "x"),
		Keys:         [][]string{{"a", "b", "c"}},
		Dependencies: []Dependency{dep([]string{"b"}, "x")},
	}
	vs := Check(mustSchema(t, td), nil).Tables[0].Violations

	require.Len(t, vs, 1)
	assert.Equal(t, TwoNF, vs[0].Kind)
	assert.Equal(t, []string{"b"}, vs[0].Determinant)
}

func TestCheck_PrimeColumnsAreExempt(t *testing.T) {
	t.Parallel()

	td := TableDef{
		Name:    "bookings",
		Columns: cols("a", "b", "c"),
		Dependencies: []Dependency{
			dep([]string{"a", "b"}, "c"),
			dep([]string{"c"}, "a"),
		},
	}
	r := Check(mustSchema(t, td), nil)

	assert.Empty(t, r.Violations())
	assert.Equal(t, ThirdNF, r.Tables[0].NormalForm)
}

func TestCheck_SingleColumnKeysHaveNoPartialDependencies(t *testing.T) {
	t.Parallel()

	td := TableDef{
		Name:    "products",
		Columns: cols("product_id", "sku", "name", "category", "category_name"),
		Keys:    [][]string{{"product_id"}, {"sku"}},
		Dependencies: []Dependency{
			dep([]string{"category"}, "category_name"),
		},
	}
	r := Check(mustSchema(t, td), nil)

	for _, v := range r.Violations() {
		assert.NotEqual(t, TwoNF, v.Kind)
	}
}

func TestCheck_TableWithoutKey(t *testing.T) {
	t.Parallel()

	s := mustSchema(t, TableDef{Name: "log", Columns: cols("at", "message")})
	r := Check(s, nil)

	tr := r.Tables[0]
	assert.Equal(t, FirstNF, tr.NormalForm)
	assert.Empty(t, tr.Violations)
	assert.Empty(t, tr.CandidateKeys)
	require.Len(t, tr.Warnings, 1)
	assert.Contains(t, tr.Warnings[0].Message, "no candidate key")
	assert.False(t, r.AllIn3NF())
}

func TestCheck_SampleWarnings(t *testing.T) {
	t.Parallel()

	s := mustSchema(t, TableDef{Name: "t", Columns: cols("id", "x"), Keys: [][]string{{"id"}}})
	r := Check(s, SampleData{
		"t":     {{"id": 1, "x": "a", "y": 2, "z": 3}},
		"ghost": {{"id": 1}},
	})

	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "ghost", r.Warnings[0].Table)

	tw := r.Tables[0].Warnings
	require.Len(t, tw, 2)
	assert.Equal(t, "y", tw[0].Column)
	assert.Equal(t, "z", tw[1].Column)

	assert.Len(t, r.AllWarnings(), 3)
	assert.Equal(t, ThirdNF, r.Tables[0].NormalForm)
}

func TestCheck_NoMultivaluedNoListsMeansNoFirstNormalFormViolations(t *testing.T) {
	t.Parallel()

	s := mustSchema(t, badOrders())
	r := Check(s, SampleData{"bad_orders": {
		{"order_id": 1, "product_id": 10, "product_name": "Widget XL, blue", "customer_name": "Ana"},
		{"order_id": 2, "product_id": 12, "product_name": "1,250,000", "customer_name": "Ben"},
	}})

	assert.Zero(t, r.Counts()[OneNF])
}
