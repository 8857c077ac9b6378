package yamlschema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tutorialYAML = `
tables:
  - name: bad_orders
    columns:
      - {name: order_id, type: integer}
      - {name: product_id, type: integer}
      - {name: product_name, type: text}
      - {name: customer_name, type: text}
    keys: [[order_id, product_id]]
    dependencies:
      - product_id -> product_name
  - name: customers
    columns:
      - customer_id
      - {name: name, type: text}
      - {name: phones, type: text, nullable: true, multivalued: true}
      - {name: city_id, type: integer}
    keys: [[customer_id]]
    foreign_keys:
      - {columns: [city_id], references: cities, referenced_columns: [city_id]}
  - name: cities
    columns: [city_id, city, zipcode]
    keys: [[city_id]]
    dependencies:
      - {determinant: [city, zipcode], dependent: [city_id]}
samples:
  bad_orders:
    - {order_id: 1, product_id: 10, product_name: Widget, customer_name: Ana}
    - {order_id: 2, product_id: 10, product_name: Widget, customer_name: Ben}
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDecode(t *testing.T) {
	t.Parallel()

	def, samples, err := Decode([]byte(tutorialYAML))
	require.NoError(t, err)
	require.Len(t, def.Tables, 3)

	orders := def.Tables[0]
	assert.Equal(t, "bad_orders", orders.Name)
	assert.Equal(t, [][]string{{"order_id", "product_id"}}, orders.Keys)
	assert.Equal(t, []domain.Dependency{{Determinant: []string{"product_id"}, Dependent: []string{"product_name"}}}, orders.Dependencies)

	customers := def.Tables[1]
	assert.Equal(t, domain.Column{Name: "customer_id"}, customers.Columns[0])
	assert.Equal(t, domain.Column{Name: "phones", Type: "text", Nullable: true, Multivalued: true}, customers.Columns[2])
	assert.Equal(t, []domain.ForeignKey{{Columns: []string{"city_id"}, References: "cities", ReferencedColumns: []string{"city_id"}}}, customers.ForeignKeys)

	assert.Len(t, def.Tables[2].Columns, 3)

	require.Len(t, samples["bad_orders"], 2)
	assert.Equal(t, 10, samples["bad_orders"][1]["product_id"])

	_, err = domain.NewSchema(def)
	require.NoError(t, err)
}

func TestDecode_JSON(t *testing.T) {
	t.Parallel()

	def, samples, err := Decode([]byte(`{"tables": [{"name": "t", "columns": [{"name": "id"}], "keys": [["id"]]}]}`))
	require.NoError(t, err)
	assert.Nil(t, samples)
	require.Len(t, def.Tables, 1)
	assert.Equal(t, [][]string{{"id"}}, def.Tables[0].Keys)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "not yaml", input: "tables: [unclosed", want: "parsing schema YAML"},
		{name: "no tables", input: "samples: {}", want: "no tables"},
		{name: "bad arrow", input: "tables:\n  - name: t\n    columns: [a]\n    dependencies: [a b]\n", want: "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	def, _, err := Decode([]byte(tutorialYAML))
	require.NoError(t, err)
	s, err := domain.NewSchema(def)
	require.NoError(t, err)

	out, err := Encode(s.Definition())
	require.NoError(t, err)

	again, _, err := Decode(out)
	require.NoError(t, err)
	s2, err := domain.NewSchema(again)
	require.NoError(t, err)

	assert.Equal(t, s.Definition(), s2.Definition())
	for _, tbl := range s.Tables() {
		other, ok := s2.Table(tbl.Name())
		require.True(t, ok)
		assert.Equal(t, tbl.CandidateKeys(), other.CandidateKeys())
	}
}

func TestDecodeSamples(t *testing.T) {
	t.Parallel()

	samples, err := DecodeSamples([]byte(`
customers:
  - {customer_id: 1, phones: "555-1234; 555-9876"}
  - {customer_id: 2, phones: [555-0000, 555-1111]}
`))
	require.NoError(t, err)
	require.Len(t, samples["customers"], 2)
	assert.Equal(t, []any{"555-0000", "555-1111"}, samples["customers"][1]["phones"])

	samples, err = DecodeSamples([]byte(tutorialYAML))
	require.NoError(t, err)
	assert.Len(t, samples["bad_orders"], 2)

	_, err = DecodeSamples([]byte("customers: 3"))
	assert.Error(t, err)
}

func TestSampleOverlay(t *testing.T) {
	t.Parallel()

	schemaPath := writeTempFile(t, "schema.yaml", tutorialYAML)
	dataPath := writeTempFile(t, "data.json", `{"customers": [{"customer_id": 1, "phones": "1; 2"}]}`)

	in, err := SampleOverlay{Inner: FileSource{Path: schemaPath}, Path: dataPath}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schemaPath, in.Source)
	assert.Len(t, in.Definition.Tables, 3)
	assert.Len(t, in.Samples["bad_orders"], 2)
	assert.Len(t, in.Samples["customers"], 1)
}

func TestFileSource_Errors(t *testing.T) {
	t.Parallel()

	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading schema file")

	schemaPath := writeTempFile(t, "schema.yaml", tutorialYAML)
	_, err = SampleOverlay{Inner: FileSource{Path: schemaPath}, Path: filepath.Join(t.TempDir(), "nope.yaml")}.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading sample file")
}
