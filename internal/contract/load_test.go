package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankAccountYAML = `
name: bank_account
fields:
  - name: account_number
    type: string
  - name: balance
    type: number
  - name: currency
    type: string
  - name: transactions
    type: array-of
    items:
      fields:
        - {name: id, type: string}
        - {name: amount, type: number}
        - {name: type, type: string, enum: [deposit, withdrawal, transfer]}
        - {name: date, type: string}
`

func TestParseSchema_YAML(t *testing.T) {
	name, schema, err := ParseSchema([]byte(bankAccountYAML))
	require.NoError(t, err)
	assert.Equal(t, "bank_account", name)
	assert.Equal(t, BankAccount(), schema)
}

func TestParseSchema_JSON(t *testing.T) {
	doc := `{"fields":[{"name":"token","type":"string"},{"name":"ttl","type":"integer"},{"name":"admin","type":"bool"}]}`

	name, schema, err := ParseSchema([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Equal(t, Object(String("token"), Number("ttl"), Boolean("admin")), schema)
}

func TestParseSchema_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown tag", doc: `fields: [{name: when, type: date}]`},
		{name: "array without items", doc: `fields: [{name: rows, type: array}]`},
		{name: "no fields", doc: `name: empty`},
		{name: "not yaml", doc: "fields: [\n"},
		{name: "enum on boolean", doc: `fields: [{name: ok, type: boolean, enum: ["true"]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseSchema([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, IsSchemaError(err), "expected schema error, got %v", err)
		})
	}
}

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "account.yaml"), []byte(bankAccountYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte(`{"fields":[{"name":"sid","type":"string"}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadDir(dir))

	s, err := r.Lookup("session")
	require.NoError(t, err)
	assert.Equal(t, []string{"sid"}, s.FieldNames())

	s, err = r.Lookup(BankAccountContract)
	require.NoError(t, err)
	assert.Equal(t, BankAccount(), s)

	assert.Equal(t, []string{"bank_account", "login", "profile", "session"}, r.Names())
}

func TestRegistry_LoadDirBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(`fields: [{name: x, type: money}]`), 0o644))

	err := NewRegistry().LoadDir(dir)
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestRegistry_UnknownContract(t *testing.T) {
	_, err := NewRegistry().Lookup("ledger")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}
