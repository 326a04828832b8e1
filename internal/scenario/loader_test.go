package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountScenarioYAML = `
name: account-check
description: fetch the seeded account
variables:
  account_id: AC1
steps:
  - name: login
    request:
      method: POST
      path: /api/login
      auth: none
      body:
        username: ${username}
        password: ${password}
    capture:
      token: token
    expect:
      status: 200
      contract: login
  - name: fetch account
    request:
      path: /api/accounts/${account_id}
      auth: ${token}
    expect:
      status: 200
      contract: bank_account
      body:
        currency: USD
        balance:
          gte: 0
`

func TestParse_YAML(t *testing.T) {
	s, err := Parse([]byte(accountScenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "account-check", s.Name)
	assert.Equal(t, map[string]string{"account_id": "AC1"}, s.Variables)
	require.Len(t, s.Steps, 2)

	login := s.Steps[0]
	assert.Equal(t, AuthNone, login.Request.Auth)
	assert.Equal(t, map[string]any{"username": "${username}", "password": "${password}"}, login.Request.Body)
	assert.Equal(t, map[string]string{"token": "token"}, login.Capture)

	fetch := s.Steps[1]
	assert.Empty(t, fetch.Request.Method)
	assert.Equal(t, "bank_account", fetch.Expect.Contract)
	assert.Equal(t, map[string]any{"gte": 0}, fetch.Expect.Body["balance"])
}

func TestParse_JSON(t *testing.T) {
	doc := `{"name":"health","steps":[{"name":"ping","request":{"path":"/health"},"expect":{"status":200,"body":{"status":"ok"}}}]}`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "health", s.Name)
	assert.Equal(t, 200, s.Steps[0].Expect.Status)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing name", doc: `steps: [{name: a, request: {path: /}}]`},
		{name: "no steps", doc: `name: empty`},
		{name: "step without path", doc: `{name: x, steps: [{name: a, request: {method: GET}}]}`},
		{name: "not yaml", doc: "name: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_account.yaml"), []byte(accountScenarioYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_health.json"),
		[]byte(`{"name":"health","steps":[{"name":"ping","request":{"path":"/health"}}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "contracts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contracts", "session.yaml"), []byte("fields: []"), 0o644))

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "health", scenarios[0].Name)
	assert.Equal(t, "account-check", scenarios[1].Name)
}

func TestLoadDir_BrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: bad\n"), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestFilter(t *testing.T) {
	all := Builtin(BuiltinOptions{})
	assert.Len(t, Filter(all, nil), len(all))

	got := Filter(all, []string{"profile", " login "})
	require.Len(t, got, 2)
	assert.Equal(t, "login", got[0].Name)
	assert.Equal(t, "profile", got[1].Name)
}
