package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	t.Setenv("CC_SCENARIO_REGION", "eu")
	vars := map[string]string{"token": "abc", "account_id": "AC1"}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no placeholders", input: "/api/profile", expected: "/api/profile"},
		{name: "single variable", input: "/api/accounts/${account_id}", expected: "/api/accounts/AC1"},
		{name: "several variables", input: "${token}:${account_id}", expected: "abc:AC1"},
		{name: "environment", input: "/${env.CC_SCENARIO_REGION}/health", expected: "/eu/health"},
		{name: "unset environment is empty", input: "x${env.CC_SCENARIO_UNSET}y", expected: "xy"},
		{name: "dollar without brace", input: "$5", expected: "$5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExpand_Errors(t *testing.T) {
	for _, input := range []string{"${missing}", "/api/${token"} {
		_, err := Expand(input, map[string]string{"token": "abc"})
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, ErrFixture))
	}
}

func TestExpandValue(t *testing.T) {
	body := map[string]any{
		"username": "${user}",
		"amount":   25,
		"tags":     []any{"${user}", true},
		"nested":   map[string]any{"owner": "${user}"},
	}

	got, err := expandValue(body, map[string]string{"user": "demo"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"username": "demo",
		"amount":   25,
		"tags":     []any{"demo", true},
		"nested":   map[string]any{"owner": "demo"},
	}, got)

	// the input is not modified
	assert.Equal(t, "${user}", body["username"])
}
