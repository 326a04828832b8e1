//go:build contract

package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractcheck/internal/apiclient"
	"contractcheck/internal/contract"
	"contractcheck/internal/scenario"
)

func TestRecordedResponses_SatisfyContracts(t *testing.T) {
	tests := []struct {
		fixture string
		schema  contract.Schema
	}{
		{fixture: "mockbank/account.json", schema: contract.BankAccount()},
		{fixture: "mockbank/profile.json", schema: contract.Profile()},
		{fixture: "mockbank/login.json", schema: contract.LoginResponse()},
		{fixture: "mockbank/transaction_created.json", schema: contract.Transaction()},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			payload := loadGoldenFile(t, tt.fixture)
			require.NoError(t, contract.Validate(payload, tt.schema))
			assert.Empty(t, contract.ValidateAll(payload, tt.schema))
			require.NoError(t, contract.ValidateJSON(loadGoldenFileRaw(t, tt.fixture), "", tt.schema))
		})
	}
}

func TestRecordedResponses_Golden(t *testing.T) {
	compareGoldenJSON(t, "login.golden.json", loadGoldenFile(t, "mockbank/login.json"))
	compareGoldenJSON(t, "transaction_created.golden.json", loadGoldenFile(t, "mockbank/transaction_created.json"))
}

func TestDriftedResponses_ReportViolations(t *testing.T) {
	tests := []struct {
		fixture string
		schema  contract.Schema
		want    []string
	}{
		{
			fixture: "violations/account_missing_currency.json",
			schema:  contract.BankAccount(),
			want:    []string{"contract violation: missing field `currency`"},
		},
		{
			fixture: "violations/account_drifted.json",
			schema:  contract.BankAccount(),
			want: []string{
				"contract violation: field `balance` expected type `number`, got `string`",
				"contract violation: field `transactions[0].amount` expected type `number`, got `string`",
				"contract violation: field `transactions[1].type` value `refund` not in allowed set",
				"contract violation: missing field `transactions[1].date`",
			},
		},
		{
			fixture: "violations/account_transactions_object.json",
			schema:  contract.BankAccount(),
			want:    []string{"contract violation: field `transactions` expected type `array`, got `object`"},
		},
		{
			fixture: "violations/account_not_object.json",
			schema:  contract.BankAccount(),
			want:    []string{"contract violation: field `$` expected type `object`, got `array`"},
		},
		{
			fixture: "violations/profile_null_email.json",
			schema:  contract.Profile(),
			want:    []string{"contract violation: field `email` expected type `string`, got `null`"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			payload := loadGoldenFile(t, tt.fixture)

			first := contract.Validate(payload, tt.schema)
			require.Error(t, first)
			assert.ErrorIs(t, first, contract.ErrContractViolation)
			assert.Equal(t, tt.want[0], first.Error())

			all := contract.ValidateAll(payload, tt.schema)
			got := make([]string, len(all))
			for i, err := range all {
				got[i] = err.Error()
			}
			assert.Equal(t, tt.want, got)

			fromRaw := contract.ValidateJSON(loadGoldenFileRaw(t, tt.fixture), "", tt.schema)
			assert.Equal(t, first.Error(), fromRaw.Error())
		})
	}
}

type stepSummary struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
}

type scenarioSummary struct {
	Scenario string        `json:"scenario"`
	Status   string        `json:"status"`
	Steps    []stepSummary `json:"steps"`
}

func summarize(report *scenario.Report) []scenarioSummary {
	out := make([]scenarioSummary, 0, len(report.Results))
	for _, res := range report.Results {
		s := scenarioSummary{Scenario: res.Scenario, Status: string(res.Status)}
		for _, st := range res.Steps {
			s.Steps = append(s.Steps, stepSummary{Name: st.Name, Status: string(st.Status), StatusCode: st.StatusCode})
		}
		out = append(out, s)
	}
	return out
}

func runReplay(t *testing.T, routes map[string]replayRoute, names ...string) *scenario.Report {
	t.Helper()

	client := apiclient.NewWithHTTPClient(newReplayHTTPClient(t, routes), apiclient.Config{BaseURL: replayBaseURL})
	runner := scenario.NewRunner(client, nil, scenario.WithVariables(map[string]string{
		"username": "demo",
		"password": "demo123",
	}))
	scenarios := scenario.Filter(scenario.Builtin(scenario.BuiltinOptions{}), names)
	require.Len(t, scenarios, len(names))

	return scenario.NewSuite(runner, 2).Run(context.Background(), scenarios)
}

func TestBuiltinScenarios_Replay(t *testing.T) {
	report := runReplay(t, bankRoutes(t), "homepage", "profile", "bank-account")

	assert.Equal(t, 3, report.Passed)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Broken)
	compareGoldenJSON(t, "replay_suite.golden.json", summarize(report))
}

func TestBuiltinScenarios_ReplayDriftedAccount(t *testing.T) {
	routes := bankRoutes(t)
	routes[replayKey("GET", "/api/accounts/AC1")] = jsonFixtureRoute(t, "violations/account_drifted.json")

	report := runReplay(t, routes, "bank-account")
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, scenario.StatusFailed, res.Status)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.ExitCode())

	failed := res.FailedStep()
	require.NotNil(t, failed)
	assert.Equal(t, "fetch account", failed.Name)
	assert.Contains(t, failed.Error, "contract bank_account")
	assert.Contains(t, failed.Error, "field `balance` expected type `number`, got `string`")
	assert.Equal(t, scenario.StatusSkipped, res.Steps[2].Status)
}

func TestBuiltinScenarios_ReplayBrokenContract(t *testing.T) {
	client := apiclient.NewWithHTTPClient(newReplayHTTPClient(t, bankRoutes(t)), apiclient.Config{BaseURL: replayBaseURL})
	registry := contract.NewRegistry()
	registry.Register(contract.ProfileContract, contract.Schema{})

	runner := scenario.NewRunner(client, registry, scenario.WithVariables(map[string]string{
		"username": "demo",
		"password": "demo123",
	}))
	scenarios := scenario.Filter(scenario.Builtin(scenario.BuiltinOptions{}), []string{"profile"})

	report := scenario.NewSuite(runner, 1).Run(context.Background(), scenarios)
	require.Len(t, report.Results, 1)
	assert.Equal(t, scenario.StatusBroken, report.Results[0].Status)
	assert.Equal(t, 2, report.ExitCode())
	assert.Contains(t, report.Results[0].FailedStep().Error, "schema error")
}
