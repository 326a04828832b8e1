package scenario

import (
	"net/http"

	"contractcheck/internal/contract"
)

// BuiltinOptions parameterizes the built-in scenarios.
type BuiltinOptions struct {
	// HomeTitle is the expected <title> of the home page
	HomeTitle string
	// AccountID is the account fetched by the bank account scenarios
	AccountID string
}

// Builtin returns the standard checks for a bank-style API. Login steps use
// the ${username} and ${password} variables, which the runner supplies.
func Builtin(opts BuiltinOptions) []*Scenario {
	if opts.HomeTitle == "" {
		opts.HomeTitle = "Mock Bank"
	}
	if opts.AccountID == "" {
		opts.AccountID = "AC1"
	}

	return []*Scenario{
		{
			Name:        "homepage",
			Description: "Home page loads with the expected title",
			Steps: []Step{{
				Name:    "open home page",
				Request: Request{Method: http.MethodGet, Path: "/", Auth: AuthNone},
				Expect:  &Expect{Status: http.StatusOK, Title: opts.HomeTitle},
			}},
		},
		{
			Name:        "login",
			Description: "Valid credentials yield a session token",
			Steps: []Step{
				loginStep(),
				{
					Name: "reject bad password",
					Request: Request{
						Method: http.MethodPost,
						Path:   "/api/login",
						Auth:   AuthNone,
						Body:   map[string]any{"username": "${username}", "password": "not-the-password"},
					},
					Expect: &Expect{Status: http.StatusUnauthorized},
				},
			},
		},
		{
			Name:        "profile",
			Description: "Authenticated user can read their profile",
			Steps: []Step{
				loginStep(),
				{
					Name:    "fetch profile",
					Request: Request{Method: http.MethodGet, Path: "/api/profile", Auth: "${token}"},
					Expect: &Expect{
						Status:   http.StatusOK,
						Contract: contract.ProfileContract,
						Body:     map[string]any{"username": "${username}"},
					},
				},
			},
		},
		{
			Name:        "bank-account",
			Description: "Account payload conforms to the bank account contract",
			Variables:   map[string]string{"account_id": opts.AccountID},
			Steps: []Step{
				loginStep(),
				{
					Name:    "fetch account",
					Request: Request{Method: http.MethodGet, Path: "/api/accounts/${account_id}", Auth: "${token}"},
					Expect: &Expect{
						Status:   http.StatusOK,
						Headers:  map[string]string{"Content-Type": "application/json"},
						Contract: contract.BankAccountContract,
						Body:     map[string]any{"account_number": "${account_id}"},
					},
				},
				{
					Name:    "unknown account",
					Request: Request{Method: http.MethodGet, Path: "/api/accounts/does-not-exist", Auth: "${token}"},
					Expect:  &Expect{Status: http.StatusNotFound},
				},
			},
		},
		{
			Name:        "bank-transaction",
			Description: "A posted transaction shows up in a conforming account payload",
			Variables:   map[string]string{"account_id": opts.AccountID},
			Steps: []Step{
				loginStep(),
				{
					Name: "post deposit",
					Request: Request{
						Method: http.MethodPost,
						Path:   "/api/accounts/${account_id}/transactions",
						Auth:   "${token}",
						Body:   map[string]any{"amount": 25, "type": "deposit", "date": "2024-03-01"},
					},
					Capture: map[string]string{"transaction_id": "id"},
					Expect:  &Expect{Status: http.StatusCreated, Body: map[string]any{"type": "deposit"}},
				},
				{
					Name:    "fetch account",
					Request: Request{Method: http.MethodGet, Path: "/api/accounts/${account_id}", Auth: "${token}"},
					Expect: &Expect{
						Status:       http.StatusOK,
						Contract:     contract.BankAccountContract,
						BodyContains: "${transaction_id}",
						Body:         map[string]any{"transactions.#": map[string]any{"gte": 1}},
					},
				},
			},
		},
	}
}

func loginStep() Step {
	return Step{
		Name: "login",
		Request: Request{
			Method: http.MethodPost,
			Path:   "/api/login",
			Auth:   AuthNone,
			Body:   map[string]any{"username": "${username}", "password": "${password}"},
		},
		Capture: map[string]string{"token": "token"},
		Expect: &Expect{
			Status:   http.StatusOK,
			Contract: contract.LoginContract,
		},
	}
}
