// Package scenario runs ordered request/expect checks against a target API
// and validates response payloads with response contracts.
package scenario

import "time"

// Status is the outcome of a step or scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	// StatusBroken marks a fixture fault (malformed contract, unresolved
	// template, unknown operator) rather than a fault of the target.
	StatusBroken Status = "broken"
)

// AuthNone disables the Authorization header for a request.
const AuthNone = "none"

// Scenario is an ordered list of steps sharing captured variables.
type Scenario struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Variables   map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
	Steps       []Step            `yaml:"steps" json:"steps"`
}

// Step is a single request and its expectations.
type Step struct {
	Name    string  `yaml:"name" json:"name"`
	Request Request `yaml:"request" json:"request"`
	// Capture maps variable names to gjson paths into the response body
	Capture map[string]string `yaml:"capture,omitempty" json:"capture,omitempty"`
	Expect  *Expect           `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Request defines the HTTP request made by a step. String values may
// reference variables as ${name} or the environment as ${env.NAME}.
type Request struct {
	Method  string            `yaml:"method,omitempty" json:"method,omitempty"`
	Path    string            `yaml:"path" json:"path"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body    any               `yaml:"body,omitempty" json:"body,omitempty"`
	// Auth is a bearer token, AuthNone, or empty for the configured token
	Auth string `yaml:"auth,omitempty" json:"auth,omitempty"`
}

// Expect lists the assertions of a step. Zero values are not checked.
type Expect struct {
	Status       int               `yaml:"status,omitempty" json:"status,omitempty"`
	BodyContains string            `yaml:"body_contains,omitempty" json:"body_contains,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	// Title is the expected text of the HTML <title> element
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	// Contract names a schema in the runner's contract registry
	Contract string `yaml:"contract,omitempty" json:"contract,omitempty"`
	// ContractPath selects the validated sub-document; empty means the whole body
	ContractPath string `yaml:"contract_path,omitempty" json:"contract_path,omitempty"`
	// Body maps gjson paths to an expected value or an operator map
	// (exists, eq, gte, lte, contains, regex)
	Body map[string]any `yaml:"body,omitempty" json:"body,omitempty"`
}

// StepResult records the outcome of a single step.
type StepResult struct {
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Error      string        `json:"error,omitempty"`
	// Body is the decoded response body, kept for fingerprinting
	Body []byte `json:"-"`
}

// Result records the outcome of an entire scenario.
type Result struct {
	Scenario string        `json:"scenario"`
	Status   Status        `json:"status"`
	Steps    []StepResult  `json:"steps"`
	Duration time.Duration `json:"duration_ns"`
}

// Passed reports whether every step passed.
func (r *Result) Passed() bool {
	return r.Status == StatusPassed
}

// FailedStep returns the first step that did not pass, or nil.
func (r *Result) FailedStep() *StepResult {
	for i := range r.Steps {
		if s := r.Steps[i].Status; s == StatusFailed || s == StatusBroken {
			return &r.Steps[i]
		}
	}
	return nil
}

// LastBody returns the response body of the last executed step.
func (r *Result) LastBody() []byte {
	for i := len(r.Steps) - 1; i >= 0; i-- {
		if r.Steps[i].Status != StatusSkipped {
			return r.Steps[i].Body
		}
	}
	return nil
}
