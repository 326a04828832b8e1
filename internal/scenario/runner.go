package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"contractcheck/internal/apiclient"
	"contractcheck/internal/contract"
	"contractcheck/internal/core"
)

// Observer receives run measurements. *observability.Metrics implements it.
type Observer interface {
	ObserveStep(outcome string, d time.Duration)
	ObserveScenario(outcome string)
	ObserveViolation(contract string)
}

type nopObserver struct{}

func (nopObserver) ObserveStep(string, time.Duration) {}
func (nopObserver) ObserveScenario(string)            {}
func (nopObserver) ObserveViolation(string)           {}

// Runner executes scenarios against one target. A Runner is safe for
// concurrent use; captured variables live only for the duration of Run.
type Runner struct {
	client    *apiclient.Client
	contracts *contract.Registry
	vars      map[string]string
	observer  Observer
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithVariables sets variables visible to every scenario. Scenario
// variables and captures take precedence.
func WithVariables(vars map[string]string) Option {
	return func(r *Runner) {
		for k, v := range vars {
			r.vars[k] = v
		}
	}
}

// WithObserver reports step, scenario and violation measurements to o.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner. A nil registry means the built-in contracts.
func NewRunner(client *apiclient.Client, contracts *contract.Registry, opts ...Option) *Runner {
	if contracts == nil {
		contracts = contract.NewRegistry()
	}
	r := &Runner{
		client:    client,
		contracts: contracts,
		vars:      map[string]string{"base_url": client.BaseURL()},
		observer:  nopObserver{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the steps of s in order. The first step that does not pass
// stops the scenario; the remaining steps are reported as skipped.
func (r *Runner) Run(ctx context.Context, s *Scenario) *Result {
	start := time.Now()
	result := &Result{
		Scenario: s.Name,
		Status:   StatusPassed,
		Steps:    make([]StepResult, 0, len(s.Steps)),
	}

	vars := make(map[string]string, len(r.vars)+len(s.Variables))
	for k, v := range r.vars {
		vars[k] = v
	}
	for k, v := range s.Variables {
		vars[k] = v
	}

	for i := range s.Steps {
		step := &s.Steps[i]
		if result.Status != StatusPassed {
			result.Steps = append(result.Steps, StepResult{Name: step.Name, Status: StatusSkipped})
			continue
		}

		sr := r.runStep(ctx, step, vars)
		r.observer.ObserveStep(string(sr.Status), sr.Duration)
		result.Steps = append(result.Steps, sr)

		if sr.Status != StatusPassed {
			result.Status = sr.Status
			r.logger.Warn("step did not pass",
				"scenario", s.Name,
				"step", step.Name,
				"status", sr.Status,
				"error", sr.Error,
			)
		} else {
			r.logger.Debug("step passed", "scenario", s.Name, "step", step.Name, "duration", sr.Duration)
		}
	}

	result.Duration = time.Since(start)
	r.observer.ObserveScenario(string(result.Status))
	return result
}

func (r *Runner) runStep(ctx context.Context, step *Step, vars map[string]string) StepResult {
	start := time.Now()
	sr := StepResult{Name: step.Name}

	fail := func(err error) StepResult {
		sr.Status = StatusFailed
		if isBroken(err) {
			sr.Status = StatusBroken
		}
		sr.Error = err.Error()
		sr.Duration = time.Since(start)
		return sr
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	req, err := r.buildRequest(step, vars)
	if err != nil {
		return fail(err)
	}

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return fail(err)
	}
	sr.StatusCode = resp.StatusCode
	sr.Body = resp.Body

	if step.Expect != nil {
		if err := checkStatus(resp.StatusCode, step.Expect.Status); err != nil {
			if resp.StatusCode >= http.StatusBadRequest {
				err = fmt.Errorf("%w: %w", err, core.ParseAPIError(endpoint(req), resp.StatusCode, resp.Body))
			}
			return fail(err)
		}
	}

	if err := capture(resp.Body, step.Capture, vars); err != nil {
		return fail(err)
	}

	if step.Expect != nil {
		if err := r.checkExpect(step.Expect, resp, vars); err != nil {
			return fail(err)
		}
	}

	sr.Status = StatusPassed
	sr.Duration = time.Since(start)
	return sr
}

func endpoint(req apiclient.Request) string {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	return method + " " + req.Path
}

func (r *Runner) buildRequest(step *Step, vars map[string]string) (apiclient.Request, error) {
	path, err := Expand(step.Request.Path, vars)
	if err != nil {
		return apiclient.Request{}, fmt.Errorf("path: %w", err)
	}
	headers, err := expandMap(step.Request.Headers, vars)
	if err != nil {
		return apiclient.Request{}, err
	}
	body, err := expandValue(step.Request.Body, vars)
	if err != nil {
		return apiclient.Request{}, fmt.Errorf("body: %w", err)
	}

	req := apiclient.Request{
		Method:  strings.ToUpper(step.Request.Method),
		Path:    path,
		Headers: headers,
		Body:    body,
	}

	switch step.Request.Auth {
	case "":
	case AuthNone:
		req.NoAuth = true
	default:
		token, err := Expand(step.Request.Auth, vars)
		if err != nil {
			return apiclient.Request{}, fmt.Errorf("auth: %w", err)
		}
		req.Token = token
	}
	return req, nil
}

// capture stores gjson selections from body into vars.
func capture(body []byte, paths map[string]string, vars map[string]string) error {
	for name, path := range paths {
		res := gjson.GetBytes(body, path)
		if !res.Exists() {
			return fmt.Errorf("capture %q: path %q: no match found", name, path)
		}
		vars[name] = captureValue(res)
	}
	return nil
}

func (r *Runner) checkExpect(exp *Expect, resp *apiclient.Response, vars map[string]string) error {
	if err := checkHeaders(resp.Header, exp.Headers); err != nil {
		return err
	}

	if exp.BodyContains != "" {
		want, err := Expand(exp.BodyContains, vars)
		if err != nil {
			return err
		}
		if !strings.Contains(string(resp.Body), want) {
			return fmt.Errorf("body does not contain %q", want)
		}
	}

	if exp.Title != "" {
		want, err := Expand(exp.Title, vars)
		if err != nil {
			return err
		}
		title, ok := PageTitle(resp.Body)
		if !ok {
			return fmt.Errorf("page has no <title>, expected %q", want)
		}
		if title != want {
			return fmt.Errorf("expected page title %q, got %q", want, title)
		}
	}

	if exp.Contract != "" {
		schema, err := r.contracts.Lookup(exp.Contract)
		if err != nil {
			return err
		}
		if err := contract.ValidateJSON(resp.Body, exp.ContractPath, schema); err != nil {
			if contract.IsViolation(err) {
				r.observer.ObserveViolation(exp.Contract)
			}
			return fmt.Errorf("contract %s: %w", exp.Contract, err)
		}
	}

	if len(exp.Body) > 0 {
		expanded, err := expandValue(exp.Body, vars)
		if err != nil {
			return err
		}
		if err := EvaluateBodyAssertions(resp.Body, expanded.(map[string]any)); err != nil {
			return err
		}
	}
	return nil
}

func isBroken(err error) bool {
	return contract.IsSchemaError(err) || errors.Is(err, ErrFixture)
}
