package scenario

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"
)

// Suite runs independent scenarios concurrently.
type Suite struct {
	runner      *Runner
	parallelism int
}

// NewSuite creates a Suite running at most parallelism scenarios at once.
func NewSuite(runner *Runner, parallelism int) *Suite {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Suite{runner: runner, parallelism: parallelism}
}

// Report summarizes a suite run. Results are in input order.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	Results   []*Result
	Passed    int
	Failed    int
	Broken    int
}

// Run executes every scenario and waits for all of them. A failing
// scenario does not cancel the others.
func (s *Suite) Run(ctx context.Context, scenarios []*Scenario) *Report {
	report := &Report{
		StartedAt: time.Now().UTC(),
		Results:   make([]*Result, len(scenarios)),
	}

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i, sc := range scenarios {
		g.Go(func() error {
			report.Results[i] = s.runner.Run(ctx, sc)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range report.Results {
		switch r.Status {
		case StatusPassed:
			report.Passed++
		case StatusBroken:
			report.Broken++
		default:
			report.Failed++
		}
	}
	report.Duration = time.Since(report.StartedAt)
	return report
}

// OK reports whether every scenario passed.
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Broken == 0
}

// ExitCode is 0 when everything passed, 2 when a fixture is broken and 1
// when a check failed.
func (r *Report) ExitCode() int {
	switch {
	case r.Broken > 0:
		return 2
	case r.Failed > 0:
		return 1
	default:
		return 0
	}
}

// WriteText prints one line per scenario followed by a summary.
func (r *Report) WriteText(w io.Writer) error {
	for _, res := range r.Results {
		line := fmt.Sprintf("%-8s %s (%s)", res.Status, res.Scenario, res.Duration.Round(time.Millisecond))
		if step := res.FailedStep(); step != nil {
			line += fmt.Sprintf("\n         step %q: %s", step.Name, step.Error)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d scenarios: %d passed, %d failed, %d broken in %s\n",
		len(r.Results), r.Passed, r.Failed, r.Broken, r.Duration.Round(time.Millisecond))
	return err
}
