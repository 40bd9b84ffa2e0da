// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"errors"
	"fmt"

	"github.com/pdiddy/news-pipeline/pkg/types"
)

// StageError is the error form of a failed outcome.
type StageError struct {
	Identifier string
	Stage      types.Stage
	Kind       types.FailureKind
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Stage, e.Identifier, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Report collects the outcomes of one orchestrator run in execution order.
type Report struct {
	Outcomes []types.Outcome
}

// Count returns how many outcomes have status s.
func (r Report) Count(s types.OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// HasFailures returns true if any stage failed for any identifier.
func (r Report) HasFailures() bool {
	return r.Count(types.OutcomeFailed) > 0
}

// Failures returns the failed outcomes.
func (r Report) Failures() []types.Outcome {
	var out []types.Outcome
	for _, o := range r.Outcomes {
		if o.Status == types.OutcomeFailed {
			out = append(out, o)
		}
	}
	return out
}

// Outcome returns the outcome for identifier at stage st.
func (r Report) Outcome(identifier string, st types.Stage) (types.Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Identifier == identifier && o.Stage == st {
			return o, true
		}
	}
	return types.Outcome{}, false
}

// Err joins every failure into one error, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Failures() {
		errs = append(errs, &StageError{Identifier: o.Identifier, Stage: o.Stage, Kind: o.Kind, Err: o.Err})
	}
	return errors.Join(errs...)
}
