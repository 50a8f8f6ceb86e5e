package orchestrator

import "errors"

var (
	// ErrNoJSONFound is returned when a planning agent's output contains
	// no parseable JSON plan by any of the three extraction strategies.
	ErrNoJSONFound = errors.New("orchestrator: no JSON plan found in agent output")
	// ErrEmptyPlan is returned when a successfully parsed plan has no tasks.
	ErrEmptyPlan = errors.New("orchestrator: plan contains no tasks")
)
