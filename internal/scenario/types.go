// Package scenario provides scenario suite loading and validation.
// A suite specifies what to run (ordered interaction steps, expected
// metric thresholds, test data) as opposed to how runs execute
// (see runner.Orchestrator for execution parameters).
package scenario

import (
	"fmt"
	"time"
)

// Action is the closed set of step kinds. Dispatch over it is exhaustive;
// anything outside the set is skipped at runtime, never executed.
type Action string

const (
	// ActionNavigate loads a URL resolved against the application base URL.
	ActionNavigate Action = "navigate"
	// ActionClick waits for an element and clicks it.
	ActionClick Action = "click"
	// ActionFill clears an input and types a substituted value into it.
	ActionFill Action = "fill"
	// ActionWait waits for an element or performs a bounded idle wait.
	ActionWait Action = "wait"
	// ActionCustom dispatches to a named handler from the action registry.
	ActionCustom Action = "custom"
)

// Step is one entry of a scenario script. Each action only reads the fields
// it needs; missing required fields are a ConfigurationError at execution
// time, not a silent default.
type Step struct {
	Action         Action  `json:"action" yaml:"action"`
	Selector       string  `json:"selector,omitempty" yaml:"selector,omitempty"`
	Value          *string `json:"value,omitempty" yaml:"value,omitempty"`
	URL            string  `json:"url,omitempty" yaml:"url,omitempty"`
	Timeout        int     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	CustomFunction string  `json:"customFunction,omitempty" yaml:"customFunction,omitempty"`
}

// TimeoutOr returns the step timeout, or def when the script left it unset.
// Script timeouts are expressed in milliseconds.
func (s *Step) TimeoutOr(def time.Duration) time.Duration {
	if s.Timeout <= 0 {
		return def
	}
	return time.Duration(s.Timeout) * time.Millisecond
}

// Scenario is one named interaction script.
type Scenario struct {
	Name            string             `json:"name" yaml:"name"`
	Description     string             `json:"description" yaml:"description"`
	Steps           []*Step            `json:"steps" yaml:"steps"`
	ExpectedMetrics map[string]float64 `json:"expectedMetrics,omitempty" yaml:"expectedMetrics,omitempty"`
}

// Suite is a complete scenario document: the scripts plus the test data
// they draw substitution values from.
type Suite struct {
	Scenarios []*Scenario `json:"scenarios" yaml:"scenarios"`
	TestData  *TestData   `json:"testData" yaml:"testData"`
}

// Scenario returns the named scenario. An unknown name is a
// ConfigurationError: the caller asked for a script that does not exist.
func (s *Suite) Scenario(name string) (*Scenario, error) {
	for _, sc := range s.Scenarios {
		if sc.Name == name {
			return sc, nil
		}
	}
	return nil, &ConfigurationError{Detail: fmt.Sprintf("unknown scenario %q", name)}
}

// ConfigurationError reports a malformed step or an unknown scenario name.
// Fatal for the current scenario run; never retried automatically.
type ConfigurationError struct {
	Scenario string
	Step     int
	Detail   string
}

func (e *ConfigurationError) Error() string {
	if e.Scenario == "" {
		return fmt.Sprintf("configuration error: %s", e.Detail)
	}
	return fmt.Sprintf("configuration error in scenario %q step %d: %s", e.Scenario, e.Step, e.Detail)
}
