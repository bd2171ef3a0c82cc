package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	errNoScenarios          = errors.New("suite contains no scenarios")
	errScenarioNameRequired = errors.New("scenario name is required")
	errScenarioNoSteps      = errors.New("scenario has no steps")
	errDuplicateScenario    = errors.New("duplicate scenario name")
	errStepMissingAction    = errors.New("step is missing an action")
	errUnsupportedSuiteFile = errors.New("unsupported suite file extension")
)

// Loader loads scenario suite files.
type Loader interface {
	Load(path string) (*Suite, error)
}

type loader struct {
	log logrus.FieldLogger
}

// NewLoader creates a new suite loader.
func NewLoader(log logrus.FieldLogger) Loader {
	return &loader{
		log: log.WithField("component", "scenario_loader"),
	}
}

// Load reads and validates a suite document. JSON is the canonical format;
// YAML is accepted with identical field names.
func (l *loader) Load(path string) (*Suite, error) {
	l.log.WithField("path", path).Debug("loading scenario suite")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file %s: %w", path, err)
	}

	suite := &Suite{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, suite); err != nil {
			return nil, fmt.Errorf("parsing suite file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, suite); err != nil {
			return nil, fmt.Errorf("parsing suite file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedSuiteFile, path)
	}

	if err := l.validate(suite); err != nil {
		return nil, fmt.Errorf("validating suite %s: %w", path, err)
	}

	l.log.WithFields(logrus.Fields{
		"scenarios": len(suite.Scenarios),
		"users":     userCount(suite),
	}).Info("loaded scenario suite")

	return suite, nil
}

// validate enforces structural requirements only. Per-step field
// combinations are checked at execution time, where missing required
// fields surface as ConfigurationErrors; unknown actions are tolerated
// here so evolving script vocabularies load cleanly.
func (l *loader) validate(suite *Suite) error {
	if len(suite.Scenarios) == 0 {
		return errNoScenarios
	}

	seen := make(map[string]bool)
	for i, sc := range suite.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("scenario %d: %w", i, errScenarioNameRequired)
		}
		if seen[sc.Name] {
			return fmt.Errorf("%w: %q", errDuplicateScenario, sc.Name)
		}
		seen[sc.Name] = true

		if len(sc.Steps) == 0 {
			return fmt.Errorf("scenario %q: %w", sc.Name, errScenarioNoSteps)
		}
		for j, step := range sc.Steps {
			if step.Action == "" {
				return fmt.Errorf("scenario %q step %d: %w", sc.Name, j, errStepMissingAction)
			}
		}
	}

	return nil
}

func userCount(suite *Suite) int {
	if suite.TestData == nil {
		return 0
	}
	return len(suite.TestData.Users)
}
