// Package runner executes scenario scripts against browser sessions and
// orchestrates the parallel run matrix across applications, scenarios and
// iterations.
package runner

import (
	"errors"

	"github.com/Jose0808/PerformanceComparationFramework/internal/scenario"
)

// IsConfigurationError reports whether err is, or wraps, a malformed-step
// or unknown-scenario error. Configuration errors abort the current run and
// are never retried.
func IsConfigurationError(err error) bool {
	var ce *scenario.ConfigurationError
	return errors.As(err, &ce)
}
