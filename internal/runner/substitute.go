package runner

import (
	"math/rand/v2"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/Jose0808/PerformanceComparationFramework/internal/scenario"
)

var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substitute expands ${token} placeholders in a raw fill value.
// ${username} and ${password} each draw an independent uniform-random
// record from the credential pool, so a script using both may receive a
// mismatched pair unless the pool has exactly one entry. Any other token
// resolves through the test data tree by dotted path; a missing or
// non-string value leaves the placeholder literal (fail-open) so one
// absent datum never aborts the whole scenario.
func substitute(log logrus.FieldLogger, data *scenario.TestData, value string) string {
	return placeholderPattern.ReplaceAllStringFunc(value, func(match string) string {
		key := match[2 : len(match)-1]

		switch key {
		case "username":
			if user, ok := randomUser(data); ok {
				return user.Username
			}
		case "password":
			if user, ok := randomUser(data); ok {
				return user.Password
			}
		default:
			if resolved, ok := data.Lookup(key); ok {
				if s, ok := resolved.(string); ok {
					return s
				}
			}
		}

		log.WithField("token", match).Warn("substitution token unresolved, leaving literal")
		return match
	})
}

func randomUser(data *scenario.TestData) (scenario.Credential, bool) {
	if data == nil || len(data.Users) == 0 {
		return scenario.Credential{}, false
	}
	return data.Users[rand.IntN(len(data.Users))], true
}
