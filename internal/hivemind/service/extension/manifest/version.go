package manifest

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var rangeOperators = []string{">=", "<=", ">", "<", "=", "^", "~"}

// ValidateVersionCompatibility reports whether current satisfies requirement,
// a string of the form [operator]major.minor.patch.
//
// ^ requires the same major, ~ the same major and minor, both with
// current >= required. No operator (or =) requires exact equality.
func ValidateVersionCompatibility(requirement, current string) Compatibility {
	op, want, err := parseRequirement(requirement)
	if err != nil {
		return Compatibility{Message: err.Error()}
	}
	have, err := semver.StrictNewVersion(strings.TrimSpace(current))
	if err != nil {
		return Compatibility{Message: fmt.Sprintf("invalid version %q: %v", current, err)}
	}

	c := compareTriple(have, want)
	var ok bool
	switch op {
	case ">=":
		ok = c >= 0
	case ">":
		ok = c > 0
	case "<=":
		ok = c <= 0
	case "<":
		ok = c < 0
	case "^":
		ok = have.Major() == want.Major() && c >= 0
	case "~":
		ok = have.Major() == want.Major() && have.Minor() == want.Minor() && c >= 0
	default:
		ok = c == 0
	}
	if ok {
		return Compatibility{Compatible: true}
	}
	return Compatibility{Message: fmt.Sprintf("version %s does not satisfy %s", current, requirement)}
}

func parseRequirement(requirement string) (string, *semver.Version, error) {
	r := strings.TrimSpace(requirement)
	if r == "" {
		return "", nil, fmt.Errorf("empty version requirement")
	}
	op := ""
	for _, candidate := range rangeOperators {
		if strings.HasPrefix(r, candidate) {
			op = candidate
			r = strings.TrimSpace(r[len(candidate):])
			break
		}
	}
	v, err := semver.StrictNewVersion(r)
	if err != nil {
		return "", nil, fmt.Errorf("invalid version requirement %q: %v", requirement, err)
	}
	return op, v, nil
}

func compareTriple(a, b *semver.Version) int {
	switch {
	case a.Major() != b.Major():
		return cmpUint(a.Major(), b.Major())
	case a.Minor() != b.Minor():
		return cmpUint(a.Minor(), b.Minor())
	default:
		return cmpUint(a.Patch(), b.Patch())
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
