package update

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two loosely-structured version strings.
// Returns:
// - -1 if a < b
// - 0 if a == b
// - 1 if a > b
//
// Any pre-release or build suffix introduced by a hyphen is ignored, missing
// or unparsable components count as 0, and shorter versions are padded with
// zeros, so "1.2" equals "1.2.0". Plugin versions in the wild are too messy
// for strict semver; this never fails.
func CompareVersions(a, b string) int {
	av := parseVersion(a)
	bv := parseVersion(b)

	n := len(av)
	if len(bv) > n {
		n = len(bv)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(av) {
			x = av[i]
		}
		if i < len(bv) {
			y = bv[i]
		}
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
	}
	return 0
}

func parseVersion(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexByte(v, '-'); i >= 0 {
		v = v[:i]
	}
	parts := strings.Split(v, ".")
	components := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			n = 0
		}
		components[i] = n
	}
	return components
}

// IsCompatible reports whether a plugin requiring minAppVersion runs on the
// given host application version. Unparsable versions never block an
// update; the check is advisory.
func IsCompatible(minAppVersion, appVersion string) bool {
	if minAppVersion == "" || appVersion == "" {
		return true
	}
	min, err := semver.NewVersion(strings.TrimPrefix(minAppVersion, "v"))
	if err != nil {
		return true
	}
	app, err := semver.NewVersion(strings.TrimPrefix(appVersion, "v"))
	if err != nil {
		return true
	}
	return !app.LessThan(min)
}
