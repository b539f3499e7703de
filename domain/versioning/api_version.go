// Package versioning defines the API version value type shared by routing,
// policy and documentation.
package versioning

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// APIVersion identifies one released surface of the API.
// Ordering uses Major and Minor only; Status is descriptive metadata.
type APIVersion struct {
	Major  int
	Minor  int
	Status string
}

var versionPattern = regexp.MustCompile(`^[vV]?(\d+)(?:\.(\d+))?(?:-([A-Za-z][A-Za-z0-9]*))?$`)

// New creates a version with no status.
func New(major, minor int) APIVersion {
	return APIVersion{Major: major, Minor: minor}
}

// Parse reads tokens such as "v1", "1", "1.0" or "2.0-beta".
func Parse(token string) (APIVersion, error) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return APIVersion{}, fmt.Errorf("invalid api version %q", token)
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return APIVersion{}, fmt.Errorf("invalid api version %q: %w", token, err)
	}

	minor := 0
	if m[2] != "" {
		if minor, err = strconv.Atoi(m[2]); err != nil {
			return APIVersion{}, fmt.Errorf("invalid api version %q: %w", token, err)
		}
	}

	return APIVersion{Major: major, Minor: minor, Status: strings.ToLower(m[3])}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(token string) APIVersion {
	v, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return v
}

// String formats the version as "major.minor" with an optional "-status".
func (v APIVersion) String() string {
	if v.Status != "" {
		return fmt.Sprintf("%d.%d-%s", v.Major, v.Minor, v.Status)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GroupName is the documentation group for the version, e.g. "v1" or "v2.1".
func (v APIVersion) GroupName() string {
	if v.Minor == 0 {
		return fmt.Sprintf("v%d", v.Major)
	}
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// Key drops Status so versions can be used as map keys that match on number only.
func (v APIVersion) Key() APIVersion {
	return APIVersion{Major: v.Major, Minor: v.Minor}
}

// Compare returns -1, 0 or 1 ordering by major then minor.
func (v APIVersion) Compare(other APIVersion) int {
	switch {
	case v.Major < other.Major:
		return -1
	case v.Major > other.Major:
		return 1
	case v.Minor < other.Minor:
		return -1
	case v.Minor > other.Minor:
		return 1
	}
	return 0
}

// Equal reports whether both versions have the same number.
func (v APIVersion) Equal(other APIVersion) bool {
	return v.Compare(other) == 0
}

// Sort orders versions ascending in place.
func Sort(versions []APIVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) < 0
	})
}

// Join formats versions as a comma separated header value.
func Join(versions []APIVersion) string {
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
