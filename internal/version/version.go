package version

import (
	"strconv"
	"strings"
)

// Triple is the numeric major.minor.patch form of a version string.
type Triple struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// Parse splits v on '.' and reads up to three numeric components.
// Missing or non-numeric components are treated as 0; extra components are ignored.
func Parse(v string) Triple {
	parts := strings.Split(strings.TrimSpace(v), ".")
	var nums [3]uint64
	for i := 0; i < len(parts) && i < len(nums); i++ {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 64)
		if err != nil {
			continue
		}
		nums[i] = n
	}
	return Triple{Major: nums[0], Minor: nums[1], Patch: nums[2]}
}

// IsNewer reports whether candidate is strictly greater than current.
// It never reports "older"; equal versions return false.
func IsNewer(current, candidate string) bool {
	cur := Parse(current)
	cand := Parse(candidate)

	if cand.Major > cur.Major {
		return true
	}
	if cand.Major < cur.Major {
		return false
	}
	if cand.Minor > cur.Minor {
		return true
	}
	if cand.Minor < cur.Minor {
		return false
	}
	return cand.Patch > cur.Patch
}
