package pkgreg

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted sequence of non-negative integers ("1", "1.0",
// "8.6.1"). Comparison is field-by-field numeric, with missing trailing
// fields treated as zero, so "1.0" and "1.0.0" are equal.
type Version struct {
	fields []int
	raw    string
}

// ParseVersion parses a dotted version string.
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, fmt.Errorf("empty version string")
	}
	parts := strings.Split(s, ".")
	fields := make([]int, len(parts))
	for i, part := range parts {
		// strconv.Atoi tolerates a leading sign, so check the field is
		// pure digits first.
		if !isDigits(part) {
			return Version{}, fmt.Errorf("invalid version %q: field %q is not a non-negative integer", s, part)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: field %q is not a non-negative integer", s, part)
		}
		fields[i] = n
	}
	return Version{fields: fields, raw: s}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Compare returns -1, 0 or 1 as v is less than, equal to or greater
// than o.
func (v Version) Compare(o Version) int {
	n := len(v.fields)
	if len(o.fields) > n {
		n = len(o.fields)
	}
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v.fields) {
			a = v.fields[i]
		}
		if i < len(o.fields) {
			b = o.fields[i]
		}
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

// String returns the version as originally written.
func (v Version) String() string { return v.raw }
