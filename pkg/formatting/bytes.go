// Package formatting converts byte sizes between counts and human-readable strings.
package formatting

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidSize = errors.New("invalid byte size")

// Base-1024 units; the index is the exponent.
var units = [...]string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// FormatBytes renders n with the largest unit that keeps the value at or above one.
func FormatBytes(n int64, precision int) string {
	if n <= 0 {
		return "0 B"
	}
	precision = max(precision, 0)

	exp := 0
	size := float64(n)
	for size >= 1024 && exp < len(units)-1 {
		size /= 1024
		exp++
	}

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[exp]
}

// ParseBytes parses sizes such as "10MB", "512 kb" or "2048".
// A bare number is a byte count. Results that overflow int64 are rejected.
func ParseBytes(s string) (int64, error) {
	m := sizePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSize, err)
	}

	exp, err := unitExponent(m[2])
	if err != nil {
		return 0, err
	}

	n := value * math.Pow(1024, float64(exp))
	if n >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return int64(n), nil
}

func unitExponent(unit string) (int, error) {
	if unit == "" {
		return 0, nil
	}
	unit = strings.ToUpper(unit)
	for i, u := range units {
		if u == unit {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, unit)
}
