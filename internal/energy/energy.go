// Package energy estimates daily energy requirements from user biometrics.
//
// BMR uses the Mifflin-St Jeor equation. Inputs arrive loosely typed from the
// user store, so every biometric is coerced to a number and silently replaced
// by a fixed default when coercion fails.
package energy

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultWeight = 70.0
	DefaultHeight = 175.0
	DefaultAge    = 30
)

// Male is the only gender value that selects the male equation.
const Male = "M"

// BMR returns the basal metabolic rate in calories per day.
// weight is in kilograms, height in centimetres and age in years. Each may
// be any numeric kind, a numeric string, a pointer to either, or nil.
func BMR(weight, height, age any, gender string) float64 {
	w := coerce(weight, DefaultWeight)
	h := coerce(height, DefaultHeight)
	a := coerce(age, DefaultAge)

	base := 10*w + 6.25*h - 5*a
	if gender == Male {
		return base + 5
	}
	return base - 161
}

// TDEE returns total daily energy expenditure.
func TDEE(bmr, dailyBurn float64) float64 {
	return bmr + dailyBurn
}

// Age returns whole years elapsed between birth and today. A birthday later
// in the year than today has not been reached yet and does not count.
func Age(birth, today time.Time) int {
	years := today.Year() - birth.Year()
	if today.Month() < birth.Month() ||
		(today.Month() == birth.Month() && today.Day() < birth.Day()) {
		years--
	}
	return years
}

func coerce(v any, fallback float64) float64 {
	if f, ok := toFloat(v); ok {
		return f
	}
	return fallback
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case string:
		return parseDecimal(n)
	case []byte:
		return parseDecimal(string(n))
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, false
		}
		return toFloat(rv.Elem().Interface())
	}
	return 0, false
}

// parseDecimal accepts decimal, exponent, inf and nan spellings with
// underscores between digits. Hex floats are rejected even though
// strconv would take them.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	if strings.Contains(s, "_") {
		for i := range len(s) {
			if s[i] != '_' {
				continue
			}
			if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
				return 0, false
			}
		}
		s = strings.ReplaceAll(s, "_", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
