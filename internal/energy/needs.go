package energy

import (
	"fmt"
	"time"
)

// BirthDateLayout is the date format used by the user store.
const BirthDateLayout = "2006-01-02"

// Profile carries the biometric fields used for energy estimation.
// Fields are kept loosely typed because the user store does not enforce them.
type Profile struct {
	Weight    any
	Height    any
	BirthDate string
	Gender    string
}

// Needs summarises a user's daily energy figures.
type Needs struct {
	BMR       float64 `json:"bmr"`
	DailyBurn float64 `json:"daily_burn"`
	TDEE      float64 `json:"tdee"`
	Age       int     `json:"age"`
}

// Estimate computes Needs for p on the given day. A missing or malformed
// birth date falls back to DefaultAge.
func Estimate(p Profile, dailyBurn float64, today time.Time) Needs {
	age := DefaultAge
	if birth, err := time.Parse(BirthDateLayout, p.BirthDate); err == nil {
		age = Age(birth, today)
	}

	bmr := BMR(p.Weight, p.Height, age, p.Gender)
	return Needs{
		BMR:       bmr,
		DailyBurn: dailyBurn,
		TDEE:      TDEE(bmr, dailyBurn),
		Age:       age,
	}
}

// Guidance describes the intake band around TDEE: eating below it loses
// weight and eating above it gains weight.
func (n Needs) Guidance() string {
	return fmt.Sprintf("lose weight < %.0f cal/day < gain weight", n.TDEE)
}

// Balance classifies an intake of calories per day against TDEE.
func (n Needs) Balance(intake float64) string {
	switch {
	case intake < n.TDEE:
		return "deficit"
	case intake > n.TDEE:
		return "surplus"
	default:
		return "maintenance"
	}
}
