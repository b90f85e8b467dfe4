// Package users reads user profiles and daily calorie burn from PostgreSQL.
package users

import (
	"database/sql"
	"time"

	"github.com/JaimeStill/larder/internal/energy"
	"github.com/JaimeStill/larder/pkg/repository"
)

// User is a stored account with the biometrics used for energy estimates.
// Biometric fields are optional in the store.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	BirthDate string    `json:"birth_date,omitempty"`
	Weight    *float64  `json:"weight_kg,omitempty"`
	Height    *float64  `json:"height_cm,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile converts the stored biometrics for energy estimation. Absent or
// zero values become nil so the estimator applies its defaults.
func (u User) Profile() energy.Profile {
	p := energy.Profile{BirthDate: u.BirthDate, Gender: u.Gender}
	if u.Weight != nil && *u.Weight != 0 {
		p.Weight = *u.Weight
	}
	if u.Height != nil && *u.Height != 0 {
		p.Height = *u.Height
	}
	return p
}

const userColumns = `id, username, to_char(birth_date, 'YYYY-MM-DD'), weight_kg, height_cm, gender, created_at`

func scanUser(s repository.Scanner) (User, error) {
	var (
		u      User
		birth  sql.NullString
		weight sql.NullFloat64
		height sql.NullFloat64
		gender sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Username, &birth, &weight, &height, &gender, &u.CreatedAt); err != nil {
		return User{}, err
	}

	u.BirthDate = birth.String
	u.Gender = gender.String
	if weight.Valid {
		u.Weight = &weight.Float64
	}
	if height.Valid {
		u.Height = &height.Float64
	}
	return u, nil
}

func scanBurn(s repository.Scanner) (float64, error) {
	var burn sql.NullFloat64
	if err := s.Scan(&burn); err != nil {
		return 0, err
	}
	return burn.Float64, nil
}
