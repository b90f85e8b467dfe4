// Package recipes holds the recipe record returned by the ranking service
// and HTTP clients for the ranking and recipe image services.
package recipes

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Grade is a nutrition grade from A (best) to E (worst).
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

var gradeColors = map[Grade]string{
	GradeA: "green",
	GradeB: "yellow",
	GradeC: "orange",
	GradeD: "purple",
	GradeE: "red",
}

// ParseGrade accepts a grade letter in either case.
func ParseGrade(s string) (Grade, error) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := gradeColors[g]; !ok {
		return "", fmt.Errorf("%w: grade %q", ErrInvalidRecipe, s)
	}
	return g, nil
}

// Color is the badge colour used when displaying the grade.
func (g Grade) Color() string {
	return gradeColors[g]
}

// Label renders the grade as a badge such as "A (green)".
func (g Grade) Label() string {
	if c, ok := gradeColors[g]; ok {
		return string(g) + " (" + c + ")"
	}
	return string(g)
}

// Recipe is one ranked recipe. Nutrition fields are optional because the
// ranking corpus does not guarantee them; nil means absent.
type Recipe struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Minutes         int      `json:"minutes"`
	Description     string   `json:"description"`
	Grade           Grade    `json:"grade"`
	Calories        *float64 `json:"calories"`
	IngredientsList string   `json:"ingredients_list"`
	TotalFat        *float64 `json:"total_fat_PDV"`
	Sugar           *float64 `json:"sugar_PDV"`
	Sodium          *float64 `json:"sodium_PDV"`
	Protein         *float64 `json:"protein_PDV"`
	SaturatedFat    *float64 `json:"saturated_fat_PDV"`
	Carbohydrates   *float64 `json:"carbohydrates_PDV"`
}

// UnmarshalJSON accepts id and minutes as any JSON number, so values a
// dataframe serialises as 30.0 decode the same as 30. A fractional id is
// rejected.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type plain Recipe
	aux := struct {
		*plain
		ID      json.Number `json:"id"`
		Minutes json.Number `json:"minutes"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := wholeNumber(aux.ID)
	if err != nil || id != math.Trunc(id) {
		return fmt.Errorf("%w: id %q is not an integer", ErrInvalidRecipe, aux.ID)
	}
	minutes, err := wholeNumber(aux.Minutes)
	if err != nil {
		return fmt.Errorf("%w: minutes %q: %v", ErrInvalidRecipe, aux.Minutes, err)
	}

	r.ID = int64(id)
	r.Minutes = int(math.Round(minutes))
	return nil
}

func wholeNumber(n json.Number) (float64, error) {
	if n == "" {
		return 0, nil
	}
	return n.Float64()
}

// Ingredients splits IngredientsList into display names.
func (r Recipe) Ingredients() []string {
	return ParseIngredients(r.IngredientsList)
}

// URL links to the recipe page on food.com.
func (r Recipe) URL() string {
	return RecipeURL(r.Name, r.ID)
}

// ParseIngredients splits a ", " delimited list such as `["eggs", "milk"]`
// and trims quotes, brackets and spaces from each entry.
func ParseIngredients(list string) []string {
	if strings.TrimSpace(list) == "" {
		return []string{}
	}
	parts := strings.Split(list, ", ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, `"[] `); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RecipeURL builds the food.com address for a recipe name and id.
func RecipeURL(name string, id int64) string {
	slug := strings.ReplaceAll(strings.ToLower(name), " ", "-")
	return "https://www.food.com/recipe/" + slug + "-" + strconv.FormatInt(id, 10)
}

func (r Recipe) validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("%w: missing id", ErrInvalidRecipe)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: recipe %d has no name", ErrInvalidRecipe, r.ID)
	}
	if _, ok := gradeColors[r.Grade]; !ok {
		return fmt.Errorf("%w: recipe %d has grade %q", ErrInvalidRecipe, r.ID, r.Grade)
	}
	return nil
}
