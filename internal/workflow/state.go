package workflow

import (
	"fmt"
	"slices"
	"time"

	"github.com/JaimeStill/larder/internal/recipes"
)

// State is a step of the interaction.
type State string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateDetected   State = "detected"
	StateSelecting  State = "selecting"
	StateQuerying   State = "querying"
	StateDisplaying State = "displaying"
	StateSaving     State = "saving"
)

// transitions lists the states reachable from each state. A new capture is
// reachable from every resting state. Querying may fall back to the state it
// was entered from when ranking fails, and Saving always returns to the state
// it was entered from. Idle never holds results, so it cannot save.
var transitions = map[State][]State{
	StateIdle:       {StateCapturing, StateSelecting, StateQuerying},
	StateCapturing:  {StateCapturing, StateDetected, StateSelecting, StateQuerying, StateSaving},
	StateDetected:   {StateCapturing, StateSelecting},
	StateSelecting:  {StateCapturing, StateSelecting, StateQuerying, StateSaving},
	StateQuerying:   {StateDisplaying, StateIdle, StateCapturing, StateSelecting},
	StateDisplaying: {StateCapturing, StateSelecting, StateQuerying, StateSaving},
	StateSaving:     {StateCapturing, StateSelecting, StateDisplaying},
}

// CanTransition reports whether to is reachable from from.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

func checkTransition(from, to State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// RecommendationSet is the ranked result of one search. A new search
// replaces the set as a whole and increments Version.
type RecommendationSet struct {
	Version   int              `json:"version"`
	Query     []string         `json:"query"`
	Recipes   []recipes.Recipe `json:"recipes"`
	CreatedAt time.Time        `json:"created_at"`
}

func (rs *RecommendationSet) find(id int64) (recipes.Recipe, bool) {
	if rs == nil {
		return recipes.Recipe{}, false
	}
	i := slices.IndexFunc(rs.Recipes, func(r recipes.Recipe) bool { return r.ID == id })
	if i < 0 {
		return recipes.Recipe{}, false
	}
	return rs.Recipes[i], true
}

// Level grades how a notice should be presented.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice codes.
const (
	CodeCaptureFailed        = "capture_failed"
	CodeDetectionUnavailable = "detection_unavailable"
	CodeDetected             = "detected"
	CodeEmptySelection       = "empty_selection"
	CodeNoMatches            = "no_matches"
	CodeRecipesFound         = "recipes_found"
	CodeRankingUnavailable   = "ranking_unavailable"
	CodeImagesUnavailable    = "images_unavailable"
	CodeSaved                = "saved"
	CodePersistenceFailure   = "persistence_failure"
)

// Notice is a user-facing message about the outcome of an event. Notices
// never end the session.
type Notice struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
