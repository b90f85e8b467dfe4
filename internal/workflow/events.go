package workflow

import (
	"io"

	"github.com/JaimeStill/larder/internal/capture"
	"github.com/JaimeStill/larder/internal/detection"
	"github.com/JaimeStill/larder/internal/nutrition"
)

// EventKind names a user action.
type EventKind string

const (
	EventCapture   EventKind = "capture"
	EventSelection EventKind = "selection"
	EventSearch    EventKind = "search"
	EventSave      EventKind = "save"
	EventCamera    EventKind = "camera"
)

// Event is one user action. Only the fields relevant to Kind are read.
type Event struct {
	Kind EventKind

	Source capture.Source
	Image  io.Reader

	Ingredients []string

	RecipeID int64

	// CameraActive sets the camera state; nil toggles it.
	CameraActive *bool
}

func CaptureEvent(source capture.Source, image io.Reader) Event {
	return Event{Kind: EventCapture, Source: source, Image: image}
}

// SelectionEvent replaces the manual selection. An empty list clears it so
// the detected default applies again.
func SelectionEvent(ingredients []string) Event {
	return Event{Kind: EventSelection, Ingredients: ingredients}
}

func SearchEvent() Event {
	return Event{Kind: EventSearch}
}

func SaveEvent(recipeID int64) Event {
	return Event{Kind: EventSave, RecipeID: recipeID}
}

func CameraEvent(active *bool) Event {
	return Event{Kind: EventCamera, CameraActive: active}
}

// Outcome reports the result of an event together with the session state
// after it ran.
type Outcome struct {
	Kind      EventKind         `json:"kind"`
	Notices   []Notice          `json:"notices"`
	Detection *detection.Result `json:"detection,omitempty"`
	Images    map[int64]string  `json:"images,omitempty"`
	Entry     *nutrition.Entry  `json:"entry,omitempty"`
	Session   Snapshot          `json:"session"`
}

func (o *Outcome) notify(level Level, code, message string) {
	o.Notices = append(o.Notices, Notice{Level: level, Code: code, Message: message})
}
