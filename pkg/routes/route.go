package routes

import "net/http"

// Route binds an HTTP method and a pattern relative to its group.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
