// Package module mounts prefixed sub-applications onto a single HTTP router.
// Each module owns an inner handler and a middleware stack that only applies
// to requests under its prefix.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrEmptyPrefix   = errors.New("module prefix cannot be empty")
	ErrInvalidPrefix = errors.New("module prefix must be a single-level path such as /api")
)

// Module strips its prefix and delegates to an inner handler.
type Module struct {
	prefix string
	inner  http.Handler
	stack  []func(http.Handler) http.Handler
}

// New creates a Module for prefix. The prefix must start with a slash and
// contain exactly one path segment.
func New(prefix string, inner http.Handler) (*Module, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{
		prefix: prefix,
		inner:  inner,
	}, nil
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack. The first middleware added
// sees the request first.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.stack = append(m.stack, mw)
}

// ServeHTTP rewrites the request path relative to the prefix and dispatches
// through the module middleware.
func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h := m.inner
	for i := len(m.stack) - 1; i >= 0; i-- {
		h = m.stack[i](h)
	}
	h.ServeHTTP(w, stripPrefix(req, m.prefix))
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	r := req.Clone(req.Context())
	r.URL = new(url.URL)
	*r.URL = *req.URL
	r.URL.Path = path
	r.URL.RawPath = ""
	return r
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return ErrEmptyPrefix
	}
	if !strings.HasPrefix(prefix, "/") || strings.Count(prefix, "/") != 1 || len(prefix) == 1 {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return nil
}
