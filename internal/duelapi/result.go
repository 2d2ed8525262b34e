// Package duelapi is the HTTP client for the duel matchmaking service. It
// builds one request per protocol operation and normalizes whatever the
// server sends back (a JSON object, a bare primitive, or opaque text) into a
// Result the engine can apply without re-parsing.
package duelapi

import "github.com/Runescape-Tracking/duelmate/internal/session"

// Result is the normalized outcome of one transport call. OK=false implies
// Session is nil; Message and Raw are diagnostic only when OK.
type Result struct {
	Session      *session.Session
	Message      string
	Raw          string
	OK           bool
	TokenRefresh bool
}

// shapeKind tags the one-shot classification of a response body. The body is
// resolved to exactly one shape at parse time and never re-examined.
type shapeKind int

const (
	shapeEmpty shapeKind = iota
	shapePrimitive
	shapeStructured
	shapeRawFallback
)

type bodyShape struct {
	kind shapeKind
	// truthy is the coerced success of a primitive body.
	truthy bool
	// msg carries a string primitive's value or the raw fallback text.
	msg string
	// obj is the decoded object for shapeStructured.
	obj map[string]any
}
