package duelapi

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Runescape-Tracking/duelmate/internal/gamestate"
	"github.com/Runescape-Tracking/duelmate/internal/session"
)

// normalize turns a raw response body plus the HTTP status verdict into a
// Result. The server answers some endpoints with a JSON object, some with a
// bare primitive, and some with plain text, so the body is classified once
// and the Result built from that single classification.
func normalize(httpOK bool, raw []byte) Result {
	shape := classify(raw)
	res := Result{Raw: string(raw)}

	switch shape.kind {
	case shapeEmpty:
		return res

	case shapePrimitive:
		res.OK = httpOK && shape.truthy
		res.Message = shape.msg
		return res

	case shapeRawFallback:
		res.Message = shape.msg
		return res

	case shapeStructured:
		res.Message = coerceString(shape.obj["message"])
		res.TokenRefresh = coerceBool(shape.obj["token_refresh"]) || coerceBool(shape.obj["refresh_token"])
		res.OK = httpOK
		if res.OK {
			res.Session = sessionFromObject(shape.obj)
		}
		return res
	}
	return res
}

// classify resolves the body to one shape: empty, primitive, structured
// object, or raw fallback text.
func classify(raw []byte) bodyShape {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return bodyShape{kind: shapeEmpty}
	}

	// Bodies that cannot be JSON containers get the cheap primitive check
	// first; the server answers several endpoints with bare true/false.
	first := trimmed[0]
	if first != '{' && first != '[' && first != '"' {
		if truthy, ok := primitivePrefix(trimmed); ok {
			return bodyShape{kind: shapePrimitive, truthy: truthy}
		}
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		// Unparsable: retry the primitive rule against the whole body,
		// else surface the text itself as the failure message.
		if truthy, ok := primitivePrefix(trimmed); ok {
			return bodyShape{kind: shapePrimitive, truthy: truthy}
		}
		return bodyShape{kind: shapeRawFallback, msg: trimmed}
	}

	switch v := decoded.(type) {
	case map[string]any:
		return bodyShape{kind: shapeStructured, obj: v}
	case bool:
		return bodyShape{kind: shapePrimitive, truthy: v}
	case float64:
		return bodyShape{kind: shapePrimitive, truthy: v != 0}
	case string:
		truthy, _ := primitivePrefix(v)
		return bodyShape{kind: shapePrimitive, truthy: truthy, msg: v}
	default:
		// JSON arrays and nulls carry no usable verdict.
		return bodyShape{kind: shapeRawFallback, msg: trimmed}
	}
}

// primitivePrefix applies the server's loose boolean convention: a body
// starting (case-insensitively) with true/1 is success, false/0 is failure.
func primitivePrefix(s string) (truthy, matched bool) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "true"), strings.HasPrefix(lower, "1"):
		return true, true
	case strings.HasPrefix(lower, "false"), strings.HasPrefix(lower, "0"):
		return false, true
	}
	return false, false
}

// sessionFromObject maps the structured response onto a Session. Every field
// is optional: missing or null values default to zero values rather than
// failing the parse.
func sessionFromObject(obj map[string]any) *session.Session {
	s := &session.Session{
		MatchCode: coerceString(obj["match_code"]),
		World:     coerceInt(obj["world"]),
		Zone:      coerceString(obj["zone"]),
		Status:    coerceString(obj["status"]),
		Risk:      coerceString(obj["risk"]),
		GearRules: opaqueString(obj["gear_rules"]),
	}

	s.Participants[0] = session.Participant{
		RSN:    coerceString(obj["player1_osrs_username"]),
		Joined: coerceBool(obj["player1_joined"]),
		Ready:  coerceBool(obj["player1_ready_to_fight"]),
		Token:  coerceString(obj["player1_authentication_token"]),
	}
	s.Participants[1] = session.Participant{
		RSN:    coerceString(obj["player2_osrs_username"]),
		Joined: coerceBool(obj["player2_joined"]),
		Ready:  coerceBool(obj["player2_ready_to_fight"]),
		Token:  coerceString(obj["player2_authentication_token"]),
	}

	if rally, ok := obj["rally"].(map[string]any); ok {
		s.Rally = &gamestate.WorldPoint{
			X:     coerceInt(rally["x"]),
			Y:     coerceInt(rally["y"]),
			Plane: coerceInt(rally["plane"]),
		}
	}
	if winner, ok := obj["winner"].(map[string]any); ok {
		s.Winner = &session.Winner{
			RSN:         coerceString(winner["osrs_rsn"]),
			CombatLevel: coerceInt(winner["combat_level"]),
			Rating:      coerceInt(winner["elo"]),
		}
	}
	if auth, ok := obj["authentication"].(map[string]any); ok {
		s.TokenExpiry = coerceString(auth["expires_at"])
	}
	return s
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func coerceInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		truthy, _ := primitivePrefix(t)
		return truthy
	}
	return false
}

// opaqueString captures a field that may arrive as a string, object, or
// array. Containers are re-serialized so the engine can treat gear rules as
// an opaque blob.
func opaqueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
