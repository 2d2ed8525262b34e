package hub

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Runescape-Tracking/duelmate/internal/engine"
	"github.com/Runescape-Tracking/duelmate/internal/gamestate"
	"github.com/Runescape-Tracking/duelmate/internal/session"
)

func TestMessageFromUpdateOmitsTokens(t *testing.T) {
	s := &session.Session{MatchCode: "M1", Status: session.StatusFighting, World: 330}
	s.Participants[0] = session.Participant{RSN: "Alice", Joined: true, Token: "secret-1"}
	s.Participants[1] = session.Participant{RSN: "Bob", Joined: true, Token: "secret-2"}
	s.Resolve("Alice")
	s.Rally = &gamestate.WorldPoint{X: 1, Y: 2, Plane: 0}

	msg := messageFromUpdate(engine.Update{Session: s, OK: true})
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(payload), "secret-1") || strings.Contains(string(payload), "secret-2") {
		t.Fatalf("tokens leaked to display clients: %s", payload)
	}

	if msg.Session == nil {
		t.Fatalf("session missing")
	}
	if msg.Session.Opponent != "Bob" {
		t.Fatalf("opponent = %q", msg.Session.Opponent)
	}
	if !msg.Session.LocalJoined {
		t.Fatalf("local joined flag lost")
	}
	if msg.Session.Rally == nil || msg.Session.Rally.X != 1 {
		t.Fatalf("rally lost: %+v", msg.Session.Rally)
	}
}

func TestMessageFromUpdateWithoutSession(t *testing.T) {
	msg := messageFromUpdate(engine.Update{Message: "boom", OK: false})
	if msg.Session != nil {
		t.Fatalf("expected nil session DTO")
	}
	if msg.Type != "SessionUpdate" || msg.Message != "boom" {
		t.Fatalf("frame wrong: %+v", msg)
	}
}
