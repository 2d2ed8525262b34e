package history

import (
	"testing"

	"go.uber.org/zap"

	"github.com/Runescape-Tracking/duelmate/internal/session"
)

func finishedSession(code string) *session.Session {
	return &session.Session{
		MatchCode: code,
		Participants: [2]session.Participant{
			{RSN: "Alice", Joined: true, Ready: true},
			{RSN: "Bob", Joined: true, Ready: true},
		},
		World:  302,
		Zone:   "duel-arena",
		Status: session.StatusCompleted,
		Winner: &session.Winner{RSN: "Alice", CombatLevel: 110, Rating: 1540},
	}
}

func newTestRecorder() *Recorder {
	return &Recorder{log: zap.NewNop(), seen: make(map[string]bool)}
}

func TestShouldRecordCompletedWithWinner(t *testing.T) {
	r := newTestRecorder()
	if !r.shouldRecord(finishedSession("DUEL-1")) {
		t.Fatal("completed session with winner should be recorded")
	}
}

func TestShouldRecordSkipsCompletedWithoutWinner(t *testing.T) {
	r := newTestRecorder()
	s := finishedSession("DUEL-1")
	s.Winner = nil
	if r.shouldRecord(s) {
		t.Fatal("completed session without winner payload must not be recorded")
	}
}

func TestShouldRecordSkipsCanceled(t *testing.T) {
	r := newTestRecorder()
	s := finishedSession("DUEL-1")
	s.Status = session.StatusCanceled
	if r.shouldRecord(s) {
		t.Fatal("canceled session must not be recorded")
	}
}

func TestShouldRecordSkipsEmptyMatchCode(t *testing.T) {
	r := newTestRecorder()
	s := finishedSession("")
	if r.shouldRecord(s) {
		t.Fatal("session without match code must not be recorded")
	}
}

func TestShouldRecordDedupesByMatchCode(t *testing.T) {
	r := newTestRecorder()
	s := finishedSession("DUEL-1")
	if !r.shouldRecord(s) {
		t.Fatal("first update for a match should be recorded")
	}
	r.seen[s.MatchCode] = true
	if r.shouldRecord(s) {
		t.Fatal("second update for the same match must not produce another row")
	}
	other := finishedSession("DUEL-2")
	if !r.shouldRecord(other) {
		t.Fatal("a different match code is unaffected by the dedupe")
	}
}
