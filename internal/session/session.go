package session

import (
	"strings"

	"github.com/Runescape-Tracking/duelmate/internal/gamestate"
)

// Server-authoritative status values the engine recognizes. Anything else is
// treated as a pending lobby/rally phase.
const (
	StatusFighting  = "Fighting"
	StatusCompleted = "Completed"
	StatusCanceled  = "Canceled"
)

// Participant is one of the two slots in a match.
type Participant struct {
	RSN    string
	Joined bool
	Ready  bool
	// Token is the per-participant authentication token. Only the slot
	// matching the local identity ever uses its token.
	Token string
}

// Winner is the server-reported match outcome.
type Winner struct {
	RSN         string
	CombatLevel int
	Rating      int
}

// Session is an immutable snapshot of one matchmaking attempt. A new Session
// is built from every successful parse of a server response; it is never
// mutated in place.
type Session struct {
	MatchCode string
	LocalRSN  string

	Participants [2]Participant

	World       int
	Zone        string
	Status      string
	Risk        string
	GearRules   string
	Rally       *gamestate.WorldPoint
	Winner      *Winner
	TokenExpiry string

	// localIdx is the slot matching LocalRSN, -1 when neither matches.
	localIdx int
}

// Resolve fixes the local participant slot by case-insensitive comparison of
// localRSN against the two slots. First matching slot wins; matching neither
// is legal and leaves every local accessor returning absent values.
func (s *Session) Resolve(localRSN string) {
	s.LocalRSN = localRSN
	s.localIdx = -1
	for i, p := range s.Participants {
		if p.RSN != "" && strings.EqualFold(p.RSN, localRSN) {
			s.localIdx = i
			return
		}
	}
}

// Local returns the local participant slot, false if neither slot matched.
func (s *Session) Local() (Participant, bool) {
	if s.localIdx < 0 {
		return Participant{}, false
	}
	return s.Participants[s.localIdx], true
}

// Opponent returns the non-local slot, false if the local slot is unresolved.
func (s *Session) Opponent() (Participant, bool) {
	if s.localIdx < 0 {
		return Participant{}, false
	}
	return s.Participants[1-s.localIdx], true
}

// OpponentRSN is the opponent's name, empty when unresolved.
func (s *Session) OpponentRSN() string {
	p, ok := s.Opponent()
	if !ok {
		return ""
	}
	return p.RSN
}

// LocalToken is the local slot's authentication token, empty when unresolved.
func (s *Session) LocalToken() string {
	p, ok := s.Local()
	if !ok {
		return ""
	}
	return p.Token
}

func (s *Session) LocalJoined() bool {
	p, ok := s.Local()
	return ok && p.Joined
}

func (s *Session) LocalReady() bool {
	p, ok := s.Local()
	return ok && p.Ready
}

// Terminal reports whether the match has reached a final status. Polling may
// continue past this point but no begin/report transitions are expected.
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusCanceled
}

// Fighting reports whether the match is live.
func (s *Session) Fighting() bool {
	return s.Status == StatusFighting
}

// HasParticipant reports whether rsn matches either slot, case-insensitively.
func (s *Session) HasParticipant(rsn string) bool {
	for _, p := range s.Participants {
		if p.RSN != "" && strings.EqualFold(p.RSN, rsn) {
			return true
		}
	}
	return false
}
