package hub

import (
	"github.com/Runescape-Tracking/duelmate/internal/engine"
	"github.com/Runescape-Tracking/duelmate/internal/gamestate"
	"github.com/Runescape-Tracking/duelmate/internal/session"
)

// ServerMessage is the JSON frame sent to display clients.
type ServerMessage struct {
	Type         string      `json:"type"` // "SessionUpdate"
	Session      *SessionDTO `json:"session,omitempty"`
	Message      string      `json:"message,omitempty"`
	OK           bool        `json:"ok"`
	TokenRefresh bool        `json:"token_refresh,omitempty"`
}

type PlayerDTO struct {
	RSN    string `json:"rsn"`
	Joined bool   `json:"joined"`
	Ready  bool   `json:"ready"`
}

type WinnerDTO struct {
	RSN         string `json:"rsn"`
	CombatLevel int    `json:"combat_level"`
	Rating      int    `json:"rating"`
}

// SessionDTO is the display shape of a session. Tokens never leave the
// engine.
type SessionDTO struct {
	MatchCode   string                `json:"match_code"`
	Status      string                `json:"status"`
	World       int                   `json:"world"`
	Zone        string                `json:"zone"`
	Risk        string                `json:"risk,omitempty"`
	GearRules   string                `json:"gear_rules,omitempty"`
	Players     [2]PlayerDTO          `json:"players"`
	Rally       *gamestate.WorldPoint `json:"rally,omitempty"`
	Winner      *WinnerDTO            `json:"winner,omitempty"`
	Opponent    string                `json:"opponent,omitempty"`
	LocalJoined bool                  `json:"local_joined"`
	LocalReady  bool                  `json:"local_ready"`
}

func dtoFromSession(s *session.Session) *SessionDTO {
	if s == nil {
		return nil
	}
	dto := &SessionDTO{
		MatchCode:   s.MatchCode,
		Status:      s.Status,
		World:       s.World,
		Zone:        s.Zone,
		Risk:        s.Risk,
		GearRules:   s.GearRules,
		Rally:       s.Rally,
		Opponent:    s.OpponentRSN(),
		LocalJoined: s.LocalJoined(),
		LocalReady:  s.LocalReady(),
	}
	for i, p := range s.Participants {
		dto.Players[i] = PlayerDTO{RSN: p.RSN, Joined: p.Joined, Ready: p.Ready}
	}
	if s.Winner != nil {
		dto.Winner = &WinnerDTO{RSN: s.Winner.RSN, CombatLevel: s.Winner.CombatLevel, Rating: s.Winner.Rating}
	}
	return dto
}

func messageFromUpdate(u engine.Update) ServerMessage {
	return ServerMessage{
		Type:         "SessionUpdate",
		Session:      dtoFromSession(u.Session),
		Message:      u.Message,
		OK:           u.OK,
		TokenRefresh: u.TokenRefresh,
	}
}
