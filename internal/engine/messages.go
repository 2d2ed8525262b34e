package engine

import (
	"context"
	"encoding/json"

	"github.com/Runescape-Tracking/duelmate/internal/duelapi"
	"github.com/Runescape-Tracking/duelmate/internal/gamestate"
	"github.com/Runescape-Tracking/duelmate/internal/session"
)

// Msg is the sealed set of messages the engine actor accepts on its inbox.
type Msg interface{ isEngineMsg() }

// LoadMatch requests a match by code and joins it if possible.
type LoadMatch struct{ Code string }

// Tick is the per-game-tick notification from the game client.
type Tick struct{}

// ActorDeath reports that a named player died this tick.
type ActorDeath struct{ RSN string }

// ReportItems uploads the local player's inventory and gear blobs.
type ReportItems struct {
	Inventory json.RawMessage
	Gear      json.RawMessage
}

// Reset clears the current session and all in-flight state.
type Reset struct{}

// Subscribe registers an outbox for update events. The current state is sent
// immediately.
type Subscribe struct {
	ID     string
	Outbox chan Update
}

// Unsubscribe removes a subscriber.
type Unsubscribe struct{ ID string }

// GetView asks for a synchronous snapshot of engine state.
type GetView struct{ Reply chan View }

// Shutdown stops the engine loop and closes all subscriber outboxes.
type Shutdown struct{}

// resultMsg delivers a transport Result back to the loop, tagged with the op
// kind and the match code snapshotted when the request was dispatched.
type resultMsg struct {
	op   opKind
	code string
	res  duelapi.Result
}

func (LoadMatch) isEngineMsg()   {}
func (Tick) isEngineMsg()        {}
func (ActorDeath) isEngineMsg()  {}
func (ReportItems) isEngineMsg() {}
func (Reset) isEngineMsg()       {}
func (Subscribe) isEngineMsg()   {}
func (Unsubscribe) isEngineMsg() {}
func (GetView) isEngineMsg()     {}
func (Shutdown) isEngineMsg()    {}
func (resultMsg) isEngineMsg()   {}

// Update is the event delivered to subscribers once per completed transport
// operation and once per engine-initiated state change.
type Update struct {
	Session      *session.Session
	Message      string
	Raw          string
	OK           bool
	TokenRefresh bool
}

// View is a synchronous read of engine state for status endpoints and tests.
type View struct {
	Session       *session.Session
	Tick          int
	MinimapTarget *gamestate.WorldPoint
}

// Credentials identify the local player to the matchmaking service.
type Credentials struct {
	VerificationCode string
	RSN              string
}

// CredentialsProvider resolves credentials once per operation. Returning
// false aborts the operation with an advisory update and no network call.
type CredentialsProvider interface {
	Credentials() (Credentials, bool)
}

// Transport is the subset of the duelapi client the engine drives.
type Transport interface {
	GetMatch(ctx context.Context, req duelapi.BaseRequest) duelapi.Result
	Accept(ctx context.Context, req duelapi.BaseRequest, token string) duelapi.Result
	BeginMatch(ctx context.Context, req duelapi.BaseRequest, token string) duelapi.Result
	ReportResult(ctx context.Context, req duelapi.BaseRequest, token, deadRSN string) duelapi.Result
	ReportItems(ctx context.Context, req duelapi.BaseRequest, token string, inventory, gear json.RawMessage) duelapi.Result
}

// MarkerSink receives minimap/hint marker changes. The engine only calls it
// when the marker actually changes.
type MarkerSink interface {
	MarkActor(name string)
	MarkPoint(p gamestate.WorldPoint)
	ClearMarker()
}

// NopMarkerSink discards marker changes.
type NopMarkerSink struct{}

func (NopMarkerSink) MarkActor(string)               {}
func (NopMarkerSink) MarkPoint(gamestate.WorldPoint) {}
func (NopMarkerSink) ClearMarker()                   {}
