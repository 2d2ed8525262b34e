// Package engine owns the current matchmaking session and drives its state
// machine: tick-rate polling, request de-duplication per operation kind,
// proximity/interaction begin triggers, and minimap marker upkeep. All
// mutable state lives behind a single actor goroutine fed through an inbox
// channel; transport calls run in short-lived goroutines and deliver their
// Results back through the same inbox.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/Runescape-Tracking/duelmate/internal/duelapi"
	"github.com/Runescape-Tracking/duelmate/internal/gamestate"
	"github.com/Runescape-Tracking/duelmate/internal/session"
)

// One request per operation kind may be outstanding at a time.
type opKind int

const (
	opFetch opKind = iota
	opAccept
	opBegin
	opReport
	opItems
	opCount
)

var opNames = [opCount]string{"fetch", "accept", "begin", "report", "items"}

const (
	// pollEveryTicks is the fetch cadence: one poll per N game ticks.
	pollEveryTicks = 2
	// rallyRadius is how close both players must be to the rally point,
	// in tiles, before a begin request fires.
	rallyRadius = 15

	msgMissingCredentials = "verification code or display name unavailable; link your account first"
)

type markerKind int

const (
	markerNone markerKind = iota
	markerActor
	markerPoint
)

// Engine is the single authority over the current match. Send messages via
// Inbox; never call into it concurrently any other way.
type Engine struct {
	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc

	api   Transport
	obs   gamestate.Observer
	creds CredentialsProvider
	sink  MarkerSink
	log   *zap.Logger

	sess           *session.Session
	code           string
	cred           Credentials
	inflight       [opCount]bool
	resultReported bool
	tick           int

	marker          markerKind
	markerActorName string
	markerPoint     gamestate.WorldPoint

	subs map[string]chan Update
}

func New(parent context.Context, api Transport, obs gamestate.Observer, creds CredentialsProvider, sink MarkerSink, log *zap.Logger) *Engine {
	ctx, cancel := context.WithCancel(parent)
	if sink == nil {
		sink = NopMarkerSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		inbox:  make(chan Msg, 64),
		ctx:    ctx,
		cancel: cancel,
		api:    api,
		obs:    obs,
		creds:  creds,
		sink:   sink,
		log:    log,
		subs:   make(map[string]chan Update),
	}
	go e.loop()
	return e
}

// Inbox is where callers send messages. The channel is buffered; the game
// thread never blocks on a full inbox under normal load.
func (e *Engine) Inbox() chan<- Msg { return e.inbox }

func (e *Engine) loop() {
	for {
		select {
		case <-e.ctx.Done():
			e.shutdown()
			return

		case m := <-e.inbox:
			switch msg := m.(type) {
			case LoadMatch:
				e.handleLoad(msg.Code)
			case Tick:
				e.handleTick()
			case ActorDeath:
				e.handleDeath(msg.RSN)
			case ReportItems:
				e.handleItems(msg)
			case Reset:
				e.handleReset()
			case Subscribe:
				e.subs[msg.ID] = msg.Outbox
				e.send(msg.ID, msg.Outbox, Update{Session: e.sess, OK: true})
			case Unsubscribe:
				delete(e.subs, msg.ID)
			case GetView:
				msg.Reply <- View{Session: e.sess, Tick: e.tick, MinimapTarget: e.minimapTarget()}
			case resultMsg:
				e.handleResult(msg)
			case Shutdown:
				e.shutdown()
				return
			}
		}
	}
}

func (e *Engine) shutdown() {
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.cancel()
}

// handleLoad starts a fresh fetch for the given match code. Missing
// credentials abort with an advisory update and no network call; a fetch
// already in flight makes this a no-op.
func (e *Engine) handleLoad(code string) {
	if e.inflight[opFetch] {
		return
	}
	cred, ok := e.creds.Credentials()
	if !ok || cred.VerificationCode == "" || cred.RSN == "" {
		e.log.Warn("load match aborted: no credentials", zap.String("match", code))
		e.broadcast(Update{Message: msgMissingCredentials})
		return
	}
	if code != e.code {
		e.clearMatchState()
	}
	e.code = code
	e.cred = cred
	e.dispatch(opFetch, func(ctx context.Context, req duelapi.BaseRequest) duelapi.Result {
		return e.api.GetMatch(ctx, req)
	})
}

func (e *Engine) handleTick() {
	if e.sess == nil {
		e.clearMarker()
		return
	}
	e.tick++
	if e.tick%pollEveryTicks == 0 && !e.inflight[opFetch] {
		e.dispatch(opFetch, func(ctx context.Context, req duelapi.BaseRequest) duelapi.Result {
			return e.api.GetMatch(ctx, req)
		})
	}
	e.evaluateMarker()
	e.evaluateBegin()
}

// evaluateBegin fires a begin-match request the instant the readiness
// condition holds: both players gathered at the rally point on its plane, or
// the two locked onto each other in direct combat with no rally set.
func (e *Engine) evaluateBegin() {
	if e.inflight[opBegin] || e.sess.LocalReady() || e.sess.Fighting() || e.sess.Terminal() {
		return
	}
	oppRSN := e.sess.OpponentRSN()
	if oppRSN == "" {
		return
	}
	local, ok := e.obs.LocalPlayer()
	if !ok {
		return
	}
	opp, ok := e.obs.FindPlayer(oppRSN)
	if !ok {
		return
	}

	atRally := e.sess.Rally != nil &&
		local.Position.WithinTiles(*e.sess.Rally, rallyRadius) &&
		opp.Position.WithinTiles(*e.sess.Rally, rallyRadius)
	engaged := local.InteractingWith(opp.Name) && opp.InteractingWith(local.Name)
	if !atRally && !engaged {
		return
	}

	token := e.sess.LocalToken()
	e.log.Info("begin conditions met",
		zap.String("match", e.code),
		zap.Bool("at_rally", atRally),
		zap.Bool("engaged", engaged),
	)
	e.dispatch(opBegin, func(ctx context.Context, req duelapi.BaseRequest) duelapi.Result {
		return e.api.BeginMatch(ctx, req, token)
	})
}

// evaluateMarker keeps the minimap marker current, replacing it only when
// the target actually changes.
func (e *Engine) evaluateMarker() {
	if e.sess == nil || e.sess.Terminal() {
		e.clearMarker()
		return
	}
	if e.sess.Fighting() {
		if oppRSN := e.sess.OpponentRSN(); oppRSN != "" {
			if opp, ok := e.obs.FindPlayer(oppRSN); ok {
				e.setActorMarker(opp.Name)
				return
			}
		}
		e.clearMarker()
		return
	}
	if e.sess.Rally != nil {
		e.setPointMarker(*e.sess.Rally)
		return
	}
	e.clearMarker()
}

func (e *Engine) handleDeath(rsn string) {
	if e.sess == nil || e.inflight[opReport] || e.resultReported {
		return
	}
	if !e.sess.HasParticipant(rsn) {
		return
	}
	token := e.sess.LocalToken()
	e.log.Info("reporting death", zap.String("match", e.code), zap.String("rsn", rsn))
	e.dispatch(opReport, func(ctx context.Context, req duelapi.BaseRequest) duelapi.Result {
		return e.api.ReportResult(ctx, req, token, rsn)
	})
}

func (e *Engine) handleItems(msg ReportItems) {
	if e.sess == nil || e.inflight[opItems] {
		return
	}
	token := e.sess.LocalToken()
	e.dispatch(opItems, func(ctx context.Context, req duelapi.BaseRequest) duelapi.Result {
		return e.api.ReportItems(ctx, req, token, msg.Inventory, msg.Gear)
	})
}

func (e *Engine) handleReset() {
	e.clearMatchState()
	e.code = ""
	e.cred = Credentials{}
	e.broadcast(Update{OK: true})
}

// clearMatchState drops the session and every per-match flag. The stored
// code/credentials are left to the caller: a reset clears them, a load to a
// new code overwrites them.
func (e *Engine) clearMatchState() {
	e.sess = nil
	e.inflight = [opCount]bool{}
	e.resultReported = false
	e.tick = 0
	e.clearMarker()
}

// dispatch runs one transport call off the loop goroutine. The in-flight
// flag for the op kind is set here and cleared when the result message comes
// back; the match code is snapshotted so a result landing after a reset or a
// re-load is recognized as stale and discarded.
func (e *Engine) dispatch(op opKind, call func(ctx context.Context, req duelapi.BaseRequest) duelapi.Result) {
	e.inflight[op] = true
	code := e.code
	req := duelapi.BaseRequest{
		VerificationCode: e.cred.VerificationCode,
		MatchCode:        code,
		RSN:              e.cred.RSN,
	}
	go func() {
		res := call(e.ctx, req)
		select {
		case e.inbox <- resultMsg{op: op, code: code, res: res}:
		case <-e.ctx.Done():
		}
	}()
}

func (e *Engine) handleResult(msg resultMsg) {
	if msg.code != e.code {
		e.log.Debug("dropping stale result",
			zap.String("op", opNames[msg.op]),
			zap.String("match", msg.code),
			zap.String("current", e.code),
		)
		return
	}
	e.inflight[msg.op] = false
	res := msg.res

	e.broadcast(Update{
		Session:      res.Session,
		Message:      res.Message,
		Raw:          res.Raw,
		OK:           res.OK,
		TokenRefresh: res.TokenRefresh,
	})

	// A token-refresh signal is not a failure: re-fetch the match to pick
	// up a fresh token, regardless of which operation was answered.
	if res.TokenRefresh {
		e.refreshToken()
	}

	if !res.OK {
		if res.Message != "" {
			e.log.Debug("operation failed", zap.String("op", opNames[msg.op]), zap.String("message", res.Message))
		}
		return
	}
	if res.Session != nil {
		e.sess = res.Session
		if e.sess.Terminal() {
			e.resultReported = true
		}
	}
	if msg.op == opFetch {
		e.maybeAccept()
	}
}

// maybeAccept joins the local participant after a fetch that shows them in a
// slot but not yet joined.
func (e *Engine) maybeAccept() {
	if e.sess == nil || e.inflight[opAccept] {
		return
	}
	local, ok := e.sess.Local()
	if !ok || local.Joined {
		return
	}
	token := local.Token
	e.log.Info("accepting match", zap.String("match", e.code))
	e.dispatch(opAccept, func(ctx context.Context, req duelapi.BaseRequest) duelapi.Result {
		return e.api.Accept(ctx, req, token)
	})
}

// refreshToken fires a fetch against the current code with the stored
// credentials. Fire-and-forget: the triggering operation is not retried.
func (e *Engine) refreshToken() {
	if e.code == "" || e.inflight[opFetch] {
		return
	}
	e.log.Info("token refresh requested", zap.String("match", e.code))
	e.dispatch(opFetch, func(ctx context.Context, req duelapi.BaseRequest) duelapi.Result {
		return e.api.GetMatch(ctx, req)
	})
}

// minimapTarget is the pure read behind GetView: the opponent's live
// position while fighting, else the rally point until the match ends.
func (e *Engine) minimapTarget() *gamestate.WorldPoint {
	if e.sess == nil {
		return nil
	}
	if e.sess.Fighting() {
		if oppRSN := e.sess.OpponentRSN(); oppRSN != "" {
			if opp, ok := e.obs.FindPlayer(oppRSN); ok {
				p := opp.Position
				return &p
			}
		}
	}
	if e.sess.Rally != nil && !e.sess.Terminal() {
		p := *e.sess.Rally
		return &p
	}
	return nil
}

func (e *Engine) setActorMarker(name string) {
	if e.marker == markerActor && e.markerActorName == name {
		return
	}
	e.marker = markerActor
	e.markerActorName = name
	e.sink.MarkActor(name)
}

func (e *Engine) setPointMarker(p gamestate.WorldPoint) {
	if e.marker == markerPoint && e.markerPoint == p {
		return
	}
	e.marker = markerPoint
	e.markerPoint = p
	e.sink.MarkPoint(p)
}

func (e *Engine) clearMarker() {
	if e.marker == markerNone {
		return
	}
	e.marker = markerNone
	e.markerActorName = ""
	e.sink.ClearMarker()
}

func (e *Engine) broadcast(u Update) {
	for id, ch := range e.subs {
		e.send(id, ch, u)
	}
}

// send delivers to one subscriber, dropping it if its outbox is full.
func (e *Engine) send(id string, ch chan Update, u Update) {
	select {
	case ch <- u:
	default:
		close(ch)
		delete(e.subs, id)
	}
}
