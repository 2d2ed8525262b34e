// Package hub bridges engine update events to display clients: a chi router
// exposing the current session snapshot plus a websocket feed of updates.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/Runescape-Tracking/duelmate/internal/engine"
)

type hubMsg interface{ isHubMsg() }

type join struct {
	ID     string
	Outbox chan ServerMessage
}

type leave struct{ ID string }

type forward struct{ Update engine.Update }

type shutdown struct{}

func (join) isHubMsg()     {}
func (leave) isHubMsg()    {}
func (forward) isHubMsg()  {}
func (shutdown) isHubMsg() {}

// Bridge fans engine updates out to websocket clients. Same single-owner
// loop shape as the engine itself: all client bookkeeping happens on one
// goroutine fed by an inbox channel.
type Bridge struct {
	inbox   chan hubMsg
	eng     *engine.Engine
	clients map[string]chan ServerMessage
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBridge(parent context.Context, eng *engine.Engine, log *zap.Logger) *Bridge {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bridge{
		inbox:   make(chan hubMsg, 64),
		eng:     eng,
		clients: make(map[string]chan ServerMessage),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	updates := make(chan engine.Update, 16)
	eng.Inbox() <- engine.Subscribe{ID: "hub-bridge", Outbox: updates}
	go b.pump(updates)
	go b.loop()
	return b
}

// pump moves engine updates onto the bridge inbox.
func (b *Bridge) pump(updates <-chan engine.Update) {
	for {
		select {
		case <-b.ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			select {
			case b.inbox <- forward{Update: u}:
			case <-b.ctx.Done():
				return
			}
		}
	}
}

func (b *Bridge) loop() {
	for {
		select {
		case <-b.ctx.Done():
			b.shutdown()
			return

		case m := <-b.inbox:
			switch msg := m.(type) {
			case join:
				b.clients[msg.ID] = msg.Outbox
				b.log.Debug("display client joined", zap.String("client", msg.ID))

			case leave:
				// Closing the outbox ends the client's writer goroutine. A
				// client already dropped as slow is gone from the map and its
				// channel already closed.
				if ch, ok := b.clients[msg.ID]; ok {
					close(ch)
					delete(b.clients, msg.ID)
				}

			case forward:
				wire := messageFromUpdate(msg.Update)
				for id, ch := range b.clients {
					select {
					case ch <- wire:
					default:
						// Slow display client: drop it.
						close(ch)
						delete(b.clients, id)
					}
				}

			case shutdown:
				b.shutdown()
				return
			}
		}
	}
}

func (b *Bridge) shutdown() {
	for id, ch := range b.clients {
		close(ch)
		delete(b.clients, id)
	}
	b.cancel()
}

// Close stops the bridge loop and disconnects all clients.
func (b *Bridge) Close() {
	select {
	case b.inbox <- shutdown{}:
	case <-b.ctx.Done():
	}
}
