package hub

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/Runescape-Tracking/duelmate/internal/engine"
	"github.com/Runescape-Tracking/duelmate/internal/gamestate"
)

// Routes builds the bridge's HTTP surface.
func (b *Bridge) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", healthz)
	r.Get("/session", b.sessionHandler)
	r.Get("/ws", b.wsHandler)
	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// sessionHandler serves the current engine view as JSON.
func (b *Bridge) sessionHandler(w http.ResponseWriter, r *http.Request) {
	reply := make(chan engine.View, 1)
	b.eng.Inbox() <- engine.GetView{Reply: reply}

	var view engine.View
	select {
	case view = <-reply:
	case <-time.After(2 * time.Second):
		http.Error(w, "engine not responding", http.StatusServiceUnavailable)
		return
	}

	out := struct {
		Session       *SessionDTO           `json:"session"`
		Tick          int                   `json:"tick"`
		MinimapTarget *gamestate.WorldPoint `json:"minimap_target,omitempty"`
	}{
		Session:       dtoFromSession(view.Session),
		Tick:          view.Tick,
		MinimapTarget: view.MinimapTarget,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// wsHandler streams session updates to one display client.
func (b *Bridge) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	out := make(chan ServerMessage, 8)
	clientID := randID(6)

	b.inbox <- join{ID: clientID, Outbox: out}
	defer func() {
		select {
		case b.inbox <- leave{ID: clientID}:
		case <-b.ctx.Done():
		}
	}()

	writeCtx, writeCancel := context.WithCancel(r.Context())
	defer writeCancel()
	go func() {
		for msg := range out {
			payload, _ := json.Marshal(msg)
			ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
			_ = conn.Write(ctx, websocket.MessageText, payload)
			cancel()
		}
	}()

	// Display clients only listen; the read loop just watches for close.
	for {
		_, _, err := conn.Read(r.Context())
		if err != nil {
			return
		}
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
