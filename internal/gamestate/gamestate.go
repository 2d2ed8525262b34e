package gamestate

import "strings"

// WorldPoint is a tile coordinate in the game world.
type WorldPoint struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Plane int `json:"plane"`
}

// TileDistance returns the Chebyshev distance between two points, ignoring plane.
func (p WorldPoint) TileDistance(o WorldPoint) int {
	dx := p.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - o.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// WithinTiles reports whether o is within radius tiles of p on the same plane.
func (p WorldPoint) WithinTiles(o WorldPoint, radius int) bool {
	return p.Plane == o.Plane && p.TileDistance(o) <= radius
}

// Actor is a live player as seen by the game client this cycle.
// Interacting holds the display name of the actor's current interaction
// target, empty when the actor is idle.
type Actor struct {
	Name        string
	Position    WorldPoint
	Interacting string
}

// InteractingWith reports whether the actor's current target is name
// (case-insensitive, the game's display-name comparison).
func (a Actor) InteractingWith(name string) bool {
	return a.Interacting != "" && strings.EqualFold(a.Interacting, name)
}

// Observer is the inbound view of the running game client. Implementations
// must be safe to call from the engine goroutine; lookups reflect the most
// recent game tick.
type Observer interface {
	// LocalPlayer returns the logged-in player, false if not logged in.
	LocalPlayer() (Actor, bool)
	// FindPlayer resolves a display name to a live actor, false if the
	// player is not currently rendered. Matching is case-insensitive.
	FindPlayer(name string) (Actor, bool)
}

// NopObserver resolves nothing. Used by the headless daemon and tests.
type NopObserver struct{}

func (NopObserver) LocalPlayer() (Actor, bool)      { return Actor{}, false }
func (NopObserver) FindPlayer(string) (Actor, bool) { return Actor{}, false }
