package room

import (
	"time"

	"github.com/wfunc/flowerzone/models"
	"github.com/wfunc/flowerzone/protocol"
	"github.com/wfunc/flowerzone/state"
)

// Room is one isolated game instance. It is owned by the Manager and only
// touched from the event loop.
type Room struct {
	Code      string
	HostID    string
	CreatedAt time.Time

	// serial tells this room apart from a later room that reuses its code.
	serial uint64

	players      []*models.Player // join order
	lifecycle    *state.StateMachine
	zone         models.SafeZone
	collectibles []*models.Collectible
	obstacles    []models.Obstacle

	round      int
	startedAt  time.Time
	endsAt     time.Time
	shrinkTask int64

	tasks map[int64]string // timer id -> task name
}

func newRoom(code string, serial uint64, now time.Time) *Room {
	return &Room{
		Code:      code,
		CreatedAt: now,
		serial:    serial,
		lifecycle: state.NewRoomLifecycle(),
		tasks:     make(map[int64]string),
	}
}

func (r *Room) Phase() state.Phase {
	return r.lifecycle.Current()
}

func (r *Room) Round() int {
	return r.round
}

func (r *Room) Zone() models.SafeZone {
	return r.zone
}

// Players returns the roster in join order. The slice is a copy; the
// players are not.
func (r *Room) Players() []*models.Player {
	out := make([]*models.Player, len(r.players))
	copy(out, r.players)
	return out
}

func (r *Room) Player(id string) (*models.Player, bool) {
	for _, p := range r.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (r *Room) Collectible(id int) (*models.Collectible, bool) {
	if id < 0 || id >= len(r.collectibles) {
		return nil, false
	}
	return r.collectibles[id], true
}

func (r *Room) Obstacles() []models.Obstacle {
	return r.obstacles
}

// TaskCount is the number of scheduled tasks the room owns.
func (r *Room) TaskCount() int {
	return len(r.tasks)
}

func (r *Room) addPlayer(p *models.Player) {
	r.players = append(r.players, p)
	if r.HostID == "" {
		r.HostID = p.ID
	}
}

// removePlayer drops id from the roster and moves the host role to the
// earliest remaining member when needed. It reports whether the host
// changed.
func (r *Room) removePlayer(id string) (*models.Player, bool) {
	for i, p := range r.players {
		if p.ID != id {
			continue
		}
		r.players = append(r.players[:i], r.players[i+1:]...)
		hostChanged := false
		if r.HostID == id {
			r.HostID = ""
			if len(r.players) > 0 {
				r.HostID = r.players[0].ID
				hostChanged = true
			}
		}
		return p, hostChanged
	}
	return nil, false
}

// connIDs lists the roster connections, minus the excluded player ids.
func (r *Room) connIDs(exclude ...string) []string {
	out := make([]string, 0, len(r.players))
next:
	for _, p := range r.players {
		for _, id := range exclude {
			if p.ID == id {
				continue next
			}
		}
		out = append(out, p.ConnID)
	}
	return out
}

func (r *Room) rosterEntry(p *models.Player) protocol.RosterEntry {
	return protocol.RosterEntry{
		ID:     p.ID,
		Name:   p.Name,
		Color:  p.Color,
		Ready:  p.Ready,
		IsHost: p.ID == r.HostID,
	}
}

func (r *Room) Roster() []protocol.RosterEntry {
	out := make([]protocol.RosterEntry, len(r.players))
	for i, p := range r.players {
		out[i] = r.rosterEntry(p)
	}
	return out
}

func (r *Room) snapshot(now time.Time) protocol.GameState {
	players := make([]models.Player, len(r.players))
	for i, p := range r.players {
		players[i] = *p
	}
	items := make([]models.Collectible, 0, len(r.collectibles))
	for _, c := range r.collectibles {
		if !c.Collected {
			items = append(items, *c)
		}
	}
	remaining := r.endsAt.Sub(now)
	if remaining < 0 || r.endsAt.IsZero() {
		remaining = 0
	}
	return protocol.GameState{
		Round:        r.round,
		Phase:        r.Phase().String(),
		RemainingMs:  remaining.Milliseconds(),
		SafeZone:     r.zone,
		Players:      players,
		Collectibles: items,
	}
}

func (r *Room) summary() Summary {
	return Summary{
		Code:    r.Code,
		Phase:   r.Phase().String(),
		Round:   r.round,
		HostID:  r.HostID,
		Players: len(r.players),
	}
}

// Summary is a read-only view of a live room.
type Summary struct {
	Code    string `json:"code"`
	Phase   string `json:"phase"`
	Round   int    `json:"round"`
	HostID  string `json:"hostId"`
	Players int    `json:"players"`
}
