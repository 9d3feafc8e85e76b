package room

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/wfunc/flowerzone/config"
	"github.com/wfunc/flowerzone/geometry"
	"github.com/wfunc/flowerzone/logger"
	"github.com/wfunc/flowerzone/models"
	"github.com/wfunc/flowerzone/protocol"
	"github.com/wfunc/flowerzone/state"
	"github.com/wfunc/flowerzone/world"
)

// Manager owns the live room registry and every room command. It takes no
// locks: all methods must be called from the event loop that also fires
// the Scheduler.
type Manager struct {
	cfg      config.GameConfig
	timers   Scheduler
	out      Broadcaster
	recorder Recorder
	metrics  Metrics
	rng      *rand.Rand
	factory  *world.Factory
	newCode  func() string

	rooms      map[string]*Room
	members    map[string]string // connection id -> room code
	nextSerial uint64
}

type Option func(*Manager)

// WithRand fixes the random source used for codes and map generation.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithCodeGenerator replaces the random room code source.
func WithCodeGenerator(gen func() string) Option {
	return func(m *Manager) { m.newCode = gen }
}

func NewManager(cfg config.GameConfig, timers Scheduler, out Broadcaster, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		timers:   timers,
		out:      out,
		recorder: nopRecorder{},
		metrics:  nopMetrics{},
		rooms:    make(map[string]*Room),
		members:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.newCode == nil {
		m.newCode = func() string { return randomCode(m.rng, cfg.CodeLength) }
	}
	m.factory = world.NewFactory(cfg, m.rng)
	return m
}

// GetRoom looks up a live room by code.
func (m *Manager) GetRoom(code string) (*Room, bool) {
	r, ok := m.rooms[code]
	return r, ok
}

// RoomOf returns the room the connection is in.
func (m *Manager) RoomOf(connID string) (*Room, bool) {
	code, ok := m.members[connID]
	if !ok {
		return nil, false
	}
	return m.GetRoom(code)
}

func (m *Manager) RoomCount() int {
	return len(m.rooms)
}

// Rooms lists live rooms ordered by code.
func (m *Manager) Rooms() []Summary {
	out := make([]Summary, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// CreateRoom opens a Waiting room with the requester as sole member and
// host. A requester already in a room leaves it first.
func (m *Manager) CreateRoom(connID string, profile protocol.Profile) (code string, err error) {
	defer m.recoverCommand("create_room", connID, &err)

	m.leave(connID)

	code, err = m.allocateCode()
	if err != nil {
		return "", err
	}
	m.nextSerial++
	r := newRoom(code, m.nextSerial, m.timers.Now())
	m.bindLifecycle(r)
	m.rooms[code] = r

	p := m.newPlayer(connID, profile)
	r.addPlayer(p)
	m.members[connID] = code
	m.updateGauges()

	logger.Log.Infof("room %s created by %s", code, connID)
	m.out.SendTo(connID, protocol.MsgRoomCreated, protocol.RoomCreated{
		Code:     code,
		PlayerID: p.ID,
		Roster:   r.Roster(),
		IsHost:   true,
	})
	return code, nil
}

// JoinRoom adds the requester to a Waiting room and returns the roster.
func (m *Manager) JoinRoom(connID, code string, profile protocol.Profile) (roster []protocol.RosterEntry, err error) {
	defer m.recoverCommand("join_room", connID, &err)

	if current, ok := m.RoomOf(connID); ok && current.Code == code {
		roster = current.Roster()
		m.out.SendTo(connID, protocol.MsgRoomJoined, protocol.RoomJoined{
			Code:     code,
			PlayerID: connID,
			Roster:   roster,
			IsHost:   current.HostID == connID,
		})
		return roster, nil
	}

	r, ok := m.rooms[code]
	if !ok {
		return nil, reject(protocol.CodeRoomNotFound, "room %s does not exist", code)
	}
	if !r.lifecycle.Is(state.Waiting) {
		return nil, reject(protocol.CodeRoomAlreadyStarted, "room %s is %s", code, r.Phase())
	}
	if len(r.players) >= m.cfg.MaxPlayers {
		return nil, reject(protocol.CodeRoomFull, "room %s is full", code)
	}

	m.leave(connID)

	p := m.newPlayer(connID, profile)
	r.addPlayer(p)
	m.members[connID] = code
	m.updateGauges()

	roster = r.Roster()
	logger.Log.Infof("player %s joined room %s (%d/%d)", connID, code, len(roster), m.cfg.MaxPlayers)
	m.out.SendTo(connID, protocol.MsgRoomJoined, protocol.RoomJoined{
		Code:     code,
		PlayerID: p.ID,
		Roster:   roster,
		IsHost:   r.HostID == p.ID,
	})
	m.out.Broadcast(r.connIDs(p.ID), protocol.MsgPlayerJoined, protocol.PlayerJoined{
		Player: r.rosterEntry(p),
		Roster: roster,
	})
	return roster, nil
}

// LeaveRoom removes the requester from its room in any phase.
func (m *Manager) LeaveRoom(connID string) (err error) {
	defer m.recoverCommand("leave_room", connID, &err)

	if !m.leave(connID) {
		return ErrNotInRoom
	}
	return nil
}

// ToggleReady sets the requester's ready flag while the room is Waiting.
func (m *Manager) ToggleReady(connID string, ready bool) (err error) {
	defer m.recoverCommand("toggle_ready", connID, &err)

	r, p, err := m.resolve(connID)
	if err != nil {
		return err
	}
	if !r.lifecycle.Is(state.Waiting) {
		return ErrWrongState
	}
	p.Ready = ready
	m.out.Broadcast(r.connIDs(), protocol.MsgPlayerReady, protocol.PlayerReady{
		PlayerID: p.ID,
		Ready:    ready,
		Roster:   r.Roster(),
	})
	return nil
}

// StartRound resets the room for a new round and begins the countdown.
func (m *Manager) StartRound(connID string) (err error) {
	defer m.recoverCommand("start_round", connID, &err)

	r, _, err := m.resolve(connID)
	if err != nil {
		return err
	}
	if !r.lifecycle.Is(state.Waiting) {
		return ErrWrongState
	}
	if r.HostID != connID {
		return reject(protocol.CodeNotHost, "only the host can start the round")
	}
	if len(r.players) < m.cfg.MinPlayers {
		return reject(protocol.CodeInsufficientPlayers, "need at least %d players", m.cfg.MinPlayers)
	}
	for _, p := range r.players {
		if p.ID != r.HostID && !p.Ready {
			return reject(protocol.CodeNotAllReady, "%s is not ready", p.Name)
		}
	}
	if err := r.lifecycle.ChangeState(state.Starting); err != nil {
		return err
	}

	m.prepareRound(r)
	logger.Log.Infof("room %s round %d starting with %d players", r.Code, r.round, len(r.players))
	m.out.Broadcast(r.connIDs(), protocol.MsgGameStarting, protocol.GameStarting{
		Round:     r.round,
		Map:       m.mapState(r),
		Countdown: int(m.cfg.Countdown / time.Second),
	})
	m.schedule(r, "countdown", m.cfg.Countdown, 0, m.beginPlaying)
	return nil
}

// Move applies a movement command from an alive player of a Playing room.
func (m *Manager) Move(connID string, cmd *protocol.Move) (err error) {
	defer m.recoverCommand("move", connID, &err)

	r, p, err := m.resolve(connID)
	if err != nil {
		return err
	}
	if !r.lifecycle.Is(state.Playing) || !p.Alive {
		return ErrWrongState
	}

	pos := geometry.Clamp(cmd.Target(p.Pos()), m.cfg.WorldWidth, m.cfg.WorldHeight)
	for _, o := range r.obstacles {
		body := geometry.Circle{Center: pos, Radius: m.cfg.PlayerRadius}
		if geometry.Collide(body, o.Circle()) {
			pos = geometry.PushOut(pos, o.Circle().Center, m.cfg.PushStep)
		}
	}
	p.SetPos(pos)
	p.VX, p.VY = cmd.VX, cmd.VY

	m.out.Broadcast(r.connIDs(), protocol.MsgPlayerMove, protocol.PlayerMove{
		PlayerID: p.ID,
		X:        p.X,
		Y:        p.Y,
		VX:       p.VX,
		VY:       p.VY,
	})
	return nil
}

// Collect scores a pickup. Unknown, already taken, mismatched or distant
// items are ignored with ErrWrongState.
func (m *Manager) Collect(connID string, cmd *protocol.Collect) (err error) {
	defer m.recoverCommand("collect", connID, &err)

	r, p, err := m.resolve(connID)
	if err != nil {
		return err
	}
	if !r.lifecycle.Is(state.Playing) || !p.Alive {
		return ErrWrongState
	}
	item, ok := r.Collectible(cmd.ItemID)
	if !ok || item.Collected || item.Type != cmd.ItemType {
		return fmt.Errorf("%w: item %d unavailable", ErrWrongState, cmd.ItemID)
	}
	reach := m.cfg.PlayerRadius + m.cfg.CollectibleRadius + m.cfg.CollectSlack
	if geometry.Distance(p.Pos(), item.Pos()) > reach {
		return fmt.Errorf("%w: item %d out of reach", ErrWrongState, cmd.ItemID)
	}

	item.Collected = true
	p.Score++
	m.out.Broadcast(r.connIDs(), protocol.MsgItemCollected, protocol.ItemCollected{
		ItemID:   item.ID,
		ItemType: item.Type,
		PlayerID: p.ID,
		Score:    p.Score,
	})

	slot := item.ID
	m.schedule(r, "respawn", m.cfg.RespawnDelay, 0, func(r *Room) { m.respawn(r, slot) })
	return nil
}

// Disconnect is LeaveRoom for a closed connection; being in no room is
// not an error.
func (m *Manager) Disconnect(connID string) {
	defer m.recoverCommand("disconnect", connID, nil)
	m.leave(connID)
}

// Shutdown cancels every room's tasks and empties the registry.
func (m *Manager) Shutdown() {
	for code, r := range m.rooms {
		m.dispose(r)
		logger.Log.Infof("room %s closed on shutdown", code)
	}
	m.members = make(map[string]string)
	m.updateGauges()
}

func (m *Manager) newPlayer(connID string, profile protocol.Profile) *models.Player {
	return &models.Player{
		ID:     connID,
		ConnID: connID,
		Name:   profile.Name,
		Color:  profile.Color,
		Health: m.cfg.MaxHealth,
		Alive:  true,
	}
}

func (m *Manager) resolve(connID string) (*Room, *models.Player, error) {
	r, ok := m.RoomOf(connID)
	if !ok {
		return nil, nil, ErrNotInRoom
	}
	p, ok := r.Player(connID)
	if !ok {
		return nil, nil, ErrNotInRoom
	}
	return r, p, nil
}

// leave removes connID from its room and handles host transfer, round
// termination and disposal. It reports whether the connection was in a
// room.
func (m *Manager) leave(connID string) bool {
	r, ok := m.RoomOf(connID)
	delete(m.members, connID)
	if !ok {
		return false
	}

	p, hostChanged := r.removePlayer(connID)
	if p == nil {
		return false
	}
	logger.Log.Infof("player %s left room %s", connID, r.Code)

	if len(r.players) == 0 {
		m.dispose(r)
		m.updateGauges()
		return true
	}
	m.updateGauges()

	others := r.connIDs()
	m.out.Broadcast(others, protocol.MsgPlayerLeft, protocol.PlayerLeft{PlayerID: p.ID})
	if hostChanged {
		m.out.Broadcast(others, protocol.MsgHostChanged, protocol.HostChanged{PlayerID: r.HostID})
	}
	m.out.Broadcast(others, protocol.MsgRoomUpdated, protocol.RoomUpdated{
		HostID: r.HostID,
		Roster: r.Roster(),
	})

	switch {
	case r.lifecycle.Is(state.Starting) && len(r.players) < m.cfg.MinPlayers:
		m.abortCountdown(r)
	case r.lifecycle.Is(state.Playing) && p.Alive:
		m.out.Broadcast(others, protocol.MsgPlayerEliminated, protocol.PlayerEliminated{PlayerID: p.ID})
		m.checkTermination(r, ReasonDeparture, nil)
	}
	return true
}

// dispose cancels the room's tasks and then removes it from the registry.
func (m *Manager) dispose(r *Room) {
	if err := r.lifecycle.ChangeState(state.Disposed); err != nil {
		logger.Log.Warnf("room %s dispose: %v", r.Code, err)
		m.cancelAll(r)
	}
	delete(m.rooms, r.Code)
	logger.Log.Infof("room %s disposed", r.Code)
}

// bindLifecycle attaches task teardown to the room's phase changes.
func (m *Manager) bindLifecycle(r *Room) {
	r.lifecycle.OnExit(state.Playing, func(from, to state.Phase) { m.cancelAll(r) })
	r.lifecycle.OnEnter(state.Disposed, func(from, to state.Phase) { m.cancelAll(r) })
}

func (m *Manager) updateGauges() {
	m.metrics.SetRooms(len(m.rooms))
	m.metrics.SetPlayers(len(m.members))
}

// recoverCommand contains a panic to the command that raised it.
func (m *Manager) recoverCommand(command, connID string, err *error) {
	rec := recover()
	if rec == nil {
		return
	}
	code := m.members[connID]
	logger.Log.Errorf("room %s: %s from %s panicked: %v", code, command, connID, rec)
	m.metrics.RoomFault()
	if err != nil {
		*err = fmt.Errorf("%w: %v", ErrRoomFault, rec)
	}
}
