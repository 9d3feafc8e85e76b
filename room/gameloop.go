package room

import (
	"math"
	"sort"
	"time"

	"github.com/wfunc/flowerzone/geometry"
	"github.com/wfunc/flowerzone/logger"
	"github.com/wfunc/flowerzone/models"
	"github.com/wfunc/flowerzone/protocol"
	"github.com/wfunc/flowerzone/state"
)

// Reasons a round ends, as reported in game_over and metrics.
const (
	ReasonElimination = "elimination"
	ReasonDeparture   = "departure"
	ReasonZoneFloor   = "zone_floor"
	ReasonTimeLimit   = "time_limit"
)

// schedule arms a task owned by r. The callback looks the room up again
// by code and serial, so a task that outlives its room does nothing and
// unschedules itself.
func (m *Manager) schedule(r *Room, name string, delay, interval time.Duration, fn func(*Room)) int64 {
	code, serial := r.Code, r.serial
	var id int64
	id = m.timers.AddTimer(delay, interval, func() {
		live, ok := m.rooms[code]
		if !ok || live.serial != serial {
			m.timers.RemoveTimer(id)
			return
		}
		if _, owned := live.tasks[id]; !owned {
			m.timers.RemoveTimer(id)
			return
		}
		if interval <= 0 {
			delete(live.tasks, id)
		}
		m.runTask(live, name, fn)
	})
	r.tasks[id] = name
	return id
}

func (m *Manager) cancel(r *Room, id int64) {
	if _, ok := r.tasks[id]; !ok {
		return
	}
	delete(r.tasks, id)
	m.timers.RemoveTimer(id)
}

func (m *Manager) cancelAll(r *Room) {
	for id := range r.tasks {
		m.timers.RemoveTimer(id)
	}
	r.tasks = make(map[int64]string)
}

// runTask contains a panic to the task that raised it.
func (m *Manager) runTask(r *Room, name string, fn func(*Room)) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Errorf("room %s: task %s panicked: %v", r.Code, name, rec)
			m.metrics.RoomFault()
		}
		m.metrics.ObserveTask(name, time.Since(start))
	}()
	fn(r)
}

func (m *Manager) prepareRound(r *Room) {
	r.round++
	spawns := m.factory.SpawnPoints(len(r.players))
	for i, p := range r.players {
		p.ResetForRound(m.cfg.MaxHealth, spawns[i])
	}
	r.obstacles = m.factory.Obstacles()
	r.collectibles = m.factory.Collectibles()
	r.zone = m.factory.InitialZone()
	r.shrinkTask = 0
	r.startedAt = time.Time{}
	r.endsAt = time.Time{}
}

func (m *Manager) mapState(r *Room) protocol.MapState {
	items := make([]models.Collectible, len(r.collectibles))
	for i, c := range r.collectibles {
		items[i] = *c
	}
	positions := make(map[string]geometry.Vec, len(r.players))
	for _, p := range r.players {
		positions[p.ID] = p.Pos()
	}
	return protocol.MapState{
		Width:           m.cfg.WorldWidth,
		Height:          m.cfg.WorldHeight,
		Collectibles:    items,
		Obstacles:       r.obstacles,
		SafeZone:        r.zone,
		PlayerPositions: positions,
	}
}

// beginPlaying ends the countdown and arms the round tasks.
func (m *Manager) beginPlaying(r *Room) {
	if err := r.lifecycle.ChangeState(state.Playing); err != nil {
		logger.Log.Warnf("room %s: %v", r.Code, err)
		return
	}
	now := m.timers.Now()
	r.startedAt = now
	if m.cfg.RoundDuration > 0 {
		r.endsAt = now.Add(m.cfg.RoundDuration)
	}
	m.metrics.RoundStarted()
	logger.Log.Infof("room %s round %d playing", r.Code, r.round)

	m.out.Broadcast(r.connIDs(), protocol.MsgGameStarted, r.snapshot(now))
	r.shrinkTask = m.schedule(r, "shrink", m.cfg.ShrinkInterval, m.cfg.ShrinkInterval, m.shrink)
	m.schedule(r, "damage", m.cfg.DamageInterval, m.cfg.DamageInterval, m.damage)
	m.schedule(r, "tick", m.cfg.TickInterval, m.cfg.TickInterval, m.tick)
	if m.cfg.RoundDuration > 0 {
		m.schedule(r, "time_limit", m.cfg.RoundDuration, 0, func(r *Room) { m.forceEnd(r, ReasonTimeLimit) })
	}
}

// shrink steps the zone down. Once the radius reaches the floor the task
// stops and the forced end is armed.
func (m *Manager) shrink(r *Room) {
	z := &r.zone
	z.Radius = z.NextRadius
	if z.Radius <= m.cfg.MinRadius {
		z.Radius = m.cfg.MinRadius
		z.NextRadius = m.cfg.MinRadius
		m.cancel(r, r.shrinkTask)
		m.schedule(r, "force_end", m.cfg.ForceEndDelay, 0, func(r *Room) { m.forceEnd(r, ReasonZoneFloor) })
		if end := m.timers.Now().Add(m.cfg.ForceEndDelay); r.endsAt.IsZero() || end.Before(r.endsAt) {
			r.endsAt = end
		}
		logger.Log.Debugf("room %s zone reached floor radius %.0f", r.Code, z.Radius)
	} else {
		z.NextRadius = math.Max(m.cfg.MinRadius, z.NextRadius*m.cfg.ShrinkFactor)
	}
	m.out.Broadcast(r.connIDs(), protocol.MsgSafeZoneUpdated, protocol.SafeZoneUpdated{SafeZone: *z})
}

// damage hurts every alive player outside the zone, then checks whether
// the round is over.
func (m *Manager) damage(r *Room) {
	zone := r.zone.Circle()
	var eliminated []*models.Player
	for _, p := range r.players {
		if !p.Alive || geometry.Contains(zone, p.Pos()) {
			continue
		}
		p.Health -= m.cfg.DamageAmount
		if p.Health < 0 {
			p.Health = 0
		}
		m.out.Broadcast(r.connIDs(), protocol.MsgPlayerHit, protocol.PlayerHit{
			PlayerID: p.ID,
			Damage:   m.cfg.DamageAmount,
			Health:   p.Health,
		})
		if p.Health == 0 {
			p.Alive = false
			eliminated = append(eliminated, p)
			logger.Log.Infof("room %s: player %s eliminated", r.Code, p.ID)
			m.out.Broadcast(r.connIDs(), protocol.MsgPlayerEliminated, protocol.PlayerEliminated{PlayerID: p.ID})
		}
	}
	if len(eliminated) > 0 {
		m.checkTermination(r, ReasonElimination, eliminated)
	}
}

func (m *Manager) tick(r *Room) {
	m.out.Broadcast(r.connIDs(), protocol.MsgGameUpdate, r.snapshot(m.timers.Now()))
}

// respawn refills slot inside the current zone.
func (m *Manager) respawn(r *Room, slot int) {
	if !r.lifecycle.Is(state.Playing) || slot >= len(r.collectibles) {
		return
	}
	item := m.factory.Collectible(slot, r.zone)
	r.collectibles[slot] = item
	m.out.Broadcast(r.connIDs(), protocol.MsgItemRespawned, protocol.ItemRespawned{Item: *item})
}

func (r *Room) alivePlayers() []*models.Player {
	var out []*models.Player
	for _, p := range r.players {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// checkTermination ends the round once the alive count is at or below the
// survivor count. When nobody is left alive the players eliminated by the
// triggering event win.
func (m *Manager) checkTermination(r *Room, reason string, eliminated []*models.Player) {
	if !r.lifecycle.Is(state.Playing) || len(r.players) == 0 {
		return
	}
	alive := r.alivePlayers()
	if len(alive) > m.cfg.SurvivorCount {
		return
	}
	winners := alive
	if len(winners) == 0 {
		winners = eliminated
	}
	m.endRound(r, reason, winners)
}

// forceEnd ends the round on a timer; the best scorers among the alive
// players win.
func (m *Manager) forceEnd(r *Room, reason string) {
	m.endRound(r, reason, r.alivePlayers())
}

// rankWinners orders candidates by score, highest first. Candidates are
// given in join order, which the stable sort keeps for equal scores.
func rankWinners(candidates []*models.Player, limit int) []*models.Player {
	ranked := make([]*models.Player, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// endRound runs at most once per round: only a Playing room can end.
func (m *Manager) endRound(r *Room, reason string, candidates []*models.Player) {
	if !r.lifecycle.Is(state.Playing) {
		return
	}
	m.cancelAll(r)

	winners := rankWinners(candidates, m.cfg.SurvivorCount)
	over := protocol.GameOver{Round: r.round, Reason: reason, Winners: make([]protocol.Winner, len(winners))}
	for i, p := range winners {
		over.Winners[i] = protocol.Winner{ID: p.ID, Name: p.Name, Color: p.Color, Score: p.Score, Alive: p.Alive}
	}
	m.out.Broadcast(r.connIDs(), protocol.MsgGameOver, over)

	if err := r.lifecycle.ChangeState(state.Ended); err != nil {
		logger.Log.Errorf("room %s: %v", r.Code, err)
		return
	}
	logger.Log.Infof("room %s round %d over (%s), %d winners", r.Code, r.round, reason, len(winners))
	m.metrics.RoundFinished(reason)
	m.recorder.Record(m.roundRecord(r, reason, winners))
	m.schedule(r, "cooldown", m.cfg.Cooldown, 0, m.resetRoom)
}

// resetRoom returns an Ended room to Waiting with fresh player stats.
func (m *Manager) resetRoom(r *Room) {
	if !r.lifecycle.Is(state.Ended) {
		return
	}
	m.returnToWaiting(r)
}

// abortCountdown sends a Starting room that lost its quorum back to
// Waiting. The round never began, so its number is given back.
func (m *Manager) abortCountdown(r *Room) {
	m.cancelAll(r)
	r.round--
	logger.Log.Infof("room %s countdown aborted, %d players left", r.Code, len(r.players))
	m.returnToWaiting(r)
}

func (m *Manager) returnToWaiting(r *Room) {
	for _, p := range r.players {
		p.ResetForRound(m.cfg.MaxHealth, geometry.Vec{})
		p.Ready = false
	}
	r.collectibles = nil
	r.obstacles = nil
	r.zone = models.SafeZone{}
	r.endsAt = time.Time{}
	if err := r.lifecycle.ChangeState(state.Waiting); err != nil {
		logger.Log.Errorf("room %s: %v", r.Code, err)
		return
	}
	m.out.Broadcast(r.connIDs(), protocol.MsgRoomReset, protocol.RoomReset{Roster: r.Roster()})
}

func (m *Manager) roundRecord(r *Room, reason string, winners []*models.Player) *models.RoundRecord {
	placement := make(map[string]int, len(winners))
	for i, p := range winners {
		placement[p.ID] = i + 1
	}
	rec := &models.RoundRecord{
		RoomCode:  r.Code,
		Round:     r.round,
		Reason:    reason,
		StartedAt: r.startedAt,
		EndedAt:   m.timers.Now(),
		Players:   make([]models.RoundPlayer, len(r.players)),
	}
	for i, p := range r.players {
		rec.Players[i] = models.RoundPlayer{
			PlayerID:  p.ID,
			Name:      p.Name,
			Color:     p.Color,
			Score:     p.Score,
			Alive:     p.Alive,
			Winner:    placement[p.ID] > 0,
			Placement: placement[p.ID],
		}
	}
	return rec
}
