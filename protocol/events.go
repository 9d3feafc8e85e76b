package protocol

import (
	"github.com/wfunc/flowerzone/geometry"
	"github.com/wfunc/flowerzone/models"
)

// ErrorCode names the precondition a rejected command violated.
type ErrorCode string

const (
	CodeBadRequest          ErrorCode = "BAD_REQUEST"
	CodeRoomNotFound        ErrorCode = "ROOM_NOT_FOUND"
	CodeRoomFull            ErrorCode = "ROOM_FULL"
	CodeRoomAlreadyStarted  ErrorCode = "ROOM_ALREADY_STARTED"
	CodeNotHost             ErrorCode = "NOT_HOST"
	CodeInsufficientPlayers ErrorCode = "INSUFFICIENT_PLAYERS"
	CodeNotAllReady         ErrorCode = "NOT_ALL_READY"
)

type ErrorEvent struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type RosterEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Ready  bool   `json:"ready"`
	IsHost bool   `json:"isHost"`
}

// RoomCreated and RoomJoined answer the requester only.
type RoomCreated struct {
	Code     string        `json:"code"`
	PlayerID string        `json:"playerId"`
	Roster   []RosterEntry `json:"roster"`
	IsHost   bool          `json:"isHost"`
}

type RoomJoined struct {
	Code     string        `json:"code"`
	PlayerID string        `json:"playerId"`
	Roster   []RosterEntry `json:"roster"`
	IsHost   bool          `json:"isHost"`
}

type PlayerJoined struct {
	Player RosterEntry   `json:"player"`
	Roster []RosterEntry `json:"roster"`
}

type RoomUpdated struct {
	HostID string        `json:"hostId"`
	Roster []RosterEntry `json:"roster"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
}

type HostChanged struct {
	PlayerID string `json:"playerId"`
}

type PlayerReady struct {
	PlayerID string        `json:"playerId"`
	Ready    bool          `json:"ready"`
	Roster   []RosterEntry `json:"roster"`
}

type RoomReset struct {
	Roster []RosterEntry `json:"roster"`
}

// MapState is the world handed out when a round is about to start.
type MapState struct {
	Width           float64                 `json:"width"`
	Height          float64                 `json:"height"`
	Collectibles    []models.Collectible    `json:"collectibles"`
	Obstacles       []models.Obstacle       `json:"obstacles"`
	SafeZone        models.SafeZone         `json:"safeZone"`
	PlayerPositions map[string]geometry.Vec `json:"playerPositions"`
}

type GameStarting struct {
	Round     int      `json:"round"`
	Map       MapState `json:"map"`
	Countdown int      `json:"countdown"` // seconds
}

// GameState is the full room snapshot used by game_started and the
// periodic game_update.
type GameState struct {
	Round        int                  `json:"round"`
	Phase        string               `json:"phase"`
	RemainingMs  int64                `json:"remainingMs"`
	SafeZone     models.SafeZone      `json:"safeZone"`
	Players      []models.Player      `json:"players"`
	Collectibles []models.Collectible `json:"collectibles"`
}

type PlayerMove struct {
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
}

type ItemCollected struct {
	ItemID   int    `json:"itemId"`
	ItemType int    `json:"itemType"`
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
}

type ItemRespawned struct {
	Item models.Collectible `json:"item"`
}

type SafeZoneUpdated struct {
	SafeZone models.SafeZone `json:"safeZone"`
}

type PlayerHit struct {
	PlayerID string `json:"playerId"`
	Damage   int    `json:"damage"`
	Health   int    `json:"health"`
}

type PlayerEliminated struct {
	PlayerID string `json:"playerId"`
}

type Winner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Score int    `json:"score"`
	Alive bool   `json:"alive"`
}

type GameOver struct {
	Round   int      `json:"round"`
	Reason  string   `json:"reason"`
	Winners []Winner `json:"winners"`
}
