package protocol

import "strconv"

// MsgType tags every frame on the wire.
type MsgType uint16

// Client -> server
const (
	MsgHeartbeat   MsgType = 1
	MsgCreateRoom  MsgType = 101
	MsgJoinRoom    MsgType = 102
	MsgLeaveRoom   MsgType = 103
	MsgToggleReady MsgType = 104
	MsgStartRound  MsgType = 105
	MsgMove        MsgType = 201
	MsgCollect     MsgType = 202
)

// Server -> client
const (
	MsgRoomCreated      MsgType = 301
	MsgRoomJoined       MsgType = 302
	MsgPlayerJoined     MsgType = 303
	MsgRoomUpdated      MsgType = 304
	MsgPlayerLeft       MsgType = 305
	MsgHostChanged      MsgType = 306
	MsgPlayerReady      MsgType = 307
	MsgRoomReset        MsgType = 308
	MsgGameStarting     MsgType = 401
	MsgGameStarted      MsgType = 402
	MsgPlayerMove       MsgType = 403
	MsgItemCollected    MsgType = 404
	MsgItemRespawned    MsgType = 405
	MsgSafeZoneUpdated  MsgType = 406
	MsgPlayerHit        MsgType = 407
	MsgPlayerEliminated MsgType = 408
	MsgGameUpdate       MsgType = 409
	MsgGameOver         MsgType = 410
	MsgError            MsgType = 500
)

var msgNames = map[MsgType]string{
	MsgHeartbeat:        "heartbeat",
	MsgCreateRoom:       "create_room",
	MsgJoinRoom:         "join_room",
	MsgLeaveRoom:        "leave_room",
	MsgToggleReady:      "toggle_ready",
	MsgStartRound:       "start_round",
	MsgMove:             "move",
	MsgCollect:          "collect",
	MsgRoomCreated:      "room_created",
	MsgRoomJoined:       "room_joined",
	MsgPlayerJoined:     "player_joined",
	MsgRoomUpdated:      "room_updated",
	MsgPlayerLeft:       "player_left",
	MsgHostChanged:      "host_changed",
	MsgPlayerReady:      "player_ready",
	MsgRoomReset:        "room_reset",
	MsgGameStarting:     "game_starting",
	MsgGameStarted:      "game_started",
	MsgPlayerMove:       "player_move",
	MsgItemCollected:    "item_collected",
	MsgItemRespawned:    "item_respawned",
	MsgSafeZoneUpdated:  "safe_zone_updated",
	MsgPlayerHit:        "player_hit",
	MsgPlayerEliminated: "player_eliminated",
	MsgGameUpdate:       "game_update",
	MsgGameOver:         "game_over",
	MsgError:            "error",
}

func (t MsgType) String() string {
	if name, ok := msgNames[t]; ok {
		return name
	}
	return "msg_" + strconv.Itoa(int(t))
}
