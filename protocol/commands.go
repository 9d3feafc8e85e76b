package protocol

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wfunc/flowerzone/geometry"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidPayload = errors.New("invalid payload")
)

const (
	MaxNameLen   = 16
	MaxColorLen  = 32
	MaxCodeLen   = 16
	DefaultColor = "#ffffff"
)

// Command is the closed set of inbound messages. Only types in this file
// implement it.
type Command interface {
	Type() MsgType
	validate() error
}

type Profile struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (p *Profile) validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Color = strings.TrimSpace(p.Color)
	if p.Name == "" {
		return errors.New("player name is required")
	}
	if utf8.RuneCountInString(p.Name) > MaxNameLen {
		return fmt.Errorf("player name longer than %d characters", MaxNameLen)
	}
	if len(p.Color) > MaxColorLen {
		return errors.New("player color too long")
	}
	if p.Color == "" {
		p.Color = DefaultColor
	}
	return nil
}

type Heartbeat struct{}

func (Heartbeat) Type() MsgType    { return MsgHeartbeat }
func (*Heartbeat) validate() error { return nil }

type CreateRoom struct {
	Player Profile `json:"player"`
}

func (CreateRoom) Type() MsgType      { return MsgCreateRoom }
func (c *CreateRoom) validate() error { return c.Player.validate() }

type JoinRoom struct {
	RoomCode string  `json:"roomCode"`
	Player   Profile `json:"player"`
}

func (JoinRoom) Type() MsgType { return MsgJoinRoom }

func (c *JoinRoom) validate() error {
	c.RoomCode = strings.ToUpper(strings.TrimSpace(c.RoomCode))
	if c.RoomCode == "" || len(c.RoomCode) > MaxCodeLen {
		return errors.New("room code is required")
	}
	return c.Player.validate()
}

type LeaveRoom struct{}

func (LeaveRoom) Type() MsgType    { return MsgLeaveRoom }
func (*LeaveRoom) validate() error { return nil }

type ToggleReady struct {
	Ready bool `json:"ready"`
}

func (ToggleReady) Type() MsgType    { return MsgToggleReady }
func (*ToggleReady) validate() error { return nil }

type StartRound struct{}

func (StartRound) Type() MsgType    { return MsgStartRound }
func (*StartRound) validate() error { return nil }

// Move carries either an absolute position (x,y) or a delta (dx,dy),
// plus the client's current velocity.
type Move struct {
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	DX *float64 `json:"dx,omitempty"`
	DY *float64 `json:"dy,omitempty"`
	VX float64  `json:"vx"`
	VY float64  `json:"vy"`
}

func (Move) Type() MsgType { return MsgMove }

func (c *Move) validate() error {
	abs := c.X != nil && c.Y != nil
	rel := c.DX != nil && c.DY != nil
	if abs == rel {
		return errors.New("move needs exactly one of x,y or dx,dy")
	}
	if !(geometry.Vec{X: c.VX, Y: c.VY}).IsFinite() {
		return errors.New("velocity is not finite")
	}
	if abs && !(geometry.Vec{X: *c.X, Y: *c.Y}).IsFinite() {
		return errors.New("position is not finite")
	}
	if rel && !(geometry.Vec{X: *c.DX, Y: *c.DY}).IsFinite() {
		return errors.New("delta is not finite")
	}
	return nil
}

// Target resolves the requested position relative to the current one.
func (c *Move) Target(from geometry.Vec) geometry.Vec {
	if c.X != nil && c.Y != nil {
		return geometry.Vec{X: *c.X, Y: *c.Y}
	}
	return geometry.Vec{X: from.X + *c.DX, Y: from.Y + *c.DY}
}

type Collect struct {
	ItemID   int `json:"itemId"`
	ItemType int `json:"itemType"`
}

func (Collect) Type() MsgType { return MsgCollect }

func (c *Collect) validate() error {
	if c.ItemID < 0 {
		return errors.New("item id must not be negative")
	}
	return nil
}

// Decode turns a frame into a validated command. Unknown types yield
// ErrUnknownCommand; malformed or invalid bodies yield ErrInvalidPayload.
func Decode(t MsgType, payload []byte, codec Codec) (Command, error) {
	var cmd Command
	switch t {
	case MsgHeartbeat:
		cmd = &Heartbeat{}
	case MsgCreateRoom:
		cmd = &CreateRoom{}
	case MsgJoinRoom:
		cmd = &JoinRoom{}
	case MsgLeaveRoom:
		cmd = &LeaveRoom{}
	case MsgToggleReady:
		cmd = &ToggleReady{}
	case MsgStartRound:
		cmd = &StartRound{}
	case MsgMove:
		cmd = &Move{}
	case MsgCollect:
		cmd = &Collect{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, t)
	}

	if len(payload) > 0 {
		if err := codec.Unmarshal(payload, cmd); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, t, err)
		}
	}
	if err := cmd.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, t, err)
	}
	return cmd, nil
}
