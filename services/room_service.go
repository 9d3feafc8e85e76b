package services

import (
	"context"

	"github.com/wfunc/flowerzone/room"
)

// Executor runs a function on the goroutine that owns the room manager.
type Executor interface {
	Call(ctx context.Context, fn func()) error
}

// RoomService reads the live room registry from outside the event loop.
type RoomService struct {
	exec    Executor
	manager *room.Manager
}

func NewRoomService(exec Executor, manager *room.Manager) *RoomService {
	return &RoomService{exec: exec, manager: manager}
}

func (s *RoomService) ListRooms(ctx context.Context) ([]room.Summary, error) {
	var rooms []room.Summary
	err := s.exec.Call(ctx, func() {
		rooms = s.manager.Rooms()
	})
	return rooms, err
}

// GetRoom returns the summary of one room, or false if it is not live.
func (s *RoomService) GetRoom(ctx context.Context, code string) (room.Summary, bool, error) {
	var (
		summary room.Summary
		found   bool
	)
	err := s.exec.Call(ctx, func() {
		for _, r := range s.manager.Rooms() {
			if r.Code == code {
				summary, found = r, true
				return
			}
		}
	})
	return summary, found, err
}
