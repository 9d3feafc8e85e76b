package rpc

import (
	"context"
	"math/rand"
	"net/rpc"
	"strings"
	"testing"

	"github.com/wfunc/flowerzone/config"
	"github.com/wfunc/flowerzone/models"
	"github.com/wfunc/flowerzone/persistence"
	"github.com/wfunc/flowerzone/protocol"
	"github.com/wfunc/flowerzone/room"
	"github.com/wfunc/flowerzone/services"
	"github.com/wfunc/flowerzone/timer"
)

type inline struct{}

func (inline) Call(ctx context.Context, fn func()) error {
	fn()
	return nil
}

type discard struct{}

func (discard) SendTo(string, protocol.MsgType, interface{})      {}
func (discard) Broadcast([]string, protocol.MsgType, interface{}) {}

type MockDatabase struct{}

func (MockDatabase) SaveRoundRecord(context.Context, *models.RoundRecord) error { return nil }

func (MockDatabase) GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	if name == "alice" {
		return &models.PlayerStats{Name: "alice", Rounds: 4, Wins: 1, TotalScore: 90, BestScore: 40}, nil
	}
	return nil, persistence.ErrRecordNotFound
}

func (MockDatabase) Close() error { return nil }

func startServer(t *testing.T) (*rpc.Client, string) {
	t.Helper()
	manager := room.NewManager(config.DefaultGameConfig(), timer.NewTimerManager(nil), discard{},
		room.WithRand(rand.New(rand.NewSource(7))))
	code, err := manager.CreateRoom("conn-1", protocol.Profile{Name: "alice", Color: "#0f0"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	admin := NewAdminService(services.NewRoomService(inline{}, manager), services.NewStatsService(MockDatabase{}))
	srv, err := NewServer("127.0.0.1:0", admin)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	go srv.Start()
	t.Cleanup(srv.Stop)

	client, err := rpc.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, code
}

func TestAdmin_ListRooms(t *testing.T) {
	client, code := startServer(t)

	var reply ListRoomsReply
	if err := client.Call("Admin.ListRooms", &ListRoomsArgs{}, &reply); err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(reply.Rooms) != 1 || reply.Rooms[0].Code != code {
		t.Errorf("Expected room %s, got %+v", code, reply.Rooms)
	}
	if reply.Rooms[0].Phase != "waiting" {
		t.Errorf("Expected waiting phase, got %s", reply.Rooms[0].Phase)
	}

	var playing ListRoomsReply
	if err := client.Call("Admin.ListRooms", &ListRoomsArgs{Phase: "playing"}, &playing); err != nil {
		t.Fatalf("ListRooms with filter failed: %v", err)
	}
	if len(playing.Rooms) != 0 {
		t.Errorf("Expected no playing rooms, got %+v", playing.Rooms)
	}
}

func TestAdmin_PlayerStats(t *testing.T) {
	client, _ := startServer(t)

	var reply PlayerStatsReply
	if err := client.Call("Admin.PlayerStats", &PlayerStatsArgs{Name: "alice"}, &reply); err != nil {
		t.Fatalf("PlayerStats failed: %v", err)
	}
	if reply.Stats.Rounds != 4 || reply.Stats.BestScore != 40 {
		t.Errorf("Unexpected stats: %+v", reply.Stats)
	}

	err := client.Call("Admin.PlayerStats", &PlayerStatsArgs{Name: "bob"}, &PlayerStatsReply{})
	if err == nil || !strings.Contains(err.Error(), persistence.ErrRecordNotFound.Error()) {
		t.Errorf("Expected not found error, got %v", err)
	}
}
