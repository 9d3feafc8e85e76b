package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/wfunc/flowerzone/config"
	"github.com/wfunc/flowerzone/models"
	"github.com/wfunc/flowerzone/persistence"
	"github.com/wfunc/flowerzone/protocol"
	"github.com/wfunc/flowerzone/room"
	"github.com/wfunc/flowerzone/timer"
)

type MockDatabase struct {
	stats map[string]*models.PlayerStats
}

func (m *MockDatabase) SaveRoundRecord(ctx context.Context, rec *models.RoundRecord) error {
	return nil
}

func (m *MockDatabase) GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	if s, ok := m.stats[name]; ok {
		return s, nil
	}
	return nil, persistence.ErrRecordNotFound
}

func (m *MockDatabase) Close() error { return nil }

// MockExecutor runs functions inline, which is enough when the test owns
// the only goroutine touching the manager.
type MockExecutor struct {
	err error
}

func (e *MockExecutor) Call(ctx context.Context, fn func()) error {
	if e.err != nil {
		return e.err
	}
	fn()
	return nil
}

type discard struct{}

func (discard) SendTo(string, protocol.MsgType, interface{})      {}
func (discard) Broadcast([]string, protocol.MsgType, interface{}) {}

func TestStatsService_PlayerStats(t *testing.T) {
	db := &MockDatabase{stats: map[string]*models.PlayerStats{
		"alice": {Name: "alice", Rounds: 3, Wins: 2},
	}}
	svc := NewStatsService(db)

	stats, err := svc.PlayerStats(context.Background(), "  alice ")
	if err != nil {
		t.Fatalf("PlayerStats failed: %v", err)
	}
	if stats.Wins != 2 {
		t.Errorf("Expected 2 wins, got %d", stats.Wins)
	}

	if _, err := svc.PlayerStats(context.Background(), ""); !errors.Is(err, persistence.ErrRecordNotFound) {
		t.Errorf("Expected not found for an empty name, got %v", err)
	}
}

func TestStatsService_Disabled(t *testing.T) {
	svc := NewStatsService(nil)
	if _, err := svc.PlayerStats(context.Background(), "alice"); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("Expected ErrHistoryDisabled, got %v", err)
	}
}

func TestRoomService_ListAndGet(t *testing.T) {
	timers := timer.NewTimerManager(nil)
	manager := room.NewManager(config.DefaultGameConfig(), timers, discard{}, room.WithRand(rand.New(rand.NewSource(1))))
	code, err := manager.CreateRoom("conn-1", protocol.Profile{Name: "alice", Color: "#f00"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	svc := NewRoomService(&MockExecutor{}, manager)
	rooms, err := svc.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Code != code || rooms[0].Players != 1 {
		t.Errorf("Unexpected room list: %+v", rooms)
	}

	summary, found, err := svc.GetRoom(context.Background(), code)
	if err != nil || !found {
		t.Fatalf("GetRoom(%s) = found %v, err %v", code, found, err)
	}
	if summary.HostID != "conn-1" {
		t.Errorf("Expected host conn-1, got %s", summary.HostID)
	}
	if _, found, _ := svc.GetRoom(context.Background(), "ZZZZZ"); found {
		t.Error("Expected unknown code to be reported missing")
	}
}

func TestRoomService_ExecutorError(t *testing.T) {
	svc := NewRoomService(&MockExecutor{err: context.Canceled}, nil)
	if _, err := svc.ListRooms(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected executor error to surface, got %v", err)
	}
}
