package session

import (
	"net"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/wfunc/flowerzone/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	closed bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) IsOpen() bool                         { return !m.closed }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func (m *MockConnection) Close() error {
	m.closed = true
	return nil
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{}, nil)

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_CloseAll(t *testing.T) {
	manager := NewManager()
	conn1 := &MockConnection{}
	conn2 := &MockConnection{}
	manager.Add(NewSession("s1", conn1, nil))
	manager.Add(NewSession("s2", conn2, nil))

	manager.CloseAll()

	if !conn1.closed || !conn2.closed {
		t.Error("CloseAll should close every connection")
	}
	if manager.Count() != 0 {
		t.Errorf("Expected empty registry after CloseAll, got %d", manager.Count())
	}
}

func TestSession_Allow(t *testing.T) {
	sess := NewSession("limited", &MockConnection{}, rate.NewLimiter(rate.Every(time.Hour), 2))

	if !sess.Allow() || !sess.Allow() {
		t.Fatal("Burst of two should be allowed")
	}
	if sess.Allow() {
		t.Error("Third message should exceed the burst")
	}

	unlimited := NewSession("free", &MockConnection{}, nil)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow() {
			t.Fatal("Session without a limiter should allow everything")
		}
	}
}

func TestSession_IsOpen(t *testing.T) {
	sess := NewSession("s", &MockConnection{}, nil)
	if !sess.IsOpen() {
		t.Fatal("New session should be open")
	}
	sess.Close()
	if sess.IsOpen() {
		t.Error("Closed session should not be open")
	}
}
