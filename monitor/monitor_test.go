package monitor

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMonitor_RoomMetrics(t *testing.T) {
	m := NewMonitor("test")

	m.SetRooms(3)
	m.SetPlayers(7)
	m.RoundStarted()
	m.RoundFinished("elimination")
	m.RoundFinished("elimination")
	m.RoundFinished("time_limit")
	m.RoomFault()

	if got := testutil.ToFloat64(m.metrics.ActiveRooms); got != 3 {
		t.Errorf("Expected 3 active rooms, got %v", got)
	}
	if got := testutil.ToFloat64(m.metrics.ActivePlayers); got != 7 {
		t.Errorf("Expected 7 players, got %v", got)
	}
	if got := testutil.ToFloat64(m.metrics.RoundsFinished.WithLabelValues("elimination")); got != 2 {
		t.Errorf("Expected 2 elimination rounds, got %v", got)
	}
	if got := testutil.ToFloat64(m.metrics.RoomFaults); got != 1 {
		t.Errorf("Expected 1 fault, got %v", got)
	}
}

func TestMonitor_MessagesAndRequests(t *testing.T) {
	m := NewMonitor("test")

	m.IncMessagesReceived("move")
	m.IncMessagesReceived("move")
	m.IncMessagesReceived("collect")
	m.MessageDropped("rate_limited")
	m.ObserveMessageLatency(2 * time.Millisecond)

	if m.RequestCount() != 3 {
		t.Errorf("Expected request count 3, got %d", m.RequestCount())
	}
	if got := testutil.ToFloat64(m.metrics.MessagesReceived.WithLabelValues("move")); got != 2 {
		t.Errorf("Expected 2 move messages, got %v", got)
	}
	if got := testutil.ToFloat64(m.metrics.MessagesDropped.WithLabelValues("rate_limited")); got != 1 {
		t.Errorf("Expected 1 dropped message, got %v", got)
	}
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("flowerzone")
	m.IncOnlineConnections()
	m.ObserveTask("damage", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, name := range []string{"flowerzone_online_connections 1", "flowerzone_task_duration_seconds_count{task=\"damage\"} 1"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("Expected %q in metrics output", name)
		}
	}
}
