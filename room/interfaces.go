package room

import (
	"time"

	"github.com/wfunc/flowerzone/models"
	"github.com/wfunc/flowerzone/protocol"
)

// Broadcaster delivers events to connections by id. It is defined here so
// room does not depend on the transport.
type Broadcaster interface {
	SendTo(connID string, msgType protocol.MsgType, payload interface{})
	Broadcast(connIDs []string, msgType protocol.MsgType, payload interface{})
}

// Scheduler runs callbacks on the same goroutine as commands.
// *timer.TimerManager satisfies it.
type Scheduler interface {
	AddTimer(delay time.Duration, interval time.Duration, callback func()) int64
	RemoveTimer(timerId int64)
	Now() time.Time
}

// Recorder receives finished rounds. Implementations must not block.
type Recorder interface {
	Record(rec *models.RoundRecord)
}

// Metrics observes the room registry.
type Metrics interface {
	SetRooms(n int)
	SetPlayers(n int)
	RoundStarted()
	RoundFinished(reason string)
	ObserveTask(task string, d time.Duration)
	RoomFault()
}

type nopRecorder struct{}

func (nopRecorder) Record(*models.RoundRecord) {}

type nopMetrics struct{}

func (nopMetrics) SetRooms(int)                      {}
func (nopMetrics) SetPlayers(int)                    {}
func (nopMetrics) RoundStarted()                     {}
func (nopMetrics) RoundFinished(string)              {}
func (nopMetrics) ObserveTask(string, time.Duration) {}
func (nopMetrics) RoomFault()                        {}
