package room

import (
	"errors"
	"fmt"

	"github.com/wfunc/flowerzone/protocol"
)

var (
	// ErrWrongState marks a valid command sent in a phase that does not
	// accept it. Callers drop these without answering.
	ErrWrongState = errors.New("command not accepted in current room state")
	// ErrNotInRoom is returned for room commands from a connection that is
	// not in any room.
	ErrNotInRoom = errors.New("connection is not in a room")
	// ErrRoomFault is returned when a command panicked inside a room.
	ErrRoomFault = errors.New("room fault")
	// ErrCodeSpaceExhausted means no free room code was found.
	ErrCodeSpaceExhausted = errors.New("no free room code")
)

// Rejection is a precondition failure reported back to the requester.
type Rejection struct {
	Code    protocol.ErrorCode
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

func reject(code protocol.ErrorCode, format string, args ...interface{}) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err carries a Rejection and returns it.
func IsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
