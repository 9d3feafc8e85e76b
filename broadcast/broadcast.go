package broadcast

import (
	"github.com/wfunc/flowerzone/logger"
	"github.com/wfunc/flowerzone/protocol"
	"github.com/wfunc/flowerzone/session"
)

// DropRecorder counts messages that could not be delivered.
type DropRecorder interface {
	MessageDropped(reason string)
}

// SessionBroadcaster encodes an event once and fans it out to sessions.
// Delivery is best-effort: closed, unknown or slow connections are skipped.
type SessionBroadcaster struct {
	sessions *session.Manager
	codec    protocol.Codec
	drops    DropRecorder
}

func NewSessionBroadcaster(sessions *session.Manager, codec protocol.Codec, drops DropRecorder) *SessionBroadcaster {
	if codec == nil {
		codec = protocol.JSONCodec{}
	}
	return &SessionBroadcaster{
		sessions: sessions,
		codec:    codec,
		drops:    drops,
	}
}

func (b *SessionBroadcaster) SendTo(connID string, msgType protocol.MsgType, payload interface{}) {
	data, ok := b.encode(msgType, payload)
	if !ok {
		return
	}
	b.deliver(connID, msgType, data)
}

func (b *SessionBroadcaster) Broadcast(connIDs []string, msgType protocol.MsgType, payload interface{}) {
	if len(connIDs) == 0 {
		return
	}
	data, ok := b.encode(msgType, payload)
	if !ok {
		return
	}
	for _, id := range connIDs {
		b.deliver(id, msgType, data)
	}
}

func (b *SessionBroadcaster) encode(msgType protocol.MsgType, payload interface{}) ([]byte, bool) {
	data, err := b.codec.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("encode %s: %v", msgType, err)
		b.dropped("encode")
		return nil, false
	}
	return data, true
}

func (b *SessionBroadcaster) deliver(connID string, msgType protocol.MsgType, data []byte) {
	s, ok := b.sessions.Get(connID)
	if !ok || !s.IsOpen() {
		b.dropped("closed")
		return
	}
	if err := s.Send(uint16(msgType), data); err != nil {
		logger.Log.Debugf("drop %s to %s: %v", msgType, connID, err)
		b.dropped("send")
	}
}

func (b *SessionBroadcaster) dropped(reason string) {
	if b.drops != nil {
		b.drops.MessageDropped(reason)
	}
}
