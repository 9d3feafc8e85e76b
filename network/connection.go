package network

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

type Connection interface {
	Send(msgID uint16, data []byte) error
	Close() error
	IsOpen() bool
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
	ReadPacket() (*Packet, error)
}

// WSConnection frames packets over a websocket. Send only queues; WritePump
// owns every write to the socket.
type WSConnection struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	heartbeat time.Duration
}

func NewWSConnection(conn *websocket.Conn, sendBuffer int) *WSConnection {
	if sendBuffer <= 0 {
		sendBuffer = 1
	}
	return &WSConnection{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send never blocks: a full queue drops the packet and reports
// ErrSendBufferFull.
func (c *WSConnection) Send(msgID uint16, data []byte) error {
	if !c.IsOpen() {
		return ErrConnectionClosed
	}
	packet, err := EncodePacket(msgID, data)
	if err != nil {
		return err
	}
	select {
	case c.send <- packet:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// WritePump drains the send queue and pings at the heartbeat interval.
// It returns when the connection is closed or a write fails.
func (c *WSConnection) WritePump() {
	interval := c.heartbeat
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		c.Close()
		c.conn.Close()
	}()

	for {
		select {
		case packet := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, packet); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return DecodePacket(data)
}

// SetHeartbeat sets the ping period and expects a pong (or any frame)
// within two periods.
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	c.heartbeat = interval
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	})
}

// SetReadLimit bounds the size of one inbound frame.
func (c *WSConnection) SetReadLimit(limit int64) {
	c.conn.SetReadLimit(limit)
}

func (c *WSConnection) IsOpen() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Close is idempotent. It stops WritePump, which sends a close frame and
// closes the socket.
func (c *WSConnection) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
