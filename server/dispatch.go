package server

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/wfunc/flowerzone/logger"
	"github.com/wfunc/flowerzone/loop"
	"github.com/wfunc/flowerzone/network"
	"github.com/wfunc/flowerzone/protocol"
	"github.com/wfunc/flowerzone/room"
	"github.com/wfunc/flowerzone/session"
)

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn, s.cfg.Server.SendBuffer)
	wsConn.SetReadLimit(s.cfg.Server.ReadLimit)
	wsConn.SetHeartbeat(s.cfg.Server.PingInterval)

	limiter := rate.NewLimiter(rate.Limit(s.cfg.Server.MessagesPerSecond), s.cfg.Server.MessageBurst)
	sess := session.NewSession(uuid.New().String(), wsConn, limiter)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlineConnections()
	go wsConn.WritePump()

	logger.Log.Infof("New connection from %s, session ID: %s", sess.RemoteAddr, sess.ID)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", sess.RemoteAddr, sess.ID)
		s.sessionManager.Remove(sess.ID)
		s.monitor.DecOnlineConnections()
		id := sess.ID
		if err := s.loop.Post(func() { s.roomManager.Disconnect(id) }); err != nil && !errors.Is(err, loop.ErrStopped) {
			logger.Log.Warnf("Disconnect of %s not delivered: %v", id, err)
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownCh:
			return
		default:
		}
		packet, err := wsConn.ReadPacket()
		if err != nil {
			return
		}
		if !sess.Allow() {
			s.monitor.MessageDropped("rate_limited")
			continue
		}
		s.handlePacket(sess, packet)
	}
}

// handlePacket decodes a frame on the reader goroutine and hands the
// command to the event loop.
func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	msgType := protocol.MsgType(packet.MsgID)
	s.monitor.IncMessagesReceived(msgType.String())

	cmd, err := protocol.Decode(msgType, packet.Data, s.codec)
	if err != nil {
		logger.Log.Debugf("Bad request from %s: %v", sess.ID, err)
		s.broadcaster.SendTo(sess.ID, protocol.MsgError, protocol.ErrorEvent{
			Code:    protocol.CodeBadRequest,
			Message: err.Error(),
		})
		return
	}
	if _, ok := cmd.(*protocol.Heartbeat); ok {
		return
	}

	received := time.Now()
	connID := sess.ID
	if err := s.loop.Post(func() {
		s.dispatch(connID, cmd)
		s.monitor.ObserveMessageLatency(time.Since(received))
	}); err != nil {
		logger.Log.Debugf("Dropping %s from %s: %v", msgType, connID, err)
	}
}

// dispatch runs on the event loop.
func (s *GameServer) dispatch(connID string, cmd protocol.Command) {
	var err error
	switch c := cmd.(type) {
	case *protocol.CreateRoom:
		_, err = s.roomManager.CreateRoom(connID, c.Player)
	case *protocol.JoinRoom:
		_, err = s.roomManager.JoinRoom(connID, c.RoomCode, c.Player)
	case *protocol.LeaveRoom:
		err = s.roomManager.LeaveRoom(connID)
	case *protocol.ToggleReady:
		err = s.roomManager.ToggleReady(connID, c.Ready)
	case *protocol.StartRound:
		err = s.roomManager.StartRound(connID)
	case *protocol.Move:
		err = s.roomManager.Move(connID, c)
	case *protocol.Collect:
		err = s.roomManager.Collect(connID, c)
	}
	s.reportError(connID, cmd.Type(), err)
}

// reportError answers rejections with an error event. Every other failure
// is dropped without a reply.
func (s *GameServer) reportError(connID string, msgType protocol.MsgType, err error) {
	if err == nil {
		return
	}
	if rej, ok := room.IsRejection(err); ok {
		s.broadcaster.SendTo(connID, protocol.MsgError, protocol.ErrorEvent{
			Code:    rej.Code,
			Message: rej.Message,
		})
		return
	}
	logger.Log.Debugf("Ignoring %s from %s: %v", msgType, connID, err)
}
