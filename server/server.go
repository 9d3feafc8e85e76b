package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/flowerzone/broadcast"
	"github.com/wfunc/flowerzone/config"
	"github.com/wfunc/flowerzone/logger"
	"github.com/wfunc/flowerzone/loop"
	"github.com/wfunc/flowerzone/monitor"
	"github.com/wfunc/flowerzone/persistence"
	"github.com/wfunc/flowerzone/protocol"
	"github.com/wfunc/flowerzone/room"
	flowerzone_rpc "github.com/wfunc/flowerzone/rpc"
	"github.com/wfunc/flowerzone/services"
	"github.com/wfunc/flowerzone/session"
	"github.com/wfunc/flowerzone/timer"
)

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	codec          protocol.Codec
	monitor        *monitor.Monitor
	sessionManager *session.Manager
	broadcaster    *broadcast.SessionBroadcaster
	timers         *timer.TimerManager
	loop           *loop.Loop
	roomManager    *room.Manager
	recorder       *persistence.AsyncRecorder
	roomService    *services.RoomService
	statsService   *services.StatsService
	rpcServer      *flowerzone_rpc.Server
	httpServer     *http.Server

	mutex        sync.Mutex
	stopLoop     context.CancelFunc
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewGameServer wires every component. db may be nil, in which case no
// round history is kept.
func NewGameServer(cfg *config.Config, db persistence.Database, opts ...room.Option) (*GameServer, error) {
	codec, err := protocol.CodecByName(cfg.Server.Codec)
	if err != nil {
		return nil, err
	}

	s := &GameServer{
		cfg:            cfg,
		codec:          codec,
		monitor:        monitor.NewMonitor(cfg.Monitor.Namespace),
		sessionManager: session.NewManager(),
		timers:         timer.NewTimerManager(nil),
		shutdownCh:     make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	s.broadcaster = broadcast.NewSessionBroadcaster(s.sessionManager, codec, s.monitor)
	s.loop = loop.New(s.timers, cfg.Server.LoopResolution, 0)
	s.loop.OnFault(s.monitor.RoomFault)

	managerOpts := []room.Option{room.WithMetrics(s.monitor)}
	if db != nil {
		s.recorder = persistence.NewAsyncRecorder(db, cfg.Database.RecordBuffer, s.monitor.RecordDropped)
		managerOpts = append(managerOpts, room.WithRecorder(s.recorder))
	}
	s.roomManager = room.NewManager(cfg.Game, s.timers, s.broadcaster, append(managerOpts, opts...)...)

	s.roomService = services.NewRoomService(s.loop, s.roomManager)
	s.statsService = services.NewStatsService(db)
	return s, nil
}

// startLoop runs the event loop in the background. It is safe to call
// more than once.
func (s *GameServer) startLoop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.stopLoop != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopLoop = cancel
	go s.loop.Run(ctx)
}

// Start runs the event loop, the admin RPC listener and the HTTP server.
// It blocks until the HTTP server stops.
func (s *GameServer) Start() error {
	s.startLoop()
	s.monitor.PublishExpvar()

	if s.cfg.Server.RPCAddress != "" {
		admin := flowerzone_rpc.NewAdminService(s.roomService, s.statsService)
		rpcServer, err := flowerzone_rpc.NewServer(s.cfg.Server.RPCAddress, admin)
		if err != nil {
			return err
		}
		s.rpcServer = rpcServer
		go s.rpcServer.Start()
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.HTTPAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, disposes every room, closes all
// sessions and flushes pending round records.
// Concurrent and repeated calls wait for the first one to finish.
func (s *GameServer) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() { s.shutdown(ctx) })
}

func (s *GameServer) shutdown(ctx context.Context) {
	close(s.shutdownCh)

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logger.Log.Warnf("HTTP shutdown: %v", err)
		}
	}
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}

	if err := s.loop.Call(ctx, s.roomManager.Shutdown); err != nil {
		logger.Log.Warnf("Room shutdown: %v", err)
	}
	s.sessionManager.CloseAll()

	s.mutex.Lock()
	if s.stopLoop != nil {
		s.stopLoop()
	}
	s.mutex.Unlock()

	if s.recorder != nil {
		s.recorder.Close()
	}
	logger.Log.Info("Game server stopped.")
}
