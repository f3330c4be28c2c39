package server

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-interview/internal/stats"
	"github.com/npezzotti/go-interview/internal/types"
	"github.com/rs/zerolog"
)

var ErrServerStopped = errors.New("signal server stopped")

// AuditRecorder receives room presence changes. Implementations must not
// block.
type AuditRecorder interface {
	RecordAsync(interviewID, action, userName string, details types.Details) bool
}

type nopRecorder struct{}

func (nopRecorder) RecordAsync(string, string, string, types.Details) bool { return false }

type SignalServer struct {
	log        zerolog.Logger
	stats      stats.StatsProvider
	recorder   AuditRecorder
	registry   *Registry
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	events     chan *ClientMessage
	stop       chan struct{}
	stopOnce   sync.Once
	done       chan struct{}
	newID      func() string
}

func NewSignalServer(logger zerolog.Logger, su stats.StatsProvider, recorder AuditRecorder, capacity int) *SignalServer {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	su.RegisterMetric(stats.ActiveConnections)
	su.RegisterMetric(stats.ActiveRooms)

	return &SignalServer{
		log:        logger,
		stats:      su,
		recorder:   recorder,
		registry:   NewRegistry(capacity),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *ClientMessage, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		newID:      uuid.NewString,
	}
}

// NewClient wraps an upgraded connection. identity is nil for anonymous
// connections.
func (s *SignalServer) NewClient(conn *websocket.Conn, identity *types.User) *Client {
	id := s.newID()
	logger := s.log.With().Str("connection_id", id).Logger()
	if identity != nil {
		logger = logger.With().Str("user_id", identity.Id).Logger()
	}

	return &Client{
		id:       id,
		conn:     conn,
		server:   s,
		log:      logger,
		identity: identity,
		send:     make(chan *ServerMessage, sendBufferSize),
		stop:     make(chan struct{}),
	}
}

// Register hands c to the event loop. It fails once the server has stopped.
func (s *SignalServer) Register(c *Client) error {
	select {
	case s.register <- c:
		return nil
	case <-s.done:
		return ErrServerStopped
	}
}

func (s *SignalServer) deregister(c *Client) {
	select {
	case s.unregister <- c:
	case <-s.done:
	}
}

func (s *SignalServer) post(msg *ClientMessage) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- msg:
		return true
	case <-s.done:
		return false
	}
}

func (s *SignalServer) Run() {
	for {
		select {
		case c := <-s.register:
			s.addClient(c)
		case c := <-s.unregister:
			s.removeClient(c)
		case msg := <-s.events:
			s.dispatch(msg)
		case <-s.stop:
			s.log.Info().Int("connections", len(s.clients)).Msg("shutting down signal server")
			for _, c := range s.clients {
				c.stopClient()
			}

			close(s.done)
			return
		}
	}
}

func (s *SignalServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("received shutdown signal")
	s.stopOnce.Do(func() { close(s.stop) })

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SignalServer) addClient(c *Client) {
	s.clients[c.id] = c
	s.stats.Incr(stats.ActiveConnections)
	c.log.Debug().Msg("connection registered")

	c.queueMessage(&ServerMessage{
		Event: EventConnected,
		Data:  Connected{UserId: c.id, UserName: c.displayName("")},
	})
}

// removeClient runs the disconnect path: every room the connection was in
// is left as if it had sent an explicit leave.
func (s *SignalServer) removeClient(c *Client) {
	if _, ok := s.clients[c.id]; !ok {
		return
	}

	for _, d := range s.registry.LeaveAll(c) {
		s.afterLeave(c, d.Kind, d.Id, d.LeaveResult)
	}

	delete(s.clients, c.id)
	s.stats.Decr(stats.ActiveConnections)
	c.stopClient()
	c.log.Debug().Msg("connection removed")
}

func (s *SignalServer) lookup(id string) *Client {
	return s.clients[id]
}
