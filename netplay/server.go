package netplay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// FlushInterval is how often queued messages are written to a client.
	FlushInterval = time.Second / 60

	writeTimeout   = 5 * time.Second
	joinTimeout    = 10 * time.Second
	maxMessageSize = 1 << 16
)

var errNoJoin = errors.New("netplay: first message was not a join")

// Server accepts WebSocket connections and plays each client's game in
// its World.
type Server struct {
	world    *World
	log      *zap.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	// mu orders conns.Add against the Wait in Close
	mu     sync.Mutex
	closed bool
	conns  sync.WaitGroup
}

func NewServer(world *World, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		world: world,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// the web build is served from anywhere
			CheckOrigin: func(*http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) World() *World {
	return s.world
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}
	defer s.conns.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied
		s.log.Debug("upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	if err := s.serveConn(ctx, conn); err != nil {
		s.log.Warn("connection closed", zap.String("remote", r.RemoteAddr), zap.Error(err))
	}
}

// track counts a new connection, or reports false once Close has begun.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns.Add(1)
	return true
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	id, err := readJoin(conn)
	if err != nil {
		return err
	}
	log := s.log.With(zap.Stringer("client", id))
	log.Info("client joined", zap.Int("clients", len(s.world.Clients())+1))
	s.world.Join(id)
	defer func() {
		s.world.Leave(id)
		log.Info("client left")
	}()

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return s.read(ctx, conn, id, log)
	})
	g.Go(func() error {
		return s.flush(ctx, conn, id)
	})
	g.Go(func() error {
		<-ctx.Done()
		// unblocks the reader
		conn.Close()
		return nil
	})
	return g.Wait()
}

func readJoin(conn *websocket.Conn) (uuid.UUID, error) {
	conn.SetReadDeadline(time.Now().Add(joinTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return uuid.Nil, fmt.Errorf("read join: %w", err)
	}
	conn.SetReadDeadline(time.Time{})
	m, err := Decode(data)
	if err != nil {
		return uuid.Nil, err
	}
	join, ok := m.(Join)
	if !ok || join.ClientID == uuid.Nil {
		return uuid.Nil, errNoJoin
	}
	return join.ClientID, nil
}

func (s *Server) read(ctx context.Context, conn *websocket.Conn, id uuid.UUID, log *zap.Logger) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		m, err := Decode(data)
		if err != nil {
			log.Debug("dropping message", zap.Error(err))
			continue
		}
		switch m := m.(type) {
		case Input:
			s.world.Input(id, m.Input, m.Down)
		case Tick:
			s.world.Tick(id)
		case Leave:
			return nil
		case Join:
			// already joined
		}
	}
}

func (s *Server) flush(ctx context.Context, conn *websocket.Conn, id uuid.UUID) error {
	ticker := time.NewTicker(FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		for _, m := range s.world.Drain(id) {
			data, err := Encode(m)
			if err != nil {
				return err
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("write %s: %w", m.Kind(), err)
			}
		}
	}
}

// Close disconnects every client and waits for their handlers to return.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.conns.Wait()
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/", s)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		s.Close()
		return err
	})
	return g.Wait()
}
