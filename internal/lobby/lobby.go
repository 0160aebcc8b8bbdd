// Package lobby implements the backend that greets new connections, asks them
// for a nickname and pairs them off two at a time into game rooms.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcrodman/roulette/internal/core"
	"github.com/dcrodman/roulette/internal/core/client"
	"github.com/dcrodman/roulette/internal/core/metrics"
	"github.com/dcrodman/roulette/internal/game"
	"github.com/dcrodman/roulette/internal/protocol"
)

// ErrHandshake wraps any failure to complete the nickname exchange.
var ErrHandshake = errors.New("handshake failed")

// MatchRecorder stores the outcome of games that were played.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, final game.Snapshot) error
}

// Server is the LOBBY backend. Clients that complete the handshake are seated
// in arrival order: the first waits as P1 until a second arrives to take P2,
// at which point the pair is moved into a new room.
type Server struct {
	Name     string
	Config   *core.Config
	Logger   logrus.FieldLogger
	Metrics  *metrics.Metrics
	Registry *Registry
	// Recorder is optional; without one match results are only logged.
	Recorder MatchRecorder
	// NewSource supplies the randomness for each room. Defaults to game.NewSource.
	NewSource func() game.Source

	mu      sync.Mutex
	waiting *client.Client
	wg      sync.WaitGroup
}

func (s *Server) Identifier() string {
	return s.Name
}

// Init fills in any collaborators that were not provided.
func (s *Server) Init(ctx context.Context) error {
	if s.Config == nil {
		return fmt.Errorf("%s: no config provided", s.Name)
	}
	if s.Logger == nil {
		s.Logger = logrus.StandardLogger()
	}
	if s.Metrics == nil {
		s.Metrics = metrics.New()
	}
	if s.Registry == nil {
		s.Registry = NewRegistry(s.Config.Lobby.RetiredRoomTTL)
	}
	if s.NewSource == nil {
		s.NewSource = game.NewSource
	}
	return nil
}

// Handshake greets the client and reads its nickname.
func (s *Server) Handshake(ctx context.Context, c *client.Client) error {
	if timeout := s.Config.Lobby.HandshakeTimeout; timeout > 0 {
		if err := c.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("%w: %v", ErrHandshake, err)
		}
		defer c.SetReadDeadline(time.Time{})
	}
	// Unblock the read if the server shuts down mid-handshake.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	if err := c.Send(protocol.Hello); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	line, err := c.ReadLine()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	c.Nickname = NormalizeNickname(line, s.Config.Lobby.DefaultNickname, s.Config.Lobby.MaxNicknameLength)
	return nil
}

// Admit seats a client that has completed the handshake.
func (s *Server) Admit(ctx context.Context, c *client.Client) error {
	s.mu.Lock()
	if s.waiting == nil {
		c.Role = protocol.P1
		s.waiting = c
		s.mu.Unlock()

		s.Logger.Infof("[%s] %s connected from %s, waiting for an opponent", s.Name, c.Nickname, c.IPAddr())
		if err := c.Send(protocol.RoomStatusLine(protocol.StatusWaiting, 1)); err != nil {
			s.dropWaiting(c)
			return fmt.Errorf("error sending room status to %s: %w", c, err)
		}
		return nil
	}
	p1 := s.waiting
	s.waiting = nil
	s.mu.Unlock()

	c.Role = protocol.P2
	s.Logger.Infof("[%s] %s connected from %s", s.Name, c.Nickname, c.IPAddr())
	if err := c.Send(protocol.RoomStatusLine(protocol.StatusWaiting, 2)); err != nil {
		// Give the seat back to whoever was already waiting.
		s.mu.Lock()
		s.waiting = p1
		s.mu.Unlock()
		_ = c.Close()
		return fmt.Errorf("error sending room status to %s: %w", c, err)
	}

	s.openRoom(ctx, p1, c)
	return nil
}

func (s *Server) dropWaiting(c *client.Client) {
	s.mu.Lock()
	if s.waiting == c {
		s.waiting = nil
	}
	s.mu.Unlock()
	_ = c.Close()
}

// Full reports whether the configured room limit has been reached.
func (s *Server) Full() bool {
	max := s.Config.Lobby.MaxRooms
	return max > 0 && s.Registry.Active() >= max
}

// Shutdown disconnects anyone still waiting for an opponent and blocks until
// every room has shut down. The rooms themselves stop when the context passed
// to Admit is cancelled.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.waiting != nil {
		_ = s.waiting.Close()
		s.waiting = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// openRoom creates the Session for a freshly paired couple and starts a
// reader for each of them.
func (s *Server) openRoom(ctx context.Context, p1, p2 *client.Client) {
	id := uuid.NewString()
	logger := s.Logger.WithFields(logrus.Fields{
		"room": id,
		"p1":   p1.Nickname,
		"p2":   p2.Nickname,
	})

	session := game.NewSession(id, p1, p2,
		game.WithLogger(logger),
		game.WithObserver(s.Metrics),
		game.WithSource(s.NewSource()),
	)
	s.Registry.Add(session)
	s.Metrics.RoomsCreated.Inc()
	s.Metrics.RoomsActive.Inc()

	session.Announce()
	logger.Infof("[%s] room ready: %s vs %s", s.Name, p1.Nickname, p2.Nickname)

	s.wg.Add(3)
	go s.watch(session, logger)
	go s.serve(ctx, session, p1, logger)
	go s.serve(ctx, session, p2, logger)
}

// serve runs c's read loop, feeding its lines to the session, until the
// connection goes away.
func (s *Server) serve(ctx context.Context, session *game.Session, c *client.Client, logger logrus.FieldLogger) {
	defer s.wg.Done()
	defer s.closeConnectionAndRecover(session, c, logger)

	handler := client.HandlerFunc(func(c *client.Client, line protocol.Line) {
		session.Handle(c.Role, line)
	})
	if err := c.Listen(ctx, handler); err != nil {
		logger.Warnf("error in client communication with %s: %v", c, err)
	}
}

// closeConnectionAndRecover is the failsafe that catches any panics, closes
// the connection and tells the session the seat is empty regardless of the
// state of the connection.
func (s *Server) closeConnectionAndRecover(session *game.Session, c *client.Client, logger logrus.FieldLogger) {
	if err := recover(); err != nil {
		logger.Errorf("error in client communication with %s: error=%s, trace: %s",
			c, err, debug.Stack())
	}

	if err := c.Close(); err != nil {
		logger.Debugf("failed to close client connection: %s", err)
	}
	session.Leave(c.Role)

	logger.Infof("[%s] disconnected %s", s.Name, c)
}

// watch waits for the session to retire, then records how it ended.
func (s *Server) watch(session *game.Session, logger logrus.FieldLogger) {
	defer s.wg.Done()
	<-session.Done()

	final := session.Snapshot()
	s.Registry.Retire(final)
	s.Metrics.RoomsActive.Dec()

	if !final.Started() {
		logger.Infof("[%s] room closed before the game started", s.Name)
		return
	}
	logger.Infof("[%s] room retired with result %s after %d shots", s.Name, final.Result, final.Shots)

	if s.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Recorder.RecordMatch(ctx, final); err != nil {
		logger.Errorf("error recording match: %v", err)
	}
}
