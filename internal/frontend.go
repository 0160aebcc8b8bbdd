package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dcrodman/roulette/internal/core"
	"github.com/dcrodman/roulette/internal/core/client"
	"github.com/dcrodman/roulette/internal/core/metrics"
)

// fullPollInterval is how long the accept loop waits before checking again
// whether a full Backend has freed up.
var fullPollInterval = time.Second

// frontend implements the client connection logic.
//
// Connections are accepted on their own goroutine and then handed one at a
// time to the Backend, which performs the handshake and takes ownership of
// the client. Handling them serially is what makes pairing follow arrival
// order.
type frontend struct {
	Address string
	Backend Backend
	Config  *core.Config
	Logger  *logrus.Logger
	Metrics *metrics.Metrics

	mu       sync.Mutex
	listener *net.TCPListener
}

// Start initializes the server backend and opens a TCP socket for the specified server.
// A blocking loop for accepting client connections is spun off in its own goroutine and
// added to the WaitGroup. Context cancellations will stop the server.
func (f *frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %w", f.Backend.Identifier(), err)
	}

	socket, err := f.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %w", f.Address, err)
	}

	wg.Add(1)
	go f.startBlockingLoop(ctx, socket, wg)

	return nil
}

// createSocket opens a TCP socket to listen for client connections on the Address
// provided to the frontend.
func (f *frontend) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("error resolving address: %w", err)
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %w", err)
	}

	f.mu.Lock()
	f.listener = socket
	f.mu.Unlock()
	return socket, nil
}

// Addr returns the address the frontend is listening on, which differs from
// Address when it asked for port 0.
func (f *frontend) Addr() net.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// startBlockingLoop implements a connection handling loop that accepts new
// connections and passes them to the Backend until ctx is cancelled.
func (f *frontend) startBlockingLoop(ctx context.Context, socket *net.TCPListener, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Infof("[%s] waiting for connections on %v", f.Backend.Identifier(), socket.Addr())

	connections := make(chan *net.TCPConn)
	go func() {
		defer close(connections)
		for {
			// Poll until we can accept more clients.
			for f.Backend.Full() {
				select {
				case <-ctx.Done():
					return
				case <-time.After(fullPollInterval):
				}
			}

			connection, err := socket.AcceptTCP()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				f.Logger.Warnf("failed to accept connection: %s", err.Error())
				continue
			}

			select {
			case connections <- connection:
			case <-ctx.Done():
				_ = connection.Close()
				return
			}
		}
	}()

handleLoop:
	for {
		select {
		case <-ctx.Done():
			break handleLoop
		case connection, ok := <-connections:
			if !ok {
				break handleLoop
			}
			f.acceptClient(ctx, connection)
		}
	}

	_ = socket.Close()
	f.Logger.Infof("[%v] shutting down (waiting for connections to close)", f.Backend.Identifier())
	f.Backend.Shutdown()
	f.Logger.Infof("[%v] exited", f.Backend.Identifier())
}

// acceptClient takes a connection and attempts to hand it to the Backend by
// completing the handshake. Clients that fail the handshake are dropped.
func (f *frontend) acceptClient(ctx context.Context, connection *net.TCPConn) {
	c := client.NewClient(connection)
	if f.Config.Debugging.PacketLoggingEnabled {
		c.PacketLogger = f.Logger.WithField("server", f.Backend.Identifier())
	}
	f.Metrics.ConnectionsAccepted.Inc()

	f.Logger.Infof("[%s] accepted connection from %s", f.Backend.Identifier(), c.IPAddr())

	if err := f.Backend.Handshake(ctx, c); err != nil {
		f.Metrics.HandshakeFailures.Inc()
		f.Logger.Warnf("Handshake() failed for client %s: %s", c.IPAddr(), err)
		_ = c.Close()
		return
	}

	if err := f.Backend.Admit(ctx, c); err != nil {
		f.Logger.Warnf("[%s] failed to admit %s: %s", f.Backend.Identifier(), c, err)
	}
}
