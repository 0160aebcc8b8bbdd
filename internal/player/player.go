// Package player is a client for the roulette line protocol. It is used by the
// play command and by tests that drive the server over real sockets.
package player

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dcrodman/roulette/internal/core/client"
	"github.com/dcrodman/roulette/internal/protocol"
)

// ErrNoHello is returned by Dial when the server does not open with HELLO.
var ErrNoHello = errors.New("server did not send HELLO")

// Conn is a connection to a roulette server on which the nickname handshake
// has been completed.
type Conn struct {
	c      *client.Client
	events chan protocol.Line
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Dial connects to addr, answers the HELLO with nickname and starts reading
// server events. The connection is closed when ctx is cancelled.
func Dial(ctx context.Context, addr, nickname string) (*Conn, error) {
	var d net.Dialer
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", addr, err)
	}
	c := client.NewClient(netConn)

	// Don't wait forever on a server that never says hello.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	hello, err := c.ReadLine()
	stop()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("error reading greeting: %w", err)
	}
	if !strings.HasPrefix(hello, protocol.Hello) {
		_ = c.Close()
		return nil, ErrNoHello
	}
	if err := c.Send(nickname); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Nickname = nickname

	conn := &Conn{
		c:      c,
		events: make(chan protocol.Line, 64),
		done:   make(chan struct{}),
	}
	go conn.listen(ctx)
	return conn, nil
}

// SetPacketLogger dumps every line read or written to l at debug level.
func (p *Conn) SetPacketLogger(l logrus.FieldLogger) {
	p.c.PacketLogger = l
}

func (p *Conn) listen(ctx context.Context) {
	defer close(p.events)
	defer close(p.done)

	handler := client.HandlerFunc(func(_ *client.Client, line protocol.Line) {
		select {
		case p.events <- line:
		case <-ctx.Done():
		}
	})
	if err := p.c.Listen(ctx, handler); err != nil {
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
	}
}

// Events yields every line the server sends. The channel is closed when the
// connection ends.
func (p *Conn) Events() <-chan protocol.Line { return p.events }

// Done is closed once the connection has ended.
func (p *Conn) Done() <-chan struct{} { return p.done }

// Err returns the error that ended the connection, if any. A clean hang up is
// not an error.
func (p *Conn) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Nickname returns the nickname sent during the handshake. The server may
// have normalized it; the authoritative form is in ROOM_CREATED.
func (p *Conn) Nickname() string { return p.c.Nickname }

// Send writes a raw protocol line.
func (p *Conn) Send(line string) error { return p.c.Send(line) }

func (p *Conn) Ready() error { return p.Send(protocol.ReadyLine()) }

func (p *Conn) Aim(t protocol.Target) error { return p.Send(protocol.AimLine(t)) }

func (p *Conn) Fire() error { return p.Send(protocol.FireLine()) }

func (p *Conn) Chat(text string) error { return p.Send(protocol.ChatCommandLine(text)) }

func (p *Conn) Close() error { return p.c.Close() }
