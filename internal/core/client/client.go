package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/dcrodman/roulette/internal/protocol"
)

// MaxLineLength is the longest line (excluding the newline) a client may send.
// The reader is sized to hold one such line plus a \r\n terminator.
const MaxLineLength = 4096

// ErrLineTooLong is returned by ReadLine when a client sends more than
// MaxLineLength bytes without a newline.
var ErrLineTooLong = errors.New("line too long")

// Handler receives every non-empty line read from a Client.
type Handler interface {
	HandleLine(c *Client, line protocol.Line)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(c *Client, line protocol.Line)

func (f HandlerFunc) HandleLine(c *Client, line protocol.Line) { f(c, line) }

// Client represents a user connected through a line protocol socket.
type Client struct {
	connection net.Conn
	reader     *bufio.Reader
	ipAddr     string
	port       string

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error

	// Nickname chosen by the player during the handshake.
	Nickname string
	// Seat assigned by the lobby once the client has been paired.
	Role protocol.Role

	// PacketLogger receives a dump of every line in and out when set.
	PacketLogger logrus.FieldLogger
}

func NewClient(connection net.Conn) *Client {
	ip, port, err := net.SplitHostPort(connection.RemoteAddr().String())
	if err != nil {
		ip = connection.RemoteAddr().String()
	}

	return &Client{
		connection: connection,
		reader:     bufio.NewReaderSize(connection, MaxLineLength+2),
		ipAddr:     ip,
		port:       port,
		Role:       protocol.RoleNone,
	}
}

func (c *Client) IPAddr() string { return c.ipAddr }
func (c *Client) Port() string   { return c.port }

// Name returns the client's nickname.
func (c *Client) Name() string { return c.Nickname }

func (c *Client) String() string {
	if c.Nickname == "" {
		return net.JoinHostPort(c.ipAddr, c.port)
	}
	return fmt.Sprintf("%s (%s)", c.Nickname, net.JoinHostPort(c.ipAddr, c.port))
}

// SetReadDeadline bounds the next reads from the client. A zero value removes
// the deadline.
func (c *Client) SetReadDeadline(t time.Time) error {
	return c.connection.SetReadDeadline(t)
}

// ReadLine blocks until the client sends a complete line and returns it
// without its line terminator.
func (c *Client) ReadLine() (string, error) {
	line, isPrefix, err := c.reader.ReadLine()
	if err != nil {
		return "", err
	}
	if isPrefix || len(line) > MaxLineLength {
		return "", ErrLineTooLong
	}

	s := string(line)
	if c.PacketLogger != nil {
		c.PacketLogger.Debugf("<- %s\n%s", c, spew.Sdump(s))
	}
	return s, nil
}

// Send writes a single line to the client. Every call goes straight to the
// socket so that lines are observed in the order they were sent.
func (c *Client) Send(line string) error {
	if c.PacketLogger != nil {
		c.PacketLogger.Debugf("-> %s\n%s", c, spew.Sdump(line))
	}
	return c.transmit([]byte(line + "\n"))
}

// transmit writes the contents of data to the connection until all of it has
// been sent.
func (c *Client) transmit(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	bytesSent := 0
	for bytesSent < len(data) {
		b, err := c.connection.Write(data[bytesSent:])
		if err != nil {
			return fmt.Errorf("failed to send to client %v: %w", c.IPAddr(), err)
		}
		bytesSent += b
	}
	return nil
}

// Listen runs the client's read loop, handing every decoded line to h. It
// blocks until the connection fails, the peer hangs up or ctx is cancelled,
// and always leaves the connection closed. A clean hang up returns nil.
func (c *Client) Listen(ctx context.Context, h Handler) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-stop:
		}
	}()
	defer c.Close()

	for {
		line, err := c.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading from %s: %w", c, err)
		}

		decoded := protocol.Decode(line)
		if decoded.Empty() {
			continue
		}
		h.HandleLine(c, decoded)
	}
}

// Close the connection. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.connection.Close()
	})
	return c.closeErr
}
