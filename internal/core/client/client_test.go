package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dcrodman/roulette/internal/protocol"
)

func newTestListener(t *testing.T) (*net.TCPListener, *net.TCPAddr) {
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("error initializing test listener: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	return listener, listener.Addr().(*net.TCPAddr)
}

// newTestPair returns the remote end of a connection along with the Client
// wrapping the server side of it.
func newTestPair(t *testing.T) (*net.TCPConn, *Client) {
	serverListener, addr := newTestListener(t)
	conn, err := net.DialTCP("tcp", nil, addr)
	if err != nil {
		t.Fatalf("error initializing test connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	clientConn, err := serverListener.AcceptTCP()
	if err != nil {
		t.Fatalf("error initializing client connection: %s", err)
	}
	c := NewClient(clientConn)
	t.Cleanup(func() { c.Close() })
	return conn, c
}

func TestClient_ReadLine(t *testing.T) {
	conn, c := newTestPair(t)

	if _, err := conn.Write([]byte("Alice\r\nAIM SELF\n")); err != nil {
		t.Fatalf("error writing to test connection: %s", err)
	}

	for _, want := range []string{"Alice", "AIM SELF"} {
		got, err := c.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine() returned an unexpected error: %s", err)
		}
		if got != want {
			t.Errorf("ReadLine() want = %q, got = %q", want, got)
		}
	}
}

func TestClient_ReadLineTooLong(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "one byte over", line: strings.Repeat("x", MaxLineLength+1) + "\n"},
		{name: "one byte over with CRLF", line: strings.Repeat("x", MaxLineLength+1) + "\r\n"},
		{name: "well over", line: strings.Repeat("x", MaxLineLength+10) + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, c := newTestPair(t)
			go conn.Write([]byte(tt.line))

			if _, err := c.ReadLine(); !errors.Is(err, ErrLineTooLong) {
				t.Fatalf("ReadLine() want = ErrLineTooLong, got = %v", err)
			}
		})
	}
}

func TestClient_ReadLineAtLimit(t *testing.T) {
	full := strings.Repeat("x", MaxLineLength)
	for _, terminator := range []string{"\n", "\r\n"} {
		conn, c := newTestPair(t)
		go conn.Write([]byte(full + terminator + "FIRE\n"))

		got, err := c.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine() of a %d byte line ending in %q returned an error: %v", MaxLineLength, terminator, err)
		}
		if got != full {
			t.Errorf("ReadLine() want = %d bytes, got = %d bytes", len(full), len(got))
		}
		if got, err := c.ReadLine(); err != nil || got != "FIRE" {
			t.Errorf("ReadLine() after a full line want = FIRE, got = %q, %v", got, err)
		}
	}
}

func TestClient_Send(t *testing.T) {
	conn, c := newTestPair(t)

	lines := []string{"HELLO", "ROOM_STATUS WAITING 1/2"}
	for _, l := range lines {
		if err := c.Send(l); err != nil {
			t.Fatalf("Send() returned an unexpected error: %s", err)
		}
	}

	reader := bufio.NewReader(conn)
	var got []string
	for range lines {
		l, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("error reading from test connection: %s", err)
		}
		got = append(got, l)
	}

	want := []string{"HELLO\n", "ROOM_STATUS WAITING 1/2\n"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lines read from test connection did not match expected; diff:\n%s", diff)
	}
}

func TestClient_Listen(t *testing.T) {
	conn, c := newTestPair(t)

	var mu sync.Mutex
	var got []string
	h := HandlerFunc(func(_ *Client, l protocol.Line) {
		mu.Lock()
		got = append(got, l.Name)
		mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- c.Listen(context.Background(), h) }()

	if _, err := conn.Write([]byte("READY\n\n   \nAIM ENEMY\nFIRE\n")); err != nil {
		t.Fatalf("error writing to test connection: %s", err)
	}
	conn.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Listen() returned an unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Listen() did not return after the peer hung up")
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"READY", "AIM", "FIRE"}, got); diff != "" {
		t.Errorf("handled lines did not match expected; diff:\n%s", diff)
	}
}

func TestClient_ListenCancelled(t *testing.T) {
	_, c := newTestPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Listen(ctx, HandlerFunc(func(*Client, protocol.Line) {}))
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Listen() returned an unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Listen() did not return after cancellation")
	}

	if err := c.Send("TURN P1"); err == nil {
		t.Error("Send() on a closed client should fail")
	}
}
