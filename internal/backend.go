package internal

import (
	"context"

	"github.com/dcrodman/roulette/internal/core/client"
)

// Backend is an interface for a sub-server that takes ownership of the clients
// accepted by a frontend.
type Backend interface {
	// Name returns a uniquely identifying string.
	Identifier() string

	// Init is called before a Backend is started as a hook for the Backend to
	// perform any necessary initialization before it can accept clients.
	Init(ctx context.Context) error

	// Handshake performs any connection initialization necessary to begin
	// communicating with the client. For the lobby that means sending HELLO
	// and reading back a nickname.
	Handshake(ctx context.Context, c *client.Client) error

	// Admit hands a client that completed the handshake to the Backend, which
	// is responsible for it (and for closing it) from then on. Admit is called
	// for one client at a time, in the order the connections were accepted.
	Admit(ctx context.Context, c *client.Client) error

	// Full reports whether the Backend cannot take on any more clients right now.
	Full() bool

	// Shutdown blocks until every client the Backend owns has been released.
	Shutdown()
}
