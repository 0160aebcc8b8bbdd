package internal

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dcrodman/roulette/internal/core"
	"github.com/dcrodman/roulette/internal/core/data"
	"github.com/dcrodman/roulette/internal/player"
	"github.com/dcrodman/roulette/internal/protocol"
)

func startController(t *testing.T, cfg *core.Config) *Controller {
	t.Helper()
	logger := logrus.New()
	logger.Out = io.Discard

	ctx, cancel := context.WithCancel(context.Background())
	ctrl := &Controller{Config: cfg, Logger: logger}

	errs := make(chan error, 1)
	go func() { errs <- ctrl.Start(ctx) }()

	select {
	case <-ctrl.Ready():
	case err := <-errs:
		cancel()
		t.Fatalf("Start() returned early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("controller never became ready")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errs:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("controller did not stop after cancellation")
		}
	})
	return ctrl
}

func testConfig(t *testing.T) *core.Config {
	t.Helper()
	cfg, err := core.LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.Hostname = "127.0.0.1"
	cfg.Port = 0
	return cfg
}

func waitFor(t *testing.T, conn *player.Conn, name string) protocol.Line {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-conn.Events():
			require.True(t, ok, "connection closed while waiting for %s", name)
			if line.Name == name {
				return line
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", name)
		}
	}
}

func TestController_RecordsMatches(t *testing.T) {
	cfg := testConfig(t)
	ctrl := startController(t, cfg)
	addr := ctrl.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alice, err := player.Dial(ctx, addr, "alice")
	require.NoError(t, err)
	waitFor(t, alice, protocol.RoomStatus)
	bob, err := player.Dial(ctx, addr, "bob")
	require.NoError(t, err)

	waitFor(t, alice, protocol.EnterRoom)
	waitFor(t, bob, protocol.EnterRoom)
	require.NoError(t, alice.Ready())
	require.NoError(t, bob.Ready())
	waitFor(t, alice, protocol.Turn)
	waitFor(t, bob, protocol.Turn)

	require.NoError(t, alice.Close())
	require.NoError(t, bob.Close())

	db, err := data.Open(cfg)
	require.NoError(t, err)
	defer data.Close(db)

	var matches []data.Match
	require.Eventually(t, func() bool {
		matches, err = data.FindMatchesByNickname(db, "alice", 10)
		return err == nil && len(matches) == 1
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, "bob", matches[0].Player2)
	require.Equal(t, "ABANDONED", matches[0].Result)
}

func TestController_HandshakeFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Engine = "none"
	cfg.Lobby.HandshakeTimeout = 50 * time.Millisecond
	ctrl := startController(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// A client that never answers HELLO is dropped and the next one is
	// still served.
	var d net.Dialer
	silent, err := d.DialContext(ctx, "tcp", ctrl.Addr().String())
	require.NoError(t, err)
	defer silent.Close()

	conn, err := player.Dial(ctx, ctrl.Addr().String(), "alice")
	require.NoError(t, err)
	defer conn.Close()
	status := waitFor(t, conn, protocol.RoomStatus)
	require.Equal(t, "ROOM_STATUS WAITING 1/2", status.String())

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(ctrl.metrics.HandshakeFailures) == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestController_GamePortInUse(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := testConfig(t)
	cfg.Database.Engine = "none"
	cfg.Port = taken.Addr().(*net.TCPAddr).Port
	cfg.Debugging.Enabled = true
	cfg.Debugging.HTTPPort = 0

	logger := logrus.New()
	logger.Out = io.Discard
	ctrl := &Controller{Config: cfg, Logger: logger}

	errs := make(chan error, 1)
	go func() { errs <- ctrl.Start(context.Background()) }()

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after failing to bind the game port")
	}
}
