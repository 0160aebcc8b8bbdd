package internal

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/dcrodman/roulette/internal/core"
	"github.com/dcrodman/roulette/internal/core/data"
	"github.com/dcrodman/roulette/internal/core/debug"
	"github.com/dcrodman/roulette/internal/core/metrics"
	"github.com/dcrodman/roulette/internal/lobby"
)

// Controller is the main entrypoint for the server. It's responsible for
// initializing any shared resources (such as database and logging), defining
// the servers, and launching everything.
type Controller struct {
	Config *core.Config
	// Logger is created from Config when not provided.
	Logger *logrus.Logger

	wg      sync.WaitGroup
	db      *gorm.DB
	metrics *metrics.Metrics
	lobby   *lobby.Server
	server  *frontend

	readyOnce sync.Once
	ready     chan struct{}
}

// Start runs every server until ctx is cancelled. It only returns early if
// something fails to start, in which case anything already running is
// stopped first.
func (c *Controller) Start(ctx context.Context) error {
	c.readyChan()
	defer c.Shutdown()

	// Runs before Shutdown so that servers started ahead of a failure exit.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var err error
	// Set up the logger, which will be used by all sub-servers.
	if c.Logger == nil {
		if c.Logger, err = core.NewLogger(c.Config); err != nil {
			return fmt.Errorf("error initializing logger: %w", err)
		}
	}

	c.db, err = data.Open(c.Config)
	if err != nil {
		return err
	}
	if c.db == nil {
		c.Logger.Info("match history disabled")
	}

	c.metrics = metrics.New()
	c.declareServers()

	// Start any debug utilities if we're configured to do so.
	if c.Config.Debugging.Enabled {
		debugServer := &debug.Server{
			Address: c.Config.DebugAddress(),
			Logger:  c.Logger,
			Metrics: c.metrics,
			Rooms:   c.lobby.Registry,
			Pprof:   c.Config.Debugging.PprofEnabled,
		}
		if err := debugServer.Start(ctx, &c.wg); err != nil {
			return fmt.Errorf("error starting debug server: %w", err)
		}
	}

	if err := c.server.Start(ctx, &c.wg); err != nil {
		return fmt.Errorf("error starting %s server: %w", c.server.Backend.Identifier(), err)
	}
	close(c.ready)

	c.wg.Wait()
	return nil
}

// Set up all of the servers we want to run.
func (c *Controller) declareServers() {
	c.lobby = &lobby.Server{
		Name:     "LOBBY",
		Config:   c.Config,
		Logger:   c.Logger,
		Metrics:  c.metrics,
		Registry: lobby.NewRegistry(c.Config.Lobby.RetiredRoomTTL),
	}
	if c.db != nil {
		c.lobby.Recorder = &data.Recorder{DB: c.db}
	}

	c.server = &frontend{
		Address: c.Config.Address(),
		Backend: c.lobby,
		Config:  c.Config,
		Logger:  c.Logger,
		Metrics: c.metrics,
	}
}

func (c *Controller) readyChan() chan struct{} {
	c.readyOnce.Do(func() { c.ready = make(chan struct{}) })
	return c.ready
}

// Ready is closed once the game server is accepting connections.
func (c *Controller) Ready() <-chan struct{} {
	return c.readyChan()
}

// Addr returns the address the game server is listening on once it is Ready.
func (c *Controller) Addr() net.Addr {
	return c.server.Addr()
}

// Shutdown releases the shared resources once all of the servers have stopped.
func (c *Controller) Shutdown() {
	c.wg.Wait()
	if err := data.Close(c.db); err != nil && c.Logger != nil {
		c.Logger.Warnf("error closing database: %v", err)
	}
	c.db = nil
}
