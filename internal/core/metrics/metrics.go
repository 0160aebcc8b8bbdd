// Package metrics exposes Prometheus instrumentation for the game server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dcrodman/roulette/internal/protocol"
)

// Metrics holds every collector the server reports. Each instance has its own
// registry so that tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsAccepted prometheus.Counter
	HandshakeFailures   prometheus.Counter
	RoomsActive         prometheus.Gauge
	RoomsCreated        prometheus.Counter
	GamesStarted        prometheus.Counter
	GamesFinished       *prometheus.CounterVec
	ShotsFired          *prometheus.CounterVec
	Reloads             prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ConnectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "roulette_connections_accepted_total",
			Help: "The total number of TCP connections accepted.",
		}),
		HandshakeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "roulette_handshake_failures_total",
			Help: "The total number of connections dropped during the nickname handshake.",
		}),
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roulette_rooms_active",
			Help: "The current number of rooms that have not yet retired.",
		}),
		RoomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "roulette_rooms_created_total",
			Help: "The total number of rooms created by pairing two players.",
		}),
		GamesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "roulette_games_started_total",
			Help: "The total number of games in which both players declared ready.",
		}),
		GamesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roulette_games_finished_total",
			Help: "The total number of games finished, by result.",
		}, []string{"result"}),
		ShotsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roulette_shots_fired_total",
			Help: "The total number of shots resolved, by outcome.",
		}, []string{"outcome"}),
		Reloads: factory.NewCounter(prometheus.CounterOpts{
			Name: "roulette_reloads_total",
			Help: "The total number of mid-game cylinder reloads.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// The methods below let a Metrics be handed to a game.Session as its Observer.

func (m *Metrics) GameStarted() { m.GamesStarted.Inc() }

func (m *Metrics) ShotFired(outcome protocol.Outcome) {
	m.ShotsFired.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) Reloaded() { m.Reloads.Inc() }

func (m *Metrics) GameFinished(result string) {
	m.GamesFinished.WithLabelValues(result).Inc()
}
