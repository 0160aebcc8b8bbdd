package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dcrodman/roulette/internal/protocol"
)

func TestMetrics_Observer(t *testing.T) {
	m := New()

	m.GameStarted()
	m.ShotFired(protocol.Live)
	m.ShotFired(protocol.Blank)
	m.ShotFired(protocol.Blank)
	m.Reloaded()
	m.GameFinished("P1")

	if got := testutil.ToFloat64(m.GamesStarted); got != 1 {
		t.Errorf("games started want = 1, got = %v", got)
	}
	if got := testutil.ToFloat64(m.ShotsFired.WithLabelValues("BLANK")); got != 2 {
		t.Errorf("blank shots want = 2, got = %v", got)
	}
	if got := testutil.ToFloat64(m.ShotsFired.WithLabelValues("BULLET")); got != 1 {
		t.Errorf("live shots want = 1, got = %v", got)
	}
	if got := testutil.ToFloat64(m.GamesFinished.WithLabelValues("P1")); got != 1 {
		t.Errorf("games won by P1 want = 1, got = %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ConnectionsAccepted.Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "roulette_connections_accepted_total 3") {
		t.Errorf("metrics output missing accepted connections:\n%s", body)
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.Reloaded()

	if got := testutil.ToFloat64(b.Reloads); got != 0 {
		t.Errorf("instances should not share collectors, got = %v", got)
	}
}
