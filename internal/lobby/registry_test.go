package lobby

import (
	"testing"
	"time"

	"github.com/dcrodman/roulette/internal/game"
	"github.com/dcrodman/roulette/internal/protocol"
)

type nopPeer string

func (p nopPeer) Name() string           { return string(p) }
func (p nopPeer) Send(line string) error { return nil }

func newSession(id string) *game.Session {
	return game.NewSession(id, nopPeer("alice"), nopPeer("bob"))
}

func TestRegistry_AddAndGet(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Add(newSession("a"))

	snap, ok := r.Get("a")
	if !ok {
		t.Fatal("Get() did not find a room that was added")
	}
	if snap.Players != [2]string{"alice", "bob"} || snap.Phase != "WAITING" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get() found a room that was never added")
	}
	if r.Active() != 1 {
		t.Errorf("Active() want = 1, got = %d", r.Active())
	}
}

func TestRegistry_Retire(t *testing.T) {
	r := NewRegistry(time.Minute)
	s := newSession("a")
	r.Add(s)

	s.Ready(protocol.P1)
	s.Ready(protocol.P2)
	s.Leave(protocol.P1)
	s.Leave(protocol.P2)
	final := s.Snapshot()

	r.Retire(final)
	r.Retire(final)

	if r.Active() != 0 {
		t.Errorf("Active() want = 0 after retiring twice, got = %d", r.Active())
	}
	snap, ok := r.Get("a")
	if !ok {
		t.Fatal("retired room should be kept until its TTL expires")
	}
	if snap.Result != game.Abandoned {
		t.Errorf("retired snapshot result want = %s, got = %q", game.Abandoned, snap.Result)
	}
}

func TestRegistry_RetireWithoutTTL(t *testing.T) {
	r := NewRegistry(0)
	s := newSession("a")
	r.Add(s)
	r.Retire(s.Snapshot())

	if _, ok := r.Get("a"); ok {
		t.Error("room should be forgotten as soon as it retires when there is no TTL")
	}
	if r.Active() != 0 {
		t.Errorf("Active() want = 0, got = %d", r.Active())
	}
}

func TestRegistry_RetireUnknownRoom(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Add(newSession("a"))
	r.Retire(game.Snapshot{ID: "b"})

	if r.Active() != 1 {
		t.Errorf("retiring an unknown room changed Active() to %d", r.Active())
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(time.Minute)
	for _, id := range []string{"first", "second", "third"} {
		r.Add(newSession(id))
		time.Sleep(2 * time.Millisecond)
	}

	rooms := r.List()
	if len(rooms) != 3 {
		t.Fatalf("List() want = 3 rooms, got = %d", len(rooms))
	}
	for i, id := range []string{"first", "second", "third"} {
		if rooms[i].ID != id {
			t.Errorf("List()[%d] want = %s, got = %s", i, id, rooms[i].ID)
		}
	}
}
