package lobby

import (
	"sort"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dcrodman/roulette/internal/game"
)

// Registry tracks every room the lobby has opened. Rooms in play are held
// until they retire; retired rooms are kept as a final snapshot for
// retiredTTL so they can still be inspected.
type Registry struct {
	cache      *gocache.Cache
	retiredTTL time.Duration
	active     atomic.Int64
}

type roomEntry struct {
	session *game.Session
	final   *game.Snapshot
}

func (e *roomEntry) snapshot() game.Snapshot {
	if e.final != nil {
		return *e.final
	}
	return e.session.Snapshot()
}

func NewRegistry(retiredTTL time.Duration) *Registry {
	return &Registry{
		cache:      gocache.New(gocache.NoExpiration, time.Minute),
		retiredTTL: retiredTTL,
	}
}

// Add registers a room that has just been opened.
func (r *Registry) Add(s *game.Session) {
	r.cache.Set(s.ID(), &roomEntry{session: s}, gocache.NoExpiration)
	r.active.Add(1)
}

// Retire replaces a room with its final snapshot, which expires after the
// registry's TTL.
func (r *Registry) Retire(final game.Snapshot) {
	v, ok := r.cache.Get(final.ID)
	if !ok || v.(*roomEntry).final != nil {
		return
	}
	r.active.Add(-1)

	if r.retiredTTL <= 0 {
		r.cache.Delete(final.ID)
		return
	}
	r.cache.Set(final.ID, &roomEntry{final: &final}, r.retiredTTL)
}

// Get returns the current snapshot of the room with the given ID.
func (r *Registry) Get(id string) (game.Snapshot, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return game.Snapshot{}, false
	}
	return v.(*roomEntry).snapshot(), true
}

// List returns snapshots of every known room, oldest first.
func (r *Registry) List() []game.Snapshot {
	items := r.cache.Items()
	rooms := make([]game.Snapshot, 0, len(items))
	for _, item := range items {
		rooms = append(rooms, item.Object.(*roomEntry).snapshot())
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}

// Active returns the number of rooms that have not retired.
func (r *Registry) Active() int {
	return int(r.active.Load())
}
