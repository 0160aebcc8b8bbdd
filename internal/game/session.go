// Package game implements the authoritative state of a single revolver
// roulette room.
package game

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dcrodman/roulette/internal/protocol"
)

// StartingHP is the number of hits each player can take.
const StartingHP = 5

// Abandoned is recorded as the result of a game whose players both left
// before anyone ran out of HP.
const Abandoned = "ABANDONED"

// Phase is the stage of the game a Session is in.
type Phase int

const (
	Waiting Phase = iota
	InProgress
	Finished
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "WAITING"
	case InProgress:
		return "IN_PROGRESS"
	default:
		return "FINISHED"
	}
}

// Peer is the connection behind one seat of a Session.
type Peer interface {
	Name() string
	Send(line string) error
}

// Observer is told about game milestones. It is called with the Session lock
// held and must not call back into the Session.
type Observer interface {
	GameStarted()
	ShotFired(outcome protocol.Outcome)
	Reloaded()
	GameFinished(result string)
}

type nopObserver struct{}

func (nopObserver) GameStarted() {}
func (nopObserver) ShotFired(protocol.Outcome) {}
func (nopObserver) Reloaded() {}
func (nopObserver) GameFinished(result string) {}

// Option customizes a Session.
type Option func(s *Session)

// WithSource replaces the randomness used to load the cylinder.
func WithSource(src Source) Option {
	return func(s *Session) { s.source = src }
}

// WithLogger sets the logger used for the Session's own diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.logger = l }
}

// WithObserver registers an Observer for game milestones.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// Session is one room: two paired players and the game between them. Every
// exported method takes the same lock, and every event a method produces is
// sent to both players before the lock is released, so both sides see the
// same events in the same order.
type Session struct {
	id       string
	source   Source
	logger   logrus.FieldLogger
	observer Observer
	now      func() time.Time

	mu       sync.Mutex
	players  [2]Peer
	names    [2]string
	ready    [2]bool
	left     [2]bool
	cylinder Cylinder
	hp       [2]int
	turn     protocol.Role
	aim      [2]protocol.Target
	phase    Phase
	result   string
	shots    int
	reloads  int

	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time

	done     chan struct{}
	doneOnce sync.Once
}

// NewSession seats p1 and p2 in a new room identified by id.
func NewSession(id string, p1, p2 Peer, opts ...Option) *Session {
	discard := logrus.New()
	discard.Out = io.Discard

	s := &Session{
		id:       id,
		logger:   discard,
		observer: nopObserver{},
		now:      time.Now,
		players:  [2]Peer{p1, p2},
		names:    [2]string{p1.Name(), p2.Name()},
		hp:       [2]int{StartingHP, StartingHP},
		turn:     protocol.P1,
		phase:    Waiting,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = NewSource()
	}
	s.createdAt = s.now()
	return s
}

// ID returns the room's identifier.
func (s *Session) ID() string { return s.id }

// Done is closed once the game has finished or both players have left.
func (s *Session) Done() <-chan struct{} { return s.done }

// Announce tells both players that they have been paired.
func (s *Session) Announce() {
	s.mu.Lock()
	defer s.mu.Unlock()

	p1, p2 := s.names[protocol.P1], s.names[protocol.P2]
	s.broadcast(protocol.RoomCreatedLine(p1, p2))
	s.broadcast(protocol.RoomStatusLine(protocol.StatusReady, 2))
	s.broadcast(protocol.EnterRoomLine(p1, p2))
}

// Handle dispatches a line received from the player in seat who. Lines that
// are not client commands are ignored.
func (s *Session) Handle(who protocol.Role, line protocol.Line) {
	cmd, ok := protocol.ParseCommand(line)
	if !ok {
		s.logger.Debugf("ignoring %q from %s", line.Name, who)
		return
	}

	switch cmd.Name {
	case protocol.Ready:
		s.Ready(who)
	case protocol.Aim:
		if !cmd.TargetOK {
			// Keep whatever aim the player had before.
			s.logger.Debugf("ignoring malformed aim %q from %s", line.String(), who)
			return
		}
		s.Aim(who, cmd.Target)
	case protocol.Fire:
		s.Fire(who)
	case protocol.Chat:
		s.Chat(who, cmd.Text)
	}
}

// Ready marks who as ready. The game starts as soon as both players are.
func (s *Session) Ready(who protocol.Role) {
	if !who.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Waiting || s.ready[who] {
		return
	}
	s.ready[who] = true
	s.logger.Infof("%s (%s) is ready", s.names[who], who)

	if s.ready[protocol.P1] && s.ready[protocol.P2] {
		s.start()
	}
}

func (s *Session) start() {
	s.phase = InProgress
	s.startedAt = s.now()
	s.turn = protocol.P1
	s.cylinder.Load(s.source)
	s.observer.GameStarted()

	s.broadcast(protocol.GameStartLine(
		s.names[protocol.P1], s.names[protocol.P2],
		s.cylinder.Live(), s.cylinder.Blank(),
	))
	s.broadcast(protocol.ReloadLine(s.cylinder.Index(), s.cylinder.Live(), s.cylinder.Blank()))
	for _, r := range protocol.Roles {
		s.broadcast(protocol.AimUpdateLine(r, s.aim[r]))
	}
	s.broadcast(protocol.TurnLine(s.turn))

	s.logger.Infof("game started with %d live and %d blank", s.cylinder.Live(), s.cylinder.Blank())
}

// Aim points who's next shot at target. Either player may aim at any time
// during the game.
func (s *Session) Aim(who protocol.Role, target protocol.Target) {
	if !who.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != InProgress {
		return
	}
	s.aim[who] = target
	s.broadcast(protocol.AimUpdateLine(who, target))
}

// Fire pulls the trigger for who. It reports whether the shot was taken;
// firing out of turn or outside of a game changes nothing and sends nothing.
func (s *Session) Fire(who protocol.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != InProgress || who != s.turn {
		return false
	}

	target := s.aim[who]
	outcome := s.cylinder.Next()
	s.shots++
	if outcome == protocol.Live {
		victim := who
		if target == protocol.Enemy {
			victim = who.Other()
		}
		if s.hp[victim] > 0 {
			s.hp[victim]--
		}
	}
	s.observer.ShotFired(outcome)

	s.broadcast(protocol.FireResolveLine(protocol.Resolution{
		Outcome: outcome,
		Target:  target,
		HP:      s.hp,
		Live:    s.cylinder.Live(),
		Blank:   s.cylinder.Blank(),
		Shot:    s.cylinder.Index(),
	}))

	if s.hp[protocol.P1] == 0 || s.hp[protocol.P2] == 0 {
		s.finish()
		return true
	}

	// Surviving a shot at yourself earns another pull.
	if outcome != protocol.Blank || target != protocol.Self {
		s.turn = who.Other()
	}

	if s.cylinder.Spent() {
		s.cylinder.Load(s.source)
		s.reloads++
		s.observer.Reloaded()
		s.broadcast(protocol.ReloadLine(s.cylinder.Index(), s.cylinder.Live(), s.cylinder.Blank()))
	}

	s.broadcast(protocol.TurnLine(s.turn))
	return true
}

func (s *Session) finish() {
	var result protocol.Result
	switch {
	case s.hp[protocol.P1] == 0 && s.hp[protocol.P2] == 0:
		result = protocol.Draw
	case s.hp[protocol.P1] == 0:
		result = protocol.WinP2
	default:
		result = protocol.WinP1
	}

	s.phase = Finished
	s.result = string(result)
	s.finishedAt = s.now()
	s.observer.GameFinished(s.result)
	s.broadcast(protocol.GameOverLine(result))

	s.logger.Infof("game over: %s after %d shots", result, s.shots)
	s.retire()
}

// Chat relays text from who to both players.
func (s *Session) Chat(who protocol.Role, text string) {
	if !who.Valid() || text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.broadcast(protocol.ChatLine(s.names[who], text))
}

// Leave records that who's connection has gone away. The other player is not
// told; once both players have left the Session retires, and a game that was
// still running is recorded as abandoned.
func (s *Session) Leave(who protocol.Role) {
	if !who.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.left[who] {
		return
	}
	s.left[who] = true
	s.logger.Infof("%s (%s) left the room", s.names[who], who)

	if !s.left[who.Other()] {
		return
	}
	if s.phase == InProgress {
		s.phase = Finished
		s.result = Abandoned
		s.finishedAt = s.now()
		s.observer.GameFinished(s.result)
		s.logger.Infof("game abandoned after %d shots", s.shots)
	}
	s.retire()
}

func (s *Session) retire() {
	s.doneOnce.Do(func() { close(s.done) })
}

// broadcast sends line to every player still connected. Must be called with
// s.mu held.
func (s *Session) broadcast(line string) {
	for _, r := range protocol.Roles {
		if s.left[r] {
			continue
		}
		if err := s.players[r].Send(line); err != nil {
			s.logger.Warnf("failed to send to %s (%s): %v", s.names[r], r, err)
		}
	}
}

// Snapshot is a point in time copy of a Session's state.
type Snapshot struct {
	ID         string    `json:"id"`
	Players    [2]string `json:"players"`
	Phase      string    `json:"phase"`
	Ready      [2]bool   `json:"ready"`
	HP         [2]int    `json:"hp"`
	Turn       string    `json:"turn"`
	Aim        [2]string `json:"aim"`
	Chamber    int       `json:"chamber"`
	Live       int       `json:"live"`
	Blank      int       `json:"blank"`
	Shots      int       `json:"shots"`
	Reloads    int       `json:"reloads"`
	Result     string    `json:"result,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Started reports whether the game ever left the waiting phase.
func (s Snapshot) Started() bool { return !s.StartedAt.IsZero() }

// Snapshot returns a copy of the Session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:         s.id,
		Players:    s.names,
		Phase:      s.phase.String(),
		Ready:      s.ready,
		HP:         s.hp,
		Turn:       s.turn.String(),
		Aim:        [2]string{s.aim[protocol.P1].String(), s.aim[protocol.P2].String()},
		Chamber:    s.cylinder.Index(),
		Live:       s.cylinder.Live(),
		Blank:      s.cylinder.Blank(),
		Shots:      s.shots,
		Reloads:    s.reloads,
		Result:     s.result,
		CreatedAt:  s.createdAt,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}
}
