// Package protocol defines the line-oriented vocabulary spoken between the
// roulette server and its clients. Every message is a single UTF-8 line made up
// of a command name followed by space separated tokens, which are either bare
// literals (P1, SELF) or KEY=VALUE pairs.
package protocol

// Server to client commands.
const (
	Hello       = "HELLO"
	RoomStatus  = "ROOM_STATUS"
	RoomCreated = "ROOM_CREATED"
	EnterRoom   = "ENTER_ROOM"
	GameStart   = "GAME_START"
	Reload      = "RELOAD"
	Turn        = "TURN"
	AimUpdate   = "AIM_UPDATE"
	FireResolve = "FIRE_RESOLVE"
	GameOver    = "GAME_OVER"
)

// Client to server commands.
const (
	Ready = "READY"
	Aim   = "AIM"
	Fire  = "FIRE"
)

// Chat is relayed in both directions.
const Chat = "CHAT"

// Chambers is the number of slots in the cylinder.
const Chambers = 6

// Role identifies one of the two seats in a room.
type Role int

const (
	RoleNone Role = iota - 1
	P1
	P2
)

// Roles lists the seats in pairing order.
var Roles = [2]Role{P1, P2}

func (r Role) String() string {
	switch r {
	case P1:
		return "P1"
	case P2:
		return "P2"
	default:
		return "NONE"
	}
}

// Other returns the opposing seat.
func (r Role) Other() Role {
	if r == P1 {
		return P2
	}
	return P1
}

// Valid reports whether r is one of the two seats and can be used as an index.
func (r Role) Valid() bool {
	return r == P1 || r == P2
}

// ParseRole converts P1/P2 into a Role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "P1":
		return P1, true
	case "P2":
		return P2, true
	}
	return RoleNone, false
}

// Target is where a player's next shot is pointed.
type Target int

const (
	Enemy Target = iota
	Self
)

func (t Target) String() string {
	if t == Self {
		return "SELF"
	}
	return "ENEMY"
}

// ParseTarget converts SELF/ENEMY into a Target.
func ParseTarget(s string) (Target, bool) {
	switch s {
	case "SELF":
		return Self, true
	case "ENEMY":
		return Enemy, true
	}
	return Enemy, false
}

// Outcome is the content of a single chamber.
type Outcome int

const (
	Blank Outcome = iota
	Live
)

// String returns the wire name of the outcome. Live rounds are called BULLET
// on the wire.
func (o Outcome) String() string {
	if o == Live {
		return "BULLET"
	}
	return "BLANK"
}

// ParseOutcome converts BULLET/BLANK into an Outcome.
func ParseOutcome(s string) (Outcome, bool) {
	switch s {
	case "BULLET":
		return Live, true
	case "BLANK":
		return Blank, true
	}
	return Blank, false
}

// Result is the final state announced by GAME_OVER.
type Result string

const (
	WinP1 Result = "P1"
	WinP2 Result = "P2"
	Draw  Result = "DRAW"
)

// WinnerResult returns the Result naming r as the winner.
func WinnerResult(r Role) Result {
	if r == P1 {
		return WinP1
	}
	return WinP2
}
