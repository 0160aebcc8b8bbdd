package protocol

import "strconv"

// Room status values carried by ROOM_STATUS.
const (
	StatusWaiting = "WAITING"
	StatusReady   = "READY"
)

// RoomStatusLine reports lobby progress, e.g. ROOM_STATUS WAITING 1/2.
func RoomStatusLine(status string, seated int) string {
	return Encode(RoomStatus, status, strconv.Itoa(seated)+"/2")
}

func RoomCreatedLine(p1, p2 string) string {
	return Encode(RoomCreated, KV("P1", p1), KV("P2", p2))
}

func EnterRoomLine(p1, p2 string) string {
	return Encode(EnterRoom, KV("P1", p1), KV("P2", p2))
}

func GameStartLine(p1, p2 string, live, blank int) string {
	return Encode(GameStart, KV("P1", p1), KV("P2", p2), KV("B", live), KV("K", blank))
}

func ReloadLine(index, live, blank int) string {
	return Encode(Reload, FormatPosition(index), KV("B", live), KV("K", blank))
}

func TurnLine(r Role) string {
	return Encode(Turn, r.String())
}

func AimUpdateLine(who Role, target Target) string {
	return Encode(AimUpdate, KV("WHO", who), KV("TARGET", target))
}

// Resolution is the content of a FIRE_RESOLVE event.
type Resolution struct {
	Outcome Outcome
	Target  Target
	HP      [2]int
	Live    int
	Blank   int
	// Shot is the chamber position after the shot, 1 through 6.
	Shot int
}

func FireResolveLine(r Resolution) string {
	return Encode(FireResolve,
		KV("RESULT", r.Outcome),
		KV("TARGET", r.Target),
		KV("HP1", r.HP[P1]),
		KV("HP2", r.HP[P2]),
		KV("B_LEFT", r.Live),
		KV("K_LEFT", r.Blank),
		KV("SHOT", FormatPosition(r.Shot)),
	)
}

func GameOverLine(r Result) string {
	return Encode(GameOver, KV("WIN", string(r)))
}

// ChatLine is the relayed form of a chat message: CHAT <sender>: <text>.
func ChatLine(sender, text string) string {
	return Chat + " " + sender + ": " + text
}

// Client commands.

func ReadyLine() string { return Ready }

func AimLine(t Target) string { return Encode(Aim, t.String()) }

func FireLine() string { return Fire }

func ChatCommandLine(text string) string { return Chat + " " + text }

// Command is a decoded client to server message.
type Command struct {
	Name string
	// Target is set for AIM; ok is false if the token was missing or unknown.
	Target   Target
	TargetOK bool
	// Text is the free-form payload of CHAT.
	Text string
}

// ParseCommand decodes a client command. Lines that are not client commands
// are reported with ok == false and should be ignored by the caller.
func ParseCommand(l Line) (cmd Command, ok bool) {
	switch l.Name {
	case Ready, Fire:
		return Command{Name: l.Name}, true
	case Aim:
		cmd = Command{Name: Aim}
		if tok, found := l.Arg(0); found {
			cmd.Target, cmd.TargetOK = ParseTarget(tok)
		}
		return cmd, true
	case Chat:
		return Command{Name: Chat, Text: l.Rest()}, true
	}
	return Command{}, false
}
