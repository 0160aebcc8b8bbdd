package player

import (
	"fmt"
	"strings"

	"github.com/dcrodman/roulette/internal/game"
	"github.com/dcrodman/roulette/internal/protocol"
)

// ChatMessage is one relayed CHAT line.
type ChatMessage struct {
	Sender string
	Text   string
}

// View is the game as one client sees it, rebuilt from server events. Any
// token that is missing or malformed leaves the corresponding field as it was.
type View struct {
	// Nickname this client asked for.
	Me   string
	Role protocol.Role

	Status string
	Seated int

	Players [2]string
	Started bool
	Over    bool
	Result  string

	HP      [2]int
	Chamber int
	Live    int
	Blank   int
	Turn    protocol.Role
	Aim     [2]protocol.Target

	Shots       int
	LastOutcome protocol.Outcome
	LastTarget  protocol.Target

	Chat []ChatMessage
}

func NewView(nickname string) *View {
	return &View{
		Me:   nickname,
		Role: protocol.RoleNone,
		HP:   [2]int{game.StartingHP, game.StartingHP},
		Turn: protocol.P1,
	}
}

// Apply updates the view with a server event and reports whether the event
// was one it understands.
func (v *View) Apply(l protocol.Line) bool {
	switch l.Name {
	case protocol.RoomStatus:
		status, _ := l.Arg(0)
		if status != "" {
			v.Status = status
		}
		if seats, ok := l.Arg(1); ok {
			var n, of int
			if _, err := fmt.Sscanf(seats, "%d/%d", &n, &of); err == nil {
				v.Seated = n
				// The lobby reports our own seat while we wait to be paired.
				if status == protocol.StatusWaiting && v.Role == protocol.RoleNone && (n == 1 || n == 2) {
					v.Role = protocol.Role(n - 1)
				}
			}
		}
	case protocol.RoomCreated, protocol.EnterRoom:
		v.applyNames(l)
		if v.Role == protocol.RoleNone {
			switch v.Me {
			case v.Players[protocol.P1]:
				v.Role = protocol.P1
			case v.Players[protocol.P2]:
				v.Role = protocol.P2
			}
		}
	case protocol.GameStart:
		v.applyNames(l)
		v.Started = true
		v.HP = [2]int{game.StartingHP, game.StartingHP}
		v.Live = l.Int("B", v.Live)
		v.Blank = l.Int("K", v.Blank)
	case protocol.Reload:
		v.Chamber = l.Position("", v.Chamber)
		v.Live = l.Int("B", v.Live)
		v.Blank = l.Int("K", v.Blank)
	case protocol.Turn:
		if tok, ok := l.Arg(0); ok {
			if r, ok := protocol.ParseRole(tok); ok {
				v.Turn = r
			}
		}
	case protocol.AimUpdate:
		who, ok := l.Value("WHO")
		if !ok {
			break
		}
		r, ok := protocol.ParseRole(who)
		if !ok {
			break
		}
		if tok, ok := l.Value("TARGET"); ok {
			if t, ok := protocol.ParseTarget(tok); ok {
				v.Aim[r] = t
			}
		}
	case protocol.FireResolve:
		v.Shots++
		if tok, ok := l.Value("RESULT"); ok {
			if o, ok := protocol.ParseOutcome(tok); ok {
				v.LastOutcome = o
			}
		}
		if tok, ok := l.Value("TARGET"); ok {
			if t, ok := protocol.ParseTarget(tok); ok {
				v.LastTarget = t
			}
		}
		v.HP[protocol.P1] = l.Int("HP1", v.HP[protocol.P1])
		v.HP[protocol.P2] = l.Int("HP2", v.HP[protocol.P2])
		v.Live = l.Int("B_LEFT", v.Live)
		v.Blank = l.Int("K_LEFT", v.Blank)
		v.Chamber = l.Position("SHOT", v.Chamber)
	case protocol.GameOver:
		v.Over = true
		if win, ok := l.Value("WIN"); ok {
			v.Result = win
		}
	case protocol.Chat:
		sender, text, found := strings.Cut(l.Rest(), ": ")
		if !found {
			v.Chat = append(v.Chat, ChatMessage{Sender: strings.TrimSpace(sender)})
			break
		}
		v.Chat = append(v.Chat, ChatMessage{
			Sender: strings.TrimSpace(sender),
			Text:   strings.TrimSpace(text),
		})
	default:
		return false
	}
	return true
}

func (v *View) applyNames(l protocol.Line) {
	if name, ok := l.Value("P1"); ok {
		v.Players[protocol.P1] = name
	}
	if name, ok := l.Value("P2"); ok {
		v.Players[protocol.P2] = name
	}
}

// MyTurn reports whether it is this client's turn to fire.
func (v *View) MyTurn() bool {
	return v.Started && !v.Over && v.Role.Valid() && v.Turn == v.Role
}

// Winner returns the nickname of the winner once the game is over, or an
// empty string for a draw or a game still in progress.
func (v *View) Winner() string {
	switch v.Result {
	case string(protocol.WinP1):
		return v.Players[protocol.P1]
	case string(protocol.WinP2):
		return v.Players[protocol.P2]
	}
	return ""
}

// Summary is a one line description of the current state of the game.
func (v *View) Summary() string {
	if !v.Started {
		return fmt.Sprintf("%s %d/2", v.Status, v.Seated)
	}
	s := fmt.Sprintf("%s %d HP | %s %d HP | chamber %s, %d live, %d blank",
		v.Players[protocol.P1], v.HP[protocol.P1],
		v.Players[protocol.P2], v.HP[protocol.P2],
		protocol.FormatPosition(v.Chamber), v.Live, v.Blank)
	if v.Over {
		return s + " | result " + v.Result
	}
	return s + " | turn " + v.Turn.String()
}
