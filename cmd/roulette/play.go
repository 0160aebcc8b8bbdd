package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dcrodman/roulette/internal/player"
	"github.com/dcrodman/roulette/internal/protocol"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Connects to a server and plays from the terminal",
	Long: "Connects to a server and plays from the terminal. Type ready, aim self, aim enemy,\n" +
		"fire or chat <message>; anything else is sent to the server as typed.",
	Run: PlayCommand,
}

var (
	AddrFlag    string
	NameFlag    string
	VerboseFlag bool
)

func PlayCommand(cmd *cobra.Command, args []string) {
	stdin := bufio.NewScanner(os.Stdin)
	name := NameFlag
	if name == "" {
		fmt.Print("Nickname: ")
		stdin.Scan()
		name = stdin.Text()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	conn, err := player.Dial(ctx, AddrFlag, name)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer conn.Close()

	if VerboseFlag {
		logger := logrus.New()
		logger.SetLevel(logrus.DebugLevel)
		conn.SetPacketLogger(logger)
	}

	go func() {
		for stdin.Scan() {
			if err := conn.Send(translate(stdin.Text())); err != nil {
				fmt.Println("error sending:", err)
				cancel()
				return
			}
		}
		cancel()
	}()

	view := player.NewView(name)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-conn.Events():
			if !ok {
				if err := conn.Err(); err != nil {
					fmt.Println(err)
				}
				fmt.Println("disconnected")
				return
			}
			view.Apply(line)
			printEvent(view, line)
		}
	}
}

// translate turns the shorthand typed at the prompt into a protocol line.
func translate(input string) string {
	input = strings.TrimSpace(input)
	word, rest, _ := strings.Cut(input, " ")
	switch strings.ToLower(word) {
	case "ready":
		return protocol.ReadyLine()
	case "fire":
		return protocol.FireLine()
	case "aim":
		if t, ok := protocol.ParseTarget(strings.ToUpper(strings.TrimSpace(rest))); ok {
			return protocol.AimLine(t)
		}
	case "chat":
		return protocol.ChatCommandLine(strings.TrimSpace(rest))
	}
	return input
}

func printEvent(v *player.View, line protocol.Line) {
	switch line.Name {
	case protocol.Chat:
		msg := v.Chat[len(v.Chat)-1]
		fmt.Printf("<%s> %s\n", msg.Sender, msg.Text)
	case protocol.FireResolve:
		fmt.Printf("%s at %s\n", v.LastOutcome, v.LastTarget)
		fmt.Println(v.Summary())
	case protocol.Turn:
		if v.MyTurn() {
			fmt.Println("your turn")
		} else {
			fmt.Println(v.Players[v.Turn] + "'s turn")
		}
	case protocol.GameOver:
		if winner := v.Winner(); winner != "" {
			fmt.Println("game over,", winner, "wins")
		} else {
			fmt.Println("game over,", v.Result)
		}
	default:
		fmt.Println(line.String())
	}
}
