package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcrodman/roulette/internal/core"
	"github.com/dcrodman/roulette/internal/core/data"
)

var historyCmd = &cobra.Command{
	Use:   "history [nickname]",
	Short: "Lists recently played matches, optionally only those of one player",
	Args:  cobra.MaximumNArgs(1),
	Run:   HistoryCommand,
}

var LimitFlag int

func HistoryCommand(cmd *cobra.Command, args []string) {
	config, err := core.LoadConfig(ConfigFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	db, err := data.Open(config)
	if err != nil {
		fmt.Println("error connecting to database:", err)
		os.Exit(1)
	}
	if db == nil {
		fmt.Println("match history is disabled (database engine is none)")
		return
	}
	defer data.Close(db)

	var matches []data.Match
	if len(args) == 1 {
		matches, err = data.FindMatchesByNickname(db, args[0], LimitFlag)
	} else {
		matches, err = data.RecentMatches(db, LimitFlag)
	}
	if err != nil {
		fmt.Println("error looking up matches:", err)
		os.Exit(1)
	}
	if len(matches) == 0 {
		fmt.Println("no matches found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FINISHED\tP1\tP2\tRESULT\tWINNER\tSHOTS\tHP")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d/%d\n",
			m.FinishedAt.Local().Format(time.DateTime),
			m.Player1, m.Player2, m.Result, m.Winner(), m.Shots, m.HP1, m.HP2,
		)
	}
	w.Flush()
}
