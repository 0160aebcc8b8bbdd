// The roulette command runs the revolver roulette server and the tools that
// go with it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ConfigFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "roulette",
		Short: "Two player revolver roulette server and related tools",
		Run:   ServerCommand,
	}
	rootCmd.PersistentFlags().StringVarP(&ConfigFlag, "config", "c", "", "Path to the server config/data directory")

	historyCmd.Flags().IntVarP(&LimitFlag, "limit", "n", 20, "Maximum number of matches to show")

	playCmd.Flags().StringVarP(&AddrFlag, "addr", "a", "127.0.0.1:5555", "Address of the game server")
	playCmd.Flags().StringVar(&NameFlag, "name", "", "Nickname to play under")
	playCmd.Flags().BoolVarP(&VerboseFlag, "verbose", "v", false, "Dump every line sent and received")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(playCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
