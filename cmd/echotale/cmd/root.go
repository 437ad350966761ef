package cmd

import (
	"os"
	"os/signal"

	"github.com/RachelH1213/lab25fall-fourth-project/internal/ui"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/version"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "echotale",
	Short:   "Two-player collaborative story game over a direct peer connection",
	Long: `Echo Tale pairs two anonymous players by room code and hands each a
writing prompt. Both answers drop into a shared story template, and the
assembled story is revealed to both players at the same moment. Answers
travel over a direct WebRTC data channel; the server only pairs players
and relays connection setup.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
