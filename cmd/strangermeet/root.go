package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adnankhan0111/StrangerMeet/internal/config"
	"github.com/adnankhan0111/StrangerMeet/internal/logging"
	"github.com/adnankhan0111/StrangerMeet/internal/version"
)

// cfg is loaded once per invocation, before any subcommand runs.
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strangermeet",
	Short: "Anonymous stranger matchmaking for video and text chat",
	Long: `StrangerMeet pairs anonymous visitors with each other. Video chat visitors are
paired into a room and exchange WebRTC signaling through the server; text chat
visitors are paired directly and their messages are relayed until one of them
moves on, at which point the other is put back in the queue.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		file, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		loaded, err := config.Load(config.Options{Flags: cmd.Flags(), File: file})
		if err != nil {
			return err
		}
		if err := logging.Init(loaded.LogLevel); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	config.AddCommonFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(serveCmd, chatCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
