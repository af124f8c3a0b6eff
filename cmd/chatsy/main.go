package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Gauravprp/chatsy/internal/app"
	"github.com/Gauravprp/chatsy/internal/config"
	"github.com/Gauravprp/chatsy/internal/core"
	"github.com/Gauravprp/chatsy/internal/log"
	"github.com/Gauravprp/chatsy/internal/prompt"
)

func main() {
	var (
		configPath string
		room       string
		pageURL    string
		apiURL     string
		logLevel   string
		push       bool
	)

	rootCmd := &cobra.Command{
		Use:   "chatsy",
		Short: "Terminal chat client",
		Long: `chatsy joins a chat room on a message backend and keeps it in sync.

The room comes from --room, or from the query string of --url
(e.g. "https://chat.example/?team"). Without either the "default" room is used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.NewWithWriter("warn", os.Stderr)
			cfg, _, err := config.Load(bootLogger, configPath)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.Client.APIURL = apiURL
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if push {
				cfg.Client.Push = true
			}

			logger := log.NewWithWriter(cfg.LogLevel, os.Stderr)

			var target core.Room
			switch {
			case room != "":
				target = core.RoomFromQuery(room)
			case pageURL != "":
				target = core.RoomFromURL(pageURL)
			default:
				target = core.RoomFromQuery(cfg.Client.Room)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			term := prompt.NewTerminal(os.Stdout)
			defer term.Close()

			client := app.NewClient(cfg, target, app.ClientDeps{
				Console: term,
				Out:     os.Stdout,
			}, logger)
			return client.Run(ctx)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&room, "room", "", "room to join")
	rootCmd.Flags().StringVar(&pageURL, "url", "", "page address whose query string names the room")
	rootCmd.Flags().StringVar(&apiURL, "api-url", "", "message endpoint, e.g. http://localhost:8080/messages")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn, error or off")
	rootCmd.Flags().BoolVar(&push, "push", false, "refresh on server push notifications")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
