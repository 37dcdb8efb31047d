package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/loykin/gerdoo-launcher/internal/console"
	"github.com/loykin/gerdoo-launcher/internal/ui"
)

func createUICommand(gf *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal UI",
		Long: `Open the terminal UI. The server runs attached to the UI with its output
shown in the console pane, an update check runs on open, and quitting force
stops the server.

Keys: s start, x stop, u check for updates, q quit.`,
		RunE: func(c *cobra.Command, _ []string) error {
			return runUI(*gf)
		},
	}
}

func runUI(gf GlobalFlags) error {
	queue := console.NewQueue(console.DefaultQueueSize)
	l, err := openLauncher(gf, openOptions{Queue: queue, LogOutput: io.Discard})
	if err != nil {
		return err
	}
	defer l.Close()

	return ui.Run(ui.Options{
		Server:    l.sup,
		Updater:   l.engine(),
		Queue:     queue,
		ServerURL: l.cfg.ServerURL,
		Version:   l.sup.Record().CurrentVersion,
	})
}
