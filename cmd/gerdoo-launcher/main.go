package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	root := createRootCommand(globalFlags)
	root.AddCommand(
		createServerCommand(globalFlags),
		createUpdateCommand(globalFlags),
		createInstallCommand(globalFlags),
		createHistoryCommand(globalFlags),
		createUICommand(globalFlags),
		createServeCommand(globalFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "gerdoo-launcher",
		Short: "Run and update the local Gerdoo server",
		Long: `gerdoo-launcher starts and stops the local Gerdoo application server and
keeps the application up to date.

Every command except ui and serve prints one JSON line:
  {"status": true|false, "data": {...}, "message": "..."}

Examples:
  gerdoo-launcher server start
  gerdoo-launcher update check
  gerdoo-launcher install create-user --username admin --email a@b.c --password secret
  gerdoo-launcher ui                 # terminal UI
  gerdoo-launcher serve              # local HTTP control API
  gerdoo-launcher server start --api-url=http://127.0.0.1:8787/api`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to launcher config file (toml, yaml or json)")
	root.PersistentFlags().StringVar(&flags.APIUrl, "api-url", "", "launcher API of a running serve (e.g. http://127.0.0.1:8787/api)")
	root.PersistentFlags().DurationVar(&flags.APITimeout, "api-timeout", 10*time.Second, "request timeout for --api-url")
	return root
}
