package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/loykin/gerdoo-launcher/internal/history"
	"github.com/loykin/gerdoo-launcher/internal/response"
	"github.com/loykin/gerdoo-launcher/pkg/client"
)

func createHistoryCommand(gf *GlobalFlags) *cobra.Command {
	flags := &HistoryFlags{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent server and update events",
		Long: `List events recorded in the history store configured by history.dsn.
Only sqlite and postgres stores can be listed.`,
		RunE: func(c *cobra.Command, _ []string) error {
			return runHistory(c.Context(), c.OutOrStdout(), *gf, *flags)
		},
	}
	cmd.Flags().IntVar(&flags.Limit, "limit", 20, "number of events to show")
	return cmd
}

func runHistory(ctx context.Context, w io.Writer, gf GlobalFlags, f HistoryFlags) error {
	if f.Limit <= 0 {
		return emit(w, response.Err("limit must be positive"))
	}
	if gf.APIUrl != "" {
		return viaAPI(ctx, w, gf, func(ctx context.Context, c *client.Client) (client.Result, error) {
			return c.History(ctx, f.Limit)
		})
	}
	l, err := openLauncher(gf, cliOpen)
	if err != nil {
		return emitErr(w, err)
	}
	defer l.Close()

	if l.sink == nil {
		return emit(w, response.Err("history is not configured"))
	}
	r, ok := l.historyReader()
	if !ok {
		return emit(w, response.Err("the configured history store cannot be listed"))
	}
	events, err := r.Recent(ctxOrBackground(ctx), f.Limit)
	if err != nil {
		return emitErr(w, err)
	}
	if events == nil {
		events = []history.Event{}
	}
	return emit(w, response.Succeed(map[string]any{"events": events}, fmt.Sprintf("%d event(s)", len(events))))
}
