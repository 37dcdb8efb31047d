package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/loykin/gerdoo-launcher/internal/response"
	"github.com/loykin/gerdoo-launcher/internal/updater"
	"github.com/loykin/gerdoo-launcher/pkg/client"
)

func createUpdateCommand(gf *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for or install application updates",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Compare the installed version with the remote manifest",
			RunE: func(c *cobra.Command, _ []string) error {
				return runUpdateCheck(c.Context(), c.OutOrStdout(), *gf)
			},
		},
		&cobra.Command{
			Use:   "update",
			Short: "Check and install the newer version if there is one",
			Long: `Fetch the manifest and, when it names a newer version, replace the app
directory with a fresh sparse checkout. Stop the server first; the new version
is used on the next start.`,
			RunE: func(c *cobra.Command, _ []string) error {
				return runUpdate(c.Context(), c.OutOrStdout(), *gf)
			},
		},
	)
	return cmd
}

func runUpdateCheck(ctx context.Context, w io.Writer, gf GlobalFlags) error {
	if gf.APIUrl != "" {
		return viaAPI(ctx, w, gf, func(ctx context.Context, c *client.Client) (client.Result, error) {
			return c.CheckForUpdate(ctx)
		})
	}
	l, err := openLauncher(gf, cliOpen)
	if err != nil {
		return emitErr(w, err)
	}
	defer l.Close()

	eng := l.engine()
	err = eng.CheckForUpdate(ctxOrBackground(ctx))
	return emit(w, snapshotResponse(eng.Snapshot(), err))
}

func runUpdate(ctx context.Context, w io.Writer, gf GlobalFlags) error {
	if gf.APIUrl != "" {
		return viaAPI(ctx, w, gf, remoteUpdate)
	}
	l, err := openLauncher(gf, cliOpen)
	if err != nil {
		return emitErr(w, err)
	}
	defer l.Close()

	eng := l.engine()
	err = eng.Run(ctxOrBackground(ctx))
	return emit(w, snapshotResponse(eng.Snapshot(), err))
}

func snapshotResponse(snap updater.Snapshot, err error) response.Response {
	if err != nil || snap.Status.State == updater.Errored {
		return response.Fail(snap, snap.Status.String())
	}
	return response.Succeed(snap, snap.Status.String())
}

// remoteUpdate checks through the API and, when an update is available,
// starts the background install; the result does not wait for it to finish.
func remoteUpdate(ctx context.Context, c *client.Client) (client.Result, error) {
	res, err := c.CheckForUpdate(ctx)
	if err != nil || !res.Status {
		return res, err
	}
	var st client.UpdateStatus
	if err := json.Unmarshal(res.Data, &st); err != nil {
		return res, err
	}
	if !st.UpdateAvailable {
		return res, nil
	}
	return c.InstallUpdate(ctx)
}
