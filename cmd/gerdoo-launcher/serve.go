package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/loykin/gerdoo-launcher/internal/console"
	"github.com/loykin/gerdoo-launcher/internal/metrics"
	"github.com/loykin/gerdoo-launcher/internal/server"
)

func createServeCommand(gf *GlobalFlags) *cobra.Command {
	flags := &ServeFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP control API",
		Long: `Serve the launcher's HTTP control API. The application server is attached
to this process: its output is logged, and it is force stopped on shutdown
unless --stop-on-exit=false.

Examples:
  gerdoo-launcher serve
  gerdoo-launcher serve --listen 127.0.0.1:9000 --base-path /launcher`,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *gf, *flags)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "listen address (default from http.listen)")
	cmd.Flags().StringVar(&flags.BasePath, "base-path", "", "API base path (default from http.base_path)")
	cmd.Flags().BoolVar(&flags.StopOnExit, "stop-on-exit", true, "force stop the server when serve exits")
	cmd.Flags().DurationVar(&flags.Shutdown, "shutdown-timeout", 5*time.Second, "graceful HTTP shutdown timeout")
	return cmd
}

func runServe(ctx context.Context, gf GlobalFlags, f ServeFlags) error {
	queue := console.NewQueue(console.DefaultQueueSize)
	l, err := openLauncher(gf, openOptions{Queue: queue})
	if err != nil {
		return err
	}
	defer l.Close()

	// nothing renders the console here, so its lines go to the log
	go logConsole(queue, l)

	listen := f.Listen
	if listen == "" {
		listen = l.cfg.HTTP.Listen
	}
	base := f.BasePath
	if base == "" {
		base = l.cfg.HTTP.BasePath
	}

	opts := []server.Option{server.WithBackground(ctx)}
	if r, ok := l.historyReader(); ok {
		opts = append(opts, server.WithHistory(r))
	}

	var sampler *metrics.ProcessMetricsCollector
	if l.cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			l.log.Warn("register metrics", "error", err)
		}
		sampler = metrics.NewProcessMetricsCollector(metrics.ProcessMetricsConfig{
			Enabled:  true,
			Interval: l.cfg.Metrics.Interval,
		})
		if err := sampler.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			l.log.Warn("register process metrics", "error", err)
		}
		sampler.Start(ctx, func() int {
			pid, _ := l.sup.PID()
			return pid
		})
		defer sampler.Stop()
		opts = append(opts, server.WithProcessMetrics(sampler))
	}

	router := server.NewRouter(l.sup, l.engine(), base, opts...)
	srv := server.NewServer(listen, router)
	l.log.Info("serving control API", "addr", listen, "base_path", base)
	fmt.Printf("Starting gerdoo-launcher API on %s%s\n", listen, base)

	<-ctx.Done()
	l.log.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), f.Shutdown)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		l.log.Warn("http shutdown", "error", err)
	}
	if f.StopOnExit {
		l.sup.ForceStopSync()
		if err := l.sup.Save(); err != nil {
			return err
		}
	}
	return nil
}

func logConsole(q *console.Queue, l *launcher) {
	for m := range q.C() {
		l.log.Info("console", "stream", m.Kind.String(), "line", m.Text)
	}
}
