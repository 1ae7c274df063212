package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSrv "github.com/jmehdipour/rate-table-editor/internal/http"
	"github.com/jmehdipour/rate-table-editor/internal/logger"
	"github.com/jmehdipour/rate-table-editor/internal/metrics"
	"github.com/jmehdipour/rate-table-editor/internal/report"
	"github.com/jmehdipour/rate-table-editor/internal/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		addr   string
		open   bool
		noOpen bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the usage dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()

			dc := a.cfg.Dashboard
			if addr != "" {
				dc.Addr = addr
			}
			if cmd.Flags().Changed("open") {
				dc.Open = open
			}
			if noOpen {
				dc.Open = false
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics.MustRegister(reg)

			var rdb redis.Cmdable
			if dc.RateLimit.RPS > 0 {
				c, err := a.redisClient(cmd.Context())
				if err != nil {
					// the limiter fails open anyway
					logger.Log.Warn("dashboard rate limiting disabled", zap.Error(err))
				} else {
					rdb = c
				}
			}

			server := httpSrv.NewServer(dc, httpSrv.Deps{
				Usage:    report.NewService(a.remote(a.sess.Env), dc.DefaultDays),
				Redis:    rdb,
				Gatherer: reg,
				Logger:   logger.Log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(dc.Addr)
			}()

			url := fmt.Sprintf("http://%s/", dc.Addr)
			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard for %s running at %s\n", a.sess.Env, url)
			if dc.Open {
				util.OpenBrowserAfter(ctx, url, dc.OpenDelay, func(err error) {
					logger.Log.Warn("open browser", zap.Error(err))
				})
			}

			select {
			case <-ctx.Done():
				logger.Log.Info("signal received, shutting down")
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("dashboard exited: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides dashboard.addr)")
	cmd.Flags().BoolVar(&open, "open", false, "open the dashboard in a browser")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "never open a browser")

	return cmd
}
