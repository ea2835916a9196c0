package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/leadflow/internal/cli"
	httpadapter "github.com/aretw0/leadflow/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves wizard sessions as a JSON API described by /openapi.yaml, with
server-sent state diffs on /sessions/{id}/events and Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().String("addr", ":8080", "Address to listen on")
	cmd.Flags().Bool("metrics", true, "Expose Prometheus metrics")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			a.cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("metrics") {
			a.cfg.HTTP.Metrics, _ = cmd.Flags().GetBool("metrics")
		}
		return nil
	}
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	var reg *prometheus.Registry
	if a.cfg.HTTP.Metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	wizard, err := cli.NewWizard(a.cfg, a.logger, registerer(reg))
	if err != nil {
		return err
	}
	backend, err := cli.NewBackend(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	api, err := httpadapter.NewServer(wizard, backend.Sessions, httpadapter.WithLogger(a.logger))
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	if reg != nil {
		mux.Handle(a.cfg.HTTP.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	mux.Handle("/", api.Handler())

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting leadflow server", "address", srv.Addr, "flow", wizard.Name, "store", a.cfg.Store.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.logger.Info("Start shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Open event streams would hold Shutdown until the deadline.
		srv.RegisterOnShutdown(api.Streams().CloseAll)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		a.logger.Info("Leadflow server stopped gracefully")
		return nil
	}
}

// registerer avoids handing a typed nil registry to the wizard.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}
