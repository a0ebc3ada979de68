package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"google.golang.org/grpc"

	restapi "github.com/hugr-lab/restapi-airport"
	"github.com/hugr-lab/restapi-airport/catalog"
	"github.com/hugr-lab/restapi-airport/descriptor"
	"github.com/hugr-lab/restapi-airport/rest"
)

const shutdownTimeout = 10 * time.Second

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "restapi-airport",
		Short: "Serve REST APIs as DuckDB tables over Arrow Flight",
		Long: `restapi-airport loads REST service descriptors and serves every table
they declare to DuckDB through the Airport extension:

  ATTACH 'shop' (TYPE AIRPORT, LOCATION 'grpc://localhost:50051');
  SELECT * FROM shop.orders WHERE region = 'EU';

Settings come from flags, a config file (--config) and RESTAPI_*
environment variables, e.g. RESTAPI_LOG_LEVEL=debug.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := cfg.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	registerFlags(root.Flags())
	return root
}

func serve(ctx context.Context, cfg *config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []rest.Option{
		rest.WithLogger(logger),
		rest.WithMetrics(rest.NewMetrics(reg)),
		rest.WithBreaker(cfg.breaker()),
	}
	if cfg.BatchSize > 0 {
		opts = append(opts, rest.WithBatchSize(cfg.BatchSize))
	}

	cat, err := buildCatalog(cfg.Descriptors, logger, opts)
	if err != nil {
		return err
	}

	serverConfig := restapi.ServerConfig{
		Catalog:        cat,
		Logger:         logger,
		MaxMessageSize: cfg.MaxMessageSize,
		Address:        cfg.PublicAddress,
	}
	if len(cfg.Auth.Tokens) > 0 {
		serverConfig.Auth = restapi.StaticTokens(cfg.Auth.Tokens)
	}

	grpcOpts := restapi.ServerOptions(serverConfig)
	creds, err := cfg.transportCredentials()
	if err != nil {
		return err
	}
	if creds != nil {
		grpcOpts = append(grpcOpts, grpc.Creds(creds))
	}
	grpcServer := grpc.NewServer(grpcOpts...)
	if err := restapi.NewServer(grpcServer, serverConfig); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Address, err)
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info("Flight server listening", "address", lis.Addr().String(), "tls", creds != nil)
		errc <- grpcServer.Serve(lis)
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{Addr: cfg.MetricsAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			logger.Info("Metrics server listening", "address", cfg.MetricsAddress)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err = <-errc:
		logger.Error("Server stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if metricsServer != nil {
		err = multierr.Append(err, metricsServer.Shutdown(shutdownCtx))
	}
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	return err
}

// buildCatalog loads every descriptor under paths into a catalog. Invalid
// tables and unreadable descriptor files are logged and skipped.
func buildCatalog(paths []string, logger *slog.Logger, opts []rest.Option) (catalog.Catalog, error) {
	var services []*descriptor.Service
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("descriptor path: %w", err)
		}
		if !info.IsDir() {
			svc, err := descriptor.Load(path)
			if err != nil {
				return nil, err
			}
			services = append(services, svc)
			continue
		}
		loaded, err := descriptor.LoadDir(path)
		for _, e := range multierr.Errors(err) {
			logger.Error("Skipping descriptor", "error", e)
		}
		services = append(services, loaded...)
	}

	builder := restapi.NewCatalogBuilder()
	tables := 0
	for _, svc := range services {
		_, err := builder.Service(svc, opts...)
		skipped := multierr.Errors(err)
		for _, e := range skipped {
			logger.Error("Skipping table", "schema", svc.Schema, "source", svc.Source, "error", e)
		}
		tables += len(svc.Tables) - len(skipped)
		logger.Info("Registered service", "schema", svc.Schema, "source", svc.Source, "tables", len(svc.Tables)-len(skipped))
	}

	cat, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	logger.Info("Catalog ready", "schemas", len(services), "tables", tables)
	return cat, nil
}
