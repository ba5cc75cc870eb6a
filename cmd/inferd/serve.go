package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"inferd/internal/engine"
	"inferd/internal/httpapi"
	"inferd/internal/manager"
	"inferd/internal/registry"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP inference daemon",
		Example: "  inferd serve --models-dir ~/models/ir --device CPU --num-requests 4",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, nil)
		},
	}
	f := cmd.Flags()
	f.String("addr", ":8080", "HTTP listen address, e.g. :8080")
	f.String("default-model", "", "Default model id when request omits model")
	f.Int("budget-mb", 0, "Memory budget in MB for all loaded models (0=unlimited)")
	f.Int("margin-mb", 0, "Reserved memory margin in MB to keep free")
	f.String("preload", "", "Comma-separated model ids to load at startup")
	return cmd
}

// serve runs until ctx is canceled. When ready is non-nil it receives the
// bound listener address once the server accepts connections.
func (a *app) serve(ctx context.Context, ready chan<- string) error {
	cfg := a.cfg
	log := a.log

	reg, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		return err
	}
	log.Info().Str("dir", cfg.ModelsDir).Int("models", len(reg)).Msg("registry loaded")

	core, err := a.loadCore()
	switch {
	case engine.IsUnavailable(err):
		// Keep serving metadata; inference answers 503.
		log.Warn().Err(err).Msg("inference engine unavailable")
		core = nil
	case err != nil:
		return err
	}

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Registry:      reg,
		DefaultModel:  cfg.DefaultModel,
		Core:          core,
		Device:        cfg.Device,
		NumRequests:   cfg.NumRequests,
		BudgetMB:      cfg.BudgetMB,
		MarginMB:      cfg.MarginMB,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       cfg.MaxWait(),
		DrainTimeout:  cfg.DrainTimeout(),
		LeaseTTL:      cfg.LeaseTTL(),
		Publisher:     manager.LogPublisher{Log: log},
		Logger:        &log,
	})
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Error().Err(err).Msg("close manager")
		}
	}()

	if rep := mgr.SanityCheck(); len(rep.MissingFiles) > 0 {
		log.Warn().Strs("missing", rep.MissingFiles).Msg("model files missing")
	}
	if len(cfg.Preload) > 0 && core != nil {
		if err := mgr.Preload(ctx, cfg.Preload, 2); err != nil {
			log.Warn().Err(err).Msg("preload failed")
		}
	}

	httpapi.SetLogger(log)
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetInferTimeoutSeconds(int64(cfg.InferTimeoutSeconds))
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("device", cfg.Device).Msg("inferd listening")
		errCh <- srv.Serve(ln)
	}()
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
