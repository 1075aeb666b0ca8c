package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/OneVoice/internal/adapters/amqp"
	router "github.com/dkeye/OneVoice/internal/adapters/http"
	"github.com/dkeye/OneVoice/internal/adapters/minio"
	"github.com/dkeye/OneVoice/internal/adapters/rtc"
	sig "github.com/dkeye/OneVoice/internal/adapters/signal"
	"github.com/dkeye/OneVoice/internal/app"
	"github.com/dkeye/OneVoice/internal/config"
	"github.com/dkeye/OneVoice/internal/core"
	"github.com/dkeye/OneVoice/internal/identity"
	"github.com/dkeye/OneVoice/internal/metrics"
	"github.com/dkeye/OneVoice/internal/store"
	"github.com/dkeye/OneVoice/internal/store/memory"
	"github.com/dkeye/OneVoice/internal/store/postgres"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(cfg *config.Config) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP and signaling server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema migrations before serving (postgres only)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	st, err := openStore(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	defer st.Close()

	events, closeEvents, err := openEvents(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	recordings, err := openRecordings(cfg)
	if err != nil {
		return err
	}
	iceConfig, err := rtc.NewClientConfig(cfg.ICEServers)
	if err != nil {
		return err
	}
	tokens, err := identity.NewVerifier(cfg.Secret)
	if err != nil {
		return err
	}

	m := metrics.New()
	reg := core.NewRegistry()
	hub := &app.Hub{
		Registry: reg,
		Policy:   app.EvictPolicy{},
		Chat:     app.NewRateLimiter(cfg.ChatRate.Limit, cfg.ChatRate.Window),
		Metrics:  m,
	}

	g, gctx := errgroup.WithContext(ctx)

	api := &router.API{
		Rooms:    app.NewRooms(st),
		Sessions: app.NewSessions(st, hub, events, recordings, m),
		Roster:   app.NewRoster(st, hub),
		Chat:     app.NewChat(st, hub),
		Signal: &sig.SignalWSController{
			Hub:          hub,
			Admission:    app.NewAdmission(st),
			Identify:     router.CurrentIdentity,
			ReadLimit:    cfg.ReadLimit,
			WriteTimeout: cfg.WriteTimeout,
			SendBuffer:   cfg.SendBuffer,
		},
		Tokens:  tokens,
		RTC:     iceConfig,
		Metrics: m,
		Gauges:  func() { m.SetConnections(reg.Len()) },
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRouter(gctx, cfg, api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("OneVoice server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		monitor := &app.LivenessMonitor{Hub: hub, Period: cfg.PingPeriod}
		return monitor.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		// Hijacked sockets are not tracked by Shutdown.
		for _, c := range reg.Live() {
			c.Close()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, migrate bool) (store.Store, error) {
	if cfg.Database.Driver != "postgres" {
		log.Warn().Str("module", "store").Msg("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}
	pg, err := postgres.Open(cfg.Database.DSN, cfg.Mode == "debug")
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if migrate {
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}
	return pg, nil
}

func openEvents(ctx context.Context, cfg *config.Config) (app.EventPublisher, func(), error) {
	if !cfg.AMQP.Enabled() {
		log.Info().Str("module", "adapters.amqp").Msg("event publishing disabled")
		return app.NopPublisher{}, func() {}, nil
	}
	pub, err := amqp.Dial(ctx, cfg.AMQP)
	if err != nil {
		return nil, nil, err
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn().Str("module", "adapters.amqp").Err(err).Msg("close publisher")
		}
	}, nil
}

func openRecordings(cfg *config.Config) (app.RecordingFinalizer, error) {
	if cfg.Recording.Driver == "minio" {
		return minio.New(cfg.Recording.MinIO)
	}
	return app.StaticRecordings{BaseURL: cfg.Recording.BaseURL}, nil
}
