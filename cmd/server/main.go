package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Desk/internal/adapters/http"
	wsignal "github.com/dkeye/Desk/internal/adapters/signal"
	"github.com/dkeye/Desk/internal/app"
	"github.com/dkeye/Desk/internal/app/orch"
	"github.com/dkeye/Desk/internal/config"
	"github.com/dkeye/Desk/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	o := orch.New(app.SimplePolicy{}, m)

	sweeper := app.NewSweeper(o.Sessions, cfg.SweepInterval, cfg.SessionIdleTimeout)
	sweeper.OnSwept = o.OnSwept
	go sweeper.Run(ctx)
	defer sweeper.Stop()

	ctrl := wsignal.NewSignalWSController(o, cfg, m)
	r := router.SetupRouter(ctx, cfg, o, ctrl, promhttp.Handler())
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Desk server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
